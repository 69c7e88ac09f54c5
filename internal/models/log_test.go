package models

import (
	"errors"
	"testing"
)

func TestParseLogType(t *testing.T) {
	cases := []struct {
		in   string
		want LogType
	}{
		{"rpa", LogTypeRPA},
		{"RPA", LogTypeRPA},
		{"Rpa", LogTypeRPA},
		{"ipaas", LogTypeIPaaS},
		{"IPAAS", LogTypeIPaaS},
		{"iPaaS", LogTypeIPaaS},
	}
	for _, tc := range cases {
		got, err := ParseLogType(tc.in)
		if err != nil {
			t.Fatalf("ParseLogType(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLogType(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestParseLogTypeUnknown(t *testing.T) {
	for _, in := range []string{"", "sap", "rpa ", "logs"} {
		if _, err := ParseLogType(in); !errors.Is(err, ErrInvalidLogType) {
			t.Fatalf("ParseLogType(%q): expected ErrInvalidLogType, got %v", in, err)
		}
	}
}

func TestCodeFieldMapping(t *testing.T) {
	if got := LogTypeRPA.CodeFilterKey(); got != "robo_codigo" {
		t.Fatalf("rpa filter key: got %q", got)
	}
	if got := LogTypeRPA.CodeFieldPath(); got != "message.summary.robo_codigo" {
		t.Fatalf("rpa field path: got %q", got)
	}
	if got := LogTypeIPaaS.CodeFilterKey(); got != "ipaas_codigo" {
		t.Fatalf("ipaas filter key: got %q", got)
	}
	if got := LogTypeIPaaS.CodeFieldPath(); got != "ipaas_codigo" {
		t.Fatalf("ipaas field path: got %q", got)
	}
}
