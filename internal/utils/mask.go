package utils

import (
	"fmt"
	"strings"
)

// MaskMongoURI hides the password portion of a MongoDB connection string so
// it can be logged safely. Both mongodb:// and mongodb+srv:// schemes are handled.
func MaskMongoURI(uri string) string {
	if uri == "" {
		return "--- EMPTY ---"
	}
	var prefix string
	switch {
	case strings.HasPrefix(strings.ToLower(uri), "mongodb+srv://"):
		prefix = "mongodb+srv://"
	case strings.HasPrefix(strings.ToLower(uri), "mongodb://"):
		prefix = "mongodb://"
	default:
		return "*** UNKNOWN MONGO URI FORMAT ***"
	}
	rest := uri[len(prefix):]
	atParts := strings.SplitN(rest, "@", 2)
	if len(atParts) < 2 {
		// No credentials embedded, nothing to mask.
		return uri
	}
	authPart := atParts[0]
	hostPart := atParts[1]
	colonParts := strings.SplitN(authPart, ":", 2)
	user := colonParts[0]
	if len(colonParts) < 2 || colonParts[1] == "" {
		return fmt.Sprintf("%s%s@%s", prefix, user, hostPart)
	}
	return fmt.Sprintf("%s%s:***MASKED***@%s", prefix, user, hostPart)
}

// MaskSecret masks a shared-secret value for trace logging, keeping only
// enough signal to tell "unset" from "configured".
func MaskSecret(secret string) string {
	if secret == "" {
		return "--- EMPTY (!!! WARNING: secret is empty !!!) ---"
	}
	if len(secret) < 8 {
		return fmt.Sprintf("*** MASKED (short: %d chars) ***", len(secret))
	}
	return "*** MASKED ***"
}
