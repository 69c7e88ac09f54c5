package main

import "github.com/deltabots-com-br/api-log/internal/app"

func main() {
	app.Run()
}
