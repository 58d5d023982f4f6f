package main

import (
	"os"

	"github.com/orangelab-kr/backoffice-api/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
