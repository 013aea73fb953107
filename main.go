package main

import (
	"os"

	"github.com/N3minator/TG-BOT/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
