package main

import (
	"log"
	"os"

	"github.com/avstrong/hotelbooking/internal/app"
	"github.com/avstrong/hotelbooking/internal/config"
	"github.com/avstrong/hotelbooking/internal/logger"
)

func main() {
	l := logger.New(log.Default())

	if config.LoadDotEnv() {
		l.LogInfo("Loaded .env")
	}

	var exitCode int

	if err := app.RunHotel(l); err != nil {
		l.LogErrorf("Failed to run hotel: %v", err.Error())

		exitCode = 1
	}

	os.Exit(exitCode)
}
