package main

import (
	"os"

	"weekly_scheduler_bot/internal/infra/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
