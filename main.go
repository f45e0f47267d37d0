package main

import (
	"log/slog"

	"github.com/BioHazard786/roomrelay/cmd"
	"github.com/BioHazard786/roomrelay/internal/logging"
)

func main() {
	// Client commands only show errors unless LOG_LEVEL is set.
	logging.Init(slog.LevelError)
	cmd.Execute()
}
