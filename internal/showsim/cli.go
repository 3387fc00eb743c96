package showsim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/hoofline/showring/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "showsim_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Showring Simulation Tool
========================

Seeds a demo stable, enters every horse into one show, and prints the
outcome: finishing order, prizes, experience and trait effects.

Usage:
  go run cmd/showsim/main.go [options]

Options:
  -seed int
        Seed for the stable generator; the same seed replays the same show (default 1)
  -horses int
        Number of horses to generate (default 12)
  -discipline string
        Show discipline (default "racing")
  -pool int
        Prize pool split 50/30/20 across the podium (default 1000)
  -fee int
        Entry fee credited to the host owner (default 25)
  -db string
        SQLite database file (default: in-memory store)
  -output string
        Output file for the JSON report (default: none)
  -log string
        Log file for run output (default: showsim_TIMESTAMP.log)
  -verbose
        Show score statistics and per-trait application counts
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/showsim/main.go

  # A bigger dressage field with a reproducible stable
  go run cmd/showsim/main.go -discipline dressage -horses 24 -seed 7

  # Persist the run to SQLite and dump the report
  go run cmd/showsim/main.go -db showring.db -output report.json
`)
}
