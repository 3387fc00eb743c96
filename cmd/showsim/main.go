package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/hoofline/showring/internal/showsim"
)

// Default configuration constants.
const (
	defaultSeed       = 1
	defaultHorses     = 12
	defaultDiscipline = "racing"
	defaultPrizePool  = 1000
	defaultEntryFee   = 25
	defaultRunTimeout = 5 * time.Minute
)

func main() {
	var (
		seed       = flag.Int64("seed", defaultSeed, "Seed for the stable generator; the same seed replays the same show")
		horses     = flag.Int("horses", defaultHorses, "Number of horses to generate")
		discipline = flag.String("discipline", defaultDiscipline, "Show discipline")
		pool       = flag.Int64("pool", defaultPrizePool, "Prize pool split 50/30/20 across the podium")
		fee        = flag.Int64("fee", defaultEntryFee, "Entry fee credited to the host owner")
		dbPath     = flag.String("db", "", "SQLite database file (default: in-memory store)")
		outputFile = flag.String("output", "", "Output file for the JSON report (default: none)")
		logFile    = flag.String("log", "", "Log file for run output (default: showsim_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Show score statistics and per-trait application counts")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		showsim.ShowHelp()
		return
	}

	// Setup logging
	if err := showsim.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create simulation configuration
	config := &showsim.Config{
		Seed:       *seed,
		Horses:     *horses,
		Discipline: *discipline,
		PrizePool:  *pool,
		EntryFee:   *fee,
		DBPath:     *dbPath,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Run the simulation
	if err := showsim.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
