package showsim

import "time"

// Config holds configuration for one simulated show.
type Config struct {
	Seed       int64  // Seed for the stable generator and luck rolls
	Horses     int    // Number of horses to generate
	Discipline string // Discipline the show runs in
	PrizePool  int64  // Prize pool split across the podium
	EntryFee   int64  // Per-entry fee credited to the host owner
	DBPath     string // SQLite database file; empty keeps everything in memory
	OutputFile string // Output file for the JSON report
	LogFile    string // Log file for run output
	Verbose    bool   // Enable verbose reporting
}

// Report is the JSON document written when an output file is requested.
type Report struct {
	Show     ShowInfo   `json:"show"`
	Placings []Placing  `json:"placings"`
	Skipped  []Skip     `json:"skipped,omitempty"`
	Prizes   PrizeTable `json:"prizes"`
	Xp       XpSummary  `json:"xp"`
	Traits   TraitInfo  `json:"traits"`
}

// ShowInfo identifies the simulated show.
type ShowInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Discipline string `json:"discipline"`
	PrizePool  int64  `json:"prize_pool"`
	EntryFee   int64  `json:"entry_fee"`
	Entrants   int    `json:"entrants"`
}

// Placing is one row of the finishing order.
type Placing struct {
	Placement string  `json:"placement,omitempty"`
	HorseID   string  `json:"horse_id"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Prize     int64   `json:"prize,omitempty"`
	ScoreErr  string  `json:"score_error,omitempty"`
}

// Skip is one horse turned away at the gate.
type Skip struct {
	HorseID string `json:"horse_id"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
}

// PrizeTable is the podium payout plus the fees the host collected.
type PrizeTable struct {
	First  int64 `json:"first"`
	Second int64 `json:"second"`
	Third  int64 `json:"third"`
	Paid   int64 `json:"paid"`
	Fees   int64 `json:"fees_collected"`
}

// XpSummary aggregates the experience awarded by the run.
type XpSummary struct {
	TotalAwarded  int `json:"total_awarded"`
	OwnersLeveled int `json:"owners_leveled"`
	LedgerEvents  int `json:"ledger_events"`
}

// TraitInfo aggregates trait effects across the scored field.
type TraitInfo struct {
	HorsesWithBonus   int            `json:"horses_with_bonus"`
	HorsesWithPenalty int            `json:"horses_with_penalty"`
	AffinityMatches   int            `json:"affinity_matches"`
	AverageModifier   float64        `json:"average_modifier"`
	AppliedCounts     map[string]int `json:"applied_counts,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	OwnersGenerated  int
	HorsesGenerated  int
	EligibleEntries  int
	SkippedEntries   int
	ResultsPersisted int
	PrizesAwarded    int64
	XpAwarded        int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
