// Package model contains domain entities passed between layers.
package model

import (
	"time"

	"github.com/hoofline/showring/internal/domain/traits"
)

// HealthRating grades a horse's current condition. Ratings map to score
// percentage adjustments configured at startup.
type HealthRating string

const (
	HealthExcellent HealthRating = "excellent"
	HealthGood      HealthRating = "good"
	HealthFair      HealthRating = "fair"
	HealthPoor      HealthRating = "poor"
	HealthCritical  HealthRating = "critical"
)

// Rider is the person assigned to pilot a horse in competition.
type Rider struct {
	Name  string
	Skill float64 // 0-10 scale; 5 is average
}

// Tack is the equipment fitted to a horse for a show.
type Tack struct {
	SaddleBonus float64
	BridleBonus float64
}

// Horse is a competition entrant snapshot.
type Horse struct {
	ID               string
	Name             string
	OwnerID          string
	AgeYears         int
	Stats            map[string]float64 // speed, stamina, focus, ...; missing key reads as 0
	DisciplineScores map[string]float64 // accumulated training per discipline
	TraitsPositive   []string
	TraitsNegative   []string
	TraitsHidden     []string // carried but never scored
	Health           HealthRating
	StressLevel      float64 // audit data, not a scoring term
	Tack             Tack
	Rider            *Rider // nil means no rider assigned
	Earnings         int64
	XP               int64
	StatPoints       int
}

// VisibleTraits returns the traits that may influence scoring: positive
// traits followed by negative ones. Hidden traits are excluded.
func (h Horse) VisibleTraits() []string {
	visible := make([]string, 0, len(h.TraitsPositive)+len(h.TraitsNegative))
	visible = append(visible, h.TraitsPositive...)
	return append(visible, h.TraitsNegative...)
}

// Show is a scheduled competition.
type Show struct {
	ID         string
	Name       string
	Discipline string
	PrizePool  int64
	EntryFee   int64
	HostID     string // owner credited with collected entry fees
	RunsAt     time.Time
	RanAt      *time.Time // set once the scheduler has run the show
}

// StatGain records a placement stat award applied to a horse.
type StatGain struct {
	Stat   string
	Amount int
}

// CompetitionResult is the persisted outcome of one horse in one show.
// At most one result may exist per (HorseID, ShowID) pair.
type CompetitionResult struct {
	ID            string
	HorseID       string
	ShowID        string
	ShowName      string
	Discipline    string
	Score         float64
	Placement     string // "1st", "2nd", "3rd"; empty when unplaced
	PrizeWon      int64
	StatGain      StatGain
	TraitSnapshot traits.Outcome
	ScoreErr      string // set when the horse scored 0 due to a calculation fault
	CreatedAt     time.Time
}

// Placed reports whether the result earned one of the top three placements.
func (r CompetitionResult) Placed() bool {
	return r.Placement != ""
}

// Owner is a player who owns horses and hosts or enters shows.
type Owner struct {
	ID    string
	Name  string
	Money int64 // whole currency units
	XP    int
	Level int
}

// XpEvent is one audit row in the owner XP ledger.
type XpEvent struct {
	ID        string
	OwnerID   string
	Amount    int
	Reason    string
	CreatedAt time.Time
}
