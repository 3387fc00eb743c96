// Package repository defines the persistence contracts consumed by the
// competition pipeline, their sentinel errors, and two adapters: an
// in-memory store and a SQLite store.
package repository

import (
	"context"
	"time"

	"github.com/hoofline/showring/internal/domain/model"
	"github.com/hoofline/showring/internal/domain/progression"
)

// HorseXPAward reports the outcome of a horse XP grant.
type HorseXPAward struct {
	XPAwarded        int
	StatPointsGained int
}

// HorseStore provides read/write access to horses.
type HorseStore interface {
	// GetHorse returns ErrHorseNotFound for unknown ids.
	GetHorse(ctx context.Context, id string) (model.Horse, error)
	SaveHorse(ctx context.Context, horse model.Horse) error
	ListHorses(ctx context.Context) ([]model.Horse, error)

	// ApplyHorseReward credits prize money and adds the stat gain to the
	// named stat in one step, returning the updated horse.
	ApplyHorseReward(ctx context.Context, horseID string, prize int64, gain model.StatGain) (model.Horse, error)

	// AwardHorseXP grants placement XP and converts each full hundred
	// crossed into a stat point.
	AwardHorseXP(ctx context.Context, horseID, placement, discipline string) (HorseXPAward, error)
}

// OwnerStore provides read/write access to owners and their XP ledger.
type OwnerStore interface {
	// GetOwner returns ErrOwnerNotFound for unknown ids.
	GetOwner(ctx context.Context, id string) (model.Owner, error)
	SaveOwner(ctx context.Context, owner model.Owner) error

	// AwardOwnerXP adds amount to the owner's XP and recomputes the level.
	AwardOwnerXP(ctx context.Context, ownerID string, amount int) (progression.LevelUp, error)

	// AppendXpEvent writes one audit row to the owner's XP ledger.
	AppendXpEvent(ctx context.Context, ownerID string, amount int, reason string) (model.XpEvent, error)
	ListXpEvents(ctx context.Context, ownerID string) ([]model.XpEvent, error)
}

// ShowStore provides read/write access to shows.
type ShowStore interface {
	// GetShow returns ErrShowNotFound for unknown ids.
	GetShow(ctx context.Context, id string) (model.Show, error)
	SaveShow(ctx context.Context, show model.Show) error

	// DueShows lists shows whose run time has passed and that have not
	// been run yet.
	DueShows(ctx context.Context, now time.Time) ([]model.Show, error)
	MarkShowRan(ctx context.Context, showID string, ranAt time.Time) error
}

// ResultStore provides access to competition results.
type ResultStore interface {
	// CreateResult persists a result, assigning an id and timestamp when
	// absent. A second result for the same (horse, show) pair returns
	// ErrDuplicateResult.
	CreateResult(ctx context.Context, result model.CompetitionResult) (model.CompetitionResult, error)
	ResultsForShow(ctx context.Context, showID string) ([]model.CompetitionResult, error)

	// HorseIDsWithResults returns the ids of horses that already carry a
	// result for the show; eligibility uses it as the prior-entries set.
	HorseIDsWithResults(ctx context.Context, showID string) (map[string]bool, error)
	ResultsForHorse(ctx context.Context, horseID string) ([]model.CompetitionResult, error)
}

// EconomyStore moves money for show entry.
type EconomyStore interface {
	// TransferEntryFees credits the host with feePerEntry * entrants and
	// returns the total collected. Fails when the host is unknown.
	TransferEntryFees(ctx context.Context, hostID string, feePerEntry int64, entrants int) (int64, error)
}

// Store is the full persistence surface of the pipeline.
type Store interface {
	HorseStore
	OwnerStore
	ShowStore
	ResultStore
	EconomyStore
}
