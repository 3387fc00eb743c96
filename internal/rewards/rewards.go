// Package rewards walks ranked results and applies prizes, XP, and audit
// entries with per-horse fault isolation.
package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/hoofline/showring/internal/adapters/repository"
	"github.com/hoofline/showring/internal/domain/model"
	"github.com/hoofline/showring/internal/domain/prize"
	"github.com/hoofline/showring/internal/domain/progression"
	"github.com/hoofline/showring/internal/domain/simulation"
	"github.com/hoofline/showring/pkg/logger"
	"github.com/hoofline/showring/pkg/metrics"
)

// Stage names one step of the per-horse reward walk. Every horse's walk
// ends at done; only a non-duplicate persistence failure aborts a batch.
type Stage string

const (
	StageResultPersisted Stage = "result_persisted"
	StagePrizeApplied    Stage = "prize_applied"
	StagePrizeSkipped    Stage = "prize_skipped"
	StageOwnerXpAwarded  Stage = "owner_xp_awarded"
	StageOwnerXpFailed   Stage = "owner_xp_failed"
	StageXpLedger        Stage = "xp_ledger"
	StageHorseXpAwarded  Stage = "horse_xp_awarded"
	StageHorseXpFailed   Stage = "horse_xp_failed"
	StageDone            Stage = "done"
)

// ResultWriter persists competition results.
type ResultWriter interface {
	CreateResult(ctx context.Context, result model.CompetitionResult) (model.CompetitionResult, error)
}

// HorseRewarder credits prize money and stat gains.
type HorseRewarder interface {
	ApplyHorseReward(ctx context.Context, horseID string, prize int64, gain model.StatGain) (model.Horse, error)
}

// OwnerProgression awards owner XP and writes ledger entries.
type OwnerProgression interface {
	AwardOwnerXP(ctx context.Context, ownerID string, amount int) (progression.LevelUp, error)
	AppendXpEvent(ctx context.Context, ownerID string, amount int, reason string) (model.XpEvent, error)
}

// HorseProgression awards horse XP and stat points.
type HorseProgression interface {
	AwardHorseXP(ctx context.Context, horseID, placement, discipline string) (repository.HorseXPAward, error)
}

// Store is the slice of the persistence surface the applier writes to.
type Store interface {
	ResultWriter
	HorseRewarder
	OwnerProgression
	HorseProgression
}

// Note records a non-fatal event in a horse's reward walk.
type Note struct {
	HorseID string
	Stage   Stage
	Message string
}

// Batch is one show's ranked field plus its prize split.
type Batch struct {
	Show    model.Show
	Ranked  []simulation.Ranked
	Prizes  prize.Distribution
	TopStat string // the discipline's primary stat, receives placement gains
}

// Outcome aggregates everything the applier committed for a batch.
type Outcome struct {
	Results         []model.CompetitionResult
	XpEvents        []model.XpEvent
	PrizesAwarded   int64
	OwnerXpAwarded  int
	HorseXpAwarded  int
	OwnersLeveledUp int
	Notes           []Note
}

// Option applies a configuration option to the Applier.
type Option func(*Applier)

// WithLogger sets the applier's logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Applier) {
		if log != nil {
			a.log = log
		}
	}
}

// Applier walks ranked results in order and applies every reward step.
type Applier struct {
	store Store
	log   logger.Logger
}

// New creates an applier over store.
func New(store Store, opts ...Option) *Applier {
	a := &Applier{
		store: store,
		log:   logger.Named("rewards"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply processes the ranked field strictly in rank order: all side
// effects for one horse are issued before the next horse starts. A
// duplicate result skips that horse; any other persistence failure aborts
// the batch with the outcome so far. Prize, XP, and ledger failures are
// logged and noted, never fatal.
func (a *Applier) Apply(ctx context.Context, batch Batch) (Outcome, error) {
	var out Outcome

	for _, entry := range batch.Ranked {
		prizeWon := batch.Prizes.ByPlacement(entry.Placement)

		var gain model.StatGain
		if amount := progression.StatGainForPlacement(entry.Placement); amount > 0 && prizeWon > 0 && batch.TopStat != "" {
			gain = model.StatGain{Stat: batch.TopStat, Amount: amount}
		}

		stored, err := a.store.CreateResult(ctx, model.CompetitionResult{
			HorseID:       entry.Horse.ID,
			ShowID:        batch.Show.ID,
			ShowName:      batch.Show.Name,
			Discipline:    batch.Show.Discipline,
			Score:         entry.Score,
			Placement:     entry.Placement,
			PrizeWon:      prizeWon,
			StatGain:      gain,
			TraitSnapshot: entry.Result.Traits,
			ScoreErr:      entry.ScoreErr,
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateResult) {
				metrics.RecordDuplicateResult()
				a.log.Warn(ctx, "horse already has a result for this show, skipping",
					logger.String("horse", entry.Horse.ID),
					logger.String("show", batch.Show.ID))
				out.Notes = append(out.Notes, Note{
					HorseID: entry.Horse.ID,
					Stage:   StageResultPersisted,
					Message: "already entered, result kept from earlier run",
				})
				continue
			}
			return out, fmt.Errorf("persist result for horse %s: %w", entry.Horse.ID, err)
		}
		out.Results = append(out.Results, stored)
		metrics.RecordResultPersisted()

		a.applyPrize(ctx, &out, entry, prizeWon, gain)

		if entry.Placement != "" {
			a.awardOwnerXP(ctx, &out, batch.Show, entry)
			a.awardHorseXP(ctx, &out, batch.Show, entry)
		}
	}

	return out, nil
}

func (a *Applier) applyPrize(ctx context.Context, out *Outcome, entry simulation.Ranked, prizeWon int64, gain model.StatGain) {
	if prizeWon <= 0 {
		return
	}

	if _, err := a.store.ApplyHorseReward(ctx, entry.Horse.ID, prizeWon, gain); err != nil {
		metrics.RecordRewardStageError(string(StagePrizeApplied))
		a.log.Error(ctx, "prize application failed",
			logger.String("horse", entry.Horse.ID),
			logger.Int64("prize", prizeWon),
			logger.Error(err))
		out.Notes = append(out.Notes, Note{
			HorseID: entry.Horse.ID,
			Stage:   StagePrizeSkipped,
			Message: fmt.Sprintf("prize of %d not applied: %v", prizeWon, err),
		})
		return
	}

	out.PrizesAwarded += prizeWon
	metrics.RecordPrizeAwarded(prizeWon)
}

func (a *Applier) awardOwnerXP(ctx context.Context, out *Outcome, show model.Show, entry simulation.Ranked) {
	amount := progression.OwnerXPForPlacement(entry.Placement)
	ownerID := entry.Horse.OwnerID

	up, err := a.store.AwardOwnerXP(ctx, ownerID, amount)
	if err != nil {
		metrics.RecordRewardStageError(string(StageOwnerXpAwarded))
		a.log.Error(ctx, "owner xp award failed",
			logger.String("owner", ownerID),
			logger.String("horse", entry.Horse.ID),
			logger.Error(err))
		out.Notes = append(out.Notes, Note{
			HorseID: entry.Horse.ID,
			Stage:   StageOwnerXpFailed,
			Message: fmt.Sprintf("owner xp of %d not awarded: %v", amount, err),
		})
	} else {
		out.OwnerXpAwarded += amount
		metrics.RecordOwnerXp(amount)
		if up.LeveledUp {
			out.OwnersLeveledUp++
			metrics.RecordOwnerLevelUps(up.LevelsGained)
		}
	}

	// The audit row is written even when the award failed; the ledger
	// records intent and each sub-step fails independently.
	reason := fmt.Sprintf("placed %s in %s", entry.Placement, show.Name)
	event, err := a.store.AppendXpEvent(ctx, ownerID, amount, reason)
	if err != nil {
		metrics.RecordRewardStageError(string(StageXpLedger))
		a.log.Error(ctx, "xp ledger write failed",
			logger.String("owner", ownerID),
			logger.Error(err))
		out.Notes = append(out.Notes, Note{
			HorseID: entry.Horse.ID,
			Stage:   StageXpLedger,
			Message: fmt.Sprintf("xp event not recorded: %v", err),
		})
		return
	}
	out.XpEvents = append(out.XpEvents, event)
}

func (a *Applier) awardHorseXP(ctx context.Context, out *Outcome, show model.Show, entry simulation.Ranked) {
	award, err := a.store.AwardHorseXP(ctx, entry.Horse.ID, entry.Placement, show.Discipline)
	if err != nil {
		metrics.RecordRewardStageError(string(StageHorseXpAwarded))
		a.log.Error(ctx, "horse xp award failed",
			logger.String("horse", entry.Horse.ID),
			logger.Error(err))
		out.Notes = append(out.Notes, Note{
			HorseID: entry.Horse.ID,
			Stage:   StageHorseXpFailed,
			Message: fmt.Sprintf("horse xp not awarded: %v", err),
		})
		return
	}
	out.HorseXpAwarded += award.XPAwarded
	metrics.RecordHorseXp(award.XPAwarded)
}
