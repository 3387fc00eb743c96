// Package service orchestrates the show-entry pipeline: entrant
// resolution, eligibility, simulation, prize split, and reward
// application, assembled into a single entry summary.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hoofline/showring/internal/adapters/repository"
	"github.com/hoofline/showring/internal/domain/eligibility"
	"github.com/hoofline/showring/internal/domain/model"
	"github.com/hoofline/showring/internal/domain/prize"
	"github.com/hoofline/showring/internal/domain/scoring"
	"github.com/hoofline/showring/internal/domain/simulation"
	"github.com/hoofline/showring/internal/rewards"
	"github.com/hoofline/showring/pkg/logger"
	"github.com/hoofline/showring/pkg/metrics"
)

// FailedFetch records an entrant id that could not be resolved.
type FailedFetch struct {
	HorseID string
	Reason  string
}

// TopEntry is one podium row of the entry summary.
type TopEntry struct {
	HorseID   string
	Name      string
	Placement string
	Score     float64
	Prize     int64
}

// TraitStatistics aggregates trait effects across the scored field.
type TraitStatistics struct {
	HorsesWithBonus   int
	HorsesWithPenalty int
	AffinityMatches   int
	AverageModifier   float64
	AppliedCounts     map[string]int
}

// Summary is the aggregate outcome of one show run.
type Summary struct {
	Discipline         string
	TotalEntries       int
	ValidEntries       int
	SkippedEntries     int
	Skipped            []eligibility.Verdict
	TopThree           []TopEntry
	EntryFeesCollected int64
	PrizesAwarded      int64
	PrizeDistribution  prize.Distribution
	XpEvents           []model.XpEvent
	TotalXpAwarded     int
	UsersLeveledUp     int
	TraitStatistics    TraitStatistics
}

// EntryOutcome is the orchestrator's response for one entry request.
// Success is false when nobody could compete; that is a valid outcome,
// not an error.
type EntryOutcome struct {
	Success       bool
	Message       string
	Results       []model.CompetitionResult
	FailedFetches []FailedFetch
	Notes         []rewards.Note
	Summary       Summary
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCalculator sets the score calculator. The calculator also decides
// which stat receives placement gains.
func WithCalculator(calc *scoring.Calculator) Option {
	return func(s *Service) {
		if calc != nil {
			s.calc = calc
		}
	}
}

// WithFilter sets the eligibility filter.
func WithFilter(filter *eligibility.Filter) Option {
	return func(s *Service) {
		if filter != nil {
			s.filter = filter
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithEntryFees toggles fee collection at entry time.
func WithEntryFees(enabled bool) Option {
	return func(s *Service) {
		s.entryFees = enabled
	}
}

// Service runs shows end to end. One entry request is processed
// sequentially before its outcome is returned; there is no per-horse
// fan-out.
type Service struct {
	store     repository.Store
	calc      *scoring.Calculator
	filter    *eligibility.Filter
	applier   *rewards.Applier
	entryFees bool
	log       logger.Logger
}

// New constructs a Service. Without options it runs against an in-memory
// store, a calculator that knows no disciplines, and default eligibility
// thresholds.
func New(opts ...Option) *Service {
	s := &Service{
		entryFees: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemStore()
	}
	if s.calc == nil {
		s.calc = scoring.New()
	}
	if s.filter == nil {
		s.filter = eligibility.New()
	}
	if s.log == nil {
		s.log = logger.Named("service")
	}
	s.applier = rewards.New(s.store, rewards.WithLogger(s.log))

	return s
}

// EnterAndRunShow enters the given horses into a show and runs it to
// completion. Only a malformed request or a failed show lookup aborts
// before side effects; entrant-level problems degrade into summary
// fields. A non-duplicate persistence failure during rewards aborts the
// batch after partial side effects; committed rows stay committed and a
// re-run skips them as duplicates.
func (s *Service) EnterAndRunShow(ctx context.Context, showID string, horseIDs []string) (*EntryOutcome, error) {
	start := time.Now()

	if len(horseIDs) == 0 {
		return nil, ErrNoEntrants
	}
	if showID == "" {
		return nil, ErrNoShow
	}

	show, err := s.store.GetShow(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("load show %s: %w", showID, err)
	}

	metrics.RecordShowRun()
	metrics.RecordEntriesSubmitted(len(horseIDs))

	outcome := &EntryOutcome{
		Summary: Summary{
			Discipline:   show.Discipline,
			TotalEntries: len(horseIDs),
		},
	}

	horses := s.resolveEntrants(ctx, horseIDs, outcome)

	entered, err := s.store.HorseIDsWithResults(ctx, show.ID)
	if err != nil {
		return nil, fmt.Errorf("load prior entries for show %s: %w", show.ID, err)
	}

	eligible, skipped := s.filter.Split(horses, show, entered)
	outcome.Summary.Skipped = skipped
	outcome.Summary.SkippedEntries = len(skipped)
	outcome.Summary.ValidEntries = len(eligible)
	for _, verdict := range skipped {
		metrics.RecordEntrySkipped(verdict.Reason)
		s.log.Info(ctx, "entrant turned away",
			logger.String("horse", verdict.HorseID),
			logger.String("reason", verdict.Reason))
	}

	if len(eligible) == 0 {
		outcome.Message = "no valid horses could enter the show"
		return outcome, nil
	}

	outcome.Summary.EntryFeesCollected = s.collectEntryFees(ctx, show, len(eligible))

	ranked := simulation.Run(s.calc, eligible, show.Discipline)
	metrics.RecordEntriesSimulated(len(ranked))
	for _, entry := range ranked {
		if entry.ScoreErr != "" {
			metrics.RecordScoringError()
			s.log.Warn(ctx, "horse scored zero due to a calculation fault",
				logger.String("horse", entry.Horse.ID),
				logger.String("fault", entry.ScoreErr))
		}
	}

	dist := prize.Distribute(show.PrizePool)
	topStat, _ := s.calc.TopWeightedStat(show.Discipline)

	applied, err := s.applier.Apply(ctx, rewards.Batch{
		Show:    show,
		Ranked:  ranked,
		Prizes:  dist,
		TopStat: topStat,
	})
	if err != nil {
		return nil, fmt.Errorf("run show %s: %w", show.ID, err)
	}

	outcome.Results = applied.Results
	outcome.Notes = applied.Notes
	outcome.Summary.PrizesAwarded = applied.PrizesAwarded
	outcome.Summary.PrizeDistribution = dist
	outcome.Summary.XpEvents = applied.XpEvents
	outcome.Summary.TotalXpAwarded = applied.OwnerXpAwarded
	outcome.Summary.UsersLeveledUp = applied.OwnersLeveledUp
	outcome.Summary.TopThree = topThree(ranked, dist)
	outcome.Summary.TraitStatistics = traitStatistics(ranked)

	outcome.Success = true
	outcome.Message = fmt.Sprintf("show %s completed with %d entrants", show.Name, len(eligible))

	metrics.ObserveShowDuration(float64(time.Since(start).Milliseconds()))
	s.log.Info(ctx, "show completed",
		logger.String("show", show.ID),
		logger.String("discipline", show.Discipline),
		logger.Int("entrants", len(eligible)),
		logger.Int("skipped", len(skipped)),
		logger.Int64("prizesAwarded", applied.PrizesAwarded),
		logger.Duration("took", time.Since(start)),
	)

	return outcome, nil
}

// resolveEntrants loads the requested horses. Lookup failures are
// recorded on the outcome instead of stopping the run.
func (s *Service) resolveEntrants(ctx context.Context, horseIDs []string, outcome *EntryOutcome) []model.Horse {
	horses := make([]model.Horse, 0, len(horseIDs))
	for _, id := range horseIDs {
		horse, err := s.store.GetHorse(ctx, id)
		if err != nil {
			metrics.RecordFetchFailure()
			s.log.Warn(ctx, "entrant lookup failed",
				logger.String("horse", id),
				logger.Error(err))
			outcome.FailedFetches = append(outcome.FailedFetches, FailedFetch{
				HorseID: id,
				Reason:  err.Error(),
			})
			continue
		}
		horses = append(horses, horse)
	}
	return horses
}

// collectEntryFees credits the host with the entry fees. A transfer
// failure degrades to zero collected fees; the show still runs.
func (s *Service) collectEntryFees(ctx context.Context, show model.Show, entrants int) int64 {
	if !s.entryFees || show.EntryFee <= 0 {
		return 0
	}

	collected, err := s.store.TransferEntryFees(ctx, show.HostID, show.EntryFee, entrants)
	if err != nil {
		metrics.RecordFeeTransferError()
		s.log.Warn(ctx, "entry fee transfer failed, running show without fees",
			logger.String("show", show.ID),
			logger.String("host", show.HostID),
			logger.Error(err))
		return 0
	}

	metrics.RecordEntryFees(collected)
	return collected
}

// RunDueShows runs every show whose scheduled time has passed, entering
// all stabled horses; eligibility prunes the field per show. A failed
// show is logged and retried on the next sweep, it never stops the loop.
// Returns the number of shows that completed.
func (s *Service) RunDueShows(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.DueShows(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due shows: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	horses, err := s.store.ListHorses(ctx)
	if err != nil {
		return 0, fmt.Errorf("list horses: %w", err)
	}
	horseIDs := make([]string, len(horses))
	for i, h := range horses {
		horseIDs[i] = h.ID
	}

	ran := 0
	for _, show := range due {
		if len(horseIDs) == 0 {
			s.log.Info(ctx, "no horses stabled, closing show unrun",
				logger.String("show", show.ID))
			s.markRan(ctx, show.ID, now)
			ran++
			continue
		}

		if _, err := s.EnterAndRunShow(ctx, show.ID, horseIDs); err != nil {
			// Committed results survive; the retry skips them as
			// duplicates.
			s.log.Error(ctx, "scheduled show failed, will retry next sweep",
				logger.String("show", show.ID),
				logger.Error(err))
			continue
		}

		s.markRan(ctx, show.ID, now)
		ran++
	}

	return ran, nil
}

func (s *Service) markRan(ctx context.Context, showID string, now time.Time) {
	if err := s.store.MarkShowRan(ctx, showID, now); err != nil {
		s.log.Error(ctx, "failed to mark show as ran",
			logger.String("show", showID),
			logger.Error(err))
	}
}

func topThree(ranked []simulation.Ranked, dist prize.Distribution) []TopEntry {
	top := make([]TopEntry, 0, 3)
	for _, entry := range ranked {
		if entry.Placement == "" {
			break
		}
		top = append(top, TopEntry{
			HorseID:   entry.Horse.ID,
			Name:      entry.Horse.Name,
			Placement: entry.Placement,
			Score:     entry.Score,
			Prize:     dist.ByPlacement(entry.Placement),
		})
	}
	return top
}

// traitStatistics summarizes trait influence across the horses that were
// actually scored; horses that failed scoring carry no trait outcome.
func traitStatistics(ranked []simulation.Ranked) TraitStatistics {
	stats := TraitStatistics{AppliedCounts: make(map[string]int)}

	var modifierSum float64
	scored := 0
	for _, entry := range ranked {
		if entry.ScoreErr != "" {
			continue
		}
		scored++

		outcome := entry.Result.Traits
		if len(outcome.Bonuses) > 0 {
			stats.HorsesWithBonus++
		}
		if len(outcome.Penalties) > 0 {
			stats.HorsesWithPenalty++
		}
		if outcome.HasAffinity {
			stats.AffinityMatches++
		}
		modifierSum += outcome.Total
		for _, applied := range outcome.Applied {
			stats.AppliedCounts[applied.Name]++
		}
	}

	if scored > 0 {
		stats.AverageModifier = modifierSum / float64(scored)
	}
	return stats
}
