package showsim

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/hoofline/showring/internal/adapters/repository"
	service "github.com/hoofline/showring/internal/app"
	"github.com/hoofline/showring/internal/config"
	"github.com/hoofline/showring/internal/domain/eligibility"
	"github.com/hoofline/showring/internal/domain/model"
	"github.com/hoofline/showring/internal/domain/scoring"
	"github.com/hoofline/showring/pkg/logger"
)

// Run seeds a demo stable into the configured store and plays one show
// end to end.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting show simulation",
		logger.Int64("seed", cfg.Seed),
		logger.Int("horses", cfg.Horses),
		logger.String("discipline", cfg.Discipline),
		logger.Int64("prizePool", cfg.PrizePool),
		logger.Int64("entryFee", cfg.EntryFee),
		logger.String("db", cfg.DBPath),
		logger.Any("verbose", cfg.Verbose))

	if cfg.Horses < 1 {
		return fmt.Errorf("at least one horse is required, got %d", cfg.Horses)
	}

	gameCfg := config.New()
	if _, ok := gameCfg.StatWeights[cfg.Discipline]; !ok {
		return fmt.Errorf("unknown discipline %q (have %s)",
			cfg.Discipline, strings.Join(knownDisciplines(gameCfg), ", "))
	}

	// Step 1: Open the store
	store, closeStore, err := openStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("store setup failed: %w", err)
	}
	defer closeStore()

	// Step 2: Generate the stable
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible demo data, not crypto
	owners, horses := generateStable(rng, cfg, gameCfg.EligibilityRules()[cfg.Discipline])
	show := generateShow(cfg, owners[0].ID)
	stats.OwnersGenerated = len(owners)
	stats.HorsesGenerated = len(horses)

	// Step 3: Seed the store
	if err := seedStore(ctx, store, owners, horses, show); err != nil {
		return fmt.Errorf("store seeding failed: %w", err)
	}

	// Step 4: Enter every horse and run the show
	svc := newService(store, gameCfg, rng)
	horseIDs := make([]string, len(horses))
	for i, h := range horses {
		horseIDs[i] = h.ID
	}

	outcome, err := svc.EnterAndRunShow(ctx, show.ID, horseIDs)
	if err != nil {
		return fmt.Errorf("show run failed: %w", err)
	}

	stats.EligibleEntries = outcome.Summary.ValidEntries
	stats.SkippedEntries = outcome.Summary.SkippedEntries
	stats.ResultsPersisted = len(outcome.Results)
	stats.PrizesAwarded = outcome.Summary.PrizesAwarded
	stats.XpAwarded = outcome.Summary.TotalXpAwarded

	// Step 5: Display the outcome
	displayOutcome(show, outcome, horses, cfg.Verbose)

	// Step 6: Save the report when requested
	if cfg.OutputFile != "" {
		if err := saveReportToFile(ctx, cfg, buildReport(show, outcome, horses)); err != nil {
			logger.Get().Warn(ctx, "failed to save report to file", logger.Error(err))
		}
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed")
	return nil
}

// openStore returns the configured store and a close func. An empty path
// selects the in-memory store.
func openStore(path string) (repository.Store, func(), error) {
	if path == "" {
		return repository.NewMemStore(), func() {}, nil
	}

	db, err := repository.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := db.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close store", logger.Error(err))
		}
	}
	return db, closeStore, nil
}

// seedStore writes the generated stable and show.
func seedStore(ctx context.Context, store repository.Store, owners []model.Owner, horses []model.Horse, show model.Show) error {
	for _, owner := range owners {
		if err := store.SaveOwner(ctx, owner); err != nil {
			return fmt.Errorf("save owner %s: %w", owner.ID, err)
		}
	}
	for _, horse := range horses {
		if err := store.SaveHorse(ctx, horse); err != nil {
			return fmt.Errorf("save horse %s: %w", horse.ID, err)
		}
	}
	if err := store.SaveShow(ctx, show); err != nil {
		return fmt.Errorf("save show %s: %w", show.ID, err)
	}
	return nil
}

// newService wires the default game tables into a service backed by the
// store. Scoring shares the generator's random source, so one seed
// reproduces the whole run, luck rolls included.
func newService(store repository.Store, gameCfg *config.Config, rng *rand.Rand) *service.Service {
	calc := scoring.New(
		scoring.WithStatWeights(gameCfg.StatWeights),
		scoring.WithTraitTable(gameCfg.TraitTable()),
		scoring.WithHealthModifiers(gameCfg.HealthTable()),
		scoring.WithRand(rng),
	)
	filter := eligibility.New(
		eligibility.WithMinRiderSkill(gameCfg.MinRiderSkill),
		eligibility.WithDefaultMinAge(gameCfg.DefaultMinAge),
		eligibility.WithDisciplineRules(gameCfg.EligibilityRules()),
	)

	return service.New(
		service.WithStore(store),
		service.WithCalculator(calc),
		service.WithFilter(filter),
		service.WithEntryFees(gameCfg.EntryFees),
	)
}

// knownDisciplines lists the disciplines the default tables cover.
func knownDisciplines(gameCfg *config.Config) []string {
	out := make([]string, 0, len(gameCfg.StatWeights))
	for d := range gameCfg.StatWeights {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
