package showsim

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	service "github.com/hoofline/showring/internal/app"
	"github.com/hoofline/showring/internal/domain/model"
	"github.com/hoofline/showring/internal/rewards"
	"github.com/hoofline/showring/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	reportPermission    = 0600
)

// displayOutcome prints the run outcome in finishing order.
func displayOutcome(show model.Show, outcome *service.EntryOutcome, horses []model.Horse, verbose bool) {
	names := horseNameIndex(horses)

	log.Printf("🏇 %s (%s): %d entered, %d competed, %d skipped",
		show.Name, show.Discipline,
		outcome.Summary.TotalEntries, outcome.Summary.ValidEntries, outcome.Summary.SkippedEntries)

	if !outcome.Success {
		log.Printf("⚠️  %s", outcome.Message)
	}

	for _, fetch := range outcome.FailedFetches {
		log.Printf("⚠️  %s could not be fetched: %s", fetch.HorseID, fetch.Reason)
	}
	for _, skip := range outcome.Summary.Skipped {
		log.Printf("🚫 %s turned away: %s", skip.Name, skip.Reason)
	}
	displayNotes(outcome.Notes)

	if len(outcome.Results) == 0 {
		return
	}

	log.Printf("🏆 Finishing order:")
	for i, result := range outcome.Results {
		line := fmt.Sprintf("   %2d. %-12s score %8.1f", i+1, names[result.HorseID], result.Score)
		if result.Placement != "" {
			line += "  " + result.Placement
		}
		if result.PrizeWon > 0 {
			line += fmt.Sprintf("  +%d", result.PrizeWon)
		}
		if result.StatGain.Amount > 0 {
			line += fmt.Sprintf("  (%s +%d)", result.StatGain.Stat, result.StatGain.Amount)
		}
		if result.ScoreErr != "" {
			line += "  [scoring fault]"
		}
		log.Print(line)
	}

	dist := outcome.Summary.PrizeDistribution
	log.Printf("💰 Prize split: 1st %d / 2nd %d / 3rd %d (paid %d, fees collected %d)",
		dist.First, dist.Second, dist.Third,
		outcome.Summary.PrizesAwarded, outcome.Summary.EntryFeesCollected)
	log.Printf("⭐ XP: %d awarded across %d ledger events, %d owner(s) leveled up",
		outcome.Summary.TotalXpAwarded, len(outcome.Summary.XpEvents), outcome.Summary.UsersLeveledUp)

	ts := outcome.Summary.TraitStatistics
	log.Printf("🧬 Traits: %d with bonus, %d with penalty, %d affinity match(es), average modifier %+.3f",
		ts.HorsesWithBonus, ts.HorsesWithPenalty, ts.AffinityMatches, ts.AverageModifier)

	if verbose {
		displayScoreStatistics(outcome.Results)
		displayTraitCounts(ts.AppliedCounts)
	}
}

// displayNotes surfaces reward-stage warnings; a clean run has none.
func displayNotes(notes []rewards.Note) {
	for _, note := range notes {
		log.Printf("⚠️  %s at %s: %s", note.HorseID, note.Stage, note.Message)
	}
}

// displayScoreStatistics prints aggregate score figures. Results arrive
// best first, so the extremes sit at the ends.
func displayScoreStatistics(results []model.CompetitionResult) {
	if len(results) == 0 {
		return
	}

	sum := 0.0
	for _, r := range results {
		sum += r.Score
	}

	log.Printf(`📊 Score statistics:
   Average: %.1f
   Maximum: %.1f
   Minimum: %.1f
`, sum/float64(len(results)), results[0].Score, results[len(results)-1].Score)
}

// displayTraitCounts lists per-trait application counts in stable order.
func displayTraitCounts(counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	log.Printf("📊 Trait applications:")
	for _, k := range keys {
		log.Printf("   %-32s %d", k, counts[k])
	}
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("ownersGenerated", stats.OwnersGenerated),
		logger.Int("horsesGenerated", stats.HorsesGenerated),
		logger.Int("eligibleEntries", stats.EligibleEntries),
		logger.Int("skippedEntries", stats.SkippedEntries),
		logger.Int("resultsPersisted", stats.ResultsPersisted),
		logger.Int64("prizesAwarded", stats.PrizesAwarded),
		logger.Int("xpAwarded", stats.XpAwarded),
		logger.String("duration", stats.Duration.String()))
}

// buildReport assembles the JSON document for the output file.
func buildReport(show model.Show, outcome *service.EntryOutcome, horses []model.Horse) *Report {
	names := horseNameIndex(horses)
	summary := outcome.Summary

	report := &Report{
		Show: ShowInfo{
			ID:         show.ID,
			Name:       show.Name,
			Discipline: show.Discipline,
			PrizePool:  show.PrizePool,
			EntryFee:   show.EntryFee,
			Entrants:   summary.ValidEntries,
		},
		Prizes: PrizeTable{
			First:  summary.PrizeDistribution.First,
			Second: summary.PrizeDistribution.Second,
			Third:  summary.PrizeDistribution.Third,
			Paid:   summary.PrizesAwarded,
			Fees:   summary.EntryFeesCollected,
		},
		Xp: XpSummary{
			TotalAwarded:  summary.TotalXpAwarded,
			OwnersLeveled: summary.UsersLeveledUp,
			LedgerEvents:  len(summary.XpEvents),
		},
		Traits: TraitInfo{
			HorsesWithBonus:   summary.TraitStatistics.HorsesWithBonus,
			HorsesWithPenalty: summary.TraitStatistics.HorsesWithPenalty,
			AffinityMatches:   summary.TraitStatistics.AffinityMatches,
			AverageModifier:   summary.TraitStatistics.AverageModifier,
			AppliedCounts:     summary.TraitStatistics.AppliedCounts,
		},
	}

	for _, result := range outcome.Results {
		report.Placings = append(report.Placings, Placing{
			Placement: result.Placement,
			HorseID:   result.HorseID,
			Name:      names[result.HorseID],
			Score:     result.Score,
			Prize:     result.PrizeWon,
			ScoreErr:  result.ScoreErr,
		})
	}
	for _, skip := range summary.Skipped {
		report.Skipped = append(report.Skipped, Skip{
			HorseID: skip.HorseID,
			Name:    skip.Name,
			Reason:  skip.Reason,
		})
	}

	return report
}

// saveReportToFile writes the report as indented JSON.
func saveReportToFile(ctx context.Context, cfg *Config, report *Report) error {
	filename := cfg.OutputFile

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(filename, data, reportPermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Get().Info(ctx, "report saved to file", logger.String("filename", filename))
	return nil
}

// horseNameIndex maps generated horse ids to display names.
func horseNameIndex(horses []model.Horse) map[string]string {
	names := make(map[string]string, len(horses))
	for _, h := range horses {
		names[h.ID] = h.Name
	}
	return names
}
