// Package simulation ranks a field of eligible horses for one show.
package simulation

import (
	"sort"

	"github.com/hoofline/showring/internal/domain/model"
	"github.com/hoofline/showring/internal/domain/scoring"
)

// placements are assigned to the top three ranks only.
var placements = [3]string{"1st", "2nd", "3rd"} //nolint:gochecknoglobals // fixed labels

// Scorer computes one horse's score for a discipline.
type Scorer interface {
	Score(horse model.Horse, discipline string) (scoring.Result, error)
}

// Ranked is one horse's simulated outcome, ordered best first.
type Ranked struct {
	Horse     model.Horse
	Score     float64
	Placement string // "1st", "2nd", "3rd"; empty beyond the podium
	Result    scoring.Result
	ScoreErr  string // set when the calculator failed; the horse scored 0
}

// Run scores every horse and ranks the field. A per-horse scoring failure
// is recorded as a zero score with an error note rather than raised, so
// the output always has exactly len(horses) entries. The sort is stable:
// ties keep entry order.
func Run(scorer Scorer, horses []model.Horse, discipline string) []Ranked {
	ranked := make([]Ranked, 0, len(horses))

	for _, horse := range horses {
		entry := Ranked{Horse: horse}
		result, err := scorer.Score(horse, discipline)
		if err != nil {
			entry.ScoreErr = err.Error()
		} else {
			entry.Score = result.Score
			entry.Result = result
		}
		ranked = append(ranked, entry)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	for i := 0; i < len(ranked) && i < len(placements); i++ {
		ranked[i].Placement = placements[i]
	}

	return ranked
}
