// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hoofline/showring/internal/adapters/repository"
	"github.com/hoofline/showring/internal/domain/model"
)

// ResultsDependencies defines the read surface for result queries.
type ResultsDependencies interface {
	GetShow(ctx context.Context, id string) (model.Show, error)
	ResultsForShow(ctx context.Context, showID string) ([]model.CompetitionResult, error)
	GetHorse(ctx context.Context, id string) (model.Horse, error)
	ResultsForHorse(ctx context.Context, horseID string) ([]model.CompetitionResult, error)
}

// ResultsHandler handles show and horse result queries.
type ResultsHandler struct {
	deps ResultsDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultsDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandleShowResults handles GET /shows/{show_id}/results requests.
func (h *ResultsHandler) HandleShowResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathParam(r.URL.Path, "/shows/", "results")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	show, err := h.deps.GetShow(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	results, err := h.deps.ResultsForShow(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, newShowResultsResponse(show, results))
}

// HandleHorseResults handles GET /horses/{horse_id}/results requests.
func (h *ResultsHandler) HandleHorseResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathParam(r.URL.Path, "/horses/", "results")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	horse, err := h.deps.GetHorse(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrHorseNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	results, err := h.deps.ResultsForHorse(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, newHorseResultsResponse(horse, results))
}

// resultResponse mirrors one persisted competition result row.
type resultResponse struct {
	HorseID    string    `json:"horse_id"`
	ShowID     string    `json:"show_id"`
	ShowName   string    `json:"show_name"`
	Discipline string    `json:"discipline"`
	Score      float64   `json:"score"`
	Placement  string    `json:"placement,omitempty"`
	PrizeWon   int64     `json:"prize_won,omitempty"`
	StatGained string    `json:"stat_gained,omitempty"`
	StatAmount int       `json:"stat_amount,omitempty"`
	ScoreError string    `json:"score_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func newResultResponse(res model.CompetitionResult) resultResponse {
	return resultResponse{
		HorseID:    res.HorseID,
		ShowID:     res.ShowID,
		ShowName:   res.ShowName,
		Discipline: res.Discipline,
		Score:      res.Score,
		Placement:  res.Placement,
		PrizeWon:   res.PrizeWon,
		StatGained: res.StatGain.Stat,
		StatAmount: res.StatGain.Amount,
		ScoreError: res.ScoreErr,
		CreatedAt:  res.CreatedAt,
	}
}

func newResultResponses(results []model.CompetitionResult) []resultResponse {
	out := make([]resultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, newResultResponse(res))
	}
	return out
}

// showResultsResponse is the read shape for GET /shows/{show_id}/results.
type showResultsResponse struct {
	ShowID     string           `json:"show_id"`
	Name       string           `json:"name"`
	Discipline string           `json:"discipline"`
	PrizePool  int64            `json:"prize_pool"`
	EntryFee   int64            `json:"entry_fee"`
	RunsAt     time.Time        `json:"runs_at"`
	RanAt      *time.Time       `json:"ran_at,omitempty"`
	Results    []resultResponse `json:"results"`
}

func newShowResultsResponse(show model.Show, results []model.CompetitionResult) showResultsResponse {
	return showResultsResponse{
		ShowID:     show.ID,
		Name:       show.Name,
		Discipline: show.Discipline,
		PrizePool:  show.PrizePool,
		EntryFee:   show.EntryFee,
		RunsAt:     show.RunsAt,
		RanAt:      show.RanAt,
		Results:    newResultResponses(results),
	}
}

// horseResultsResponse is the read shape for GET /horses/{horse_id}/results.
type horseResultsResponse struct {
	HorseID  string           `json:"horse_id"`
	Name     string           `json:"name"`
	OwnerID  string           `json:"owner_id"`
	Earnings int64            `json:"earnings"`
	XP       int64            `json:"xp"`
	Results  []resultResponse `json:"results"`
}

func newHorseResultsResponse(horse model.Horse, results []model.CompetitionResult) horseResultsResponse {
	return horseResultsResponse{
		HorseID:  horse.ID,
		Name:     horse.Name,
		OwnerID:  horse.OwnerID,
		Earnings: horse.Earnings,
		XP:       horse.XP,
		Results:  newResultResponses(results),
	}
}
