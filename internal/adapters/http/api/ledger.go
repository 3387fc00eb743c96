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

// LedgerDependencies defines the read surface for owner ledger queries.
type LedgerDependencies interface {
	GetOwner(ctx context.Context, id string) (model.Owner, error)
	ListXpEvents(ctx context.Context, ownerID string) ([]model.XpEvent, error)
}

// LedgerHandler handles owner XP ledger queries.
type LedgerHandler struct {
	deps LedgerDependencies
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(deps LedgerDependencies) *LedgerHandler {
	return &LedgerHandler{deps: deps}
}

// HandleOwnerLedger handles GET /owners/{owner_id}/ledger requests.
// The ledger lists every XP grant in the order it was recorded.
func (h *LedgerHandler) HandleOwnerLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathParam(r.URL.Path, "/owners/", "ledger")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	// Resolve the owner first: an empty ledger for an unknown owner must
	// read as 404, not as an owner with no events.
	owner, err := h.deps.GetOwner(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOwnerNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	events, err := h.deps.ListXpEvents(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, newLedgerResponse(owner, events))
}

// ledgerResponse is the read shape for GET /owners/{owner_id}/ledger.
type ledgerResponse struct {
	OwnerID string            `json:"owner_id"`
	Name    string            `json:"name"`
	Money   int64             `json:"money"`
	XP      int               `json:"xp"`
	Level   int               `json:"level"`
	Events  []xpEventResponse `json:"events"`
}

type xpEventResponse struct {
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func newLedgerResponse(owner model.Owner, events []model.XpEvent) ledgerResponse {
	out := make([]xpEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, xpEventResponse{
			Amount:    ev.Amount,
			Reason:    ev.Reason,
			CreatedAt: ev.CreatedAt,
		})
	}
	return ledgerResponse{
		OwnerID: owner.ID,
		Name:    owner.Name,
		Money:   owner.Money,
		XP:      owner.XP,
		Level:   owner.Level,
		Events:  out,
	}
}
