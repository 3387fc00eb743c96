package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hoofline/showring/internal/domain/model"
	"github.com/hoofline/showring/internal/domain/progression"
)

// MemStore keeps all state in process memory. It backs tests and the
// simulation CLI's default mode. All methods are safe for concurrent use.
type MemStore struct {
	mu        sync.RWMutex
	horses    map[string]model.Horse
	owners    map[string]model.Owner
	shows     map[string]model.Show
	results   map[string]model.CompetitionResult
	resultIDs map[string]string // horseID|showID -> result id
	events    map[string][]model.XpEvent
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		horses:    make(map[string]model.Horse),
		owners:    make(map[string]model.Owner),
		shows:     make(map[string]model.Show),
		results:   make(map[string]model.CompetitionResult),
		resultIDs: make(map[string]string),
		events:    make(map[string][]model.XpEvent),
	}
}

// GetHorse returns a copy of the stored horse.
func (s *MemStore) GetHorse(ctx context.Context, id string) (model.Horse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	horse, ok := s.horses[id]
	if !ok {
		return model.Horse{}, fmt.Errorf("horse %s: %w", id, ErrHorseNotFound)
	}
	return cloneHorse(horse), nil
}

// SaveHorse stores a copy of horse, overwriting any previous version.
func (s *MemStore) SaveHorse(ctx context.Context, horse model.Horse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.horses[horse.ID] = cloneHorse(horse)
	return nil
}

// ListHorses returns every stored horse ordered by id, so batch entry
// order is deterministic.
func (s *MemStore) ListHorses(ctx context.Context) ([]model.Horse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	horses := make([]model.Horse, 0, len(s.horses))
	for _, h := range s.horses {
		horses = append(horses, cloneHorse(h))
	}
	sort.Slice(horses, func(i, j int) bool { return horses[i].ID < horses[j].ID })
	return horses, nil
}

// ApplyHorseReward credits prize money and applies the stat gain.
func (s *MemStore) ApplyHorseReward(ctx context.Context, horseID string, prize int64, gain model.StatGain) (model.Horse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	horse, ok := s.horses[horseID]
	if !ok {
		return model.Horse{}, fmt.Errorf("apply reward to horse %s: %w", horseID, ErrHorseNotFound)
	}

	horse = cloneHorse(horse)
	horse.Earnings += prize
	if gain.Stat != "" && gain.Amount != 0 {
		if horse.Stats == nil {
			horse.Stats = make(map[string]float64, 1)
		}
		horse.Stats[gain.Stat] += float64(gain.Amount)
	}

	s.horses[horseID] = horse
	return cloneHorse(horse), nil
}

// AwardHorseXP grants placement XP and banks stat points for each full
// hundred crossed.
func (s *MemStore) AwardHorseXP(ctx context.Context, horseID, placement, discipline string) (HorseXPAward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	horse, ok := s.horses[horseID]
	if !ok {
		return HorseXPAward{}, fmt.Errorf("award xp to horse %s: %w", horseID, ErrHorseNotFound)
	}

	amount := progression.HorseXPForPlacement(placement)
	total, points := progression.ApplyHorseXP(horse.XP, amount)

	horse = cloneHorse(horse)
	horse.XP = total
	horse.StatPoints += points
	s.horses[horseID] = horse

	return HorseXPAward{XPAwarded: amount, StatPointsGained: points}, nil
}

// GetOwner returns the stored owner.
func (s *MemStore) GetOwner(ctx context.Context, id string) (model.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.owners[id]
	if !ok {
		return model.Owner{}, fmt.Errorf("owner %s: %w", id, ErrOwnerNotFound)
	}
	return owner, nil
}

// SaveOwner stores owner, overwriting any previous version.
func (s *MemStore) SaveOwner(ctx context.Context, owner model.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.owners[owner.ID] = owner
	return nil
}

// AwardOwnerXP adds amount to the owner's XP and recomputes the level.
func (s *MemStore) AwardOwnerXP(ctx context.Context, ownerID string, amount int) (progression.LevelUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.owners[ownerID]
	if !ok {
		return progression.LevelUp{}, fmt.Errorf("award xp to owner %s: %w", ownerID, ErrOwnerNotFound)
	}

	total, up := progression.ApplyOwnerXP(owner.XP, amount)
	owner.XP = total
	owner.Level = up.CurrentLevel
	s.owners[ownerID] = owner

	return up, nil
}

// AppendXpEvent writes one audit row to the owner's ledger.
func (s *MemStore) AppendXpEvent(ctx context.Context, ownerID string, amount int, reason string) (model.XpEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owners[ownerID]; !ok {
		return model.XpEvent{}, fmt.Errorf("xp event for owner %s: %w", ownerID, ErrOwnerNotFound)
	}

	event := model.XpEvent{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	s.events[ownerID] = append(s.events[ownerID], event)
	return event, nil
}

// ListXpEvents returns the owner's ledger in append order.
func (s *MemStore) ListXpEvents(ctx context.Context, ownerID string) ([]model.XpEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.XpEvent(nil), s.events[ownerID]...), nil
}

// GetShow returns the stored show.
func (s *MemStore) GetShow(ctx context.Context, id string) (model.Show, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	show, ok := s.shows[id]
	if !ok {
		return model.Show{}, fmt.Errorf("show %s: %w", id, ErrShowNotFound)
	}
	return cloneShow(show), nil
}

// SaveShow stores show, overwriting any previous version.
func (s *MemStore) SaveShow(ctx context.Context, show model.Show) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shows[show.ID] = cloneShow(show)
	return nil
}

// DueShows lists un-run shows whose run time has passed, soonest first.
func (s *MemStore) DueShows(ctx context.Context, now time.Time) ([]model.Show, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []model.Show
	for _, show := range s.shows {
		if show.RanAt == nil && !show.RunsAt.After(now) {
			due = append(due, cloneShow(show))
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].RunsAt.Equal(due[j].RunsAt) {
			return due[i].RunsAt.Before(due[j].RunsAt)
		}
		return due[i].ID < due[j].ID
	})
	return due, nil
}

// MarkShowRan records when the show was run.
func (s *MemStore) MarkShowRan(ctx context.Context, showID string, ranAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	show, ok := s.shows[showID]
	if !ok {
		return fmt.Errorf("mark show %s ran: %w", showID, ErrShowNotFound)
	}
	show.RanAt = &ranAt
	s.shows[showID] = show
	return nil
}

// CreateResult persists a result, enforcing one per (horse, show).
func (s *MemStore) CreateResult(ctx context.Context, result model.CompetitionResult) (model.CompetitionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := result.HorseID + "|" + result.ShowID
	if _, exists := s.resultIDs[key]; exists {
		return model.CompetitionResult{}, fmt.Errorf("horse %s in show %s: %w", result.HorseID, result.ShowID, ErrDuplicateResult)
	}

	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}

	s.results[result.ID] = result
	s.resultIDs[key] = result.ID
	return result, nil
}

// ResultsForShow returns a show's results ordered best score first.
func (s *MemStore) ResultsForShow(ctx context.Context, showID string) ([]model.CompetitionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []model.CompetitionResult
	for _, r := range s.results {
		if r.ShowID == showID {
			results = append(results, r)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

// HorseIDsWithResults returns the prior-entries set for a show.
func (s *MemStore) HorseIDsWithResults(ctx context.Context, showID string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entered := make(map[string]bool)
	for _, r := range s.results {
		if r.ShowID == showID {
			entered[r.HorseID] = true
		}
	}
	return entered, nil
}

// ResultsForHorse returns a horse's results oldest first.
func (s *MemStore) ResultsForHorse(ctx context.Context, horseID string) ([]model.CompetitionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []model.CompetitionResult
	for _, r := range s.results {
		if r.HorseID == horseID {
			results = append(results, r)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.Before(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// TransferEntryFees credits the host with the collected fees.
func (s *MemStore) TransferEntryFees(ctx context.Context, hostID string, feePerEntry int64, entrants int) (int64, error) {
	if feePerEntry <= 0 || entrants <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	host, ok := s.owners[hostID]
	if !ok {
		return 0, fmt.Errorf("fee transfer to host %s: %w", hostID, ErrOwnerNotFound)
	}

	total := feePerEntry * int64(entrants)
	host.Money += total
	s.owners[hostID] = host
	return total, nil
}

func cloneHorse(h model.Horse) model.Horse {
	c := h
	c.Stats = cloneFloatMap(h.Stats)
	c.DisciplineScores = cloneFloatMap(h.DisciplineScores)
	c.TraitsPositive = append([]string(nil), h.TraitsPositive...)
	c.TraitsNegative = append([]string(nil), h.TraitsNegative...)
	c.TraitsHidden = append([]string(nil), h.TraitsHidden...)
	if h.Rider != nil {
		rider := *h.Rider
		c.Rider = &rider
	}
	return c
}

func cloneShow(s model.Show) model.Show {
	c := s
	if s.RanAt != nil {
		ranAt := *s.RanAt
		c.RanAt = &ranAt
	}
	return c
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	c := make(map[string]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
