package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // database/sql driver

	"github.com/hoofline/showring/internal/domain/model"
	"github.com/hoofline/showring/internal/domain/progression"
)

// SQLiteStore persists pipeline state to a SQLite database. The mutex
// serializes read-modify-write sections; plain reads go straight to the
// database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and runs
// migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so reads keep working while the pipeline writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS horses (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			owner_id          TEXT NOT NULL,
			age_years         INTEGER NOT NULL,
			stats             TEXT NOT NULL,
			discipline_scores TEXT NOT NULL,
			traits_positive   TEXT NOT NULL,
			traits_negative   TEXT NOT NULL,
			traits_hidden     TEXT NOT NULL,
			health            TEXT NOT NULL,
			stress_level      REAL NOT NULL,
			saddle_bonus      REAL NOT NULL,
			bridle_bonus      REAL NOT NULL,
			rider_name        TEXT,
			rider_skill       REAL,
			earnings          INTEGER NOT NULL,
			xp                INTEGER NOT NULL,
			stat_points       INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS owners (
			id    TEXT PRIMARY KEY,
			name  TEXT NOT NULL,
			money INTEGER NOT NULL,
			xp    INTEGER NOT NULL,
			level INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS shows (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			discipline TEXT NOT NULL,
			prize_pool INTEGER NOT NULL,
			entry_fee  INTEGER NOT NULL,
			host_id    TEXT NOT NULL,
			runs_at    INTEGER NOT NULL,
			ran_at     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shows_due ON shows(runs_at) WHERE ran_at IS NULL`,

		`CREATE TABLE IF NOT EXISTS results (
			id               TEXT PRIMARY KEY,
			horse_id         TEXT NOT NULL,
			show_id          TEXT NOT NULL,
			show_name        TEXT NOT NULL,
			discipline       TEXT NOT NULL,
			score            REAL NOT NULL,
			placement        TEXT NOT NULL,
			prize_won        INTEGER NOT NULL,
			stat_gain_stat   TEXT NOT NULL,
			stat_gain_amount INTEGER NOT NULL,
			trait_snapshot   TEXT NOT NULL,
			score_err        TEXT NOT NULL,
			created_at       INTEGER NOT NULL,
			UNIQUE (horse_id, show_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_show ON results(show_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_horse ON results(horse_id)`,

		`CREATE TABLE IF NOT EXISTS xp_events (
			id         TEXT PRIMARY KEY,
			owner_id   TEXT NOT NULL,
			amount     INTEGER NOT NULL,
			reason     TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_xp_owner ON xp_events(owner_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %.48q: %w", stmt, err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const horseColumns = `id, name, owner_id, age_years, stats, discipline_scores,
	traits_positive, traits_negative, traits_hidden, health, stress_level,
	saddle_bonus, bridle_bonus, rider_name, rider_skill, earnings, xp, stat_points`

// GetHorse returns the stored horse.
func (s *SQLiteStore) GetHorse(ctx context.Context, id string) (model.Horse, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+horseColumns+` FROM horses WHERE id = ?`, id)
	horse, err := scanHorse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Horse{}, fmt.Errorf("horse %s: %w", id, ErrHorseNotFound)
	}
	if err != nil {
		return model.Horse{}, fmt.Errorf("get horse %s: %w", id, err)
	}
	return horse, nil
}

// SaveHorse upserts horse.
func (s *SQLiteStore) SaveHorse(ctx context.Context, horse model.Horse) error {
	stats, err := json.Marshal(horse.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	discScores, err := json.Marshal(horse.DisciplineScores)
	if err != nil {
		return fmt.Errorf("encode discipline scores: %w", err)
	}
	pos, err := json.Marshal(horse.TraitsPositive)
	if err != nil {
		return fmt.Errorf("encode traits: %w", err)
	}
	neg, err := json.Marshal(horse.TraitsNegative)
	if err != nil {
		return fmt.Errorf("encode traits: %w", err)
	}
	hidden, err := json.Marshal(horse.TraitsHidden)
	if err != nil {
		return fmt.Errorf("encode traits: %w", err)
	}

	var riderName, riderSkill any
	if horse.Rider != nil {
		riderName = horse.Rider.Name
		riderSkill = horse.Rider.Skill
	}

	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO horses (`+horseColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		horse.ID, horse.Name, horse.OwnerID, horse.AgeYears,
		string(stats), string(discScores), string(pos), string(neg), string(hidden),
		string(horse.Health), horse.StressLevel,
		horse.Tack.SaddleBonus, horse.Tack.BridleBonus,
		riderName, riderSkill,
		horse.Earnings, horse.XP, horse.StatPoints,
	)
	if err != nil {
		return fmt.Errorf("save horse %s: %w", horse.ID, err)
	}
	return nil
}

// ListHorses returns every horse ordered by id.
func (s *SQLiteStore) ListHorses(ctx context.Context) ([]model.Horse, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+horseColumns+` FROM horses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list horses: %w", err)
	}
	defer rows.Close()

	var horses []model.Horse
	for rows.Next() {
		horse, err := scanHorse(rows)
		if err != nil {
			return nil, fmt.Errorf("list horses: %w", err)
		}
		horses = append(horses, horse)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list horses: %w", err)
	}
	return horses, nil
}

// ApplyHorseReward credits prize money and applies the stat gain.
func (s *SQLiteStore) ApplyHorseReward(ctx context.Context, horseID string, prize int64, gain model.StatGain) (model.Horse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	horse, err := s.GetHorse(ctx, horseID)
	if err != nil {
		return model.Horse{}, err
	}

	horse.Earnings += prize
	if gain.Stat != "" && gain.Amount != 0 {
		if horse.Stats == nil {
			horse.Stats = make(map[string]float64, 1)
		}
		horse.Stats[gain.Stat] += float64(gain.Amount)
	}

	if err := s.SaveHorse(ctx, horse); err != nil {
		return model.Horse{}, err
	}
	return horse, nil
}

// AwardHorseXP grants placement XP and banks stat points for each full
// hundred crossed.
func (s *SQLiteStore) AwardHorseXP(ctx context.Context, horseID, placement, discipline string) (HorseXPAward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	horse, err := s.GetHorse(ctx, horseID)
	if err != nil {
		return HorseXPAward{}, err
	}

	amount := progression.HorseXPForPlacement(placement)
	total, points := progression.ApplyHorseXP(horse.XP, amount)
	horse.XP = total
	horse.StatPoints += points

	if err := s.SaveHorse(ctx, horse); err != nil {
		return HorseXPAward{}, err
	}
	return HorseXPAward{XPAwarded: amount, StatPointsGained: points}, nil
}

// GetOwner returns the stored owner.
func (s *SQLiteStore) GetOwner(ctx context.Context, id string) (model.Owner, error) {
	var owner model.Owner
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, money, xp, level FROM owners WHERE id = ?`, id,
	).Scan(&owner.ID, &owner.Name, &owner.Money, &owner.XP, &owner.Level)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Owner{}, fmt.Errorf("owner %s: %w", id, ErrOwnerNotFound)
	}
	if err != nil {
		return model.Owner{}, fmt.Errorf("get owner %s: %w", id, err)
	}
	return owner, nil
}

// SaveOwner upserts owner.
func (s *SQLiteStore) SaveOwner(ctx context.Context, owner model.Owner) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO owners (id, name, money, xp, level) VALUES (?,?,?,?,?)`,
		owner.ID, owner.Name, owner.Money, owner.XP, owner.Level,
	)
	if err != nil {
		return fmt.Errorf("save owner %s: %w", owner.ID, err)
	}
	return nil
}

// AwardOwnerXP adds amount to the owner's XP and recomputes the level.
func (s *SQLiteStore) AwardOwnerXP(ctx context.Context, ownerID string, amount int) (progression.LevelUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, err := s.GetOwner(ctx, ownerID)
	if err != nil {
		return progression.LevelUp{}, err
	}

	total, up := progression.ApplyOwnerXP(owner.XP, amount)
	owner.XP = total
	owner.Level = up.CurrentLevel

	if err := s.SaveOwner(ctx, owner); err != nil {
		return progression.LevelUp{}, err
	}
	return up, nil
}

// AppendXpEvent writes one audit row to the owner's ledger.
func (s *SQLiteStore) AppendXpEvent(ctx context.Context, ownerID string, amount int, reason string) (model.XpEvent, error) {
	if _, err := s.GetOwner(ctx, ownerID); err != nil {
		return model.XpEvent{}, err
	}

	event := model.XpEvent{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO xp_events (id, owner_id, amount, reason, created_at) VALUES (?,?,?,?,?)`,
		event.ID, event.OwnerID, event.Amount, event.Reason, event.CreatedAt.Unix(),
	)
	if err != nil {
		return model.XpEvent{}, fmt.Errorf("append xp event: %w", err)
	}
	return event, nil
}

// ListXpEvents returns the owner's ledger in append order.
func (s *SQLiteStore) ListXpEvents(ctx context.Context, ownerID string) ([]model.XpEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, amount, reason, created_at FROM xp_events
		 WHERE owner_id = ? ORDER BY rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list xp events: %w", err)
	}
	defer rows.Close()

	var events []model.XpEvent
	for rows.Next() {
		var (
			event     model.XpEvent
			createdAt int64
		)
		if err := rows.Scan(&event.ID, &event.OwnerID, &event.Amount, &event.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("list xp events: %w", err)
		}
		event.CreatedAt = time.Unix(createdAt, 0).UTC()
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list xp events: %w", err)
	}
	return events, nil
}

// GetShow returns the stored show.
func (s *SQLiteStore) GetShow(ctx context.Context, id string) (model.Show, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, discipline, prize_pool, entry_fee, host_id, runs_at, ran_at
		 FROM shows WHERE id = ?`, id)
	show, err := scanShow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Show{}, fmt.Errorf("show %s: %w", id, ErrShowNotFound)
	}
	if err != nil {
		return model.Show{}, fmt.Errorf("get show %s: %w", id, err)
	}
	return show, nil
}

// SaveShow upserts show.
func (s *SQLiteStore) SaveShow(ctx context.Context, show model.Show) error {
	var ranAt any
	if show.RanAt != nil {
		ranAt = show.RanAt.Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO shows (id, name, discipline, prize_pool, entry_fee, host_id, runs_at, ran_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		show.ID, show.Name, show.Discipline, show.PrizePool, show.EntryFee,
		show.HostID, show.RunsAt.Unix(), ranAt,
	)
	if err != nil {
		return fmt.Errorf("save show %s: %w", show.ID, err)
	}
	return nil
}

// DueShows lists un-run shows whose run time has passed, soonest first.
func (s *SQLiteStore) DueShows(ctx context.Context, now time.Time) ([]model.Show, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, discipline, prize_pool, entry_fee, host_id, runs_at, ran_at
		 FROM shows WHERE ran_at IS NULL AND runs_at <= ? ORDER BY runs_at, id`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("due shows: %w", err)
	}
	defer rows.Close()

	var due []model.Show
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, fmt.Errorf("due shows: %w", err)
		}
		due = append(due, show)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("due shows: %w", err)
	}
	return due, nil
}

// MarkShowRan records when the show was run.
func (s *SQLiteStore) MarkShowRan(ctx context.Context, showID string, ranAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE shows SET ran_at = ? WHERE id = ?`, ranAt.Unix(), showID)
	if err != nil {
		return fmt.Errorf("mark show %s ran: %w", showID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark show %s ran: %w", showID, err)
	}
	if affected == 0 {
		return fmt.Errorf("mark show %s ran: %w", showID, ErrShowNotFound)
	}
	return nil
}

// CreateResult persists a result. The UNIQUE (horse_id, show_id)
// constraint enforces one result per horse per show.
func (s *SQLiteStore) CreateResult(ctx context.Context, result model.CompetitionResult) (model.CompetitionResult, error) {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}

	snapshot, err := json.Marshal(result.TraitSnapshot)
	if err != nil {
		return model.CompetitionResult{}, fmt.Errorf("encode trait snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (id, horse_id, show_id, show_name, discipline, score,
			placement, prize_won, stat_gain_stat, stat_gain_amount, trait_snapshot,
			score_err, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		result.ID, result.HorseID, result.ShowID, result.ShowName, result.Discipline,
		result.Score, result.Placement, result.PrizeWon,
		result.StatGain.Stat, result.StatGain.Amount,
		string(snapshot), result.ScoreErr, result.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.CompetitionResult{}, fmt.Errorf("horse %s in show %s: %w",
				result.HorseID, result.ShowID, ErrDuplicateResult)
		}
		return model.CompetitionResult{}, fmt.Errorf("insert result: %w", err)
	}
	return result, nil
}

const resultColumns = `id, horse_id, show_id, show_name, discipline, score,
	placement, prize_won, stat_gain_stat, stat_gain_amount, trait_snapshot,
	score_err, created_at`

// ResultsForShow returns a show's results ordered best score first.
func (s *SQLiteStore) ResultsForShow(ctx context.Context, showID string) ([]model.CompetitionResult, error) {
	return s.queryResults(ctx,
		`SELECT `+resultColumns+` FROM results WHERE show_id = ? ORDER BY score DESC, rowid`, showID)
}

// HorseIDsWithResults returns the prior-entries set for a show.
func (s *SQLiteStore) HorseIDsWithResults(ctx context.Context, showID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT horse_id FROM results WHERE show_id = ?`, showID)
	if err != nil {
		return nil, fmt.Errorf("prior entries for show %s: %w", showID, err)
	}
	defer rows.Close()

	entered := make(map[string]bool)
	for rows.Next() {
		var horseID string
		if err := rows.Scan(&horseID); err != nil {
			return nil, fmt.Errorf("prior entries for show %s: %w", showID, err)
		}
		entered[horseID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("prior entries for show %s: %w", showID, err)
	}
	return entered, nil
}

// ResultsForHorse returns a horse's results oldest first.
func (s *SQLiteStore) ResultsForHorse(ctx context.Context, horseID string) ([]model.CompetitionResult, error) {
	return s.queryResults(ctx,
		`SELECT `+resultColumns+` FROM results WHERE horse_id = ? ORDER BY rowid`, horseID)
}

// TransferEntryFees credits the host with the collected fees.
func (s *SQLiteStore) TransferEntryFees(ctx context.Context, hostID string, feePerEntry int64, entrants int) (int64, error) {
	if feePerEntry <= 0 || entrants <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	host, err := s.GetOwner(ctx, hostID)
	if err != nil {
		return 0, fmt.Errorf("fee transfer: %w", err)
	}

	total := feePerEntry * int64(entrants)
	host.Money += total
	if err := s.SaveOwner(ctx, host); err != nil {
		return 0, fmt.Errorf("fee transfer: %w", err)
	}
	return total, nil
}

func (s *SQLiteStore) queryResults(ctx context.Context, query string, arg any) ([]model.CompetitionResult, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []model.CompetitionResult
	for rows.Next() {
		var (
			result    model.CompetitionResult
			snapshot  string
			createdAt int64
		)
		if err := rows.Scan(
			&result.ID, &result.HorseID, &result.ShowID, &result.ShowName,
			&result.Discipline, &result.Score, &result.Placement, &result.PrizeWon,
			&result.StatGain.Stat, &result.StatGain.Amount,
			&snapshot, &result.ScoreErr, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(snapshot), &result.TraitSnapshot); err != nil {
			return nil, fmt.Errorf("decode trait snapshot: %w", err)
		}
		result.CreatedAt = time.Unix(createdAt, 0).UTC()
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	return results, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHorse(row rowScanner) (model.Horse, error) {
	var (
		horse      model.Horse
		stats      string
		discScores string
		pos        string
		neg        string
		hidden     string
		health     string
		riderName  sql.NullString
		riderSkill sql.NullFloat64
	)
	if err := row.Scan(
		&horse.ID, &horse.Name, &horse.OwnerID, &horse.AgeYears,
		&stats, &discScores, &pos, &neg, &hidden,
		&health, &horse.StressLevel,
		&horse.Tack.SaddleBonus, &horse.Tack.BridleBonus,
		&riderName, &riderSkill,
		&horse.Earnings, &horse.XP, &horse.StatPoints,
	); err != nil {
		return model.Horse{}, err
	}

	horse.Health = model.HealthRating(health)
	if err := json.Unmarshal([]byte(stats), &horse.Stats); err != nil {
		return model.Horse{}, fmt.Errorf("decode stats: %w", err)
	}
	if err := json.Unmarshal([]byte(discScores), &horse.DisciplineScores); err != nil {
		return model.Horse{}, fmt.Errorf("decode discipline scores: %w", err)
	}
	if err := json.Unmarshal([]byte(pos), &horse.TraitsPositive); err != nil {
		return model.Horse{}, fmt.Errorf("decode traits: %w", err)
	}
	if err := json.Unmarshal([]byte(neg), &horse.TraitsNegative); err != nil {
		return model.Horse{}, fmt.Errorf("decode traits: %w", err)
	}
	if err := json.Unmarshal([]byte(hidden), &horse.TraitsHidden); err != nil {
		return model.Horse{}, fmt.Errorf("decode traits: %w", err)
	}
	if riderName.Valid || riderSkill.Valid {
		horse.Rider = &model.Rider{Name: riderName.String, Skill: riderSkill.Float64}
	}
	return horse, nil
}

func scanShow(row rowScanner) (model.Show, error) {
	var (
		show   model.Show
		runsAt int64
		ranAt  sql.NullInt64
	)
	if err := row.Scan(
		&show.ID, &show.Name, &show.Discipline, &show.PrizePool,
		&show.EntryFee, &show.HostID, &runsAt, &ranAt,
	); err != nil {
		return model.Show{}, err
	}
	show.RunsAt = time.Unix(runsAt, 0).UTC()
	if ranAt.Valid {
		t := time.Unix(ranAt.Int64, 0).UTC()
		show.RanAt = &t
	}
	return show, nil
}

// isUniqueViolation matches the message the modernc driver surfaces for
// constraint violations.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
