package scoring

import "errors"

// Sentinel errors returned by the calculator. Callers isolate these per
// horse; they never abort a whole show.
var (
	// ErrUnknownDiscipline indicates no stat-weight table exists for the
	// requested discipline.
	ErrUnknownDiscipline = errors.New("unknown discipline")

	// ErrInvalidStat indicates a stat or training value was NaN or infinite.
	ErrInvalidStat = errors.New("invalid stat value")
)
