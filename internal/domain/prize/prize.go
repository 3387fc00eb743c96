// Package prize splits a show's pool across the podium.
package prize

// Fixed pool shares. Floor rounding loss is accepted, never reallocated.
const (
	firstShare  = 50
	secondShare = 30
	thirdShare  = 20
)

// Distribution is the prize amount per podium placement, in whole
// currency units.
type Distribution struct {
	First  int64
	Second int64
	Third  int64
}

// Distribute splits pool 50/30/20 with integer floors. A negative pool is
// treated as empty.
func Distribute(pool int64) Distribution {
	if pool < 0 {
		pool = 0
	}
	return Distribution{
		First:  pool * firstShare / 100,
		Second: pool * secondShare / 100,
		Third:  pool * thirdShare / 100,
	}
}

// ByPlacement returns the prize for a placement label. Unknown or empty
// labels win nothing.
func (d Distribution) ByPlacement(placement string) int64 {
	switch placement {
	case "1st":
		return d.First
	case "2nd":
		return d.Second
	case "3rd":
		return d.Third
	default:
		return 0
	}
}

// Total is the amount actually paid out after floor rounding.
func (d Distribution) Total() int64 {
	return d.First + d.Second + d.Third
}
