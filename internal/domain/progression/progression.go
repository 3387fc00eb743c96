// Package progression holds the XP, level, and stat-point math shared by
// the reward pipeline and the stores.
package progression

// Every full hundred XP is worth one owner level / one horse stat point.
const (
	xpPerLevel     = 100
	xpPerStatPoint = 100
)

// OwnerXPForPlacement returns the owner XP granted for a placement.
func OwnerXPForPlacement(placement string) int {
	switch placement {
	case "1st":
		return 20
	case "2nd":
		return 15
	case "3rd":
		return 10
	default:
		return 0
	}
}

// HorseXPForPlacement returns the horse XP granted for a placement.
func HorseXPForPlacement(placement string) int {
	switch placement {
	case "1st":
		return 30
	case "2nd":
		return 20
	case "3rd":
		return 10
	default:
		return 0
	}
}

// StatGainForPlacement returns the stat points added to the discipline's
// primary stat for a placement.
func StatGainForPlacement(placement string) int {
	switch placement {
	case "1st":
		return 3
	case "2nd":
		return 2
	case "3rd":
		return 1
	default:
		return 0
	}
}

// LevelUp describes the outcome of an owner XP award.
type LevelUp struct {
	LeveledUp    bool
	CurrentLevel int
	LevelsGained int
}

// LevelForXP returns the owner level implied by a lifetime XP total.
// Levels start at 1.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/xpPerLevel + 1
}

// ApplyOwnerXP adds amount to an owner XP total and reports level changes.
func ApplyOwnerXP(xp, amount int) (int, LevelUp) {
	before := LevelForXP(xp)
	total := xp + amount
	if total < 0 {
		total = 0
	}
	after := LevelForXP(total)

	up := LevelUp{CurrentLevel: after}
	if after > before {
		up.LeveledUp = true
		up.LevelsGained = after - before
	}
	return total, up
}

// ApplyHorseXP adds amount to a horse XP total and reports stat points
// gained, one per full hundred crossed.
func ApplyHorseXP(xp int64, amount int) (int64, int) {
	total := xp + int64(amount)
	if total < 0 {
		total = 0
	}
	gained := int(total/xpPerStatPoint) - int(xp/xpPerStatPoint)
	if gained < 0 {
		gained = 0
	}
	return total, gained
}
