// Package traits resolves a horse's visible traits into scoring modifiers.
package traits

import "strings"

// affinityPrefix starts every discipline-affinity trait name, e.g.
// "discipline_affinity_show_jumping".
const affinityPrefix = "discipline_affinity_"

// affinityFlatBonus is the flat score granted when a horse carries the
// affinity trait matching the show's discipline.
const affinityFlatBonus = 5.0

// Effect describes how one trait shifts a score.
type Effect struct {
	Modifier    float64            // general percentage modifier, e.g. 0.05 for +5%
	Disciplines map[string]float64 // per-discipline overrides keyed by discipline name
}

// Table maps trait names to their effects. Tables are built once at startup
// and treated as immutable afterwards.
type Table map[string]Effect

// NewTable deep-copies src so later mutation of the source cannot leak into
// resolution.
func NewTable(src map[string]Effect) Table {
	tbl := make(Table, len(src))
	for name, eff := range src {
		copied := Effect{Modifier: eff.Modifier}
		if len(eff.Disciplines) > 0 {
			copied.Disciplines = make(map[string]float64, len(eff.Disciplines))
			for d, v := range eff.Disciplines {
				copied.Disciplines[d] = v
			}
		}
		tbl[name] = copied
	}
	return tbl
}

// AppliedTrait records one trait that contributed to an outcome.
type AppliedTrait struct {
	Name        string
	Modifier    float64
	Specialized bool // a discipline override supplied the modifier
}

// Outcome is the net effect of a horse's visible traits for one discipline.
type Outcome struct {
	Total       float64 // summed percentage modifier, applied to the base score
	Applied     []AppliedTrait
	Bonuses     []string // trait names that helped
	Penalties   []string // trait names that hurt
	HasAffinity bool
	FlatBonus   float64 // flat points granted by a discipline affinity
}

// AffinityTraitName returns the trait name that marks affinity with a
// discipline.
func AffinityTraitName(discipline string) string {
	return affinityPrefix + snakeCase(discipline)
}

func snakeCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}

// Resolve computes the combined effect of the visible traits for a
// discipline. Unknown trait names resolve to no effect. A discipline
// override on a trait replaces its general modifier; it never stacks.
// The affinity trait contributes its flat bonus and is reported in the
// outcome even when the table carries no entry for it.
func Resolve(tbl Table, visible []string, discipline string) Outcome {
	var out Outcome
	affinity := AffinityTraitName(discipline)

	for _, name := range visible {
		isAffinity := name == affinity
		if isAffinity {
			out.HasAffinity = true
			out.FlatBonus += affinityFlatBonus
		}

		eff, known := tbl[name]
		if !known {
			if isAffinity {
				out.Applied = append(out.Applied, AppliedTrait{Name: name})
				out.Bonuses = append(out.Bonuses, name)
			}
			continue
		}

		mod := eff.Modifier
		specialized := false
		if override, ok := eff.Disciplines[discipline]; ok {
			mod = override
			specialized = true
		}

		out.Total += mod
		out.Applied = append(out.Applied, AppliedTrait{
			Name:        name,
			Modifier:    mod,
			Specialized: specialized,
		})

		switch {
		case mod > 0:
			out.Bonuses = append(out.Bonuses, name)
		case mod < 0:
			out.Penalties = append(out.Penalties, name)
		default:
			if isAffinity {
				out.Bonuses = append(out.Bonuses, name)
			}
		}
	}

	return out
}
