// Package eligibility decides which horses may enter a show.
package eligibility

import (
	"github.com/hoofline/showring/internal/domain/model"
)

// Skip reasons recorded on verdicts and exported as metric labels.
const (
	ReasonNoRider        = "no_rider"
	ReasonRiderSkill     = "rider_skill_below_minimum"
	ReasonAlreadyEntered = "already_entered"
	ReasonBelowMinAge    = "below_minimum_age"
	ReasonMissingTrait   = "missing_required_trait"
)

// Default thresholds.
const (
	defaultMinRiderSkill = 3.0
	defaultMinAge        = 3
)

// Rule holds discipline-specific entry requirements.
type Rule struct {
	MinAge        int    // 0 means use the filter default
	RequiredTrait string // empty means no trait requirement
}

// Verdict is the per-horse outcome of an eligibility check.
type Verdict struct {
	HorseID  string
	Name     string
	Eligible bool
	Reason   string // set when Eligible is false
}

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithMinRiderSkill sets the minimum rider skill accepted at entry.
func WithMinRiderSkill(skill float64) Option {
	return func(f *Filter) {
		f.minRiderSkill = skill
	}
}

// WithDefaultMinAge sets the age floor used when a discipline has no rule.
func WithDefaultMinAge(age int) Option {
	return func(f *Filter) {
		f.defaultMinAge = age
	}
}

// WithDisciplineRules sets per-discipline entry requirements. The map is
// copied.
func WithDisciplineRules(rules map[string]Rule) Option {
	return func(f *Filter) {
		f.rules = make(map[string]Rule, len(rules))
		for discipline, rule := range rules {
			f.rules[discipline] = rule
		}
	}
}

// Filter checks horses against show entry requirements. Checks run in a
// fixed order and stop at the first failure, so each verdict carries the
// first reason a horse cannot enter.
type Filter struct {
	minRiderSkill float64
	defaultMinAge int
	rules         map[string]Rule
}

// New creates a filter with the standard thresholds.
func New(opts ...Option) *Filter {
	f := &Filter{
		minRiderSkill: defaultMinRiderSkill,
		defaultMinAge: defaultMinAge,
		rules:         make(map[string]Rule),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Check runs the entry checks for one horse. entered holds the ids of
// horses that already carry a result for this show.
func (f *Filter) Check(horse model.Horse, show model.Show, entered map[string]bool) Verdict {
	v := Verdict{HorseID: horse.ID, Name: horse.Name}

	if horse.Rider == nil {
		v.Reason = ReasonNoRider
		return v
	}
	if horse.Rider.Skill < f.minRiderSkill {
		v.Reason = ReasonRiderSkill
		return v
	}
	if entered[horse.ID] {
		v.Reason = ReasonAlreadyEntered
		return v
	}

	rule := f.rules[show.Discipline]
	minAge := rule.MinAge
	if minAge == 0 {
		minAge = f.defaultMinAge
	}
	if horse.AgeYears < minAge {
		v.Reason = ReasonBelowMinAge
		return v
	}
	if rule.RequiredTrait != "" && !hasTrait(horse, rule.RequiredTrait) {
		v.Reason = ReasonMissingTrait
		return v
	}

	v.Eligible = true
	return v
}

// Split partitions horses into those cleared to run and the verdicts of
// those turned away. Input order is preserved on both sides.
func (f *Filter) Split(horses []model.Horse, show model.Show, entered map[string]bool) ([]model.Horse, []Verdict) {
	eligible := make([]model.Horse, 0, len(horses))
	var skipped []Verdict

	for _, horse := range horses {
		verdict := f.Check(horse, show, entered)
		if verdict.Eligible {
			eligible = append(eligible, horse)
			continue
		}
		skipped = append(skipped, verdict)
	}

	return eligible, skipped
}

func hasTrait(horse model.Horse, trait string) bool {
	for _, t := range horse.VisibleTraits() {
		if t == trait {
			return true
		}
	}
	return false
}
