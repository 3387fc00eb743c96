// Package scoring computes competition scores from horse snapshots.
package scoring

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/hoofline/showring/internal/domain/model"
	"github.com/hoofline/showring/internal/domain/traits"
)

// Default calculator constants.
const (
	// luckSpread bounds the uniform variance term: the roll lands in
	// ±9% of the health-adjusted subtotal.
	luckSpread = 0.09

	// riderBaseline is the skill level with no effect on the score.
	riderBaseline = 5.0

	// riderPointValue converts each skill point above or below the
	// baseline into flat score points.
	riderPointValue = 2.0
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithStatWeights sets the per-discipline stat weight tables. The map is
// copied; weights are fractions that normally sum to 1 per discipline.
func WithStatWeights(weights map[string]map[string]float64) Option {
	return func(c *Calculator) {
		c.statWeights = make(map[string]map[string]float64, len(weights))
		for discipline, row := range weights {
			copied := make(map[string]float64, len(row))
			for stat, w := range row {
				copied[stat] = w
			}
			c.statWeights[discipline] = copied
		}
	}
}

// WithTraitTable sets the trait effect table consulted on every score.
func WithTraitTable(tbl traits.Table) Option {
	return func(c *Calculator) {
		c.traitTable = tbl
	}
}

// WithHealthModifiers sets the percentage adjustment per health rating.
func WithHealthModifiers(mods map[model.HealthRating]float64) Option {
	return func(c *Calculator) {
		c.healthMods = make(map[model.HealthRating]float64, len(mods))
		for rating, m := range mods {
			c.healthMods[rating] = m
		}
	}
}

// WithRand injects the randomness source used for the luck roll. Tests
// inject a fixed seed for reproducible scores.
func WithRand(rng *rand.Rand) Option {
	return func(c *Calculator) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// Breakdown itemizes every term of a computed score for auditability.
type Breakdown struct {
	Base           float64 // weighted sum of discipline-relevant stats
	TrainingBonus  float64 // accumulated discipline training
	TraitModifier  float64 // net percentage applied to Base
	TraitComponent float64 // Base * TraitModifier
	AffinityBonus  float64 // flat bonus from a matching affinity trait
	EquipmentBonus float64 // saddle + bridle
	RiderEffect    float64 // flat, signed
	Subtotal       float64 // sum of the five terms above plus Base
	HealthModifier float64 // percentage applied to Subtotal
	HealthAdjusted float64
	LuckPercent    float64 // rolled uniformly in ±9%
	LuckComponent  float64 // HealthAdjusted * LuckPercent
	Final          float64 // floored at zero
	StressLevel    float64 // carried for audit; not a term
}

// Result is the score of one horse in one discipline.
type Result struct {
	HorseID   string
	Score     float64
	Breakdown Breakdown
	Traits    traits.Outcome
}

// Calculator computes competition scores. For a fixed random source the
// computation is fully deterministic.
type Calculator struct {
	statWeights map[string]map[string]float64
	traitTable  traits.Table
	healthMods  map[model.HealthRating]float64
	rng         *rand.Rand
}

// DefaultHealthModifiers returns the standard adjustment per rating.
func DefaultHealthModifiers() map[model.HealthRating]float64 {
	return map[model.HealthRating]float64{
		model.HealthExcellent: 0.05,
		model.HealthGood:      0,
		model.HealthFair:      -0.05,
		model.HealthPoor:      -0.15,
		model.HealthCritical:  -0.30,
	}
}

// New creates a calculator. Without options it knows no disciplines and
// scores nothing; callers wire in the configured tables.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		statWeights: make(map[string]map[string]float64),
		traitTable:  traits.Table{},
		healthMods:  DefaultHealthModifiers(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // game variance, not crypto
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Score computes the score for one horse in one discipline. Missing stats
// read as 0; NaN or infinite inputs and unknown disciplines are errors,
// which the simulation runner isolates per horse.
func (c *Calculator) Score(horse model.Horse, discipline string) (Result, error) {
	weights, ok := c.statWeights[discipline]
	if !ok || len(weights) == 0 {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownDiscipline, discipline)
	}

	base := 0.0
	for stat, weight := range weights {
		v := horse.Stats[stat]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, fmt.Errorf("%w: horse %s stat %s", ErrInvalidStat, horse.ID, stat)
		}
		base += v * weight
	}

	training := horse.DisciplineScores[discipline]
	if math.IsNaN(training) || math.IsInf(training, 0) {
		return Result{}, fmt.Errorf("%w: horse %s training %s", ErrInvalidStat, horse.ID, discipline)
	}

	outcome := traits.Resolve(c.traitTable, horse.VisibleTraits(), discipline)
	traitComponent := base * outcome.Total

	equipment := horse.Tack.SaddleBonus + horse.Tack.BridleBonus

	riderEffect := 0.0
	if horse.Rider != nil {
		riderEffect = (horse.Rider.Skill - riderBaseline) * riderPointValue
	}

	subtotal := base + training + traitComponent + outcome.FlatBonus + equipment + riderEffect

	healthMod := c.healthMods[horse.Health]
	healthAdjusted := subtotal * (1 + healthMod)

	luckPct := (c.rng.Float64()*2 - 1) * luckSpread
	luckComponent := healthAdjusted * luckPct

	final := healthAdjusted + luckComponent
	if final < 0 {
		final = 0
	}

	return Result{
		HorseID: horse.ID,
		Score:   final,
		Breakdown: Breakdown{
			Base:           base,
			TrainingBonus:  training,
			TraitModifier:  outcome.Total,
			TraitComponent: traitComponent,
			AffinityBonus:  outcome.FlatBonus,
			EquipmentBonus: equipment,
			RiderEffect:    riderEffect,
			Subtotal:       subtotal,
			HealthModifier: healthMod,
			HealthAdjusted: healthAdjusted,
			LuckPercent:    luckPct,
			LuckComponent:  luckComponent,
			Final:          final,
			StressLevel:    horse.StressLevel,
		},
		Traits: outcome,
	}, nil
}

// Disciplines returns the disciplines the calculator has weight tables for.
func (c *Calculator) Disciplines() []string {
	out := make([]string, 0, len(c.statWeights))
	for d := range c.statWeights {
		out = append(out, d)
	}
	return out
}

// TopWeightedStat returns the stat with the highest weight for a
// discipline, used to direct placement stat gains. Ties resolve to the
// lexically smallest name so the choice is stable.
func (c *Calculator) TopWeightedStat(discipline string) (string, bool) {
	weights, ok := c.statWeights[discipline]
	if !ok || len(weights) == 0 {
		return "", false
	}
	best := ""
	bestWeight := math.Inf(-1)
	for stat, w := range weights {
		if w > bestWeight || (w == bestWeight && stat < best) {
			best = stat
			bestWeight = w
		}
	}
	return best, true
}
