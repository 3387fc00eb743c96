// Package config defines process configuration and the game tables the
// pipeline scores against.
//
// Conventions:
// - New() builds a Config carrying the standard tables; Load layers file
//   and environment on top.
// - Game tables (stat weights, trait effects, health modifiers, discipline
//   rules) are loaded once at startup and handed to the domain
//   constructors; nothing mutates them afterwards.
package config

import (
	"github.com/hoofline/showring/internal/domain/eligibility"
	"github.com/hoofline/showring/internal/domain/model"
	"github.com/hoofline/showring/internal/domain/traits"
)

// TraitEffect configures how one trait shifts a score: a general
// percentage modifier plus optional per-discipline overrides.
type TraitEffect struct {
	Modifier    float64            `koanf:"modifier"`
	Disciplines map[string]float64 `koanf:"disciplines"`
}

// DisciplineRule configures entry requirements for one discipline.
type DisciplineRule struct {
	MinAge        int    `koanf:"min_age"`
	RequiredTrait string `koanf:"required_trait"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the ops HTTP listen address (healthz + metrics).
	Addr string `koanf:"addr"`

	// SQLitePath is the database file; empty selects the in-memory store.
	SQLitePath string `koanf:"sqlite_path"`

	// CronSpec is the due-show sweep cadence.
	CronSpec string `koanf:"cron_spec"`

	// EntryFees toggles fee collection at show entry.
	EntryFees bool `koanf:"entry_fees"`

	// MinRiderSkill is the eligibility floor for rider skill.
	MinRiderSkill float64 `koanf:"min_rider_skill"`

	// DefaultMinAge applies to disciplines without an explicit rule.
	DefaultMinAge int `koanf:"default_min_age"`

	// StatWeights maps discipline -> stat -> weight; weights in a row
	// normally sum to 1.
	StatWeights map[string]map[string]float64 `koanf:"stat_weights"`

	// TraitEffects maps trait name -> effect.
	TraitEffects map[string]TraitEffect `koanf:"trait_effects"`

	// HealthModifiers maps health rating -> score percentage adjustment.
	HealthModifiers map[string]float64 `koanf:"health_modifiers"`

	// DisciplineRules maps discipline -> entry requirements.
	DisciplineRules map[string]DisciplineRule `koanf:"discipline_rules"`
}

// New creates a Config with the standard circuit tables.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		SQLitePath:    "showring.db",
		CronSpec:      "*/10 * * * *",
		EntryFees:     true,
		MinRiderSkill: 3,
		DefaultMinAge: 3,
		StatWeights: map[string]map[string]float64{
			"racing":        {"speed": 0.5, "stamina": 0.3, "agility": 0.2},
			"show_jumping":  {"agility": 0.4, "boldness": 0.3, "balance": 0.3},
			"dressage":      {"precision": 0.4, "focus": 0.35, "balance": 0.25},
			"cross_country": {"stamina": 0.4, "boldness": 0.3, "speed": 0.3},
			"gaited":        {"coordination": 0.5, "balance": 0.3, "focus": 0.2},
		},
		TraitEffects: map[string]TraitEffect{
			"bold":       {Modifier: 0.05, Disciplines: map[string]float64{"cross_country": 0.08}},
			"calm":       {Modifier: 0.03, Disciplines: map[string]float64{"dressage": 0.06}},
			"spirited":   {Modifier: 0.04, Disciplines: map[string]float64{"racing": 0.07}},
			"surefooted": {Modifier: 0.04, Disciplines: map[string]float64{"show_jumping": 0.06}},
			"nervous":    {Modifier: -0.05},
			"lazy":       {Modifier: -0.04},
			"stubborn":   {Modifier: -0.03},
		},
		HealthModifiers: map[string]float64{
			"excellent": 0.05,
			"good":      0,
			"fair":      -0.05,
			"poor":      -0.15,
			"critical":  -0.30,
		},
		DisciplineRules: map[string]DisciplineRule{
			"gaited": {MinAge: 4, RequiredTrait: "smooth_gaited"},
		},
	}
}

// TraitTable converts the configured trait effects into the resolver's
// table form.
func (c *Config) TraitTable() traits.Table {
	src := make(map[string]traits.Effect, len(c.TraitEffects))
	for name, eff := range c.TraitEffects {
		src[name] = traits.Effect{
			Modifier:    eff.Modifier,
			Disciplines: eff.Disciplines,
		}
	}
	return traits.NewTable(src)
}

// EligibilityRules converts the configured discipline rules into the
// filter's form.
func (c *Config) EligibilityRules() map[string]eligibility.Rule {
	rules := make(map[string]eligibility.Rule, len(c.DisciplineRules))
	for discipline, rule := range c.DisciplineRules {
		rules[discipline] = eligibility.Rule{
			MinAge:        rule.MinAge,
			RequiredTrait: rule.RequiredTrait,
		}
	}
	return rules
}

// HealthTable converts the configured health modifiers onto the model's
// rating enum.
func (c *Config) HealthTable() map[model.HealthRating]float64 {
	mods := make(map[model.HealthRating]float64, len(c.HealthModifiers))
	for rating, m := range c.HealthModifiers {
		mods[model.HealthRating(rating)] = m
	}
	return mods
}
