package showsim

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/hoofline/showring/internal/domain/eligibility"
	"github.com/hoofline/showring/internal/domain/model"
	"github.com/hoofline/showring/internal/domain/traits"
)

// Stable composition constants.
const (
	horsesPerOwner = 3
	ownerMoney     = 500
)

// Stat tier ranges. A tier is rolled once per horse so the stable mixes
// clear contenders with also-rans; every stat then lands inside that
// horse's tier.
const (
	eliteStatMin     = 1600.0
	eliteStatRange   = 400.0
	solidStatMin     = 1100.0
	solidStatRange   = 400.0
	averageStatMin   = 600.0
	averageStatRange = 400.0
	weakStatMin      = 250.0
	weakStatRange    = 300.0
)

// Tier draw cases. Draws beyond the named ones land in the average tier,
// making it the most common.
const (
	tierDraws  = 8
	drawElite  = 0
	drawSolidA = 1
	drawSolidB = 2
	drawWeak   = 3
)

// Health draw cases. Draws beyond the named ones read as good.
const (
	healthDraws   = 10
	drawExcellent = 0
	drawFairA     = 1
	drawFairB     = 2
	drawPoor      = 3
	drawCritical  = 4
)

// Age, rider, training and trait distribution constants.
const (
	ageMin  = 2
	ageSpan = 10 // ages land in [ageMin, ageMin+ageSpan)

	riderlessOneIn = 8
	riderSkillMin  = 2.0
	riderSkillSpan = 7.5

	tackBonusSpan = 2.0
	trainingSpan  = 150.0
	stressSpan    = 0.8

	maxPositiveTraits      = 3 // rolled count lands in [0, maxPositiveTraits)
	maxNegativeTraits      = 2
	affinityOneIn          = 6
	hiddenTraitOneIn       = 5
	requiredTraitMissOneIn = 4
)

// statNames covers every stat the default discipline tables weight.
var statNames = []string{
	"speed", "stamina", "agility", "boldness",
	"balance", "precision", "focus", "coordination",
}

// Name pools. Picks past the end of a pool get a lap number appended.
var (
	horseNames = []string{
		"Comet", "Drift", "Ember", "Fable", "Gale", "Harbor",
		"Indigo", "Juniper", "Koda", "Luna", "Maple", "Nimbus",
		"Onyx", "Poppy", "Quill", "Raven", "Sable", "Tempest",
		"Umber", "Vesper", "Willow", "Xanthe", "Yarrow", "Zephyr",
	}
	ownerNames = []string{"Ada", "Ben", "Clara", "Devi", "Elio", "Freya", "Gus", "Hana"}
	riderNames = []string{"Jo", "Kai", "Lena", "Milo", "Nora", "Pax", "Rue", "Sam"}

	positiveTraits = []string{"bold", "calm", "spirited", "surefooted"}
	negativeTraits = []string{"nervous", "lazy", "stubborn"}
	hiddenTraits   = []string{"iron_constitution", "storm_shy"}
)

// generateStable builds a demo stable of owners and their horses. The
// same seed always produces the same stable, so a run can be replayed.
func generateStable(rng *rand.Rand, cfg *Config, rule eligibility.Rule) ([]model.Owner, []model.Horse) {
	ownerCount := (cfg.Horses + horsesPerOwner - 1) / horsesPerOwner
	if ownerCount < 1 {
		ownerCount = 1
	}

	owners := make([]model.Owner, ownerCount)
	for i := range owners {
		owners[i] = model.Owner{
			ID:    fmt.Sprintf("owner_%02d", i+1),
			Name:  pickName(ownerNames, i),
			Money: ownerMoney,
			Level: 1,
		}
	}

	horses := make([]model.Horse, cfg.Horses)
	for i := range horses {
		horses[i] = generateHorse(rng, i, owners[i%ownerCount].ID, cfg.Discipline, rule)
	}

	return owners, horses
}

// generateHorse rolls a single horse. Some rolls deliberately produce
// horses the gate will turn away: too young, no rider, green rider.
func generateHorse(rng *rand.Rand, index int, ownerID, discipline string, rule eligibility.Rule) model.Horse {
	tierMin, tierSpan := rollTier(rng)

	stats := make(map[string]float64, len(statNames))
	for _, stat := range statNames {
		stats[stat] = tierMin + rng.Float64()*tierSpan
	}

	horse := model.Horse{
		ID:       fmt.Sprintf("horse_%03d", index+1),
		Name:     pickName(horseNames, index),
		OwnerID:  ownerID,
		AgeYears: ageMin + rng.Intn(ageSpan),
		Stats:    stats,
		DisciplineScores: map[string]float64{
			discipline: rng.Float64() * trainingSpan,
		},
		Health:      rollHealth(rng),
		StressLevel: rng.Float64() * stressSpan,
		Tack: model.Tack{
			SaddleBonus: rng.Float64() * tackBonusSpan,
			BridleBonus: rng.Float64() * tackBonusSpan,
		},
	}

	if rng.Intn(riderlessOneIn) != 0 {
		horse.Rider = &model.Rider{
			Name:  riderNames[rng.Intn(len(riderNames))],
			Skill: riderSkillMin + rng.Float64()*riderSkillSpan,
		}
	}

	horse.TraitsPositive = rollTraits(rng, positiveTraits, rng.Intn(maxPositiveTraits))
	horse.TraitsNegative = rollTraits(rng, negativeTraits, rng.Intn(maxNegativeTraits))
	if rng.Intn(affinityOneIn) == 0 {
		horse.TraitsPositive = append(horse.TraitsPositive, traits.AffinityTraitName(discipline))
	}
	if rule.RequiredTrait != "" && rng.Intn(requiredTraitMissOneIn) != 0 {
		horse.TraitsPositive = append(horse.TraitsPositive, rule.RequiredTrait)
	}
	if rng.Intn(hiddenTraitOneIn) == 0 {
		horse.TraitsHidden = []string{hiddenTraits[rng.Intn(len(hiddenTraits))]}
	}

	return horse
}

// generateShow builds the one show the simulation runs, hosted by the
// given owner and already due.
func generateShow(cfg *Config, hostID string) model.Show {
	return model.Show{
		ID:         "show_demo",
		Name:       showName(cfg.Discipline),
		Discipline: cfg.Discipline,
		PrizePool:  cfg.PrizePool,
		EntryFee:   cfg.EntryFee,
		HostID:     hostID,
		RunsAt:     time.Now().UTC(),
	}
}

// rollTier picks the stat range one horse rolls all its stats in.
func rollTier(rng *rand.Rand) (min, span float64) {
	switch rng.Intn(tierDraws) {
	case drawElite:
		return eliteStatMin, eliteStatRange
	case drawSolidA, drawSolidB:
		return solidStatMin, solidStatRange
	case drawWeak:
		return weakStatMin, weakStatRange
	default:
		return averageStatMin, averageStatRange
	}
}

// rollHealth draws a condition; most horses arrive sound.
func rollHealth(rng *rand.Rand) model.HealthRating {
	switch rng.Intn(healthDraws) {
	case drawExcellent:
		return model.HealthExcellent
	case drawFairA, drawFairB:
		return model.HealthFair
	case drawPoor:
		return model.HealthPoor
	case drawCritical:
		return model.HealthCritical
	default:
		return model.HealthGood
	}
}

// rollTraits picks count distinct traits from the pool.
func rollTraits(rng *rand.Rand, pool []string, count int) []string {
	if count <= 0 {
		return nil
	}
	if count > len(pool) {
		count = len(pool)
	}

	out := make([]string, 0, count)
	for _, p := range rng.Perm(len(pool))[:count] {
		out = append(out, pool[p])
	}
	return out
}

// pickName cycles through a pool, numbering repeats past the first lap.
func pickName(pool []string, index int) string {
	name := pool[index%len(pool)]
	if lap := index / len(pool); lap > 0 {
		name = fmt.Sprintf("%s %d", name, lap+1)
	}
	return name
}

// showName renders a discipline like "cross_country" as
// "Cross Country Invitational".
func showName(discipline string) string {
	words := strings.Split(discipline, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ") + " Invitational"
}
