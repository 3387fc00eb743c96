package showsim

import (
	"math/rand"
	"testing"

	"github.com/hoofline/showring/internal/domain/eligibility"
	"github.com/hoofline/showring/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerateStableDeterminism(t *testing.T) {
	Convey("Given a fixed seed", t, func() {
		cfg := &Config{Horses: 20, Discipline: "racing"}

		Convey("When the stable is generated twice", func() {
			ownersA, horsesA := generateStable(rand.New(rand.NewSource(7)), cfg, eligibility.Rule{})
			ownersB, horsesB := generateStable(rand.New(rand.NewSource(7)), cfg, eligibility.Rule{})

			Convey("Then both runs produce the same stable", func() {
				So(ownersB, ShouldResemble, ownersA)
				So(horsesB, ShouldResemble, horsesA)
			})
		})

		Convey("When a different seed is used", func() {
			_, horsesA := generateStable(rand.New(rand.NewSource(7)), cfg, eligibility.Rule{})
			_, horsesB := generateStable(rand.New(rand.NewSource(8)), cfg, eligibility.Rule{})

			Convey("Then the horses differ", func() {
				So(horsesB, ShouldNotResemble, horsesA)
			})
		})
	})
}

func TestGenerateStableComposition(t *testing.T) {
	Convey("Given a generated stable", t, func() {
		cfg := &Config{Horses: 12, Discipline: "racing"}
		owners, horses := generateStable(rand.New(rand.NewSource(3)), cfg, eligibility.Rule{})

		Convey("Then owners share the horses three apiece", func() {
			So(owners, ShouldHaveLength, 4)
			So(horses, ShouldHaveLength, 12)

			ownerIDs := make(map[string]bool, len(owners))
			for _, o := range owners {
				So(o.Money, ShouldEqual, ownerMoney)
				So(o.Level, ShouldEqual, 1)
				ownerIDs[o.ID] = true
			}
			for _, h := range horses {
				So(ownerIDs[h.OwnerID], ShouldBeTrue)
			}
		})

		Convey("Then every horse rolls inside the published ranges", func() {
			for _, h := range horses {
				So(h.AgeYears, ShouldBeBetweenOrEqual, ageMin, ageMin+ageSpan-1)
				So(h.Stats, ShouldHaveLength, len(statNames))
				for _, stat := range statNames {
					So(h.Stats[stat], ShouldBeBetweenOrEqual, weakStatMin, eliteStatMin+eliteStatRange)
				}
				if h.Rider != nil {
					So(h.Rider.Skill, ShouldBeBetweenOrEqual, riderSkillMin, riderSkillMin+riderSkillSpan)
				}
				So(h.DisciplineScores["racing"], ShouldBeBetweenOrEqual, 0, trainingSpan)
			}
		})

		Convey("Then names and ids are unique", func() {
			seenID := make(map[string]bool)
			seenName := make(map[string]bool)
			for _, h := range horses {
				So(seenID[h.ID], ShouldBeFalse)
				So(seenName[h.Name], ShouldBeFalse)
				seenID[h.ID] = true
				seenName[h.Name] = true
			}
		})
	})
}

func TestGenerateStableRequiredTrait(t *testing.T) {
	Convey("Given a discipline with a required trait", t, func() {
		cfg := &Config{Horses: 100, Discipline: "gaited"}
		rule := eligibility.Rule{MinAge: 4, RequiredTrait: "smooth_gaited"}
		_, horses := generateStable(rand.New(rand.NewSource(11)), cfg, rule)

		Convey("Then most horses carry it and a few miss out", func() {
			carriers := 0
			for _, h := range horses {
				if hasPositiveTrait(h, "smooth_gaited") {
					carriers++
				}
			}
			So(carriers, ShouldBeGreaterThan, 50)
			So(carriers, ShouldBeLessThan, 100)
		})
	})

	Convey("Given a discipline without a required trait", t, func() {
		cfg := &Config{Horses: 100, Discipline: "racing"}
		_, horses := generateStable(rand.New(rand.NewSource(11)), cfg, eligibility.Rule{})

		Convey("Then an affinity horse shows up now and then", func() {
			matches := 0
			for _, h := range horses {
				if hasPositiveTrait(h, "discipline_affinity_racing") {
					matches++
				}
			}
			So(matches, ShouldBeGreaterThan, 0)
		})
	})
}

func TestGenerateShow(t *testing.T) {
	Convey("Given a simulation config", t, func() {
		cfg := &Config{Discipline: "cross_country", PrizePool: 2000, EntryFee: 40}

		Convey("When the show is generated", func() {
			show := generateShow(cfg, "owner_01")

			Convey("Then it is due and carries the config over", func() {
				So(show.ID, ShouldEqual, "show_demo")
				So(show.Name, ShouldEqual, "Cross Country Invitational")
				So(show.Discipline, ShouldEqual, "cross_country")
				So(show.PrizePool, ShouldEqual, 2000)
				So(show.EntryFee, ShouldEqual, 40)
				So(show.HostID, ShouldEqual, "owner_01")
				So(show.RunsAt.IsZero(), ShouldBeFalse)
				So(show.RanAt, ShouldBeNil)
			})
		})
	})
}

func TestPickName(t *testing.T) {
	Convey("Given the name pools", t, func() {
		Convey("Then picks cycle and number their laps", func() {
			So(pickName(horseNames, 0), ShouldEqual, "Comet")
			So(pickName(horseNames, 1), ShouldEqual, "Drift")
			So(pickName(horseNames, len(horseNames)), ShouldEqual, "Comet 2")
			So(pickName(ownerNames, len(ownerNames)+1), ShouldEqual, "Ben 2")
		})
	})
}

func hasPositiveTrait(h model.Horse, trait string) bool {
	for _, t := range h.TraitsPositive {
		if t == trait {
			return true
		}
	}
	return false
}
