package rewards_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hoofline/showring/internal/adapters/repository"
	"github.com/hoofline/showring/internal/domain/model"
	"github.com/hoofline/showring/internal/domain/prize"
	"github.com/hoofline/showring/internal/domain/progression"
	"github.com/hoofline/showring/internal/domain/simulation"
	"github.com/hoofline/showring/internal/rewards"
	"github.com/hoofline/showring/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// fakeStore records every call in order and fails on demand, keyed by the
// id the call targets.
type fakeStore struct {
	calls []string

	failResult map[string]error
	failPrize  map[string]error
	failOwner  map[string]error
	failLedger map[string]error
	failHorse  map[string]error
	levelUps   map[string]progression.LevelUp
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		failResult: map[string]error{},
		failPrize:  map[string]error{},
		failOwner:  map[string]error{},
		failLedger: map[string]error{},
		failHorse:  map[string]error{},
		levelUps:   map[string]progression.LevelUp{},
	}
}

func (f *fakeStore) CreateResult(_ context.Context, result model.CompetitionResult) (model.CompetitionResult, error) {
	f.calls = append(f.calls, "result:"+result.HorseID)
	if err := f.failResult[result.HorseID]; err != nil {
		return model.CompetitionResult{}, err
	}
	result.ID = "res-" + result.HorseID
	return result, nil
}

func (f *fakeStore) ApplyHorseReward(_ context.Context, horseID string, _ int64, _ model.StatGain) (model.Horse, error) {
	f.calls = append(f.calls, "prize:"+horseID)
	if err := f.failPrize[horseID]; err != nil {
		return model.Horse{}, err
	}
	return model.Horse{ID: horseID}, nil
}

func (f *fakeStore) AwardOwnerXP(_ context.Context, ownerID string, _ int) (progression.LevelUp, error) {
	f.calls = append(f.calls, "ownerxp:"+ownerID)
	if err := f.failOwner[ownerID]; err != nil {
		return progression.LevelUp{}, err
	}
	return f.levelUps[ownerID], nil
}

func (f *fakeStore) AppendXpEvent(_ context.Context, ownerID string, amount int, reason string) (model.XpEvent, error) {
	f.calls = append(f.calls, "ledger:"+ownerID)
	if err := f.failLedger[ownerID]; err != nil {
		return model.XpEvent{}, err
	}
	return model.XpEvent{OwnerID: ownerID, Amount: amount, Reason: reason}, nil
}

func (f *fakeStore) AwardHorseXP(_ context.Context, horseID, placement, _ string) (repository.HorseXPAward, error) {
	f.calls = append(f.calls, "horsexp:"+horseID)
	if err := f.failHorse[horseID]; err != nil {
		return repository.HorseXPAward{}, err
	}
	switch placement {
	case "1st":
		return repository.HorseXPAward{XPAwarded: 30}, nil
	case "2nd":
		return repository.HorseXPAward{XPAwarded: 20}, nil
	case "3rd":
		return repository.HorseXPAward{XPAwarded: 10}, nil
	}
	return repository.HorseXPAward{}, nil
}

func rankedEntry(horseID, ownerID, placement string, score float64) simulation.Ranked {
	return simulation.Ranked{
		Horse:     model.Horse{ID: horseID, Name: "Horse " + horseID, OwnerID: ownerID},
		Score:     score,
		Placement: placement,
	}
}

func sampleBatch() rewards.Batch {
	return rewards.Batch{
		Show: model.Show{
			ID:         "show-1",
			Name:       "Spring Classic",
			Discipline: "racing",
			PrizePool:  1000,
		},
		Ranked: []simulation.Ranked{
			rankedEntry("h1", "o1", "1st", 95),
			rankedEntry("h2", "o2", "2nd", 80),
			rankedEntry("h3", "o3", "3rd", 60),
			rankedEntry("h4", "o4", "", 40),
		},
		Prizes:  prize.Distribute(1000),
		TopStat: "speed",
	}
}

func TestApplyFullBatch(t *testing.T) {
	Convey("Given a ranked field of four horses and a 1000 pool", t, func() {
		store := newFakeStore()
		applier := rewards.New(store)

		Convey("When the batch is applied", func() {
			out, err := applier.Apply(context.Background(), sampleBatch())
			So(err, ShouldBeNil)

			Convey("Then every horse gets a persisted result", func() {
				So(out.Results, ShouldHaveLength, 4)
				So(out.Results[0].ID, ShouldEqual, "res-h1")
				So(out.Results[3].Placement, ShouldBeEmpty)
			})

			Convey("Then prize money follows the 50/30/20 split", func() {
				So(out.PrizesAwarded, ShouldEqual, 1000)
				So(out.Results[0].PrizeWon, ShouldEqual, 500)
				So(out.Results[1].PrizeWon, ShouldEqual, 300)
				So(out.Results[2].PrizeWon, ShouldEqual, 200)
				So(out.Results[3].PrizeWon, ShouldEqual, 0)
			})

			Convey("Then stat gains target the discipline's primary stat", func() {
				So(out.Results[0].StatGain, ShouldResemble, model.StatGain{Stat: "speed", Amount: 3})
				So(out.Results[1].StatGain, ShouldResemble, model.StatGain{Stat: "speed", Amount: 2})
				So(out.Results[2].StatGain, ShouldResemble, model.StatGain{Stat: "speed", Amount: 1})
				So(out.Results[3].StatGain, ShouldResemble, model.StatGain{})
			})

			Convey("Then owner and horse XP cover only placed horses", func() {
				So(out.OwnerXpAwarded, ShouldEqual, 45)
				So(out.HorseXpAwarded, ShouldEqual, 60)
				So(out.XpEvents, ShouldHaveLength, 3)
				So(out.XpEvents[0].Reason, ShouldEqual, "placed 1st in Spring Classic")
				So(store.calls, ShouldNotContain, "ownerxp:o4")
				So(store.calls, ShouldNotContain, "horsexp:h4")
			})

			Convey("Then no notes were recorded", func() {
				So(out.Notes, ShouldBeEmpty)
			})
		})
	})
}

func TestApplyRankOrder(t *testing.T) {
	Convey("Given two placed horses", t, func() {
		store := newFakeStore()
		applier := rewards.New(store)
		batch := sampleBatch()
		batch.Ranked = batch.Ranked[:2]

		Convey("When the batch is applied", func() {
			_, err := applier.Apply(context.Background(), batch)
			So(err, ShouldBeNil)

			Convey("Then every side effect for the winner lands before the runner-up starts", func() {
				So(store.calls, ShouldResemble, []string{
					"result:h1", "prize:h1", "ownerxp:o1", "ledger:o1", "horsexp:h1",
					"result:h2", "prize:h2", "ownerxp:o2", "ledger:o2", "horsexp:h2",
				})
			})
		})
	})
}

func TestApplyDuplicateResult(t *testing.T) {
	Convey("Given a horse that already has a result for the show", t, func() {
		store := newFakeStore()
		store.failResult["h2"] = fmt.Errorf("save result: %w", repository.ErrDuplicateResult)
		applier := rewards.New(store)

		Convey("When the batch is applied", func() {
			out, err := applier.Apply(context.Background(), sampleBatch())

			Convey("Then the duplicate is skipped and the batch continues", func() {
				So(err, ShouldBeNil)
				So(out.Results, ShouldHaveLength, 3)
				So(out.Notes, ShouldHaveLength, 1)
				So(out.Notes[0].HorseID, ShouldEqual, "h2")
				So(out.Notes[0].Stage, ShouldEqual, rewards.StageResultPersisted)
			})

			Convey("Then the duplicate receives no rewards at all", func() {
				So(store.calls, ShouldNotContain, "prize:h2")
				So(store.calls, ShouldNotContain, "ownerxp:o2")
				So(out.PrizesAwarded, ShouldEqual, 700)
			})
		})
	})
}

func TestApplyPersistFailureAborts(t *testing.T) {
	Convey("Given a store that fails to persist the second result", t, func() {
		store := newFakeStore()
		store.failResult["h2"] = errors.New("disk full")
		applier := rewards.New(store)

		Convey("When the batch is applied", func() {
			out, err := applier.Apply(context.Background(), sampleBatch())

			Convey("Then the batch aborts with the outcome so far", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "persist result for horse h2")
				So(out.Results, ShouldHaveLength, 1)
			})

			Convey("Then later horses were never attempted", func() {
				So(store.calls, ShouldNotContain, "result:h3")
			})
		})
	})
}

func TestApplyPrizeFailureIsolated(t *testing.T) {
	Convey("Given a store that cannot credit the winner's prize", t, func() {
		store := newFakeStore()
		store.failPrize["h1"] = errors.New("economy offline")
		applier := rewards.New(store)

		Convey("When the batch is applied", func() {
			out, err := applier.Apply(context.Background(), sampleBatch())
			So(err, ShouldBeNil)

			Convey("Then the failed prize is noted and excluded from the total", func() {
				So(out.PrizesAwarded, ShouldEqual, 500)
				So(out.Notes, ShouldHaveLength, 1)
				So(out.Notes[0].Stage, ShouldEqual, rewards.StagePrizeSkipped)
			})

			Convey("Then the winner's XP is still awarded", func() {
				So(store.calls, ShouldContain, "ownerxp:o1")
				So(store.calls, ShouldContain, "horsexp:h1")
				So(out.OwnerXpAwarded, ShouldEqual, 45)
			})
		})
	})
}

func TestApplyXpSubStepsIndependent(t *testing.T) {
	Convey("Given a store where owner XP fails for one owner", t, func() {
		store := newFakeStore()
		store.failOwner["o2"] = errors.New("owner row locked")
		applier := rewards.New(store)

		Convey("When the batch is applied", func() {
			out, err := applier.Apply(context.Background(), sampleBatch())
			So(err, ShouldBeNil)

			Convey("Then the ledger entry is still written for that owner", func() {
				So(store.calls, ShouldContain, "ledger:o2")
				So(out.XpEvents, ShouldHaveLength, 3)
			})

			Convey("Then the failed award is excluded from the total and noted", func() {
				So(out.OwnerXpAwarded, ShouldEqual, 30)
				So(out.Notes, ShouldHaveLength, 1)
				So(out.Notes[0].Stage, ShouldEqual, rewards.StageOwnerXpFailed)
			})
		})
	})

	Convey("Given a store where the ledger write fails", t, func() {
		store := newFakeStore()
		store.failLedger["o1"] = errors.New("ledger table gone")
		applier := rewards.New(store)

		Convey("When the batch is applied", func() {
			out, err := applier.Apply(context.Background(), sampleBatch())
			So(err, ShouldBeNil)

			Convey("Then the owner XP total still includes the award", func() {
				So(out.OwnerXpAwarded, ShouldEqual, 45)
				So(out.XpEvents, ShouldHaveLength, 2)
			})

			Convey("Then the horse's own XP is unaffected", func() {
				So(store.calls, ShouldContain, "horsexp:h1")
				So(out.HorseXpAwarded, ShouldEqual, 60)
			})
		})
	})

	Convey("Given a store where horse XP fails for the winner", t, func() {
		store := newFakeStore()
		store.failHorse["h1"] = errors.New("horse row locked")
		applier := rewards.New(store)

		Convey("When the batch is applied", func() {
			out, err := applier.Apply(context.Background(), sampleBatch())
			So(err, ShouldBeNil)

			Convey("Then only the failed award is missing", func() {
				So(out.HorseXpAwarded, ShouldEqual, 30)
				So(out.OwnerXpAwarded, ShouldEqual, 45)
				So(out.Notes, ShouldHaveLength, 1)
				So(out.Notes[0].Stage, ShouldEqual, rewards.StageHorseXpFailed)
			})
		})
	})
}

func TestApplyLevelUps(t *testing.T) {
	Convey("Given an owner whose award crosses a level boundary", t, func() {
		store := newFakeStore()
		store.levelUps["o1"] = progression.LevelUp{
			LeveledUp:    true,
			CurrentLevel: 2,
			LevelsGained: 1,
		}
		applier := rewards.New(store)

		Convey("When the batch is applied", func() {
			out, err := applier.Apply(context.Background(), sampleBatch())
			So(err, ShouldBeNil)

			Convey("Then the level-up is counted once", func() {
				So(out.OwnersLeveledUp, ShouldEqual, 1)
			})
		})
	})
}

func TestApplyZeroPool(t *testing.T) {
	Convey("Given a show with no prize pool", t, func() {
		store := newFakeStore()
		applier := rewards.New(store)
		batch := sampleBatch()
		batch.Prizes = prize.Distribute(0)

		Convey("When the batch is applied", func() {
			out, err := applier.Apply(context.Background(), batch)
			So(err, ShouldBeNil)

			Convey("Then no prize or stat gain is applied", func() {
				So(out.PrizesAwarded, ShouldEqual, 0)
				So(store.calls, ShouldNotContain, "prize:h1")
				So(out.Results[0].StatGain, ShouldResemble, model.StatGain{})
			})

			Convey("Then placement XP is still awarded", func() {
				So(out.OwnerXpAwarded, ShouldEqual, 45)
				So(out.HorseXpAwarded, ShouldEqual, 60)
			})
		})
	})
}
