package showsim

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoofline/showring/internal/adapters/repository"
	"github.com/hoofline/showring/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestRunValidation(t *testing.T) {
	Convey("Given a simulation run", t, func() {
		ctx := context.Background()

		Convey("When no horses are requested", func() {
			err := Run(ctx, &Config{Horses: 0, Discipline: "racing"})

			Convey("Then the run is rejected", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "at least one horse")
			})
		})

		Convey("When the discipline is unknown", func() {
			err := Run(ctx, &Config{Horses: 4, Discipline: "barrel"})

			Convey("Then the run is rejected with the known list", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown discipline")
				So(err.Error(), ShouldContainSubstring, "racing")
			})
		})
	})
}

func TestRunInMemory(t *testing.T) {
	Convey("Given an in-memory simulation of a full field", t, func() {
		ctx := context.Background()
		reportPath := filepath.Join(t.TempDir(), "report.json")
		cfg := &Config{
			Seed:       3,
			Horses:     30,
			Discipline: "racing",
			PrizePool:  1000,
			EntryFee:   10,
			OutputFile: reportPath,
		}

		Convey("When the run completes", func() {
			err := Run(ctx, cfg)
			So(err, ShouldBeNil)

			report := readReport(t, reportPath)

			Convey("Then every horse either competed or was turned away", func() {
				So(len(report.Placings)+len(report.Skipped), ShouldEqual, 30)
				So(report.Show.Entrants, ShouldEqual, len(report.Placings))
			})

			Convey("Then the podium and payouts follow the pool", func() {
				So(len(report.Placings), ShouldBeGreaterThanOrEqualTo, 3)
				So(report.Placings[0].Placement, ShouldEqual, "1st")
				So(report.Placings[1].Placement, ShouldEqual, "2nd")
				So(report.Placings[2].Placement, ShouldEqual, "3rd")
				So(report.Prizes.First, ShouldEqual, 500)
				So(report.Prizes.Second, ShouldEqual, 300)
				So(report.Prizes.Third, ShouldEqual, 200)
				So(report.Prizes.Paid, ShouldEqual, 1000)
				So(report.Prizes.Fees, ShouldEqual, int64(10*report.Show.Entrants))
			})

			Convey("Then the finishing order is ranked best first", func() {
				for i := 1; i < len(report.Placings); i++ {
					So(report.Placings[i].Score, ShouldBeLessThanOrEqualTo, report.Placings[i-1].Score)
				}
			})

			Convey("Then experience was awarded for the podium", func() {
				So(report.Xp.TotalAwarded, ShouldBeGreaterThan, 0)
				So(report.Xp.LedgerEvents, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the same seed runs twice", func() {
			So(Run(ctx, cfg), ShouldBeNil)
			first := readReport(t, reportPath)

			So(Run(ctx, cfg), ShouldBeNil)
			second := readReport(t, reportPath)

			Convey("Then the field and finishing order replay exactly", func() {
				So(placingOrder(second), ShouldResemble, placingOrder(first))
				So(second.Skipped, ShouldResemble, first.Skipped)
			})
		})
	})
}

func TestRunSQLite(t *testing.T) {
	Convey("Given a simulation backed by SQLite", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "sim.db")
		reportPath := filepath.Join(dir, "report.json")
		cfg := &Config{
			Seed:       5,
			Horses:     9,
			Discipline: "dressage",
			PrizePool:  600,
			EntryFee:   0,
			DBPath:     dbPath,
			OutputFile: reportPath,
		}

		Convey("When the run completes", func() {
			err := Run(ctx, cfg)
			So(err, ShouldBeNil)

			Convey("Then the results survive in the database", func() {
				store, err := repository.NewSQLiteStore(dbPath)
				So(err, ShouldBeNil)
				defer store.Close()

				report := readReport(t, reportPath)
				results, err := store.ResultsForShow(ctx, report.Show.ID)
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, len(report.Placings))

				show, err := store.GetShow(ctx, report.Show.ID)
				So(err, ShouldBeNil)
				So(show.Discipline, ShouldEqual, "dressage")
			})
		})
	})
}

// readReport parses the JSON document a run wrote.
func readReport(t *testing.T, path string) *Report {
	t.Helper()

	data, err := os.ReadFile(path)
	So(err, ShouldBeNil)

	var report Report
	So(json.Unmarshal(data, &report), ShouldBeNil)
	return &report
}

// placingOrder projects the stable part of the finishing order: names,
// placements and prizes, but not raw scores.
func placingOrder(report *Report) []string {
	out := make([]string, 0, len(report.Placings))
	for _, p := range report.Placings {
		out = append(out, fmt.Sprintf("%s %s %d", p.Name, p.Placement, p.Prize))
	}
	return out
}
