package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hoofline/showring/internal/adapters/http/api"
	"github.com/hoofline/showring/internal/adapters/repository"
	"github.com/hoofline/showring/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// seedStore fills a memory store with one owner, one horse, one ran show
// and the matching result and ledger rows.
func seedStore(ctx context.Context) *repository.MemStore {
	store := repository.NewMemStore()

	owner := model.Owner{ID: "owner_01", Name: "Abby", Money: 700, XP: 45, Level: 1}
	horse := model.Horse{
		ID:       "horse_001",
		Name:     "Comet",
		OwnerID:  "owner_01",
		AgeYears: 5,
		Health:   model.HealthGood,
		Earnings: 500,
		XP:       30,
	}
	ranAt := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)
	show := model.Show{
		ID:         "show_spring",
		Name:       "Spring Derby",
		Discipline: "racing",
		PrizePool:  1000,
		EntryFee:   25,
		HostID:     "owner_01",
		RunsAt:     ranAt.Add(-30 * time.Minute),
		RanAt:      &ranAt,
	}

	So(store.SaveOwner(ctx, owner), ShouldBeNil)
	So(store.SaveHorse(ctx, horse), ShouldBeNil)
	So(store.SaveShow(ctx, show), ShouldBeNil)

	_, err := store.CreateResult(ctx, model.CompetitionResult{
		HorseID:    "horse_001",
		ShowID:     "show_spring",
		ShowName:   "Spring Derby",
		Discipline: "racing",
		Score:      842.5,
		Placement:  "1st",
		PrizeWon:   500,
		StatGain:   model.StatGain{Stat: "speed", Amount: 3},
	})
	So(err, ShouldBeNil)

	_, err = store.AppendXpEvent(ctx, "owner_01", 20, "placement_1st")
	So(err, ShouldBeNil)

	return store
}

func newTestMux(ctx context.Context, store api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(store).Register(ctx, mux)
	return mux
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		ctx := context.Background()
		mux := newTestMux(ctx, seedStore(ctx))

		Convey("When /healthz is requested", func() {
			rec := get(mux, "/healthz")

			Convey("Then it reports ok as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				So(rec.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When /metrics is requested", func() {
			rec := get(mux, "/metrics")

			Convey("Then the competition series are exposed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "showring_competition_shows_run_total")
			})
		})

		Convey("When an unknown path is requested", func() {
			rec := get(mux, "/nope")

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestResultsHandler_HandleShowResults(t *testing.T) {
	Convey("Given a server backed by a seeded store", t, func() {
		ctx := context.Background()
		mux := newTestMux(ctx, seedStore(ctx))

		Convey("When the results of a ran show are requested", func() {
			rec := get(mux, "/shows/show_spring/results")

			Convey("Then the show and its results are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var resp struct {
					ShowID     string     `json:"show_id"`
					Name       string     `json:"name"`
					Discipline string     `json:"discipline"`
					PrizePool  int64      `json:"prize_pool"`
					RanAt      *time.Time `json:"ran_at"`
					Results    []struct {
						HorseID    string  `json:"horse_id"`
						Score      float64 `json:"score"`
						Placement  string  `json:"placement"`
						PrizeWon   int64   `json:"prize_won"`
						StatGained string  `json:"stat_gained"`
					} `json:"results"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.ShowID, ShouldEqual, "show_spring")
				So(resp.Name, ShouldEqual, "Spring Derby")
				So(resp.Discipline, ShouldEqual, "racing")
				So(resp.PrizePool, ShouldEqual, 1000)
				So(resp.RanAt, ShouldNotBeNil)
				So(len(resp.Results), ShouldEqual, 1)
				So(resp.Results[0].HorseID, ShouldEqual, "horse_001")
				So(resp.Results[0].Placement, ShouldEqual, "1st")
				So(resp.Results[0].PrizeWon, ShouldEqual, 500)
				So(resp.Results[0].StatGained, ShouldEqual, "speed")
			})
		})

		Convey("When an unknown show is requested", func() {
			rec := get(mux, "/shows/show_ghost/results")

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)

				var resp struct {
					Code string `json:"code"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "not_found")
			})
		})

		Convey("When the results segment is missing", func() {
			rec := get(mux, "/shows/show_spring")

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the trailing segment is wrong", func() {
			rec := get(mux, "/shows/show_spring/standings")

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the method is not GET", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shows/show_spring/results", nil))

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestResultsHandler_HandleHorseResults(t *testing.T) {
	Convey("Given a server backed by a seeded store", t, func() {
		ctx := context.Background()
		mux := newTestMux(ctx, seedStore(ctx))

		Convey("When a horse's results are requested", func() {
			rec := get(mux, "/horses/horse_001/results")

			Convey("Then the horse and its history are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var resp struct {
					HorseID  string `json:"horse_id"`
					Name     string `json:"name"`
					OwnerID  string `json:"owner_id"`
					Earnings int64  `json:"earnings"`
					Results  []struct {
						ShowID   string `json:"show_id"`
						ShowName string `json:"show_name"`
					} `json:"results"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.HorseID, ShouldEqual, "horse_001")
				So(resp.Name, ShouldEqual, "Comet")
				So(resp.OwnerID, ShouldEqual, "owner_01")
				So(resp.Earnings, ShouldEqual, 500)
				So(len(resp.Results), ShouldEqual, 1)
				So(resp.Results[0].ShowName, ShouldEqual, "Spring Derby")
			})
		})

		Convey("When an unknown horse is requested", func() {
			rec := get(mux, "/horses/horse_999/results")

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestLedgerHandler_HandleOwnerLedger(t *testing.T) {
	Convey("Given a server backed by a seeded store", t, func() {
		ctx := context.Background()
		mux := newTestMux(ctx, seedStore(ctx))

		Convey("When an owner's ledger is requested", func() {
			rec := get(mux, "/owners/owner_01/ledger")

			Convey("Then the owner and the XP events are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var resp struct {
					OwnerID string `json:"owner_id"`
					Name    string `json:"name"`
					Money   int64  `json:"money"`
					Level   int    `json:"level"`
					Events  []struct {
						Amount int    `json:"amount"`
						Reason string `json:"reason"`
					} `json:"events"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.OwnerID, ShouldEqual, "owner_01")
				So(resp.Name, ShouldEqual, "Abby")
				So(resp.Money, ShouldEqual, 700)
				So(len(resp.Events), ShouldEqual, 1)
				So(resp.Events[0].Amount, ShouldEqual, 20)
				So(resp.Events[0].Reason, ShouldEqual, "placement_1st")
			})
		})

		Convey("When an unknown owner is requested", func() {
			rec := get(mux, "/owners/owner_99/ledger")

			Convey("Then it is not found even though the ledger would be empty", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the leaf segment is wrong", func() {
			rec := get(mux, "/owners/owner_01/money")

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}
