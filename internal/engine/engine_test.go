package engine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/peloton/internal/adapters/repository"
	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/internal/engine"
	. "github.com/smartystreets/goconvey/convey"
)

func newFixture(t *testing.T) (*repository.MemStore, *engine.Engine) {
	t.Helper()
	store, err := repository.NewMemStore()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	eng, err := engine.New(store)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return store, eng
}

func addRider(ctx context.Context, t *testing.T, store *repository.MemStore, id, name string) {
	t.Helper()
	now := time.Now().UTC()
	if err := store.PutRider(ctx, model.Rider{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("put rider: %v", err)
	}
}

func addRace(ctx context.Context, t *testing.T, store *repository.MemStore, id string, cat model.Category, weights map[model.Dimension]float64) {
	t.Helper()
	race := model.Race{
		ID: id, Name: "Race " + id, Category: cat,
		Date: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), Season: 2026,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.PutRace(ctx, race); err != nil {
		t.Fatalf("put race: %v", err)
	}
	full := make(map[model.Dimension]float64, len(model.Dimensions()))
	for _, d := range model.Dimensions() {
		full[d] = weights[d]
	}
	if err := store.PutProfile(ctx, model.RaceProfile{RaceID: id, Weights: full}); err != nil {
		t.Fatalf("put profile: %v", err)
	}
}

func addResult(ctx context.Context, t *testing.T, store *repository.MemStore, raceID, riderID string, pos int) {
	t.Helper()
	result := model.RaceResult{
		ID: fmt.Sprintf("%s-%s", raceID, riderID), RaceID: raceID,
		RiderID: riderID, Position: pos, CreatedAt: time.Now().UTC(),
	}
	if err := store.PutResult(ctx, result); err != nil {
		t.Fatalf("put result: %v", err)
	}
}

func TestUpdateRatingsForRace(t *testing.T) {
	Convey("Given a WorldTour race weighted toward climbing", t, func() {
		ctx := context.Background()
		store, eng := newFixture(t)

		weights := map[model.Dimension]float64{
			model.DimensionMountain: 0.8,
			model.DimensionGC:       0.6,
		}
		addRace(ctx, t, store, "race1", model.CategoryWorldTour, weights)
		for i, name := range []string{"Anna", "Berta", "Carla"} {
			id := fmt.Sprintf("r%d", i+1)
			addRider(ctx, t, store, id, name)
			addResult(ctx, t, store, "race1", id, i+1)
		}

		Convey("When the race is processed", func() {
			summary, err := eng.UpdateRatingsForRace(ctx, "race1")
			So(err, ShouldBeNil)

			Convey("Then the summary reports every finisher", func() {
				So(summary.RaceID, ShouldEqual, "race1")
				So(summary.Updated, ShouldEqual, 3)
				So(len(summary.Updates), ShouldEqual, 3)
			})

			Convey("Then the winner gains and the loser drops in weighted dimensions", func() {
				// All start at 1500 so expected is 0.5 everywhere.
				// Winner: round(32 * 1.3 * 0.8 * 0.5) = 17 mountain points.
				winner, err := store.GetRating(ctx, "r1")
				So(err, ShouldBeNil)
				So(winner.Scores[model.DimensionMountain], ShouldEqual, 1517)
				So(winner.Scores[model.DimensionGC], ShouldEqual, 1512)
				So(winner.Overall, ShouldEqual, 1505)

				last, err := store.GetRating(ctx, "r3")
				So(err, ShouldBeNil)
				So(last.Scores[model.DimensionMountain], ShouldEqual, 1503)
				So(last.Scores[model.DimensionGC], ShouldEqual, 1502)
			})

			Convey("Then zero-weight dimensions never move", func() {
				for _, id := range []string{"r1", "r2", "r3"} {
					rating, err := store.GetRating(ctx, id)
					So(err, ShouldBeNil)
					So(rating.Scores[model.DimensionSprint], ShouldEqual, 1500)
					So(rating.Scores[model.DimensionCobbles], ShouldEqual, 1500)
					So(rating.Scores[model.DimensionFlat], ShouldEqual, 1500)
				}
			})

			Convey("Then counters reflect the finish", func() {
				winner, _ := store.GetRating(ctx, "r1")
				So(winner.RacesCount, ShouldEqual, 1)
				So(winner.WinsCount, ShouldEqual, 1)
				So(winner.PodiumsCount, ShouldEqual, 1)

				third, _ := store.GetRating(ctx, "r3")
				So(third.WinsCount, ShouldEqual, 0)
				So(third.PodiumsCount, ShouldEqual, 1)
			})

			Convey("Then each finisher gets exactly one full snapshot", func() {
				for _, id := range []string{"r1", "r2", "r3"} {
					snaps, err := store.ListSnapshots(ctx, id, 0)
					So(err, ShouldBeNil)
					So(len(snaps), ShouldEqual, 1)
					So(len(snaps[0].Scores), ShouldEqual, len(model.Dimensions()))
					So(snaps[0].RaceID, ShouldEqual, "race1")
					So(snaps[0].Date.Equal(summary.Date), ShouldBeTrue)
				}
				winner, err := store.ListSnapshots(ctx, "r1", 0)
				So(err, ShouldBeNil)
				So(winner[0].Reason, ShouldEqual, "Race result: Race race1 (P1)")
			})

			Convey("Then reprocessing the race is rejected", func() {
				_, err := eng.UpdateRatingsForRace(ctx, "race1")
				So(err, ShouldWrap, engine.ErrAlreadyProcessed)
			})
		})
	})
}

func TestUpdateRatingsEdgeCases(t *testing.T) {
	Convey("Given the engine", t, func() {
		ctx := context.Background()
		store, eng := newFixture(t)

		Convey("Then an unknown race is rejected", func() {
			_, err := eng.UpdateRatingsForRace(ctx, "ghost")
			So(err, ShouldWrap, repository.ErrRaceNotFound)
		})

		Convey("Then a race without a profile is rejected", func() {
			race := model.Race{ID: "bare", Name: "Bare", Category: model.CategoryOthers,
				Date: time.Now().UTC()}
			So(store.PutRace(ctx, race), ShouldBeNil)

			_, err := eng.UpdateRatingsForRace(ctx, "bare")
			So(err, ShouldWrap, engine.ErrMissingProfile)
		})

		Convey("Then a race without results updates nobody", func() {
			addRace(ctx, t, store, "empty", model.CategoryOthers,
				map[model.Dimension]float64{model.DimensionFlat: 1.0})

			summary, err := eng.UpdateRatingsForRace(ctx, "empty")
			So(err, ShouldBeNil)
			So(summary.Updated, ShouldEqual, 0)

			seen, err := store.HasRaceSnapshots(ctx, "empty")
			So(err, ShouldBeNil)
			So(seen, ShouldBeFalse)
		})

		Convey("Then non-finishers are skipped entirely", func() {
			addRace(ctx, t, store, "crash", model.CategoryOthers,
				map[model.Dimension]float64{model.DimensionFlat: 1.0})
			addRider(ctx, t, store, "r1", "Anna")
			addRider(ctx, t, store, "r2", "Berta")
			addResult(ctx, t, store, "crash", "r1", 1)
			dnf := model.RaceResult{ID: "crash-r2", RaceID: "crash", RiderID: "r2",
				Position: 2, DidNotFinish: true}
			So(store.PutResult(ctx, dnf), ShouldBeNil)

			summary, err := eng.UpdateRatingsForRace(ctx, "crash")
			So(err, ShouldBeNil)
			So(summary.Updated, ShouldEqual, 1)

			_, err = store.GetRating(ctx, "r2")
			So(err, ShouldWrap, repository.ErrRatingNotFound)
		})

		Convey("Then a solo finisher is scored against the initial rating", func() {
			addRace(ctx, t, store, "solo", model.CategoryOthers,
				map[model.Dimension]float64{model.DimensionFlat: 1.0})
			addRider(ctx, t, store, "r1", "Anna")
			addResult(ctx, t, store, "solo", "r1", 1)

			summary, err := eng.UpdateRatingsForRace(ctx, "solo")
			So(err, ShouldBeNil)
			So(summary.Updated, ShouldEqual, 1)

			// expected 0.5 against the default 1500, actual 1.0,
			// delta = round(32 * 0.7 * 1.0 * 0.5) = 11.
			rating, err := store.GetRating(ctx, "r1")
			So(err, ShouldBeNil)
			So(rating.Scores[model.DimensionFlat], ShouldEqual, 1511)
		})

		Convey("Then scores never leave the configured bounds", func() {
			addRace(ctx, t, store, "bounds", model.CategoryGrandTour,
				map[model.Dimension]float64{model.DimensionMountain: 1.0})
			addRider(ctx, t, store, "top", "Topped")
			addRider(ctx, t, store, "low", "Floored")
			addResult(ctx, t, store, "bounds", "top", 1)
			addResult(ctx, t, store, "bounds", "low", 2)

			maxed := model.NewRiderRating("top", 2500)
			maxed.Overall = 2500
			So(store.PutRating(ctx, maxed), ShouldBeNil)
			floored := model.NewRiderRating("low", 1000)
			floored.Overall = 1000
			So(store.PutRating(ctx, floored), ShouldBeNil)

			_, err := eng.UpdateRatingsForRace(ctx, "bounds")
			So(err, ShouldBeNil)

			top, _ := store.GetRating(ctx, "top")
			low, _ := store.GetRating(ctx, "low")
			So(top.Scores[model.DimensionMountain], ShouldBeLessThanOrEqualTo, 2500)
			So(low.Scores[model.DimensionMountain], ShouldBeGreaterThanOrEqualTo, 1000)
		})
	})
}

func TestInitializeRiderRating(t *testing.T) {
	Convey("Given the engine", t, func() {
		ctx := context.Background()
		store, eng := newFixture(t)
		addRider(ctx, t, store, "r1", "Anna")

		Convey("Then an unknown rider is rejected", func() {
			_, err := eng.InitializeRiderRating(ctx, "ghost")
			So(err, ShouldWrap, repository.ErrRiderNotFound)
		})

		Convey("Then first touch creates the default record", func() {
			rating, err := eng.InitializeRiderRating(ctx, "r1")
			So(err, ShouldBeNil)
			So(rating.Overall, ShouldEqual, 1500)
			for _, d := range model.Dimensions() {
				So(rating.Scores[d], ShouldEqual, 1500)
			}

			stored, err := store.GetRating(ctx, "r1")
			So(err, ShouldBeNil)
			So(stored.Overall, ShouldEqual, 1500)
		})

		Convey("Then an existing record is returned untouched", func() {
			custom := model.NewRiderRating("r1", 1500)
			custom.Overall = 1777
			So(store.PutRating(ctx, custom), ShouldBeNil)

			rating, err := eng.InitializeRiderRating(ctx, "r1")
			So(err, ShouldBeNil)
			So(rating.Overall, ShouldEqual, 1777)
		})
	})
}
