package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/peloton/internal/adapters/repository"
	"github.com/okian/peloton/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func testRider(id, name string) model.Rider {
	now := time.Now().UTC()
	return model.Rider{ID: id, Name: name, Team: "Test Team", CreatedAt: now, UpdatedAt: now}
}

func testRating(riderID string, overall int) model.RiderRating {
	r := model.NewRiderRating(riderID, overall)
	return r
}

func TestMemStoreRiders(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store, err := repository.NewMemStore()
		So(err, ShouldBeNil)

		Convey("When a rider is stored", func() {
			So(store.PutRider(ctx, testRider("r1", "Tadej")), ShouldBeNil)

			Convey("Then it is readable by id and by name", func() {
				byID, err := store.GetRider(ctx, "r1")
				So(err, ShouldBeNil)
				So(byID.Name, ShouldEqual, "Tadej")

				byName, err := store.GetRiderByName(ctx, "Tadej")
				So(err, ShouldBeNil)
				So(byName.ID, ShouldEqual, "r1")
			})

			Convey("Then renaming drops the stale name index entry", func() {
				renamed := testRider("r1", "Tadej P")
				So(store.PutRider(ctx, renamed), ShouldBeNil)

				_, err := store.GetRiderByName(ctx, "Tadej")
				So(err, ShouldWrap, repository.ErrRiderNotFound)
				_, err = store.GetRiderByName(ctx, "Tadej P")
				So(err, ShouldBeNil)
			})
		})

		Convey("Then unknown lookups fail with the sentinel", func() {
			_, err := store.GetRider(ctx, "ghost")
			So(err, ShouldWrap, repository.ErrRiderNotFound)
			_, err = store.GetRace(ctx, "ghost")
			So(err, ShouldWrap, repository.ErrRaceNotFound)
			_, err = store.GetProfile(ctx, "ghost")
			So(err, ShouldWrap, repository.ErrProfileNotFound)
			_, err = store.GetRating(ctx, "ghost")
			So(err, ShouldWrap, repository.ErrRatingNotFound)
		})

		Convey("Then riders list sorted by name", func() {
			So(store.PutRider(ctx, testRider("r2", "Wout")), ShouldBeNil)
			So(store.PutRider(ctx, testRider("r3", "Jonas")), ShouldBeNil)

			riders, err := store.ListRiders(ctx)
			So(err, ShouldBeNil)
			So(len(riders), ShouldEqual, 2)
			So(riders[0].Name, ShouldEqual, "Jonas")
			So(store.CountRiders(ctx), ShouldEqual, 2)
		})
	})
}

func TestMemStoreResults(t *testing.T) {
	Convey("Given a store with one race", t, func() {
		ctx := context.Background()
		store, err := repository.NewMemStore()
		So(err, ShouldBeNil)

		race := model.Race{ID: "race1", Name: "Test Classic", Category: model.CategoryOthers,
			Date: time.Now().UTC(), Season: 2026}
		So(store.PutRace(ctx, race), ShouldBeNil)

		result := model.RaceResult{ID: "res1", RaceID: "race1", RiderID: "r1", Position: 1}
		So(store.PutResult(ctx, result), ShouldBeNil)

		Convey("Then the same rider cannot place twice", func() {
			dup := model.RaceResult{ID: "res2", RaceID: "race1", RiderID: "r1", Position: 2}
			So(store.PutResult(ctx, dup), ShouldWrap, repository.ErrDuplicateResult)
		})

		Convey("Then the same position cannot be taken twice", func() {
			dup := model.RaceResult{ID: "res2", RaceID: "race1", RiderID: "r2", Position: 1}
			So(store.PutResult(ctx, dup), ShouldWrap, repository.ErrDuplicateResult)
		})

		Convey("Then results come back ordered by position", func() {
			third := model.RaceResult{ID: "res3", RaceID: "race1", RiderID: "r3", Position: 3}
			second := model.RaceResult{ID: "res2", RaceID: "race1", RiderID: "r2", Position: 2}
			So(store.PutResult(ctx, third), ShouldBeNil)
			So(store.PutResult(ctx, second), ShouldBeNil)

			rows, err := store.ListResults(ctx, "race1")
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 3)
			So(rows[0].Position, ShouldEqual, 1)
			So(rows[1].Position, ShouldEqual, 2)
			So(rows[2].Position, ShouldEqual, 3)
		})
	})
}

func TestMemStoreRankings(t *testing.T) {
	Convey("Given a store with rated riders", t, func() {
		ctx := context.Background()
		store, err := repository.NewMemStore()
		So(err, ShouldBeNil)

		riders := map[string]string{"r1": "Anna", "r2": "Berta", "r3": "Carla"}
		for id, name := range riders {
			So(store.PutRider(ctx, testRider(id, name)), ShouldBeNil)
		}

		a := testRating("r1", 1500)
		a.Scores[model.DimensionSprint] = 1700
		b := testRating("r2", 1600)
		b.Scores[model.DimensionSprint] = 1700
		c := testRating("r3", 1400)
		c.Scores[model.DimensionSprint] = 1200
		for _, rating := range []model.RiderRating{a, b, c} {
			So(store.PutRating(ctx, rating), ShouldBeNil)
		}

		Convey("Then rankings order by score desc with name as tiebreak", func() {
			top, err := store.TopByDimension(ctx, model.DimensionSprint, 10)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 3)
			So(top[0].Name, ShouldEqual, "Anna") // ties break alphabetically
			So(top[1].Name, ShouldEqual, "Berta")
			So(top[2].Name, ShouldEqual, "Carla")
			So(top[0].Rank, ShouldEqual, 1)
			So(top[2].Rank, ShouldEqual, 3)
		})

		Convey("Then the overall dimension is addressable", func() {
			top, err := store.TopByDimension(ctx, model.DimensionOverall, 1)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 1)
			So(top[0].RiderID, ShouldEqual, "r2")
			So(top[0].Score, ShouldEqual, 1600)
		})

		Convey("Then bad inputs are rejected", func() {
			_, err := store.TopByDimension(ctx, model.DimensionSprint, 0)
			So(err, ShouldWrap, repository.ErrInvalidLimit)
			_, err = store.TopByDimension(ctx, "descending", 5)
			So(err, ShouldWrap, repository.ErrUnknownDimension)
		})
	})
}

func TestMemStoreRatingUpdate(t *testing.T) {
	Convey("Given a store", t, func() {
		ctx := context.Background()
		store, err := repository.NewMemStore()
		So(err, ShouldBeNil)

		now := time.Now().UTC()
		update := repository.RatingUpdate{
			RaceID:  "race1",
			Ratings: []model.RiderRating{testRating("r1", 1520)},
			Snapshots: []model.RatingSnapshot{
				{ID: "s1", RiderID: "r1", RaceID: "race1", Date: now,
					Scores: model.NewDimensionScores(1520), Overall: 1520, CreatedAt: now},
			},
		}

		Convey("When the update is applied", func() {
			So(store.ApplyRatingUpdate(ctx, update), ShouldBeNil)

			Convey("Then rating, snapshots and the race marker are visible", func() {
				rating, err := store.GetRating(ctx, "r1")
				So(err, ShouldBeNil)
				So(rating.Overall, ShouldEqual, 1520)

				snaps, err := store.ListSnapshots(ctx, "r1", 0)
				So(err, ShouldBeNil)
				So(len(snaps), ShouldEqual, 1)

				seen, err := store.HasRaceSnapshots(ctx, "race1")
				So(err, ShouldBeNil)
				So(seen, ShouldBeTrue)
			})
		})

		Convey("Then snapshots list newest first and honor the limit", func() {
			So(store.ApplyRatingUpdate(ctx, update), ShouldBeNil)
			later := update
			later.RaceID = "race2"
			later.Snapshots = []model.RatingSnapshot{
				{ID: "s2", RiderID: "r1", RaceID: "race2", Date: now.Add(time.Hour),
					Scores: model.NewDimensionScores(1540), Overall: 1540, CreatedAt: now.Add(time.Hour)},
			}
			So(store.ApplyRatingUpdate(ctx, later), ShouldBeNil)

			snaps, err := store.ListSnapshots(ctx, "r1", 1)
			So(err, ShouldBeNil)
			So(len(snaps), ShouldEqual, 1)
			So(snaps[0].ID, ShouldEqual, "s2")
		})
	})
}

func TestMemStorePersistence(t *testing.T) {
	Convey("Given a store with a data file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "state.json")

		store, err := repository.NewMemStore(repository.WithDataFile(path))
		So(err, ShouldBeNil)

		So(store.PutRider(ctx, testRider("r1", "Tadej")), ShouldBeNil)
		race := model.Race{ID: "race1", Name: "Test Classic", Category: model.CategoryMonument,
			Date: time.Now().UTC(), Season: 2026}
		So(store.PutRace(ctx, race), ShouldBeNil)
		So(store.PutRating(ctx, testRating("r1", 1510)), ShouldBeNil)

		Convey("When the store is closed and reopened", func() {
			So(store.Close(ctx), ShouldBeNil)

			reopened, err := repository.NewMemStore(repository.WithDataFile(path))
			So(err, ShouldBeNil)

			Convey("Then the state survived the restart", func() {
				rider, err := reopened.GetRiderByName(ctx, "Tadej")
				So(err, ShouldBeNil)
				So(rider.ID, ShouldEqual, "r1")

				got, err := reopened.GetRaceByName(ctx, "Test Classic")
				So(err, ShouldBeNil)
				So(got.Category, ShouldEqual, model.CategoryMonument)

				rating, err := reopened.GetRating(ctx, "r1")
				So(err, ShouldBeNil)
				So(rating.Overall, ShouldEqual, 1510)
			})
		})
	})
}
