package ingest_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/okian/peloton/internal/adapters/repository"
	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/internal/domain/profile"
	"github.com/okian/peloton/internal/ingest"
	. "github.com/smartystreets/goconvey/convey"
)

func newIngestor(t *testing.T) (*repository.MemStore, *ingest.Ingestor) {
	t.Helper()
	store, err := repository.NewMemStore()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	in, err := ingest.New(store, profile.NewCatalog())
	if err != nil {
		t.Fatalf("new ingestor: %v", err)
	}
	return store, in
}

func TestRegisterRider(t *testing.T) {
	Convey("Given an ingestor", t, func() {
		ctx := context.Background()
		store, in := newIngestor(t)

		Convey("When a rider is registered twice", func() {
			first, err := in.RegisterRider(ctx, "Tadej", "UAE", "SI", "")
			So(err, ShouldBeNil)

			second, err := in.RegisterRider(ctx, "Tadej", "", "", "")
			So(err, ShouldBeNil)

			Convey("Then the same record is reused", func() {
				So(second.ID, ShouldEqual, first.ID)
				So(store.CountRiders(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the team changes the record is refreshed", func() {
			first, err := in.RegisterRider(ctx, "Tadej", "UAE", "SI", "")
			So(err, ShouldBeNil)

			moved, err := in.RegisterRider(ctx, "Tadej", "New Team", "", "")
			So(err, ShouldBeNil)
			So(moved.ID, ShouldEqual, first.ID)
			So(moved.Team, ShouldEqual, "New Team")
		})

		Convey("When an external id arrives later it is attached", func() {
			first, err := in.RegisterRider(ctx, "Tadej", "UAE", "SI", "")
			So(err, ShouldBeNil)
			So(first.ExternalID, ShouldEqual, "")

			linked, err := in.RegisterRider(ctx, "Tadej", "", "", "pcs-16973")
			So(err, ShouldBeNil)
			So(linked.ID, ShouldEqual, first.ID)
			So(linked.ExternalID, ShouldEqual, "pcs-16973")
		})

		Convey("Then an empty name is rejected", func() {
			_, err := in.RegisterRider(ctx, "", "UAE", "SI", "")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestCreateRace(t *testing.T) {
	Convey("Given an ingestor", t, func() {
		ctx := context.Background()
		store, in := newIngestor(t)
		date := time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC)

		Convey("When a race uses a template", func() {
			race, err := in.CreateRace(ctx, ingest.RaceData{
				Name: "Paris-Roubaix", Date: date, Category: "Monument",
				TemplateName: "Paris-Roubaix",
			})
			So(err, ShouldBeNil)

			Convey("Then the profile carries the template weights", func() {
				stored, err := store.GetProfile(ctx, race.ID)
				So(err, ShouldBeNil)
				So(stored.Weights[model.DimensionCobbles], ShouldAlmostEqual, 1.0)
			})

			Convey("Then the season defaults to the race year", func() {
				So(race.Season, ShouldEqual, 2026)
				So(race.Category, ShouldEqual, model.CategoryMonument)
			})
		})

		Convey("Then an unknown template is rejected", func() {
			_, err := in.CreateRace(ctx, ingest.RaceData{
				Name: "Mystery Race", Date: date, TemplateName: "Uphill Sprint",
			})
			So(err, ShouldWrap, profile.ErrUnknownTemplate)
		})

		Convey("Then incomplete explicit weights are rejected", func() {
			_, err := in.CreateRace(ctx, ingest.RaceData{
				Name: "Custom Race", Date: date,
				Weights: map[model.Dimension]float64{model.DimensionFlat: 0.5},
			})
			So(err, ShouldWrap, model.ErrInvalidWeights)
		})

		Convey("Then an unknown category is rejected", func() {
			_, err := in.CreateRace(ctx, ingest.RaceData{
				Name: "Custom Race", Date: date, Category: "Velodrome",
				TemplateName: "Flat Sprint Stage",
			})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFindRace(t *testing.T) {
	Convey("Given an ingested race", t, func() {
		ctx := context.Background()
		_, in := newIngestor(t)
		date := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)

		race, err := in.CreateRace(ctx, ingest.RaceData{
			Name: "Test Classic", Date: date, TemplateName: "Hilly Classic",
		})
		So(err, ShouldBeNil)

		Convey("Then the same edition is found regardless of time of day", func() {
			found, ok, err := in.FindRace(ctx, "Test Classic", date.Truncate(24*time.Hour))
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(found.ID, ShouldEqual, race.ID)
		})

		Convey("Then another date is a different edition", func() {
			_, ok, err := in.FindRace(ctx, "Test Classic", date.AddDate(1, 0, 0))
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("Then an unknown name is not found", func() {
			_, ok, err := in.FindRace(ctx, "Ghost Race", date)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestIngestRace(t *testing.T) {
	Convey("Given an ingestor", t, func() {
		ctx := context.Background()
		store, in := newIngestor(t)

		data := ingest.RaceData{
			Name: "Test Classic",
			Date: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			TemplateName: "Hilly Classic",
			Results: []ingest.ResultData{
				{RiderName: "Anna", Position: 1},
				{RiderName: "Berta", Position: 2},
				{RiderName: "Carla", Position: 3, DidNotFinish: true},
			},
		}

		Convey("When the race is ingested in one call", func() {
			race, stored, err := in.IngestRace(ctx, data)
			So(err, ShouldBeNil)
			So(stored, ShouldEqual, 3)

			Convey("Then riders, results and profile are all in place", func() {
				So(store.CountRiders(ctx), ShouldEqual, 3)
				rows, err := store.ListResults(ctx, race.ID)
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 3)
				So(rows[2].DidNotFinish, ShouldBeTrue)
			})
		})
	})
}

func TestCSVImport(t *testing.T) {
	Convey("Given an ingestor", t, func() {
		ctx := context.Background()
		store, in := newIngestor(t)

		Convey("When riders are imported from CSV", func() {
			csv := "name,team,country,external_id\nAnna,Alpha,IT,pcs-101\nBerta,Beta,BE,\n,NoName,XX,\n"
			report, err := in.ImportRiders(ctx, strings.NewReader(csv))
			So(err, ShouldBeNil)

			Convey("Then valid rows land and the bad row is reported", func() {
				So(report.Rows, ShouldEqual, 3)
				So(report.Imported, ShouldEqual, 2)
				So(len(report.Errors), ShouldEqual, 1)
				So(report.Errors[0].Line, ShouldEqual, 4)
				So(store.CountRiders(ctx), ShouldEqual, 2)
			})

			Convey("Then the external id column carries through", func() {
				anna, err := store.GetRiderByName(ctx, "Anna")
				So(err, ShouldBeNil)
				So(anna.ExternalID, ShouldEqual, "pcs-101")
			})
		})

		Convey("When races and results are imported from CSV", func() {
			races := "name,date,category,template,country,season\n" +
				"Test Classic,2026-05-01,WT,Hilly Classic,BE,\n"
			report, err := in.ImportRaces(ctx, strings.NewReader(races))
			So(err, ShouldBeNil)
			So(report.Imported, ShouldEqual, 1)

			results := "race_name,rider_name,position,team,time_seconds,dnf,dns\n" +
				"Test Classic,Anna,1,Alpha,14400,,\n" +
				"Test Classic,Berta,2,Beta,14410,,\n" +
				"Ghost Race,Carla,1,,,,\n"
			report, err = in.ImportResults(ctx, strings.NewReader(results))
			So(err, ShouldBeNil)

			Convey("Then rows against known races land, the rest is reported", func() {
				So(report.Imported, ShouldEqual, 2)
				So(len(report.Errors), ShouldEqual, 1)

				race, err := store.GetRaceByName(ctx, "Test Classic")
				So(err, ShouldBeNil)
				rows, err := store.ListResults(ctx, race.ID)
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				So(rows[0].TimeSeconds, ShouldEqual, 14400)
			})
		})

		Convey("Then an empty reader yields an empty report", func() {
			report, err := in.ImportRiders(ctx, strings.NewReader(""))
			So(err, ShouldBeNil)
			So(report.Rows, ShouldEqual, 0)
		})
	})
}
