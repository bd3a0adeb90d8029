package model_test

import (
	"testing"

	"github.com/okian/peloton/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDimensions(t *testing.T) {
	Convey("Given the rated dimension set", t, func() {
		dims := model.Dimensions()

		Convey("Then it should contain exactly the eight known dimensions", func() {
			So(dims, ShouldResemble, []model.Dimension{
				model.DimensionFlat,
				model.DimensionCobbles,
				model.DimensionMountain,
				model.DimensionTimeTrial,
				model.DimensionSprint,
				model.DimensionGC,
				model.DimensionOneDay,
				model.DimensionEndurance,
			})
		})

		Convey("Then every member should validate and overall should not", func() {
			for _, d := range dims {
				So(model.ValidDimension(d), ShouldBeTrue)
			}
			So(model.ValidDimension(model.DimensionOverall), ShouldBeFalse)
			So(model.ValidDimension("uphill_sprint"), ShouldBeFalse)
		})
	})
}

func TestDimensionScores(t *testing.T) {
	Convey("Given a fresh score map", t, func() {
		scores := model.NewDimensionScores(1500)

		Convey("Then every dimension is set to the initial value", func() {
			So(len(scores), ShouldEqual, len(model.Dimensions()))
			for _, d := range model.Dimensions() {
				So(scores[d], ShouldEqual, 1500)
			}
		})

		Convey("When cloning and mutating the clone", func() {
			clone := scores.Clone()
			clone[model.DimensionMountain] = 1600

			Convey("Then the original is unchanged", func() {
				So(scores[model.DimensionMountain], ShouldEqual, 1500)
				So(clone[model.DimensionMountain], ShouldEqual, 1600)
			})
		})
	})
}

func TestParseCategory(t *testing.T) {
	Convey("Given category parsing", t, func() {
		Convey("Then known categories round-trip", func() {
			for _, c := range model.Categories() {
				got, err := model.ParseCategory(string(c))
				So(err, ShouldBeNil)
				So(got, ShouldEqual, c)
			}
		})

		Convey("Then the empty string falls back to Others", func() {
			got, err := model.ParseCategory("")
			So(err, ShouldBeNil)
			So(got, ShouldEqual, model.CategoryOthers)
		})

		Convey("Then an unknown category is rejected", func() {
			_, err := model.ParseCategory("Velodrome")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRaceProfileValidate(t *testing.T) {
	Convey("Given a race profile", t, func() {
		full := func() map[model.Dimension]float64 {
			w := make(map[model.Dimension]float64)
			for _, d := range model.Dimensions() {
				w[d] = 0.5
			}
			return w
		}

		Convey("When all weights are present and in range", func() {
			p := model.RaceProfile{RaceID: "r1", Weights: full()}
			So(p.Validate(), ShouldBeNil)
		})

		Convey("When a dimension key is missing", func() {
			w := full()
			delete(w, model.DimensionCobbles)
			p := model.RaceProfile{RaceID: "r1", Weights: w}
			So(p.Validate(), ShouldWrap, model.ErrInvalidWeights)
		})

		Convey("When a weight is outside [0,1]", func() {
			w := full()
			w[model.DimensionSprint] = 1.2
			p := model.RaceProfile{RaceID: "r1", Weights: w}
			So(p.Validate(), ShouldWrap, model.ErrInvalidWeights)

			w[model.DimensionSprint] = -0.1
			So(p.Validate(), ShouldWrap, model.ErrInvalidWeights)
		})

		Convey("When an unknown dimension key is present", func() {
			w := full()
			w["gravel"] = 0.3
			p := model.RaceProfile{RaceID: "r1", Weights: w}
			So(p.Validate(), ShouldWrap, model.ErrInvalidWeights)
		})
	})
}

func TestRaceResultEligible(t *testing.T) {
	Convey("Given race results", t, func() {
		So(model.RaceResult{Position: 1}.Eligible(), ShouldBeTrue)
		So(model.RaceResult{Position: 5, DidNotFinish: true}.Eligible(), ShouldBeFalse)
		So(model.RaceResult{Position: 5, DidNotStart: true}.Eligible(), ShouldBeFalse)
	})
}

func TestRiderRating(t *testing.T) {
	Convey("Given a fresh rider rating", t, func() {
		r := model.NewRiderRating("rider-1", 1500)

		Convey("Then it starts at the initial value with zero counters", func() {
			So(r.Overall, ShouldEqual, 1500)
			So(r.RacesCount, ShouldEqual, 0)
			So(r.WinsCount, ShouldEqual, 0)
			So(r.PodiumsCount, ShouldEqual, 0)
			for _, d := range model.Dimensions() {
				So(r.Score(d), ShouldEqual, 1500)
			}
			So(r.Score(model.DimensionOverall), ShouldEqual, 1500)
		})

		Convey("When cloning and mutating the clone", func() {
			clone := r.Clone()
			clone.Scores[model.DimensionFlat] = 1700
			clone.Overall = 1550

			Convey("Then the original is unchanged", func() {
				So(r.Scores[model.DimensionFlat], ShouldEqual, 1500)
				So(r.Overall, ShouldEqual, 1500)
			})
		})
	})
}
