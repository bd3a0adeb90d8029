package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestPackageHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording business metrics", func() {
			So(func() {
				RecordRaceIngested()
				RecordResultsIngested(3)
				RecordRiderRegistered()
				RecordRatingUpdate()
				RecordRatingUpdateFailure()
				RecordSnapshotsAppended(3)
				RecordDuplicateJob()
				RecordUpdateLatency(12.5)
			}, ShouldNotPanic)
		})

		Convey("When updating operational gauges", func() {
			So(func() {
				UpdateQueueSize(10)
				UpdateQueueCapacity(1000)
				UpdateQueueUtilization(0.01)
				UpdateWorkerCount(1)
				UpdateTotalRiders(42)
			}, ShouldNotPanic)
		})

		Convey("When recording queue, worker and HTTP metrics", func() {
			So(func() {
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordWorkerProcessingLatency(5.0)
				RecordWorkerError()
				RecordHTTPRequest("rankings", "GET", "200")
				RecordHTTPRequestDuration("rankings", "GET", "200", 3.2)
				RecordErrorByComponent("engine", "missing_profile")
			}, ShouldNotPanic)
		})

		Convey("Then the registry should be available", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
