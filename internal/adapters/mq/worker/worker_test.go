package worker_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/peloton/internal/adapters/mq/queue"
	"github.com/okian/peloton/internal/adapters/mq/worker"
	"github.com/okian/peloton/internal/engine"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeUpdater struct {
	mu     sync.Mutex
	calls  []string
	err    error
	notify chan struct{}
}

func (f *fakeUpdater) UpdateRatingsForRace(_ context.Context, raceID string) (engine.Summary, error) {
	f.mu.Lock()
	f.calls = append(f.calls, raceID)
	f.mu.Unlock()
	if f.notify != nil {
		f.notify <- struct{}{}
	}
	if f.err != nil {
		return engine.Summary{}, f.err
	}
	return engine.Summary{RaceID: raceID, Updated: 1}, nil
}

func (f *fakeUpdater) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestWorkerProcessing(t *testing.T) {
	Convey("Given a worker over a queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		updater := &fakeUpdater{notify: make(chan struct{}, 10)}
		w := worker.NewInMemoryWorker(q, updater)

		go w.Run(ctx)

		Convey("When jobs are enqueued", func() {
			So(q.Enqueue(ctx, queue.Job{RaceID: "race1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{RaceID: "race2"}), ShouldBeTrue)

			for i := 0; i < 2; i++ {
				select {
				case <-updater.notify:
				case <-time.After(2 * time.Second):
					t.Fatal("job not processed in time")
				}
			}

			Convey("Then the updater saw both races in order", func() {
				So(updater.seen(), ShouldResemble, []string{"race1", "race2"})
			})
		})

		Convey("Then shutdown completes", func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
			defer stop()
			So(w.Shutdown(shutdownCtx), ShouldBeNil)
		})
	})
}

func TestWorkerDropsProcessedRaces(t *testing.T) {
	Convey("Given an updater that reports the race as processed", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		updater := &fakeUpdater{
			err:    fmt.Errorf("%w: race race1", engine.ErrAlreadyProcessed),
			notify: make(chan struct{}, 10),
		}
		w := worker.NewInMemoryWorker(q, updater)
		go w.Run(ctx)

		So(q.Enqueue(ctx, queue.Job{RaceID: "race1", Reason: "retry"}), ShouldBeTrue)

		select {
		case <-updater.notify:
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed in time")
		}

		Convey("Then the job is consumed without crashing the worker", func() {
			So(q.Enqueue(ctx, queue.Job{RaceID: "race2"}), ShouldBeTrue)
			select {
			case <-updater.notify:
			case <-time.After(2 * time.Second):
				t.Fatal("second job not processed")
			}
			So(updater.seen(), ShouldResemble, []string{"race1", "race2"})
		})
	})
}

func TestPoolLifecycle(t *testing.T) {
	Convey("Given a pool of workers", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		updater := &fakeUpdater{notify: make(chan struct{}, 10)}
		pool := worker.NewPool(2, q, updater)
		pool.Start(ctx)

		So(q.Enqueue(ctx, queue.Job{RaceID: "race1"}), ShouldBeTrue)
		select {
		case <-updater.notify:
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed in time")
		}

		Convey("Then shutdown closes the queue and drains the workers", func() {
			So(pool.Shutdown(context.Background()), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)
		})
	})
}
