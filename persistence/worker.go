package persistence

import (
	"context"
	"sync"

	"github.com/foundermatch/annidx/blobstore"
	"golang.org/x/time/rate"
)

// WorkerOptions configures a background save worker.
type WorkerOptions struct {
	// MaxAttempts bounds how often a save is tried before giving up.
	MaxAttempts int

	// Limit paces save attempts across all pending jobs, so a flapping
	// backend is not hammered.
	Limit rate.Limit

	// Burst for the rate limiter.
	Burst int

	// Save options applied to every job.
	SaveOptions []func(o *Options)
}

// DefaultWorkerOptions used when no functional options are passed.
var DefaultWorkerOptions = WorkerOptions{
	MaxAttempts: 3,
	Limit:       rate.Limit(1),
	Burst:       2,
}

// Result reports the outcome of an asynchronous save.
type Result struct {
	Location string
	Attempts int
	Err      error
}

// Worker saves snapshots in the background with bounded, rate-limited
// retries. Callers read outcomes from Results.
type Worker struct {
	store   blobstore.Store
	opts    WorkerOptions
	limiter *rate.Limiter
	results chan Result
	wg      sync.WaitGroup
}

// NewWorker creates a background save worker for the given store.
func NewWorker(store blobstore.Store, optFns ...func(o *WorkerOptions)) *Worker {
	opts := DefaultWorkerOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Worker{
		store:   store,
		opts:    opts,
		limiter: rate.NewLimiter(opts.Limit, opts.Burst),
		results: make(chan Result, 16),
	}
}

// Results delivers one Result per SaveAsync call. The channel is closed by
// Close after all pending jobs finish.
func (w *Worker) Results() <-chan Result {
	return w.results
}

// SaveAsync schedules a snapshot save and returns immediately. The snapshot
// must not be mutated until the corresponding Result is delivered.
func (w *Worker) SaveAsync(ctx context.Context, location string, snap *Snapshot) {
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()

		var (
			attempts int
			err      error
		)

		for attempts < w.opts.MaxAttempts {
			if err = w.limiter.Wait(ctx); err != nil {
				break
			}

			attempts++

			if err = Save(ctx, w.store, location, snap, w.opts.SaveOptions...); err == nil {
				break
			}
			if ctx.Err() != nil {
				break
			}
		}

		w.results <- Result{Location: location, Attempts: attempts, Err: err}
	}()
}

// Close waits for all pending jobs and closes the results channel. Callers
// must drain Results concurrently or the pending jobs cannot finish.
func (w *Worker) Close() {
	w.wg.Wait()
	close(w.results)
}
