package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/siherrmann/lorekeeper/helper"
	"github.com/siherrmann/lorekeeper/model"
)

// Result is delivered on the result channel of a finished indexing job
type Result struct {
	ChapterRID uuid.UUID
	Index      *model.IndexResult
	Err        error
}

type job struct {
	ctx        context.Context
	chapterRID uuid.UUID
	result     chan Result
}

// Dispatcher runs indexing jobs on a bounded worker pool. Jobs for the
// same chapter are serialized through a per-chapter lease, so concurrent
// re-index requests cannot interleave their clear and rebuild phases.
// Jobs for different chapters run in parallel.
type Dispatcher struct {
	indexer *Indexer
	jobs    chan job
	leases  sync.Map
	wg      sync.WaitGroup
	once    sync.Once
	logger  *slog.Logger
}

// NewDispatcher starts a dispatcher with the given number of workers and
// queue size
func NewDispatcher(indexer *Indexer, workers int, queueSize int, logger *slog.Logger) (*Dispatcher, error) {
	if indexer == nil {
		return nil, helper.NewError("indexer validation", fmt.Errorf("indexer is nil"))
	}
	if workers < 1 {
		return nil, helper.NewError("workers validation", fmt.Errorf("workers must be at least 1"))
	}

	dispatcher := &Dispatcher{
		indexer: indexer,
		jobs:    make(chan job, queueSize),
		logger:  logger,
	}

	dispatcher.wg.Add(workers)
	for w := 0; w < workers; w++ {
		go dispatcher.worker()
	}

	logger.Info("Started index dispatcher", "workers", workers, "queueSize", queueSize)

	return dispatcher, nil
}

// Enqueue queues a re-index job for a chapter and returns a channel
// delivering exactly one Result. Enqueue blocks while the queue is full
// until ctx is done.
func (d *Dispatcher) Enqueue(ctx context.Context, chapterRID uuid.UUID) (<-chan Result, error) {
	result := make(chan Result, 1)
	select {
	case d.jobs <- job{ctx: ctx, chapterRID: chapterRID, result: result}:
		return result, nil
	case <-ctx.Done():
		return nil, helper.NewError("enqueue reindex job", ctx.Err())
	}
}

// Reindex queues a re-index job and waits for its result
func (d *Dispatcher) Reindex(ctx context.Context, chapterRID uuid.UUID) (*model.IndexResult, error) {
	result, err := d.Enqueue(ctx, chapterRID)
	if err != nil {
		return nil, err
	}

	select {
	case r := <-result:
		return r.Index, r.Err
	case <-ctx.Done():
		return nil, helper.NewError("await reindex job", ctx.Err())
	}
}

// Close stops accepting jobs and waits for queued jobs to finish
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for j := range d.jobs {
		if j.ctx.Err() != nil {
			j.result <- Result{ChapterRID: j.chapterRID, Err: helper.NewError("run reindex job", j.ctx.Err())}
			continue
		}

		lease := d.lease(j.chapterRID)
		lease.Lock()
		index, err := d.indexer.Reindex(j.ctx, j.chapterRID)
		lease.Unlock()

		if err != nil {
			d.logger.Error("Reindex job failed", "chapter", j.chapterRID, "error", err)
		}

		j.result <- Result{ChapterRID: j.chapterRID, Index: index, Err: err}
	}
}

// lease returns the mutex serializing jobs of one chapter
func (d *Dispatcher) lease(chapterRID uuid.UUID) *sync.Mutex {
	lease, _ := d.leases.LoadOrStore(chapterRID, &sync.Mutex{})
	return lease.(*sync.Mutex)
}
