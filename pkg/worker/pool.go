// Package worker persists completed chat turns in the background using the
// provided storage.Driver, then announces them on the provided
// eventstream.Publisher.
//
// The pool keeps storage and publishing off the chat loop so a slow disk or
// broker never delays the next prompt.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/costwise/costwise/pkg/eventstream"
	"github.com/costwise/costwise/pkg/logger"
	"github.com/costwise/costwise/pkg/storage"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 64
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Turn *storage.Turn
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting turns.
	Driver storage.Driver

	// Publisher is the optional event stream announcing stored turns.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	Logger *slog.Logger
}

// Pool processes turn jobs asynchronously.
type Pool struct {
	config    *Config
	queue     chan Job
	wg        sync.WaitGroup
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("worker pool requires a storage driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger.OrNop(c.Logger),
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full and the job was dropped.
func (p *Pool) Enqueue(job Job) bool {
	if job.Turn == nil {
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("turn queued",
			"turn_id", job.Turn.ID,
			"conv_id", job.Turn.ConversationID,
		)
		return true
	default:
		p.logger.Error("turn not queued, queue full, turn dropped",
			"turn_id", job.Turn.ID,
			"conv_id", job.Turn.ConversationID,
		)
		return false
	}
}

// Close signals workers to stop and waits for queued turns to drain.
// Enqueue must not be called after Close.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
		p.wg.Wait()
	})
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob stores the turn, then publishes it. A turn that fails to store
// is not published.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()
	turn := job.Turn

	if err := p.config.Driver.SaveTurn(ctx, turn); err != nil {
		p.logger.Error("storing turn failed",
			"turn_id", turn.ID,
			"conv_id", turn.ConversationID,
			"error", err,
		)
		return
	}

	p.logger.Debug("turn stored",
		"turn_id", turn.ID,
		"conv_id", turn.ConversationID,
		"messages", len(turn.Messages),
	)

	if p.config.Publisher == nil {
		return
	}

	if err := p.config.Publisher.PublishTurn(ctx, eventstream.NewTurnCompletedEvent(turn)); err != nil {
		p.logger.Warn("publishing turn event failed",
			"turn_id", turn.ID,
			"error", err,
		)
	}
}
