// Package fetchq provides a sharded fetch pool: FIFO order per key,
// parallelism bounded by the shard count. The detail enricher runs its
// per-item catalog fetches on it so a page of lookups never exceeds the
// configured concurrency against the provider.
//
// Contract: callers must not invoke Submit concurrently for the same
// key. FIFO ordering relies on that external serialisation.
package fetchq

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/gameinfo/gamesync/internal/apperr"
)

// Job is a unit of work executed by a Pool.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to a Job.
type JobFunc func(ctx context.Context) error

// Run implements Job for JobFunc.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Config tunes a Pool. Zero values get sane defaults.
type Config struct {
	Shards         int           // bounded parallelism; default 4
	QueueSize      int           // per-shard buffer; default 128
	EnqueueTimeout time.Duration // Submit gives up after this; default 100ms
	MaxAttempts    int           // per-job attempts incl. first; default 4
	BaseBackoff    time.Duration // initial retry delay; default 100ms
	MaxInterval    time.Duration // retry delay cap; default 5s
}

func (c Config) withDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 128
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 4
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	return c
}

type queuedJob struct {
	ctx  context.Context
	job  Job
	done func(error) // invoked exactly once with the final outcome; may be nil
}

// Pool executes Jobs on worker goroutines partitioned by a stable hash
// of the key. FIFO ordering is preserved within a shard; jobs with
// different keys may run in parallel.
type Pool struct {
	cfg    Config
	log    zerolog.Logger
	queues []chan queuedJob

	quit   chan struct{}
	closed uint32

	wg sync.WaitGroup
}

// New constructs the pool and starts its shard workers.
func New(cfg Config, log zerolog.Logger) *Pool {
	cfg = cfg.withDefaults()
	p := &Pool{
		cfg:    cfg,
		log:    log,
		queues: make([]chan queuedJob, cfg.Shards),
		quit:   make(chan struct{}),
	}
	for i := 0; i < cfg.Shards; i++ {
		ch := make(chan queuedJob, cfg.QueueSize)
		p.queues[i] = ch
		p.wg.Add(1)
		go p.runWorker(i, ch)
	}
	return p
}

// ErrPoolClosed is returned by Submit after Stop.
var ErrPoolClosed = apperr.Errorf(apperr.KindInvalid, "fetchq.Submit", "pool closed")

// Submit enqueues job on the shard derived from key. done, when
// non-nil, receives the job's final outcome after retries: nil on
// success, the last error otherwise.
//
//   - Returns ErrPoolClosed if the pool is stopped.
//   - Returns a Network-kind error if the shard is still full after
//     EnqueueTimeout.
//   - Returns ctx.Err() if the caller's context is cancelled first.
func (p *Pool) Submit(ctx context.Context, key string, job Job, done func(error)) error {
	if atomic.LoadUint32(&p.closed) == 1 {
		return ErrPoolClosed
	}
	// Complementary check: quit may already be closed even if the flag
	// change was missed.
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}

	shard := p.shardFor(key)
	ch := p.queues[shard]

	timer := time.NewTimer(p.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- queuedJob{ctx: ctx, job: job, done: done}:
		submissionsTotal.WithLabelValues(shardLabel(shard)).Inc()
		return nil
	case <-p.quit:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(shardLabel(shard)).Inc()
		return apperr.Errorf(apperr.KindNetwork, "fetchq.Submit", "shard %d full (%d/%d)", shard, len(ch), cap(ch))
	}
}

// Stop drains every shard, waits for workers to exit, and returns. It
// is idempotent and safe for concurrent use.
func (p *Pool) Stop() {
	if !atomic.CompareAndSwapUint32(&p.closed, 0, 1) {
		return
	}
	close(p.quit)
	p.wg.Wait()
	p.log.Debug().Int("shards", p.cfg.Shards).Msg("fetch pool stopped")
}

// Close lets Pool satisfy io.Closer.
func (p *Pool) Close() error {
	p.Stop()
	return nil
}

// ------------------------- internals -------------------------

func (p *Pool) runWorker(idx int, ch <-chan queuedJob) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("shard", idx).Any("panic", r).Msg("fetchq worker panic")
		}
	}()

	label := shardLabel(idx)
	for {
		select {
		case qj := <-ch:
			p.execute(label, qj)
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-p.quit:
			// Drain remaining jobs, preserving FIFO, then exit.
			for {
				select {
				case qj := <-ch:
					p.execute(label, qj)
				default:
					queueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

// execute runs one job with bounded retries and reports the final
// outcome through its done hook.
func (p *Pool) execute(label string, qj queuedJob) {
	if qj.job == nil {
		return
	}
	// Honour caller context so a cancelled job doesn't stall the shard.
	if err := qj.ctx.Err(); err != nil {
		p.finish(qj, err)
		return
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.BaseBackoff
	exp.MaxInterval = p.cfg.MaxInterval
	exp.Reset()

	var err error
	for attempt := 1; ; attempt++ {
		start := time.Now()
		err = qj.job.Run(qj.ctx)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

		if err == nil || !apperr.Retryable(err) || attempt >= p.cfg.MaxAttempts {
			break
		}
		select {
		case <-time.After(exp.NextBackOff()):
		case <-qj.ctx.Done():
			err = qj.ctx.Err()
			p.finish(qj, err)
			return
		case <-p.quit:
			// Shutting down; report what we have.
			p.finish(qj, err)
			return
		}
	}
	p.finish(qj, err)
}

func (p *Pool) finish(qj queuedJob, err error) {
	if err != nil {
		failuresTotal.Inc()
	}
	if qj.done == nil {
		return
	}
	// Guard against panics in the caller-supplied hook.
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Any("panic", r).Msg("fetchq done hook panic")
		}
	}()
	qj.done(err)
}

func (p *Pool) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % p.cfg.Shards
}
