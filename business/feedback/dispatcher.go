package feedback

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"outfitJourney/pkg/logger"
)

const defaultEffectTimeout = 5 * time.Second

// Effect is one best-effort background task, such as a log append or a
// bandit update.
type Effect struct {
	Name string
	Run  func(ctx context.Context) error
}

// Job groups the effects scheduled after one response. Key is the identity
// key; jobs with the same key run in dispatch order.
type Job struct {
	Key     string
	Effects []Effect
}

// Dispatcher runs jobs on a fixed set of workers, each owning its own queue.
// A job is routed by hashing its key, which serializes one identity's jobs
// while different identities proceed in parallel. Dispatch never blocks: a
// full queue drops the job.
type Dispatcher struct {
	queues        []chan Job
	effectTimeout time.Duration

	mu      sync.RWMutex
	stopped bool
	started bool
	wg      sync.WaitGroup
}

type Option func(*Dispatcher)

// WithEffectTimeout bounds each effect on its own deadline.
func WithEffectTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) {
		dp.effectTimeout = d
	}
}

func NewDispatcher(workers, queueSize int, opts ...Option) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	d := &Dispatcher{
		queues:        make([]chan Job, workers),
		effectTimeout: defaultEffectTimeout,
	}
	for i := range d.queues {
		d.queues[i] = make(chan Job, queueSize)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.stopped {
		return
	}
	d.started = true

	for i, q := range d.queues {
		d.wg.Add(1)
		go d.worker(i, q)
	}
}

// Stop refuses new jobs, lets the workers drain what is queued and waits
// for them to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, q := range d.queues {
		close(q)
	}
	started := d.started
	d.mu.Unlock()

	if !started {
		// never started: run the backlog inline so nothing queued is lost
		for i, q := range d.queues {
			for job := range q {
				d.execute(i, job)
			}
		}
		return
	}
	d.wg.Wait()
}

// Dispatch enqueues the job and reports whether it was accepted.
func (d *Dispatcher) Dispatch(job Job) bool {
	if len(job.Effects) == 0 {
		return true
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		FeedbackJobs.WithLabelValues("rejected").Inc()
		logger.Warn("feedback job after shutdown dropped", "key", job.Key)
		return false
	}

	shard := d.shard(job.Key)
	select {
	case d.queues[shard] <- job:
		FeedbackJobs.WithLabelValues("enqueued").Inc()
		return true
	default:
		FeedbackJobs.WithLabelValues("dropped").Inc()
		logger.Warn("feedback queue full, job dropped",
			"key", job.Key,
			"worker", shard,
			"effects", len(job.Effects),
		)
		return false
	}
}

func (d *Dispatcher) shard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.queues)))
}

func (d *Dispatcher) worker(id int, q chan Job) {
	defer d.wg.Done()

	for job := range q {
		d.execute(id, job)
	}
}

// execute runs every effect of the job; one failing or panicking effect
// never stops the others.
func (d *Dispatcher) execute(workerID int, job Job) {
	for _, eff := range job.Effects {
		if err := runEffect(d.effectTimeout, eff); err != nil {
			FeedbackEffects.WithLabelValues(eff.Name, "error").Inc()
			logger.Error("feedback effect failed",
				"worker", workerID,
				"key", job.Key,
				"effect", eff.Name,
				err,
			)
			continue
		}
		FeedbackEffects.WithLabelValues(eff.Name, "ok").Inc()
	}
}

func runEffect(timeout time.Duration, eff Effect) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", eff.Name, r)
		}
	}()

	if eff.Run == nil {
		return nil
	}
	return eff.Run(ctx)
}
