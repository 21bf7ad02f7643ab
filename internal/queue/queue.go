// Package queue implements the in-process job queue that drives background
// enrichment. Jobs live in memory only: a crashed process loses whatever was
// still pending. Processing is best-effort with a bounded retry budget.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/resilience"
)

// Handler processes one dequeued job. A returned error triggers the retry
// policy; nil discards the job.
type Handler func(ctx context.Context, job *model.Job) error

// Options configures a queue Service.
type Options struct {
	// Workers is the number of concurrent workers pulling from the
	// dispatch channel. Defaults to 1, which preserves strict FIFO
	// processing.
	Workers int

	// DefaultAttempts is the attempt budget applied when Enqueue is
	// called without one. Defaults to 3.
	DefaultAttempts int

	// DefaultBackoff is applied when Enqueue is called without one.
	DefaultBackoff model.Backoff
}

// EnqueueOptions overrides the service defaults for a single job.
type EnqueueOptions struct {
	Attempts int
	Backoff  *model.Backoff
}

// Service is an explicitly constructed, in-process job queue. Enqueue never
// blocks the caller; a dispatcher goroutine feeds pending jobs FIFO to a
// bounded worker pool. Failed jobs are re-enqueued at the tail after a real
// timer-based backoff delay.
type Service struct {
	opts Options

	mu       sync.Mutex
	pending  []*model.Job
	handlers map[model.JobKind]Handler
	timers   map[*time.Timer]struct{}
	started  bool

	notify chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a queue Service. Call Register for each job kind, then Start.
func New(opts Options) *Service {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.DefaultAttempts <= 0 {
		opts.DefaultAttempts = 3
	}
	if opts.DefaultBackoff.Delay <= 0 {
		opts.DefaultBackoff = model.Backoff{Type: model.BackoffFixed, Delay: 5 * time.Second}
	}
	return &Service{
		opts:     opts,
		handlers: make(map[model.JobKind]Handler),
		timers:   make(map[*time.Timer]struct{}),
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Register binds a handler to a job kind. Must be called before Start.
func (s *Service) Register(kind model.JobKind, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = h
}

// Enqueue appends a job to the pending list and returns its ID immediately.
// Processing happens asynchronously on the worker pool.
func (s *Service) Enqueue(kind model.JobKind, payload any, opts EnqueueOptions) (string, error) {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = s.opts.DefaultAttempts
	}
	backoff := s.opts.DefaultBackoff
	if opts.Backoff != nil {
		backoff = *opts.Backoff
	}

	job := &model.Job{
		ID:                uuid.New().String(),
		Kind:              kind,
		Payload:           payload,
		Attempts:          attempts,
		AttemptsRemaining: attempts,
		Backoff:           backoff,
		EnqueuedAt:        time.Now(),
	}

	s.push(job)
	return job.ID, nil
}

// push appends a job and wakes the dispatcher.
func (s *Service) push(job *model.Job) {
	s.mu.Lock()
	s.pending = append(s.pending, job)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// pop removes and returns the oldest pending job, or nil.
func (s *Service) pop() *model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	job := s.pending[0]
	s.pending = s.pending[1:]
	return job
}

// Pending returns the number of jobs waiting to be dispatched.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Start launches the dispatcher and worker pool. It returns immediately;
// call Stop to shut down.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return eris.New("queue: already started")
	}
	s.started = true
	s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)

	work := make(chan *model.Job)

	g, gCtx := errgroup.WithContext(ctx)

	// Dispatcher: drains the pending list FIFO into the work channel.
	g.Go(func() error {
		defer close(work)
		for {
			job := s.pop()
			if job == nil {
				select {
				case <-gCtx.Done():
					return nil
				case <-s.notify:
					continue
				}
			}
			select {
			case <-gCtx.Done():
				// Re-queue so Pending reflects unprocessed work.
				s.push(job)
				return nil
			case work <- job:
			}
		}
	})

	for i := 0; i < s.opts.Workers; i++ {
		g.Go(func() error {
			for job := range work {
				s.process(gCtx, job)
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(s.done)
	}()

	zap.L().Info("queue: started",
		zap.Int("workers", s.opts.Workers),
		zap.Int("default_attempts", s.opts.DefaultAttempts),
	)
	return nil
}

// Stop cancels dispatching, stops pending retry timers, and waits for
// in-flight handlers to return. Jobs still pending are abandoned.
func (s *Service) Stop() {
	s.mu.Lock()
	for t := range s.timers {
		t.Stop()
	}
	s.timers = make(map[*time.Timer]struct{})
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	// Nothing is running on a never-started service.
	if !started {
		return
	}
	if cancel != nil {
		cancel()
	}
	<-s.done
}

// process invokes the registered handler and applies the retry policy on
// failure. Handler failures are isolated per job.
func (s *Service) process(ctx context.Context, job *model.Job) {
	log := zap.L().With(
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Kind)),
	)

	s.mu.Lock()
	handler, ok := s.handlers[job.Kind]
	s.mu.Unlock()
	if !ok {
		log.Error("queue: no handler registered, dropping job")
		return
	}

	err := invoke(ctx, handler, job)
	if err == nil {
		log.Debug("queue: job complete")
		return
	}

	if job.AttemptsRemaining <= 1 {
		// Budget exhausted: the error surfaces only in logs. Operators
		// cannot reconstruct the failure from persisted state unless the
		// handler wrote a failure status before returning.
		log.Error("queue: job failed, attempts exhausted", zap.Error(err))
		return
	}

	retryIndex := job.Attempts - job.AttemptsRemaining
	job.AttemptsRemaining--
	delay := resilience.Backoff(job.Backoff.Type == model.BackoffExponential, job.Backoff.Delay, retryIndex)

	log.Warn("queue: job failed, scheduling retry",
		zap.Int("attempts_remaining", job.AttemptsRemaining),
		zap.Duration("delay", delay),
		zap.Error(err),
	)

	s.scheduleRetry(job, delay)
}

// scheduleRetry re-appends the job at the tail after delay. Retries are not
// prioritized over newly arriving work.
func (s *Service) scheduleRetry(job *model.Job, delay time.Duration) {
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, timer)
		s.mu.Unlock()

		job.EnqueuedAt = time.Now()
		s.push(job)
	})

	s.mu.Lock()
	s.timers[timer] = struct{}{}
	s.mu.Unlock()
}

// invoke runs a handler, converting panics into errors so a misbehaving
// handler cannot take down the worker pool.
func invoke(ctx context.Context, h Handler, job *model.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.New(fmt.Sprintf("queue: handler panic: %v", r))
		}
	}()
	return h(ctx, job)
}
