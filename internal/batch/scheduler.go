package batch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultPollInterval is the fixed sleep between admission/progress
// polling passes.
const DefaultPollInterval = 2 * time.Second

// OrchestratorFactory builds the orchestrator for one job lazily, so
// Scheduler stays decoupled from the concrete Media I/O Adapter.
type OrchestratorFactory func(job *Job) error

// Scheduler admits at most concurrency movies at a time and aggregates
// their progress.
type Scheduler struct {
	jobs         []*Job
	concurrency  int
	pollInterval time.Duration

	mu        sync.Mutex
	cancelled bool
}

// NewScheduler builds a Scheduler over jobs, bounding concurrent movies
// to concurrency (typically half the available CPUs, computed by the
// caller via avio's CPU detection and passed in here).
func NewScheduler(jobs []*Job, concurrency int) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{jobs: jobs, concurrency: concurrency, pollInterval: DefaultPollInterval}
}

// AttachOrchestrators builds and attaches an orchestrator to every job via
// factory, in scan order. A job whose factory call fails is left without
// an orchestrator and is skipped by Run/AggregateProgress/Running — a
// movie-setup failure must not abort the batch.
func (s *Scheduler) AttachOrchestrators(factory OrchestratorFactory) {
	for _, job := range s.jobs {
		_ = factory(job)
	}
}

// SetPollInterval overrides the default 2s admission/progress poll period
// (primarily for tests).
func (s *Scheduler) SetPollInterval(d time.Duration) {
	s.pollInterval = d
}

// Run starts every job's orchestrator, admitting at most concurrency of
// them concurrently, and blocks until all jobs have completed or ctx is
// cancelled. onProgress, if non-nil, is invoked after each poll pass with
// the aggregate progress across all jobs.
func (s *Scheduler) Run(ctx context.Context, onProgress func(aggregate float64)) {
	sem := semaphore.NewWeighted(int64(s.concurrency))
	var wg sync.WaitGroup

	for _, job := range s.jobs {
		wg.Add(1)
		go func(job *Job) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)
			if job.Orchestrator == nil {
				return
			}
			_ = job.Orchestrator.Start()
		}(job)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if onProgress != nil {
			onProgress(s.AggregateProgress())
		}
		if s.allCompleted() {
			break
		}
		select {
		case <-done:
			if onProgress != nil {
				onProgress(s.AggregateProgress())
			}
			return
		case <-ticker.C:
		case <-ctx.Done():
			<-done
			return
		}
	}
	<-done
}

// Running reports the count of jobs that have started but not completed —
// the admission-bound invariant requires this never to exceed
// s.concurrency.
func (s *Scheduler) Running() int {
	n := 0
	for _, j := range s.jobs {
		if j.Orchestrator == nil {
			continue
		}
		if j.Orchestrator.Status.HasStarted() && !j.Orchestrator.Status.HasCompleted() {
			n++
		}
	}
	return n
}

func (s *Scheduler) allCompleted() bool {
	for _, j := range s.jobs {
		if j.Orchestrator == nil {
			continue
		}
		if !j.Orchestrator.Status.HasCompleted() {
			return false
		}
	}
	return true
}

// AggregateProgress is the mean of every job's orchestrator progress.
func (s *Scheduler) AggregateProgress() float64 {
	if len(s.jobs) == 0 {
		return 1.0
	}
	var sum float64
	for _, j := range s.jobs {
		if j.Orchestrator == nil {
			continue
		}
		sum += j.Orchestrator.Progress()
	}
	return sum / float64(len(s.jobs))
}

// CancelAll propagates cancellation to every job's orchestrator, for
// invocation from a SIGINT handler.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
	for _, j := range s.jobs {
		if j.Orchestrator != nil {
			j.Orchestrator.Cancel()
		}
	}
}
