// Package scheduler runs background maintenance jobs at fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/mergestat/timediff"
)

// JobStatus represents the status of a job.
type JobStatus string

const (
	JobStatusScheduled JobStatus = "scheduled"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobFunc is the work a job performs. The context is cancelled on Stop.
type JobFunc func(ctx context.Context) error

// JobInfo is a snapshot of a job's bookkeeping.
type JobInfo struct {
	ID         string
	Name       string
	Interval   time.Duration
	Status     JobStatus
	LastRun    time.Time
	RunCount   int
	ErrorCount int
	LastError  string
}

type job struct {
	mu     sync.Mutex
	info   JobInfo
	gocron gocron.Job
}

// Scheduler wraps a gocron scheduler and tracks the outcome of each run.
type Scheduler struct {
	gocron gocron.Scheduler
	jobs   map[string]*job
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a stopped scheduler.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		gocron: s,
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// AddJob registers fn to run every interval. Runs of the same job never
// overlap. If runOnStart is set the first run starts right away.
func (s *Scheduler) AddJob(id, name string, interval time.Duration, fn JobFunc, runOnStart bool) error {
	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %s already exists", id)
	}
	if interval <= 0 {
		return fmt.Errorf("job %s needs a positive interval", id)
	}

	j := &job{info: JobInfo{ID: id, Name: name, Interval: interval, Status: JobStatusScheduled}}

	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if runOnStart {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	gj, err := s.gocron.NewJob(gocron.DurationJob(interval), gocron.NewTask(s.wrap(j, fn)), opts...)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	j.gocron = gj
	s.jobs[id] = j

	log.Debug("Added job to scheduler", "id", id, "name", name, "interval", interval)
	return nil
}

// Start starts running the registered jobs.
func (s *Scheduler) Start() {
	s.gocron.Start()
	for id, j := range s.jobs {
		if next, err := j.gocron.NextRun(); err == nil {
			log.Info("Scheduled job", "id", id, "next_run", timediff.TimeDiff(next))
		}
	}
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.cancel()
	return s.gocron.Shutdown()
}

// RunNow triggers a job outside its schedule.
func (s *Scheduler) RunNow(id string) error {
	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	return j.gocron.RunNow()
}

// Job returns a snapshot of a job's state.
func (s *Scheduler) Job(id string) (JobInfo, bool) {
	j, ok := s.jobs[id]
	if !ok {
		return JobInfo{}, false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.info, true
}

func (s *Scheduler) wrap(j *job, fn JobFunc) func() {
	return func() {
		j.mu.Lock()
		j.info.Status = JobStatusRunning
		j.info.LastRun = time.Now()
		j.info.RunCount++
		j.mu.Unlock()

		log.Debug("Starting job", "id", j.info.ID)
		err := fn(s.ctx)

		j.mu.Lock()
		defer j.mu.Unlock()
		if err != nil {
			log.Error("Job failed", "id", j.info.ID, "error", err)
			j.info.Status = JobStatusFailed
			j.info.ErrorCount++
			j.info.LastError = err.Error()
			return
		}
		j.info.Status = JobStatusCompleted
		j.info.LastError = ""
	}
}
