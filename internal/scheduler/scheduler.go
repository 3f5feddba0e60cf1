package scheduler

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// JobType represents the background jobs the scheduler runs
type JobType int

const (
	JobTypeReconcile JobType = iota
	JobTypeMaintenanceDigest
	JobTypeGeocode
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeReconcile:
		return "reconcile"
	case JobTypeMaintenanceDigest:
		return "maintenance_digest"
	case JobTypeGeocode:
		return "geocode"
	default:
		return "unknown"
	}
}

// Runner performs the work behind each job. Each method returns the number
// of items it processed.
type Runner interface {
	ReconcileAll(ctx context.Context) (int, error)
	SendMaintenanceDigest(ctx context.Context, days int) (int, error)
	GeocodeMissing(ctx context.Context) (int, error)
}

type Config struct {
	// Hour of day (0-23) for the derived-state reconciliation
	ReconcileHour int
	// Hour of day (0-23) for the due-maintenance digest
	DigestHour int
	// Look-ahead window of the digest in days
	DigestDays int
	// Geocode properties without coordinates at half past every hour
	Geocode bool
}

// Scheduler runs maintenance jobs on a minute ticker. Jobs never overlap.
type Scheduler struct {
	runner       Runner
	config       Config
	logger       *logrus.Logger
	stopChan     chan struct{}
	wg           sync.WaitGroup
	jobMutex     sync.Mutex
	isStartupRun atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
}

func NewScheduler(runner Runner, config Config, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}
	if config.DigestDays <= 0 {
		config.DigestDays = 7
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner:   runner,
		config:   config,
		logger:   logger,
		stopChan: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.isStartupRun.Store(true)
	return s
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.jobMutex.Lock()
		defer s.jobMutex.Unlock()
		s.logger.Info("Running startup jobs")
		s.runJob(JobTypeReconcile)
		if s.config.Geocode {
			s.runJob(JobTypeGeocode)
		}
		s.isStartupRun.Store(false)
		s.logger.Info("Startup jobs completed")
	}()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case t := <-ticker.C:
			s.executeScheduledJobs(t)
		}
	}
}

// executeScheduledJobs runs all jobs that are scheduled for the given time
func (s *Scheduler) executeScheduledJobs(t time.Time) {
	if s.isStartupRun.Load() {
		s.logger.Debug("Skipping scheduled jobs while startup is in progress")
		return
	}

	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	for _, job := range s.dueJobs(t) {
		s.runJob(job)
	}
}

// dueJobs lists the jobs scheduled for minute t, in run order.
func (s *Scheduler) dueJobs(t time.Time) []JobType {
	var jobs []JobType
	if t.Minute() == 0 && t.Hour() == s.config.ReconcileHour {
		jobs = append(jobs, JobTypeReconcile)
	}
	if t.Minute() == 0 && t.Hour() == s.config.DigestHour {
		jobs = append(jobs, JobTypeMaintenanceDigest)
	}
	if s.config.Geocode && t.Minute() == 30 {
		jobs = append(jobs, JobTypeGeocode)
	}
	return jobs
}

func (s *Scheduler) runJob(job JobType) {
	start := time.Now()
	fields := logrus.Fields{"job_type": job.String()}
	s.logger.WithFields(fields).Info("Starting job")

	var (
		n   int
		err error
	)
	switch job {
	case JobTypeReconcile:
		n, err = s.runner.ReconcileAll(s.ctx)
	case JobTypeMaintenanceDigest:
		n, err = s.runner.SendMaintenanceDigest(s.ctx, s.config.DigestDays)
	case JobTypeGeocode:
		n, err = s.runner.GeocodeMissing(s.ctx)
	}

	fields["processed"] = n
	fields["duration_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		s.logger.WithError(err).WithFields(fields).Error("Job failed")
		return
	}
	s.logger.WithFields(fields).Info("Job completed successfully")
}

// Stop cancels any running job and waits for the scheduler to exit
func (s *Scheduler) Stop() {
	s.cancel()
	close(s.stopChan)
	s.wg.Wait()
}
