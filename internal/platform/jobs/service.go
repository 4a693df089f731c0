package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const JobDraftPurge = "draft_purge"

// DraftPurger removes drafts that have not been touched since the cutoff.
type DraftPurger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

type Options struct {
	DraftTTL      time.Duration
	PurgeInterval time.Duration
	QueueSize     int
}

type Service struct {
	purger DraftPurger
	opts   Options
	queue  chan job
	now    func() time.Time
	wg     sync.WaitGroup
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(purger DraftPurger, opts Options) *Service {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 32
	}
	return &Service{
		purger: purger,
		opts:   opts,
		queue:  make(chan job, opts.QueueSize),
		now:    time.Now,
	}
}

// Start launches the worker and the purge schedule. Both stop when ctx is
// cancelled; Wait blocks until they have returned.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
	if s.purger != nil && s.opts.PurgeInterval > 0 && s.opts.DraftTTL > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.schedulePurge(ctx, s.opts.PurgeInterval)
		}()
	}
}

func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// PurgeDrafts runs one purge pass synchronously.
func (s *Service) PurgeDrafts(ctx context.Context) (any, error) {
	return s.RunNow(ctx, JobDraftPurge, s.purgeOnce)
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	start := s.now()
	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	slog.Info("job run", "jobType", j.Type, "status", status, "durationMs", s.now().Sub(start).Milliseconds(), "details", details)
	return details, err
}

func (s *Service) schedulePurge(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobDraftPurge, s.purgeOnce)
		}
	}
}

func (s *Service) purgeOnce(ctx context.Context) (any, error) {
	cutoff := s.now().Add(-s.opts.DraftTTL)
	deleted, err := s.purger.Purge(ctx, cutoff)
	return map[string]any{
		"cutoff":  cutoff.UTC().Format(time.RFC3339),
		"deleted": deleted,
	}, err
}
