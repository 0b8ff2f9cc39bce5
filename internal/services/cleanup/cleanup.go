// Package cleanup runs periodic maintenance: reclaiming clip requests whose
// worker died, purging old failures and removing stale scratch clips.
package cleanup

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/killallgit/subclip/internal/logging"
)

// ClipMaintainer is the part of the clip manager maintenance drives
type ClipMaintainer interface {
	ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeFailed(ctx context.Context, olderThan time.Duration) (int64, error)
}

// TempCleaner removes scratch files older than a cutoff
type TempCleaner interface {
	CleanTemp(cutoff time.Time) (int, error)
}

// Options configures maintenance. A zero PurgeFailedAfter keeps failed
// requests forever; a zero TempMaxAge keeps scratch files.
type Options struct {
	Interval         time.Duration
	StaleAfter       time.Duration
	PurgeFailedAfter time.Duration
	TempMaxAge       time.Duration
}

// Report is the outcome of one maintenance pass
type Report struct {
	Reclaimed   int64
	Purged      int64
	TempRemoved int
}

// Service handles periodic maintenance
type Service struct {
	clips  ClipMaintainer
	temp   TempCleaner
	opts   Options
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *logrus.Entry
}

// NewService creates a new cleanup service
func NewService(clips ClipMaintainer, temp TempCleaner, opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	return &Service{
		clips: clips,
		temp:  temp,
		opts:  opts,
		log:   logging.Component("cleanup"),
	}
}

// Start runs a pass immediately and then every interval until Stop
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.RunOnce(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-ctx.Done():
				s.log.Info("cleanup service stopped")
				return
			}
		}
	}()

	s.log.WithFields(logrus.Fields{
		"interval":    s.opts.Interval,
		"stale_after": s.opts.StaleAfter,
	}).Info("cleanup service started")
}

// Stop stops the cleanup service
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunOnce performs one maintenance pass. Failures are logged and the
// remaining steps still run.
func (s *Service) RunOnce(ctx context.Context) Report {
	var report Report
	now := time.Now()

	if s.clips != nil && s.opts.StaleAfter > 0 {
		n, err := s.clips.ReclaimStale(ctx, now.Add(-s.opts.StaleAfter))
		if err != nil {
			s.log.WithError(err).Error("reclaiming stale clip requests")
		}
		report.Reclaimed = n
	}

	if s.clips != nil && s.opts.PurgeFailedAfter > 0 {
		n, err := s.clips.PurgeFailed(ctx, s.opts.PurgeFailedAfter)
		if err != nil {
			s.log.WithError(err).Error("purging failed clip requests")
		}
		report.Purged = n
	}

	if s.temp != nil && s.opts.TempMaxAge > 0 {
		n, err := s.temp.CleanTemp(now.Add(-s.opts.TempMaxAge))
		if err != nil {
			s.log.WithError(err).Warn("cleaning scratch clips")
		}
		report.TempRemoved = n
	}

	if report != (Report{}) {
		s.log.WithFields(logrus.Fields{
			"reclaimed":    report.Reclaimed,
			"purged":       report.Purged,
			"temp_removed": report.TempRemoved,
		}).Info("maintenance pass finished")
	}
	return report
}
