// internal/scheduler/reconcile.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/highdeium-backend/internal/services"
)

// ErrAlreadyRunning is returned by RunOnce while another pass is in flight.
var ErrAlreadyRunning = errors.New("reconciliation already running")

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Reconciler is the maintenance work the scheduler drives.
type Reconciler interface {
	Reconcile(ctx context.Context) (*services.ReconcileResult, error)
	PruneViews(ctx context.Context, before time.Time) (int64, error)
}

// ReconcileScheduler periodically repairs denormalized counters and drops
// expired view de-duplication rows.
type ReconcileScheduler struct {
	reconciler Reconciler
	schedule   string
	viewWindow time.Duration
	now        func() time.Time

	cron        *cron.Cron
	mu          sync.Mutex
	isRunning   bool
	reconciling bool
}

func NewReconcileScheduler(reconciler Reconciler, schedule string, viewWindow time.Duration) *ReconcileScheduler {
	return &ReconcileScheduler{
		reconciler: reconciler,
		schedule:   schedule,
		viewWindow: viewWindow,
		now:        time.Now,
		cron:       cron.New(cron.WithParser(cronParser)),
	}
}

// ValidateSchedule reports whether expr is a five-field cron expression.
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	return nil
}

// Start registers the job. An empty schedule leaves the scheduler off.
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		logrus.Info("Reconcile scheduler: disabled")
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			logrus.WithError(err).Error("Scheduled reconciliation failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	logrus.WithField("schedule", s.schedule).Info("Reconcile scheduler: started")
	return nil
}

// Stop waits for a running job to finish.
func (s *ReconcileScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	logrus.Info("Reconcile scheduler: stopped")
}

func (s *ReconcileScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunOnce performs one reconciliation pass followed by view pruning.
func (s *ReconcileScheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	if s.reconciling {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.reconciling = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.reconciling = false
		s.mu.Unlock()
	}()

	start := s.now()
	result, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		return err
	}

	pruned, err := s.reconciler.PruneViews(ctx, start.Add(-s.viewWindow))
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"corrected":    result.Total(),
		"views_pruned": pruned,
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Info("Reconciliation finished")
	return nil
}
