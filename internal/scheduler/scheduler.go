package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/arvindpatil/dairyos/internal/config"
	"github.com/arvindpatil/dairyos/internal/service/billing"
)

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	reconciler *billing.Reconciler
	cfg        config.ReconcileConfig
	logger     *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.ReconcileConfig, reconciler *billing.Reconciler, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:       cron.New(),
		reconciler: reconciler,
		cfg:        cfg,
		logger:     logger,
	}
}

// Start registers the reconciliation sweep and starts the cron loop. The
// payment provider notifies the upstream server directly, so a bill can
// reach PAID without this client observing it; the sweep closes that gap.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	_, err := s.cron.AddFunc(s.cfg.CronSchedule, s.reconcileOutstanding)
	if err != nil {
		s.logger.Error("failed to schedule reconciliation sweep", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) reconcileOutstanding() {
	pending := s.reconciler.OutstandingOrders()
	if pending == 0 {
		return
	}

	s.logger.Info("reconciling outstanding payment orders", zap.Int("pending", pending))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	settled := s.reconciler.ReconcileOutstanding(ctx)
	s.logger.Info("reconciliation sweep complete",
		zap.Int("settled", settled),
		zap.Int("still_pending", pending-settled))
}
