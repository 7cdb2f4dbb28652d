package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"weekly_scheduler_bot/internal/app"
)

// Runner performs one scheduling invocation.
type Runner interface {
	RunOnce(ctx context.Context) (*app.Outcome, error)
}

// CycleScheduler fires the runner on a cron spec. Invocations never overlap:
// a tick that arrives while the previous one is still running is skipped.
type CycleScheduler struct {
	cronEngine *cron.Cron
	runner     Runner
	logger     *logrus.Entry
	spec       string
	timeout    time.Duration

	mu sync.Mutex
}

func NewCycleScheduler(
	runner Runner,
	logger *logrus.Entry,
	spec string, // e.g. "*/10 * * * *"
	location *time.Location,
	timeout time.Duration,
) *CycleScheduler {
	if location == nil {
		location = time.Local
	}
	return &CycleScheduler{
		cronEngine: cron.New(
			cron.WithLocation(location),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		runner:  runner,
		logger:  logger,
		spec:    spec,
		timeout: timeout,
	}
}

func (s *CycleScheduler) Start() error {
	s.logger.WithField("spec", s.spec).Info("Starting cycle scheduler")

	if _, err := s.cronEngine.AddFunc(s.spec, s.Tick); err != nil {
		return fmt.Errorf("could not add cycle cron job %q: %w", s.spec, err)
	}
	s.cronEngine.Start()
	return nil
}

// Tick runs one invocation under the configured timeout. Errors are logged;
// the next tick retries.
func (s *CycleScheduler) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	out, err := s.runner.RunOnce(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Scheduling run failed, will retry on next tick")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"run_id":     out.RunID,
		"transition": out.Transition,
	}).Debug("Scheduling run completed")
}

func (s *CycleScheduler) Stop() {
	s.logger.Info("Stopping cycle scheduler...")
	ctx := s.cronEngine.Stop() // waits for running jobs
	<-ctx.Done()
	s.logger.Info("Cycle scheduler gracefully stopped.")
}
