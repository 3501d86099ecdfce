package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/immo/backend/internal/domain/finance"
	"go.uber.org/zap"
)

// ParentSource lists the parents holding en_attente rows planned before asOf
type ParentSource interface {
	FindParentsWithPastDue(ctx context.Context, asOf time.Time) ([]finance.ParentRef, error)
}

// OverdueMarker marks the overdue rows of one parent
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, parent finance.ParentRef, asOf time.Time) (int, error)
}

// OverdueSweeperConfig holds the daily run time of the sweep
type OverdueSweeperConfig struct {
	Hour   int
	Minute int
	// CheckInterval is how often the clock is compared with the run time
	CheckInterval time.Duration
	// ParentTimeout bounds the transaction of a single parent
	ParentTimeout time.Duration
}

// DefaultOverdueSweeperConfig runs the sweep at 02:00
func DefaultOverdueSweeperConfig() OverdueSweeperConfig {
	return OverdueSweeperConfig{
		Hour:          2,
		CheckInterval: time.Minute,
		ParentTimeout: 30 * time.Second,
	}
}

// SweepResult summarizes one sweep
type SweepResult struct {
	Parents int
	Marked  int
	Failed  int
}

// OverdueSweeper marks overdue installments of every parent once a day.
// Each parent is handled in its own transaction; a failing parent is logged
// and the sweep moves on.
type OverdueSweeper struct {
	config  OverdueSweeperConfig
	parents ParentSource
	marker  OverdueMarker
	logger  *zap.Logger
	now     func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewOverdueSweeper creates a new sweeper
func NewOverdueSweeper(config OverdueSweeperConfig, parents ParentSource, marker OverdueMarker, logger *zap.Logger) *OverdueSweeper {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &OverdueSweeper{
		config:  config,
		parents: parents,
		marker:  marker,
		logger:  logger.Named("overdue_sweeper"),
		now:     time.Now,
	}
}

// Start launches the background loop
func (s *OverdueSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Overdue sweeper started",
		zap.Int("hour", s.config.Hour),
		zap.Int("minute", s.config.Minute),
		zap.Duration("check_interval", s.config.CheckInterval),
	)
	return nil
}

// Stop stops the loop and waits for a running sweep to finish
func (s *OverdueSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Overdue sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OverdueSweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs the sweep when the run time is reached, at most once per day
func (s *OverdueSweeper) tick(ctx context.Context) bool {
	now := s.now()
	today := now.Format("2006-01-02")

	s.mu.Lock()
	due := s.lastRunDate != today &&
		(now.Hour() > s.config.Hour || (now.Hour() == s.config.Hour && now.Minute() >= s.config.Minute))
	if due {
		s.lastRunDate = today
	}
	s.mu.Unlock()

	if !due {
		return false
	}
	_, _ = s.RunOnce(ctx, startOfDay(now))
	return true
}

// RunOnce marks every row planned before asOf that is still en_attente
func (s *OverdueSweeper) RunOnce(ctx context.Context, asOf time.Time) (SweepResult, error) {
	var result SweepResult
	parents, err := s.parents.FindParentsWithPastDue(ctx, asOf)
	if err != nil {
		s.logger.Error("Failed to list parents with past-due installments", zap.Error(err))
		return result, err
	}

	for _, parent := range parents {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Parents++

		parentCtx, cancel := s.parentContext(ctx)
		marked, err := s.marker.MarkOverdue(parentCtx, parent, asOf)
		cancel()
		if err != nil {
			result.Failed++
			s.logger.Warn("Failed to mark overdue installments",
				zap.String("parent", parent.String()),
				zap.Error(err),
			)
			continue
		}
		result.Marked += marked
	}

	s.logger.Info("Overdue sweep finished",
		zap.Time("as_of", asOf),
		zap.Int("parents", result.Parents),
		zap.Int("marked", result.Marked),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *OverdueSweeper) parentContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.ParentTimeout > 0 {
		return context.WithTimeout(ctx, s.config.ParentTimeout)
	}
	return context.WithCancel(ctx)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
