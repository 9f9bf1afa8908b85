package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/reeeportnewsss/nww/internal/alert/dto"
	"github.com/reeeportnewsss/nww/internal/alert/service"
	"github.com/reeeportnewsss/nww/pkg/logger"
)

// CronScheduler runs pipelines on cron expressions inside the process. Every job takes the
// same lock, so runs never overlap even across pipelines that share a chat.
type CronScheduler struct {
	cron   *cron.Cron
	parser cron.Parser
	logger *logger.Logger
	mu     sync.Mutex
	stop   sync.Once
	ctx    context.Context
	cancel context.CancelFunc

	// OnResult, when set, receives the result of every scheduled run.
	OnResult func(dto.RunResult)
}

// NewCronScheduler creates a scheduler evaluating expressions in loc.
func NewCronScheduler(loc *time.Location, log *logger.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	cronLogger := logger.NewCronLogger(log)
	ctx, cancel := context.WithCancel(context.Background())

	return &CronScheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register schedules pipeline on spec.
func (s *CronScheduler) Register(spec string, pipeline service.PipelineService) error {
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q for %s: %w", spec, pipeline.GetType(), err)
	}

	id := s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.runLocked(pipeline)
	}))
	s.logger.Info("Pipeline scheduled",
		logger.StringField("source", string(pipeline.GetType())),
		logger.StringField("cron", spec),
		logger.IntField("entry_id", int(id)),
	)
	return nil
}

func (s *CronScheduler) runLocked(pipeline service.PipelineService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	result := pipeline.Run(s.ctx)
	if s.OnResult != nil {
		s.OnResult(result)
	}
}

// Start begins dispatching jobs and returns immediately. Cancelling ctx stops the scheduler.
func (s *CronScheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("Scheduler started", logger.IntField("entries", len(s.cron.Entries())))

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.ctx.Done():
		}
	}()
}

// Stop stops dispatching, cancels the running job and waits for it to return.
func (s *CronScheduler) Stop() {
	s.stop.Do(func() {
		s.cancel()
		<-s.cron.Stop().Done()
		s.logger.Info("Scheduler stopped")
	})
}
