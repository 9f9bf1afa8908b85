package service

import (
	"context"
	"fmt"
	"time"

	"github.com/reeeportnewsss/nww/internal/alert/config"
	"github.com/reeeportnewsss/nww/internal/alert/dto"
	"github.com/reeeportnewsss/nww/internal/alert/repository"
	"github.com/reeeportnewsss/nww/internal/alert/strategy"
	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/pkg/common"
	"github.com/reeeportnewsss/nww/pkg/logger"
	"github.com/reeeportnewsss/nww/pkg/utils"
)

// PipelineService runs one scrape, parse, dedupe and notify pass for a single source.
type PipelineService interface {
	GetType() entity.SourceType
	// Run never panics and never returns an error; the outcome is reported in the result.
	Run(ctx context.Context) dto.RunResult
}

type pipelineService struct {
	cfg      config.Pipeline
	source   strategy.RecordSource
	pages    repository.PageRepository
	sentSet  repository.SentSetRepository
	notifier NotifierService
	now      func() time.Time
	loc      *time.Location
	log      *logger.Logger
}

// NewPipelineService creates a new PipelineService. A nil now means time.Now.
func NewPipelineService(
	cfg config.Pipeline,
	source strategy.RecordSource,
	pages repository.PageRepository,
	sentSet repository.SentSetRepository,
	notifier NotifierService,
	now func() time.Time,
	loc *time.Location,
	log *logger.Logger,
) PipelineService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &pipelineService{
		cfg:      cfg,
		source:   source,
		pages:    pages,
		sentSet:  sentSet,
		notifier: notifier,
		now:      now,
		loc:      loc,
		log:      log.With(logger.StringField("source", string(source.GetType()))),
	}
}

func (s *pipelineService) GetType() entity.SourceType {
	return s.source.GetType()
}

func (s *pipelineService) Run(ctx context.Context) dto.RunResult {
	result := dto.RunResult{
		Source:    s.source.GetType(),
		StartedAt: s.now(),
	}

	err := utils.SafeRun(func() error {
		return s.run(ctx, &result)
	})
	result.FinishedAt = s.now()

	switch {
	case err != nil:
		result.Status = common.FAILED
		result.Err = err
		result.Error = err.Error()
		s.log.ErrorContext(ctx, "Pipeline run failed", logger.ErrorField(err), logger.Field("result", result))
	case result.FailedAlerts > 0 || result.FailedItems > 0:
		result.Status = common.PARTIAL
		s.log.WarnContext(ctx, "Pipeline run completed with failures", logger.Field("result", result))
	default:
		result.Status = common.SUCCESS
		s.log.InfoContext(ctx, "Pipeline run completed", logger.Field("result", result))
	}
	return result
}

func (s *pipelineService) run(ctx context.Context, result *dto.RunResult) error {
	s.sentSet.Load(ctx)

	body, err := s.pages.Fetch(ctx, s.cfg.URL)
	if err != nil {
		return err
	}

	items, err := s.source.Extract(body)
	if err != nil {
		return fmt.Errorf("failed to extract records: %w", err)
	}

	now := s.now()
	var records []entity.Record
	for item := range items {
		switch item.Status {
		case common.SUCCESS:
			item.Record.Identity = AssignIdentity(item.Record.Name(), now, s.loc)
			records = append(records, item.Record)
		case common.SKIPPED:
			result.DroppedItems++
			s.log.DebugContext(ctx, "Item skipped", logger.IntField("index", item.Index), logger.StringField("reason", item.Reason))
		default:
			result.FailedItems++
			s.log.WarnContext(ctx, "Failed to parse item", logger.IntField("index", item.Index), logger.ErrorField(item.Err))
		}
	}
	result.Found = len(records)
	result.SentinelRatio = sentinelRatio(records)
	s.warnOnDrift(ctx, result)

	s.log.InfoContext(ctx, "Records extracted", logger.IntField("found", result.Found), logger.IntField("known", s.sentSet.Len()))

	result.DigestSent = s.notifier.SendDigest(ctx, records)

	for _, record := range records {
		if s.sentSet.Contains(record.Identity) {
			result.Skipped++
			continue
		}

		if !s.notifier.SendAlert(ctx, record) {
			result.FailedAlerts++
			continue
		}
		if err := s.sentSet.AddAndPersist(ctx, record.Identity); err != nil {
			return err
		}
		result.Sent++
		s.log.InfoContext(ctx, "Alert sent", logger.StringField("identity", record.Identity))

		if err := utils.Sleep(ctx, s.cfg.Delay); err != nil {
			return fmt.Errorf("run interrupted: %w", err)
		}
	}
	return nil
}

// warnOnDrift flags runs where most field values are N/A, which usually means the page
// markup changed under the selectors.
func (s *pipelineService) warnOnDrift(ctx context.Context, result *dto.RunResult) {
	if s.cfg.SentinelWarnRatio <= 0 || result.Found == 0 {
		return
	}
	if result.SentinelRatio >= s.cfg.SentinelWarnRatio {
		s.log.WarnContext(ctx, "High share of N/A fields, page markup may have changed",
			logger.FloatField("sentinel_ratio", result.SentinelRatio),
			logger.FloatField("threshold", s.cfg.SentinelWarnRatio),
			logger.IntField("records", result.Found),
		)
	}
}

func sentinelRatio(records []entity.Record) float64 {
	var total, sentinel int
	for _, r := range records {
		total += len(r.Fields)
		sentinel += r.SentinelCount()
	}
	if total == 0 {
		return 0
	}
	return float64(sentinel) / float64(total)
}

