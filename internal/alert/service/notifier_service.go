package service

import (
	"context"
	"time"

	"github.com/reeeportnewsss/nww/internal/alert/strategy"
	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/pkg/common"
	"github.com/reeeportnewsss/nww/pkg/logger"
	"github.com/reeeportnewsss/nww/pkg/telegram"
)

// NotifierService sends the messages of one pipeline. Both operations report transport
// success only; neither retries.
type NotifierService interface {
	SendDigest(ctx context.Context, records []entity.Record) bool
	SendAlert(ctx context.Context, record entity.Record) bool
}

type notifierService struct {
	transport telegram.Notifier
	source    strategy.RecordSource
	chatID    string
	digestCap int
	now       func() time.Time
	loc       *time.Location
	log       *logger.Logger
}

// NewNotifierService creates a NotifierService that formats messages with source and
// delivers them to chatID. A nil now means time.Now.
func NewNotifierService(
	transport telegram.Notifier,
	source strategy.RecordSource,
	chatID string,
	digestCap int,
	now func() time.Time,
	loc *time.Location,
	log *logger.Logger,
) NotifierService {
	if digestCap <= 0 {
		digestCap = common.DefaultDigestCap
	}
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &notifierService{
		transport: transport,
		source:    source,
		chatID:    chatID,
		digestCap: digestCap,
		now:       now,
		loc:       loc,
		log:       log,
	}
}

// SendDigest sends one summary of records. Nothing is sent for an empty run.
func (s *notifierService) SendDigest(ctx context.Context, records []entity.Record) bool {
	if len(records) == 0 {
		s.log.DebugContext(ctx, "No records, digest skipped", logger.StringField("source", string(s.source.GetType())))
		return false
	}

	text := s.source.FormatDigest(records, s.now().In(s.loc), s.digestCap)
	if err := s.transport.SendMessage(ctx, s.chatID, text); err != nil {
		s.log.ErrorContext(ctx, "Failed to send digest",
			logger.ErrorField(err),
			logger.StringField("source", string(s.source.GetType())),
			logger.IntField("records", len(records)),
		)
		return false
	}

	s.log.InfoContext(ctx, "Digest sent", logger.StringField("source", string(s.source.GetType())), logger.IntField("records", len(records)))
	return true
}

func (s *notifierService) SendAlert(ctx context.Context, record entity.Record) bool {
	if err := s.transport.SendMessage(ctx, s.chatID, s.source.FormatAlert(record)); err != nil {
		s.log.ErrorContext(ctx, "Failed to send alert",
			logger.ErrorField(err),
			logger.StringField("identity", record.Identity),
		)
		return false
	}
	return true
}
