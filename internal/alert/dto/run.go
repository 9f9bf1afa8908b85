package dto

import (
	"time"

	"github.com/reeeportnewsss/nww/internal/entity"
)

// ItemResult is the outcome of parsing one structural item of a page.
// Status is SUCCESS (Record is set), SKIPPED (required anchor missing) or FAILED (Err is set).
type ItemResult struct {
	Index  int           `json:"index"`
	Status string        `json:"status"`
	Record entity.Record `json:"record"`
	Reason string        `json:"reason,omitempty"`
	Err    error         `json:"-"`
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	Source        entity.SourceType `json:"source"`
	Status        string            `json:"status"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    time.Time         `json:"finished_at"`
	Found         int               `json:"found"`
	Sent          int               `json:"sent"`
	Skipped       int               `json:"skipped"`
	FailedAlerts  int               `json:"failed_alerts"`
	FailedItems   int               `json:"failed_items"`
	DroppedItems  int               `json:"dropped_items"`
	DigestSent    bool              `json:"digest_sent"`
	SentinelRatio float64           `json:"sentinel_ratio"`
	Error         string            `json:"error,omitempty"`
	Err           error             `json:"-"`
}
