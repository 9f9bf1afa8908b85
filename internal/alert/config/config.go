package config

import (
	"fmt"
	"time"

	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/pkg/common"
	"github.com/reeeportnewsss/nww/pkg/config"
)

const (
	SentSetBackendFile  = "file"
	SentSetBackendRedis = "redis"
)

// Screener holds the HTTP settings used to fetch screener pages.
type Screener struct {
	BaseURL             string        `mapstructure:"base_url"`
	UserAgent           string        `mapstructure:"user_agent"`
	Referer             string        `mapstructure:"referer"`
	Cookie              string        `mapstructure:"cookie"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
}

// SentSet selects where notified identities are kept.
type SentSet struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// Pipeline holds the settings of one scrape-parse-dedupe-notify pipeline.
type Pipeline struct {
	Enabled           bool          `mapstructure:"enabled"`
	URL               string        `mapstructure:"url"`
	ChatID            string        `mapstructure:"chat_id"`
	SentSetPath       string        `mapstructure:"sent_set_path"`
	RedisKey          string        `mapstructure:"redis_key"`
	Delay             time.Duration `mapstructure:"delay"`
	DigestCap         int           `mapstructure:"digest_cap"`
	SentinelWarnRatio float64       `mapstructure:"sentinel_warn_ratio"`
	Cron              string        `mapstructure:"cron"`
}

// Config holds the full configuration for the alert service.
type Config struct {
	App           config.App      `mapstructure:"app"`
	Logger        config.Logger   `mapstructure:"logger"`
	Redis         config.Redis    `mapstructure:"redis"`
	Telegram      config.Telegram `mapstructure:"telegram"`
	Screener      Screener        `mapstructure:"screener"`
	SentSet       SentSet         `mapstructure:"sent_set"`
	AnnualReports Pipeline        `mapstructure:"annual_reports"`
	RSIOversold   Pipeline        `mapstructure:"rsi_oversold"`
}

var defaults = map[string]interface{}{
	"app.name": "alert-service",

	"screener.base_url":               common.ScreenerBaseURL,
	"screener.user_agent":             common.BrowserUserAgent,
	"screener.referer":                common.ScreenerBaseURL + "/screens/",
	"screener.cookie":                 "",
	"screener.timeout":                "30s",
	"screener.max_request_per_minute": 30,

	"sent_set.backend": SentSetBackendFile,
	"sent_set.ttl":     "0s",

	"annual_reports.enabled":             true,
	"annual_reports.url":                 common.ScreenerAnnualReportsURL,
	"annual_reports.chat_id":             "",
	"annual_reports.sent_set_path":       "sent_annual_reports.json",
	"annual_reports.redis_key":           "sent_set:annual_reports",
	"annual_reports.delay":               common.DefaultAlertDelay.String(),
	"annual_reports.digest_cap":          common.DefaultDigestCap,
	"annual_reports.sentinel_warn_ratio": 0.5,
	"annual_reports.cron":                "*/30 9-18 * * 1-5",

	"rsi_oversold.enabled":             true,
	"rsi_oversold.url":                 common.ScreenerRSIOversoldURL,
	"rsi_oversold.chat_id":             "",
	"rsi_oversold.sent_set_path":       "sent_rsi_stocks.json",
	"rsi_oversold.redis_key":           "sent_set:rsi_oversold",
	"rsi_oversold.delay":               common.DefaultAlertDelay.String(),
	"rsi_oversold.digest_cap":          common.DefaultDigestCap,
	"rsi_oversold.sentinel_warn_ratio": 0.5,
	"rsi_oversold.cron":                "15 16 * * 1-5",
}

// Load loads the alert service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, defaults); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings a run cannot do without.
func (c *Config) Validate() error {
	switch c.SentSet.Backend {
	case SentSetBackendFile, SentSetBackendRedis:
	default:
		return fmt.Errorf("unknown sent_set.backend %q", c.SentSet.Backend)
	}
	for _, source := range []entity.SourceType{entity.SourceTypeAnnualReports, entity.SourceTypeRSIOversold} {
		p := c.Pipeline(source)
		if !p.Enabled {
			continue
		}
		if p.URL == "" {
			return fmt.Errorf("%s: url is required", source)
		}
		if p.DigestCap <= 0 {
			return fmt.Errorf("%s: digest_cap must be positive", source)
		}
		if p.Delay < 0 {
			return fmt.Errorf("%s: delay must not be negative", source)
		}
	}
	return nil
}

// Pipeline returns the pipeline settings for source with the chat fallback applied.
func (c *Config) Pipeline(source entity.SourceType) Pipeline {
	var p Pipeline
	switch source {
	case entity.SourceTypeAnnualReports:
		p = c.AnnualReports
	case entity.SourceTypeRSIOversold:
		p = c.RSIOversold
	}
	if p.ChatID == "" {
		p.ChatID = c.Telegram.ChatID
	}
	return p
}
