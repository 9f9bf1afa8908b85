package config

import (
	"errors"
	"time"

	"github.com/reeeportnewsss/nww/pkg/common"
	"github.com/reeeportnewsss/nww/pkg/config"
)

// Gemini holds the settings for the Gemini API.
type Gemini struct {
	APIKeys               []string      `mapstructure:"api_keys"`
	BaseURL               string        `mapstructure:"base_url"`
	FilterModel           string        `mapstructure:"filter_model"`
	SummaryModel          string        `mapstructure:"summary_model"`
	AnalyzeModel          string        `mapstructure:"analyze_model"`
	FilterThinkingBudget  int32         `mapstructure:"filter_thinking_budget"`
	AnalyzeThinkingBudget int32         `mapstructure:"analyze_thinking_budget"`
	MaxAttempts           int           `mapstructure:"max_attempts"`
	MaxRequestPerMinute   int           `mapstructure:"max_request_per_minute"`
	Timeout               time.Duration `mapstructure:"timeout"`
}

// Feed holds the Google News RSS query settings.
type Feed struct {
	BaseURL         string        `mapstructure:"base_url"`
	Lookback        time.Duration `mapstructure:"lookback"`
	Language        string        `mapstructure:"language"`
	Country         string        `mapstructure:"country"`
	Edition         string        `mapstructure:"edition"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// Files names every file the news steps read or write.
type Files struct {
	Companies       string `mapstructure:"companies"`
	News            string `mapstructure:"news"`
	Titles          string `mapstructure:"titles"`
	ValidTitles     string `mapstructure:"valid_titles"`
	ProcessedTitles string `mapstructure:"processed_titles"`
	Summaries       string `mapstructure:"summaries"`
	ProcessedNews   string `mapstructure:"processed_news"`
	OutputDir       string `mapstructure:"output_dir"`
}

// Email holds SMTP settings for report delivery.
type Email struct {
	SMTPServer string        `mapstructure:"smtp_server"`
	SMTPPort   int           `mapstructure:"smtp_port"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	From       string        `mapstructure:"from"`
	To         string        `mapstructure:"to"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// SFTP holds the remote host settings for report upload.
type SFTP struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	RemoteDir      string        `mapstructure:"remote_dir"`
	KnownHostsFile string        `mapstructure:"known_hosts_file"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Config holds the full configuration for the news service.
type Config struct {
	App    config.App    `mapstructure:"app"`
	Logger config.Logger `mapstructure:"logger"`
	Gemini Gemini        `mapstructure:"gemini"`
	Feed   Feed          `mapstructure:"feed"`
	Files  Files         `mapstructure:"files"`
	Email  Email         `mapstructure:"email"`
	SFTP   SFTP          `mapstructure:"sftp"`
}

var defaults = map[string]interface{}{
	"app.name": "news-service",

	"gemini.api_keys":                []string{},
	"gemini.base_url":                "",
	"gemini.filter_model":            "gemini-2.5-flash",
	"gemini.summary_model":           "gemini-2.0-flash",
	"gemini.analyze_model":           "gemini-2.5-flash",
	"gemini.filter_thinking_budget":  3500,
	"gemini.analyze_thinking_budget": 10000,
	"gemini.max_attempts":            0,
	"gemini.max_request_per_minute":  10,
	"gemini.timeout":                 "120s",

	"feed.base_url":         common.GoogleNewsRSSBaseURL,
	"feed.lookback":         "3h",
	"feed.language":         "en-IN",
	"feed.country":          "IN",
	"feed.edition":          "IN:en",
	"feed.request_interval": "4s",
	"feed.user_agent":       common.BrowserUserAgent,
	"feed.timeout":          "30s",

	"files.companies":        "n0.csv",
	"files.news":             "all_stock_news.txt",
	"files.titles":           "title.txt",
	"files.valid_titles":     "valid_title.txt",
	"files.processed_titles": "processed.json",
	"files.summaries":        "combined_response.txt",
	"files.processed_news":   "processed_stock_news.txt",
	"files.output_dir":       ".",

	"email.smtp_server": "smtp.gmail.com",
	"email.smtp_port":   465,
	"email.user":        "",
	"email.password":    "",
	"email.from":        "",
	"email.to":          "",
	"email.timeout":     "30s",

	"sftp.host":             "",
	"sftp.port":             22,
	"sftp.user":             "",
	"sftp.password":         "",
	"sftp.remote_dir":       "/root/reports",
	"sftp.known_hosts_file": "",
	"sftp.timeout":          "30s",
}

// Load loads the news service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, defaults); err != nil {
		return nil, err
	}
	if cfg.Email.From == "" {
		cfg.Email.From = cfg.Email.User
	}
	if cfg.Email.To == "" {
		cfg.Email.To = cfg.Email.From
	}
	return &cfg, nil
}

// ValidateGemini checks the settings every model-backed step needs.
func (c *Config) ValidateGemini() error {
	if len(c.Gemini.APIKeys) == 0 {
		return errors.New("gemini.api_keys is empty")
	}
	return nil
}

// ValidateEmail checks the settings email delivery needs.
func (c *Config) ValidateEmail() error {
	if c.Email.User == "" || c.Email.Password == "" || c.Email.To == "" {
		return errors.New("email.user, email.password and email.to are required")
	}
	return nil
}

// ValidateSFTP checks the settings SFTP delivery needs.
func (c *Config) ValidateSFTP() error {
	if c.SFTP.Host == "" || c.SFTP.User == "" {
		return errors.New("sftp.host and sftp.user are required")
	}
	return nil
}
