package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/reeeportnewsss/nww/internal/alert/config"
	"github.com/reeeportnewsss/nww/pkg/logger"
)

// ErrFetch marks a failure to retrieve a source page.
var ErrFetch = errors.New("failed to fetch page")

// PageRepository retrieves raw screener pages.
type PageRepository interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type pageRepository struct {
	cfg            config.Screener
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewPageRepository creates a PageRepository throttled to cfg.MaxRequestPerMinute.
func NewPageRepository(cfg config.Screener, log *logger.Logger) PageRepository {
	perMinute := cfg.MaxRequestPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &pageRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		requestLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// Fetch GETs url with the configured browser headers. Any transport failure or non-2xx
// status is returned wrapped in ErrFetch.
func (r *pageRepository) Fetch(ctx context.Context, url string) ([]byte, error) {
	fields := []zap.Field{
		zap.String("url", url),
		zap.Int("max_request_per_minute", r.cfg.MaxRequestPerMinute),
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		r.log.ErrorContext(ctx, "Failed to wait for request limit", append(fields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to create new http request", append(fields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if r.cfg.Referer != "" {
		req.Header.Set("Referer", r.cfg.Referer)
	}
	if r.cfg.Cookie != "" {
		req.Header.Set("Cookie", r.cfg.Cookie)
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to send request to screener", append(fields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	fields = append(fields, zap.Int("status_code", resp.StatusCode), zap.Duration("took", time.Since(start)))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.log.ErrorContext(ctx, "Received non-OK response from screener", fields...)
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to read response body from screener", append(fields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	r.log.DebugContext(ctx, "Fetched screener page", append(fields, zap.Int("bytes", len(body)))...)
	return body, nil
}
