package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/internal/news/config"
	"github.com/reeeportnewsss/nww/pkg/logger"
)

// FeedRepository reads recent headlines for a company from Google News RSS.
type FeedRepository interface {
	// FetchTitles returns the headlines published within the lookback window, newest
	// first. Items without a publication date come last, in feed order.
	FetchTitles(ctx context.Context, company entity.Company) ([]string, error)
}

type feedRepository struct {
	cfg            config.Feed
	log            *logger.Logger
	parser         *gofeed.Parser
	requestLimiter *rate.Limiter
	feeds          *cache.Cache
}

// NewFeedRepository creates a FeedRepository issuing at most one request per
// cfg.RequestInterval. A search already answered within the lookback window is served
// from memory.
func NewFeedRepository(cfg config.Feed, log *logger.Logger) FeedRepository {
	parser := gofeed.NewParser()
	parser.UserAgent = cfg.UserAgent
	parser.Client = &http.Client{Timeout: cfg.Timeout}

	lookback := cfg.Lookback
	if lookback <= 0 {
		lookback = 3 * time.Hour
	}
	cfg.Lookback = lookback

	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}

	return &feedRepository{
		cfg:            cfg,
		log:            log,
		parser:         parser,
		requestLimiter: rate.NewLimiter(limit, 1),
		feeds:          cache.New(lookback, 2*lookback),
	}
}

func (r *feedRepository) FetchTitles(ctx context.Context, company entity.Company) ([]string, error) {
	feedURL := r.searchURL(company.Name)

	if cached, ok := r.feeds.Get(feedURL); ok {
		r.log.DebugContext(ctx, "Using cached news feed", logger.StringField("company", company.Name))
		return slices.Clone(cached.([]string)), nil
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	r.log.InfoContext(ctx, "Fetching news feed",
		logger.StringField("company", company.Name),
		logger.StringField("symbol", company.Symbol),
		logger.StringField("url", feedURL),
	)
	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse news feed for %s: %w", company.Name, err)
	}

	items := slices.Clone(feed.Items)
	slices.SortStableFunc(items, newestFirst)

	titles := make([]string, 0, len(items))
	for _, item := range items {
		if title := strings.TrimSpace(item.Title); title != "" {
			titles = append(titles, title)
		}
	}
	r.feeds.SetDefault(feedURL, slices.Clone(titles))

	r.log.DebugContext(ctx, "Fetched news feed",
		logger.StringField("company", company.Name),
		logger.IntField("items", len(feed.Items)),
		logger.IntField("titles", len(titles)),
	)
	return titles, nil
}

// newestFirst orders dated items newest first and puts undated items after them.
func newestFirst(a, b *gofeed.Item) int {
	switch {
	case a.PublishedParsed == nil && b.PublishedParsed == nil:
		return 0
	case a.PublishedParsed == nil:
		return 1
	case b.PublishedParsed == nil:
		return -1
	}
	return b.PublishedParsed.Compare(*a.PublishedParsed)
}

func (r *feedRepository) searchURL(query string) string {
	params := url.Values{}
	params.Set("q", query+" when:"+lookbackOperator(r.cfg.Lookback))
	params.Set("hl", r.cfg.Language)
	params.Set("gl", r.cfg.Country)
	params.Set("ceid", r.cfg.Edition)
	return strings.TrimRight(r.cfg.BaseURL, "/") + "/search?" + params.Encode()
}

// lookbackOperator renders d for the "when:" search operator, which takes whole hours or days.
func lookbackOperator(d time.Duration) string {
	if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", int64(d/(24*time.Hour)))
	}
	hours := int64((d + time.Hour - 1) / time.Hour)
	return fmt.Sprintf("%dh", max(hours, 1))
}
