package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/internal/news/config"
	"github.com/reeeportnewsss/nww/pkg/logger"
)

const newsRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Google News</title>
<item><title>Older: Reliance AGM date announced</title><pubDate>Mon, 01 Jan 2024 08:00:00 GMT</pubDate></item>
<item><title>Jefferies maintains Buy on Reliance, target Rs 3,400</title><pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate></item>
<item><title>Undated: Reliance shares in focus</title></item>
<item><title>   </title><pubDate>Mon, 01 Jan 2024 09:00:00 GMT</pubDate></item>
<item><title>Sensex ends higher led by Reliance</title><pubDate>Mon, 01 Jan 2024 09:00:00 GMT</pubDate></item>
</channel></rss>`

type fakeNewsServer struct {
	mu      sync.Mutex
	queries []url.Values
	agents  []string
}

func (f *fakeNewsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.Query())
	f.agents = append(f.agents, r.UserAgent())
	f.mu.Unlock()

	if r.URL.Path != "/rss/search" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml")
	_, _ = w.Write([]byte(newsRSS))
}

func newTestFeedRepository(t *testing.T, baseURL string) FeedRepository {
	t.Helper()
	return NewFeedRepository(config.Feed{
		BaseURL:   baseURL,
		Lookback:  3 * time.Hour,
		Language:  "en-IN",
		Country:   "IN",
		Edition:   "IN:en",
		UserAgent: "news-test",
		Timeout:   time.Second,
	}, logger.NewNop())
}

func TestFeedRepository_FetchTitles(t *testing.T) {
	api := &fakeNewsServer{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	repo := newTestFeedRepository(t, srv.URL+"/rss/")
	reliance := entity.Company{Name: "Reliance Industries Ltd.", Symbol: "RELIANCE"}

	first, err := repo.FetchTitles(context.Background(), reliance)
	require.NoError(t, err)
	expected := []string{
		"Jefferies maintains Buy on Reliance, target Rs 3,400",
		"Sensex ends higher led by Reliance",
		"Older: Reliance AGM date announced",
		"Undated: Reliance shares in focus",
	}
	assert.Equal(t, expected, first)

	require.Len(t, api.queries, 1)
	q := api.queries[0]
	assert.Equal(t, "Reliance Industries Ltd. when:3h", q.Get("q"))
	assert.Equal(t, "en-IN", q.Get("hl"))
	assert.Equal(t, "IN", q.Get("gl"))
	assert.Equal(t, "IN:en", q.Get("ceid"))
	assert.Equal(t, "news-test", api.agents[0])

	// another company whose feed carries the same headlines keeps all of them
	titles, err := repo.FetchTitles(context.Background(), entity.Company{Name: "Jio Financial"})
	require.NoError(t, err)
	assert.Equal(t, expected, titles)
	require.Len(t, api.queries, 2)
	assert.Equal(t, "Jio Financial when:3h", api.queries[1].Get("q"))

	// a repeated company inside the window is answered from memory
	first[0] = "mutated by caller"
	titles, err = repo.FetchTitles(context.Background(), reliance)
	require.NoError(t, err)
	assert.Equal(t, expected, titles)
	assert.Len(t, api.queries, 2)
}

func TestFeedRepository_FetchTitlesError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestFeedRepository(t, srv.URL).FetchTitles(context.Background(), entity.Company{Name: "Infosys"})
	assert.ErrorContains(t, err, "Infosys")
}

func TestLookbackOperator(t *testing.T) {
	assert.Equal(t, "3h", lookbackOperator(3*time.Hour))
	assert.Equal(t, "2h", lookbackOperator(90*time.Minute))
	assert.Equal(t, "1h", lookbackOperator(0))
	assert.Equal(t, "2d", lookbackOperator(48*time.Hour))
	assert.Equal(t, "30h", lookbackOperator(30*time.Hour))
}
