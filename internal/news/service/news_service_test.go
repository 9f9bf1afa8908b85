package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alertrepository "github.com/reeeportnewsss/nww/internal/alert/repository"
	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/internal/news/config"
	"github.com/reeeportnewsss/nww/internal/news/repository"
	"github.com/reeeportnewsss/nww/pkg/logger"
)

var generatedAt = time.Date(2024, 3, 15, 18, 30, 5, 0, time.UTC)

type fakeCompanies struct {
	companies []entity.Company
	err       error
}

func (f *fakeCompanies) List(context.Context) ([]entity.Company, error) {
	return f.companies, f.err
}

type fakeFeeds struct {
	fetchFunc func(company entity.Company) ([]string, error)
}

func (f *fakeFeeds) FetchTitles(_ context.Context, company entity.Company) ([]string, error) {
	return f.fetchFunc(company)
}

type fakeAI struct {
	filterFunc    func(titles string) (string, error)
	summarizeFunc func(title string) (string, error)
	analyzeFunc   func(prompt string) (string, error)
}

func (f *fakeAI) FilterTitles(_ context.Context, titles string) (string, error) {
	return f.filterFunc(titles)
}

func (f *fakeAI) SummarizeTitle(_ context.Context, title string) (string, error) {
	return f.summarizeFunc(title)
}

func (f *fakeAI) AnalyzeNews(_ context.Context, prompt string) (string, error) {
	return f.analyzeFunc(prompt)
}

type fakeSender struct {
	reports []repository.Report
	err     error
}

func (f *fakeSender) Send(_ context.Context, report repository.Report) error {
	f.reports = append(f.reports, report)
	return f.err
}

func testFiles(t *testing.T) config.Files {
	dir := t.TempDir()
	return config.Files{
		News:            filepath.Join(dir, "news_output.txt"),
		Titles:          filepath.Join(dir, "news_titles.txt"),
		ValidTitles:     filepath.Join(dir, "valid_titles.txt"),
		ProcessedTitles: filepath.Join(dir, "processed_titles.json"),
		Summaries:       filepath.Join(dir, "combined_summaries.txt"),
		ProcessedNews:   filepath.Join(dir, "processed_news.txt"),
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newTestService(files config.Files, companies repository.CompanyRepository, feeds repository.FeedRepository, ai repository.AIRepository) NewsService {
	log := logger.NewNop()
	processed := alertrepository.NewFileSentSetRepository(files.ProcessedTitles, log)
	return NewNewsService(files, companies, feeds, ai, processed, func() time.Time { return generatedAt }, log)
}

func TestNewsService_Fetch(t *testing.T) {
	files := testFiles(t)
	companies := &fakeCompanies{companies: []entity.Company{
		{Name: "Reliance Industries Ltd.", Symbol: "RELIANCE"},
		{Name: "Infosys Ltd.", Symbol: "INFY"},
		{Name: "Tata Steel Ltd.", Symbol: "TATASTEEL"},
	}}
	feeds := &fakeFeeds{fetchFunc: func(c entity.Company) ([]string, error) {
		switch c.Symbol {
		case "RELIANCE":
			return []string{"Jefferies maintains Buy on Reliance", "Reliance AGM date announced"}, nil
		case "INFY":
			return nil, errors.New("feed unavailable")
		case "TATASTEEL":
			return []string{"Jefferies Maintains Buy on Reliance"}, nil
		}
		return nil, nil
	}}

	require.NoError(t, newTestService(files, companies, feeds, nil).Fetch(context.Background()))

	assert.Equal(t, "Stock: Reliance Industries Ltd.\n"+
		"1. Jefferies maintains Buy on Reliance\n"+
		"2. Reliance AGM date announced\n\n"+
		"Stock: Infosys Ltd.\nNo news found.\n\n"+
		"Stock: Tata Steel Ltd.\n1. Jefferies Maintains Buy on Reliance\n\n", readFile(t, files.News))
	assert.Equal(t, "Jefferies maintains Buy on Reliance\nReliance AGM date announced\n", readFile(t, files.Titles))
}

func TestNewsService_FetchWithoutCompanies(t *testing.T) {
	files := testFiles(t)
	feeds := &fakeFeeds{fetchFunc: func(entity.Company) ([]string, error) {
		t.Fatal("feeds must not be queried")
		return nil, nil
	}}

	svc := newTestService(files, &fakeCompanies{err: os.ErrNotExist}, feeds, nil)
	require.NoError(t, svc.Fetch(context.Background()))
	_, err := os.Stat(files.News)
	assert.True(t, os.IsNotExist(err))
}

func TestNewsService_Filter(t *testing.T) {
	files := testFiles(t)
	ai := &fakeAI{filterFunc: func(titles string) (string, error) {
		assert.Equal(t, "a\nb\n", titles)
		return "a", nil
	}}
	svc := newTestService(files, nil, nil, ai)

	assert.Error(t, svc.Filter(context.Background()))

	require.NoError(t, os.WriteFile(files.Titles, []byte("\n \n"), 0o644))
	assert.ErrorIs(t, svc.Filter(context.Background()), ErrNoInput)

	require.NoError(t, os.WriteFile(files.Titles, []byte("a\nb\n"), 0o644))
	require.NoError(t, svc.Filter(context.Background()))
	assert.Equal(t, "a", readFile(t, files.ValidTitles))
}

func TestNewsService_Summarize(t *testing.T) {
	files := testFiles(t)
	require.NoError(t, os.WriteFile(files.ValidTitles, []byte("Old headline\n\nNomura upgrades ICICI Bank\nBroken headline\n"), 0o644))
	require.NoError(t, os.WriteFile(files.ProcessedTitles, []byte(`["Old headline"]`), 0o644))

	long := strings.Repeat("é", 120)
	var asked []string
	ai := &fakeAI{summarizeFunc: func(title string) (string, error) {
		asked = append(asked, title)
		if title == "Broken headline" {
			return "", errors.New("quota exceeded")
		}
		return long, nil
	}}

	require.NoError(t, newTestService(files, nil, nil, ai).Summarize(context.Background()))

	assert.Equal(t, []string{"Nomura upgrades ICICI Bank", "Broken headline"}, asked)
	assert.JSONEq(t, `["Old headline","Nomura upgrades ICICI Bank"]`, readFile(t, files.ProcessedTitles))
	assert.Equal(t, "=== Combined News Summaries ===\n\n"+
		"Generated on: 2024-03-15 18:30:05\n\n"+
		"== Overall Summary ==\n"+
		"Summary of 1 articles:\n"+
		"1. Nomura upgrades ICICI Bank: "+strings.Repeat("é", 100)+"...\n\n"+
		"== Detailed Article Summaries ==\n\n"+
		"Title: Nomura upgrades ICICI Bank\n"+
		"Summary:\n"+long+"\n"+
		strings.Repeat("-", 80)+"\n\n", readFile(t, files.Summaries))
}

func TestFormatSummaryReport_Empty(t *testing.T) {
	assert.Equal(t, "=== Combined News Summaries ===\n\n"+
		"Generated on: 2024-03-15 18:30:05\n\n"+
		"== Overall Summary ==\n"+
		"No new articles were processed.\n\n"+
		"== Detailed Article Summaries ==\n\n", FormatSummaryReport(nil, generatedAt))
}

func TestNewsService_Prompt(t *testing.T) {
	files := testFiles(t)
	svc := newTestService(files, nil, nil, nil)

	assert.ErrorIs(t, svc.Prompt(context.Background()), ErrNoInput)

	require.NoError(t, os.WriteFile(files.News, []byte("  \n"), 0o644))
	assert.ErrorIs(t, svc.Prompt(context.Background()), ErrNoInput)

	require.NoError(t, os.WriteFile(files.News, []byte("Stock: A\n1. t\n\n"), 0o644))
	require.NoError(t, svc.Prompt(context.Background()))
	assert.Equal(t, repository.NewsAnalysisInstruction+"\n\nStock: A\n1. t", readFile(t, files.ProcessedNews))
}

func TestNewsService_Analyze(t *testing.T) {
	files := testFiles(t)
	require.NoError(t, os.WriteFile(files.ProcessedNews, []byte("prompt body\n"), 0o644))
	ai := &fakeAI{analyzeFunc: func(prompt string) (string, error) {
		assert.Equal(t, "prompt body", prompt)
		return "Answer:\nBest news\n\n", nil
	}}
	sender := &fakeSender{}

	require.NoError(t, newTestService(files, nil, nil, ai).Analyze(context.Background(), sender))

	require.Len(t, sender.reports, 1)
	assert.Equal(t, repository.Report{
		Subject:  "Indian Corporate News Analysis - 2024-03-15",
		FileName: "corporate_news_2024-03-15.txt",
		Body:     "=== Indian Corporate News Analysis ===\n\n**Best News Item from File**\nAnswer:\nBest news\n\n\n\n",
	}, sender.reports[0])
}

func TestNewsService_AnalyzeDeliversModelErrors(t *testing.T) {
	files := testFiles(t)
	ai := &fakeAI{analyzeFunc: func(prompt string) (string, error) {
		assert.Equal(t, repository.NoNewsFallback, prompt)
		return "", errors.New("all 2 attempts failed")
	}}
	sender := &fakeSender{}

	require.NoError(t, newTestService(files, nil, nil, ai).Analyze(context.Background(), sender))
	require.Len(t, sender.reports, 1)
	assert.Contains(t, sender.reports[0].Body, "Error querying Gemini API: all 2 attempts failed")

	sender.err = errors.New("smtp: 535 authentication failed")
	assert.ErrorContains(t, newTestService(files, nil, nil, ai).Analyze(context.Background(), sender), "535")
}
