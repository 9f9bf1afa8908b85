package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	alertrepository "github.com/reeeportnewsss/nww/internal/alert/repository"
	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/internal/news/config"
	"github.com/reeeportnewsss/nww/internal/news/repository"
	"github.com/reeeportnewsss/nww/pkg/common"
	"github.com/reeeportnewsss/nww/pkg/logger"
	"github.com/reeeportnewsss/nww/pkg/utils"
)

const (
	summaryOverviewLength = 100
	summarySeparatorWidth = 80
	reportTitle           = "Indian Corporate News Analysis"
)

// ErrNoInput is returned when a step has nothing to work on.
var ErrNoInput = errors.New("no input")

// NewsService runs the market news steps. Each step reads the files written by the one
// before it, so the steps can run as separate processes.
type NewsService interface {
	Fetch(ctx context.Context) error
	Filter(ctx context.Context) error
	Summarize(ctx context.Context) error
	Prompt(ctx context.Context) error
	Analyze(ctx context.Context, sender repository.ReportSender) error
}

type newsService struct {
	files     config.Files
	companies repository.CompanyRepository
	feeds     repository.FeedRepository
	ai        repository.AIRepository
	processed alertrepository.SentSetRepository
	now       func() time.Time
	log       *logger.Logger
}

// NewNewsService creates a new NewsService. ai and processed may be nil for callers that
// only fetch or assemble prompts. A nil now means time.Now.
func NewNewsService(
	files config.Files,
	companies repository.CompanyRepository,
	feeds repository.FeedRepository,
	ai repository.AIRepository,
	processed alertrepository.SentSetRepository,
	now func() time.Time,
	log *logger.Logger,
) NewsService {
	if now == nil {
		now = time.Now
	}
	return &newsService{
		files:     files,
		companies: companies,
		feeds:     feeds,
		ai:        ai,
		processed: processed,
		now:       now,
		log:       log,
	}
}

// Fetch collects recent headlines per company into the news file and the flat titles file.
// A company whose feed fails is written as having no news.
func (s *newsService) Fetch(ctx context.Context) error {
	companies, err := s.companies.List(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to read companies", logger.ErrorField(err))
		return nil
	}
	if len(companies) == 0 {
		s.log.ErrorContext(ctx, "No companies to process")
		return nil
	}

	results := make([]entity.CompanyNews, 0, len(companies))
	failed := 0
	for _, company := range companies {
		if err := ctx.Err(); err != nil {
			return err
		}
		titles, err := s.feeds.FetchTitles(ctx, company)
		if err != nil {
			failed++
			s.log.ErrorContext(ctx, "Failed to fetch news", logger.ErrorField(err), logger.StringField("company", company.Name))
		}
		results = append(results, entity.CompanyNews{Company: company, Titles: titles})
	}

	if err := writeFile(s.files.News, FormatCompanyNews(results)); err != nil {
		return err
	}
	if err := writeFile(s.files.Titles, formatTitles(results)); err != nil {
		return err
	}

	status := common.SUCCESS
	if failed > 0 {
		status = common.PARTIAL
	}
	s.log.InfoContext(ctx, "Saved all news",
		logger.StringField("status", status),
		logger.StringField("path", s.files.News),
		logger.IntField("companies", len(companies)),
		logger.IntField("failed", failed),
	)
	return nil
}

// FormatCompanyNews renders one "Stock:" block per company.
func FormatCompanyNews(news []entity.CompanyNews) string {
	var sb strings.Builder
	for _, n := range news {
		sb.WriteString(fmt.Sprintf("Stock: %s\n", n.Company.Name))
		if len(n.Titles) == 0 {
			sb.WriteString("No news found.\n\n")
			continue
		}
		for i, title := range n.Titles {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, title))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatTitles lists every headline once, however many companies it appeared under.
func formatTitles(news []entity.CompanyNews) string {
	var sb strings.Builder
	seen := make(map[string]struct{})
	for _, n := range news {
		for _, title := range n.Titles {
			key := strings.ToLower(title)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			sb.WriteString(title + "\n")
		}
	}
	return sb.String()
}

// Filter keeps the brokerage-related headlines of the titles file.
func (s *newsService) Filter(ctx context.Context) error {
	titles, err := os.ReadFile(s.files.Titles)
	if err != nil {
		return fmt.Errorf("failed to read titles file: %w", err)
	}
	if strings.TrimSpace(string(titles)) == "" {
		return fmt.Errorf("%w: %s is empty", ErrNoInput, s.files.Titles)
	}

	filtered, err := s.ai.FilterTitles(ctx, string(titles))
	if err != nil {
		return fmt.Errorf("failed to filter titles: %w", err)
	}
	if err := writeFile(s.files.ValidTitles, filtered); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "Title filtering completed", logger.StringField("path", s.files.ValidTitles))
	return nil
}

// Summarize writes a summary for every valid title not summarized before. A title is
// marked processed as soon as its summary arrives.
func (s *newsService) Summarize(ctx context.Context) error {
	titles, err := readLines(s.files.ValidTitles)
	if err != nil {
		return fmt.Errorf("failed to read valid titles: %w", err)
	}

	s.processed.Load(ctx)

	var summaries []entity.TitleSummary
	for _, title := range titles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.processed.Contains(title) {
			s.log.DebugContext(ctx, "Skipping already processed title", logger.StringField("title", title))
			continue
		}

		summary, err := s.ai.SummarizeTitle(ctx, title)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to summarize title", logger.ErrorField(err), logger.StringField("title", title))
			continue
		}
		if err := s.processed.AddAndPersist(ctx, title); err != nil {
			return err
		}
		summaries = append(summaries, entity.TitleSummary{Title: title, Summary: summary})
		s.log.InfoContext(ctx, "Processed title", logger.StringField("title", title))
	}

	if err := writeFile(s.files.Summaries, FormatSummaryReport(summaries, s.now())); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "Saved combined summaries", logger.StringField("path", s.files.Summaries), logger.IntField("count", len(summaries)))
	return nil
}

// FormatSummaryReport renders the overview and the detailed summaries.
func FormatSummaryReport(summaries []entity.TitleSummary, generatedAt time.Time) string {
	var sb strings.Builder
	sb.WriteString("=== Combined News Summaries ===\n\n")
	sb.WriteString(fmt.Sprintf("Generated on: %s\n\n", generatedAt.Format(time.DateTime)))

	sb.WriteString("== Overall Summary ==\n")
	if len(summaries) == 0 {
		sb.WriteString("No new articles were processed.\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("Summary of %d articles:\n", len(summaries)))
		for i, entry := range summaries {
			sb.WriteString(fmt.Sprintf("%d. %s: %s...\n", i+1, entry.Title, truncateRunes(entry.Summary, summaryOverviewLength)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("== Detailed Article Summaries ==\n\n")
	for _, entry := range summaries {
		sb.WriteString(fmt.Sprintf("Title: %s\n", entry.Title))
		sb.WriteString(fmt.Sprintf("Summary:\n%s\n", entry.Summary))
		sb.WriteString(strings.Repeat("-", summarySeparatorWidth) + "\n\n")
	}
	return sb.String()
}

// Prompt prefixes the news file with the analysis instruction.
func (s *newsService) Prompt(ctx context.Context) error {
	content, err := os.ReadFile(s.files.News)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s not found", ErrNoInput, s.files.News)
		}
		return fmt.Errorf("failed to read news file: %w", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return fmt.Errorf("%w: %s is empty", ErrNoInput, s.files.News)
	}

	if err := writeFile(s.files.ProcessedNews, repository.BuildNewsAnalysisPrompt(string(content))); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "Processed content saved", logger.StringField("path", s.files.ProcessedNews))
	return nil
}

// Analyze asks the model for the best and worst news of the processed news file and
// delivers the answer through sender. When the model fails the error text is delivered.
func (s *newsService) Analyze(ctx context.Context, sender repository.ReportSender) error {
	prompt := s.readAnalysisInput(ctx)

	answer, err := s.ai.AnalyzeNews(ctx, prompt)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to query Gemini", logger.ErrorField(err))
		answer = fmt.Sprintf("Error querying Gemini API: %v", err)
	}

	today := s.now().Format(utils.DateLayout)
	report := repository.Report{
		Subject:  fmt.Sprintf("%s - %s", reportTitle, today),
		FileName: fmt.Sprintf("corporate_news_%s.txt", today),
		Body:     FormatAnalysisReport(answer),
	}
	if err := sender.Send(ctx, report); err != nil {
		return fmt.Errorf("failed to deliver analysis: %w", err)
	}

	s.log.InfoContext(ctx, "Corporate news analysis delivered", logger.StringField("subject", report.Subject))
	return nil
}

// FormatAnalysisReport wraps the model answer in the report layout.
func FormatAnalysisReport(answer string) string {
	return fmt.Sprintf("=== %s ===\n\n**Best News Item from File**\n%s\n\n", reportTitle, answer)
}

func (s *newsService) readAnalysisInput(ctx context.Context) string {
	content, err := os.ReadFile(s.files.ProcessedNews)
	if err != nil {
		s.log.WarnContext(ctx, "Processed news file not readable", logger.ErrorField(err), logger.StringField("path", s.files.ProcessedNews))
		return repository.NoNewsFallback
	}
	if text := strings.TrimSpace(string(content)); text != "" {
		return text
	}
	return repository.NoNewsFallback
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
