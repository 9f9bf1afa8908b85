package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/reeeportnewsss/nww/internal/news/config"
	"github.com/reeeportnewsss/nww/pkg/logger"
)

// AIRepository is the language model behind the news steps.
type AIRepository interface {
	// FilterTitles returns the brokerage-related subset of titles, one per line.
	FilterTitles(ctx context.Context, titles string) (string, error)
	// SummarizeTitle returns a web-grounded summary of the article behind title.
	SummarizeTitle(ctx context.Context, title string) (string, error)
	// AnalyzeNews returns the model's reasoning and answer as "Thought summary:" and
	// "Answer:" sections.
	AnalyzeNews(ctx context.Context, prompt string) (string, error)
}

type geminiRepository struct {
	cfg            config.Gemini
	log            *logger.Logger
	keys           *KeyRing
	requestLimiter *rate.Limiter
	httpClient     *http.Client

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGeminiRepository creates an AIRepository that rotates over cfg.APIKeys.
func NewGeminiRepository(cfg config.Gemini, log *logger.Logger) (AIRepository, error) {
	keys, err := NewKeyRing(cfg.APIKeys, cfg.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini keys: %w", err)
	}

	limit := rate.Inf
	if cfg.MaxRequestPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.MaxRequestPerMinute))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &geminiRepository{
		cfg:            cfg,
		log:            log,
		keys:           keys,
		requestLimiter: rate.NewLimiter(limit, 1),
		httpClient:     &http.Client{Timeout: timeout},
		clients:        make(map[string]*genai.Client),
	}, nil
}

func (r *geminiRepository) FilterTitles(ctx context.Context, titles string) (string, error) {
	resp, err := r.generate(ctx, r.cfg.FilterModel, BuildTitleFilterPrompt(titles), &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(r.cfg.FilterThinkingBudget),
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (r *geminiRepository) SummarizeTitle(ctx context.Context, title string) (string, error) {
	resp, err := r.generate(ctx, r.cfg.SummaryModel, BuildTitleSummaryPrompt(title), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (r *geminiRepository) AnalyzeNews(ctx context.Context, prompt string) (string, error) {
	resp, err := r.generate(ctx, r.cfg.AnalyzeModel, prompt, &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(r.cfg.AnalyzeThinkingBudget),
		},
	})
	if err != nil {
		return "", err
	}
	return renderThoughtsAndAnswer(resp), nil
}

func (r *geminiRepository) generate(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	var resp *genai.GenerateContentResponse
	err := r.keys.Do(ctx, func(ctx context.Context, key string) error {
		if err := r.requestLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("failed to wait for request limit: %w", err)
		}

		client, err := r.client(ctx, key)
		if err != nil {
			return err
		}

		start := time.Now()
		out, err := client.Models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			r.log.WarnContext(ctx, "Gemini request failed, rotating key",
				logger.ErrorField(err),
				logger.StringField("model", model),
			)
			return err
		}
		if len(out.Candidates) == 0 || out.Candidates[0].Content == nil {
			return errors.New("gemini returned no candidates")
		}

		r.log.DebugContext(ctx, "Gemini request completed",
			logger.StringField("model", model),
			logger.DurationField("took", time.Since(start)),
		)
		resp = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", model, err)
	}
	return resp, nil
}

func (r *geminiRepository) client(ctx context.Context, key string) (*genai.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[key]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  r.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: r.cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	r.clients[key] = c
	return c, nil
}

func renderThoughtsAndAnswer(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		if part.Thought {
			sb.WriteString("Thought summary:\n" + part.Text + "\n\n")
		} else {
			sb.WriteString("Answer:\n" + part.Text + "\n\n")
		}
	}
	return sb.String()
}
