package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	alertrepository "github.com/reeeportnewsss/nww/internal/alert/repository"
	"github.com/reeeportnewsss/nww/internal/news/config"
	"github.com/reeeportnewsss/nww/internal/news/repository"
	"github.com/reeeportnewsss/nww/internal/news/service"
	"github.com/reeeportnewsss/nww/pkg/logger"
)

const (
	deliverEmail = "email"
	deliverSFTP  = "sftp"
)

var (
	configPath string
	deliver    string
)

// step builds the service and runs one step of it. needsAI is false for the steps that
// never call the model, so they work without API keys.
func step(needsAI bool, run func(ctx context.Context, cfg *config.Config, svc service.NewsService, log *logger.Logger) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer func() { _ = appLogger.Sync() }()

		appLogger.Info("Starting News Service", zap.String("name", cfg.App.Name), zap.String("step", cmd.Name()))

		var aiRepo repository.AIRepository
		if needsAI {
			if err := cfg.ValidateGemini(); err != nil {
				appLogger.Fatal("Invalid gemini configuration", logger.ErrorField(err))
			}
			aiRepo, err = repository.NewGeminiRepository(cfg.Gemini, appLogger)
			if err != nil {
				appLogger.Fatal("Failed to initialize Gemini repository", logger.ErrorField(err))
			}
		}

		svc := service.NewNewsService(
			cfg.Files,
			repository.NewCompanyRepository(cfg.Files.Companies, appLogger),
			repository.NewFeedRepository(cfg.Feed, appLogger),
			aiRepo,
			alertrepository.NewFileSentSetRepository(cfg.Files.ProcessedTitles, appLogger),
			nil,
			appLogger,
		)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := run(ctx, cfg, svc, appLogger); err != nil {
			appLogger.Error("Step failed", zap.String("step", cmd.Name()), logger.ErrorField(err))
			return err
		}
		appLogger.Info("Step completed", zap.String("step", cmd.Name()))
		return nil
	}
}

func newCommands() []*cobra.Command {
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetches recent Google News headlines for every listed company",
		RunE: step(false, func(ctx context.Context, _ *config.Config, svc service.NewsService, _ *logger.Logger) error {
			return svc.Fetch(ctx)
		}),
	}
	filterCmd := &cobra.Command{
		Use:   "filter",
		Short: "Keeps the brokerage-related headlines",
		RunE: step(true, func(ctx context.Context, _ *config.Config, svc service.NewsService, _ *logger.Logger) error {
			return svc.Filter(ctx)
		}),
	}
	summarizeCmd := &cobra.Command{
		Use:   "summarize",
		Short: "Writes a web-grounded summary for every new headline",
		RunE: step(true, func(ctx context.Context, _ *config.Config, svc service.NewsService, _ *logger.Logger) error {
			return svc.Summarize(ctx)
		}),
	}
	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "Prefixes the collected news with the analysis instruction",
		RunE: step(false, func(ctx context.Context, _ *config.Config, svc service.NewsService, _ *logger.Logger) error {
			return svc.Prompt(ctx)
		}),
	}
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyzes the collected news and delivers the report",
		RunE: step(true, func(ctx context.Context, cfg *config.Config, svc service.NewsService, appLogger *logger.Logger) error {
			var sender repository.ReportSender
			switch deliver {
			case deliverEmail:
				if err := cfg.ValidateEmail(); err != nil {
					return err
				}
				sender = repository.NewEmailSender(cfg.Email, appLogger)
			case deliverSFTP:
				if err := cfg.ValidateSFTP(); err != nil {
					return err
				}
				sender = repository.NewSFTPSender(cfg.SFTP, cfg.Files.OutputDir, appLogger)
			default:
				return fmt.Errorf("unknown delivery %q, want %q or %q", deliver, deliverEmail, deliverSFTP)
			}
			return svc.Analyze(ctx, sender)
		}),
	}
	analyzeCmd.Flags().StringVar(&deliver, "deliver", deliverEmail, "Report delivery: email or sftp")

	return []*cobra.Command{fetchCmd, filterCmd, summarizeCmd, promptCmd, analyzeCmd}
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "news-service",
		Short:        "Market news collection and analysis",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-news.yaml", "Path to the configuration file")
	rootCmd.AddCommand(newCommands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing news-service CLI: %s\n", err)
		os.Exit(1)
	}
}
