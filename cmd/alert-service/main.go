package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reeeportnewsss/nww/internal/alert/config"
	"github.com/reeeportnewsss/nww/internal/alert/delivery/scheduler"
	"github.com/reeeportnewsss/nww/internal/alert/dto"
	"github.com/reeeportnewsss/nww/internal/alert/repository"
	"github.com/reeeportnewsss/nww/internal/alert/service"
	"github.com/reeeportnewsss/nww/internal/alert/strategy"
	"github.com/reeeportnewsss/nww/internal/entity"
	"github.com/reeeportnewsss/nww/pkg/common"
	"github.com/reeeportnewsss/nww/pkg/logger"
	"github.com/reeeportnewsss/nww/pkg/redis"
	"github.com/reeeportnewsss/nww/pkg/telegram"
	"github.com/reeeportnewsss/nww/pkg/utils"
)

var (
	configPath  string
	failOnError bool
)

var sourceArgs = map[string][]entity.SourceType{
	"annual-reports": {entity.SourceTypeAnnualReports},
	"rsi-oversold":   {entity.SourceTypeRSIOversold},
	"all":            {entity.SourceTypeAnnualReports, entity.SourceTypeRSIOversold},
}

var runCmd = &cobra.Command{
	Use:       "run [annual-reports|rsi-oversold|all]",
	Short:     "Runs the selected pipelines once and exits",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"annual-reports", "rsi-oversold", "all"},
	RunE:      runOnce,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Runs the enabled pipelines on their cron expressions until interrupted",
	RunE:  runSchedule,
}

// app holds what every subcommand needs after start-up.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	loc       *time.Location
	pipelines map[entity.SourceType]service.PipelineService
	closers   []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c()
	}
	_ = a.log.Sync()
}

func newApp(sources []entity.SourceType) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Info("Starting Alert Service", zap.String("name", cfg.App.Name), zap.String("env", cfg.App.Env))

	loc, err := utils.LoadLocation(cfg.App.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone: %w", err)
	}

	a := &app{
		cfg:       cfg,
		log:       appLogger,
		loc:       loc,
		pipelines: make(map[entity.SourceType]service.PipelineService),
	}

	notifier, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize telegram notifier: %w", err)
	}

	var redisClient *redis.Client
	if cfg.SentSet.Backend == config.SentSetBackendRedis {
		redisClient, err = redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.closers = append(a.closers, redisClient.Close)
	}

	pageRepo := repository.NewPageRepository(cfg.Screener, appLogger)

	for _, source := range sources {
		pipelineCfg := cfg.Pipeline(source)
		if !pipelineCfg.Enabled {
			appLogger.Info("Pipeline disabled", zap.String("source", string(source)))
			continue
		}
		if pipelineCfg.ChatID == "" {
			a.Close()
			return nil, fmt.Errorf("%s: no chat id configured", source)
		}

		var recordSource strategy.RecordSource
		switch source {
		case entity.SourceTypeAnnualReports:
			recordSource = strategy.NewAnnualReportsStrategy(cfg.Screener.BaseURL)
		case entity.SourceTypeRSIOversold:
			recordSource = strategy.NewRSIOversoldStrategy(cfg.Screener.BaseURL)
		}

		var sentSet repository.SentSetRepository
		if redisClient != nil {
			sentSet = repository.NewRedisSentSetRepository(redisClient.Client, pipelineCfg.RedisKey, cfg.SentSet.TTL, appLogger)
		} else {
			sentSet = repository.NewFileSentSetRepository(pipelineCfg.SentSetPath, appLogger)
		}

		notifierSvc := service.NewNotifierService(notifier, recordSource, pipelineCfg.ChatID, pipelineCfg.DigestCap, nil, loc, appLogger)
		a.pipelines[source] = service.NewPipelineService(pipelineCfg, recordSource, pageRepo, sentSet, notifierSvc, nil, loc, appLogger)
	}

	return a, nil
}

func runOnce(cmd *cobra.Command, args []string) error {
	sources := sourceArgs[args[0]]
	a, err := newApp(sources)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var failed []dto.RunResult
	for _, source := range sources {
		pipeline, ok := a.pipelines[source]
		if !ok {
			continue
		}
		if result := pipeline.Run(ctx); result.Status != common.SUCCESS {
			failed = append(failed, result)
		}
	}

	if len(failed) > 0 && failOnError {
		a.log.Error("Runs did not complete successfully", zap.Int("count", len(failed)))
		a.Close()
		os.Exit(1)
	}
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, err := newApp(sourceArgs["all"])
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer a.Close()

	cronScheduler := scheduler.NewCronScheduler(a.loc, a.log)
	for source, pipeline := range a.pipelines {
		if err := cronScheduler.Register(a.cfg.Pipeline(source).Cron, pipeline); err != nil {
			a.log.Fatal("Failed to schedule pipeline", logger.ErrorField(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cronScheduler.Start(ctx)

	a.log.Info("Alert service scheduler started. Waiting for ticks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.log.Info("Shutting down alert service...")
	cronScheduler.Stop()
	a.log.Info("Alert service stopped.")
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "alert-service",
		Short: "Screener alerts relayed to Telegram",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-alert.yaml", "Path to the configuration file")
	runCmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit with status 1 when any run is not successful")

	rootCmd.AddCommand(runCmd, scheduleCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing alert-service CLI: %s\n", err)
		os.Exit(1)
	}
}
