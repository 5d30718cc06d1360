package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lysyi3m/rss-fetcher/app/cfg"
	"github.com/lysyi3m/rss-fetcher/app/config"
	"github.com/lysyi3m/rss-fetcher/app/database"
	"github.com/lysyi3m/rss-fetcher/app/feed"
	"github.com/lysyi3m/rss-fetcher/app/logging"
	"github.com/lysyi3m/rss-fetcher/app/tasks"
)

var errPanic = errors.New("panic")

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	appCfg, err := cfg.Load(args)
	if err != nil {
		// go-flags has already printed the usage error
		return 2
	}
	if appCfg == nil {
		// Help was shown
		return 0
	}

	if appCfg.ShowVersion {
		fmt.Printf("rssfetcher %s\n", appCfg.Version)
		return 0
	}

	logger, closeLog, err := logging.New(logging.Options{
		Console: appCfg.Console(),
		File:    appCfg.LogFile,
		Debug:   appCfg.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "rssfetcher: failed to set up logging: %v\n", err)
		return 2
	}
	defer closeLog()

	if err := appCfg.Validate(); err != nil {
		logger.Error(err.Error())
		return exitCode(appCfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = recoverRun(logger, func() error {
		return run(ctx, appCfg, logger)
	})
	if err != nil {
		switch {
		case errors.Is(err, errPanic):
			// already logged with its stack
		case errors.Is(err, config.ErrConfigMissing):
			logger.Error(err.Error())
		default:
			logger.Error("main raised", zap.Error(err), zap.Stack("stack"))
		}
		return exitCode(appCfg)
	}

	return 0
}

// exitCode is the status for a failed run: success unless --strict-exit
func exitCode(appCfg *cfg.Cfg) int {
	if appCfg.StrictExit {
		return 1
	}
	return 0
}

// recoverRun calls fn and turns a panic into an error wrapping errPanic,
// logging it once with its stack.
func recoverRun(logger *zap.Logger, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("main raised", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	return fn()
}

// run performs one fetch pass
func run(ctx context.Context, appCfg *cfg.Cfg, logger *zap.Logger) error {
	logger.Debug("starting", zap.String("version", appCfg.Version), zap.String("config", appCfg.ConfigPath))

	fetcherCfg, err := config.NewLoader(appCfg.ConfigPath).Load()
	if err != nil {
		return err
	}
	logger.Debug("loaded feeds", zap.Strings("feeds", fetcherCfg.Feeds.IDs()))

	db, err := database.Open(ctx, fetcherCfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Debug("schema ready", zap.Uint("version", version), zap.Bool("dirty", dirty))

	client := feed.NewClient(
		fetcherCfg.UserAgent,
		fetcherCfg.Timeouts.GetConnectTimeout(),
		fetcherCfg.Timeouts.GetReadTimeout(),
		logger,
	)
	parser := feed.NewParser(logger)
	itemRepo := database.NewItemRepository(db)

	pipeline := tasks.NewPipeline(client, parser, itemRepo, fetcherCfg.Workers, logger)
	result, err := pipeline.Run(ctx, fetcherCfg.Feeds)
	if err != nil {
		return err
	}

	for _, failed := range result.Failed() {
		logger.Debug("feed failed", zap.String("feed", failed.FeedID), zap.String("url", failed.URL), zap.Error(failed.Err))
	}

	return nil
}
