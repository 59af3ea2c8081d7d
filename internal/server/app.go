// Package server wires the application together: storage, the order
// ledger and its surrounding services, the Telegram bot and the admin
// web view, with graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ordrebog/ordrebog/internal/logging"
	"github.com/ordrebog/ordrebog/internal/models"
	"github.com/ordrebog/ordrebog/internal/server/bot"
	"github.com/ordrebog/ordrebog/internal/server/config"
	"github.com/ordrebog/ordrebog/internal/server/repositories/docs"
	"github.com/ordrebog/ordrebog/internal/server/repositories/snapshots"
	"github.com/ordrebog/ordrebog/internal/server/services"
	"github.com/ordrebog/ordrebog/internal/server/web"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  docs.Store
	web    *web.Server
	bot    *bot.Bot
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init: %w", err)
	}

	snaps := snapshots.New(store)
	if err := seedCatalog(ctx, snaps); err != nil {
		store.Close()
		return nil, err
	}

	audit := services.NewAudit(snaps, logger)
	stats := services.NewStats(snaps, audit, cfg.StatsExcludeItems, logger)
	access := services.NewAccess(snaps, audit, logger)
	ledger := services.NewLedger(snaps, stats, audit, cfg.SessionPrefix, logger)

	app := &App{config: cfg, logger: logger, store: store}

	if cfg.TelegramToken != "" {
		b, err := bot.NewBot(cfg.TelegramToken, cfg.TelegramChatID, ledger, stats, access, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
		app.bot = b
	} else {
		logger.Warn(ctx, "no telegram token configured, bot disabled")
	}

	var notifier web.Notifier
	if app.bot != nil {
		notifier = app.bot
	}

	srv, err := web.NewServer(web.Options{
		Addr:         cfg.EndpointAddrHTTP,
		Ledger:       ledger,
		Stats:        stats,
		Access:       access,
		Audit:        audit,
		Notifier:     notifier,
		AdminKeyHash: cfg.AdminKeyHash,
		SecretKey:    cfg.SecretKey,
		TokenTTL:     cfg.AdminTokenValidityDuration,
		Logger:       logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("web server init: %w", err)
	}
	app.web = srv

	return app, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (docs.Store, error) {
	var (
		store docs.Store
		err   error
	)
	switch cfg.StorageDriver {
	case "file":
		store, err = docs.NewFile(cfg.DataDir)
	case "sqlite":
		store, err = docs.NewSQLite(ctx, cfg.DatabaseDSN)
	case "postgres":
		store, err = docs.NewPostgres(ctx, cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, err
	}
	return docs.NewRetrying(store, cfg.RetryAttempts, cfg.RetryBaseDelay, logger), nil
}

// seedCatalog installs the default catalog on first run.
func seedCatalog(ctx context.Context, snaps *snapshots.Gateway) error {
	catalog, err := snaps.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if !catalog.Empty() {
		return nil
	}
	if err := snaps.SaveCatalog(ctx, models.DefaultCatalog()); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "driver", app.config.StorageDriver)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.web.Run(ctx); err != nil {
			app.logger.Error(ctx, "web server stopped", "error", err)
			cancelFunc()
		}
	}()

	if app.bot != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.bot.Run(ctx); err != nil {
				app.logger.Error(ctx, "bot stopped", "error", err)
				cancelFunc()
			}
		}()
	}

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "storage close failed", "error", err)
	}
	app.logger.Info(ctx, "app stopped")
}
