package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evalnotify_backend/internal/config"
	"evalnotify_backend/internal/email"
	apphttp "evalnotify_backend/internal/http"
	"evalnotify_backend/internal/http/router"
	"evalnotify_backend/internal/notify"
	"evalnotify_backend/internal/scheduler"
	"evalnotify_backend/internal/settings"
	"evalnotify_backend/internal/smartsheet"
	"evalnotify_backend/platform/db"
	"evalnotify_backend/platform/logger"
	"evalnotify_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg.DatabaseURL, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	settingsModule := settings.NewModule(pool, val)
	store := settingsModule.Repository()

	if cfg.SettingsSeedFile != "" {
		seed, err := settings.LoadSeedFile(cfg.SettingsSeedFile)
		if err != nil {
			log.Error("failed to load settings seed", "error", err, "file", cfg.SettingsSeedFile)
			panic("failed to load settings seed: " + err.Error())
		}
		if err := store.ApplySeed(ctx, seed); err != nil {
			log.Error("failed to apply settings seed", "error", err)
			panic("failed to apply settings seed: " + err.Error())
		}
	}

	sheetClient := smartsheet.NewClient(cfg.SmartsheetBaseURL, cfg.SmartsheetToken, cfg.SheetID, log)
	fetcher := notify.NewSheetFetcher(sheetClient, store)

	sender := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	dispatcher := notify.NewDispatcher(store, sender, cfg.EmailFromName, cfg.EmailFromAddress, log)

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	flow := notify.NewFlow(fetcher, store, dispatcher, reminderScheduler, cfg.Timezone, log)

	notifyHandler := notify.NewHandler(flow, store, sheetClient, store, cfg.CallbackURL, val, log)
	notifyModule := notify.NewModule(notifyHandler)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			notifyModule,
			settingsModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func initReminderScheduler(cfg *config.Config, log *logger.Logger) (notify.ReminderScheduler, func()) {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not configured; reminder scheduling disabled")
		return noopScheduler{log: log}, nil
	}

	client, err := scheduler.NewClient(cfg.RedisURL, cfg.RedisTLSInsecure, cfg.AsynqQueue)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return noopScheduler{log: log}, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

// noopScheduler accepts scheduling requests and drops them with a warning.
// Used when Redis is not configured so the immediate email still works.
type noopScheduler struct {
	log *logger.Logger
}

func (s noopScheduler) ScheduleReminder(_ context.Context, rowID int64, service notify.Service, kind notify.EmailKind, runAt time.Time) error {
	s.log.Warn("reminder dropped, scheduler not configured",
		"row_id", rowID, "service", string(service), "kind", string(kind), "fire_at", runAt)
	return nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
