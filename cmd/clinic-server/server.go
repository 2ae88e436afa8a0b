package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/clinicbot/clinic/internal/config"
	"github.com/clinicbot/clinic/internal/domain/account"
	"github.com/clinicbot/clinic/internal/domain/billing"
	"github.com/clinicbot/clinic/internal/domain/chat"
	"github.com/clinicbot/clinic/internal/domain/clinic"
	"github.com/clinicbot/clinic/internal/domain/medication"
	"github.com/clinicbot/clinic/internal/domain/records"
	"github.com/clinicbot/clinic/internal/domain/scheduling"
	"github.com/clinicbot/clinic/internal/platform/auth"
	"github.com/clinicbot/clinic/internal/platform/db"
	"github.com/clinicbot/clinic/internal/platform/jobs"
	"github.com/clinicbot/clinic/internal/platform/middleware"
	"github.com/clinicbot/clinic/internal/platform/nlu"
	"github.com/clinicbot/clinic/internal/platform/notification"
	"github.com/clinicbot/clinic/migrations"
)

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := func() time.Time { return time.Now().In(loc) }

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	if cfg.AutoMigrate {
		n, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
		if err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		logger.Info().Int("applied", n).Msg("migrations applied")
	}
	tx := db.NewTxManager(pool)

	// Sessions
	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTTTL)
	revocations := auth.NewTokenRevocationStore(time.Minute)
	defer revocations.Close()

	// Services
	templates := notification.NewTemplateEngine()
	recordsSvc := records.NewService(
		records.NewHealthRecordRepoPG(pool),
		records.NewReminderRepoPG(pool),
		records.NewPostCareRepoPG(pool),
		templates,
	).WithClock(clock)
	reminders := notification.NewNotifier(templates, recordsSvc)

	billingSvc := billing.NewService(
		billing.NewBillRepoPG(pool),
		billing.NewPaymentRepoPG(pool),
		billing.NewPlanRepoPG(pool),
		tx,
	)
	engine := scheduling.NewEngine(
		scheduling.NewDoctorRepoPG(pool),
		scheduling.NewAppointmentRepoPG(pool),
		billingSvc,
		tx,
	).WithClock(clock)
	medSvc := medication.NewService(medication.NewPrescriptionRepoPG(pool), reminders, tx).WithClock(clock)

	accountSvc := account.NewService(
		account.NewUserRepoPG(pool),
		account.NewProfileRepoPG(pool),
		account.NewResetRepoPG(pool),
		tx,
		issuer,
		revocations,
		// no mail transport yet: reset links go to the log
		notification.NewNotifier(templates, notification.LogSink{Logger: logger}),
		logger.With().Str("component", "account").Logger(),
	).WithClock(clock)
	directory := clinic.NewDirectory(clinic.NewRepoPG(pool))

	nluClient, err := newNLUClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer nluClient.Close()

	router := chat.NewRouter(chat.Deps{
		Accounts:      accountSvc,
		Scheduler:     engine,
		Bills:         billingSvc,
		Prescriptions: medSvc,
		Clinic:        directory,
		NLU:           nluClient,
		Language:      cfg.NLULanguage,
		Logger:        logger.With().Str("component", "chat").Logger(),
	})

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(auth.SessionMiddleware(auth.SessionConfig{
		Issuer:      issuer,
		Revocations: revocations,
		Accounts:    accountSvc,
		Skipper:     auth.AuthSkipper,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	apiV1.Use(db.ConnMiddleware(pool))

	account.NewHandler(accountSvc).RegisterRoutes(apiV1)
	scheduling.NewHandler(engine).RegisterRoutes(apiV1)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)
	medication.NewHandler(medSvc).RegisterRoutes(apiV1)
	records.NewHandler(recordsSvc).RegisterRoutes(apiV1)
	clinic.NewHandler(directory).RegisterRoutes(apiV1)
	chat.NewHandler(router, revocations).RegisterRoutes(apiV1)

	// Background jobs
	var runner *jobs.Runner
	if cfg.JobsEnabled {
		runner = jobs.New(engine, medSvc, reminders, logger).WithLocation(loc)
		if err := runner.Start(cfg.ReminderSchedule); err != nil {
			return err
		}
	}

	// Graceful shutdown
	serveErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		logger.Error().Err(err).Msg("server error")
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if runner != nil {
		runner.Stop(shutdownCtx)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newNLUClient(ctx context.Context, cfg *config.Config) (nlu.Client, error) {
	if !cfg.NLUEnabled() {
		if cfg.IsDev() {
			return nlu.NewStatic(nlu.DevReplies()), nil
		}
		return nlu.Noop{}, nil
	}
	client, err := nlu.NewDialogflow(ctx, nlu.DialogflowConfig{
		ProjectID:       cfg.NLUProjectID,
		CredentialsFile: cfg.NLUCredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("create nlu client: %w", err)
	}
	return client, nil
}
