package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/justsurfingit/interview-scheduler/internal/auth"
	"github.com/justsurfingit/interview-scheduler/internal/config"
	"github.com/justsurfingit/interview-scheduler/internal/database"
	"github.com/justsurfingit/interview-scheduler/internal/handlers"
	"github.com/justsurfingit/interview-scheduler/internal/logger"
	"github.com/justsurfingit/interview-scheduler/internal/middleware"
	"github.com/justsurfingit/interview-scheduler/internal/services"
)

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	zlog.Info("starting interview scheduler", zap.Stringer("config", cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database (connect also migrates)
	db, err := database.Connect(cfg.DB, zlog)
	if err != nil {
		return err
	}

	// 3. Core services
	interviews := services.NewInterviewService(db)

	// 4. Gmail, only when configured. A nil Mailer turns reminders off.
	var mailer services.Mailer
	if cfg.Gmail.Enabled {
		m, err := newGmailMailer(ctx, cfg.Gmail, zlog)
		if err != nil {
			zlog.Warn("gmail unavailable, reminders disabled", zap.Error(err))
		} else {
			mailer = m
			zlog.Info("gmail service connected")
		}
	}
	reminders := services.NewReminderService(interviews, mailer, zlog.Named("reminders"),
		cfg.DefaultLocation(), cfg.Reminder.Interval, cfg.Reminder.Lead)

	// 5. HTTP
	var limiter *middleware.IPRateLimiter
	if cfg.Limiter.Enabled {
		limiter = middleware.NewIPRateLimiter(cfg.Limiter.RPS, cfg.Limiter.Burst)
	}
	router, err := handlers.NewRouter(handlers.RouterConfig{
		Tokens:      auth.NewTokenMaker(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL),
		Interviews:  handlers.NewInterviewHandler(interviews, reminders, zlog),
		Calendar:    handlers.NewCalendarHandler(interviews, cfg.DefaultLocation(), zlog),
		CORSOrigins: cfg.CORSOrigins(),
		Limiter:     limiter,
		Log:         zlog,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		reminders.Run(gctx)
		return nil
	})
	if limiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if n := limiter.Prune(3 * time.Minute); n > 0 {
						zlog.Debug("pruned rate limiter clients", zap.Int("count", n))
					}
				}
			}
		})
	}

	return g.Wait()
}

func newGmailMailer(ctx context.Context, cfg config.GmailConfig, zlog *zap.Logger) (*services.GmailMailer, error) {
	ga := auth.GmailAuth{CredentialsFile: cfg.CredentialsFile, TokenFile: cfg.TokenFile}
	// The browser flow needs someone at the keyboard.
	if isatty.IsTerminal(os.Stdin.Fd()) {
		ga.Prompt, ga.Out = os.Stdin, os.Stdout
	}
	httpClient, err := ga.Client(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &services.GmailMailer{Service: svc, UserID: cfg.Sender, Log: zlog.Named("gmail")}, nil
}
