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

	"github.com/joho/godotenv"

	"github.com/edubridge/tutor/backend/internal/analysis/topic"
	"github.com/edubridge/tutor/backend/internal/config"
	"github.com/edubridge/tutor/backend/internal/handler"
	"github.com/edubridge/tutor/backend/internal/metrics"
	"github.com/edubridge/tutor/backend/internal/scheduler"
	"github.com/edubridge/tutor/backend/internal/service/ai"
	"github.com/edubridge/tutor/backend/internal/service/chat"
	"github.com/edubridge/tutor/backend/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if envErr != nil {
		log.Infof("no .env file loaded (%v), continuing with system environment variables only", envErr)
	}

	m := metrics.New()
	selector := topic.DefaultSelector()

	static := ai.NewStaticResponder(selector, cfg.Tutor.Reply.DelayMin, cfg.Tutor.Reply.DelayMax)
	responder := ai.BuildResponder(ctx, cfg, static, m)
	aiService := ai.NewService(responder, m)

	sessions := chat.NewService(aiService, chat.Options{
		FeedbackPool: cfg.Tutor.Feedback.Pool,
		FeedbackTTL:  cfg.Tutor.Feedback.TTL,
		ReplyTimeout: cfg.Tutor.Reply.Timeout,
		Metrics:      m,
	})
	defer sessions.Shutdown()

	reaper, err := scheduler.NewScheduler(sessions, cfg.Tutor.Session.ReapSchedule, cfg.Tutor.Session.IdleTTL)
	if err != nil {
		log.Fatal("failed to schedule session reaper", err)
	}
	reaper.Start()
	defer reaper.Stop()

	translator := ai.BuildTranslator(cfg.Model)
	if translator.Enabled() {
		log.Info("translation endpoint configured")
	}

	router := handler.NewRouter(handler.Deps{
		Sessions:       sessions,
		Selector:       selector,
		Translator:     translator,
		Metrics:        m,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Infof("EduBridge tutor backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Error("server error", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
