package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"raganswer/internal/app"
	"raganswer/internal/config"
	"raganswer/internal/httpapi"
	"raganswer/internal/logger"
	"raganswer/internal/source"
	"raganswer/internal/watch"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		// no logging section to honour yet
		logger.NewDefault().Error("failed to load config", "path", *cfgPath, "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.NewService(cfg, log)
	if err != nil {
		return err
	}
	// the service still answers with a sentinel when sources are invalid
	if _, err := svc.Initialize(ctx, false); err != nil {
		log.Error("startup indexing failed", "error", err)
	}

	if cfg.Indexing.WatchSources {
		w, err := watch.New(source.Paths(svc.Sources()), watch.DefaultDebounce, func(ctx context.Context, changed []string) {
			log.Info("data sources changed, reindexing", "paths", changed)
			if _, err := svc.Initialize(ctx, true); err != nil {
				log.Warn("reindex after source change failed", "error", err)
			}
		}, log)
		if err != nil {
			log.Warn("source watching disabled", "error", err)
		} else {
			go func() { _ = w.Run(ctx) }()
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.NewHandlers(svc, log), log)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
