// cmd/quotegen/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quotegen/internal/common/config"
	"quotegen/internal/common/logger"
	"quotegen/internal/common/observability"
	"quotegen/internal/common/validation"
	"quotegen/internal/fieldmap"
	"quotegen/internal/generator"
	"quotegen/internal/outputstore"
	"quotegen/internal/render"
	"quotegen/internal/requestparse"
	"quotegen/internal/server"
	"quotegen/internal/templatestore"
)

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting quotegen...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Re-create the logger with the configured level and format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log = logger.NewZapAdapter(zapLog)

	obs := observability.New("quotegen")
	defer obs.Shutdown()

	templates := templatestore.New(cfg.Folders.Templates, log)

	mappings, err := fieldmap.NewRegistry(cfg.Mappings)
	if err != nil {
		zapLog.Fatal("mapping registry init failed", zap.Error(err))
	}

	schemaSources := make(map[string]string, len(cfg.Mappings))
	for kind, mc := range cfg.Mappings {
		schemaSources[kind] = mc.Schema
	}
	schemas, err := validation.LoadSchemas(schemaSources)
	if err != nil {
		zapLog.Fatal("schema compilation failed", zap.Error(err))
	}

	output, err := outputstore.New(cfg.Folders.Output, cfg.Output.MaxNameAttempts, log)
	if err != nil {
		zapLog.Fatal("output folder init failed", zap.Error(err))
	}

	gen := generator.New(generator.Config{
		Templates: templates,
		Mappings:  mappings,
		Schemas:   schemas,
		Renderer:  render.New(log),
		Output:    output,
		Obs:       obs,
		Logger:    log,
	})

	srv := server.New(server.Config{
		Generator: gen,
		Templates: templates,
		Parser:    requestparse.New(cfg.Parser, log),
		ParserCfg: cfg.Parser,
		OutputDir: output.Dir(),
		Logger:    log,
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: srv.Handler(),
	}

	go func() {
		zapLog.Info("Console listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		zapLog.Warn("http server shutdown", zap.Error(err))
	}

	zapLog.Info("Stopped")
}
