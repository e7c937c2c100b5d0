package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"claude-nodes/internal/nodes"
	"claude-nodes/internal/provider"
	"claude-nodes/internal/provider/anthropic"
	"claude-nodes/internal/provider/gateway"
	"claude-nodes/internal/server"
	"claude-nodes/pkg/config"
	"claude-nodes/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting node API server...",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.ModelID),
	)

	registry := nodes.DefaultRegistry(buildProvider(cfg), nodes.Defaults{
		Model:     cfg.ModelID,
		MaxTokens: cfg.MaxTokens,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(registry, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		return
	}

	log.Info("Server exited")
}

func buildProvider(cfg *config.Config) provider.Provider {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if cfg.Provider == config.ProviderGateway {
		return gateway.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey, timeout)
	}
	return anthropic.NewClient(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, timeout)
}
