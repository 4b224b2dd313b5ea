package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hyperliquid-mcp/internal/logger"
	"hyperliquid-mcp/internal/mcp"
	"hyperliquid-mcp/internal/session"
	"hyperliquid-mcp/internal/tools"
	"hyperliquid-mcp/internal/trace"
	"hyperliquid-mcp/internal/types"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := initializeSystem(cfg); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Info(ctx, "Shutting down...")
		cancel()
	}()

	sess := session.New(newClientFactory(cfg), types.Network(cfg.Network))
	registry := tools.NewRegistry()
	server := mcp.NewServer(sess, registry, os.Stdin, os.Stdout)

	logger.Info(ctx, "Server started", "network", cfg.Network, "streaming", cfg.Streaming.Enabled)

	if err := server.Run(ctx); err != nil && err != context.Canceled {
		logger.ErrorWithErr(ctx, "Server stopped with error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = trace.Shutdown(shutdownCtx)
	_ = logger.Shutdown(shutdownCtx)
}
