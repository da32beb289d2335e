// Package main runs the Open Supply Hub MCP bridge.
//
// The bridge speaks line-delimited JSON-RPC 2.0 on stdin/stdout by
// default; set OS_HUB_LISTEN_ADDR to serve WebSocket clients instead.
// All diagnostics go to stderr, stdout belongs to the protocol.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	oshubmcp "github.com/opensupplyhub/os-hub-mcp"
	"github.com/opensupplyhub/os-hub-mcp/config"
	"github.com/opensupplyhub/os-hub-mcp/oshub"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "os-hub-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client := oshub.NewClient(cfg.APIKey,
		oshub.WithBaseURL(cfg.BaseURL),
		oshub.WithTimeout(cfg.RequestTimeout),
	)

	srv := oshubmcp.New(client)

	mws := oshubmcp.DefaultMiddlewareWithTimeout(oshubmcp.NewZapLogger(logger), cfg.RequestTimeout)
	if cfg.RateLimit > 0 {
		mws = append(mws, oshubmcp.RateLimit(cfg.RateLimit, cfg.RateBurst))
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	if cfg.ListenAddr != "" {
		logger.Info("serving websocket",
			zap.String("addr", cfg.ListenAddr),
			zap.String("upstream", cfg.BaseURL),
		)
		err = oshubmcp.ServeWebSocketWithMiddleware(ctx, srv, cfg.ListenAddr,
			[]oshubmcp.WebSocketOption{
				oshubmcp.WithWebSocketReadTimeout(cfg.RequestTimeout),
				oshubmcp.WithWebSocketWriteTimeout(cfg.RequestTimeout),
			},
			oshubmcp.WithMiddleware(mws...),
		)
	} else {
		logger.Info("serving stdio", zap.String("upstream", cfg.BaseURL))
		err = oshubmcp.ServeStdio(ctx, srv, oshubmcp.WithMiddleware(mws...))
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newLogger builds a production zap logger writing to stderr only.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}
