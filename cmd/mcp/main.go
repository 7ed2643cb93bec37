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

	"sentiment-lens/internal/app"
	"sentiment-lens/internal/config"
	"sentiment-lens/internal/mcpserver"
	"sentiment-lens/pkg/logger"
	"sentiment-lens/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	buildAppFunc   = app.Build
	runStdioFunc   = func(ctx context.Context, server *mcp.Server) error {
		return server.Run(ctx, &mcp.StdioTransport{})
	}
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	// stdout carries the stdio protocol
	app.ConfigureLogging(cfg, "stderr")
	log := logger.Get().WithComponent("mcp")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, tracer, err := initTracerFunc(ctx, "mcp")
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("error shutting down tracer provider")
		}
	}()

	a := buildAppFunc(ctx, cfg, tracer)
	defer a.Close()

	server := mcpserver.New(a.Analysis, mcpserver.Options{RequestTimeout: cfg.MCPRequestTimeout})

	if err := run(ctx, cfg, server); err != nil {
		log.WithError(err).Error("MCP server stopped")
		os.Exit(1)
	}
	log.Info("MCP server exited")
}

func run(ctx context.Context, cfg *config.Config, server *mcp.Server) error {
	log := logger.Get().WithComponent("mcp")
	if cfg.MCPTransport != "http" {
		log.Info("serving MCP over stdio")
		if err := runStdioFunc(ctx, server); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	if cfg.MCPAuthToken == "" && cfg.MCPHTTPBind != "127.0.0.1" && cfg.MCPHTTPBind != "localhost" {
		log.Warn("MCP HTTP transport is exposed without MCP_AUTH_TOKEN")
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort),
		Handler:           mcpserver.HTTPHandler(server, cfg.MCPAuthToken),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logger.Fields{"addr": srv.Addr}).Info("serving MCP over HTTP")
		errCh <- startHTTPServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return shutdownHTTPServerFunc(srv, shutdownCtx)
}
