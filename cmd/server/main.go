package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentiment-lens/internal/app"
	"sentiment-lens/internal/bot"
	"sentiment-lens/internal/config"
	"sentiment-lens/internal/handler"
	"sentiment-lens/internal/job"
	"sentiment-lens/pkg/logger"
	"sentiment-lens/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "sentiment-lens/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initTracerFunc         = tracing.InitTracer
	buildAppFunc           = app.Build
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Sentiment Lens API
// @version         1.0
// @description     Crypto forum sentiment joined to the most recent closing price.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	app.ConfigureLogging(cfg, "stdout")
	log := logger.Get().WithComponent("server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, "server")
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("error shutting down tracer provider")
		}
	}()

	a := buildAppFunc(ctx, cfg, tracer)
	defer a.Close()

	startTelegramBotFunc(cfg.TelegramBotToken, a.Analysis)

	if cfg.CacheWarmInterval > 0 && a.CacheEnabled() {
		warmer := job.NewCacheWarmer(tracer, a.Prices, a.Assets.Symbols(),
			cfg.DefaultPeriod, cfg.DefaultInterval, cfg.CacheWarmInterval, cfg.CacheWarmBatch)
		go warmer.Start(ctx)
	}

	var uploader handler.Uploader
	if a.Uploader != nil {
		uploader = a.Uploader
	}
	h := newHandlerFunc(tracer, a.Analysis, uploader, cfg.ParquetCompression)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logger.Fields{"addr": srv.Addr}).Info("HTTP server listening")
		if err := startHTTPServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("Server exiting")
}
