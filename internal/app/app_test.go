package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"sentiment-lens/internal/config"
	"sentiment-lens/internal/domain"
	"sentiment-lens/internal/export"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func testConfig() *config.Config {
	return &config.Config{
		PriceSource:     "coingecko",
		Assets:          domain.DefaultAssets,
		DefaultForums:   []string{"Bitcoin"},
		DefaultLimit:    50,
		DefaultPeriod:   "7d",
		DefaultInterval: "1h",
		FetchTimeout:    5 * time.Second,
		FetchMaxRetries: 2,
		MatchMode:       "word",
		SentimentModel:  "lexicon",
		ExportDir:       "out",
		LogLevel:        "info",
	}
}

func stubDeps(t *testing.T, redisErr, uploaderErr error) {
	t.Helper()
	origRedis, origUploader := initRedisFunc, newUploaderFunc
	t.Cleanup(func() { initRedisFunc, newUploaderFunc = origRedis, origUploader })

	initRedisFunc = func(context.Context, string) (*redis.Client, error) { return nil, redisErr }
	newUploaderFunc = func(context.Context, export.S3Config) (*export.S3Uploader, error) {
		if uploaderErr != nil {
			return nil, uploaderErr
		}
		return &export.S3Uploader{}, nil
	}
}

func TestBuild(t *testing.T) {
	stubDeps(t, nil, nil)
	a := Build(context.Background(), testConfig(), trace.NewNoopTracerProvider().Tracer("test"))
	defer a.Close()

	require.NotNil(t, a.Analysis)
	assert.Nil(t, a.Uploader)
	assert.Equal(t, "out", a.Sink.Dir)
	assert.Equal(t, "7d", a.Analysis.Defaults().Period)
	assert.Equal(t, 45*time.Second, a.RunTimeout())
	assert.False(t, a.CacheEnabled())
	assert.NotNil(t, a.Prices)
}

func TestBuildToleratesOptionalFailures(t *testing.T) {
	stubDeps(t, errors.New("redis down"), errors.New("no credentials"))
	cfg := testConfig()
	cfg.RedisURL = "localhost:6379"
	cfg.ExportS3Bucket = "exports"

	a := Build(context.Background(), cfg, trace.NewNoopTracerProvider().Tracer("test"))
	require.NotNil(t, a.Analysis)
	assert.Nil(t, a.Uploader)
	assert.Nil(t, a.Sink.Uploader)
}

func TestBuildWithUploader(t *testing.T) {
	stubDeps(t, nil, nil)
	cfg := testConfig()
	cfg.ExportS3Bucket = "exports"

	a := Build(context.Background(), cfg, trace.NewNoopTracerProvider().Tracer("test"))
	assert.NotNil(t, a.Uploader)
	assert.Same(t, a.Uploader, a.Sink.Uploader)
}

func TestConfigureLoggingKeepsDefaultsOnError(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "shouting"
	ConfigureLogging(cfg, "stderr")
}
