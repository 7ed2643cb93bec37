package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"sentiment-lens/internal/app"
	"sentiment-lens/internal/config"
	"sentiment-lens/internal/domain"
	"sentiment-lens/internal/export"
	"sentiment-lens/pkg/logger"
	"sentiment-lens/pkg/tracing"

	"github.com/joho/godotenv"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	buildAppFunc   = app.Build
	exitFunc       = os.Exit
)

type analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Analysis, error)
}

type saver interface {
	Save(ctx context.Context, a *domain.Analysis, format string) (string, error)
}

type options struct {
	req         domain.AnalysisRequest
	format      string
	out         string
	compression string
}

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	app.ConfigureLogging(cfg, "stderr")
	log := logger.Get().WithComponent("cli")

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			exitFunc(0)
			return
		}
		log.WithError(err).Error("invalid arguments")
		exitFunc(2)
		return
	}
	opts.compression = cfg.ParquetCompression

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, tracer, err := initTracerFunc(ctx, "cli")
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracer")
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	a := buildAppFunc(ctx, cfg, tracer)
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, a.RunTimeout())
	defer cancel()

	if err := run(ctx, opts, a.Analysis, a.Sink, os.Stdout); err != nil {
		log.WithError(err).Error("analysis failed")
		exitFunc(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	var forums string
	fs.StringVar(&opts.req.Symbol, "symbol", "", "asset symbol or raw ticker (required)")
	fs.StringVar(&forums, "forums", "", "comma separated forums (default from config)")
	fs.IntVar(&opts.req.Limit, "limit", 0, "posts per forum (default from config)")
	fs.StringVar(&opts.req.Period, "period", "", "price history period, e.g. 7d")
	fs.StringVar(&opts.req.Interval, "interval", "", "price bar interval, e.g. 1h")
	fs.StringVar(&opts.req.PriceSource, "source", "", "price source: yahoo, coingecko or binance")
	fs.StringVar(&opts.format, "format", "json", "output format: json, csv or parquet")
	fs.StringVar(&opts.out, "out", "", "output file; csv and parquet default to the export sink")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.req.Symbol == "" && fs.NArg() > 0 {
		opts.req.Symbol = fs.Arg(0)
	}
	if strings.TrimSpace(opts.req.Symbol) == "" {
		return options{}, errors.New("-symbol is required")
	}
	for _, f := range strings.Split(forums, ",") {
		if f = strings.TrimSpace(f); f != "" {
			opts.req.Forums = append(opts.req.Forums, f)
		}
	}
	opts.format = strings.ToLower(opts.format)
	switch opts.format {
	case "json", export.FormatCSV, export.FormatParquet:
	default:
		return options{}, fmt.Errorf("unsupported format %q", opts.format)
	}
	opts.req.Surface = "cli"
	return opts, nil
}

func run(ctx context.Context, opts options, analysis analyzer, sink saver, stdout io.Writer) error {
	log := logger.Get().WithComponent("cli")

	result, err := analysis.Analyze(ctx, opts.req)
	if err != nil {
		return err
	}
	log.WithFields(logger.Fields{
		"run_id":   result.RunID,
		"symbol":   result.Symbol,
		"events":   result.Summary.Events,
		"priced":   result.Summary.RecordsWithPrice,
		"polarity": result.Summary.MeanPolarity,
	}).Info("analysis complete")

	if opts.format == "json" {
		w := stdout
		if opts.out != "" {
			f, err := os.Create(opts.out)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			w = f
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if opts.out == "" {
		location, err := sink.Save(ctx, result, opts.format)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, location)
		return nil
	}

	art, err := export.Encode(result, opts.format, opts.compression)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.out, art.Data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintln(stdout, opts.out)
	return nil
}
