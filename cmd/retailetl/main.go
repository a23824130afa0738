// Command retailetl runs the retail analytics batch pipeline: it loads the
// four CSV datasets, cleans them, computes the consolidated metrics and
// business insights, exports the bundle as JSON, and optionally records the
// run in a history sink.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"retailetl/internal/config"
	"retailetl/internal/export"
	"retailetl/internal/loader"
	"retailetl/internal/metrics"
	"retailetl/internal/metrics/prompush"
	"retailetl/internal/pipeline"
	"retailetl/internal/storage"

	// register all run-history backends with the storage factory; the
	// config decides which one is used.
	_ "retailetl/internal/storage/all"
)

func main() {
	var (
		cfgPath  string
		validate bool
		verbose  bool
	)
	flag.StringVar(&cfgPath, "config", "configs/run.json", "run config JSON path")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&verbose, "v", false, "enable debug logs")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	issues := config.Validate(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid: %s", cfgPath)
	}
	if validate {
		fmt.Printf("configuration is valid: %s\n", cfgPath)
		return
	}

	logger := newLogger(verbose)
	defer logger.Sync()

	job := cfg.Job
	if job == "" {
		job = "retailetl"
	}

	setupMetrics(logger, job, cfg.Metrics)
	defer func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn("metrics flush failed", zap.Error(err))
		}
	}()

	ctx := context.Background()
	start := time.Now()

	raw, err := loader.Loader{Dir: cfg.Source.DataDir}.Load()
	if err != nil {
		logger.Fatal("load datasets", zap.Error(err))
	}

	p := pipeline.Pipeline{Job: job, Logger: logger}
	res, err := p.Run(ctx, raw)
	if err != nil {
		logger.Fatal("pipeline failed", zap.Error(err))
	}

	if err := export.Write(cfg.Export.OutputDir, res.Bundle); err != nil {
		logger.Fatal("export bundle", zap.Error(err))
	}
	logger.Info("bundle exported", zap.String("dir", cfg.Export.OutputDir))

	if cfg.Storage.Kind != "" {
		if err := saveRun(ctx, cfg, job, res); err != nil {
			logger.Fatal("save run history", zap.Error(err))
		}
		logger.Info("run recorded", zap.String("kind", cfg.Storage.Kind))
	}

	logger.Info("done", zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
}

func newLogger(verbose bool) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	logger, err := zcfg.Build()
	if err != nil {
		fatalf("init logger: %v", err)
	}
	return logger
}

func setupMetrics(logger *zap.Logger, job string, cfg config.Metrics) {
	switch cfg.Backend {
	case "pushgateway":
		url := cfg.PushgatewayURL
		if url == "" {
			url = os.Getenv("PUSHGATEWAY_URL")
		}
		if url == "" {
			url = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, url)
		if err != nil {
			logger.Warn("metrics backend init failed; using nop", zap.Error(err))
			return
		}
		logger.Info("metrics enabled", zap.String("backend", "pushgateway"), zap.String("url", url))
		metrics.SetBackend(b)

	case "", "none":
		// nop backend remains

	default:
		logger.Warn("unknown metrics backend; metrics disabled", zap.String("backend", cfg.Backend))
	}
}

func saveRun(ctx context.Context, cfg config.Run, job string, res *pipeline.Result) error {
	repo, err := storage.New(ctx, storage.Config{
		Kind:  cfg.Storage.Kind,
		DSN:   cfg.Storage.DSN,
		Table: cfg.Storage.Table,
	})
	if err != nil {
		return err
	}
	defer repo.Close()

	bundleJSON, err := json.Marshal(res.Bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	var totalRevenue float64
	for _, r := range res.Bundle.RevenueByRegion {
		totalRevenue += r.TotalRevenue
	}

	return repo.SaveRun(ctx, storage.RunRecord{
		Job:            job,
		RanAt:          res.RanAt,
		InputDigest:    fmt.Sprintf("%016x", res.InputDigest),
		CustomersKept:  res.CustomersKept,
		ProductsKept:   res.ProductsKept,
		SalesKept:      res.SalesKept,
		InventoryRows:  res.InventoryRows,
		TotalRevenue:   totalRevenue,
		ChurnRate:      res.Bundle.CustomerSummary.ChurnRate,
		ProductsAtRisk: res.Bundle.InventoryInsights.TotalProductsAtRisk,
		InsightCount:   len(res.Bundle.BusinessInsights),
		Bundle:         bundleJSON,
	})
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
