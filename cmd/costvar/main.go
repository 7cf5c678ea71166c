package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"costvar/internal/config"
	"costvar/internal/costvariable"
	"costvar/internal/loader"
	"costvar/internal/metrics"
	"costvar/internal/metrics/datadog"
	"costvar/internal/storage"
	"costvar/internal/table"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "costvar/internal/storage/all"
)

// main loads the run configuration, reads the reference tables, derives
// the CostVariable table and persists it through the configured backend.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/costvariable.sample.json", "run config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (datadog, none)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	log, err := newLogger(*verbose)
	if err != nil {
		fatalf("logger: %v", err)
	}
	defer log.Sync()

	run, err := config.LoadRun(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	issues := config.ValidateRun(run)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid: %v", cfgPath)
	}
	if validate {
		fmt.Printf("configuration is valid: %v\n", cfgPath)
		return
	}

	// Decide metrics backend: flag → env → default (none).
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	mb := metrics.NewNop()
	switch backendName {
	case "datadog":
		jobName := run.Job
		if jobName == "" {
			jobName = "costvar"
		}
		b := datadog.New(datadog.Options{
			JobName:    jobName,
			Tags:       datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")),
			FlushEvery: 60 * time.Second,
		})
		defer func() {
			if err := b.Close(context.Background()); err != nil {
				log.Warn("metrics close", zap.Error(err))
			}
		}()
		mb = b
		log.Info("metrics enabled", zap.String("backend", backendName), zap.String("job", jobName))

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		log.Warn("unknown metrics backend, metrics disabled", zap.String("backend", backendName))
	}

	ctx := context.Background()
	if err := runPass(ctx, run, log, mb); err != nil {
		log.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func runPass(ctx context.Context, run config.Run, log *zap.Logger, mb metrics.Backend) error {
	start := time.Now()

	in, err := loader.Load(ctx, run.Inputs, log)
	if err != nil {
		return fmt.Errorf("load inputs: %w", err)
	}
	stage(run, log, mb, "load", start)

	tables := table.Set{}
	b := costvariable.Builder{
		Factors:   run.Factors,
		Overrides: run.Fuels,
		Logger:    log,
		Metrics:   mb,
	}
	buildStart := time.Now()
	err = b.Build(costvariable.Request{
		Tables:    tables,
		Costs:     in.Costs,
		Techs:     in.Techs,
		Mapping:   in.Mapping,
		Regions:   run.Regions,
		Periods:   run.Periods,
		RegionIDs: run.RegionIDs,
		Fuels:     in.Fuels,
	})
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	stage(run, log, mb, "build", buildStart)

	if run.Storage.Kind != "" {
		persistStart := time.Now()
		if err := persist(ctx, run, tables); err != nil {
			return err
		}
		stage(run, log, mb, "persist", persistStart)
	}

	log.Info("run complete", zap.Duration("duration", time.Since(start).Truncate(time.Millisecond)))
	return nil
}

func persist(ctx context.Context, run config.Run, tables table.Set) error {
	repo, err := storage.New(ctx, storage.Config{Kind: run.Storage.Kind, DSN: run.Storage.DSN})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer repo.Close()

	spec := costvariable.Spec()
	if err := repo.EnsureTables(ctx, []storage.TableSpec{spec}); err != nil {
		return err
	}

	out := tables.Get(costvariable.TableName)
	if out == nil || out.Len() == 0 {
		return nil
	}

	batch := run.Runtime.BatchSize
	if batch <= 0 {
		batch = 1024
	}
	for startRow := 0; startRow < out.Len(); startRow += batch {
		end := startRow + batch
		if end > out.Len() {
			end = out.Len()
		}
		if _, err := repo.InsertRows(ctx, spec.Name, out.Columns, out.Rows[startRow:end]); err != nil {
			return fmt.Errorf("persist %s: %w", spec.Name, err)
		}
	}
	return nil
}

func stage(run config.Run, log *zap.Logger, mb metrics.Backend, name string, start time.Time) {
	d := time.Since(start)
	mb.ObserveHistogram(metrics.HistogramStageDuration, d.Seconds())
	if run.Runtime.DebugTimings {
		log.Debug("stage complete", zap.String("stage", name), zap.Duration("duration", d.Truncate(time.Millisecond)))
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
