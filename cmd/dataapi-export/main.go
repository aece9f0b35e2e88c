package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"aurora-dataapi/internal/config"
	"aurora-dataapi/internal/dataapi"
	"aurora-dataapi/internal/storage"
	"aurora-dataapi/internal/worker"
)

var version = "dev"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Aurora Data API export %s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  dataapi-export [flags] -sql \"SELECT ...\"\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (Required):\n")
		fmt.Fprintf(os.Stderr, "  DATAAPI_RESOURCE_ARN  Aurora cluster or instance ARN\n")
		fmt.Fprintf(os.Stderr, "  DATAAPI_SECRET_ARN    Secrets Manager ARN with the database credentials\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (Optional):\n")
		fmt.Fprintf(os.Stderr, "  DATAAPI_DIALECT       mysql (default) or postgres\n")
		fmt.Fprintf(os.Stderr, "  DATAAPI_DATABASE      Default database\n")
		fmt.Fprintf(os.Stderr, "  DATAAPI_TIMEZONE      Zone for DATETIME values (default +00:00)\n")
		fmt.Fprintf(os.Stderr, "  STORAGE_TYPE          local (default) or s3\n")
	}

	sqlText := flag.String("sql", "", "SELECT statement to export")
	format := flag.String("format", "csv", "Output format: csv, json, excel, pdf")
	probeOnly := flag.Bool("probe", false, "Only check connectivity and exit")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Aurora Data API export %s\n", version)
		os.Exit(0)
	}

	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if *sqlText == "" && !*probeOnly {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *sqlText, *format, *probeOnly); err != nil {
		slog.Error("Export failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, sqlText, format string, probeOnly bool) error {
	awsCfg, err := cfg.LoadAWS(ctx)
	if err != nil {
		return err
	}
	dialect, _ := dataapi.DialectByName(cfg.Dialect)
	connCfg := cfg.DataAPIConfig(awsCfg)
	manager := dataapi.NewManager(dialect, connCfg)

	if probeOnly {
		conn, err := manager.Connect(ctx, manager.Config())
		if err != nil {
			return err
		}
		slog.Info("Probe succeeded", "dialect", dialect.Name, "database", conn.Options().Database)
		return manager.Disconnect(ctx, conn)
	}

	decodeOpts, err := cfg.DecodeOptions()
	if err != nil {
		return err
	}

	var store storage.Provider
	switch cfg.StorageType {
	case "s3":
		client := storage.NewS3Client(awsCfg, cfg.S3Endpoint, cfg.S3PathStyle)
		store = storage.NewS3Provider(client, cfg.S3Bucket, "")
	default:
		local, err := storage.NewLocalProvider(cfg.LocalStoragePath)
		if err != nil {
			return err
		}
		store = local
	}

	pool := worker.NewPool(manager, store, worker.Options{
		Workers:       cfg.WorkerCount,
		MaxStatements: cfg.MaxStatementConcurrency,
		Dialect:       dialect.Name,
		ConnConfig:    manager.Config(),
		Decode:        decodeOpts,
		UseGzip:       cfg.Compression,
	})
	pool.Start()
	defer pool.Stop()

	job := worker.NewExportJob(sqlText, format, cfg.DefaultTimeout)
	if err := pool.Submit(job); err != nil {
		job.Cancel()
		return err
	}

	select {
	case <-job.Done():
	case <-ctx.Done():
		job.Cancel()
		<-job.Done()
	}

	snap, _ := pool.Snapshot(job.ID)
	pool.Forget(job.ID)
	if snap.Error != nil {
		return snap.Error
	}
	fmt.Println(store.GetDownloadURL(snap.Key))
	slog.Info("Export finished",
		"job_id", snap.ID,
		"rows", snap.Stats.RowsProcessed,
		"elapsed", snap.Finished.Sub(snap.Submitted).Round(time.Millisecond),
	)
	return nil
}
