package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/leowmjw/go-temporal-playercount/pkg/http"
	"github.com/leowmjw/go-temporal-playercount/pkg/playercount"
	"github.com/leowmjw/go-temporal-playercount/pkg/settings"
	"github.com/leowmjw/go-temporal-playercount/pkg/temporal"
)

func main() {
	env, err := settings.Load()
	if err != nil {
		settings.NewLogger(os.Stderr, "info").Error("Failed to load settings", "error", err)
		os.Exit(1)
	}

	var (
		httpAddr     = flag.String("http-addr", env.HTTPAddr, "HTTP server address")
		temporalAddr = flag.String("temporal-addr", env.Temporal.Addr, "Temporal server address")
		namespace    = flag.String("namespace", env.Temporal.Namespace, "Temporal namespace")
		taskQueue    = flag.String("task-queue", env.Temporal.TaskQueue, "Temporal task queue")
		configPath   = flag.String("config", env.ConfigPath, "Path to HCL config file or directory")
		rawDir       = flag.String("raw-dir", env.RawDir, "Directory holding raw chart exports")
		outDir       = flag.String("out-dir", env.OutDir, "Directory receiving processed tables")
		logLevel     = flag.String("log-level", env.LogLevel, "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	logger := settings.NewLogger(os.Stdout, *logLevel)

	logger.Info("Starting player-count service",
		"http_addr", *httpAddr,
		"temporal_addr", *temporalAddr,
		"namespace", *namespace,
		"task_queue", *taskQueue,
		"raw_dir", *rawDir,
		"out_dir", *outDir,
	)

	env.ConfigPath = *configPath
	cfg, cal, err := env.LoadData()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("Loaded configuration",
		"datasets", len(cfg.Datasets),
		"calendar_version", cal.Version(),
		"sale_windows", len(cal.Windows()),
		"sale_days", cal.CoveredDays())

	// Create Temporal client
	temporalClient, err := client.Dial(client.Options{
		HostPort:  *temporalAddr,
		Namespace: *namespace,
	})
	if err != nil {
		logger.Error("Failed to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()

	pipeline := playercount.NewPipeline(logger, cfg, cal, *rawDir, *outDir)
	activities := temporal.NewActivitiesImpl(logger, pipeline)

	w := worker.New(temporalClient, *taskQueue, worker.Options{})
	temporal.Register(w, activities)

	// Start worker in background
	go func() {
		logger.Info("Starting Temporal worker", "task_queue", *taskQueue)
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Error("Temporal worker failed", "error", err)
			os.Exit(1)
		}
	}()

	server := http.NewServer(logger, temporalClient, *httpAddr, *taskQueue, cfg, cal)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(ctx); err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Received shutdown signal, stopping services...")

	cancel()

	logger.Info("Player-count service stopped")
}
