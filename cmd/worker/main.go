// Command worker runs the Temporal worker for the paced onboarding flows.
// Stub mode serves activities from the in-memory backend; production mode
// calls the onboarding REST API.
package main

import (
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/backend/memory"
	"github.com/comunidad-solar/comuneros-go/internal/config"
	"github.com/comunidad-solar/comuneros-go/internal/observability"
	"github.com/comunidad-solar/comuneros-go/internal/ratelimit"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/activities"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/queues"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/workflows"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(cfg.LogLevel, "worker")

	names, err := queues.ParseQueues(cfg.WorkerQueues)
	if err != nil {
		logger.Error("invalid worker queues", "error", err)
		os.Exit(1)
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		logger.Error("metrics init failed", "error", err)
		os.Exit(1)
	}

	var api activities.Backend
	switch cfg.Mode {
	case config.ModeProduction:
		api = backend.New(cfg.BackendURL,
			backend.WithLimiter(ratelimit.NewServiceLimiter(ratelimit.DefaultGroupRates())),
			backend.WithMetrics(metrics),
		)
	default:
		api = memory.New()
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    observability.NewTemporalSlogAdapter(logger),
	})
	if err != nil {
		logger.Error("unable to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	acts := &activities.Activities{
		API:     api,
		Budget:  ratelimit.NewBudget(cfg.SubmitBudget, cfg.BudgetWindow),
		Metrics: metrics,
	}

	configs := queues.DefaultConfigs()
	workers := make([]worker.Worker, 0, len(names))
	for _, name := range names {
		w := worker.New(c, name, configs[name].Options)
		w.RegisterWorkflow(workflows.ContractSignatureWorkflow)
		w.RegisterWorkflow(workflows.ValidationRefreshWorkflow)
		w.RegisterWorkflow(workflows.PaidFlowWorkflow)
		w.RegisterActivity(acts)
		if err := w.Start(); err != nil {
			logger.Error("worker start failed", "queue", name, "error", err)
			os.Exit(1)
		}
		workers = append(workers, w)
		logger.Info("worker started", "queue", name, "mode", cfg.Mode)
	}

	<-worker.InterruptCh()
	for _, w := range workers {
		w.Stop()
	}
	logger.Info("workers stopped")
}
