// Command api runs the onboarding BFF HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.temporal.io/sdk/client"

	"github.com/comunidad-solar/comuneros-go/internal/agui"
	"github.com/comunidad-solar/comuneros-go/internal/api"
	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/backend/memory"
	"github.com/comunidad-solar/comuneros-go/internal/config"
	"github.com/comunidad-solar/comuneros-go/internal/observability"
	"github.com/comunidad-solar/comuneros-go/internal/onboarding"
	"github.com/comunidad-solar/comuneros-go/internal/preloader"
	"github.com/comunidad-solar/comuneros-go/internal/ratelimit"
	"github.com/comunidad-solar/comuneros-go/internal/session"
	"github.com/comunidad-solar/comuneros-go/internal/submission"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/querier"
)

const (
	photoTimeout  = time.Minute
	sweepInterval = 5 * time.Minute
)

// restAPI is everything the server reaches on the onboarding backend.
type restAPI interface {
	onboarding.Backend
	onboarding.Flows
	submission.Backend
	submission.Classifier
	preloader.DealFetcher
	api.AdvisorBackend
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(cfg.LogLevel, "api")

	if cfg.OTelEnabled {
		shutdown, err := observability.InitTracer(context.Background(), "comuneros-api")
		if err != nil {
			logger.Error("otel init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		logger.Error("metrics init failed", "error", err)
		os.Exit(1)
	}

	var (
		rest     restAPI
		flows    onboarding.Flows
		flowView api.FlowReader
	)
	switch cfg.Mode {
	case config.ModeProduction:
		rest = backend.New(cfg.BackendURL,
			backend.WithLimiter(ratelimit.NewServiceLimiter(ratelimit.DefaultGroupRates())),
			backend.WithMetrics(metrics),
		)

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

		q := querier.New(c)
		flows, flowView = q, q

	default:
		stub := memory.New()
		rest, flows = stub, stub
	}

	store := session.NewStore(cfg.SessionTTL)
	photos := submission.NewPhotoAnalyzer(store, rest, photoTimeout)
	deals := preloader.New(store, rest, metrics)

	srv, err := api.New(api.Deps{
		Store:         store,
		Submitter:     submission.NewSubmitter(store, rest, ratelimit.NewBudget(cfg.SubmitBudget, cfg.BudgetWindow), metrics),
		Photos:        photos,
		Preloader:     deals,
		Onboarding:    onboarding.New(store, rest, flows),
		Advisor:       rest,
		Flows:         flowView,
		IsAdvisorHost: cfg.IsAdvisorHost,
		Stream:        agui.DefaultConfig(),
	}, cfg.CORSOrigins, api.OIDCConfig{
		IssuerURL: cfg.OIDCIssuer,
		Audience:  cfg.OIDCAudience,
		Enabled:   cfg.OIDCEnabled(),
	})
	if err != nil {
		logger.Error("server init failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweep(ctx, store, deals)

	var handler http.Handler = srv
	if cfg.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "comuneros-api")
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()

	logger.Info("starting API server", "addr", httpSrv.Addr, "mode", cfg.Mode, "oidc_enabled", cfg.OIDCEnabled())
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	photos.Wait()
	logger.Info("server stopped")
}

// sweep drops expired sessions and the deal loads that belonged to them.
func sweep(ctx context.Context, store *session.Store, deals *preloader.Preloader) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n := store.Sweep()
			m := deals.Forget(store.Exists)
			if n > 0 || m > 0 {
				slog.Debug("swept sessions", "sessions", n, "deal_loads", m)
			}
		}
	}
}
