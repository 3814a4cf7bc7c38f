// Package api serves the onboarding BFF over HTTP: sessions, member
// validation, the wizard, deal preloading, contract and payment steps and
// the advisor tools.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/comunidad-solar/comuneros-go/internal/agui"
	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/onboarding"
	"github.com/comunidad-solar/comuneros-go/internal/preloader"
	"github.com/comunidad-solar/comuneros-go/internal/session"
	"github.com/comunidad-solar/comuneros-go/internal/submission"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/querier"
)

// AdvisorBackend is the part of the REST API the advisor tools reach.
type AdvisorBackend interface {
	ObtenerDealPorID(ctx context.Context, dealID string) (domain.Deal, error)
	BuscarSKU(ctx context.Context, q string) ([]backend.SKU, error)
	AnadirSKU(ctx context.Context, req backend.AnadirSKURequest) (domain.Propuesta, error)
}

// FlowReader reads paced flow executions.
type FlowReader interface {
	ListFlows(ctx context.Context, opts querier.ListOptions) ([]querier.FlowSummary, error)
	GetFlowStatus(ctx context.Context, workflowID string) (*querier.FlowStatus, error)
}

// Deps are the services behind the API. Flows may be nil when paced calls
// run in-process.
type Deps struct {
	Store      *session.Store
	Submitter  *submission.Submitter
	Photos     *submission.PhotoAnalyzer
	Preloader  *preloader.Preloader
	Onboarding *onboarding.Service
	Advisor    AdvisorBackend
	Flows      FlowReader
	// IsAdvisorHost reports whether a request host serves the advisor
	// frontend. Sessions created there start in advisor mode.
	IsAdvisorHost func(host string) bool
	Stream        agui.StreamConfig
}

// Server is the HTTP API server for the onboarding frontend.
type Server struct {
	deps    Deps
	mux     *http.ServeMux
	handler http.Handler
}

// New creates a Server. When OIDC is enabled the advisor endpoints require a
// bearer token from the issuer.
func New(d Deps, corsOrigins []string, oidcCfg OIDCConfig) (*Server, error) {
	if d.Store == nil || d.Submitter == nil || d.Photos == nil || d.Preloader == nil || d.Onboarding == nil || d.Advisor == nil {
		return nil, errors.New("api: missing dependency")
	}
	if d.IsAdvisorHost == nil {
		d.IsAdvisorHost = func(string) bool { return false }
	}

	s := &Server{deps: d, mux: http.NewServeMux()}

	advisor := http.NewServeMux()
	s.advisorRoutes(advisor)
	var guarded http.Handler = advisor
	if oidcCfg.Enabled {
		provider, err := oidc.NewProvider(context.Background(), oidcCfg.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("api: oidc provider %s: %w", oidcCfg.IssuerURL, err)
		}
		guarded = oidcAuth(provider, oidcCfg.Audience)(advisor)
	}
	s.mux.Handle("/api/v1/asesores/", guarded)

	s.routes()
	s.handler = requestID(logging(cors(corsOrigins, s.mux)))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	s.mux.HandleFunc("POST /api/v1/sesiones", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/v1/sesiones/{id}", s.handleGetSession)
	s.mux.HandleFunc("PATCH /api/v1/sesiones/{id}", s.handlePatchSession)
	s.mux.HandleFunc("GET /api/v1/sesiones/{id}/stream", agui.StreamHandler(s.deps.Store, s.deps.Stream))

	s.mux.HandleFunc("POST /api/v1/sesiones/{id}/validar-email", s.handleValidarEmail)
	s.mux.HandleFunc("POST /api/v1/sesiones/{id}/validar-codigo", s.handleValidarCodigo)
	s.mux.HandleFunc("POST /api/v1/sesiones/{id}/datos-actualizados", s.handleDatosActualizados)

	s.mux.HandleFunc("POST /api/v1/sesiones/{id}/deal", s.handlePreloadDeal)
	s.mux.HandleFunc("GET /api/v1/sesiones/{id}/deal", s.handleDealState)
	s.mux.HandleFunc("DELETE /api/v1/sesiones/{id}/deal", s.handleResetDeal)

	s.mux.HandleFunc("GET /api/v1/sesiones/{id}/preguntas", s.handlePreguntas)
	s.mux.HandleFunc("POST /api/v1/sesiones/{id}/respuestas", s.handleRespuesta)
	s.mux.HandleFunc("POST /api/v1/sesiones/{id}/disyuntor", s.handleDisyuntor)
	s.mux.HandleFunc("GET /api/v1/sesiones/{id}/decision", s.handleDecision)
	s.mux.HandleFunc("POST /api/v1/sesiones/{id}/enviar", s.handleEnviar)

	s.mux.HandleFunc("GET /api/v1/sesiones/{id}/contrato", s.handleContrato)
	s.mux.HandleFunc("POST /api/v1/sesiones/{id}/contrato/firmado", s.handleContratoFirmado)
	s.mux.HandleFunc("POST /api/v1/sesiones/{id}/pago", s.handlePago)
	s.mux.HandleFunc("POST /api/v1/sesiones/{id}/visita-tecnica", s.handleVisitaTecnica)

	s.mux.HandleFunc("GET /api/v1/flujos/{id}", s.handleGetFlow)
}

func (s *Server) advisorRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/asesores/deals/{id}", s.handleGetDeal)
	mux.HandleFunc("GET /api/v1/asesores/skus", s.handleBuscarSKU)
	mux.HandleFunc("POST /api/v1/asesores/skus", s.handleAnadirSKU)
	mux.HandleFunc("GET /api/v1/asesores/flujos", s.handleListFlows)
}
