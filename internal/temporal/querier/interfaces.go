package querier

import (
	"context"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
)

// FlowQuerier starts paced flows and reads their state. Used by the HTTP
// API, the CLI and the MCP server. The four paced calls share their
// signatures with backend.Client so either can serve onboarding.
type FlowQuerier interface {
	ObtenerURLFirma(ctx context.Context, env backend.Envelope) (backend.FirmaResult, error)
	ObtenerDatosActualizados(ctx context.Context, env backend.Envelope) (backend.ValidacionResult, error)
	ProcesarPropuestaPagada(ctx context.Context, req backend.PagoRequest) (backend.PagoResult, error)
	ProcesarVisitaPagada(ctx context.Context, req backend.PagoRequest) (backend.PagoResult, error)

	ListFlows(ctx context.Context, opts ListOptions) ([]FlowSummary, error)
	GetFlowStatus(ctx context.Context, workflowID string) (*FlowStatus, error)
}
