package activities

import (
	"context"
	"fmt"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/observability"
	"github.com/comunidad-solar/comuneros-go/internal/ratelimit"
)

// Backend is the part of the REST API reached from activities.
// backend.Client and memory.Backend both satisfy it.
type Backend interface {
	ObtenerURLFirma(ctx context.Context, env backend.Envelope) (backend.FirmaResult, error)
	ObtenerDatosActualizados(ctx context.Context, env backend.Envelope) (backend.ValidacionResult, error)
	ProcesarPropuestaPagada(ctx context.Context, req backend.PagoRequest) (backend.PagoResult, error)
	ProcesarVisitaPagada(ctx context.Context, req backend.PagoRequest) (backend.PagoResult, error)
}

// Activities holds the dependencies for all Temporal activities.
// Each method is registered as a Temporal activity.
type Activities struct {
	API     Backend
	Budget  *ratelimit.Budget      // nil = no budget enforcement
	Metrics *observability.Metrics // nil = no metrics
}

// checkBudget enforces per-subject activity budgets when configured.
func (a *Activities) checkBudget(subject, activityName string) error {
	if a.Budget == nil {
		return nil
	}
	return a.Budget.Take(subject, activityName)
}

func (a *Activities) begin(ctx context.Context, subject, name string) error {
	a.Metrics.RecordActivity(ctx, name)
	return a.checkBudget(subject, name)
}

// ObtenerURLFirma fetches the contract signature link of a proposal.
func (a *Activities) ObtenerURLFirma(ctx context.Context, in FirmaInput) (FirmaOutput, error) {
	if err := a.begin(ctx, in.Subject, "ObtenerURLFirma"); err != nil {
		return FirmaOutput{}, err
	}
	res, err := a.API.ObtenerURLFirma(ctx, in.Envelope)
	if err != nil {
		return FirmaOutput{}, fmt.Errorf("url firma activity: %w", err)
	}
	return FirmaOutput{URL: res.URL}, nil
}

// ObtenerDatosActualizados fetches the member data consolidated after
// validation.
func (a *Activities) ObtenerDatosActualizados(ctx context.Context, in DatosInput) (DatosOutput, error) {
	if err := a.begin(ctx, in.Subject, "ObtenerDatosActualizados"); err != nil {
		return DatosOutput{}, err
	}
	res, err := a.API.ObtenerDatosActualizados(ctx, in.Envelope)
	if err != nil {
		return DatosOutput{}, fmt.Errorf("datos actualizados activity: %w", err)
	}
	return DatosOutput{Result: res}, nil
}

// ProcesarPropuestaPagada post-processes a paid proposal.
func (a *Activities) ProcesarPropuestaPagada(ctx context.Context, in PagoInput) (PagoOutput, error) {
	if err := a.begin(ctx, in.Subject, "ProcesarPropuestaPagada"); err != nil {
		return PagoOutput{}, err
	}
	res, err := a.API.ProcesarPropuestaPagada(ctx, in.Request)
	if err != nil {
		return PagoOutput{}, fmt.Errorf("propuesta pagada activity: %w", err)
	}
	return PagoOutput{Result: res}, nil
}

// ProcesarVisitaPagada post-processes a paid technical visit.
func (a *Activities) ProcesarVisitaPagada(ctx context.Context, in PagoInput) (PagoOutput, error) {
	if err := a.begin(ctx, in.Subject, "ProcesarVisitaPagada"); err != nil {
		return PagoOutput{}, err
	}
	res, err := a.API.ProcesarVisitaPagada(ctx, in.Request)
	if err != nil {
		return PagoOutput{}, fmt.Errorf("visita pagada activity: %w", err)
	}
	return PagoOutput{Result: res}, nil
}
