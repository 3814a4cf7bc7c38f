package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/session"
)

// Routes after a confirmed payment.
const (
	RutaPagoConfirmado   = "/pago-confirmado"
	RutaVisitaConfirmada = "/visita-confirmada"
)

// ErrSinPropuesta is returned when a contract or payment step has no
// proposal to act on.
var ErrSinPropuesta = errors.New("no proposal for this session")

// Contrato carries the signature link of a proposal.
type Contrato struct {
	PropuestaID string `json:"propuestaId"`
	URL         string `json:"url"`
	Firmado     bool   `json:"firmado"`
}

// ObtenerContrato returns the signature link for the session proposal.
// navPropuestaID is used only when the backend has not assigned one yet.
func (s *Service) ObtenerContrato(ctx context.Context, sessionID, navPropuestaID string) (Contrato, error) {
	form, err := s.store.Get(sessionID)
	if err != nil {
		return Contrato{}, err
	}
	propuestaID := form.ResolvePropuestaID(navPropuestaID)
	if propuestaID == "" {
		return Contrato{}, ErrSinPropuesta
	}
	_, firmado := form.Flags[session.ContratoFirmadoKey(propuestaID)]

	env := backend.NewEnvelope(form, domain.FSMPropuestaGenerada)
	env.PropuestaID = propuestaID
	res, err := s.flows.ObtenerURLFirma(ctx, env)
	if err != nil {
		return Contrato{}, fmt.Errorf("onboarding: url firma: %w", err)
	}
	return Contrato{PropuestaID: propuestaID, URL: res.URL, Firmado: firmado}, nil
}

// MarcarFirmado records that the contract of the proposal was signed. It
// reports false when it was already recorded.
func (s *Service) MarcarFirmado(sessionID, navPropuestaID string) (bool, error) {
	form, err := s.store.Get(sessionID)
	if err != nil {
		return false, err
	}
	propuestaID := form.ResolvePropuestaID(navPropuestaID)
	if propuestaID == "" {
		return false, ErrSinPropuesta
	}
	return s.store.MarkOnce(sessionID, session.ContratoFirmadoKey(propuestaID), domain.FSMContratoEnviado)
}

// Pago is a confirmed payment for a proposal or a technical visit.
type Pago struct {
	PagoID      string `json:"pagoId"`
	PropuestaID string `json:"propuestaId,omitempty"`
	Visita      bool   `json:"visita"`
}

// ConfirmarPago post-processes a payment and returns the confirmation
// screen. The one-shot flags of the finished flow are cleared.
func (s *Service) ConfirmarPago(ctx context.Context, sessionID string, p Pago) (Resultado, error) {
	form, err := s.store.Get(sessionID)
	if err != nil {
		return Resultado{}, err
	}
	propuestaID := form.ResolvePropuestaID(p.PropuestaID)
	if propuestaID == "" && !p.Visita {
		return Resultado{}, ErrSinPropuesta
	}

	fsm, ruta, call := domain.FSMPagoConfirmado, RutaPagoConfirmado, s.flows.ProcesarPropuestaPagada
	if p.Visita {
		fsm, ruta, call = domain.FSMVisitaSolicitada, RutaVisitaConfirmada, s.flows.ProcesarVisitaPagada
	}
	req := backend.PagoRequest{Envelope: backend.NewEnvelope(form, fsm), PagoID: p.PagoID}
	req.PropuestaID = propuestaID

	var res backend.PagoResult
	err = s.withLoading(sessionID, "No hemos podido confirmar el pago.", func() error {
		var err error
		res, err = call(ctx, req)
		if err != nil {
			return fmt.Errorf("onboarding: pago: %w", err)
		}
		return nil
	})
	if err != nil {
		return Resultado{}, err
	}

	f, err := s.store.Update(sessionID, func(f *domain.SessionForm) error {
		if res.PropuestaID != "" {
			f.PropuestaID = res.PropuestaID
		}
		f.Ruta = ruta
		delete(f.Flags, session.FlagFromValidarCodigo)
		delete(f.Flags, session.FlagDatosActualizadosObtenidos)
		delete(f.Flags, session.ContratoFirmadoKey(propuestaID))
		return nil
	})
	if err != nil {
		return Resultado{}, err
	}
	slog.Info("payment confirmed", "session", sessionID, "propuesta", f.PropuestaID, "visita", p.Visita, "estado", res.Estado)
	return Resultado{Ruta: ruta, Form: f}, nil
}

// Visita is a technical visit request.
type Visita struct {
	FechaPreferida string `json:"fechaPreferida,omitempty"`
	Comentarios    string `json:"comentarios,omitempty"`
}

// SolicitarVisita asks the backend for a technical visit.
func (s *Service) SolicitarVisita(ctx context.Context, sessionID string, v Visita) (backend.VisitaResult, error) {
	form, err := s.store.Get(sessionID)
	if err != nil {
		return backend.VisitaResult{}, err
	}
	var res backend.VisitaResult
	err = s.withLoading(sessionID, "No hemos podido solicitar la visita.", func() error {
		var err error
		res, err = s.api.SolicitarVisitaTecnica(ctx, backend.VisitaRequest{
			Envelope:       backend.NewEnvelope(form, domain.FSMVisitaSolicitada),
			FechaPreferida: v.FechaPreferida,
			Comentarios:    v.Comentarios,
		})
		if err != nil {
			return fmt.Errorf("onboarding: visita tecnica: %w", err)
		}
		return nil
	})
	return res, err
}
