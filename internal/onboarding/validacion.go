// Package onboarding drives the member-facing steps around the wizard:
// email and code validation, the contract signature, payment confirmation
// and technical visit requests.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/session"
)

// Routes chosen after member validation.
const (
	RutaPreguntas      = "/preguntas-adicionales"
	RutaFueraDeZona    = "/fuera-de-zona"
	RutaContactoAsesor = "/contacto-asesor"
)

var (
	ErrEmailRequerido  = errors.New("email required")
	ErrCodigoRequerido = errors.New("validation code required")
)

// ZoneRoute returns the screen that follows validation for a zone.
func ZoneRoute(z domain.EnZona) string {
	switch z {
	case domain.ZonaInZone, domain.ZonaInZoneWithCost, domain.ZonaNoCPAvailable:
		return RutaPreguntas
	case domain.ZonaOutZone:
		return RutaFueraDeZona
	default:
		return RutaContactoAsesor
	}
}

// Backend is the part of the REST API onboarding calls directly.
type Backend interface {
	ValidarEmail(ctx context.Context, req backend.ValidarEmailRequest) (backend.ValidacionResult, error)
	ValidarCodigo(ctx context.Context, req backend.ValidarCodigoRequest) (backend.ValidacionResult, error)
	SolicitarVisitaTecnica(ctx context.Context, req backend.VisitaRequest) (backend.VisitaResult, error)
}

// Flows are the calls the UI paces with a fixed delay. The Temporal querier
// implements them as workflows; the REST client implements them without
// the delay.
type Flows interface {
	ObtenerURLFirma(ctx context.Context, env backend.Envelope) (backend.FirmaResult, error)
	ObtenerDatosActualizados(ctx context.Context, env backend.Envelope) (backend.ValidacionResult, error)
	ProcesarPropuestaPagada(ctx context.Context, req backend.PagoRequest) (backend.PagoResult, error)
	ProcesarVisitaPagada(ctx context.Context, req backend.PagoRequest) (backend.PagoResult, error)
}

// Service runs onboarding steps against a session.
type Service struct {
	store *session.Store
	api   Backend
	flows Flows
}

// New creates a Service.
func New(store *session.Store, api Backend, flows Flows) *Service {
	return &Service{store: store, api: api, flows: flows}
}

// Resultado is the session after a step plus the screen to show next.
type Resultado struct {
	Ruta string             `json:"ruta,omitempty"`
	Form domain.SessionForm `json:"form"`
}

// withLoading holds the session loading flag around fn.
func (s *Service) withLoading(sessionID, errMsg string, fn func() error) error {
	if err := s.store.BeginLoading(sessionID); err != nil {
		return err
	}
	if err := fn(); err != nil {
		s.store.EndLoading(sessionID, errMsg)
		return err
	}
	s.store.EndLoading(sessionID, "")
	return nil
}

// ValidarEmail records the email and asks the backend to send a code. A
// result that already identifies the member is stored.
func (s *Service) ValidarEmail(ctx context.Context, sessionID, email string) (backend.ValidacionResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return backend.ValidacionResult{}, ErrEmailRequerido
	}
	form, err := s.store.SetFields(sessionID, map[string]string{"email": email})
	if err != nil {
		return backend.ValidacionResult{}, err
	}

	var res backend.ValidacionResult
	err = s.withLoading(sessionID, "No hemos podido validar tu email.", func() error {
		var err error
		res, err = s.api.ValidarEmail(ctx, backend.ValidarEmailRequest{Envelope: backend.NewEnvelope(form, "")})
		if err != nil {
			return fmt.Errorf("onboarding: validar email: %w", err)
		}
		_, err = s.aplicar(sessionID, res)
		return err
	})
	return res, err
}

// ValidarCodigo confirms the one-time code, stores the member data and
// returns the screen chosen by the zone.
func (s *Service) ValidarCodigo(ctx context.Context, sessionID, codigo string) (Resultado, error) {
	codigo = strings.TrimSpace(codigo)
	if codigo == "" {
		return Resultado{}, ErrCodigoRequerido
	}
	form, err := s.store.Get(sessionID)
	if err != nil {
		return Resultado{}, err
	}

	var out Resultado
	err = s.withLoading(sessionID, "El código no es válido o ha caducado.", func() error {
		res, err := s.api.ValidarCodigo(ctx, backend.ValidarCodigoRequest{
			Envelope: backend.NewEnvelope(form, ""),
			Codigo:   codigo,
		})
		if err != nil {
			return fmt.Errorf("onboarding: validar codigo: %w", err)
		}
		ruta := ZoneRoute(res.EnZona)
		f, err := s.store.Update(sessionID, func(f *domain.SessionForm) error {
			mergeValidacion(f, res)
			f.Flags[session.FlagFromValidarCodigo] = "true"
			f.Ruta = ruta
			return nil
		})
		if err != nil {
			return err
		}
		out = Resultado{Ruta: ruta, Form: f}
		return nil
	})
	if err != nil {
		return Resultado{}, err
	}
	slog.Info("member validated", "session", sessionID, "zona", out.Form.EnZona, "ruta", out.Ruta)
	if f, err := s.store.Get(sessionID); err == nil {
		out.Form = f
	}
	return out, nil
}

// AplicarDatosActualizados fetches the member data the backend consolidated
// after validation and merges it, once per session. A repeated call returns
// the form without reaching the backend.
func (s *Service) AplicarDatosActualizados(ctx context.Context, sessionID string) (domain.SessionForm, error) {
	first, err := s.store.MarkOnce(sessionID, session.FlagDatosActualizadosObtenidos, "true")
	if err != nil {
		return domain.SessionForm{}, err
	}
	if !first {
		return s.store.Get(sessionID)
	}
	form, err := s.store.Get(sessionID)
	if err != nil {
		return domain.SessionForm{}, err
	}

	res, err := s.flows.ObtenerDatosActualizados(ctx, backend.NewEnvelope(form, ""))
	if err != nil {
		// Allow the next page load to try again.
		if cerr := s.store.ClearFlags(sessionID, session.FlagDatosActualizadosObtenidos); cerr != nil {
			slog.Warn("clearing refresh flag", "session", sessionID, "error", cerr)
		}
		return form, fmt.Errorf("onboarding: datos actualizados: %w", err)
	}
	return s.aplicar(sessionID, res)
}

func (s *Service) aplicar(sessionID string, res backend.ValidacionResult) (domain.SessionForm, error) {
	return s.store.Update(sessionID, func(f *domain.SessionForm) error {
		mergeValidacion(f, res)
		return nil
	})
}

// mergeValidacion stores backend-assigned values. Empty values never erase
// known ones.
func mergeValidacion(f *domain.SessionForm, res backend.ValidacionResult) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&f.Token, res.Token)
	set(&f.PropuestaID, res.PropuestaID)
	set(&f.MpkLogID, res.MpkLogID)
	set(&f.DealID, res.DealID)
	if res.EnZona != "" {
		f.EnZona = res.EnZona
	}
	if res.Comunero != nil {
		f.Comunero = domain.MergeComunero(f.Comunero, *res.Comunero)
	}
}
