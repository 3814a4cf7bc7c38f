// Package submission executes the action the routing table selects for a
// wizard submit and runs the breaker photo classification.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/observability"
	"github.com/comunidad-solar/comuneros-go/internal/ratelimit"
	"github.com/comunidad-solar/comuneros-go/internal/session"
	"github.com/comunidad-solar/comuneros-go/internal/wizard"
)

// MensajeErrorEnvio is shown when a backend call behind a submit fails.
const MensajeErrorEnvio = "No hemos podido enviar tus respuestas. Inténtalo de nuevo."

// ValidationError is returned when a submit is blocked locally. No backend
// call was made.
type ValidationError struct {
	Rule    string
	Campo   wizard.Campo
	Mensaje string
}

func (e *ValidationError) Error() string {
	if e.Campo == "" {
		return fmt.Sprintf("submission blocked by %s: %s", e.Rule, e.Mensaje)
	}
	return fmt.Sprintf("submission blocked by %s on %s: %s", e.Rule, e.Campo, e.Mensaje)
}

// Backend is the part of the REST API a submit can reach.
type Backend interface {
	CrearPropuesta(ctx context.Context, req backend.PropuestaRequest) (domain.Propuesta, error)
	CrearPropuestaInstalacionCerca(ctx context.Context, req backend.PropuestaRequest) (domain.Propuesta, error)
	SolicitarContactoAsesor(ctx context.Context, req backend.ContactoRequest) (backend.ContactoResult, error)
}

// Outcome describes a completed submit.
type Outcome struct {
	Decision  wizard.Decision    `json:"decision"`
	Ruta      string             `json:"ruta"`
	Propuesta *domain.Propuesta  `json:"propuesta,omitempty"`
	MpkLogID  string             `json:"mpkLogId,omitempty"`
	Form      domain.SessionForm `json:"form"`
}

// Submitter runs wizard submissions.
type Submitter struct {
	store   *session.Store
	api     Backend
	budget  *ratelimit.Budget
	metrics *observability.Metrics
}

// NewSubmitter creates a Submitter. budget and metrics may be nil.
func NewSubmitter(store *session.Store, api Backend, budget *ratelimit.Budget, metrics *observability.Metrics) *Submitter {
	return &Submitter{store: store, api: api, budget: budget, metrics: metrics}
}

// Preview evaluates the routing table for a session without side effects.
func (s *Submitter) Preview(sessionID string) (wizard.Decision, error) {
	form, err := s.store.Get(sessionID)
	if err != nil {
		return wizard.Decision{}, err
	}
	return wizard.Evaluate(snapshotOf(form)), nil
}

func snapshotOf(f domain.SessionForm) wizard.Snapshot {
	return wizard.Snapshot{
		CodigoPostal: f.CodigoPostalResuelto(),
		EnZona:       f.EnZona,
		Respuestas:   f.Respuestas,
	}
}

// Submit evaluates the routing table for the session and performs the
// selected backend call. The loading flag is held for the duration of the
// call and always cleared. Answers are never rolled back on failure.
func (s *Submitter) Submit(ctx context.Context, sessionID string) (Outcome, error) {
	form, err := s.store.Get(sessionID)
	if err != nil {
		return Outcome{}, err
	}

	d := wizard.Evaluate(snapshotOf(form))
	if d.DeteccionAplicada {
		// Keep the type read from the photo so the next screen asks the
		// questions that follow from it.
		form, err = s.store.Update(sessionID, func(f *domain.SessionForm) error {
			f.Respuestas.TipoInstalacion = d.Respuestas.TipoInstalacion
			return nil
		})
		if err != nil {
			return Outcome{}, err
		}
	}
	if d.Action == wizard.ActionBlock {
		s.metrics.RecordSubmission(ctx, d.Rule, string(d.Action), "blocked")
		return Outcome{Decision: d, Form: form}, &ValidationError{Rule: d.Rule, Campo: d.Campo, Mensaje: d.Mensaje}
	}

	if s.budget != nil {
		if err := s.budget.Take(sessionID, "enviar"); err != nil {
			s.metrics.RecordSubmission(ctx, d.Rule, string(d.Action), "throttled")
			return Outcome{Decision: d, Form: form}, err
		}
	}
	if err := s.store.BeginLoading(sessionID); err != nil {
		return Outcome{Decision: d, Form: form}, err
	}

	out, err := s.execute(ctx, sessionID, form, d)
	if err != nil {
		s.store.EndLoading(sessionID, MensajeErrorEnvio)
		s.metrics.RecordSubmission(ctx, d.Rule, string(d.Action), "error")
		slog.Warn("submission failed", "session", sessionID, "rule", d.Rule, "error", err)
		return Outcome{Decision: d, Form: form}, fmt.Errorf("submission: %s: %w", d.Rule, err)
	}
	s.store.EndLoading(sessionID, "")
	s.metrics.RecordSubmission(ctx, d.Rule, string(d.Action), "ok")
	slog.Info("submission routed", "session", sessionID, "rule", d.Rule, "action", d.Action, "ruta", out.Ruta)

	if final, err := s.store.Get(sessionID); err == nil {
		out.Form = final
	}
	return out, nil
}

func (s *Submitter) execute(ctx context.Context, sessionID string, form domain.SessionForm, d wizard.Decision) (Outcome, error) {
	env := backend.NewEnvelope(form, domain.FSMDatosRecogidos)
	out := Outcome{Decision: d, Ruta: d.Ruta}

	switch d.Action {
	case wizard.ActionContactAdvisor:
		req := backend.ContactoRequest{
			Envelope:               env,
			Motivo:                 d.Motivo,
			RequiereContactoManual: d.RequiereContactoManual,
			Respuestas:             d.Respuestas,
		}
		if d.AdjuntarAnalisis {
			req.AnalisisIA = d.Respuestas.AnalisisIA
		}
		res, err := s.api.SolicitarContactoAsesor(ctx, req)
		if err != nil {
			return Outcome{}, err
		}
		out.MpkLogID = res.MpkLogID
		_, err = s.store.Update(sessionID, func(f *domain.SessionForm) error {
			if res.MpkLogID != "" {
				f.MpkLogID = res.MpkLogID
			}
			f.Ruta = d.Ruta
			return nil
		})
		return out, err

	case wizard.ActionCloseInstallation, wizard.ActionCreateProposal:
		req := backend.PropuestaRequest{
			Envelope:              env,
			Respuestas:            d.Respuestas,
			RequiereVisitaTecnica: d.RequiereVisitaTecnica,
		}
		var (
			p   domain.Propuesta
			err error
		)
		if d.Action == wizard.ActionCloseInstallation {
			p, err = s.api.CrearPropuestaInstalacionCerca(ctx, req)
			if err == nil {
				p.RequiereVisitaTecnica = d.RequiereVisitaTecnica
			}
		} else {
			p, err = s.api.CrearPropuesta(ctx, req)
		}
		if err != nil {
			return Outcome{}, err
		}
		if err := domain.ValidatePropuesta(p); err != nil {
			return Outcome{}, err
		}
		out.Propuesta = &p
		_, err = s.store.Update(sessionID, func(f *domain.SessionForm) error {
			f.PropuestaID = p.PropuestaID
			f.Ruta = d.Ruta
			return nil
		})
		return out, err
	}
	return Outcome{}, errors.New("unroutable decision " + string(d.Action))
}
