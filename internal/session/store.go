// Package session owns the in-memory session form state. Every change goes
// through a named mutator that runs under the store lock and bumps the form
// version.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/wizard"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrCodigoPostalRequerido is returned when an answer is entered before a
	// postal code can be resolved.
	ErrCodigoPostalRequerido = errors.New("postal code required before answering")
	// ErrEnCurso is returned when another backend call holds the loading flag.
	ErrEnCurso = errors.New("another request is in progress for this session")
)

// One-shot flags. They prevent repeating side-effecting calls within a session.
const (
	FlagFromValidarCodigo          = "fromValidarCodigo"
	FlagDatosActualizadosObtenidos = "datosActualizadosObtenidos"
)

// ContratoFirmadoKey is the flag recording that the contract of a proposal
// was signed.
func ContratoFirmadoKey(propuestaID string) string {
	return "contratoFirmado:" + propuestaID
}

// FieldError reports a field that cannot be set through SetFields.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

type entry struct {
	form     domain.SessionForm
	lastSeen time.Time
	watchers map[chan struct{}]struct{}
}

// Store holds session forms keyed by id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
}

// NewStore creates a store. Sessions idle for longer than ttl are dropped by
// Sweep; a zero ttl keeps them forever.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Create starts a new session. init, when non-nil, may seed the form.
func (s *Store) Create(init func(*domain.SessionForm)) domain.SessionForm {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	f := domain.NewSessionForm(s.newID(), now)
	if init != nil {
		init(&f)
	}
	f.Version = 1
	s.sessions[f.ID] = &entry{form: f, lastSeen: now, watchers: map[chan struct{}]struct{}{}}
	return f.Clone()
}

func (s *Store) lookup(id string) (*entry, error) {
	e, ok := s.sessions[id]
	if !ok || s.expired(e) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

func (s *Store) expired(e *entry) bool {
	return s.ttl > 0 && s.now().Sub(e.lastSeen) > s.ttl
}

// Get returns a copy of the session form.
func (s *Store) Get(id string) (domain.SessionForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return domain.SessionForm{}, err
	}
	e.lastSeen = s.now()
	return e.form.Clone(), nil
}

// Update applies fn to a copy of the form. When fn returns an error nothing
// is stored; otherwise the copy replaces the form and the version is bumped.
func (s *Store) Update(id string, fn func(*domain.SessionForm) error) (domain.SessionForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return domain.SessionForm{}, err
	}
	f := e.form.Clone()
	if err := fn(&f); err != nil {
		return e.form.Clone(), err
	}
	now := s.now()
	f.ID = e.form.ID
	f.Version = e.form.Version + 1
	f.UpdatedAt = now
	e.form = f
	e.lastSeen = now
	for ch := range e.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return f.Clone(), nil
}

// SetFields sets contact and attribution fields by their JSON name.
func (s *Store) SetFields(id string, fields map[string]string) (domain.SessionForm, error) {
	return s.Update(id, func(f *domain.SessionForm) error {
		return ApplyFields(f, fields)
	})
}

// ApplyFields sets fields on a form that is not in the store yet, such as the
// one passed to Create's init.
func ApplyFields(f *domain.SessionForm, fields map[string]string) error {
	for k, v := range fields {
		if err := setField(f, k, v); err != nil {
			return err
		}
	}
	return nil
}

func setField(f *domain.SessionForm, name, v string) error {
	switch name {
	case "nombre":
		f.Nombre = v
	case "email":
		f.Email = v
	case "telefono":
		f.Telefono = v
	case "direccion":
		f.Direccion = v
	case "direccionComplementaria":
		f.DireccionComplementaria = v
	case "codigoPostal":
		f.CodigoPostal = v
	case "ciudad":
		f.Ciudad = v
	case "provincia":
		f.Provincia = v
	case "pais":
		f.Pais = v
	case "bypass":
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &FieldError{Field: name, Reason: "must be a boolean"}
		}
		f.Bypass = b
	case "utm_source":
		f.Attribution.UTMSource = v
	case "utm_medium":
		f.Attribution.UTMMedium = v
	case "utm_campaign":
		f.Attribution.UTMCampaign = v
	case "utm_term":
		f.Attribution.UTMTerm = v
	case "utm_content":
		f.Attribution.UTMContent = v
	case "campaign":
		f.Attribution.Campaign = v
	default:
		return &FieldError{Field: name, Reason: "not writable"}
	}
	return nil
}

// MergeComunero merges a member record into the form.
func (s *Store) MergeComunero(id string, c domain.Comunero) (domain.SessionForm, error) {
	return s.Update(id, func(f *domain.SessionForm) error {
		f.Comunero = domain.MergeComunero(f.Comunero, c)
		return nil
	})
}

// SetRespuesta records one wizard answer and applies the reset cascade.
// Answers are refused until a postal code is known.
func (s *Store) SetRespuesta(id string, campo wizard.Campo, valor string) (domain.SessionForm, error) {
	return s.Update(id, func(f *domain.SessionForm) error {
		if f.CodigoPostalResuelto() == "" {
			return ErrCodigoPostalRequerido
		}
		r, err := wizard.ApplyAnswer(f.Respuestas, campo, valor)
		if err != nil {
			return err
		}
		f.Respuestas = r
		return nil
	})
}

// SetPhoto stores an uploaded breaker photo reference and marks the
// classification as running.
func (s *Store) SetPhoto(id, ref string) (domain.SessionForm, error) {
	return s.Update(id, func(f *domain.SessionForm) error {
		if f.CodigoPostalResuelto() == "" {
			return ErrCodigoPostalRequerido
		}
		f.Respuestas = wizard.ApplyPhoto(f.Respuestas, ref)
		f.UltimoError = ""
		return nil
	})
}

// ResolveAnalysis stores the classification result for the photo ref. A
// result for a photo that was replaced or removed meanwhile is dropped. So is
// a result that arrives after the member left the breaker-panel branch; the
// photo goes with it and the member's own answers stay.
func (s *Store) ResolveAnalysis(id, ref string, tipo domain.TipoDetectado) (domain.SessionForm, error) {
	return s.Update(id, func(f *domain.SessionForm) error {
		if f.Respuestas.FotoDisyuntor != ref {
			slog.Debug("stale breaker analysis dropped", "session", id, "ref", ref)
			return nil
		}
		if !wizard.IsVisible(f.Respuestas, wizard.CampoFotoDisyuntor) {
			slog.Debug("breaker analysis for a hidden question dropped", "session", id, "ref", ref)
			f.Respuestas = wizard.ClearPhoto(f.Respuestas)
			return nil
		}
		r, err := wizard.ApplyDetection(f.Respuestas, tipo)
		if err != nil {
			return err
		}
		f.Respuestas = r
		return nil
	})
}

// FailAnalysis drops the photo after a failed classification and records
// the error for the UI.
func (s *Store) FailAnalysis(id, ref, msg string) (domain.SessionForm, error) {
	return s.Update(id, func(f *domain.SessionForm) error {
		if f.Respuestas.FotoDisyuntor != ref {
			return nil
		}
		f.Respuestas = wizard.ClearPhoto(f.Respuestas)
		f.UltimoError = msg
		return nil
	})
}

// BeginLoading sets the loading flag. It fails with ErrEnCurso when the flag
// is already set.
func (s *Store) BeginLoading(id string) error {
	_, err := s.Update(id, func(f *domain.SessionForm) error {
		if f.Cargando {
			return ErrEnCurso
		}
		f.Cargando = true
		f.UltimoError = ""
		return nil
	})
	return err
}

// EndLoading clears the loading flag and records errMsg, if any.
func (s *Store) EndLoading(id, errMsg string) {
	_, err := s.Update(id, func(f *domain.SessionForm) error {
		f.Cargando = false
		f.UltimoError = errMsg
		return nil
	})
	if err != nil {
		slog.Warn("clearing loading flag", "session", id, "error", err)
	}
}

// MarkOnce sets a one-shot flag. It reports false when the flag was already
// set, in which case nothing changes.
func (s *Store) MarkOnce(id, key, value string) (bool, error) {
	marked := false
	_, err := s.Update(id, func(f *domain.SessionForm) error {
		if _, ok := f.Flags[key]; ok {
			return errFlagSet
		}
		f.Flags[key] = value
		marked = true
		return nil
	})
	if errors.Is(err, errFlagSet) {
		return false, nil
	}
	return marked, err
}

var errFlagSet = errors.New("flag already set")

// ClearFlags removes one-shot flags once their flow has completed.
func (s *Store) ClearFlags(id string, keys ...string) error {
	_, err := s.Update(id, func(f *domain.SessionForm) error {
		for _, k := range keys {
			delete(f.Flags, k)
		}
		return nil
	})
	return err
}

// Watch returns a channel that receives a signal after every change to the
// session. The channel is buffered by one; bursts coalesce. Call stop when
// done.
func (s *Store) Watch(id string) (<-chan struct{}, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan struct{}, 1)
	e.watchers[ch] = struct{}{}
	stop := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(e.watchers, ch)
	}
	return ch, stop, nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, e := range s.sessions {
		if s.expired(e) && len(e.watchers) == 0 {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		slog.Info("expired sessions removed", "count", n, "remaining", len(s.sessions))
	}
	return n
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Exists reports whether a live session has the id. It does not count as
// activity.
func (s *Store) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.lookup(id)
	return err == nil
}
