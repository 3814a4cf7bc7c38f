// Package preloader seeds an advisor session from a CRM deal. Each
// (session, deal) pair reaches the backend at most once.
package preloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/observability"
	"github.com/comunidad-solar/comuneros-go/internal/session"
	"github.com/comunidad-solar/comuneros-go/internal/wizard"
)

// ErrSinDeal is returned when the session is not in advisor mode or no deal
// id can be resolved.
var ErrSinDeal = errors.New("no deal to preload")

// Status is the load state of one (session, deal) pair.
type Status string

const (
	StatusNone    Status = ""
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Estado is what the UI polls while the wizard waits for the deal.
type Estado struct {
	Status Status `json:"status"`
	DealID string `json:"dealId,omitempty"`
	Err    error  `json:"-"`
}

// Cargando mirrors isLoadingDeal.
func (e Estado) Cargando() bool { return e.Status == StatusPending }

// Error mirrors dealError.
func (e Estado) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// DealFetcher looks a deal up by id.
type DealFetcher interface {
	ObtenerDealPorID(ctx context.Context, dealID string) (domain.Deal, error)
}

// Preloader de-duplicates deal loads per session.
type Preloader struct {
	store   *session.Store
	api     DealFetcher
	metrics *observability.Metrics
	timeout time.Duration

	mu    sync.Mutex
	cache map[string]Estado
	group singleflight.Group
}

// New creates a Preloader. metrics may be nil.
func New(store *session.Store, api DealFetcher, metrics *observability.Metrics) *Preloader {
	return &Preloader{
		store:   store,
		api:     api,
		metrics: metrics,
		timeout: 30 * time.Second,
		cache:   make(map[string]Estado),
	}
}

func key(sessionID, dealID string) string { return sessionID + "|" + dealID }

// HasValidDeal reports whether the form is in advisor mode and a deal id can
// be resolved, from the session first and the URL second.
func HasValidDeal(f domain.SessionForm, urlDealID string) (string, bool) {
	if !f.Asesores {
		return "", false
	}
	if f.DealID != "" {
		return f.DealID, true
	}
	if urlDealID != "" {
		return urlDealID, true
	}
	return "", false
}

// State returns the load state for the pair.
func (p *Preloader) State(sessionID, dealID string) Estado {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.cache[key(sessionID, dealID)]
	if !ok {
		return Estado{DealID: dealID}
	}
	return e
}

// Procesar loads the deal and seeds the session. Concurrent callers for the
// same pair share one backend call. A finished load, successful or not, is
// returned from the cache without calling the backend again.
func (p *Preloader) Procesar(ctx context.Context, sessionID, urlDealID string) (Estado, error) {
	form, err := p.store.Get(sessionID)
	if err != nil {
		return Estado{}, err
	}
	dealID, ok := HasValidDeal(form, urlDealID)
	if !ok {
		return Estado{}, ErrSinDeal
	}
	k := key(sessionID, dealID)

	p.mu.Lock()
	if e, ok := p.cache[k]; ok && e.Status != StatusPending {
		p.mu.Unlock()
		return e, e.Err
	}
	p.cache[k] = Estado{Status: StatusPending, DealID: dealID}
	p.mu.Unlock()

	// The load outlives the first caller's request so joined callers are
	// not failed by its cancellation.
	loadCtx := context.WithoutCancel(ctx)
	v, _, shared := p.group.Do(k, func() (any, error) {
		p.mu.Lock()
		if e := p.cache[k]; e.Status != StatusPending {
			p.mu.Unlock()
			return e, nil
		}
		p.mu.Unlock()

		e := p.load(loadCtx, sessionID, dealID)
		p.mu.Lock()
		p.cache[k] = e
		p.mu.Unlock()
		return e, nil
	})
	if shared {
		slog.Debug("deal load joined", "session", sessionID, "deal", dealID)
	}
	e := v.(Estado)
	return e, e.Err
}

func (p *Preloader) load(ctx context.Context, sessionID, dealID string) Estado {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	deal, err := p.api.ObtenerDealPorID(ctx, dealID)
	if err != nil {
		p.metrics.RecordDealLoad(ctx, "error")
		slog.Warn("deal load failed", "session", sessionID, "deal", dealID, "error", err)
		return Estado{Status: StatusError, DealID: dealID, Err: fmt.Errorf("preloader: deal %s: %w", dealID, err)}
	}
	if _, err := p.store.Update(sessionID, func(f *domain.SessionForm) error {
		Seed(f, deal)
		return nil
	}); err != nil {
		p.metrics.RecordDealLoad(ctx, "error")
		return Estado{Status: StatusError, DealID: dealID, Err: fmt.Errorf("preloader: seeding session: %w", err)}
	}
	p.metrics.RecordDealLoad(ctx, "ok")
	slog.Info("deal preloaded", "session", sessionID, "deal", dealID)
	return Estado{Status: StatusDone, DealID: dealID}
}

// Seed copies a deal into the form. Empty deal fields leave the form as is.
func Seed(f *domain.SessionForm, d domain.Deal) {
	f.DealID = d.DealID
	f.FromAsesoresDeal = true
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&f.Nombre, d.Nombre)
	set(&f.Email, d.Email)
	set(&f.Telefono, d.Telefono)
	set(&f.Direccion, d.Direccion)
	set(&f.CodigoPostal, d.CodigoPostal)
	set(&f.Ciudad, d.Ciudad)
	set(&f.Provincia, d.Provincia)
	set(&f.Token, d.Token)
	set(&f.PropuestaID, d.PropuestaID)
	if d.Comunero != nil {
		f.Comunero = domain.MergeComunero(f.Comunero, *d.Comunero)
	}
	if d.EnZona != "" {
		f.EnZona = d.EnZona
	}
	if d.Respuestas != nil {
		f.Respuestas = wizard.Prune(*d.Respuestas)
	}
}

// Reset drops a failed load for the pair so the next Procesar reaches the
// backend again. The frontend calls it on a page reload. Pending and
// successful loads are kept; it reports whether an entry was dropped.
func (p *Preloader) Reset(sessionID, dealID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := key(sessionID, dealID)
	if e, ok := p.cache[k]; ok && e.Status == StatusError {
		delete(p.cache, k)
		return true
	}
	return false
}

// Forget drops cached entries of sessions that no longer exist.
func (p *Preloader) Forget(exists func(sessionID string) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for k, e := range p.cache {
		if e.Status == StatusPending {
			continue
		}
		sid := k[:len(k)-len(e.DealID)-1]
		if !exists(sid) {
			delete(p.cache, k)
			n++
		}
	}
	return n
}
