package submission

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/session"
)

// MensajeErrorFoto is shown when the breaker photo could not be classified.
const MensajeErrorFoto = "No hemos podido analizar la foto. Vuelve a subirla o continúa sin ella."

// MaxFotoBytes bounds an uploaded breaker photo.
const MaxFotoBytes = 8 << 20

var (
	ErrFotoVacia     = errors.New("empty photo")
	ErrFotoDemasiado = errors.New("photo too large")
)

// Classifier classifies breaker panel photos.
type Classifier interface {
	AnalizarDisyuntor(ctx context.Context, req backend.DisyuntorRequest) (domain.AnalisisIA, error)
}

// PhotoAnalyzer runs breaker photo classifications in the background.
type PhotoAnalyzer struct {
	store   *session.Store
	api     Classifier
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewPhotoAnalyzer creates an analyzer. Each classification gets timeout.
func NewPhotoAnalyzer(store *session.Store, api Classifier, timeout time.Duration) *PhotoAnalyzer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PhotoAnalyzer{store: store, api: api, timeout: timeout}
}

// Start records the photo, marks the analysis as running and classifies it
// asynchronously. The returned form already shows procesando=true. The
// classification is not tied to the caller's request and is not cancelled
// when the caller goes away.
func (a *PhotoAnalyzer) Start(sessionID string, img []byte, contentType string) (domain.SessionForm, error) {
	switch {
	case len(img) == 0:
		return domain.SessionForm{}, ErrFotoVacia
	case len(img) > MaxFotoBytes:
		return domain.SessionForm{}, ErrFotoDemasiado
	}

	ref := "disyuntor/" + uuid.NewString()
	form, err := a.store.SetPhoto(sessionID, ref)
	if err != nil {
		return domain.SessionForm{}, err
	}
	req := backend.DisyuntorRequest{
		Envelope:    backend.NewEnvelope(form, domain.FSMDatosRecogidos),
		Imagen:      img,
		ContentType: contentType,
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		res, err := a.api.AnalizarDisyuntor(ctx, req)
		if err != nil {
			slog.Warn("breaker photo classification failed", "session", sessionID, "ref", ref, "error", err)
			if _, err := a.store.FailAnalysis(sessionID, ref, MensajeErrorFoto); err != nil {
				slog.Warn("recording classification failure", "session", sessionID, "error", err)
			}
			return
		}
		if _, err := a.store.ResolveAnalysis(sessionID, ref, res.TipoDetectado); err != nil {
			slog.Warn("storing classification", "session", sessionID, "error", err)
			return
		}
		slog.Info("breaker photo classified", "session", sessionID, "tipo", res.TipoDetectado)
	}()
	return form, nil
}

// Wait blocks until every running classification has settled.
func (a *PhotoAnalyzer) Wait() {
	a.wg.Wait()
}
