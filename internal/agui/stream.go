package agui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/session"
	"github.com/comunidad-solar/comuneros-go/internal/uischema"
)

// StreamConfig controls SSE stream behavior.
type StreamConfig struct {
	Heartbeat   time.Duration
	MaxDuration time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() StreamConfig {
	return StreamConfig{
		Heartbeat:   15 * time.Second,
		MaxDuration: 30 * time.Minute,
	}
}

// StreamHandler serves SSE events for a session's state changes. A
// STATE_SNAPSHOT follows every version change. The run finishes when a
// running photo analysis settles or a new route is chosen.
func StreamHandler(store *session.Store, cfg StreamConfig) http.HandlerFunc {
	defaults := DefaultConfig()
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = defaults.Heartbeat
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = defaults.MaxDuration
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			http.Error(w, "session id required", http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ctx, cancel := context.WithTimeout(r.Context(), cfg.MaxDuration)
		defer cancel()

		emit := func(t EventType, data any) {
			writeSSE(w, flusher, Event{Type: t, Timestamp: time.Now().UTC(), SessionID: id, Data: data})
		}

		emit(EventRunStarted, nil)

		// Subscribe before the first read so no change is missed.
		changes, stop, err := store.Watch(id)
		if err != nil {
			emit(EventRunError, ErrorData{Message: err.Error()})
			return
		}
		defer stop()

		form, err := store.Get(id)
		if err != nil {
			emit(EventRunError, ErrorData{Message: err.Error()})
			return
		}
		t := newTracker(form)
		emit(EventStateSnapshot, snapshot(form))

		heartbeat := time.NewTicker(cfg.Heartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case <-changes:
				form, err := store.Get(id)
				if err != nil {
					emit(EventRunError, ErrorData{Message: err.Error()})
					return
				}
				if form.Version == t.version {
					continue
				}
				prev := t.phase
				step := t.observe(form)
				if step {
					emit(EventStepFinished, StepData{Phase: prev})
					emit(EventStepStarted, StepData{Phase: t.phase})
				}
				emit(EventStateSnapshot, snapshot(form))

				switch {
				case t.analysisFailed(form):
					emit(EventRunError, ErrorData{Message: form.UltimoError})
					return
				case t.analysisSettled(form):
					emit(EventRunFinished, FinishedData{Reason: ReasonAnalysis})
					return
				case t.routed(form):
					emit(EventRunFinished, FinishedData{Reason: ReasonRoute, Ruta: form.Ruta})
					return
				}
			}
		}
	}
}

// tracker remembers what the stream has already reported.
type tracker struct {
	version    int64
	phase      string
	ruta       string
	analizando bool
}

func newTracker(f domain.SessionForm) *tracker {
	t := &tracker{ruta: f.Ruta}
	t.observe(f)
	return t
}

// observe records f and reports whether the phase changed.
func (t *tracker) observe(f domain.SessionForm) bool {
	t.version = f.Version
	if a := f.Respuestas.AnalisisIA; a != nil && a.Procesando {
		t.analizando = true
	}
	phase := string(uischema.Build(f).Phase)
	changed := t.phase != "" && phase != t.phase
	t.phase = phase
	return changed
}

func (t *tracker) analysisFailed(f domain.SessionForm) bool {
	return t.analizando && f.Respuestas.AnalisisIA == nil && f.UltimoError != ""
}

func (t *tracker) analysisSettled(f domain.SessionForm) bool {
	return t.analizando && f.Respuestas.AnalisisIA.Completado()
}

func (t *tracker) routed(f domain.SessionForm) bool {
	return f.Ruta != "" && f.Ruta != t.ruta
}

func snapshot(f domain.SessionForm) StateSnapshotData {
	schema := uischema.Build(f)
	return StateSnapshotData{
		Version:  f.Version,
		Phase:    string(schema.Phase),
		State:    f,
		UISchema: schema,
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("encoding sse event", "type", event.Type, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
	flusher.Flush()
}
