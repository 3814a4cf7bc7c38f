package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/session"
	"github.com/comunidad-solar/comuneros-go/internal/submission"
	"github.com/comunidad-solar/comuneros-go/internal/uischema"
	"github.com/comunidad-solar/comuneros-go/internal/wizard"
)

// attributionParams are read from the landing URL when the body omits them.
var attributionParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "campaign", "bypass"}

// formView is a session plus the UI schema rendered from it.
type formView struct {
	Form     domain.SessionForm `json:"form"`
	UISchema uischema.UISchema  `json:"ui_schema"`
}

func viewOf(f domain.SessionForm) formView {
	return formView{Form: f, UISchema: uischema.Build(f)}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.deps.Store.Len()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{}
	if !decodeJSON(w, r, &fields) {
		return
	}
	q := r.URL.Query()
	for _, k := range attributionParams {
		if _, set := fields[k]; !set && q.Get(k) != "" {
			fields[k] = q.Get(k)
		}
	}
	var probe domain.SessionForm
	if err := session.ApplyFields(&probe, fields); err != nil {
		writeErr(w, err)
		return
	}

	asesores := s.deps.IsAdvisorHost(r.Host)
	f := s.deps.Store.Create(func(f *domain.SessionForm) {
		_ = session.ApplyFields(f, fields)
		f.Asesores = asesores
	})
	slog.Info("session created", "session", f.ID, "asesores", asesores, "utm_source", f.Attribution.UTMSource)
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	f, err := s.deps.Store.Get(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handlePatchSession(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{}
	if !decodeJSON(w, r, &fields) {
		return
	}
	f, err := s.deps.Store.SetFields(r.PathValue("id"), fields)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handlePreguntas(w http.ResponseWriter, r *http.Request) {
	f, err := s.deps.Store.Get(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uischema.Build(f))
}

func (s *Server) handleRespuesta(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Campo string `json:"campo"`
		Valor string `json:"valor"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Campo == "" {
		writeError(w, http.StatusBadRequest, "'campo' is required")
		return
	}
	f, err := s.deps.Store.SetRespuesta(r.PathValue("id"), wizard.Campo(body.Campo), body.Valor)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(f))
}

// handleDisyuntor accepts the breaker photo as the multipart field "foto"
// and starts its classification. The response does not wait for it.
func (s *Server) handleDisyuntor(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, submission.MaxFotoBytes+maxJSONBody)
	file, header, err := r.FormFile("foto")
	if err != nil {
		writeErr(w, badUpload(err))
		return
	}
	defer file.Close()

	img, err := io.ReadAll(io.LimitReader(file, submission.MaxFotoBytes+1))
	if err != nil {
		writeErr(w, badUpload(err))
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(img)
	}

	f, err := s.deps.Photos.Start(r.PathValue("id"), img, contentType)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, viewOf(f))
}

// badUpload keeps size errors mappable and reports the rest as a bad request.
func badUpload(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return &uploadError{err: err}
}

type uploadError struct{ err error }

func (e *uploadError) Error() string { return "invalid upload: " + e.err.Error() }
func (e *uploadError) Unwrap() error { return e.err }

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Submitter.Preview(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleEnviar(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Submitter.Submit(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
