package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"go.temporal.io/api/serviceerror"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/onboarding"
	"github.com/comunidad-solar/comuneros-go/internal/preloader"
	"github.com/comunidad-solar/comuneros-go/internal/ratelimit"
	"github.com/comunidad-solar/comuneros-go/internal/session"
	"github.com/comunidad-solar/comuneros-go/internal/submission"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/querier"
	"github.com/comunidad-solar/comuneros-go/internal/wizard"
)

const maxJSONBody = 1 << 20

type errorBody struct {
	Error string `json:"error"`
	Rule  string `json:"rule,omitempty"`
	Campo string `json:"campo,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeErr maps a service error to its HTTP status.
func writeErr(w http.ResponseWriter, err error) {
	var (
		validation *submission.ValidationError
		answer     *wizard.InvalidAnswerError
		field      *session.FieldError
		apiErr     *backend.APIError
		tooLarge   *http.MaxBytesError
		notFound   *serviceerror.NotFound
		upload     *uploadError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error: validation.Mensaje,
			Rule:  validation.Rule,
			Campo: string(validation.Campo),
		})
	case errors.As(err, &answer):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Campo: string(answer.Campo)})
	case errors.As(err, &field):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Campo: field.Field})
	case errors.Is(err, session.ErrCodigoPostalRequerido),
		errors.Is(err, onboarding.ErrSinPropuesta),
		errors.Is(err, onboarding.ErrEmailRequerido),
		errors.Is(err, onboarding.ErrCodigoRequerido),
		errors.Is(err, preloader.ErrSinDeal),
		errors.Is(err, submission.ErrFotoVacia):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &upload):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, submission.ErrFotoDemasiado), errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ratelimit.ErrBudgetExceeded):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, session.ErrEnCurso):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrNotFound), errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case backend.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &apiErr), errors.Is(err, querier.ErrFlowFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("unhandled error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
