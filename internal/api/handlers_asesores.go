package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/querier"
)

func (s *Server) handleGetDeal(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Advisor.ObtenerDealPorID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleBuscarSKU(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "'q' is required")
		return
	}
	skus, err := s.deps.Advisor.BuscarSKU(r.Context(), q)
	if err != nil {
		writeErr(w, err)
		return
	}
	if skus == nil {
		skus = []backend.SKU{}
	}
	writeJSON(w, http.StatusOK, skus)
}

func (s *Server) handleAnadirSKU(w http.ResponseWriter, r *http.Request) {
	var req backend.AnadirSKURequest
	if !decodeJSON(w, r, &req) {
		return
	}
	switch {
	case req.PropuestaID == "":
		writeError(w, http.StatusBadRequest, "'propuestaId' is required")
		return
	case req.SKU == "":
		writeError(w, http.StatusBadRequest, "'sku' is required")
		return
	case req.Cantidad <= 0:
		writeError(w, http.StatusBadRequest, "'cantidad' must be positive")
		return
	}
	p, err := s.deps.Advisor.AnadirSKU(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	slog.Info("sku added", "advisor", AdvisorFromContext(r.Context()), "propuesta", req.PropuestaID, "sku", req.SKU, "cantidad", req.Cantidad)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	if s.deps.Flows == nil {
		writeError(w, http.StatusNotImplemented, "flows are not enabled")
		return
	}
	opts := querier.ListOptions{
		TaskQueue:    r.URL.Query().Get("queue"),
		StatusFilter: r.URL.Query().Get("status"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "'limit' must be a positive integer")
			return
		}
		opts.PageSize = n
	}
	flows, err := s.deps.Flows.ListFlows(r.Context(), opts)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flows)
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	if s.deps.Flows == nil {
		writeError(w, http.StatusNotImplemented, "flows are not enabled")
		return
	}
	st, err := s.deps.Flows.GetFlowStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
