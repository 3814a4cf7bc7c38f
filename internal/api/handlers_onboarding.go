package api

import (
	"net/http"

	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/onboarding"
	"github.com/comunidad-solar/comuneros-go/internal/preloader"
)

func (s *Server) handleValidarEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	id := r.PathValue("id")
	res, err := s.deps.Onboarding.ValidarEmail(r.Context(), id, body.Email)
	if err != nil {
		writeErr(w, err)
		return
	}
	f, err := s.deps.Store.Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		CodigoEnviado bool               `json:"codigoEnviado"`
		Form          domain.SessionForm `json:"form"`
	}{res.CodigoEnviado, f})
}

func (s *Server) handleValidarCodigo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Codigo string `json:"codigo"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	out, err := s.deps.Onboarding.ValidarCodigo(r.Context(), r.PathValue("id"), body.Codigo)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDatosActualizados(w http.ResponseWriter, r *http.Request) {
	f, err := s.deps.Onboarding.AplicarDatosActualizados(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// dealView is the preload state the wizard polls.
type dealView struct {
	Status   preloader.Status `json:"status"`
	DealID   string           `json:"dealId,omitempty"`
	Cargando bool             `json:"cargando"`
	Error    string           `json:"error,omitempty"`
}

func dealViewOf(e preloader.Estado) dealView {
	return dealView{Status: e.Status, DealID: e.DealID, Cargando: e.Cargando(), Error: e.Error()}
}

func (s *Server) handlePreloadDeal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DealID string `json:"dealId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.DealID == "" {
		body.DealID = r.URL.Query().Get("dealId")
	}
	id := r.PathValue("id")
	e, err := s.deps.Preloader.Procesar(r.Context(), id, body.DealID)
	if err != nil {
		writeErr(w, err)
		return
	}
	f, err := s.deps.Store.Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Deal dealView           `json:"deal"`
		Form domain.SessionForm `json:"form"`
	}{dealViewOf(e), f})
}

func (s *Server) handleDealState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f, err := s.deps.Store.Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	dealID, ok := preloader.HasValidDeal(f, r.URL.Query().Get("dealId"))
	if !ok {
		writeJSON(w, http.StatusOK, dealView{})
		return
	}
	writeJSON(w, http.StatusOK, dealViewOf(s.deps.Preloader.State(id, dealID)))
}

// handleResetDeal drops a failed deal load so the reloaded page can try
// again.
func (s *Server) handleResetDeal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f, err := s.deps.Store.Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	dealID, ok := preloader.HasValidDeal(f, r.URL.Query().Get("dealId"))
	if !ok {
		writeErr(w, preloader.ErrSinDeal)
		return
	}
	s.deps.Preloader.Reset(id, dealID)
	writeJSON(w, http.StatusOK, dealViewOf(s.deps.Preloader.State(id, dealID)))
}

func (s *Server) handleContrato(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Onboarding.ObtenerContrato(r.Context(), r.PathValue("id"), r.URL.Query().Get("propuestaId"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleContratoFirmado(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PropuestaID string `json:"propuestaId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	first, err := s.deps.Onboarding.MarcarFirmado(r.PathValue("id"), body.PropuestaID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"firmado": true, "nuevo": first})
}

func (s *Server) handlePago(w http.ResponseWriter, r *http.Request) {
	var p onboarding.Pago
	if !decodeJSON(w, r, &p) {
		return
	}
	if p.PagoID == "" {
		writeError(w, http.StatusBadRequest, "'pagoId' is required")
		return
	}
	out, err := s.deps.Onboarding.ConfirmarPago(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVisitaTecnica(w http.ResponseWriter, r *http.Request) {
	var v onboarding.Visita
	if !decodeJSON(w, r, &v) {
		return
	}
	res, err := s.deps.Onboarding.SolicitarVisita(r.Context(), r.PathValue("id"), v)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
