// Package memory is an in-memory onboarding backend. Stub mode of the
// binaries and the tests run on it.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/domain"
)

// DemoDealID is the deal every new Backend knows about.
const DemoDealID = "DEAL-DEMO"

// Backend is an in-memory stand-in for the onboarding REST API. It has
// the same method set as backend.Client, counts calls per endpoint and can
// be told to fail any endpoint.
type Backend struct {
	mu    sync.Mutex
	calls map[string]int
	seq   int

	Zona      domain.EnZona
	Deteccion domain.TipoDetectado
	Deals     map[string]domain.Deal
	SKUs      []backend.SKU
	// Errors forces an endpoint, by name, to fail.
	Errors map[string]error
	// DealDelay holds ObtenerDealPorID before answering.
	DealDelay time.Duration

	Contactos  []backend.ContactoRequest
	Propuestas []backend.PropuestaRequest
	Pagos      []backend.PagoRequest
}

// New returns a stub answering inZone with a demo deal and a small
// catalogue.
func New() *Backend {
	return &Backend{
		calls:     make(map[string]int),
		Zona:      domain.ZonaInZone,
		Deteccion: domain.DetectadoMonofasico,
		Deals: map[string]domain.Deal{
			DemoDealID: {
				DealID:       DemoDealID,
				Nombre:       "Marta Pérez",
				Email:        "marta@example.com",
				Telefono:     "600000000",
				CodigoPostal: "28001",
				Ciudad:       "Madrid",
				Provincia:    "Madrid",
				EnZona:       domain.ZonaInZone,
				Token:        "tok-demo",
				Comunero:     &domain.Comunero{ID: "C-DEMO", Nombre: "Marta Pérez", CodigoPostal: "28001"},
			},
		},
		SKUs: []backend.SKU{
			{SKU: "CS-EP-5", Descripcion: "Canadian Solar EP Cube 5kWh", Precio: 3100},
			{SKU: "LUNA-5", Descripcion: "Huawei LUNA2000 5kWh", Precio: 2900},
			{SKU: "CABLE-10M", Descripcion: "Tirada adicional 10 m", Precio: 180},
		},
		Errors: make(map[string]error),
	}
}

// Calls returns how many times an endpoint was called.
func (s *Backend) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// Fail makes an endpoint return err until cleared with a nil err.
func (s *Backend) Fail(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.Errors, name)
		return
	}
	s.Errors[name] = err
}

func (s *Backend) enter(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	return s.Errors[name]
}

func (s *Backend) nextID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *Backend) validacion(env backend.Envelope) backend.ValidacionResult {
	s.mu.Lock()
	zona := s.Zona
	s.mu.Unlock()
	return backend.ValidacionResult{
		Token:  "tok-" + env.Email,
		EnZona: zona,
		Comunero: &domain.Comunero{
			ID:           "C-" + env.Email,
			Email:        env.Email,
			CodigoPostal: env.CodigoPostal,
		},
	}
}

func (s *Backend) ValidarEmail(_ context.Context, _ backend.ValidarEmailRequest) (backend.ValidacionResult, error) {
	if err := s.enter("validar-email"); err != nil {
		return backend.ValidacionResult{}, err
	}
	return backend.ValidacionResult{CodigoEnviado: true}, nil
}

func (s *Backend) ValidarCodigo(_ context.Context, req backend.ValidarCodigoRequest) (backend.ValidacionResult, error) {
	if err := s.enter("validar-codigo"); err != nil {
		return backend.ValidacionResult{}, err
	}
	return s.validacion(req.Envelope), nil
}

func (s *Backend) ObtenerURLFirma(_ context.Context, env backend.Envelope) (backend.FirmaResult, error) {
	if err := s.enter("url-firma"); err != nil {
		return backend.FirmaResult{}, err
	}
	return backend.FirmaResult{URL: "https://firma.example.com/" + env.PropuestaID}, nil
}

func (s *Backend) ObtenerDatosActualizados(_ context.Context, env backend.Envelope) (backend.ValidacionResult, error) {
	if err := s.enter("datos-actualizados"); err != nil {
		return backend.ValidacionResult{}, err
	}
	out := s.validacion(env)
	out.Token = env.Token
	return out, nil
}

func (s *Backend) propuesta(req backend.PropuestaRequest, cerca bool) domain.Propuesta {
	s.mu.Lock()
	s.Propuestas = append(s.Propuestas, req)
	s.mu.Unlock()

	p := domain.Propuesta{
		PropuestaID:           s.nextID("PROP"),
		RequiereVisitaTecnica: req.RequiereVisitaTecnica,
	}
	p.Items = append(p.Items, domain.PropuestaItem{SKU: "CS-EP-5", Descripcion: "Canadian Solar EP Cube 5kWh", Cantidad: 1, Precio: 3100})
	if !cerca {
		p.Items = append(p.Items, domain.PropuestaItem{SKU: "CABLE-10M", Descripcion: "Tirada adicional 10 m", Cantidad: 1, Precio: 180})
	}
	for _, it := range p.Items {
		p.Total += it.Precio * float64(it.Cantidad)
	}
	return p
}

func (s *Backend) CrearPropuesta(_ context.Context, req backend.PropuestaRequest) (domain.Propuesta, error) {
	if err := s.enter("crear-propuesta"); err != nil {
		return domain.Propuesta{}, err
	}
	return s.propuesta(req, false), nil
}

func (s *Backend) CrearPropuestaInstalacionCerca(_ context.Context, req backend.PropuestaRequest) (domain.Propuesta, error) {
	if err := s.enter("propuesta-instalacion-cerca"); err != nil {
		return domain.Propuesta{}, err
	}
	return s.propuesta(req, true), nil
}

func (s *Backend) SolicitarContactoAsesor(_ context.Context, req backend.ContactoRequest) (backend.ContactoResult, error) {
	if err := s.enter("contacto-asesor"); err != nil {
		return backend.ContactoResult{}, err
	}
	s.mu.Lock()
	s.Contactos = append(s.Contactos, req)
	s.mu.Unlock()
	return backend.ContactoResult{MpkLogID: s.nextID("MPK")}, nil
}

func (s *Backend) AnalizarDisyuntor(_ context.Context, _ backend.DisyuntorRequest) (domain.AnalisisIA, error) {
	if err := s.enter("analizar-disyuntor"); err != nil {
		return domain.AnalisisIA{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.AnalisisIA{TipoDetectado: s.Deteccion}, nil
}

func (s *Backend) ProcesarPropuestaPagada(_ context.Context, req backend.PagoRequest) (backend.PagoResult, error) {
	if err := s.enter("propuesta-pagada"); err != nil {
		return backend.PagoResult{}, err
	}
	s.mu.Lock()
	s.Pagos = append(s.Pagos, req)
	s.mu.Unlock()
	return backend.PagoResult{Estado: domain.FSMPagoConfirmado, PropuestaID: req.PropuestaID}, nil
}

func (s *Backend) ProcesarVisitaPagada(_ context.Context, req backend.PagoRequest) (backend.PagoResult, error) {
	if err := s.enter("visita-pagada"); err != nil {
		return backend.PagoResult{}, err
	}
	s.mu.Lock()
	s.Pagos = append(s.Pagos, req)
	s.mu.Unlock()
	return backend.PagoResult{Estado: domain.FSMVisitaSolicitada, PropuestaID: req.PropuestaID}, nil
}

func (s *Backend) ObtenerDealPorID(ctx context.Context, dealID string) (domain.Deal, error) {
	if err := s.enter("deal"); err != nil {
		return domain.Deal{}, err
	}
	if s.DealDelay > 0 {
		select {
		case <-time.After(s.DealDelay):
		case <-ctx.Done():
			return domain.Deal{}, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.Deals[dealID]
	if !ok {
		return domain.Deal{}, &backend.APIError{Endpoint: "deal", Status: 404, Message: "deal not found"}
	}
	return d, nil
}

func (s *Backend) SolicitarVisitaTecnica(_ context.Context, _ backend.VisitaRequest) (backend.VisitaResult, error) {
	if err := s.enter("visita-tecnica"); err != nil {
		return backend.VisitaResult{}, err
	}
	return backend.VisitaResult{VisitaID: s.nextID("VISITA"), Importe: 90}, nil
}

func (s *Backend) BuscarSKU(_ context.Context, q string) ([]backend.SKU, error) {
	if err := s.enter("buscar-sku"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []backend.SKU
	for _, sku := range s.SKUs {
		if q == "" || containsFold(sku.SKU, q) || containsFold(sku.Descripcion, q) {
			out = append(out, sku)
		}
	}
	return out, nil
}

func (s *Backend) AnadirSKU(_ context.Context, req backend.AnadirSKURequest) (domain.Propuesta, error) {
	if err := s.enter("anadir-sku"); err != nil {
		return domain.Propuesta{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sku := range s.SKUs {
		if sku.SKU == req.SKU {
			item := domain.PropuestaItem{SKU: sku.SKU, Descripcion: sku.Descripcion, Cantidad: req.Cantidad, Precio: sku.Precio}
			return domain.Propuesta{
				PropuestaID: req.PropuestaID,
				Items:       []domain.PropuestaItem{item},
				Total:       item.Precio * float64(item.Cantidad),
			}, nil
		}
	}
	return domain.Propuesta{}, &backend.APIError{Endpoint: "anadir-sku", Status: 404, Message: "sku not found"}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
