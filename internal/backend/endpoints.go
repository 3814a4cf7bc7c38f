package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/ratelimit"
)

// ValidarEmail looks up or registers the member by email.
func (c *Client) ValidarEmail(ctx context.Context, req ValidarEmailRequest) (ValidacionResult, error) {
	var out ValidacionResult
	err := c.call(ctx, ratelimit.GroupValidacion, "validar-email", http.MethodPost, "/validacion/email", nil, req, &out)
	return out, err
}

// ValidarCodigo confirms the one-time code and returns the member and zone.
func (c *Client) ValidarCodigo(ctx context.Context, req ValidarCodigoRequest) (ValidacionResult, error) {
	var out ValidacionResult
	err := c.call(ctx, ratelimit.GroupValidacion, "validar-codigo", http.MethodPost, "/validacion/codigo", nil, req, &out)
	return out, err
}

// ObtenerURLFirma returns the contract signature link for a proposal.
func (c *Client) ObtenerURLFirma(ctx context.Context, env Envelope) (FirmaResult, error) {
	if env.PropuestaID == "" {
		return FirmaResult{}, fmt.Errorf("backend: url-firma: propuestaId is required")
	}
	var out FirmaResult
	err := c.call(ctx, ratelimit.GroupValidacion, "url-firma", http.MethodPost, "/validacion/url-firma", nil, env, &out)
	return out, err
}

// ObtenerDatosActualizados returns the member data after validation.
func (c *Client) ObtenerDatosActualizados(ctx context.Context, env Envelope) (ValidacionResult, error) {
	var out ValidacionResult
	err := c.call(ctx, ratelimit.GroupValidacion, "datos-actualizados", http.MethodPost, "/validacion/datos-actualizados", nil, env, &out)
	return out, err
}

// CrearPropuesta generates a proposal from the full set of answers.
func (c *Client) CrearPropuesta(ctx context.Context, req PropuestaRequest) (domain.Propuesta, error) {
	var out domain.Propuesta
	err := c.call(ctx, ratelimit.GroupBaterias, "crear-propuesta", http.MethodPost, "/baterias/propuesta", nil, req, &out)
	return out, err
}

// CrearPropuestaInstalacionCerca generates the proposal for installs within
// 10 m of the meter.
func (c *Client) CrearPropuestaInstalacionCerca(ctx context.Context, req PropuestaRequest) (domain.Propuesta, error) {
	var out domain.Propuesta
	err := c.call(ctx, ratelimit.GroupBaterias, "propuesta-instalacion-cerca", http.MethodPost, "/baterias/propuesta/instalacion-cerca", nil, req, &out)
	return out, err
}

// SolicitarContactoAsesor queues the case for a human advisor.
func (c *Client) SolicitarContactoAsesor(ctx context.Context, req ContactoRequest) (ContactoResult, error) {
	var out ContactoResult
	err := c.call(ctx, ratelimit.GroupAsesores, "contacto-asesor", http.MethodPost, "/baterias/contacto-asesor", nil, req, &out)
	return out, err
}

// AnalizarDisyuntor classifies a breaker panel photo.
func (c *Client) AnalizarDisyuntor(ctx context.Context, req DisyuntorRequest) (domain.AnalisisIA, error) {
	var out domain.AnalisisIA
	if err := c.call(ctx, ratelimit.GroupIA, "analizar-disyuntor", http.MethodPost, "/baterias/analizar-disyuntor", nil, req, &out); err != nil {
		return out, err
	}
	if err := domain.ValidateAnalisisIA(out); err != nil {
		return out, fmt.Errorf("backend: analizar-disyuntor: %w", err)
	}
	return out, nil
}

// ProcesarPropuestaPagada post-processes a paid proposal.
func (c *Client) ProcesarPropuestaPagada(ctx context.Context, req PagoRequest) (PagoResult, error) {
	var out PagoResult
	err := c.call(ctx, ratelimit.GroupBaterias, "propuesta-pagada", http.MethodPost, "/baterias/propuesta-pagada", nil, req, &out)
	return out, err
}

// ProcesarVisitaPagada post-processes a paid technical visit.
func (c *Client) ProcesarVisitaPagada(ctx context.Context, req PagoRequest) (PagoResult, error) {
	var out PagoResult
	err := c.call(ctx, ratelimit.GroupBaterias, "visita-pagada", http.MethodPost, "/baterias/visita-pagada", nil, req, &out)
	return out, err
}

// ObtenerDealPorID fetches a CRM deal.
func (c *Client) ObtenerDealPorID(ctx context.Context, dealID string) (domain.Deal, error) {
	var out domain.Deal
	path := "/baterias/deal/" + url.PathEscape(dealID)
	if err := c.call(ctx, ratelimit.GroupAsesores, "deal", http.MethodGet, path, nil, nil, &out); err != nil {
		return out, err
	}
	if out.DealID == "" {
		out.DealID = dealID
	}
	if err := domain.ValidateDeal(out); err != nil {
		return out, fmt.Errorf("backend: deal: %w", err)
	}
	return out, nil
}

// SolicitarVisitaTecnica requests a technical visit.
func (c *Client) SolicitarVisitaTecnica(ctx context.Context, req VisitaRequest) (VisitaResult, error) {
	var out VisitaResult
	err := c.call(ctx, ratelimit.GroupBaterias, "visita-tecnica", http.MethodPost, "/baterias/visita-tecnica", nil, req, &out)
	return out, err
}

// BuscarSKU searches the product catalogue.
func (c *Client) BuscarSKU(ctx context.Context, q string) ([]SKU, error) {
	var out []SKU
	err := c.call(ctx, ratelimit.GroupAsesores, "buscar-sku", http.MethodGet, "/baterias/skus", url.Values{"q": {q}}, nil, &out)
	return out, err
}

// AnadirSKU adds a catalogue line to a proposal and returns the proposal.
func (c *Client) AnadirSKU(ctx context.Context, req AnadirSKURequest) (domain.Propuesta, error) {
	if req.Cantidad <= 0 {
		return domain.Propuesta{}, fmt.Errorf("backend: anadir-sku: cantidad must be positive, got %d", req.Cantidad)
	}
	var out domain.Propuesta
	err := c.call(ctx, ratelimit.GroupAsesores, "anadir-sku", http.MethodPost, "/baterias/skus", nil, req, &out)
	return out, err
}
