package backend

import "github.com/comunidad-solar/comuneros-go/internal/domain"

// Envelope is the common block every request carries.
type Envelope struct {
	Nombre                  string `json:"nombre,omitempty"`
	Email                   string `json:"email,omitempty"`
	Telefono                string `json:"telefono,omitempty"`
	Direccion               string `json:"direccion,omitempty"`
	DireccionComplementaria string `json:"direccionComplementaria,omitempty"`
	CodigoPostal            string `json:"codigoPostal,omitempty"`
	Ciudad                  string `json:"ciudad,omitempty"`
	Provincia               string `json:"provincia,omitempty"`
	Pais                    string `json:"pais,omitempty"`
	ComuneroID              string `json:"comuneroId,omitempty"`

	domain.Attribution

	Token       string        `json:"token,omitempty"`
	EnZona      domain.EnZona `json:"enZona,omitempty"`
	DealID      string        `json:"dealId,omitempty"`
	PropuestaID string        `json:"propuestaId,omitempty"`
	MpkLogID    string        `json:"mpkLogId,omitempty"`
	Asesores    bool          `json:"asesores,omitempty"`
	// FSMState is the pipeline tag the backend records. It is passed through.
	FSMState string `json:"fsmState,omitempty"`
}

// NewEnvelope builds the request envelope from a session form. Contact
// fields known to the member record take precedence over raw form input.
func NewEnvelope(f domain.SessionForm, fsm string) Envelope {
	e := Envelope{
		Nombre:                  f.Nombre,
		Email:                   f.Email,
		Telefono:                f.Telefono,
		Direccion:               f.Direccion,
		DireccionComplementaria: f.DireccionComplementaria,
		CodigoPostal:            f.CodigoPostalResuelto(),
		Ciudad:                  f.Ciudad,
		Provincia:               f.Provincia,
		Pais:                    f.Pais,
		Attribution:             f.Attribution,
		Token:                   f.Token,
		EnZona:                  f.EnZona,
		DealID:                  f.DealID,
		PropuestaID:             f.PropuestaID,
		MpkLogID:                f.MpkLogID,
		Asesores:                f.Asesores,
		FSMState:                fsm,
	}
	if c := f.Comunero; c != nil {
		e.ComuneroID = c.ID
		prefer := func(dst *string, v string) {
			if v != "" {
				*dst = v
			}
		}
		prefer(&e.Nombre, c.Nombre)
		prefer(&e.Email, c.Email)
		prefer(&e.Telefono, c.Telefono)
		prefer(&e.Direccion, c.Direccion)
		prefer(&e.Ciudad, c.Ciudad)
		prefer(&e.Provincia, c.Provincia)
	}
	return e
}

// ValidacionResult is returned by the member validation endpoints.
type ValidacionResult struct {
	Token       string           `json:"token,omitempty"`
	EnZona      domain.EnZona    `json:"enZona,omitempty"`
	Comunero    *domain.Comunero `json:"comunero,omitempty"`
	PropuestaID string           `json:"propuestaId,omitempty"`
	MpkLogID    string           `json:"mpkLogId,omitempty"`
	DealID      string           `json:"dealId,omitempty"`
	// CodigoEnviado is set when the backend mailed a one-time code.
	CodigoEnviado bool `json:"codigoEnviado,omitempty"`
}

// ValidarEmailRequest asks the backend to look up or register an email.
type ValidarEmailRequest struct {
	Envelope
}

// ValidarCodigoRequest confirms the one-time code sent by email.
type ValidarCodigoRequest struct {
	Envelope
	Codigo string `json:"codigo"`
}

// FirmaResult carries the contract signature link.
type FirmaResult struct {
	URL string `json:"url"`
}

// PropuestaRequest asks for a proposal from the accumulated answers.
type PropuestaRequest struct {
	Envelope
	Respuestas            domain.RespuestasPreguntas `json:"respuestasPreguntas"`
	RequiereVisitaTecnica bool                       `json:"requiereVisitaTecnica"`
}

// ContactoRequest queues the case for an advisor.
type ContactoRequest struct {
	Envelope
	Motivo                 string                     `json:"motivo"`
	RequiereContactoManual bool                       `json:"requiereContactoManual,omitempty"`
	Respuestas             domain.RespuestasPreguntas `json:"respuestasPreguntas"`
	AnalisisIA             *domain.AnalisisIA         `json:"analisisIA,omitempty"`
}

// ContactoResult acknowledges an advisor contact request.
type ContactoResult struct {
	MpkLogID string `json:"mpkLogId,omitempty"`
}

// DisyuntorRequest sends a breaker photo for classification. Imagen is
// base64 encoded on the wire.
type DisyuntorRequest struct {
	Envelope
	Imagen      []byte `json:"imagen"`
	ContentType string `json:"contentType"`
}

// PagoRequest reports a confirmed payment.
type PagoRequest struct {
	Envelope
	PagoID string `json:"pagoId,omitempty"`
}

// PagoResult is the backend's view after post-processing a payment.
type PagoResult struct {
	Estado      string `json:"estado,omitempty"`
	PropuestaID string `json:"propuestaId,omitempty"`
}

// VisitaRequest asks for a technical visit.
type VisitaRequest struct {
	Envelope
	FechaPreferida string `json:"fechaPreferida,omitempty"`
	Comentarios    string `json:"comentarios,omitempty"`
}

// VisitaResult acknowledges a technical visit request.
type VisitaResult struct {
	VisitaID string  `json:"visitaId"`
	Importe  float64 `json:"importe,omitempty"`
}

// SKU is a catalogue product advisors can add to a proposal.
type SKU struct {
	SKU         string  `json:"sku"`
	Descripcion string  `json:"descripcion"`
	Precio      float64 `json:"precio"`
}

// AnadirSKURequest adds a catalogue line to a proposal.
type AnadirSKURequest struct {
	PropuestaID string `json:"propuestaId"`
	SKU         string `json:"sku"`
	Cantidad    int    `json:"cantidad"`
}
