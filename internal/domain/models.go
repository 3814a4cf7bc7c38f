// Package domain holds the session form model shared by every step of the
// comunero onboarding flow.
package domain

import "time"

// Comunero is the backend's canonical view of a member. Updates are merged
// field by field; an empty incoming field never erases a known value.
type Comunero struct {
	ID           string `json:"id,omitempty"`
	Nombre       string `json:"nombre,omitempty"`
	Email        string `json:"email,omitempty"`
	Telefono     string `json:"telefono,omitempty"`
	Direccion    string `json:"direccion,omitempty"`
	CodigoPostal string `json:"codigoPostal,omitempty"`
	Ciudad       string `json:"ciudad,omitempty"`
	Provincia    string `json:"provincia,omitempty"`
}

// MergeComunero returns dst with every non-empty field of src copied over.
func MergeComunero(dst *Comunero, src Comunero) *Comunero {
	out := Comunero{}
	if dst != nil {
		out = *dst
	}
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&out.ID, src.ID)
	set(&out.Nombre, src.Nombre)
	set(&out.Email, src.Email)
	set(&out.Telefono, src.Telefono)
	set(&out.Direccion, src.Direccion)
	set(&out.CodigoPostal, src.CodigoPostal)
	set(&out.Ciudad, src.Ciudad)
	set(&out.Provincia, src.Provincia)
	return &out
}

// AnalisisIA is the breaker photo classification state.
type AnalisisIA struct {
	TipoDetectado TipoDetectado `json:"tipoDetectado,omitempty"`
	Procesando    bool          `json:"procesando"`
}

// Completado reports whether the classification reached a terminal result.
func (a *AnalisisIA) Completado() bool {
	return a != nil && !a.Procesando && a.TipoDetectado != ""
}

// RespuestasPreguntas is the sparse set of qualification answers. An empty
// string or Unanswered means the question has not been answered.
type RespuestasPreguntas struct {
	TieneInstalacionFV  TriState        `json:"tieneInstalacionFV"`
	TieneInversorHuawei TriState        `json:"tieneInversorHuawei"`
	TipoInstalacion     TipoInstalacion `json:"tipoInstalacion,omitempty"`
	TieneBaterias       TriState        `json:"tieneBaterias"`
	TipoBaterias        TipoBaterias    `json:"tipoBaterias,omitempty"`
	CapacidadCanadian   Capacidad       `json:"capacidadCanadian,omitempty"`
	CapacidadHuawei     Capacidad       `json:"capacidadHuawei,omitempty"`
	InstalacionCerca10m TriState        `json:"instalacionCerca10m"`
	MetrosExtra         MetrosExtra     `json:"metrosExtra,omitempty"`
	TipoCuadroElectrico TipoCuadro      `json:"tipoCuadroElectrico,omitempty"`
	FotoDisyuntor       string          `json:"fotoDisyuntor,omitempty"`
	AnalisisIA          *AnalisisIA     `json:"analisisIA,omitempty"`
}

// Attribution carries campaign fields forwarded with every backend call.
type Attribution struct {
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
	// Campaign is the pre-UTM campaign field some landing pages still send.
	Campaign string `json:"campaign,omitempty"`
}

// SessionForm is the single mutable state of one browser session.
type SessionForm struct {
	ID string `json:"id"`

	Nombre                  string `json:"nombre"`
	Email                   string `json:"email"`
	Telefono                string `json:"telefono"`
	Direccion               string `json:"direccion"`
	DireccionComplementaria string `json:"direccionComplementaria"`
	CodigoPostal            string `json:"codigoPostal"`
	Ciudad                  string `json:"ciudad"`
	Provincia               string `json:"provincia"`
	Pais                    string `json:"pais"`

	Bypass           bool `json:"bypass"`
	Asesores         bool `json:"asesores"`
	FromAsesoresDeal bool `json:"fromAsesoresDeal"`

	Token       string `json:"token,omitempty"`
	DealID      string `json:"dealId,omitempty"`
	PropuestaID string `json:"propuestaId,omitempty"`
	MpkLogID    string `json:"mpkLogId,omitempty"`

	EnZona      EnZona              `json:"enZona,omitempty"`
	Comunero    *Comunero           `json:"comunero,omitempty"`
	Respuestas  RespuestasPreguntas `json:"respuestasPreguntas"`
	Attribution Attribution         `json:"attribution"`

	Cargando    bool   `json:"cargando"`
	UltimoError string `json:"ultimoError,omitempty"`
	Ruta        string `json:"ruta,omitempty"`

	// Flags mirrors the one-shot progress markers the browser kept in
	// per-tab storage.
	Flags map[string]string `json:"flags,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSessionForm returns an empty form with defaults.
func NewSessionForm(id string, now time.Time) SessionForm {
	return SessionForm{
		ID:        id,
		Pais:      "España",
		Flags:     make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CodigoPostalResuelto returns the postal code from the member record, or
// the raw form field when the record has none.
func (f SessionForm) CodigoPostalResuelto() string {
	if f.Comunero != nil && f.Comunero.CodigoPostal != "" {
		return f.Comunero.CodigoPostal
	}
	return f.CodigoPostal
}

// ResolvePropuestaID prefers the backend-assigned proposal id over a value
// carried in navigation state.
func (f SessionForm) ResolvePropuestaID(nav string) string {
	if f.PropuestaID != "" {
		return f.PropuestaID
	}
	return nav
}

// Clone returns a deep copy safe to hand out of the store.
func (f SessionForm) Clone() SessionForm {
	out := f
	if f.Comunero != nil {
		c := *f.Comunero
		out.Comunero = &c
	}
	if f.Respuestas.AnalisisIA != nil {
		a := *f.Respuestas.AnalisisIA
		out.Respuestas.AnalisisIA = &a
	}
	out.Flags = make(map[string]string, len(f.Flags))
	for k, v := range f.Flags {
		out.Flags[k] = v
	}
	return out
}

// Deal is a CRM case an advisor opens to pre-seed a session.
type Deal struct {
	DealID       string               `json:"dealId"`
	Nombre       string               `json:"nombre,omitempty"`
	Email        string               `json:"email,omitempty"`
	Telefono     string               `json:"telefono,omitempty"`
	Direccion    string               `json:"direccion,omitempty"`
	CodigoPostal string               `json:"codigoPostal,omitempty"`
	Ciudad       string               `json:"ciudad,omitempty"`
	Provincia    string               `json:"provincia,omitempty"`
	Comunero     *Comunero            `json:"comunero,omitempty"`
	EnZona       EnZona               `json:"enZona,omitempty"`
	Token        string               `json:"token,omitempty"`
	PropuestaID  string               `json:"propuestaId,omitempty"`
	Respuestas   *RespuestasPreguntas `json:"respuestasPreguntas,omitempty"`
}

// PropuestaItem is one priced line of a proposal.
type PropuestaItem struct {
	SKU         string  `json:"sku"`
	Descripcion string  `json:"descripcion"`
	Cantidad    int     `json:"cantidad"`
	Precio      float64 `json:"precio"`
}

// Propuesta is the battery purchase proposal generated by the backend.
type Propuesta struct {
	PropuestaID           string          `json:"propuestaId"`
	Items                 []PropuestaItem `json:"items,omitempty"`
	Total                 float64         `json:"total"`
	RequiereVisitaTecnica bool            `json:"requiereVisitaTecnica"`
	ContratoURL           string          `json:"contratoUrl,omitempty"`
}
