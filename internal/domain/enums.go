package domain

import (
	"bytes"
	"fmt"
	"strings"
)

// EnZona is the backend's coverage classification for a member's address.
// It is stored verbatim and never derived locally.
type EnZona string

const (
	ZonaInZone         EnZona = "inZone"
	ZonaInZoneWithCost EnZona = "inZoneWithCost"
	ZonaOutZone        EnZona = "outZone"
	ZonaNoCPAvailable  EnZona = "NoCPAvailable"
)

func (z EnZona) Valid() bool {
	switch z {
	case ZonaInZone, ZonaInZoneWithCost, ZonaOutZone, ZonaNoCPAvailable:
		return true
	}
	return false
}

// TriState is a yes/no answer that may not have been given yet.
// The zero value is Unanswered, so No is never confused with "not asked".
type TriState int8

const (
	Unanswered TriState = iota
	Yes
	No
)

// Answered reports whether the question has a yes or no answer.
func (t TriState) Answered() bool { return t == Yes || t == No }

func (t TriState) String() string {
	switch t {
	case Yes:
		return "true"
	case No:
		return "false"
	}
	return ""
}

// ParseTriState accepts "true"/"false" (plus si/no) and the empty string
// for Unanswered.
func ParseTriState(s string) (TriState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "si", "sí", "yes":
		return Yes, nil
	case "false", "no":
		return No, nil
	case "", "null":
		return Unanswered, nil
	}
	return Unanswered, fmt.Errorf("invalid tri-state value %q", s)
}

// MarshalJSON encodes Unanswered as null.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case Yes:
		return []byte("true"), nil
	case No:
		return []byte("false"), nil
	}
	return []byte("null"), nil
}

func (t *TriState) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*t = Yes
	case "false":
		*t = No
	case "null":
		*t = Unanswered
	default:
		return fmt.Errorf("invalid tri-state JSON %s", data)
	}
	return nil
}

// TipoInstalacion is the electrical supply type of the home.
type TipoInstalacion string

const (
	InstalacionMonofasica TipoInstalacion = "monofasica"
	InstalacionTrifasica  TipoInstalacion = "trifasica"
	InstalacionDesconozco TipoInstalacion = "desconozco"
)

func (t TipoInstalacion) Valid() bool {
	switch t {
	case InstalacionMonofasica, InstalacionTrifasica, InstalacionDesconozco:
		return true
	}
	return false
}

// Known reports whether the supply type is monofasica or trifasica.
func (t TipoInstalacion) Known() bool {
	return t == InstalacionMonofasica || t == InstalacionTrifasica
}

// TipoBaterias is the brand of an already installed battery.
type TipoBaterias string

const (
	BateriasCanadian TipoBaterias = "canadian"
	BateriasHuawei   TipoBaterias = "huawei"
	BateriasOtra     TipoBaterias = "otra"
)

func (t TipoBaterias) Valid() bool {
	switch t {
	case BateriasCanadian, BateriasHuawei, BateriasOtra:
		return true
	}
	return false
}

// Capacidad is a battery capacity option. Options depend on the brand.
type Capacidad string

// CapacidadesCanadian lists the selectable Canadian Solar capacities.
var CapacidadesCanadian = []Capacidad{"5kWh", "10kWh", "15kWh", "20kWh"}

// CapacidadesHuawei lists the selectable Huawei LUNA capacities.
var CapacidadesHuawei = []Capacidad{"5kWh", "10kWh", "15kWh"}

// CapacidadValida reports whether c is one of the options for brand.
func CapacidadValida(brand TipoBaterias, c Capacidad) bool {
	var opts []Capacidad
	switch brand {
	case BateriasCanadian:
		opts = CapacidadesCanadian
	case BateriasHuawei:
		opts = CapacidadesHuawei
	default:
		return false
	}
	for _, o := range opts {
		if o == c {
			return true
		}
	}
	return false
}

// MetrosExtra is the extra cable distance between the meter and the
// install point when it is not within 10 m.
type MetrosExtra string

const (
	MetrosMenos5       MetrosExtra = "menos de 5m"
	MetrosEntre5y10    MetrosExtra = "entre 5 y 10m"
	MetrosEntre10y15   MetrosExtra = "entre 10 y 15m"
	MetrosMas15        MetrosExtra = "más de 15m"
	MetrosDesconoce    MetrosExtra = "lo desconoce"
	MetrosHablarAsesor MetrosExtra = "prefiero hablar con un asesor"
)

// MetrosExtraOpciones is the display order of the distance options.
var MetrosExtraOpciones = []MetrosExtra{
	MetrosMenos5, MetrosEntre5y10, MetrosEntre10y15,
	MetrosMas15, MetrosDesconoce, MetrosHablarAsesor,
}

func (m MetrosExtra) Valid() bool {
	for _, o := range MetrosExtraOpciones {
		if o == m {
			return true
		}
	}
	return false
}

// RequiereAsesor reports whether the distance answer needs a human.
func (m MetrosExtra) RequiereAsesor() bool {
	return m == MetrosMas15 || m == MetrosDesconoce || m == MetrosHablarAsesor
}

// TipoCuadro is the breaker panel type picked from reference pictures.
type TipoCuadro string

const (
	CuadroTipo1   TipoCuadro = "tipo1"
	CuadroTipo2   TipoCuadro = "tipo2"
	CuadroNinguno TipoCuadro = "ninguno"
)

func (t TipoCuadro) Valid() bool {
	switch t {
	case CuadroTipo1, CuadroTipo2, CuadroNinguno:
		return true
	}
	return false
}

// TipoDetectado is the breaker photo classification result.
type TipoDetectado string

const (
	DetectadoMonofasico  TipoDetectado = "monofasico"
	DetectadoTrifasico   TipoDetectado = "trifasico"
	DetectadoDesconocido TipoDetectado = "desconocido"
)

func (t TipoDetectado) Valid() bool {
	switch t {
	case DetectadoMonofasico, DetectadoTrifasico, DetectadoDesconocido:
		return true
	}
	return false
}

// Instalacion maps a detection to a supply type. ok is false for desconocido.
func (t TipoDetectado) Instalacion() (TipoInstalacion, bool) {
	switch t {
	case DetectadoMonofasico:
		return InstalacionMonofasica, true
	case DetectadoTrifasico:
		return InstalacionTrifasica, true
	}
	return "", false
}

// FSM state tags forwarded to the backend for its own bookkeeping.
const (
	FSMDatosRecogidos     = "04_DATOS_RECOGIDOS"
	FSMPropuestaGenerada  = "05_PROPUESTA_GENERADA"
	FSMContratoEnviado    = "06_CONTRATO_ENVIADO"
	FSMPagoConfirmado     = "07_PAGO_CONFIRMADO"
	FSMVisitaSolicitada   = "04B_VISITA_SOLICITADA"
	FSMValidacionComunero = "02_VALIDACION_COMUNERO"
)
