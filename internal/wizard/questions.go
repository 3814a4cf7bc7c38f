package wizard

import "github.com/comunidad-solar/comuneros-go/internal/domain"

// InputKind is how a question is answered.
type InputKind string

const (
	InputRadio  InputKind = "radio"
	InputSelect InputKind = "select"
	InputUpload InputKind = "upload"
)

// Opcion is one selectable answer.
type Opcion struct {
	Valor    string `json:"valor"`
	Etiqueta string `json:"etiqueta"`
}

// Pregunta describes a question of the wizard.
type Pregunta struct {
	Campo    Campo     `json:"campo"`
	Titulo   string    `json:"titulo"`
	Input    InputKind `json:"input"`
	Opciones []Opcion  `json:"opciones,omitempty"`
}

var siNo = []Opcion{{Valor: "true", Etiqueta: "Sí"}, {Valor: "false", Etiqueta: "No"}}

func capacidades(cs []domain.Capacidad) []Opcion {
	out := make([]Opcion, 0, len(cs))
	for _, c := range cs {
		out = append(out, Opcion{Valor: string(c), Etiqueta: string(c)})
	}
	return out
}

func metros() []Opcion {
	out := make([]Opcion, 0, len(domain.MetrosExtraOpciones))
	for _, m := range domain.MetrosExtraOpciones {
		out = append(out, Opcion{Valor: string(m), Etiqueta: string(m)})
	}
	return out
}

// Catalogo lists every question in display order.
var Catalogo = []Pregunta{
	{Campo: CampoTieneInstalacionFV, Titulo: "¿Tienes ya una instalación fotovoltaica?", Input: InputRadio, Opciones: siNo},
	{Campo: CampoTieneInversorHuawei, Titulo: "¿Tu inversor es Huawei?", Input: InputRadio, Opciones: siNo},
	{Campo: CampoTipoInstalacion, Titulo: "¿Qué tipo de instalación eléctrica tienes?", Input: InputRadio, Opciones: []Opcion{
		{Valor: string(domain.InstalacionMonofasica), Etiqueta: "Monofásica"},
		{Valor: string(domain.InstalacionTrifasica), Etiqueta: "Trifásica"},
		{Valor: string(domain.InstalacionDesconozco), Etiqueta: "No lo sé"},
	}},
	{Campo: CampoTipoCuadroElectrico, Titulo: "¿Cuál de estos cuadros eléctricos se parece al tuyo?", Input: InputRadio, Opciones: []Opcion{
		{Valor: string(domain.CuadroTipo1), Etiqueta: "Tipo 1"},
		{Valor: string(domain.CuadroTipo2), Etiqueta: "Tipo 2"},
		{Valor: string(domain.CuadroNinguno), Etiqueta: "Ninguno"},
	}},
	{Campo: CampoFotoDisyuntor, Titulo: "Sube una foto de tu disyuntor", Input: InputUpload},
	{Campo: CampoTieneBaterias, Titulo: "¿Tienes ya baterías instaladas?", Input: InputRadio, Opciones: siNo},
	{Campo: CampoTipoBaterias, Titulo: "¿De qué marca son tus baterías?", Input: InputRadio, Opciones: []Opcion{
		{Valor: string(domain.BateriasCanadian), Etiqueta: "Canadian Solar"},
		{Valor: string(domain.BateriasHuawei), Etiqueta: "Huawei"},
		{Valor: string(domain.BateriasOtra), Etiqueta: "Otra"},
	}},
	{Campo: CampoCapacidadCanadian, Titulo: "Capacidad de tus baterías Canadian", Input: InputSelect, Opciones: capacidades(domain.CapacidadesCanadian)},
	{Campo: CampoCapacidadHuawei, Titulo: "Capacidad de tus baterías Huawei", Input: InputSelect, Opciones: capacidades(domain.CapacidadesHuawei)},
	{Campo: CampoInstalacionCerca10m, Titulo: "¿El punto de instalación está a menos de 10 m del contador?", Input: InputRadio, Opciones: siNo},
	{Campo: CampoMetrosExtra, Titulo: "¿Cuántos metros adicionales hay?", Input: InputSelect, Opciones: metros()},
}

// IsVisible reports whether a question is shown for the current answers.
func IsVisible(r domain.RespuestasPreguntas, campo Campo) bool {
	switch campo {
	case CampoTieneInstalacionFV:
		return true
	case CampoTieneInversorHuawei:
		return r.TieneInstalacionFV == domain.Yes
	case CampoTipoInstalacion:
		return r.TieneInstalacionFV == domain.No
	case CampoTipoCuadroElectrico:
		return r.TieneInstalacionFV == domain.No && r.TipoInstalacion == domain.InstalacionDesconozco
	case CampoFotoDisyuntor:
		return IsVisible(r, CampoTipoCuadroElectrico) && r.TipoCuadroElectrico == domain.CuadroNinguno
	case CampoTieneBaterias:
		return r.TieneInstalacionFV == domain.No && r.TipoInstalacion.Known()
	case CampoTipoBaterias:
		return IsVisible(r, CampoTieneBaterias) && r.TieneBaterias == domain.Yes
	case CampoCapacidadCanadian:
		return IsVisible(r, CampoTipoBaterias) && r.TipoBaterias == domain.BateriasCanadian
	case CampoCapacidadHuawei:
		return IsVisible(r, CampoTipoBaterias) && r.TipoBaterias == domain.BateriasHuawei
	case CampoInstalacionCerca10m:
		return IsVisible(r, CampoTieneBaterias) && r.TieneBaterias == domain.No
	case CampoMetrosExtra:
		return IsVisible(r, CampoInstalacionCerca10m) && r.InstalacionCerca10m == domain.No
	}
	return false
}

// IsAnswered reports whether a question holds an answer.
func IsAnswered(r domain.RespuestasPreguntas, campo Campo) bool {
	switch campo {
	case CampoTieneInstalacionFV:
		return r.TieneInstalacionFV.Answered()
	case CampoTieneInversorHuawei:
		return r.TieneInversorHuawei.Answered()
	case CampoTipoInstalacion:
		return r.TipoInstalacion != ""
	case CampoTipoCuadroElectrico:
		return r.TipoCuadroElectrico != ""
	case CampoFotoDisyuntor:
		return r.FotoDisyuntor != ""
	case CampoTieneBaterias:
		return r.TieneBaterias.Answered()
	case CampoTipoBaterias:
		return r.TipoBaterias != ""
	case CampoCapacidadCanadian:
		return r.CapacidadCanadian != ""
	case CampoCapacidadHuawei:
		return r.CapacidadHuawei != ""
	case CampoInstalacionCerca10m:
		return r.InstalacionCerca10m.Answered()
	case CampoMetrosExtra:
		return r.MetrosExtra != ""
	}
	return false
}

// Valor returns the stored answer of a question as a string.
func Valor(r domain.RespuestasPreguntas, campo Campo) string {
	switch campo {
	case CampoTieneInstalacionFV:
		return r.TieneInstalacionFV.String()
	case CampoTieneInversorHuawei:
		return r.TieneInversorHuawei.String()
	case CampoTipoInstalacion:
		return string(r.TipoInstalacion)
	case CampoTipoCuadroElectrico:
		return string(r.TipoCuadroElectrico)
	case CampoFotoDisyuntor:
		return r.FotoDisyuntor
	case CampoTieneBaterias:
		return r.TieneBaterias.String()
	case CampoTipoBaterias:
		return string(r.TipoBaterias)
	case CampoCapacidadCanadian:
		return string(r.CapacidadCanadian)
	case CampoCapacidadHuawei:
		return string(r.CapacidadHuawei)
	case CampoInstalacionCerca10m:
		return r.InstalacionCerca10m.String()
	case CampoMetrosExtra:
		return string(r.MetrosExtra)
	}
	return ""
}

// Visible returns the questions shown for the current answers, in order.
func Visible(r domain.RespuestasPreguntas) []Pregunta {
	var out []Pregunta
	for _, p := range Catalogo {
		if IsVisible(r, p.Campo) {
			out = append(out, p)
		}
	}
	return out
}

// Next returns the first visible question without an answer. The photo
// upload and the inverter question are optional and never returned.
func Next(r domain.RespuestasPreguntas) (Pregunta, bool) {
	for _, p := range Visible(r) {
		if p.Campo == CampoFotoDisyuntor || p.Campo == CampoTieneInversorHuawei {
			continue
		}
		if !IsAnswered(r, p.Campo) {
			return p, true
		}
	}
	return Pregunta{}, false
}

// Prune clears answers of questions that are no longer shown. The photo and
// its analysis are kept as attachments.
func Prune(r domain.RespuestasPreguntas) domain.RespuestasPreguntas {
	out := r
	if !IsVisible(r, CampoTieneInversorHuawei) {
		out.TieneInversorHuawei = domain.Unanswered
	}
	if !IsVisible(r, CampoTipoInstalacion) {
		out.TipoInstalacion = ""
	}
	if !IsVisible(r, CampoTipoCuadroElectrico) {
		out.TipoCuadroElectrico = ""
	}
	if !IsVisible(r, CampoTieneBaterias) {
		out.TieneBaterias = domain.Unanswered
	}
	if !IsVisible(r, CampoTipoBaterias) {
		out.TipoBaterias = ""
	}
	if !IsVisible(r, CampoCapacidadCanadian) {
		out.CapacidadCanadian = ""
	}
	if !IsVisible(r, CampoCapacidadHuawei) {
		out.CapacidadHuawei = ""
	}
	if !IsVisible(r, CampoInstalacionCerca10m) {
		out.InstalacionCerca10m = domain.Unanswered
	}
	if !IsVisible(r, CampoMetrosExtra) {
		out.MetrosExtra = ""
	}
	return out
}
