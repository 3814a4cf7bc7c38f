// Package wizard implements the qualification questionnaire: the answer
// reset cascade, question visibility and the ordered submission routing
// table. It performs no I/O.
package wizard

import (
	"fmt"

	"github.com/comunidad-solar/comuneros-go/internal/domain"
)

// Campo names a wizard question. Values match the JSON field names.
type Campo string

const (
	CampoTieneInstalacionFV  Campo = "tieneInstalacionFV"
	CampoTieneInversorHuawei Campo = "tieneInversorHuawei"
	CampoTipoInstalacion     Campo = "tipoInstalacion"
	CampoTieneBaterias       Campo = "tieneBaterias"
	CampoTipoBaterias        Campo = "tipoBaterias"
	CampoCapacidadCanadian   Campo = "capacidadCanadian"
	CampoCapacidadHuawei     Campo = "capacidadHuawei"
	CampoInstalacionCerca10m Campo = "instalacionCerca10m"
	CampoMetrosExtra         Campo = "metrosExtra"
	CampoTipoCuadroElectrico Campo = "tipoCuadroElectrico"
	CampoFotoDisyuntor       Campo = "fotoDisyuntor"
)

// InvalidAnswerError reports a value that is not an option of the question.
type InvalidAnswerError struct {
	Campo Campo
	Valor string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("invalid value %q for %s", e.Valor, e.Campo)
}

// ApplyAnswer sets one answer and resets every answer that depended on the
// previous value. The input is not modified.
func ApplyAnswer(r domain.RespuestasPreguntas, campo Campo, valor string) (domain.RespuestasPreguntas, error) {
	out := r
	if r.AnalisisIA != nil {
		a := *r.AnalisisIA
		out.AnalisisIA = &a
	}
	invalid := &InvalidAnswerError{Campo: campo, Valor: valor}

	switch campo {
	case CampoTieneInstalacionFV:
		ts, err := domain.ParseTriState(valor)
		if err != nil {
			return r, invalid
		}
		out = domain.RespuestasPreguntas{TieneInstalacionFV: ts}

	case CampoTieneInversorHuawei:
		ts, err := domain.ParseTriState(valor)
		if err != nil {
			return r, invalid
		}
		out.TieneInversorHuawei = ts

	case CampoTipoInstalacion:
		t := domain.TipoInstalacion(valor)
		if valor != "" && !t.Valid() {
			return r, invalid
		}
		out.TipoInstalacion = t
		resetBateria(&out)
		out.InstalacionCerca10m = domain.Unanswered
		if t != domain.InstalacionDesconozco {
			out.TipoCuadroElectrico = ""
		}

	case CampoTipoCuadroElectrico:
		t := domain.TipoCuadro(valor)
		if valor != "" && !t.Valid() {
			return r, invalid
		}
		out.TipoCuadroElectrico = t
		switch t {
		case domain.CuadroTipo1:
			out.TipoInstalacion = domain.InstalacionMonofasica
		case domain.CuadroTipo2:
			out.TipoInstalacion = domain.InstalacionTrifasica
		}
		if t == domain.CuadroTipo1 || t == domain.CuadroTipo2 {
			resetBateria(&out)
			out.InstalacionCerca10m = domain.Unanswered
			out.MetrosExtra = ""
		}

	case CampoTieneBaterias:
		ts, err := domain.ParseTriState(valor)
		if err != nil {
			return r, invalid
		}
		out.TieneBaterias = ts
		out.TipoBaterias = ""
		out.CapacidadCanadian = ""
		out.CapacidadHuawei = ""

	case CampoTipoBaterias:
		t := domain.TipoBaterias(valor)
		if valor != "" && !t.Valid() {
			return r, invalid
		}
		out.TipoBaterias = t
		out.CapacidadCanadian = ""
		out.CapacidadHuawei = ""

	case CampoCapacidadCanadian:
		c := domain.Capacidad(valor)
		if valor != "" && !domain.CapacidadValida(domain.BateriasCanadian, c) {
			return r, invalid
		}
		out.CapacidadCanadian = c

	case CampoCapacidadHuawei:
		c := domain.Capacidad(valor)
		if valor != "" && !domain.CapacidadValida(domain.BateriasHuawei, c) {
			return r, invalid
		}
		out.CapacidadHuawei = c

	case CampoInstalacionCerca10m:
		ts, err := domain.ParseTriState(valor)
		if err != nil {
			return r, invalid
		}
		out.InstalacionCerca10m = ts
		if ts == domain.Yes {
			out.MetrosExtra = ""
		}

	case CampoMetrosExtra:
		m := domain.MetrosExtra(valor)
		if valor != "" && !m.Valid() {
			return r, invalid
		}
		out.MetrosExtra = m

	default:
		return r, fmt.Errorf("unknown question %q", campo)
	}
	return out, nil
}

// resetBateria clears the battery branch.
func resetBateria(r *domain.RespuestasPreguntas) {
	r.TieneBaterias = domain.Unanswered
	r.TipoBaterias = ""
	r.CapacidadCanadian = ""
	r.CapacidadHuawei = ""
}

// ApplyPhoto records an uploaded breaker photo and marks the classification
// as in progress.
func ApplyPhoto(r domain.RespuestasPreguntas, ref string) domain.RespuestasPreguntas {
	r.FotoDisyuntor = ref
	r.AnalisisIA = &domain.AnalisisIA{Procesando: true}
	return r
}

// ApplyDetection stores the terminal classification. A recognised type sets
// tipoInstalacion directly; the cascade is not applied so the breaker-panel
// answer and photo stay in place. desconocido leaves the type untouched.
func ApplyDetection(r domain.RespuestasPreguntas, tipo domain.TipoDetectado) (domain.RespuestasPreguntas, error) {
	if !tipo.Valid() {
		return r, fmt.Errorf("invalid tipoDetectado %q", tipo)
	}
	r.AnalisisIA = &domain.AnalisisIA{TipoDetectado: tipo}
	if inst, ok := tipo.Instalacion(); ok {
		r.TipoInstalacion = inst
	}
	return r, nil
}

// ClearPhoto drops the photo and its analysis, used when classification fails.
func ClearPhoto(r domain.RespuestasPreguntas) domain.RespuestasPreguntas {
	r.FotoDisyuntor = ""
	r.AnalisisIA = nil
	return r
}
