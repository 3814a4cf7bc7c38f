package uischema

import (
	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/wizard"
)

// memberCard shows who the session belongs to once the backend knows.
func memberCard(f domain.SessionForm) Component {
	return Component{
		Type:       ComponentMemberCard,
		Title:      "Tus datos",
		Priority:   0,
		Visibility: VisibilityVisible,
		Data: map[string]any{
			"nombre":        f.Comunero.Nombre,
			"email":         f.Comunero.Email,
			"codigo_postal": f.CodigoPostalResuelto(),
			"en_zona":       string(f.EnZona),
		},
	}
}

func postalCodeAsk() Component {
	return Component{
		Type:       ComponentPostalCodeAsk,
		Title:      "Necesitamos tu código postal para continuar.",
		Priority:   5,
		Visibility: VisibilityVisible,
	}
}

// question renders a radio or select question. Questions stay disabled
// until a postal code is known.
func question(p wizard.Pregunta, r domain.RespuestasPreguntas, i int, disabled bool) Component {
	return Component{
		Type:       ComponentQuestion,
		Title:      p.Titulo,
		Priority:   10 + i,
		Visibility: VisibilityVisible,
		Disabled:   disabled,
		Data: map[string]any{
			"campo":    string(p.Campo),
			"input":    string(p.Input),
			"opciones": p.Opciones,
			"valor":    wizard.Valor(r, p.Campo),
		},
	}
}

func photoUpload(p wizard.Pregunta, r domain.RespuestasPreguntas, i int, disabled bool) Component {
	data := map[string]any{
		"campo":      string(p.Campo),
		"ref":        r.FotoDisyuntor,
		"procesando": false,
	}
	if a := r.AnalisisIA; a != nil {
		data["procesando"] = a.Procesando
		data["completado"] = a.Completado()
		if a.TipoDetectado != "" {
			data["tipo_detectado"] = string(a.TipoDetectado)
		}
	}
	return Component{
		Type:       ComponentPhotoUpload,
		Title:      p.Titulo,
		Priority:   10 + i,
		Visibility: VisibilityVisible,
		Disabled:   disabled,
		Data:       data,
	}
}

func errorBanner(msg string) Component {
	return Component{
		Type:       ComponentErrorBanner,
		Title:      msg,
		Priority:   90,
		Visibility: VisibilityVisible,
	}
}

// blockMessage is collapsed: the frontend reveals it after a submit attempt.
func blockMessage(d wizard.Decision) Component {
	data := map[string]any{"rule": d.Rule}
	if d.Campo != "" {
		data["campo"] = string(d.Campo)
	}
	return Component{
		Type:       ComponentBlockMessage,
		Title:      d.Mensaje,
		Priority:   95,
		Visibility: VisibilityCollapsed,
		Data:       data,
	}
}
