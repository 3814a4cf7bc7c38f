package wizard

import "github.com/comunidad-solar/comuneros-go/internal/domain"

// Action is what a submit does once a rule matches.
type Action string

const (
	ActionBlock             Action = "block"
	ActionContactAdvisor    Action = "contact_advisor"
	ActionCloseInstallation Action = "close_installation"
	ActionCreateProposal    Action = "create_proposal"

	// actionReevaluate rewrites the answers and restarts the table.
	actionReevaluate Action = "reevaluate"
)

// Advisor contact reasons sent to the backend.
const (
	MotivoInstalacionFV   = "instalacion-fv-existente"
	MotivoOtraBaterias    = "otra-tipo-baterias"
	MotivoMetrosExtra     = "metros-extra"
	MotivoIANoReconoce    = "ia-no-reconoce"
	MotivoDesconoceUnidad = "desconoce-unidad"
)

// Screens the frontend navigates to after a successful submit.
const (
	RutaGracias   = "/gracias-contacto"
	RutaPropuesta = "/propuesta"
)

// Snapshot is everything the routing table reads.
type Snapshot struct {
	CodigoPostal string
	EnZona       domain.EnZona
	Respuestas   domain.RespuestasPreguntas
}

// Decision is the outcome of evaluating the routing table.
type Decision struct {
	Rule    string `json:"rule"`
	Action  Action `json:"action"`
	Motivo  string `json:"motivo,omitempty"`
	Mensaje string `json:"mensaje,omitempty"`
	// Campo is the question to highlight when Action is block.
	Campo                  Campo  `json:"campo,omitempty"`
	RequiereContactoManual bool   `json:"requiereContactoManual,omitempty"`
	AdjuntarAnalisis       bool   `json:"adjuntarAnalisis,omitempty"`
	RequiereVisitaTecnica  bool   `json:"requiereVisitaTecnica"`
	Ruta                   string `json:"ruta,omitempty"`
	// Respuestas are the answers the action must send, after pruning and any
	// type detected from the breaker photo.
	Respuestas        domain.RespuestasPreguntas `json:"respuestasPreguntas"`
	DeteccionAplicada bool                       `json:"deteccionAplicada,omitempty"`
}

// Rule is one row of the routing table.
type Rule struct {
	Name string
	When func(Snapshot) bool
	Then func(Snapshot) Decision
}

func block(campo Campo, msg string) func(Snapshot) Decision {
	return func(Snapshot) Decision {
		return Decision{Action: ActionBlock, Campo: campo, Mensaje: msg}
	}
}

func contact(motivo string) func(Snapshot) Decision {
	return func(Snapshot) Decision {
		return Decision{Action: ActionContactAdvisor, Motivo: motivo, Ruta: RutaGracias}
	}
}

func ninguno(s Snapshot) bool {
	return s.Respuestas.TipoCuadroElectrico == domain.CuadroNinguno
}

func detected(s Snapshot) (domain.TipoInstalacion, bool) {
	a := s.Respuestas.AnalisisIA
	if !a.Completado() {
		return "", false
	}
	return a.TipoDetectado.Instalacion()
}

// Rules is the submission routing table. Evaluate walks it top to bottom
// and the first match wins.
var Rules = []Rule{
	{
		Name: "codigo-postal-requerido",
		When: func(s Snapshot) bool { return s.CodigoPostal == "" },
		Then: block("", "Necesitamos tu código postal para continuar."),
	},
	{
		Name: "instalacion-fv-existente",
		When: func(s Snapshot) bool { return s.Respuestas.TieneInstalacionFV == domain.Yes },
		Then: func(Snapshot) Decision {
			return Decision{
				Action:                 ActionContactAdvisor,
				Motivo:                 MotivoInstalacionFV,
				RequiereContactoManual: true,
				Ruta:                   RutaGracias,
			}
		},
	},
	{
		Name: "instalacion-fv-requerida",
		When: func(s Snapshot) bool { return !s.Respuestas.TieneInstalacionFV.Answered() },
		Then: block(CampoTieneInstalacionFV, "Indica si ya tienes una instalación fotovoltaica."),
	},
	{
		Name: "tipo-instalacion-requerido",
		When: func(s Snapshot) bool {
			return s.Respuestas.TieneInstalacionFV == domain.No && s.Respuestas.TipoInstalacion == ""
		},
		Then: block(CampoTipoInstalacion, "Indica el tipo de instalación eléctrica."),
	},
	{
		Name: "tiene-baterias-requerido",
		When: func(s Snapshot) bool {
			return s.Respuestas.TipoInstalacion.Known() && !s.Respuestas.TieneBaterias.Answered()
		},
		Then: block(CampoTieneBaterias, "Indica si ya tienes baterías."),
	},
	{
		Name: "tipo-baterias-requerido",
		When: func(s Snapshot) bool {
			return s.Respuestas.TieneBaterias == domain.Yes && s.Respuestas.TipoBaterias == ""
		},
		Then: block(CampoTipoBaterias, "Indica la marca de tus baterías."),
	},
	{
		Name: "capacidad-canadian-requerida",
		When: func(s Snapshot) bool {
			return s.Respuestas.TipoBaterias == domain.BateriasCanadian && s.Respuestas.CapacidadCanadian == ""
		},
		Then: block(CampoCapacidadCanadian, "Indica la capacidad de tus baterías."),
	},
	{
		Name: "capacidad-huawei-requerida",
		When: func(s Snapshot) bool {
			return s.Respuestas.TipoBaterias == domain.BateriasHuawei && s.Respuestas.CapacidadHuawei == ""
		},
		Then: block(CampoCapacidadHuawei, "Indica la capacidad de tus baterías."),
	},
	{
		Name: "cerca-10m-requerido",
		When: func(s Snapshot) bool {
			return s.Respuestas.TieneBaterias == domain.No && !s.Respuestas.InstalacionCerca10m.Answered()
		},
		Then: block(CampoInstalacionCerca10m, "Indica si el punto de instalación está a menos de 10 m."),
	},
	{
		Name: "metros-extra-requerido",
		When: func(s Snapshot) bool {
			return s.Respuestas.InstalacionCerca10m == domain.No && s.Respuestas.MetrosExtra == ""
		},
		Then: block(CampoMetrosExtra, "Indica cuántos metros adicionales hay."),
	},
	{
		Name: "tipo-cuadro-requerido",
		When: func(s Snapshot) bool {
			return s.Respuestas.TipoInstalacion == domain.InstalacionDesconozco && s.Respuestas.TipoCuadroElectrico == ""
		},
		Then: block(CampoTipoCuadroElectrico, "Indica qué cuadro eléctrico se parece al tuyo."),
	},
	{
		Name: MotivoOtraBaterias,
		When: func(s Snapshot) bool { return s.Respuestas.TipoBaterias == domain.BateriasOtra },
		Then: contact(MotivoOtraBaterias),
	},
	{
		Name: MotivoMetrosExtra,
		When: func(s Snapshot) bool {
			return s.Respuestas.InstalacionCerca10m == domain.No && s.Respuestas.MetrosExtra.RequiereAsesor()
		},
		Then: contact(MotivoMetrosExtra),
	},
	{
		Name: MotivoIANoReconoce,
		When: func(s Snapshot) bool {
			a := s.Respuestas.AnalisisIA
			return ninguno(s) && a.Completado() && a.TipoDetectado == domain.DetectadoDesconocido
		},
		Then: func(Snapshot) Decision {
			return Decision{
				Action:           ActionContactAdvisor,
				Motivo:           MotivoIANoReconoce,
				AdjuntarAnalisis: true,
				Ruta:             RutaGracias,
			}
		},
	},
	{
		Name: "ia-detecta-tipo",
		When: func(s Snapshot) bool {
			inst, ok := detected(s)
			return ninguno(s) && ok && s.Respuestas.TipoInstalacion != inst
		},
		Then: func(s Snapshot) Decision {
			inst, _ := detected(s)
			r := s.Respuestas
			r.TipoInstalacion = inst
			return Decision{Action: actionReevaluate, Respuestas: r}
		},
	},
	{
		Name: "ia-procesando",
		When: func(s Snapshot) bool {
			return ninguno(s) && s.Respuestas.AnalisisIA != nil && s.Respuestas.AnalisisIA.Procesando
		},
		Then: block(CampoFotoDisyuntor, "Estamos analizando la foto, espera un momento."),
	},
	{
		Name: MotivoDesconoceUnidad,
		When: func(s Snapshot) bool {
			return ninguno(s) && (s.Respuestas.FotoDisyuntor == "" || s.Respuestas.AnalisisIA == nil)
		},
		Then: contact(MotivoDesconoceUnidad),
	},
	{
		Name: "instalacion-cerca",
		When: func(s Snapshot) bool {
			if s.Respuestas.InstalacionCerca10m != domain.Yes {
				return false
			}
			switch s.EnZona {
			case domain.ZonaInZone, domain.ZonaInZoneWithCost, domain.ZonaNoCPAvailable:
				return true
			}
			return false
		},
		Then: func(s Snapshot) Decision {
			return Decision{
				Action:                ActionCloseInstallation,
				RequiereVisitaTecnica: s.Respuestas.TipoInstalacion == domain.InstalacionTrifasica,
				Ruta:                  RutaPropuesta,
			}
		},
	},
	{
		Name: "propuesta-generica",
		When: func(Snapshot) bool { return true },
		Then: func(Snapshot) Decision {
			return Decision{Action: ActionCreateProposal, Ruta: RutaPropuesta}
		},
	},
}

// Evaluate runs the routing table against s. Answers of hidden questions are
// pruned first. When the breaker photo identified the supply type, the table
// is evaluated again from the top with the detected type in place.
func Evaluate(s Snapshot) Decision {
	s.Respuestas = Prune(s.Respuestas)
	applied := false

restart:
	for {
		for _, r := range Rules {
			if !r.When(s) {
				continue
			}
			d := r.Then(s)
			d.Rule = r.Name
			if d.Action == actionReevaluate {
				s.Respuestas = Prune(d.Respuestas)
				applied = true
				continue restart
			}
			d.Respuestas = s.Respuestas
			d.DeteccionAplicada = applied
			return d
		}
		return Decision{Rule: "propuesta-generica", Action: ActionCreateProposal, Ruta: RutaPropuesta, Respuestas: s.Respuestas}
	}
}
