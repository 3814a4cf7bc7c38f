package domain

import (
	"encoding/json"
	"testing"
)

func TestEnZonaValid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		zona  EnZona
		valid bool
	}{
		{name: "inZone", zona: ZonaInZone, valid: true},
		{name: "inZoneWithCost", zona: ZonaInZoneWithCost, valid: true},
		{name: "outZone", zona: ZonaOutZone, valid: true},
		{name: "NoCPAvailable", zona: ZonaNoCPAvailable, valid: true},
		{name: "lowercase", zona: EnZona("nocpavailable"), valid: false},
		{name: "empty", zona: EnZona(""), valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.zona.Valid(); got != tt.valid {
				t.Errorf("EnZona(%q).Valid() = %v, want %v", tt.zona, got, tt.valid)
			}
		})
	}
}

func TestTriStateZeroValueIsUnanswered(t *testing.T) {
	t.Parallel()
	var ts TriState
	if ts != Unanswered {
		t.Fatalf("zero TriState = %v, want Unanswered", ts)
	}
	if ts.Answered() {
		t.Error("zero TriState must not count as answered")
	}
	if !No.Answered() {
		t.Error("No must count as answered")
	}
}

func TestTriStateJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   TriState
		want string
	}{
		{Unanswered, "null"},
		{Yes, "true"},
		{No, "false"},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.in)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(data) != tt.want {
			t.Errorf("Marshal(%v) = %s, want %s", tt.in, data, tt.want)
		}
		var back TriState
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if back != tt.in {
			t.Errorf("Unmarshal(%s) = %v, want %v", data, back, tt.in)
		}
	}
}

func TestTriStateUnmarshalRejectsGarbage(t *testing.T) {
	t.Parallel()
	var ts TriState
	if err := json.Unmarshal([]byte(`"maybe"`), &ts); err == nil {
		t.Error("expected error for non-boolean JSON")
	}
}

func TestTriStateMissingFieldStaysUnanswered(t *testing.T) {
	t.Parallel()
	var r RespuestasPreguntas
	if err := json.Unmarshal([]byte(`{"tieneBaterias": false}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.TieneBaterias != No {
		t.Errorf("tieneBaterias = %v, want No", r.TieneBaterias)
	}
	if r.TieneInstalacionFV != Unanswered {
		t.Errorf("tieneInstalacionFV = %v, want Unanswered", r.TieneInstalacionFV)
	}
}

func TestParseTriState(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    TriState
		wantErr bool
	}{
		{"true", Yes, false},
		{"Si", Yes, false},
		{"false", No, false},
		{"no", No, false},
		{"", Unanswered, false},
		{"quizas", Unanswered, true},
	}
	for _, tt := range tests {
		got, err := ParseTriState(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTriState(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseTriState(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMetrosExtraRequiereAsesor(t *testing.T) {
	t.Parallel()
	advisor := map[MetrosExtra]bool{
		MetrosMas15:        true,
		MetrosDesconoce:    true,
		MetrosHablarAsesor: true,
	}
	for _, m := range MetrosExtraOpciones {
		if got := m.RequiereAsesor(); got != advisor[m] {
			t.Errorf("MetrosExtra(%q).RequiereAsesor() = %v, want %v", m, got, advisor[m])
		}
	}
}

func TestCapacidadValida(t *testing.T) {
	t.Parallel()
	if !CapacidadValida(BateriasCanadian, "20kWh") {
		t.Error("20kWh is a Canadian option")
	}
	if CapacidadValida(BateriasHuawei, "20kWh") {
		t.Error("20kWh is not a Huawei option")
	}
	if CapacidadValida(BateriasOtra, "5kWh") {
		t.Error("otra has no capacity options")
	}
}

func TestTipoDetectadoInstalacion(t *testing.T) {
	t.Parallel()
	if got, ok := DetectadoMonofasico.Instalacion(); !ok || got != InstalacionMonofasica {
		t.Errorf("monofasico -> %q, %v", got, ok)
	}
	if got, ok := DetectadoTrifasico.Instalacion(); !ok || got != InstalacionTrifasica {
		t.Errorf("trifasico -> %q, %v", got, ok)
	}
	if _, ok := DetectadoDesconocido.Instalacion(); ok {
		t.Error("desconocido must not map to a supply type")
	}
}
