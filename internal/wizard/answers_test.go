package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comunidad-solar/comuneros-go/internal/domain"
)

func apply(t *testing.T, r domain.RespuestasPreguntas, pairs ...string) domain.RespuestasPreguntas {
	t.Helper()
	require.Zero(t, len(pairs)%2)
	for i := 0; i < len(pairs); i += 2 {
		var err error
		r, err = ApplyAnswer(r, Campo(pairs[i]), pairs[i+1])
		require.NoError(t, err, "%s=%s", pairs[i], pairs[i+1])
	}
	return r
}

func fullyAnswered(t *testing.T) domain.RespuestasPreguntas {
	r := apply(t, domain.RespuestasPreguntas{},
		"tieneInstalacionFV", "false",
		"tipoInstalacion", "desconozco",
		"tipoCuadroElectrico", "ninguno",
	)
	r = ApplyPhoto(r, "foto-1")
	r.TipoInstalacion = domain.InstalacionMonofasica
	r.TieneInversorHuawei = domain.Yes
	r.TieneBaterias = domain.Yes
	r.TipoBaterias = domain.BateriasCanadian
	r.CapacidadCanadian = "10kWh"
	r.CapacidadHuawei = "5kWh"
	r.InstalacionCerca10m = domain.No
	r.MetrosExtra = domain.MetrosMas15
	return r
}

func TestApplyAnswer_FVResetsEverything(t *testing.T) {
	t.Parallel()
	for _, v := range []string{"true", "false", ""} {
		r, err := ApplyAnswer(fullyAnswered(t), CampoTieneInstalacionFV, v)
		require.NoError(t, err)

		want, _ := domain.ParseTriState(v)
		assert.Equal(t, domain.RespuestasPreguntas{TieneInstalacionFV: want}, r, "value %q", v)
	}
}

func TestApplyAnswer_FVResetHoldsForAnySequence(t *testing.T) {
	t.Parallel()
	sequences := [][]string{
		{"tieneInstalacionFV", "true", "tieneInversorHuawei", "true"},
		{"tieneInstalacionFV", "false", "tipoInstalacion", "trifasica", "tieneBaterias", "false", "instalacionCerca10m", "true"},
		{"tieneInstalacionFV", "false", "tipoInstalacion", "monofasica", "tieneBaterias", "true", "tipoBaterias", "huawei", "capacidadHuawei", "15kWh"},
		{"tieneInstalacionFV", "false", "tipoInstalacion", "desconozco", "tipoCuadroElectrico", "tipo2", "tieneBaterias", "false", "instalacionCerca10m", "false", "metrosExtra", "lo desconoce"},
	}
	for _, seq := range sequences {
		r := apply(t, domain.RespuestasPreguntas{}, seq...)
		r = apply(t, r, "tieneInstalacionFV", "false")

		assert.Equal(t, domain.Unanswered, r.TieneInversorHuawei)
		assert.Empty(t, r.TipoInstalacion)
		assert.Equal(t, domain.Unanswered, r.TieneBaterias)
		assert.Empty(t, r.TipoBaterias)
		assert.Empty(t, r.CapacidadCanadian)
		assert.Empty(t, r.CapacidadHuawei)
		assert.Equal(t, domain.Unanswered, r.InstalacionCerca10m)
		assert.Empty(t, r.MetrosExtra)
		assert.Empty(t, r.TipoCuadroElectrico)
		assert.Nil(t, r.AnalisisIA)
	}
}

func TestApplyAnswer_TipoInstalacion(t *testing.T) {
	t.Parallel()

	r, err := ApplyAnswer(fullyAnswered(t), CampoTipoInstalacion, "trifasica")
	require.NoError(t, err)
	assert.Equal(t, domain.InstalacionTrifasica, r.TipoInstalacion)
	assert.Equal(t, domain.Unanswered, r.TieneBaterias)
	assert.Empty(t, r.TipoBaterias)
	assert.Empty(t, r.CapacidadCanadian)
	assert.Empty(t, r.CapacidadHuawei)
	assert.Equal(t, domain.Unanswered, r.InstalacionCerca10m)
	assert.Empty(t, r.TipoCuadroElectrico)
	// Not part of this cascade.
	assert.Equal(t, domain.MetrosMas15, r.MetrosExtra)
	assert.Equal(t, domain.No, r.TieneInstalacionFV)

	r, err = ApplyAnswer(fullyAnswered(t), CampoTipoInstalacion, "desconozco")
	require.NoError(t, err)
	assert.Equal(t, domain.CuadroNinguno, r.TipoCuadroElectrico)
}

func TestApplyAnswer_TipoCuadroForcesType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cuadro string
		want   domain.TipoInstalacion
	}{
		{"tipo1", domain.InstalacionMonofasica},
		{"tipo2", domain.InstalacionTrifasica},
	}
	for _, tt := range tests {
		t.Run(tt.cuadro, func(t *testing.T) {
			t.Parallel()
			r, err := ApplyAnswer(fullyAnswered(t), CampoTipoCuadroElectrico, tt.cuadro)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.TipoInstalacion)
			assert.Equal(t, domain.Unanswered, r.TieneBaterias)
			assert.Empty(t, r.TipoBaterias)
			assert.Empty(t, r.CapacidadCanadian)
			assert.Empty(t, r.MetrosExtra)
			assert.Equal(t, domain.Unanswered, r.InstalacionCerca10m)
		})
	}

	r, err := ApplyAnswer(fullyAnswered(t), CampoTipoCuadroElectrico, "ninguno")
	require.NoError(t, err)
	assert.Equal(t, domain.InstalacionMonofasica, r.TipoInstalacion)
	assert.Equal(t, domain.Yes, r.TieneBaterias)
}

func TestApplyAnswer_BatteryBranch(t *testing.T) {
	t.Parallel()

	r, err := ApplyAnswer(fullyAnswered(t), CampoTieneBaterias, "false")
	require.NoError(t, err)
	assert.Equal(t, domain.No, r.TieneBaterias)
	assert.Empty(t, r.TipoBaterias)
	assert.Empty(t, r.CapacidadCanadian)
	assert.Empty(t, r.CapacidadHuawei)
	assert.Equal(t, domain.No, r.InstalacionCerca10m)

	r, err = ApplyAnswer(fullyAnswered(t), CampoTipoBaterias, "huawei")
	require.NoError(t, err)
	assert.Equal(t, domain.BateriasHuawei, r.TipoBaterias)
	assert.Empty(t, r.CapacidadCanadian)
	assert.Empty(t, r.CapacidadHuawei)
	assert.Equal(t, domain.Yes, r.TieneBaterias)
}

func TestApplyAnswer_CercaResetsMetrosOnlyWhenYes(t *testing.T) {
	t.Parallel()

	r, err := ApplyAnswer(fullyAnswered(t), CampoInstalacionCerca10m, "true")
	require.NoError(t, err)
	assert.Empty(t, r.MetrosExtra)

	r, err = ApplyAnswer(fullyAnswered(t), CampoInstalacionCerca10m, "false")
	require.NoError(t, err)
	assert.Equal(t, domain.MetrosMas15, r.MetrosExtra)
}

func TestApplyAnswer_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	in := fullyAnswered(t)
	before := in
	a := *in.AnalisisIA
	before.AnalisisIA = &a

	_, err := ApplyAnswer(in, CampoTieneInstalacionFV, "true")
	require.NoError(t, err)
	assert.Equal(t, before, in)
}

func TestApplyAnswer_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		campo Campo
		valor string
	}{
		{CampoTieneInstalacionFV, "quizas"},
		{CampoTipoInstalacion, "bifasica"},
		{CampoTipoBaterias, "tesla"},
		{CampoCapacidadHuawei, "20kWh"},
		{CampoCapacidadCanadian, "7kWh"},
		{CampoMetrosExtra, "100m"},
		{CampoTipoCuadroElectrico, "tipo3"},
	}
	for _, tt := range tests {
		t.Run(string(tt.campo), func(t *testing.T) {
			t.Parallel()
			in := fullyAnswered(t)
			out, err := ApplyAnswer(in, tt.campo, tt.valor)
			var invalid *InvalidAnswerError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.campo, invalid.Campo)
			assert.Equal(t, in, out)
		})
	}

	_, err := ApplyAnswer(domain.RespuestasPreguntas{}, "color", "rojo")
	assert.ErrorContains(t, err, "unknown question")
}

func TestTriStateNeverConflated(t *testing.T) {
	t.Parallel()
	for _, campo := range []Campo{CampoTieneInstalacionFV, CampoTieneBaterias, CampoInstalacionCerca10m} {
		yes := apply(t, domain.RespuestasPreguntas{}, string(campo), "true")
		no := apply(t, domain.RespuestasPreguntas{}, string(campo), "false")
		unset := apply(t, domain.RespuestasPreguntas{}, string(campo), "")

		assert.Equal(t, "true", Valor(yes, campo))
		assert.Equal(t, "false", Valor(no, campo))
		assert.Equal(t, "", Valor(unset, campo))
		assert.True(t, IsAnswered(no, campo), "false must count as answered for %s", campo)
		assert.False(t, IsAnswered(unset, campo))
	}
}

func TestApplyPhotoAndDetection(t *testing.T) {
	t.Parallel()
	r := apply(t, domain.RespuestasPreguntas{},
		"tieneInstalacionFV", "false",
		"tipoInstalacion", "desconozco",
		"tipoCuadroElectrico", "ninguno",
	)

	r = ApplyPhoto(r, "uploads/disyuntor.jpg")
	require.NotNil(t, r.AnalisisIA)
	assert.True(t, r.AnalisisIA.Procesando)
	assert.False(t, r.AnalisisIA.Completado())

	detected, err := ApplyDetection(r, domain.DetectadoTrifasico)
	require.NoError(t, err)
	assert.Equal(t, domain.InstalacionTrifasica, detected.TipoInstalacion)
	assert.True(t, detected.AnalisisIA.Completado())
	assert.Equal(t, domain.CuadroNinguno, detected.TipoCuadroElectrico)
	assert.Equal(t, "uploads/disyuntor.jpg", detected.FotoDisyuntor)

	unknown, err := ApplyDetection(r, domain.DetectadoDesconocido)
	require.NoError(t, err)
	assert.Equal(t, domain.InstalacionDesconozco, unknown.TipoInstalacion)

	_, err = ApplyDetection(r, "bifasico")
	assert.Error(t, err)

	cleared := ClearPhoto(detected)
	assert.Empty(t, cleared.FotoDisyuntor)
	assert.Nil(t, cleared.AnalisisIA)
}
