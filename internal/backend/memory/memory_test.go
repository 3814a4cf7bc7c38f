package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comunidad-solar/comuneros-go/internal/api"
	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/backend/memory"
	"github.com/comunidad-solar/comuneros-go/internal/mcpserver"
	"github.com/comunidad-solar/comuneros-go/internal/onboarding"
	"github.com/comunidad-solar/comuneros-go/internal/preloader"
	"github.com/comunidad-solar/comuneros-go/internal/submission"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/activities"
)

// The in-memory backend and the REST client must stay interchangeable for
// every consumer.
var (
	_ onboarding.Backend    = (*memory.Backend)(nil)
	_ onboarding.Flows      = (*memory.Backend)(nil)
	_ submission.Backend    = (*memory.Backend)(nil)
	_ submission.Classifier = (*memory.Backend)(nil)
	_ preloader.DealFetcher = (*memory.Backend)(nil)
	_ activities.Backend    = (*memory.Backend)(nil)
	_ api.AdvisorBackend    = (*memory.Backend)(nil)
	_ mcpserver.Backend     = (*memory.Backend)(nil)

	_ onboarding.Backend    = (*backend.Client)(nil)
	_ onboarding.Flows      = (*backend.Client)(nil)
	_ submission.Backend    = (*backend.Client)(nil)
	_ submission.Classifier = (*backend.Client)(nil)
	_ preloader.DealFetcher = (*backend.Client)(nil)
	_ activities.Backend    = (*backend.Client)(nil)
	_ api.AdvisorBackend    = (*backend.Client)(nil)
	_ mcpserver.Backend     = (*backend.Client)(nil)
)

func TestFail(t *testing.T) {
	stub := memory.New()
	stub.Fail("buscar-sku", errors.New("down"))

	_, err := stub.BuscarSKU(context.Background(), "luna")
	require.Error(t, err)
	assert.Equal(t, 1, stub.Calls("buscar-sku"))

	stub.Fail("buscar-sku", nil)
	skus, err := stub.BuscarSKU(context.Background(), "luna")
	require.NoError(t, err)
	require.Len(t, skus, 1)
	assert.Equal(t, "LUNA-5", skus[0].SKU)
}

func TestDealNotFound(t *testing.T) {
	stub := memory.New()

	_, err := stub.ObtenerDealPorID(context.Background(), "DEAL-NOPE")
	assert.True(t, backend.IsNotFound(err))

	d, err := stub.ObtenerDealPorID(context.Background(), memory.DemoDealID)
	require.NoError(t, err)
	assert.Equal(t, memory.DemoDealID, d.DealID)
}
