// Package testutil holds shared test fixtures.
package testutil

import "github.com/comunidad-solar/comuneros-go/internal/backend/memory"

// DemoDealID is the deal every new StubBackend knows about.
const DemoDealID = memory.DemoDealID

// StubBackend is the in-memory backend the tests drive.
type StubBackend = memory.Backend

// NewStubBackend returns a fresh in-memory backend.
func NewStubBackend() *StubBackend {
	return memory.New()
}
