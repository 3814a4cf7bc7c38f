// Package versioning defines task queue names.
package versioning

// Task queues. Payment post-processing runs on its own queue so a slow
// billing backend does not delay signature links.
const (
	QueueOnboarding = "comuneros-onboarding"
	QueuePagos      = "comuneros-pagos"
)
