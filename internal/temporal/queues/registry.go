// Package queues defines per-queue worker configuration for task-queue partitioning.
package queues

import (
	"fmt"
	"strings"

	"go.temporal.io/sdk/worker"

	"github.com/comunidad-solar/comuneros-go/internal/temporal/versioning"
)

// QueueConfig holds worker options for a single task queue.
type QueueConfig struct {
	Name    string
	Options worker.Options
}

// DefaultConfigs returns the standard per-queue worker options.
//
//   - QueueOnboarding: signature links and validation refreshes, many short flows
//   - QueuePagos: payment post-processing, tight concurrency
func DefaultConfigs() map[string]QueueConfig {
	return map[string]QueueConfig{
		versioning.QueueOnboarding: {
			Name: versioning.QueueOnboarding,
			Options: worker.Options{
				MaxConcurrentActivityExecutionSize:     20,
				MaxConcurrentWorkflowTaskExecutionSize: 10,
			},
		},
		versioning.QueuePagos: {
			Name: versioning.QueuePagos,
			Options: worker.Options{
				MaxConcurrentActivityExecutionSize:     4,
				MaxConcurrentWorkflowTaskExecutionSize: 2,
			},
		},
	}
}

// ParseQueues parses a comma-separated queue list (e.g. "onboarding,pagos")
// into a set of queue names. Accepts both short names ("pagos") and
// full names ("comuneros-pagos"). Returns an error for unknown queues.
func ParseQueues(raw string) ([]string, error) {
	all := []string{versioning.QueueOnboarding, versioning.QueuePagos}
	if raw == "" {
		return all, nil
	}

	shortNames := map[string]string{
		"onboarding": versioning.QueueOnboarding,
		"pagos":      versioning.QueuePagos,
	}

	seen := make(map[string]bool)
	var result []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if full, ok := shortNames[name]; ok {
			name = full
		}
		if _, ok := DefaultConfigs()[name]; !ok {
			return nil, fmt.Errorf("unknown queue %q", name)
		}
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	if len(result) == 0 {
		return all, nil
	}
	return result, nil
}
