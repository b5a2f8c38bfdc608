// Package adapter implements the provider adapter protocol: one adapter per
// external analysis provider, all normalizing into the common ModelOutput
// schema. Each adapter owns its prompt, endpoint, timeout and response
// parsing; retries live in the worker's runner, never here.
package adapter

import (
	"context"

	"github.com/vietddude/ara/internal/core/domain"
)

// Input is the shared request every adapter receives.
type Input struct {
	Domains   []domain.Domain
	Portfolio domain.PortfolioContext
	PriorRun  *domain.RunHistoryEntry
}

// Adapter wraps one external analysis provider behind a common contract.
// Run either returns a fully validated output with every finding tagged
// with the adapter's identity, or a classified *domain.AdapterError.
type Adapter interface {
	Name() string
	Run(ctx context.Context, in Input) (*domain.ModelOutput, error)
}

// Registry maps adapter name to implementation. The worker is written only
// against this mapping.
type Registry map[string]Adapter

// NewRegistry indexes adapters by name.
func NewRegistry(adapters ...Adapter) Registry {
	r := make(Registry, len(adapters))
	for _, a := range adapters {
		r[a.Name()] = a
	}
	return r
}
