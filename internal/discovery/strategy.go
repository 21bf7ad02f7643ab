// Package discovery finds a company's website and social profiles by running
// an ordered cascade of lookup strategies, stopping at the first one that
// produces a usable website.
package discovery

import (
	"context"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Input carries the known facts about a company that strategies may use to
// build their queries.
type Input struct {
	Name        string
	Address     string
	Phone       string
	KnownEmails []string
}

// Strategy is one step of the discovery cascade. Implementations return an
// empty result (not an error) when they simply find nothing; errors are
// reserved for transport failures, which the runner logs and skips past.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, in Input) (model.DiscoveryResult, error)
}
