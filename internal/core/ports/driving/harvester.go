package driving

import (
	"context"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// Harvester runs one harvesting pass over the configured projects, users and
// organizations.
type Harvester interface {
	// Run performs the pass. Item and phase failures are logged and counted in
	// the report; an error is returned only when the pass cannot continue.
	Run(ctx context.Context) (*domain.HarvestReport, error)
}
