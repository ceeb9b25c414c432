// Package storage opens the graph store selected by the database configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ghminer/internal/adapters/driven/storage/graph"
	"github.com/custodia-labs/ghminer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ghminer/internal/adapters/driven/storage/sqlstore"
	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// Open returns a graph store over the configured engine. The caller owns the
// store and must Close it.
func Open(ctx context.Context, cfg domain.DatabaseConfig, opts ...graph.Option) (*graph.Store, error) {
	var backend graph.Backend
	switch cfg.Engine {
	case domain.EngineMemory:
		backend = memory.NewBackend()
	case domain.EngineSQLite, domain.EnginePostgres, domain.EngineMySQL:
		b, err := sqlstore.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("opening %s graph store: %w", cfg.Engine, err)
		}
		backend = b
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedEngine, cfg.Engine)
	}
	return graph.NewStore(backend, opts...), nil
}
