package graph

import (
	"context"
	"time"

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// Freshness marks recorded on vertices.
const (
	MarkComments   = "comments"
	MarkEvents     = "events"
	MarkDiscussion = "discussion"
	MarkFull       = "full"
)

// Tx is one unit of work against a Backend. Every write is an idempotent
// upsert.
type Tx interface {
	// UpsertVertex returns the id of the vertex (kind, key), creating it if needed.
	UpsertVertex(kind domain.VertexType, key string) (string, error)
	// SetProperties replaces the property set one source recorded for a vertex.
	// Property sets of other sources are left alone.
	SetProperties(vertexID string, source domain.Source, props map[string]any) error
	// Link records the edge src -label-> dst.
	Link(src, dst string, label domain.EdgeLabel) error
	// Mark stamps a freshness mark on the vertex (kind, key).
	Mark(kind domain.VertexType, key, mark string, at time.Time) error
	// AddProjectUser records login as a user known in the context of project.
	AddProjectUser(project, login string) error
}

// Backend is the storage engine behind Store.
type Backend interface {
	// Update runs fn in one transaction. The transaction is rolled back if fn fails.
	Update(ctx context.Context, fn func(Tx) error) error
	// Marks returns the mark of every vertex of a kind whose key starts with prefix.
	Marks(ctx context.Context, kind domain.VertexType, prefix, mark string) (map[string]time.Time, error)
	// ProjectUsers returns the logins recorded for a project.
	ProjectUsers(ctx context.Context, project string) ([]string, error)
	// CountVertices returns the number of vertices per kind.
	CountVertices(ctx context.Context) (map[domain.VertexType]int, error)
	Close() error
}
