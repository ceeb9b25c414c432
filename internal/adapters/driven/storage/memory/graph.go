package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ghminer/internal/adapters/driven/storage/graph"
	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// Ensure Backend implements the interface.
var _ graph.Backend = (*Backend)(nil)

type vertexKey struct {
	kind domain.VertexType
	key  string
}

type propKey struct {
	id     string
	source domain.Source
}

type edge struct {
	src, dst string
	label    domain.EdgeLabel
}

type markKey struct {
	vertex vertexKey
	mark   string
}

type projectUser struct {
	project, login string
}

// tables holds one copy of every table, either committed or pending.
type tables struct {
	vertices map[vertexKey]string
	props    map[propKey]map[string]any
	edges    map[edge]struct{}
	marks    map[markKey]time.Time
	members  map[projectUser]struct{}
}

func newTables() tables {
	return tables{
		vertices: make(map[vertexKey]string),
		props:    make(map[propKey]map[string]any),
		edges:    make(map[edge]struct{}),
		marks:    make(map[markKey]time.Time),
		members:  make(map[projectUser]struct{}),
	}
}

// Backend is an in-memory graph backend. Transactions are serialised and
// their writes become visible only on success.
type Backend struct {
	mu     sync.RWMutex
	data   tables
	closed bool
}

// NewBackend creates an empty in-memory graph backend.
func NewBackend() *Backend {
	return &Backend{data: newTables()}
}

// Update runs fn in one transaction.
func (b *Backend) Update(ctx context.Context, fn func(graph.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return domain.ErrStoreClosed
	}

	tx := &memTx{base: &b.data, pending: newTables()}
	if err := fn(tx); err != nil {
		return err
	}

	for k, v := range tx.pending.vertices {
		b.data.vertices[k] = v
	}
	for k, v := range tx.pending.props {
		b.data.props[k] = v
	}
	for k := range tx.pending.edges {
		b.data.edges[k] = struct{}{}
	}
	for k, v := range tx.pending.marks {
		b.data.marks[k] = v
	}
	for k := range tx.pending.members {
		b.data.members[k] = struct{}{}
	}
	return nil
}

// Marks returns the mark of every vertex of a kind whose key starts with prefix.
func (b *Backend) Marks(_ context.Context, kind domain.VertexType, prefix, mark string) (map[string]time.Time, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, domain.ErrStoreClosed
	}
	out := make(map[string]time.Time)
	for k, at := range b.data.marks {
		if k.vertex.kind == kind && k.mark == mark && strings.HasPrefix(k.vertex.key, prefix) {
			out[k.vertex.key] = at
		}
	}
	return out, nil
}

// ProjectUsers returns the logins recorded for a project.
func (b *Backend) ProjectUsers(_ context.Context, project string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, domain.ErrStoreClosed
	}
	var out []string
	for m := range b.data.members {
		if m.project == project {
			out = append(out, m.login)
		}
	}
	return out, nil
}

// CountVertices returns the number of vertices per kind.
func (b *Backend) CountVertices(_ context.Context) (map[domain.VertexType]int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, domain.ErrStoreClosed
	}
	out := make(map[domain.VertexType]int)
	for k := range b.data.vertices {
		out[k.kind]++
	}
	return out, nil
}

// Close marks the backend closed. Stored data is discarded.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.data = newTables()
	return nil
}

// Properties returns the property sets recorded for a vertex, by source.
func (b *Backend) Properties(kind domain.VertexType, key string) map[domain.Source]map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.data.vertices[vertexKey{kind, key}]
	if !ok {
		return nil
	}
	out := make(map[domain.Source]map[string]any)
	for k, v := range b.data.props {
		if k.id == id {
			out[k.source] = v
		}
	}
	return out
}

// HasVertex reports whether the vertex (kind, key) exists.
func (b *Backend) HasVertex(kind domain.VertexType, key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.data.vertices[vertexKey{kind, key}]
	return ok
}

// HasEdge reports whether the edge (srcKind, srcKey) -label-> (dstKind, dstKey) exists.
func (b *Backend) HasEdge(
	srcKind domain.VertexType, srcKey string, label domain.EdgeLabel, dstKind domain.VertexType, dstKey string,
) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	src, ok := b.data.vertices[vertexKey{srcKind, srcKey}]
	if !ok {
		return false
	}
	dst, ok := b.data.vertices[vertexKey{dstKind, dstKey}]
	if !ok {
		return false
	}
	_, ok = b.data.edges[edge{src, dst, label}]
	return ok
}

// EdgeCount returns the number of edges with a label.
func (b *Backend) EdgeCount(label domain.EdgeLabel) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for e := range b.data.edges {
		if e.label == label {
			n++
		}
	}
	return n
}

// memTx reads through pending writes to the committed tables.
type memTx struct {
	base    *tables
	pending tables
}

func (t *memTx) UpsertVertex(kind domain.VertexType, key string) (string, error) {
	k := vertexKey{kind, key}
	if id, ok := t.pending.vertices[k]; ok {
		return id, nil
	}
	if id, ok := t.base.vertices[k]; ok {
		return id, nil
	}
	id := uuid.NewString()
	t.pending.vertices[k] = id
	return id, nil
}

func (t *memTx) SetProperties(vertexID string, source domain.Source, props map[string]any) error {
	cp := make(map[string]any, len(props))
	for k, v := range props {
		cp[k] = v
	}
	t.pending.props[propKey{vertexID, source}] = cp
	return nil
}

func (t *memTx) Link(src, dst string, label domain.EdgeLabel) error {
	t.pending.edges[edge{src, dst, label}] = struct{}{}
	return nil
}

func (t *memTx) Mark(kind domain.VertexType, key, mark string, at time.Time) error {
	t.pending.marks[markKey{vertexKey{kind, key}, mark}] = at
	return nil
}

func (t *memTx) AddProjectUser(project, login string) error {
	t.pending.members[projectUser{project, login}] = struct{}{}
	return nil
}
