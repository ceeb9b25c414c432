package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/ghminer/internal/adapters/driven/storage/graph"
	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// Ensure Backend implements the interface.
var _ graph.Backend = (*Backend)(nil)

// Backend is a graph backend over a SQL database.
type Backend struct {
	db      *sql.DB
	dialect *dialect

	mu     sync.Mutex
	closed bool
}

// Open connects to the database described by cfg and applies pending
// migrations.
func Open(ctx context.Context, cfg domain.DatabaseConfig) (*Backend, error) {
	d, err := dialectFor(cfg.Engine)
	if err != nil {
		return nil, err
	}

	// Migrations run on their own connection pool; the migrate driver closes it.
	migrateDB, err := d.open(cfg)
	if err != nil {
		return nil, err
	}
	if err := migrateDB.PingContext(ctx); err != nil {
		_ = migrateDB.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", d.name, err)
	}
	if err := migrateUp(migrateDB, d); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	db, err := d.open(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", d.name, err)
	}
	return &Backend{db: db, dialect: d}, nil
}

// Engine returns the name of the SQL dialect in use.
func (b *Backend) Engine() string {
	return b.dialect.name
}

func (b *Backend) checkOpen() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return domain.ErrStoreClosed
	}
	return nil
}

// Update runs fn in one database transaction.
func (b *Backend) Update(ctx context.Context, fn func(graph.Tx) error) (err error) {
	if err := b.checkOpen(); err != nil {
		return err
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&sqlTx{ctx: ctx, tx: tx, d: b.dialect}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Marks returns the mark of every vertex of a kind whose key starts with prefix.
func (b *Backend) Marks(ctx context.Context, kind domain.VertexType, prefix, mark string) (map[string]time.Time, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx, b.dialect.selectMarks,
		string(kind), mark, utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("querying %s marks: %w", mark, err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var (
			key string
			at  int64
		)
		if err := rows.Scan(&key, &at); err != nil {
			return nil, fmt.Errorf("scanning mark: %w", err)
		}
		out[key] = time.UnixMicro(at).UTC()
	}
	return out, rows.Err()
}

// ProjectUsers returns the logins recorded for a project.
func (b *Backend) ProjectUsers(ctx context.Context, project string) ([]string, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx, b.dialect.selectMembers, project)
	if err != nil {
		return nil, fmt.Errorf("querying project users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var login string
		if err := rows.Scan(&login); err != nil {
			return nil, fmt.Errorf("scanning project user: %w", err)
		}
		out = append(out, login)
	}
	return out, rows.Err()
}

// CountVertices returns the number of vertices per kind.
func (b *Backend) CountVertices(ctx context.Context) (map[domain.VertexType]int, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx, b.dialect.countVertices)
	if err != nil {
		return nil, fmt.Errorf("counting vertices: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.VertexType]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scanning vertex count: %w", err)
		}
		out[domain.VertexType(kind)] = n
	}
	return out, rows.Err()
}

// Properties returns the property sets recorded for a vertex, by source.
func (b *Backend) Properties(ctx context.Context, kind domain.VertexType, key string) (map[domain.Source]map[string]any, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx, b.dialect.getProperties, string(kind), key)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.Source]map[string]any)
	for rows.Next() {
		var (
			source string
			raw    string
		)
		if err := rows.Scan(&source, &raw); err != nil {
			return nil, fmt.Errorf("scanning properties: %w", err)
		}
		props := make(map[string]any)
		if err := json.Unmarshal([]byte(raw), &props); err != nil {
			return nil, fmt.Errorf("decoding properties: %w", err)
		}
		out[domain.Source(source)] = props
	}
	return out, rows.Err()
}

// Close closes the database connection. It is safe to call more than once.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

// sqlTx implements graph.Tx over a database transaction.
type sqlTx struct {
	ctx context.Context
	tx  *sql.Tx
	d   *dialect
}

func (t *sqlTx) UpsertVertex(kind domain.VertexType, key string) (string, error) {
	var id string
	err := t.tx.QueryRowContext(t.ctx, t.d.selectVertex, string(kind), key).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	if _, err := t.tx.ExecContext(t.ctx, t.d.insertVertex, uuid.NewString(), string(kind), key); err != nil {
		return "", err
	}
	// Re-read so a concurrent insert of the same vertex wins consistently.
	if err := t.tx.QueryRowContext(t.ctx, t.d.selectVertex, string(kind), key).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (t *sqlTx) SetProperties(vertexID string, source domain.Source, props map[string]any) error {
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encoding properties: %w", err)
	}
	_, err = t.tx.ExecContext(t.ctx, t.d.setProperties, vertexID, string(source), string(raw))
	return err
}

func (t *sqlTx) Link(src, dst string, label domain.EdgeLabel) error {
	_, err := t.tx.ExecContext(t.ctx, t.d.link, src, dst, string(label))
	return err
}

func (t *sqlTx) Mark(kind domain.VertexType, key, mark string, at time.Time) error {
	_, err := t.tx.ExecContext(t.ctx, t.d.mark, string(kind), key, mark, at.UnixMicro())
	return err
}

func (t *sqlTx) AddProjectUser(project, login string) error {
	_, err := t.tx.ExecContext(t.ctx, t.d.addMember, project, login)
	return err
}
