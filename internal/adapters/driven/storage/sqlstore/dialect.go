package sqlstore

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ghminer/internal/core/domain"
)

// dialect holds the statements and connection setup of one SQL engine.
// Statements are written with ? placeholders and rebound on construction.
type dialect struct {
	name string

	insertVertex  string
	selectVertex  string
	setProperties string
	getProperties string
	link          string
	mark          string
	addMember     string
	selectMarks   string
	selectMembers string
	countVertices string

	// open connects to the database described by cfg.
	open func(cfg domain.DatabaseConfig) (*sql.DB, error)
}

const (
	selectVertexSQL  = `SELECT id FROM vertices WHERE kind = ? AND vkey = ?`
	getPropertiesSQL = `SELECT p.source, p.props FROM properties p
		JOIN vertices v ON v.id = p.vertex_id WHERE v.kind = ? AND v.vkey = ?`
	selectMarksSQL    = `SELECT vkey, at FROM marks WHERE kind = ? AND mark = ? AND SUBSTR(vkey, 1, ?) = ?`
	selectMembersSQL  = `SELECT login FROM project_users WHERE project = ?`
	countVerticesSQL  = `SELECT kind, COUNT(*) FROM vertices GROUP BY kind`
	sqliteBusyTimeout = 5000
)

func sqliteDialect() *dialect {
	return &dialect{
		name:          domain.EngineSQLite,
		insertVertex:  `INSERT INTO vertices (id, kind, vkey) VALUES (?, ?, ?) ON CONFLICT (kind, vkey) DO NOTHING`,
		selectVertex:  selectVertexSQL,
		setProperties: `INSERT INTO properties (vertex_id, source, props) VALUES (?, ?, ?) ON CONFLICT (vertex_id, source) DO UPDATE SET props = excluded.props`,
		getProperties: getPropertiesSQL,
		link:          `INSERT INTO edges (src, dst, label) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		mark:          `INSERT INTO marks (kind, vkey, mark, at) VALUES (?, ?, ?, ?) ON CONFLICT (kind, mark, vkey) DO UPDATE SET at = excluded.at`,
		addMember:     `INSERT INTO project_users (project, login) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		selectMarks:   selectMarksSQL,
		selectMembers: selectMembersSQL,
		countVertices: countVerticesSQL,
		open:          openSQLite,
	}
}

func postgresDialect() *dialect {
	d := &dialect{
		name:          domain.EnginePostgres,
		insertVertex:  `INSERT INTO vertices (id, kind, vkey) VALUES (?, ?, ?) ON CONFLICT (kind, vkey) DO NOTHING`,
		selectVertex:  selectVertexSQL,
		setProperties: `INSERT INTO properties (vertex_id, source, props) VALUES (?, ?, CAST(? AS JSONB)) ON CONFLICT (vertex_id, source) DO UPDATE SET props = excluded.props`,
		getProperties: `SELECT p.source, p.props::text FROM properties p
			JOIN vertices v ON v.id = p.vertex_id WHERE v.kind = ? AND v.vkey = ?`,
		link:          `INSERT INTO edges (src, dst, label) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		mark:          `INSERT INTO marks (kind, vkey, mark, at) VALUES (?, ?, ?, ?) ON CONFLICT (kind, mark, vkey) DO UPDATE SET at = excluded.at`,
		addMember:     `INSERT INTO project_users (project, login) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		selectMarks:   selectMarksSQL,
		selectMembers: selectMembersSQL,
		countVertices: countVerticesSQL,
		open:          openPostgres,
	}
	for _, q := range []*string{
		&d.insertVertex, &d.selectVertex, &d.setProperties, &d.getProperties, &d.link,
		&d.mark, &d.addMember, &d.selectMarks, &d.selectMembers, &d.countVertices,
	} {
		*q = rebind(*q)
	}
	return d
}

func mysqlDialect() *dialect {
	return &dialect{
		name:          domain.EngineMySQL,
		insertVertex:  `INSERT IGNORE INTO vertices (id, kind, vkey) VALUES (?, ?, ?)`,
		selectVertex:  selectVertexSQL,
		setProperties: `INSERT INTO properties (vertex_id, source, props) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE props = VALUES(props)`,
		getProperties: getPropertiesSQL,
		link:          `INSERT IGNORE INTO edges (src, dst, label) VALUES (?, ?, ?)`,
		mark:          `INSERT INTO marks (kind, vkey, mark, at) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE at = VALUES(at)`,
		addMember:     `INSERT IGNORE INTO project_users (project, login) VALUES (?, ?)`,
		selectMarks:   selectMarksSQL,
		selectMembers: selectMembersSQL,
		countVertices: countVerticesSQL,
		open:          openMySQL,
	}
}

// dialectFor returns the dialect of a SQL engine.
func dialectFor(engine string) (*dialect, error) {
	switch engine {
	case domain.EngineSQLite:
		return sqliteDialect(), nil
	case domain.EnginePostgres:
		return postgresDialect(), nil
	case domain.EngineMySQL:
		return mysqlDialect(), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedEngine, engine)
	}
}

// rebind turns ? placeholders into $1, $2, ...
func rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// openSQLite opens the database file named by cfg.URL, creating its directory.
// Options are appended as DSN query parameters.
func openSQLite(cfg domain.DatabaseConfig) (*sql.DB, error) {
	path := cfg.URL
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	params := url.Values{}
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", sqliteBusyTimeout))
	params.Add("_pragma", "foreign_keys(1)")
	for _, k := range sortedKeys(cfg.Options) {
		params.Add(k, cfg.Options[k])
	}

	db, err := sql.Open("sqlite", path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single writer avoids "database is locked" errors.
	db.SetMaxOpenConns(1)
	return db, nil
}

// openPostgres parses cfg.URL as a pgx connection string. Options become
// runtime parameters of every connection.
func openPostgres(cfg domain.DatabaseConfig) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres connection string: %w", err)
	}
	for k, v := range cfg.Options {
		connCfg.RuntimeParams[k] = v
	}
	return stdlib.OpenDB(*connCfg), nil
}

// openMySQL parses cfg.URL as a go-sql-driver DSN. Options become connection
// parameters.
func openMySQL(cfg domain.DatabaseConfig) (*sql.DB, error) {
	mc, err := mysql.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing mysql DSN: %w", err)
	}
	// Migration files hold several statements each.
	mc.MultiStatements = true
	if mc.Params == nil {
		mc.Params = make(map[string]string, len(cfg.Options))
	}
	for k, v := range cfg.Options {
		mc.Params[k] = v
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("creating mysql connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
