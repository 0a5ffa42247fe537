package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour of a DB.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// DB wraps a database/sql connection and knows its dialect.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// OpenSQLite opens (or creates) the SQLite file at dbPath.
func OpenSQLite(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	conn, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer; a single connection avoids SQLITE_BUSY
	conn.SetMaxOpenConns(1)
	return newDB(conn, DialectSQLite)
}

// OpenSQL opens a PostgreSQL (lib/pq) or MySQL (go-sql-driver) database.
// MySQL DSNs need parseTime=true so timestamps scan into time.Time.
func OpenSQL(dialect Dialect, dsn string) (*DB, error) {
	if dialect == DialectSQLite {
		return OpenSQLite(dsn)
	}
	driver := string(dialect)
	if dialect != DialectPostgres && dialect != DialectMySQL {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(10 * time.Minute)
	return newDB(conn, dialect)
}

func newDB(conn *sql.DB, dialect Dialect) (*DB, error) {
	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Dialect() Dialect { return db.dialect }

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// rebind rewrites ? placeholders to $1..$n for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

type columnTypes struct {
	id, text, body, ts string
}

func (db *DB) types() columnTypes {
	switch db.dialect {
	case DialectPostgres:
		return columnTypes{id: "TEXT", text: "TEXT", body: "TEXT", ts: "TIMESTAMPTZ"}
	case DialectMySQL:
		return columnTypes{id: "VARCHAR(64)", text: "VARCHAR(255)", body: "LONGTEXT", ts: "DATETIME(6)"}
	default:
		return columnTypes{id: "TEXT", text: "TEXT", body: "TEXT", ts: "DATETIME"}
	}
}

func (db *DB) migrate() error {
	t := db.types()
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS pages (
			id %[1]s PRIMARY KEY,
			slug %[2]s NOT NULL UNIQUE,
			title %[2]s NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'draft',
			revision INTEGER NOT NULL DEFAULT 0,
			content %[3]s NOT NULL,
			published_at %[4]s NULL,
			created_at %[4]s NOT NULL,
			updated_at %[4]s NOT NULL
		)`, t.id, t.text, t.body, t.ts),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS page_revisions (
			id %[1]s PRIMARY KEY,
			page_id %[1]s NOT NULL REFERENCES pages(id),
			revision INTEGER NOT NULL,
			content %[2]s NOT NULL,
			created_at %[3]s NOT NULL
		)`, t.id, t.body, t.ts),
		`CREATE INDEX idx_page_revisions_page ON page_revisions(page_id, revision)`,
	}
	if db.dialect != DialectMySQL {
		migrations[2] = strings.Replace(migrations[2], "CREATE INDEX", "CREATE INDEX IF NOT EXISTS", 1)
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			// MySQL has no CREATE INDEX IF NOT EXISTS; a rerun reports the existing index
			if strings.HasPrefix(m, "CREATE INDEX") && strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", firstLine(m), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
