package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nguyentantai21042004/announce-flow/internal/logger"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	state TEXT NOT NULL,
	content_length INTEGER NOT NULL DEFAULT 0,
	summary TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	started_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_state ON sessions(state);
`

type implCatalog struct {
	db     *sql.DB
	logger logger.Logger
}

// Open opens or creates the catalog database at path. ":memory:" is accepted.
func Open(ctx context.Context, path string, log logger.Logger) (Catalog, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	// one connection keeps a memory database alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}

	return &implCatalog{db: db, logger: log}, nil
}
