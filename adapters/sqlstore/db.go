// Package sqlstore persists the test plan hierarchy with sqlx over SQLite
// (modernc.org/sqlite) or PostgreSQL (lib/pq). Queries are written with "?"
// placeholders and rebound for the active driver.
package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"testdesk/internal/config"
	"testdesk/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// Connect opens and pings the database. SQLite files get their parent
// directory created and foreign keys enabled; the pool is held to one
// connection so a transaction never waits on another pooled writer.
func Connect(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case config.DriverSQLite:
		dsn = sqliteDSN(dsn)
		if path := sqliteFilePath(dsn); path != "" {
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, errors.Wrapf(err, "failed to create database directory %s", dir)
				}
			}
		}
	case config.DriverPostgres:
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("unsupported database driver %q", driver))
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Persistence("failed to open database", err)
	}
	if driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Persistence("failed to ping database", err)
	}
	return db, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func sqliteFilePath(dsn string) string {
	path := dsn
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}
