package migration

import (
	"context"
	"fmt"
	"sort"

	"testdesk/internal"
	"testdesk/internal/config"
	"testdesk/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// Tables lists the tables the runner manages, in creation order.
var Tables = []string{"projects", "screens", "test_cases", "test_items", "import_runs"}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	driver  string
	log     *internal.Logger
}

// NewRunner creates a migration runner emitting DDL for driver
// (config.DriverSQLite or config.DriverPostgres).
func NewRunner(driver string) *MigrationRunner {
	return &MigrationRunner{
		version: "1.1.0",
		driver:  driver,
		log:     internal.DefaultLogger.Named("Migration"),
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every step is
// idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if r.driver != config.DriverSQLite && r.driver != config.DriverPostgres {
		return errors.ConfigInvalid(fmt.Sprintf("unsupported database driver %q", r.driver))
	}

	if err := r.createProjectsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create projects table")
	}

	if err := r.createScreensTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create screens table")
	}

	if err := r.createTestCasesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create test_cases table")
	}

	if err := r.addTestCaseColumns(ctx, db); err != nil {
		return errors.Wrap(err, "failed to add test_cases columns")
	}

	if err := r.createTestItemsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create test_items table")
	}

	if err := r.createImportRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create import_runs table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	r.log.Info("schema %s up to date (%s)", r.version, r.driver)
	return nil
}

// Status reports which managed tables exist.
func (r *MigrationRunner) Status(ctx context.Context, db *sqlx.DB) (map[string]bool, error) {
	var names []string
	var err error
	switch r.driver {
	case config.DriverSQLite:
		err = db.SelectContext(ctx, &names, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	default:
		err = db.SelectContext(ctx, &names, `
			SELECT table_name FROM information_schema.tables
			WHERE table_schema = current_schema()
		`)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tables")
	}

	sort.Strings(names)
	status := make(map[string]bool, len(Tables))
	for _, t := range Tables {
		i := sort.SearchStrings(names, t)
		status[t] = i < len(names) && names[i] == t
	}
	return status, nil
}

func (r *MigrationRunner) primaryKey() string {
	if r.driver == config.DriverPostgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (r *MigrationRunner) timestampType() string {
	if r.driver == config.DriverPostgres {
		return "TIMESTAMP WITH TIME ZONE"
	}
	return "TIMESTAMP"
}

func (r *MigrationRunner) createProjectsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS projects (
			id %s,
			name TEXT NOT NULL UNIQUE,
			remarks TEXT NOT NULL DEFAULT ''
		)
	`, r.primaryKey()))
	return err
}

func (r *MigrationRunner) createScreensTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS screens (
			id %s,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			remarks TEXT NOT NULL DEFAULT '',
			UNIQUE (project_id, name)
		)
	`, r.primaryKey()))
	return err
}

func (r *MigrationRunner) createTestCasesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS test_cases (
			id %s,
			screen_id BIGINT NOT NULL REFERENCES screens(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT '未実行',
			last_run TEXT,
			result TEXT NOT NULL DEFAULT '',
			remarks TEXT NOT NULL DEFAULT '',
			UNIQUE (screen_id, name)
		)
	`, r.primaryKey()))
	return err
}

// addTestCaseColumns upgrades databases created before test cases carried
// execution state.
func (r *MigrationRunner) addTestCaseColumns(ctx context.Context, db *sqlx.DB) error {
	columns := []struct{ name, ddl string }{
		{"status", "status TEXT NOT NULL DEFAULT '未実行'"},
		{"last_run", "last_run TEXT"},
		{"result", "result TEXT NOT NULL DEFAULT ''"},
	}

	if r.driver == config.DriverPostgres {
		for _, c := range columns {
			if _, err := db.ExecContext(ctx, `ALTER TABLE test_cases ADD COLUMN IF NOT EXISTS `+c.ddl); err != nil {
				return err
			}
		}
		return nil
	}

	var info []struct {
		CID        int     `db:"cid"`
		Name       string  `db:"name"`
		Type       string  `db:"type"`
		NotNull    int     `db:"notnull"`
		Default    *string `db:"dflt_value"`
		PrimaryKey int     `db:"pk"`
	}
	if err := db.SelectContext(ctx, &info, `PRAGMA table_info(test_cases)`); err != nil {
		return err
	}
	existing := make(map[string]bool, len(info))
	for _, col := range info {
		existing[col.Name] = true
	}
	for _, c := range columns {
		if existing[c.name] {
			continue
		}
		r.log.Info("adding column test_cases.%s", c.name)
		if _, err := db.ExecContext(ctx, `ALTER TABLE test_cases ADD COLUMN `+c.ddl); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) createTestItemsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS test_items (
			id %s,
			test_case_id BIGINT NOT NULL REFERENCES test_cases(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			input_data TEXT NOT NULL DEFAULT '',
			operation TEXT NOT NULL DEFAULT '',
			expected TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			tester TEXT NOT NULL DEFAULT '',
			exec_date TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL DEFAULT '',
			remarks TEXT NOT NULL DEFAULT ''
		)
	`, r.primaryKey()))
	return err
}

func (r *MigrationRunner) createImportRunsTable(ctx context.Context, db *sqlx.DB) error {
	ts := r.timestampType()
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS import_runs (
			id TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			project_id BIGINT NOT NULL DEFAULT 0,
			overwrite BOOLEAN NOT NULL,
			started_at %s NOT NULL,
			finished_at %s NOT NULL,
			created_count INTEGER NOT NULL DEFAULT 0,
			overwritten_count INTEGER NOT NULL DEFAULT 0,
			kept_count INTEGER NOT NULL DEFAULT 0,
			failed_count INTEGER NOT NULL DEFAULT 0,
			item_count INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		)
	`, ts, ts))
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_screens_project_id ON screens(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_test_cases_screen_id ON test_cases(screen_id)`,
		`CREATE INDEX IF NOT EXISTS idx_test_items_test_case_id ON test_items(test_case_id)`,
		`CREATE INDEX IF NOT EXISTS idx_import_runs_started_at ON import_runs(started_at DESC)`,
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
