package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"testdesk/domain/core"
	"testdesk/internal/errors"
	"testdesk/models"
	"testdesk/ports"

	"github.com/jmoiron/sqlx"
)

// Store implements ports.TestPlanStore and ports.ImportRunRepository.
type Store struct {
	db *sqlx.DB
}

var (
	_ ports.TestPlanStore       = (*Store)(nil)
	_ ports.ImportRunRepository = (*Store)(nil)
)

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle.
func (s *Store) DB() *sqlx.DB { return s.db }

// WithinTx runs fn in a transaction, rolling back when fn fails or panics.
func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.TestPlanTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Persistence("failed to begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(&txStore{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Persistence("failed to commit transaction", err)
	}
	return nil
}

// ListProjects returns all projects ordered by id
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects := []models.Project{}
	err := s.db.SelectContext(ctx, &projects, `SELECT id, name, remarks FROM projects ORDER BY id`)
	if err != nil {
		return nil, errors.Persistence("failed to list projects", err)
	}
	return projects, nil
}

// GetProject retrieves a project by id
func (s *Store) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var p models.Project
	err := s.db.GetContext(ctx, &p, s.db.Rebind(`SELECT id, name, remarks FROM projects WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: id %d", core.ErrProjectNotFound, id)
	}
	if err != nil {
		return nil, errors.Persistence("failed to get project", err)
	}
	return &p, nil
}

func (s *Store) ListScreens(ctx context.Context, projectID int64) ([]models.Screen, error) {
	screens := []models.Screen{}
	err := s.db.SelectContext(ctx, &screens, s.db.Rebind(`
		SELECT id, project_id, name, remarks FROM screens
		WHERE project_id = ? ORDER BY id
	`), projectID)
	if err != nil {
		return nil, errors.Persistence("failed to list screens", err)
	}
	return screens, nil
}

func (s *Store) ListTestCases(ctx context.Context, screenID int64) ([]models.TestCase, error) {
	cases := []models.TestCase{}
	err := s.db.SelectContext(ctx, &cases, s.db.Rebind(`
		SELECT id, screen_id, name, status, last_run, result, remarks FROM test_cases
		WHERE screen_id = ? ORDER BY id
	`), screenID)
	if err != nil {
		return nil, errors.Persistence("failed to list test cases", err)
	}
	return cases, nil
}

func (s *Store) ListTestItems(ctx context.Context, testCaseID int64) ([]models.TestItem, error) {
	items := []models.TestItem{}
	err := s.db.SelectContext(ctx, &items, s.db.Rebind(`
		SELECT `+testItemColumns+` FROM test_items
		WHERE test_case_id = ? ORDER BY id
	`), testCaseID)
	if err != nil {
		return nil, errors.Persistence("failed to list test items", err)
	}
	return items, nil
}

// ListScenarioRows returns every item of the project in screen, test case
// and item order.
func (s *Store) ListScenarioRows(ctx context.Context, projectID int64) ([]models.ScenarioRow, error) {
	rows := []models.ScenarioRow{}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT ti.id AS item_id, sc.name AS screen_name, tc.name AS scenario_name,
			ti.name AS item_name, ti.priority, ti.tester, ti.result
		FROM test_items ti
		JOIN test_cases tc ON ti.test_case_id = tc.id
		JOIN screens sc ON tc.screen_id = sc.id
		WHERE sc.project_id = ?
		ORDER BY sc.id, tc.id, ti.id
	`), projectID)
	if err != nil {
		return nil, errors.Persistence("failed to list scenarios", err)
	}
	return rows, nil
}

// SaveImportRun records one import call
func (s *Store) SaveImportRun(ctx context.Context, run *models.ImportRun) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO import_runs (id, file_name, project_id, overwrite, started_at, finished_at,
			created_count, overwritten_count, kept_count, failed_count, item_count, error)
		VALUES (:id, :file_name, :project_id, :overwrite, :started_at, :finished_at,
			:created_count, :overwritten_count, :kept_count, :failed_count, :item_count, :error)
	`, run)
	if err != nil {
		return errors.Persistence("failed to save import run", err)
	}
	return nil
}

// ListImportRuns returns the most recent runs first. A non-positive limit
// returns all runs.
func (s *Store) ListImportRuns(ctx context.Context, limit int) ([]models.ImportRun, error) {
	query := `
		SELECT id, file_name, project_id, overwrite, started_at, finished_at,
			created_count, overwritten_count, kept_count, failed_count, item_count, error
		FROM import_runs ORDER BY started_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	runs := []models.ImportRun{}
	if err := s.db.SelectContext(ctx, &runs, s.db.Rebind(query), args...); err != nil {
		return nil, errors.Persistence("failed to list import runs", err)
	}
	return runs, nil
}
