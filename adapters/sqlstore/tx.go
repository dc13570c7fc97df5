package sqlstore

import (
	"context"
	"database/sql"

	"testdesk/internal/errors"
	"testdesk/models"

	"github.com/jmoiron/sqlx"
)

const testItemColumns = `id, test_case_id, name, input_data, operation, expected,
	priority, tester, exec_date, result, remarks`

// txStore implements ports.TestPlanTx on one transaction.
type txStore struct {
	tx *sqlx.Tx
}

func (t *txStore) insertID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	err := t.tx.QueryRowxContext(ctx, t.tx.Rebind(query+` RETURNING id`), args...).Scan(&id)
	return id, err
}

func (t *txStore) GetOrCreateProject(ctx context.Context, name string) (models.Project, bool, error) {
	var p models.Project
	err := t.tx.GetContext(ctx, &p, t.tx.Rebind(`SELECT id, name, remarks FROM projects WHERE name = ?`), name)
	if err == nil {
		return p, false, nil
	}
	if err != sql.ErrNoRows {
		return p, false, errors.Persistence("failed to look up project", err)
	}

	id, err := t.insertID(ctx, `INSERT INTO projects (name, remarks) VALUES (?, '')`, name)
	if err != nil {
		return p, false, errors.Persistence("failed to create project", err)
	}
	return models.Project{ID: id, Name: name}, true, nil
}

func (t *txStore) ProjectExists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := t.tx.GetContext(ctx, &n, t.tx.Rebind(`SELECT COUNT(*) FROM projects WHERE id = ?`), id)
	if err != nil {
		return false, errors.Persistence("failed to look up project", err)
	}
	return n > 0, nil
}

func (t *txStore) GetOrCreateScreen(ctx context.Context, projectID int64, name string) (models.Screen, bool, error) {
	var s models.Screen
	err := t.tx.GetContext(ctx, &s, t.tx.Rebind(`
		SELECT id, project_id, name, remarks FROM screens
		WHERE project_id = ? AND name = ?
	`), projectID, name)
	if err == nil {
		return s, false, nil
	}
	if err != sql.ErrNoRows {
		return s, false, errors.Persistence("failed to look up screen", err)
	}

	id, err := t.insertID(ctx, `INSERT INTO screens (project_id, name, remarks) VALUES (?, ?, '')`, projectID, name)
	if err != nil {
		return s, false, errors.Persistence("failed to create screen", err)
	}
	return models.Screen{ID: id, ProjectID: projectID, Name: name}, true, nil
}

func (t *txStore) FindTestCase(ctx context.Context, screenID int64, name string) (*models.TestCase, bool, error) {
	var tc models.TestCase
	err := t.tx.GetContext(ctx, &tc, t.tx.Rebind(`
		SELECT id, screen_id, name, status, last_run, result, remarks FROM test_cases
		WHERE screen_id = ? AND name = ?
	`), screenID, name)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Persistence("failed to look up test case", err)
	}
	return &tc, true, nil
}

func (t *txStore) CreateTestCase(ctx context.Context, screenID int64, name string) (models.TestCase, error) {
	id, err := t.insertID(ctx, `
		INSERT INTO test_cases (screen_id, name, status, result, remarks)
		VALUES (?, ?, ?, '', '')
	`, screenID, name, models.DefaultTestCaseStatus)
	if err != nil {
		return models.TestCase{}, errors.Persistence("failed to create test case", err)
	}
	return models.TestCase{ID: id, ScreenID: screenID, Name: name, Status: models.DefaultTestCaseStatus}, nil
}

func (t *txStore) GetOrCreateTestCase(ctx context.Context, screenID int64, name string) (models.TestCase, bool, error) {
	tc, found, err := t.FindTestCase(ctx, screenID, name)
	if err != nil {
		return models.TestCase{}, false, err
	}
	if found {
		return *tc, false, nil
	}
	created, err := t.CreateTestCase(ctx, screenID, name)
	return created, err == nil, err
}

func (t *txStore) DeleteTestCase(ctx context.Context, id int64) error {
	if _, err := t.tx.ExecContext(ctx, t.tx.Rebind(`DELETE FROM test_items WHERE test_case_id = ?`), id); err != nil {
		return errors.Persistence("failed to delete test items", err)
	}
	if _, err := t.tx.ExecContext(ctx, t.tx.Rebind(`DELETE FROM test_cases WHERE id = ?`), id); err != nil {
		return errors.Persistence("failed to delete test case", err)
	}
	return nil
}

func (t *txStore) InsertTestItem(ctx context.Context, item *models.TestItem) error {
	id, err := t.insertID(ctx, `
		INSERT INTO test_items (test_case_id, name, input_data, operation, expected,
			priority, tester, exec_date, result, remarks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.TestCaseID, item.Name, item.InputData, item.Operation, item.Expected,
		item.Priority, item.Tester, item.ExecDate, item.Result, item.Remarks)
	if err != nil {
		return errors.Persistence("failed to insert test item", err)
	}
	item.ID = id
	return nil
}
