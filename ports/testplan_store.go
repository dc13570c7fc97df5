package ports

import (
	"context"

	"testdesk/models"
)

// TestPlanStore is the persistent project / screen / test case / test item
// hierarchy.
type TestPlanStore interface {
	// WithinTx runs fn in one transaction, committing when fn returns nil
	WithinTx(ctx context.Context, fn func(tx TestPlanTx) error) error

	// ListProjects returns all projects ordered by id
	ListProjects(ctx context.Context) ([]models.Project, error)

	// GetProject returns core.ErrProjectNotFound for unknown ids
	GetProject(ctx context.Context, id int64) (*models.Project, error)

	ListScreens(ctx context.Context, projectID int64) ([]models.Screen, error)
	ListTestCases(ctx context.Context, screenID int64) ([]models.TestCase, error)
	ListTestItems(ctx context.Context, testCaseID int64) ([]models.TestItem, error)

	// ListScenarioRows returns every test item of a project with its screen
	// and test case names
	ListScenarioRows(ctx context.Context, projectID int64) ([]models.ScenarioRow, error)
}

// TestPlanTx is the write surface available inside a transaction. The
// GetOrCreate methods report whether a row was inserted.
type TestPlanTx interface {
	GetOrCreateProject(ctx context.Context, name string) (models.Project, bool, error)
	ProjectExists(ctx context.Context, id int64) (bool, error)
	GetOrCreateScreen(ctx context.Context, projectID int64, name string) (models.Screen, bool, error)

	// FindTestCase looks a test case up by exact name
	FindTestCase(ctx context.Context, screenID int64, name string) (*models.TestCase, bool, error)
	CreateTestCase(ctx context.Context, screenID int64, name string) (models.TestCase, error)
	GetOrCreateTestCase(ctx context.Context, screenID int64, name string) (models.TestCase, bool, error)

	// DeleteTestCase removes the test case and all of its items
	DeleteTestCase(ctx context.Context, id int64) error

	InsertTestItem(ctx context.Context, item *models.TestItem) error
}

// ImportRunRepository stores the import history.
type ImportRunRepository interface {
	SaveImportRun(ctx context.Context, run *models.ImportRun) error
	ListImportRuns(ctx context.Context, limit int) ([]models.ImportRun, error)
}
