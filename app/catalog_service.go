package app

import (
	"context"

	"testdesk/domain/core"
	"testdesk/internal/errors"
	"testdesk/models"
	"testdesk/ports"
)

// CatalogService serves the read views around the importer: project
// selection, the imported scenario list and the import history.
type CatalogService struct {
	store ports.TestPlanStore
	runs  ports.ImportRunRepository
}

// NewCatalogService creates a catalog service
func NewCatalogService(store ports.TestPlanStore, runs ports.ImportRunRepository) *CatalogService {
	return &CatalogService{store: store, runs: runs}
}

func (s *CatalogService) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.store.ListProjects(ctx)
}

// CreateProject returns the project with the given name, creating it when
// absent. created reports whether a row was inserted.
func (s *CatalogService) CreateProject(ctx context.Context, rawName string) (project models.Project, created bool, err error) {
	name, err := core.ValidateName("project name", rawName)
	if err != nil {
		return models.Project{}, false, &errors.AppError{Code: errors.CodeValidationError, Message: "invalid project", Cause: err}
	}
	err = s.store.WithinTx(ctx, func(tx ports.TestPlanTx) error {
		var err error
		project, created, err = tx.GetOrCreateProject(ctx, name)
		return err
	})
	return project, created, err
}

// ListScenarioRows returns the test items of an existing project.
func (s *CatalogService) ListScenarioRows(ctx context.Context, projectID int64) ([]models.ScenarioRow, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListScenarioRows(ctx, projectID)
}

// ImportHistory returns the most recent import runs.
func (s *CatalogService) ImportHistory(ctx context.Context, limit int) ([]models.ImportRun, error) {
	if s.runs == nil {
		return []models.ImportRun{}, nil
	}
	return s.runs.ListImportRuns(ctx, limit)
}
