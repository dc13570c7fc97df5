package app

import (
	"context"

	"testdesk/domain/core"
	"testdesk/internal"
	"testdesk/models"
	"testdesk/ports"
)

// CSVImportService loads "project,screen,test case" rows into the store
type CSVImportService struct {
	store  ports.TestPlanStore
	reader ports.CSVReader
	log    *internal.Logger
}

// NewCSVImportService creates a CSV hierarchy importer
func NewCSVImportService(store ports.TestPlanStore, reader ports.CSVReader, logger *internal.Logger) *CSVImportService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CSVImportService{store: store, reader: reader, log: logger.Named("CSVImport")}
}

// Import get-or-creates the hierarchy of every valid row in one
// transaction. Rows with fewer than three columns or an invalid name are
// skipped.
func (s *CSVImportService) Import(ctx context.Context, path string) (*models.CSVImportResult, error) {
	rows, err := s.reader.ReadCSV(path)
	if err != nil {
		return nil, err
	}

	var result models.CSVImportResult
	err = s.store.WithinTx(ctx, func(tx ports.TestPlanTx) error {
		result = models.CSVImportResult{}
		for i, row := range rows {
			result.Rows++
			if len(row) < 3 {
				s.log.Debug("row %d: expected 3 columns, got %d", i+1, len(row))
				result.Skipped++
				continue
			}
			projectName, ok1 := core.NormalizeName(row[0])
			screenName, ok2 := core.NormalizeName(row[1])
			caseName, ok3 := core.NormalizeName(row[2])
			if !ok1 || !ok2 || !ok3 {
				s.log.Debug("row %d: invalid name", i+1)
				result.Skipped++
				continue
			}

			project, created, err := tx.GetOrCreateProject(ctx, projectName)
			if err != nil {
				return err
			}
			if created {
				result.Projects++
			}
			screen, created, err := tx.GetOrCreateScreen(ctx, project.ID, screenName)
			if err != nil {
				return err
			}
			if created {
				result.Screens++
			}
			if _, created, err = tx.GetOrCreateTestCase(ctx, screen.ID, caseName); err != nil {
				return err
			}
			if created {
				result.TestCases++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("%s: %d rows, %d skipped, created %d projects, %d screens, %d test cases",
		path, result.Rows, result.Skipped, result.Projects, result.Screens, result.TestCases)
	return &result, nil
}
