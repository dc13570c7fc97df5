package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"testdesk/domain/core"
	"testdesk/domain/scenario"
	"testdesk/internal"
	"testdesk/internal/errors"
	"testdesk/internal/extract"
	"testdesk/models"
	"testdesk/ports"
)

// ImportOptions tunes the import transaction scope
type ImportOptions struct {
	// CommitPerSheet commits each sheet on its own. A later failure then
	// leaves earlier sheets in place. The default is one transaction for the
	// whole workbook.
	CommitPerSheet bool
}

// ImportRequest defines inputs for a workbook import
type ImportRequest struct {
	Path string
	// FileName is recorded in the history; defaults to the base name of Path
	FileName  string
	Target    models.ImportTarget
	Overwrite bool
}

// ImportResult is the outcome list of one import call
type ImportResult struct {
	RunID     core.RunID             `json:"run_id"`
	ProjectID int64                  `json:"project_id"`
	Outcomes  []models.ImportOutcome `json:"outcomes"`
	RuntimeMs int64                  `json:"runtime_ms"`
}

// Failed reports whether the import was aborted with a single failure outcome.
func (r *ImportResult) Failed() bool {
	return len(r.Outcomes) == 1 && r.Outcomes[0].Action == models.ActionFailed
}

// ImportService materializes scenario workbooks into the test plan store
type ImportService struct {
	store     ports.TestPlanStore
	runs      ports.ImportRunRepository
	reader    ports.WorkbookReader
	extractor *extract.Extractor
	options   ImportOptions
	log       *internal.Logger
}

// NewImportService creates an import service. runs may be nil to skip the
// import history.
func NewImportService(store ports.TestPlanStore, runs ports.ImportRunRepository, reader ports.WorkbookReader, extractor *extract.Extractor, options ImportOptions, logger *internal.Logger) *ImportService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ImportService{
		store:     store,
		runs:      runs,
		reader:    reader,
		extractor: extractor,
		options:   options,
		log:       logger.Named("ImportService"),
	}
}

// Import reads the workbook at req.Path and writes its scenarios under the
// target project.
//
// Errors are returned only for an invalid target and for a workbook that
// cannot be opened. Everything else, including store failures, is reported
// through the outcome list.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	startTime := time.Now()
	run := &models.ImportRun{
		ID:        core.NewRunID().String(),
		FileName:  req.FileName,
		ProjectID: req.Target.ProjectID,
		Overwrite: req.Overwrite,
		StartedAt: startTime.UTC(),
	}
	if run.FileName == "" {
		run.FileName = filepath.Base(req.Path)
	}

	if err := s.validateTarget(ctx, req.Target); err != nil {
		return nil, err
	}

	sheets, err := s.extractor.ExtractFile(s.reader, req.Path)
	if err != nil {
		run.Error = err.Error()
		s.recordRun(ctx, run, nil)
		return nil, err
	}

	result := &ImportResult{RunID: core.RunID(run.ID), ProjectID: req.Target.ProjectID}

	if len(sheets) == 0 {
		s.log.Warn("%s: no scenarios found", run.FileName)
		result.Outcomes = []models.ImportOutcome{models.FailureOutcome(models.MessageNoScenarios)}
		run.Error = core.ErrEmptyExtraction.Error()
	} else {
		var outcomes []models.ImportOutcome
		var projectID int64
		if s.options.CommitPerSheet {
			projectID, outcomes, err = s.importPerSheet(ctx, req, sheets)
		} else {
			projectID, outcomes, err = s.importAtomic(ctx, req, sheets)
		}
		if projectID != 0 {
			result.ProjectID = projectID
		}
		if err != nil {
			s.log.Error("%s: import aborted: %v", run.FileName, err)
			outcomes = []models.ImportOutcome{models.FailureOutcome(err.Error())}
			run.Error = err.Error()
		}
		result.Outcomes = outcomes
	}

	run.ProjectID = result.ProjectID
	s.recordRun(ctx, run, result.Outcomes)
	result.RuntimeMs = time.Since(startTime).Milliseconds()

	s.log.Info("%s imported into project #%d: created=%d overwritten=%d kept=%d failed=%d items=%d (%dms)",
		run.FileName, result.ProjectID, run.Created, run.Overwritten, run.Kept, run.Failed, run.Items, result.RuntimeMs)
	return result, nil
}

func (s *ImportService) validateTarget(ctx context.Context, target models.ImportTarget) error {
	if err := target.Validate(); err != nil {
		return rejected(errors.CodeInvalidInput, fmt.Errorf("%w: %v", core.ErrInvalidTarget, err))
	}
	if target.ProjectID != 0 {
		if _, err := s.store.GetProject(ctx, target.ProjectID); err != nil {
			if core.IsNotFoundError(err) {
				return rejected(errors.CodeNotFound, err)
			}
			return err
		}
		return nil
	}
	if _, err := core.ValidateName("project name", target.NewProjectName); err != nil {
		return rejected(errors.CodeValidationError, err)
	}
	return nil
}

func rejected(code string, cause error) error {
	return &errors.AppError{Code: code, Message: "import rejected", Cause: cause}
}

// importAtomic writes every sheet in one transaction.
func (s *ImportService) importAtomic(ctx context.Context, req ImportRequest, sheets []scenario.SheetScanResult) (int64, []models.ImportOutcome, error) {
	var projectID int64
	var outcomes []models.ImportOutcome

	err := s.store.WithinTx(ctx, func(tx ports.TestPlanTx) error {
		var err error
		projectID, err = s.resolveProject(ctx, tx, req.Target)
		if err != nil {
			return err
		}
		for _, sheet := range sheets {
			sheetOutcomes, err := s.importSheet(ctx, tx, projectID, sheet, req.Overwrite)
			if err != nil {
				return err
			}
			outcomes = append(outcomes, sheetOutcomes...)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return projectID, outcomes, nil
}

// importPerSheet commits the project and then every sheet separately.
func (s *ImportService) importPerSheet(ctx context.Context, req ImportRequest, sheets []scenario.SheetScanResult) (int64, []models.ImportOutcome, error) {
	var projectID int64
	err := s.store.WithinTx(ctx, func(tx ports.TestPlanTx) error {
		var err error
		projectID, err = s.resolveProject(ctx, tx, req.Target)
		return err
	})
	if err != nil {
		return 0, nil, err
	}

	var outcomes []models.ImportOutcome
	for _, sheet := range sheets {
		err := s.store.WithinTx(ctx, func(tx ports.TestPlanTx) error {
			sheetOutcomes, err := s.importSheet(ctx, tx, projectID, sheet, req.Overwrite)
			if err != nil {
				return err
			}
			outcomes = append(outcomes, sheetOutcomes...)
			return nil
		})
		if err != nil {
			return projectID, nil, err
		}
	}
	return projectID, outcomes, nil
}

func (s *ImportService) resolveProject(ctx context.Context, tx ports.TestPlanTx, target models.ImportTarget) (int64, error) {
	if target.ProjectID != 0 {
		exists, err := tx.ProjectExists(ctx, target.ProjectID)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, core.NewNotFoundError("project", target.ProjectID)
		}
		return target.ProjectID, nil
	}

	name, err := core.ValidateName("project name", target.NewProjectName)
	if err != nil {
		return 0, err
	}
	project, created, err := tx.GetOrCreateProject(ctx, name)
	if err != nil {
		return 0, err
	}
	if created {
		s.log.Info("created project %q (#%d)", project.Name, project.ID)
	}
	return project.ID, nil
}

func (s *ImportService) importSheet(ctx context.Context, tx ports.TestPlanTx, projectID int64, sheet scenario.SheetScanResult, overwrite bool) ([]models.ImportOutcome, error) {
	screenName, ok := core.NormalizeName(sheet.ScreenName)
	if !ok {
		s.log.Debug("sheet %q: screen name %q rejected", sheet.SheetName, sheet.ScreenName)
		return nil, nil
	}

	screen, _, err := tx.GetOrCreateScreen(ctx, projectID, screenName)
	if err != nil {
		return nil, err
	}

	var outcomes []models.ImportOutcome
	for _, block := range sheet.Scenarios {
		name, ok := core.NormalizeName(block.Name)
		if !ok {
			s.log.Debug("sheet %q: scenario name %q rejected", sheet.SheetName, block.Name)
			continue
		}

		outcome, err := s.importScenario(ctx, tx, screen, name, block.Items, overwrite)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (s *ImportService) importScenario(ctx context.Context, tx ports.TestPlanTx, screen models.Screen, name string, items []scenario.ItemRecord, overwrite bool) (models.ImportOutcome, error) {
	outcome := models.ImportOutcome{
		Screen: screen.Name,
		Name:   name,
		Status: models.StatusSuccess,
	}

	existing, found, err := tx.FindTestCase(ctx, screen.ID, name)
	if err != nil {
		return outcome, err
	}

	switch {
	case found && !overwrite:
		outcome.Message = models.MessageKept
		outcome.Action = models.ActionKept
		return outcome, nil
	case found:
		if err := tx.DeleteTestCase(ctx, existing.ID); err != nil {
			return outcome, err
		}
		outcome.Message = models.MessageOverwritten
		outcome.Action = models.ActionOverwritten
	default:
		outcome.Message = models.MessageCreated
		outcome.Action = models.ActionCreated
	}

	tc, err := tx.CreateTestCase(ctx, screen.ID, name)
	if err != nil {
		return outcome, err
	}

	fields := s.extractor.Profile().Fields
	for _, rec := range items {
		values := fields.Resolve(rec)
		itemName, ok := core.NormalizeName(values[extract.FieldName])
		if !ok {
			s.log.Trace("%s / %s: item %q skipped", screen.Name, name, values[extract.FieldName])
			continue
		}
		item := &models.TestItem{
			TestCaseID: tc.ID,
			Name:       itemName,
			InputData:  values[extract.FieldInputData],
			Operation:  values[extract.FieldOperation],
			Expected:   values[extract.FieldExpected],
			Priority:   values[extract.FieldPriority],
			Tester:     values[extract.FieldTester],
			ExecDate:   values[extract.FieldExecDate],
			Result:     values[extract.FieldResult],
			Remarks:    values[extract.FieldRemarks],
		}
		if err := tx.InsertTestItem(ctx, item); err != nil {
			return outcome, err
		}
		outcome.ItemCount++
	}

	s.log.Debug("%s / %s: %s (%d items)", screen.Name, name, outcome.Action, outcome.ItemCount)
	return outcome, nil
}

func (s *ImportService) recordRun(ctx context.Context, run *models.ImportRun, outcomes []models.ImportOutcome) {
	run.Tally(outcomes)
	run.FinishedAt = time.Now().UTC()
	if s.runs == nil {
		return
	}
	if err := s.runs.SaveImportRun(ctx, run); err != nil {
		s.log.Warn("failed to record import run %s: %v", run.ID, err)
	}
}
