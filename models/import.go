package models

import (
	"fmt"
	"strings"
	"time"
)

// Outcome status vocabulary shown to users.
const (
	StatusSuccess = "成功"
	StatusFailure = "失敗"
)

// Outcome messages.
const (
	MessageCreated     = "新規登録"
	MessageOverwritten = "上書き登録"
	MessageKept        = "既存シナリオを残しました"
	MessageNoScenarios = "Excelからシナリオが見つかりませんでした"
)

// ImportAction classifies what happened to a scenario.
type ImportAction string

const (
	ActionCreated     ImportAction = "created"
	ActionOverwritten ImportAction = "overwritten"
	ActionKept        ImportAction = "kept"
	ActionFailed      ImportAction = "failed"
)

// PlaceholderName fills screen and name of synthetic failure outcomes.
const PlaceholderName = "-"

// ImportOutcome is one row of the import result list.
type ImportOutcome struct {
	Screen    string       `json:"screen"`
	Name      string       `json:"name"`
	Status    string       `json:"status"`
	Message   string       `json:"message"`
	Action    ImportAction `json:"action"`
	ItemCount int          `json:"item_count"`
}

// FailureOutcome returns the single synthetic outcome reported when an
// import cannot proceed.
func FailureOutcome(message string) ImportOutcome {
	return ImportOutcome{
		Screen:  PlaceholderName,
		Name:    PlaceholderName,
		Status:  StatusFailure,
		Message: message,
		Action:  ActionFailed,
	}
}

// Succeeded reports whether the outcome has the success status.
func (o ImportOutcome) Succeeded() bool { return o.Status == StatusSuccess }

// ImportTarget selects the project an import writes into: an existing
// project id or a project name to get or create.
type ImportTarget struct {
	ProjectID      int64  `json:"project_id,omitempty"`
	NewProjectName string `json:"project_name,omitempty"`
}

// ExistingProject targets a project by id.
func ExistingProject(id int64) ImportTarget { return ImportTarget{ProjectID: id} }

// NewProject targets a project by name.
func NewProject(name string) ImportTarget { return ImportTarget{NewProjectName: name} }

// Validate checks that exactly one selection mode is used.
func (t ImportTarget) Validate() error {
	hasID := t.ProjectID != 0
	hasName := strings.TrimSpace(t.NewProjectName) != ""
	switch {
	case hasID && hasName:
		return fmt.Errorf("project id and project name are mutually exclusive")
	case !hasID && !hasName:
		return fmt.Errorf("either project id or project name is required")
	case hasID && t.ProjectID < 0:
		return fmt.Errorf("project id must be positive, got %d", t.ProjectID)
	}
	return nil
}

func (t ImportTarget) String() string {
	if t.ProjectID != 0 {
		return fmt.Sprintf("project #%d", t.ProjectID)
	}
	return fmt.Sprintf("project %q", strings.TrimSpace(t.NewProjectName))
}

// ImportRun is the persisted history record of one import call.
type ImportRun struct {
	ID          string    `json:"id" db:"id"`
	FileName    string    `json:"file_name" db:"file_name"`
	ProjectID   int64     `json:"project_id" db:"project_id"`
	Overwrite   bool      `json:"overwrite" db:"overwrite"`
	StartedAt   time.Time `json:"started_at" db:"started_at"`
	FinishedAt  time.Time `json:"finished_at" db:"finished_at"`
	Created     int       `json:"created" db:"created_count"`
	Overwritten int       `json:"overwritten" db:"overwritten_count"`
	Kept        int       `json:"kept" db:"kept_count"`
	Failed      int       `json:"failed" db:"failed_count"`
	Items       int       `json:"items" db:"item_count"`
	Error       string    `json:"error,omitempty" db:"error"`
}

// Tally fills the counters from outcomes.
func (r *ImportRun) Tally(outcomes []ImportOutcome) {
	r.Created, r.Overwritten, r.Kept, r.Failed, r.Items = 0, 0, 0, 0, 0
	for _, o := range outcomes {
		switch o.Action {
		case ActionCreated:
			r.Created++
		case ActionOverwritten:
			r.Overwritten++
		case ActionKept:
			r.Kept++
		case ActionFailed:
			r.Failed++
		}
		r.Items += o.ItemCount
	}
}

// CSVImportResult counts what a hierarchy CSV import created.
type CSVImportResult struct {
	Rows      int `json:"rows"`
	Skipped   int `json:"skipped"`
	Projects  int `json:"projects"`
	Screens   int `json:"screens"`
	TestCases int `json:"test_cases"`
}
