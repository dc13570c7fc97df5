package models

import (
	"database/sql"
)

// DefaultTestCaseStatus is the execution status of a freshly created test case.
const DefaultTestCaseStatus = "未実行"

// Project groups screens.
type Project struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Remarks string `json:"remarks" db:"remarks"`
}

// Screen is a UI page or module under a project.
type Screen struct {
	ID        int64  `json:"id" db:"id"`
	ProjectID int64  `json:"project_id" db:"project_id"`
	Name      string `json:"name" db:"name"`
	Remarks   string `json:"remarks" db:"remarks"`
}

// TestCase is a named scenario under a screen.
type TestCase struct {
	ID       int64          `json:"id" db:"id"`
	ScreenID int64          `json:"screen_id" db:"screen_id"`
	Name     string         `json:"name" db:"name"`
	Status   string         `json:"status" db:"status"`
	LastRun  sql.NullString `json:"-" db:"last_run"`
	Result   string         `json:"result" db:"result"`
	Remarks  string         `json:"remarks" db:"remarks"`
}

// TestItem is one step of a test case.
type TestItem struct {
	ID         int64  `json:"id" db:"id"`
	TestCaseID int64  `json:"test_case_id" db:"test_case_id"`
	Name       string `json:"name" db:"name"`
	InputData  string `json:"input_data" db:"input_data"`
	Operation  string `json:"operation" db:"operation"`
	Expected   string `json:"expected" db:"expected"`
	Priority   string `json:"priority" db:"priority"`
	Tester     string `json:"tester" db:"tester"`
	ExecDate   string `json:"exec_date" db:"exec_date"`
	Result     string `json:"result" db:"result"`
	Remarks    string `json:"remarks" db:"remarks"`
}

// ScenarioRow is one test item joined with its screen and test case names.
type ScenarioRow struct {
	ItemID       int64  `json:"item_id" db:"item_id"`
	ScreenName   string `json:"screen" db:"screen_name"`
	ScenarioName string `json:"scenario" db:"scenario_name"`
	ItemName     string `json:"item" db:"item_name"`
	Priority     string `json:"priority" db:"priority"`
	Tester       string `json:"tester" db:"tester"`
	Result       string `json:"result" db:"result"`
}
