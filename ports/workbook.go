package ports

import (
	"testdesk/domain/scenario"
)

// Workbook is a fully loaded spreadsheet file.
type Workbook interface {
	// SheetNames returns sheet names in workbook order
	SheetNames() []string

	// Sheet returns the grid of the named sheet
	Sheet(name string) (scenario.Grid, error)

	Close() error
}

// WorkbookReader opens workbooks from disk. Open fails with an error
// matching core.ErrFileFormat when the file cannot be read as a workbook.
type WorkbookReader interface {
	Open(path string) (Workbook, error)
}

// CSVReader reads a CSV file into trimmed rows of varying length.
type CSVReader interface {
	ReadCSV(path string) ([][]string, error)
}
