package excel

import (
	"fmt"

	"testdesk/domain/scenario"
)

// Workbook is an in-memory copy of every sheet of a workbook file.
type Workbook struct {
	path   string
	names  []string
	sheets map[string]*scenario.MemoryGrid
}

// SheetNames returns sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	out := make([]string, len(w.names))
	copy(out, w.names)
	return out
}

// Sheet returns the grid of the named sheet.
func (w *Workbook) Sheet(name string) (scenario.Grid, error) {
	g, ok := w.sheets[name]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found in %s", name, w.path)
	}
	return g, nil
}

// Close is a no-op; the file is closed once loading finishes.
func (w *Workbook) Close() error { return nil }
