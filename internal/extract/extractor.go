// Package extract scans scenario workbooks. Each sheet carries a screen name
// block at the top followed by repeating "シナリオ名" markers, each optionally
// followed two rows below by an item table whose header row starts with "No".
package extract

import (
	"fmt"
	"time"

	"testdesk/domain/scenario"
	"testdesk/internal"
	"testdesk/ports"
)

type scanState int

const (
	stateScanning scanState = iota
	stateHeaderCheck
	stateCollecting
)

// Extractor turns sheet grids into scenario blocks.
type Extractor struct {
	profile Profile
	filter  *SheetFilter
	log     *internal.Logger
}

// NewExtractor creates an extractor. Zero-valued profile fields fall back to
// the defaults.
func NewExtractor(profile Profile, logger *internal.Logger) *Extractor {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	p := profile.withDefaults()
	return &Extractor{
		profile: p,
		filter:  NewSheetFilter(p.ReservedPrefixes),
		log:     logger.Named("Extractor"),
	}
}

// Profile returns the effective profile.
func (e *Extractor) Profile() Profile { return e.profile }

// ExtractFile opens path and extracts every included sheet.
func (e *Extractor) ExtractFile(reader ports.WorkbookReader, path string) ([]scenario.SheetScanResult, error) {
	start := time.Now()
	wb, err := reader.Open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	results, err := e.ExtractWorkbook(wb)
	if err != nil {
		return nil, err
	}
	e.log.Info("%s scanned in %.2fms (%d sheets with scenarios)",
		path, float64(time.Since(start).Nanoseconds())/1e6, len(results))
	return results, nil
}

// ExtractWorkbook scans included sheets in workbook order and keeps the
// ones that produced at least one scenario.
func (e *Extractor) ExtractWorkbook(wb ports.Workbook) ([]scenario.SheetScanResult, error) {
	all := wb.SheetNames()
	names := e.filter.Filter(all)
	if skipped := len(all) - len(names); skipped > 0 {
		e.log.Debug("skipping %d reserved sheets", skipped)
	}

	var results []scenario.SheetScanResult
	for _, name := range names {
		grid, err := wb.Sheet(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		res := e.ExtractSheet(grid)
		if len(res.Scenarios) == 0 {
			e.log.Debug("sheet %q has no scenarios", name)
			continue
		}
		e.log.Debug("sheet %q: %d scenarios, %d items", name, len(res.Scenarios), res.ItemCount())
		results = append(results, res)
	}
	return results, nil
}

// ExtractSheet scans one grid top to bottom.
func (e *Extractor) ExtractSheet(g scenario.Grid) scenario.SheetScanResult {
	res := scenario.SheetScanResult{
		SheetName:  g.Name(),
		ScreenName: e.screenName(g),
	}
	e.log.Debug("sheet %q screen %q", res.SheetName, res.ScreenName)

	var (
		state   = stateScanning
		row     = 1
		maxRow  = g.MaxRow()
		current scenario.ScenarioBlock
		headers []string
	)

	for row <= maxRow {
		switch state {
		case stateScanning:
			if g.Cell(row, 1).Equals(e.profile.ScenarioMarker) {
				current = scenario.ScenarioBlock{Name: g.Cell(row+1, 1).String()}
				state = stateHeaderCheck
				continue
			}
			row++

		case stateHeaderCheck:
			headerRow := row + 2
			if !g.Cell(headerRow, 1).Equals(e.profile.HeaderMarker) {
				e.log.Warn("sheet %q row %d: scenario %q has no %q header row, dropped",
					res.SheetName, row, current.Name, e.profile.HeaderMarker)
				row++
				state = stateScanning
				continue
			}
			headers = readHeaders(g, headerRow)
			e.log.Trace("sheet %q scenario %q headers %v", res.SheetName, current.Name, headers)
			row = headerRow + 1
			state = stateCollecting

		case stateCollecting:
			if e.endsItemTable(g, row) {
				res.Scenarios = append(res.Scenarios, current)
				state = stateScanning
				continue
			}
			current.Items = append(current.Items, readRecord(g, row, headers))
			row++
		}
	}

	// The item table ran to the last populated row.
	if state == stateCollecting {
		res.Scenarios = append(res.Scenarios, current)
	}

	return res
}

// screenName reads A1, B1 and A2, falling back to the sheet name.
func (e *Extractor) screenName(g scenario.Grid) string {
	a1 := g.Cell(1, 1)
	name := a1.String()
	if a1.Kind == scenario.CellText && e.isScreenLabel(a1.Text) {
		if a2 := g.Cell(2, 1); !a2.IsEmpty() {
			name = a2.String()
		} else {
			name = g.Cell(1, 2).String()
		}
	}
	if name == "" {
		name = g.Name()
	}
	return name
}

func (e *Extractor) isScreenLabel(s string) bool {
	for _, l := range e.profile.ScreenLabels {
		if s == l {
			return true
		}
	}
	return false
}

// endsItemTable is the stop test: the next scenario marker, or a row whose
// first two columns are both blank.
func (e *Extractor) endsItemTable(g scenario.Grid, row int) bool {
	first := g.Cell(row, 1)
	if first.Equals(e.profile.ScenarioMarker) {
		return true
	}
	return first.IsEmpty() && g.Cell(row, 2).IsEmpty()
}

func readHeaders(g scenario.Grid, row int) []string {
	var headers []string
	for col := 1; col <= g.MaxColumn(); col++ {
		v := g.Cell(row, col)
		if v.IsEmpty() {
			break
		}
		headers = append(headers, v.String())
	}
	return headers
}

func readRecord(g scenario.Grid, row int, headers []string) scenario.ItemRecord {
	rec := scenario.NewItemRecord(len(headers))
	for i, h := range headers {
		rec.Set(h, g.Cell(row, i+1))
	}
	return rec
}
