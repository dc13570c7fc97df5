// Package scenario holds the value types produced by scanning a scenario
// workbook: sheet grids, scenario blocks and their item records.
package scenario

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// CellKind classifies a grid cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellBool
)

// CellValue is one cell as read from a sheet. Text carries the displayed
// text for every non-empty kind; Number is set for CellNumber only.
type CellValue struct {
	Kind   CellKind
	Text   string
	Number float64
}

// Empty returns the blank cell sentinel.
func Empty() CellValue { return CellValue{} }

// Text returns a text cell. An empty string is the blank sentinel.
func Text(s string) CellValue {
	if s == "" {
		return CellValue{}
	}
	return CellValue{Kind: CellText, Text: s}
}

// Number returns a numeric cell.
func Number(f float64) CellValue {
	return CellValue{Kind: CellNumber, Number: f, Text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// Bool returns a boolean cell rendered the way spreadsheets display it.
func Bool(b bool) CellValue {
	if b {
		return CellValue{Kind: CellBool, Text: "TRUE"}
	}
	return CellValue{Kind: CellBool, Text: "FALSE"}
}

// IsEmpty reports whether the cell is blank.
func (v CellValue) IsEmpty() bool { return v.Kind == CellEmpty }

// Equals reports whether the cell is a text cell holding exactly s.
func (v CellValue) Equals(s string) bool {
	return v.Kind == CellText && v.Text == s
}

func (v CellValue) String() string {
	switch v.Kind {
	case CellEmpty:
		return ""
	case CellNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	default:
		return v.Text
	}
}

func (v CellValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case CellEmpty:
		return []byte("null"), nil
	case CellNumber:
		return json.Marshal(v.Number)
	case CellBool:
		return json.Marshal(v.Text == "TRUE")
	default:
		return json.Marshal(v.Text)
	}
}

// ItemRecord maps header labels to cell values in column order. Setting a
// label twice keeps its first position and the last value.
type ItemRecord struct {
	keys   []string
	values map[string]CellValue
}

// NewItemRecord returns an empty record sized for n columns.
func NewItemRecord(n int) ItemRecord {
	return ItemRecord{keys: make([]string, 0, n), values: make(map[string]CellValue, n)}
}

// Set stores value under label.
func (r *ItemRecord) Set(label string, value CellValue) {
	if r.values == nil {
		r.values = make(map[string]CellValue)
	}
	if _, ok := r.values[label]; !ok {
		r.keys = append(r.keys, label)
	}
	r.values[label] = value
}

// Get returns the value stored under label.
func (r ItemRecord) Get(label string) (CellValue, bool) {
	v, ok := r.values[label]
	return v, ok
}

// Keys returns the labels in column order.
func (r ItemRecord) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r ItemRecord) Len() int { return len(r.keys) }

func (r ItemRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := r.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ScenarioBlock is one scenario found under a scenario marker. Name is the
// raw cell text and is not validated.
type ScenarioBlock struct {
	Name  string       `json:"name"`
	Items []ItemRecord `json:"items"`
}

// SheetScanResult is the extraction output for one sheet.
type SheetScanResult struct {
	SheetName  string          `json:"sheet_name"`
	ScreenName string          `json:"screen_name"`
	Scenarios  []ScenarioBlock `json:"scenarios"`
}

// ItemCount sums the items across all scenarios of the sheet.
func (r SheetScanResult) ItemCount() int {
	n := 0
	for _, s := range r.Scenarios {
		n += len(s.Items)
	}
	return n
}

// Grid is a read-only, 1-indexed, sparse view over one loaded sheet.
// Reads outside the populated range return the empty sentinel.
type Grid interface {
	Name() string
	Cell(row, col int) CellValue
	MaxRow() int
	MaxColumn() int
}

// MemoryGrid is a Grid backed by a row-major slice. Row and column 1 map to
// index 0.
type MemoryGrid struct {
	name   string
	rows   [][]CellValue
	maxCol int
}

// NewMemoryGrid builds a grid from rows of cells.
func NewMemoryGrid(name string, rows [][]CellValue) *MemoryGrid {
	g := &MemoryGrid{name: name, rows: rows}
	for _, r := range rows {
		if len(r) > g.maxCol {
			g.maxCol = len(r)
		}
	}
	return g
}

func (g *MemoryGrid) Name() string { return g.name }

func (g *MemoryGrid) Cell(row, col int) CellValue {
	if row < 1 || col < 1 || row > len(g.rows) {
		return Empty()
	}
	r := g.rows[row-1]
	if col > len(r) {
		return Empty()
	}
	return r[col-1]
}

func (g *MemoryGrid) MaxRow() int { return len(g.rows) }

func (g *MemoryGrid) MaxColumn() int { return g.maxCol }
