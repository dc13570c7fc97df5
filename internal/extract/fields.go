package extract

import (
	"strings"

	"testdesk/domain/scenario"
)

// Field is a logical test item column.
type Field string

const (
	FieldName      Field = "name"
	FieldInputData Field = "input_data"
	FieldOperation Field = "operation"
	FieldExpected  Field = "expected"
	FieldPriority  Field = "priority"
	FieldTester    Field = "tester"
	FieldExecDate  Field = "exec_date"
	FieldResult    Field = "result"
	FieldRemarks   Field = "remarks"
)

// AllFields lists every logical field in storage column order.
var AllFields = []Field{
	FieldName, FieldInputData, FieldOperation, FieldExpected,
	FieldPriority, FieldTester, FieldExecDate, FieldResult, FieldRemarks,
}

// FieldAliases maps a logical field to the header labels accepted for it,
// in priority order.
type FieldAliases map[Field][]string

// DefaultFieldAliases accepts the Japanese header first, then the column name.
func DefaultFieldAliases() FieldAliases {
	return FieldAliases{
		FieldName:      {"テスト項目", "name"},
		FieldInputData: {"入力データ", "input_data"},
		FieldOperation: {"操作手順", "operation"},
		FieldExpected:  {"期待結果", "expected"},
		FieldPriority:  {"優先度", "priority"},
		FieldTester:    {"担当者", "tester"},
		FieldExecDate:  {"実施日", "exec_date"},
		FieldResult:    {"結果", "result"},
		FieldRemarks:   {"備考", "remarks"},
	}
}

// Lookup returns the trimmed text of the first alias holding a non-empty
// value, or "".
func (a FieldAliases) Lookup(rec scenario.ItemRecord, field Field) string {
	for _, alias := range a[field] {
		v, ok := rec.Get(alias)
		if !ok {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// Resolve looks up every field of rec.
func (a FieldAliases) Resolve(rec scenario.ItemRecord) map[Field]string {
	out := make(map[Field]string, len(AllFields))
	for _, f := range AllFields {
		out[f] = a.Lookup(rec, f)
	}
	return out
}
