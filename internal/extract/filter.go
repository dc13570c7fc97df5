package extract

import "strings"

// SheetFilter drops sheets whose names start with a reserved prefix.
type SheetFilter struct {
	prefixes []string
}

// NewSheetFilter creates a filter for the given prefixes.
func NewSheetFilter(prefixes []string) *SheetFilter {
	return &SheetFilter{prefixes: prefixes}
}

// Include reports whether the sheet should be scanned.
func (f *SheetFilter) Include(sheetName string) bool {
	for _, p := range f.prefixes {
		if p != "" && strings.HasPrefix(sheetName, p) {
			return false
		}
	}
	return true
}

// Filter returns the included names, preserving order.
func (f *SheetFilter) Filter(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if f.Include(n) {
			out = append(out, n)
		}
	}
	return out
}
