package excel

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// Built-in number format ids that display a date or time, including the
// East Asian locale ids excelize resolves (27-36, 50-58).
var builtInDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// dateFormats remembers per style index whether a workbook's cell style
// formats numbers as dates.
type dateFormats struct {
	file   *excelize.File
	styles map[int]bool
}

func newDateFormats(f *excelize.File) *dateFormats {
	return &dateFormats{file: f, styles: make(map[int]bool)}
}

func (d *dateFormats) isDate(sheet, ref string) bool {
	idx, err := d.file.GetCellStyle(sheet, ref)
	if err != nil {
		return false
	}
	if v, ok := d.styles[idx]; ok {
		return v
	}
	v := false
	if style, err := d.file.GetStyle(idx); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			v = isDateFormatCode(*style.CustomNumFmt)
		} else {
			v = builtInDateFormats[style.NumFmt]
		}
	}
	d.styles[idx] = v
	return v
}

// isDateFormatCode reports whether a custom format code contains date or
// time tokens outside quoted literals, escapes and bracketed sections.
// Elapsed-time brackets like [h] count as time.
func isDateFormatCode(code string) bool {
	code = strings.ToLower(code)
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	code = strings.ReplaceAll(code, "general", "")

	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '"':
			if j := strings.IndexByte(code[i+1:], '"'); j >= 0 {
				i += j + 1
			} else {
				return false
			}
		case '\\', '_', '*':
			i++
		case '[':
			j := strings.IndexByte(code[i:], ']')
			if j < 0 {
				return false
			}
			if inner := code[i+1 : i+j]; inner == "h" || inner == "hh" || inner == "m" || inner == "mm" || inner == "s" || inner == "ss" {
				return true
			}
			i += j
		case 'y', 'm', 'd', 'h', 's', 'e', 'g':
			return true
		}
	}
	return false
}
