package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"testdesk/domain/core"
	"testdesk/domain/scenario"
	"testdesk/internal"
	"testdesk/internal/errors"
	"testdesk/ports"

	"github.com/xuri/excelize/v2"
)

// DataReader loads scenario workbooks and hierarchy CSV files.
type DataReader struct {
	config ReaderConfig
	log    *internal.Logger
}

var (
	_ ports.WorkbookReader = (*DataReader)(nil)
	_ ports.CSVReader      = (*DataReader)(nil)
)

// NewDataReader creates a reader with the given configuration
func NewDataReader(config ReaderConfig, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = DefaultReaderConfig().AllowedExtensions
	}
	return &DataReader{config: config, log: logger.Named("DataReader")}
}

// Open reads every sheet of the workbook at path into memory.
func (r *DataReader) Open(path string) (ports.Workbook, error) {
	r.log.Debug("Starting to read workbook: %s", path)

	if !r.config.allows(path) {
		return nil, errors.FileFormatError(path, core.NewFileFormatError(path, fmt.Errorf("unsupported file extension")))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.FileFormatError(path, core.NewFileFormatError(path, err))
	}

	startTime := time.Now()
	f, err := excelize.OpenFile(path, excelize.Options{Password: r.config.Password})
	if err != nil {
		return nil, errors.FileFormatError(path, core.NewFileFormatError(path, err))
	}
	defer f.Close()
	r.log.Debug("Workbook opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	loader := &sheetLoader{file: f, dates: newDateFormats(f), date1904: date1904}

	wb := &Workbook{path: path, sheets: make(map[string]*scenario.MemoryGrid)}
	for _, name := range f.GetSheetList() {
		readStart := time.Now()
		grid, err := loader.load(name)
		if err != nil {
			return nil, errors.FileFormatError(path, core.NewFileFormatError(path, err))
		}
		wb.names = append(wb.names, name)
		wb.sheets[name] = grid
		r.log.Trace("Sheet %q read in %.2fms (%d rows)", name,
			float64(time.Since(readStart).Nanoseconds())/1e6, grid.MaxRow())
	}

	r.log.Info("Workbook %s loaded (%d sheets)", path, len(wb.names))
	return wb, nil
}

// sheetLoader converts the cells of one open workbook.
type sheetLoader struct {
	file     *excelize.File
	dates    *dateFormats
	date1904 bool
}

// load reads displayed values and raw values side by side so numeric
// cells keep their stored number while text keeps its display form.
func (l *sheetLoader) load(sheet string) (*scenario.MemoryGrid, error) {
	formatted, err := l.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	raw, err := l.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read raw values of sheet %q: %w", sheet, err)
	}

	rows := make([][]scenario.CellValue, len(formatted))
	for i, row := range formatted {
		cells := make([]scenario.CellValue, len(row))
		for j, text := range row {
			rawText := text
			if i < len(raw) && j < len(raw[i]) {
				rawText = raw[i][j]
			}
			cells[j] = l.cellValue(sheet, i+1, j+1, text, rawText)
		}
		rows[i] = cells
	}
	return scenario.NewMemoryGrid(sheet, rows), nil
}

func (l *sheetLoader) cellValue(sheet string, row, col int, text, rawText string) scenario.CellValue {
	if text == "" && rawText == "" {
		return scenario.Empty()
	}
	num, numErr := strconv.ParseFloat(rawText, 64)
	if numErr != nil {
		return scenario.Text(text)
	}

	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return scenario.Text(text)
	}
	cellType, err := l.file.GetCellType(sheet, ref)
	if err != nil {
		return scenario.Text(text)
	}

	switch cellType {
	case excelize.CellTypeBool:
		return scenario.Bool(text == "TRUE" || rawText == "1")
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeDate:
		// The stored number wins over its display format; dates become ISO text.
		if l.dates.isDate(sheet, ref) {
			if s, ok := formatExcelTime(num, l.date1904); ok {
				return scenario.Text(s)
			}
		}
		return scenario.Number(num)
	default:
		return scenario.Text(text)
	}
}

// formatExcelTime renders a serial below one day as a time of day and
// anything else as a full timestamp.
func formatExcelTime(serial float64, date1904 bool) (string, bool) {
	if serial >= 0 && serial < 1 {
		d := time.Duration(math.Round(serial*86400)) * time.Second
		return time.Time{}.Add(d).Format("15:04:05"), true
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02 15:04:05"), true
}

// ReadCSV reads a UTF-8 CSV file (an optional BOM is stripped) into trimmed
// rows. Rows may have differing lengths.
func (r *DataReader) ReadCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileFormatError(path, core.NewFileFormatError(path, err))
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	readStart := time.Now()

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.FileFormatError(path, core.NewFileFormatError(path, err))
		}
		row := make([]string, len(rec))
		for i, cell := range rec {
			row[i] = strings.TrimSpace(cell)
		}
		rows = append(rows, row)
	}

	r.log.Debug("CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}
