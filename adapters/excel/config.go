package excel

import (
	"path/filepath"
	"strings"
)

// ReaderConfig controls which files the workbook reader accepts.
type ReaderConfig struct {
	// AllowedExtensions are lower-case extensions including the dot
	AllowedExtensions []string `json:"allowed_extensions"`
	// Password opens encrypted workbooks
	Password string `json:"-"`
}

// DefaultReaderConfig accepts the OOXML workbook family. Legacy binary .xls
// files are rejected as a format error.
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		AllowedExtensions: []string{".xlsx", ".xlsm", ".xltx", ".xltm"},
	}
}

func (c ReaderConfig) allows(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.AllowedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
