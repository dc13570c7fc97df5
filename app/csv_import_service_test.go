package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCSVReader struct {
	mock.Mock
}

func (m *mockCSVReader) ReadCSV(path string) ([][]string, error) {
	args := m.Called(path)
	rows, _ := args.Get(0).([][]string)
	return rows, args.Error(1)
}

func TestCSVImport(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	reader := new(mockCSVReader)
	reader.On("ReadCSV", "hierarchy.csv").Return([][]string{
		{"P1", "ログイン画面", "正常ログイン"},
		{"P1", "ログイン画面", "異常ログイン"},
		{"P1", "ログイン画面", "正常ログイン"},
		{"P2", "一覧", "検索", "extra"},
		{"P1", "ログイン画面"},
		{"", "画面", "ケース"},
		{"P1", strings.Repeat("x", 101), "ケース"},
	}, nil)

	result, err := NewCSVImportService(store, reader, quiet).Import(ctx, "hierarchy.csv")
	require.NoError(t, err)
	reader.AssertExpectations(t)

	assert.Equal(t, 7, result.Rows)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, 2, result.Projects)
	assert.Equal(t, 2, result.Screens)
	assert.Equal(t, 3, result.TestCases)

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "P1", projects[0].Name)
}

func TestCSVImportReadError(t *testing.T) {
	store := newStore(t)
	reader := new(mockCSVReader)
	reader.On("ReadCSV", "missing.csv").Return(nil, assert.AnError)

	_, err := NewCSVImportService(store, reader, quiet).Import(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, assert.AnError)
}
