package app

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"testdesk/adapters/sqlstore"
	"testdesk/domain/core"
	"testdesk/domain/scenario"
	"testdesk/internal"
	"testdesk/internal/config"
	"testdesk/internal/errors"
	"testdesk/internal/extract"
	"testdesk/internal/migration"
	"testdesk/models"
	"testdesk/ports"

	"github.com/stretchr/testify/require"
)

var quiet = internal.NewLogger(internal.LogLevelError)

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqlstore.Connect(ctx, config.DriverSQLite, filepath.Join(t.TempDir(), "scenarios.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner(config.DriverSQLite).Run(ctx, db))
	return sqlstore.NewStore(db)
}

// memBook is an in-memory workbook keyed by file path.
type memBook struct {
	order  []string
	sheets map[string]*scenario.MemoryGrid
}

func (b *memBook) SheetNames() []string { return b.order }

func (b *memBook) Sheet(name string) (scenario.Grid, error) {
	return b.sheets[name], nil
}

func (b *memBook) Close() error { return nil }

type memReader map[string]*memBook

func (r memReader) Open(path string) (ports.Workbook, error) {
	b, ok := r[path]
	if !ok {
		return nil, errors.FileFormatError(path, core.NewFileFormatError(path, stderrors.New("no such file")))
	}
	return b, nil
}

func (r memReader) add(path, sheet string, rows [][]scenario.CellValue) memReader {
	b, ok := r[path]
	if !ok {
		b = &memBook{sheets: map[string]*scenario.MemoryGrid{}}
		r[path] = b
	}
	b.order = append(b.order, sheet)
	b.sheets[sheet] = scenario.NewMemoryGrid(sheet, rows)
	return r
}

// scenarioSheet lays out one screen with the given scenarios. Each item is
// a row under the header No | テスト項目 | 入力データ | 期待結果 | 結果.
func scenarioSheet(screen string, scenarios map[string][][]string, order ...string) [][]scenario.CellValue {
	rows := [][]scenario.CellValue{
		{scenario.Text("テスト画面名")},
		{scenario.Text(screen)},
		{},
	}
	for _, name := range order {
		rows = append(rows,
			[]scenario.CellValue{scenario.Text("シナリオ名")},
			[]scenario.CellValue{scenario.Text(name)},
			[]scenario.CellValue{
				scenario.Text("No"), scenario.Text("テスト項目"), scenario.Text("入力データ"),
				scenario.Text("期待結果"), scenario.Text("結果"),
			},
		)
		for i, item := range scenarios[name] {
			row := []scenario.CellValue{scenario.Number(float64(i + 1))}
			for _, v := range item {
				row = append(row, scenario.Text(v))
			}
			rows = append(rows, row)
		}
		rows = append(rows, []scenario.CellValue{})
	}
	return rows
}

func loginBook() [][]scenario.CellValue {
	return scenarioSheet("ログイン画面", map[string][][]string{
		"正常ログイン": {{"ID入力", "", "", "OK"}},
	}, "正常ログイン")
}

func newService(store ports.TestPlanStore, runs ports.ImportRunRepository, reader ports.WorkbookReader, opts ImportOptions) *ImportService {
	return NewImportService(store, runs, reader, extract.NewExtractor(extract.DefaultProfile(), quiet), opts, quiet)
}

// seedCase creates project / screen / test case with n items and returns
// the project and test case ids.
func seedCase(t *testing.T, store *sqlstore.Store, project, screen, name string, n int) (int64, int64) {
	t.Helper()
	ctx := context.Background()
	var projectID, caseID int64
	require.NoError(t, store.WithinTx(ctx, func(tx ports.TestPlanTx) error {
		p, _, err := tx.GetOrCreateProject(ctx, project)
		require.NoError(t, err)
		s, _, err := tx.GetOrCreateScreen(ctx, p.ID, screen)
		require.NoError(t, err)
		tc, err := tx.CreateTestCase(ctx, s.ID, name)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			require.NoError(t, tx.InsertTestItem(ctx, &models.TestItem{TestCaseID: tc.ID, Name: "stale"}))
		}
		projectID, caseID = p.ID, tc.ID
		return nil
	}))
	return projectID, caseID
}

// itemsOf returns the items of the named test case under the named screen.
func itemsOf(t *testing.T, store *sqlstore.Store, projectID int64, screen, name string) []models.TestItem {
	t.Helper()
	ctx := context.Background()
	screens, err := store.ListScreens(ctx, projectID)
	require.NoError(t, err)
	for _, s := range screens {
		if s.Name != screen {
			continue
		}
		cases, err := store.ListTestCases(ctx, s.ID)
		require.NoError(t, err)
		for _, tc := range cases {
			if tc.Name == name {
				items, err := store.ListTestItems(ctx, tc.ID)
				require.NoError(t, err)
				return items
			}
		}
	}
	t.Fatalf("test case %s / %s not found", screen, name)
	return nil
}

// failingStore injects a store error when an item with a given name is
// inserted.
type failingStore struct {
	*sqlstore.Store
	failOnItem string
}

func (f *failingStore) WithinTx(ctx context.Context, fn func(tx ports.TestPlanTx) error) error {
	return f.Store.WithinTx(ctx, func(tx ports.TestPlanTx) error {
		return fn(&failingTx{TestPlanTx: tx, failOnItem: f.failOnItem})
	})
}

type failingTx struct {
	ports.TestPlanTx
	failOnItem string
}

func (t *failingTx) InsertTestItem(ctx context.Context, item *models.TestItem) error {
	if item.Name == t.failOnItem {
		return errors.Persistence("failed to insert test item", stderrors.New("disk I/O error"))
	}
	return t.TestPlanTx.InsertTestItem(ctx, item)
}
