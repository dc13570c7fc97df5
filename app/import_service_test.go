package app

import (
	"context"
	"strings"
	"testing"

	"testdesk/domain/core"
	"testdesk/domain/scenario"
	"testdesk/internal/errors"
	"testdesk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImport_OverwriteReplacesStaleItems(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	projectID, _ := seedCase(t, store, "P", "ログイン画面", "正常ログイン", 3)
	reader := memReader{}.add("book.xlsx", "画面A", loginBook())

	result, err := newService(store, store, reader, ImportOptions{}).Import(ctx, ImportRequest{
		Path:      "book.xlsx",
		Target:    models.ExistingProject(projectID),
		Overwrite: true,
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	o := result.Outcomes[0]
	assert.Equal(t, "ログイン画面", o.Screen)
	assert.Equal(t, "正常ログイン", o.Name)
	assert.Equal(t, models.StatusSuccess, o.Status)
	assert.Equal(t, models.MessageOverwritten, o.Message)
	assert.Equal(t, projectID, result.ProjectID)

	items := itemsOf(t, store, projectID, "ログイン画面", "正常ログイン")
	require.Len(t, items, 1)
	assert.Equal(t, "ID入力", items[0].Name)
	assert.Equal(t, "OK", items[0].Result)
	assert.Equal(t, "", items[0].InputData)
}

func TestImport_OverwriteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	reader := memReader{}.add("book.xlsx", "画面A", scenarioSheet("一覧画面", map[string][][]string{
		"検索": {{"条件入力", "abc", "一覧表示", ""}, {"検索実行", "", "", ""}},
	}, "検索"))
	svc := newService(store, store, reader, ImportOptions{})
	req := ImportRequest{Path: "book.xlsx", Target: models.NewProject("P"), Overwrite: true}

	first, err := svc.Import(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.MessageCreated, first.Outcomes[0].Message)
	assert.Equal(t, 2, first.Outcomes[0].ItemCount)

	second, err := svc.Import(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.MessageOverwritten, second.Outcomes[0].Message)
	assert.Equal(t, first.ProjectID, second.ProjectID)

	items := itemsOf(t, store, first.ProjectID, "一覧画面", "検索")
	require.Len(t, items, 2)
	assert.Equal(t, "abc", items[0].InputData)
	assert.Equal(t, "一覧表示", items[0].Expected)
}

func TestImport_KeepLeavesExistingUntouched(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	projectID, _ := seedCase(t, store, "P", "ログイン画面", "正常ログイン", 3)
	before := itemsOf(t, store, projectID, "ログイン画面", "正常ログイン")

	reader := memReader{}.add("book.xlsx", "画面A", loginBook())
	result, err := newService(store, store, reader, ImportOptions{}).Import(ctx, ImportRequest{
		Path:      "book.xlsx",
		Target:    models.ExistingProject(projectID),
		Overwrite: false,
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, models.StatusSuccess, result.Outcomes[0].Status)
	assert.Equal(t, models.MessageKept, result.Outcomes[0].Message)
	assert.Equal(t, models.ActionKept, result.Outcomes[0].Action)
	assert.Equal(t, before, itemsOf(t, store, projectID, "ログイン画面", "正常ログイン"))
}

func TestImport_MixedNewAndKept(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	projectID, _ := seedCase(t, store, "P", "ログイン画面", "正常ログイン", 1)
	reader := memReader{}.add("book.xlsx", "画面A", scenarioSheet("ログイン画面", map[string][][]string{
		"正常ログイン": {{"ID入力", "", "", ""}},
		"異常ログイン": {{"誤PW", "", "エラー", ""}},
	}, "正常ログイン", "異常ログイン"))

	result, err := newService(store, store, reader, ImportOptions{}).Import(ctx, ImportRequest{
		Path: "book.xlsx", Target: models.ExistingProject(projectID),
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, models.MessageKept, result.Outcomes[0].Message)
	assert.Equal(t, models.MessageCreated, result.Outcomes[1].Message)
	assert.Len(t, itemsOf(t, store, projectID, "ログイン画面", "異常ログイン"), 1)
}

func TestImport_NameBounds(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	long := strings.Repeat("長", 101)
	exact := strings.Repeat("名", 100)
	reader := memReader{}.
		add("book.xlsx", "long screen", scenarioSheet(long, map[string][][]string{
			"s": {{"a", "", "", ""}},
		}, "s")).
		add("book.xlsx", "ok screen", scenarioSheet("  画面  ", map[string][][]string{
			long:           {{"a", "", "", ""}},
			" " + exact:    {{exact, "", "", ""}, {long, "", "", ""}, {"  ", "", "", ""}},
			"   ":          {{"a", "", "", ""}},
		}, long, " "+exact, "   "))

	result, err := newService(store, store, reader, ImportOptions{}).Import(ctx, ImportRequest{
		Path: "book.xlsx", Target: models.NewProject(" P "), Overwrite: true,
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "画面", result.Outcomes[0].Screen)
	assert.Equal(t, exact, result.Outcomes[0].Name)
	assert.Equal(t, 1, result.Outcomes[0].ItemCount)

	screens, err := store.ListScreens(ctx, result.ProjectID)
	require.NoError(t, err)
	require.Len(t, screens, 1)
	assert.Equal(t, "画面", screens[0].Name)

	items := itemsOf(t, store, result.ProjectID, "画面", exact)
	require.Len(t, items, 1)
	assert.Equal(t, exact, items[0].Name)

	project, err := store.GetProject(ctx, result.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, "P", project.Name)
}

func TestImport_ReservedSheetsIgnored(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	reader := memReader{}.
		add("book.xlsx", "サンプル", loginBook()).
		add("book.xlsx", "不具合報告", loginBook())

	result, err := newService(store, store, reader, ImportOptions{}).Import(ctx, ImportRequest{
		Path: "book.xlsx", Target: models.NewProject("P"),
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, models.FailureOutcome(models.MessageNoScenarios), result.Outcomes[0])
	assert.True(t, result.Failed())
}

func TestImport_EmptyWorkbookIsRecorded(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	reader := memReader{}.add("empty.xlsx", "Sheet1", [][]scenario.CellValue{{scenario.Text("memo")}})

	result, err := newService(store, store, reader, ImportOptions{}).Import(ctx, ImportRequest{
		Path: "empty.xlsx", Target: models.NewProject("P"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailure, result.Outcomes[0].Status)
	assert.Equal(t, "-", result.Outcomes[0].Screen)

	runs, err := store.ListImportRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "empty.xlsx", runs[0].FileName)
	assert.Equal(t, core.ErrEmptyExtraction.Error(), runs[0].Error)
	assert.Equal(t, 1, runs[0].Failed)

	// Nothing was created for an empty workbook.
	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestImport_UnreadableWorkbookReturnsError(t *testing.T) {
	store := newStore(t)

	result, err := newService(store, store, memReader{}, ImportOptions{}).Import(context.Background(), ImportRequest{
		Path: "missing.xls", Target: models.NewProject("P"),
	})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, core.IsFileFormatError(err))
	assert.Equal(t, errors.CodeFileFormat, errors.GetCode(err))
}

func TestImport_InvalidTarget(t *testing.T) {
	store := newStore(t)
	svc := newService(store, store, memReader{}.add("book.xlsx", "画面A", loginBook()), ImportOptions{})

	tests := []struct {
		name   string
		target models.ImportTarget
		code   string
	}{
		{"no target", models.ImportTarget{}, errors.CodeInvalidInput},
		{"unknown project", models.ExistingProject(42), errors.CodeNotFound},
		{"name too long", models.NewProject(strings.Repeat("x", 101)), errors.CodeValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Import(context.Background(), ImportRequest{Path: "book.xlsx", Target: tt.target})
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestImport_PersistenceFailureIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	reader := memReader{}.
		add("book.xlsx", "画面A", loginBook()).
		add("book.xlsx", "画面B", scenarioSheet("一覧画面", map[string][][]string{
			"検索": {{"boom", "", "", ""}},
		}, "検索"))
	failing := &failingStore{Store: store, failOnItem: "boom"}

	result, err := newService(failing, store, reader, ImportOptions{}).Import(ctx, ImportRequest{
		Path: "book.xlsx", Target: models.NewProject("P"), Overwrite: true,
	})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, models.StatusFailure, result.Outcomes[0].Status)
	assert.Equal(t, "failed to insert test item: disk I/O error", result.Outcomes[0].Message)

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects, "the whole import rolls back")
}

func TestImport_PersistenceFailureCommitPerSheet(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	reader := memReader{}.
		add("book.xlsx", "画面A", loginBook()).
		add("book.xlsx", "画面B", scenarioSheet("一覧画面", map[string][][]string{
			"検索": {{"boom", "", "", ""}},
		}, "検索"))
	failing := &failingStore{Store: store, failOnItem: "boom"}

	result, err := newService(failing, store, reader, ImportOptions{CommitPerSheet: true}).Import(ctx, ImportRequest{
		Path: "book.xlsx", Target: models.NewProject("P"), Overwrite: true,
	})
	require.NoError(t, err)
	require.True(t, result.Failed())

	// The first sheet stays committed.
	require.NotZero(t, result.ProjectID)
	assert.Len(t, itemsOf(t, store, result.ProjectID, "ログイン画面", "正常ログイン"), 1)
	screens, err := store.ListScreens(ctx, result.ProjectID)
	require.NoError(t, err)
	assert.Len(t, screens, 1)
}

func TestImport_FieldAliasesFromEnglishHeaders(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rows := [][]scenario.CellValue{
		{scenario.Text("Settings")},
		{scenario.Text("シナリオ名")},
		{scenario.Text("save")},
		{
			scenario.Text("No"), scenario.Text("name"), scenario.Text("operation"),
			scenario.Text("優先度"), scenario.Text("tester"), scenario.Text("実施日"), scenario.Text("remarks"),
		},
		{
			scenario.Number(1), scenario.Text(" click save "), scenario.Text("press button"),
			scenario.Number(2), scenario.Text("yamada"), scenario.Text("2024/04/01"), scenario.Empty(),
		},
	}
	reader := memReader{}.add("book.xlsx", "settings", rows)

	result, err := newService(store, store, reader, ImportOptions{}).Import(ctx, ImportRequest{
		Path: "book.xlsx", Target: models.NewProject("P"),
	})
	require.NoError(t, err)

	items := itemsOf(t, store, result.ProjectID, "Settings", "save")
	require.Len(t, items, 1)
	assert.Equal(t, "click save", items[0].Name)
	assert.Equal(t, "press button", items[0].Operation)
	assert.Equal(t, "2", items[0].Priority)
	assert.Equal(t, "yamada", items[0].Tester)
	assert.Equal(t, "2024/04/01", items[0].ExecDate)
	assert.Equal(t, "", items[0].Remarks)
}

func TestImport_HistoryCounts(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	reader := memReader{}.add("book.xlsx", "画面A", loginBook())
	svc := newService(store, store, reader, ImportOptions{})

	first, err := svc.Import(ctx, ImportRequest{Path: "book.xlsx", FileName: "login.xlsx", Target: models.NewProject("P"), Overwrite: true})
	require.NoError(t, err)
	_, err = svc.Import(ctx, ImportRequest{Path: "book.xlsx", Target: models.ExistingProject(first.ProjectID), Overwrite: false})
	require.NoError(t, err)

	runs, err := NewCatalogService(store, store).ImportHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byFile := map[string]models.ImportRun{}
	for _, r := range runs {
		byFile[r.FileName] = r
	}
	assert.Equal(t, 1, byFile["login.xlsx"].Created)
	assert.Equal(t, 1, byFile["login.xlsx"].Items)
	assert.Equal(t, first.RunID.String(), byFile["login.xlsx"].ID)
	assert.Equal(t, 1, byFile["book.xlsx"].Kept)
	assert.False(t, byFile["book.xlsx"].Overwrite)
	assert.Equal(t, first.ProjectID, byFile["book.xlsx"].ProjectID)
}
