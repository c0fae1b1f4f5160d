package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"personnel/internal/db"
	"personnel/internal/models"
	"personnel/internal/store"
)

func newTestStore(t *testing.T) *store.PersonnelStore {
	t.Helper()
	conn, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return store.New(conn)
}

// writeWorkbook writes rows to a single-sheet .xlsx file and returns its path.
func writeTestWorkbook(t *testing.T, name string, rows [][]interface{}, merges [][2]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", axis, &row))
	}
	for _, merge := range merges {
		require.NoError(t, f.MergeCell("Sheet1", merge[0], merge[1]))
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func baseInfoHeader() []interface{} {
	return []interface{}{
		"序号", "姓名", "性别", "出生年月", "职级/等级", "现任职务",
		"2021年年度考核结果", "2022年年度考核结果", "2023年年度考核结果",
		"2024年年度考核结果", "2025年年度考核结果", "备注",
	}
}

func TestImportBaseInfoEstablishesYearWindow(t *testing.T) {
	personnelStore := newTestStore(t)
	importer := NewImporter(personnelStore)

	path := writeTestWorkbook(t, "base.xlsx", [][]interface{}{
		baseInfoHeader(),
		{"1", "张三", "男", "1980.05", "一级", "检察官", "优秀", "优秀", "称职", "称职", "优秀", ""},
		{"", "", "", "", "", "", "", "", "", "", "", ""},
		{"2", "李四", "女", "1985.11", "二级", "书记员", "称职", "称职", "称职", "优秀", "称职", "备注内容"},
	}, nil)

	count, err := importer.ImportFile(context.Background(), path, models.RecordBaseInfo)
	require.NoError(t, err)
	require.Equal(t, 2, count, "the fully empty row must be dropped")

	years, err := personnelStore.AssessmentYears(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{2021, 2022, 2023, 2024, 2025}, years)

	records, err := personnelStore.AllData(context.Background(), "base_info")
	require.NoError(t, err)
	require.Len(t, records, 2)

	byName := map[string]models.Record{}
	for _, record := range records {
		byName[record["name"]] = record
	}
	require.Equal(t, "优秀", byName["张三"]["assessment_0"])
	require.Equal(t, "优秀", byName["张三"]["assessment_4"])
	require.Equal(t, "优秀", byName["李四"]["assessment_3"])
	require.Equal(t, "一级", byName["张三"]["current_grade"])
	require.Equal(t, "1985.11", byName["李四"]["birth_date"], "source text must be preserved exactly")
}

func TestImportRejectsNonConsecutiveYears(t *testing.T) {
	importer := NewImporter(newTestStore(t))

	path := writeTestWorkbook(t, "gap.xlsx", [][]interface{}{
		{"姓名", "2021年年度考核结果", "2022年年度考核结果", "2024年年度考核结果",
			"2025年年度考核结果", "2026年年度考核结果"},
		{"张三", "优秀", "优秀", "称职", "称职", "优秀"},
	}, nil)

	_, err := importer.ImportFile(context.Background(), path, models.RecordBaseInfo)
	require.ErrorIs(t, err, ErrYearsNotConsecutive)
}

func TestImportRejectsWrongYearCount(t *testing.T) {
	importer := NewImporter(newTestStore(t))

	path := writeTestWorkbook(t, "four.xlsx", [][]interface{}{
		{"姓名", "2021年年度考核结果", "2022年年度考核结果", "2023年年度考核结果", "2024年年度考核结果"},
		{"张三", "优秀", "优秀", "称职", "称职"},
	}, nil)

	_, err := importer.ImportFile(context.Background(), path, models.RecordBaseInfo)
	require.ErrorIs(t, err, ErrYearsNotFive)
}

func TestImportRejectsMismatchedYearWindow(t *testing.T) {
	personnelStore := newTestStore(t)
	require.NoError(t, personnelStore.SaveAssessmentYears(context.Background(), []int{2021, 2022, 2023, 2024, 2025}))
	importer := NewImporter(personnelStore)

	path := writeTestWorkbook(t, "shifted.xlsx", [][]interface{}{
		{"姓名", "2020年年度考核结果", "2021年年度考核结果", "2022年年度考核结果",
			"2023年年度考核结果", "2024年年度考核结果"},
		{"张三", "优秀", "优秀", "称职", "称职", "优秀"},
	}, nil)

	_, err := importer.ImportFile(context.Background(), path, models.RecordBaseInfo)
	require.ErrorIs(t, err, ErrYearsMismatch)

	records, err := personnelStore.AllData(context.Background(), "base_info")
	require.NoError(t, err)
	require.Empty(t, records, "a rejected import must not write any rows")
}

func TestImportFamilyResolvesMergedCells(t *testing.T) {
	personnelStore := newTestStore(t)
	importer := NewImporter(personnelStore)

	// One person spans two family rows; the name cell is merged vertically.
	path := writeTestWorkbook(t, "family.xlsx", [][]interface{}{
		{"序号", "姓名", "称谓", "家庭成员姓名"},
		{"1", "张三", "父亲", "张大"},
		{"", "", "母亲", "李梅"},
		{"2", "李四", "配偶", "王芳"},
	}, [][2]string{{"B2", "B3"}})

	count, err := importer.ImportFile(context.Background(), path, models.RecordFamily)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	records, err := personnelStore.AllData(context.Background(), "family")
	require.NoError(t, err)

	names := map[string]int{}
	for _, record := range records {
		names[record["name"]]++
	}
	require.Equal(t, 2, names["张三"], "merged name must propagate to every row of the range")
	require.Equal(t, 1, names["李四"])
}

func TestImportValidatesInput(t *testing.T) {
	importer := NewImporter(newTestStore(t))
	ctx := context.Background()

	_, err := importer.ImportFile(ctx, filepath.Join(t.TempDir(), "missing.xlsx"), models.RecordBaseInfo)
	require.ErrorContains(t, err, "file does not exist")

	headerOnly := writeTestWorkbook(t, "empty.xlsx", [][]interface{}{
		{"序号", "姓名"},
	}, nil)
	_, err = importer.ImportFile(ctx, headerOnly, models.RecordBaseInfo)
	require.ErrorContains(t, err, "no data rows")

	textFile := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("not a spreadsheet"), 0o644))
	_, err = importer.ImportFile(ctx, textFile, models.RecordBaseInfo)
	require.ErrorContains(t, err, "unsupported file format")

	_, err = importer.ImportFile(ctx, headerOnly, models.RecordType("unknown"))
	require.ErrorContains(t, err, "invalid record type")
}

func TestImportDropsUnmappedColumnsSilently(t *testing.T) {
	personnelStore := newTestStore(t)
	importer := NewImporter(personnelStore)

	path := writeTestWorkbook(t, "extra.xlsx", [][]interface{}{
		{"姓名", "简历信息", "未知的列"},
		{"张三", "1990年参加工作", "无关内容"},
	}, nil)

	count, err := importer.ImportFile(context.Background(), path, models.RecordResume)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	records, err := personnelStore.AllData(context.Background(), "resume")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "1990年参加工作", records[0]["resume_text"])
	_, exists := records[0]["未知的列"]
	require.False(t, exists)
}

func TestImportFailsWhenRequiredNameMissing(t *testing.T) {
	personnelStore := newTestStore(t)
	importer := NewImporter(personnelStore)

	// No 姓名 column at all: the name constraint rejects the batch and the
	// transaction rolls back.
	path := writeTestWorkbook(t, "noname.xlsx", [][]interface{}{
		{"简历信息"},
		{"1990年参加工作"},
	}, nil)

	_, err := importer.ImportFile(context.Background(), path, models.RecordResume)
	require.Error(t, err)

	records, err := personnelStore.AllData(context.Background(), "resume")
	require.NoError(t, err)
	require.Empty(t, records)
}
