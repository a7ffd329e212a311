package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeSalesWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "RAW data"))

	rows := [][]interface{}{
		{"MOM RSC Performance"},
		{"Status", "Refer Date", "Region", "City", "Store Name", "Name", "Sales Quantity", "Sales Value"},
		{"Passed", 45292, "North", "Delhi", "Vijay", "Asha", 10, 1000},
		{"Passed", 45300, "South", "Chennai", "Croma", "Meera", 5, 500},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("RAW data", cell, &r))
	}

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// setFlags 设置命令行参数并在测试结束后恢复
func setFlags(t *testing.T, file, views, out string) {
	t.Helper()
	oldFile, oldViews, oldOut, oldConfig := *filePath, *viewNames, *outPath, *configPath
	t.Cleanup(func() {
		*filePath, *viewNames, *outPath, *configPath = oldFile, oldViews, oldOut, oldConfig
	})
	*filePath, *viewNames, *outPath = file, views, out
	*configPath = filepath.Join(t.TempDir(), "config.toml")
}

func TestRun_MultipleViewsToWorkbook(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.xlsx")
	setFlags(t, writeSalesWorkbook(t), "kpi, top_stores", out)

	var buf bytes.Buffer
	require.NoError(t, run(&buf))
	assert.Contains(t, buf.String(), "2 sheets")

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 2)
}

func TestRun_AllViewsSkipsMissingColumns(t *testing.T) {
	setFlags(t, writeSalesWorkbook(t), "all", "")

	var buf bytes.Buffer
	require.NoError(t, run(&buf))
	assert.Contains(t, buf.String(), "== Key Figures")
	assert.NotContains(t, buf.String(), "Retail Sales Consultant Count")
}

func TestRun_SingleViewMissingColumnsFails(t *testing.T) {
	setFlags(t, writeSalesWorkbook(t), "region_summary", "")

	var buf bytes.Buffer
	assert.Error(t, run(&buf))
}

func TestResolveViews(t *testing.T) {
	names, err := resolveViews("kpi,top_stores")
	require.NoError(t, err)
	assert.Equal(t, []string{"kpi", "top_stores"}, names)

	_, err = resolveViews("kpi,nope")
	assert.Error(t, err)
	_, err = resolveViews(" ")
	assert.Error(t, err)
}
