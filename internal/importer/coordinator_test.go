package importer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rscboard/internal/model"
	"rscboard/internal/parser"
	"rscboard/internal/store"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	if err := f.SetSheetName("Sheet1", "RAW data"); err != nil {
		t.Fatalf("SetSheetName failed: %v", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow("RAW data", cell, &r); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	return buf.Bytes()
}

func salesWorkbook(t *testing.T) []byte {
	return buildWorkbook(t, [][]interface{}{
		{"MOM RSC Performance"},
		{"Status", "Refer Date", "Region", "Name", "Sales Quantity", "Sales Value"},
		{"Passed", 45292, "North", "Asha", 10, 1000},
		{"Failed", 45293, "North", "Ravi", 99, 9900},
		{"Passed", 45700, "South", "Meera", 5, 500},
		{"Passed", 43000, "South", "Meera", 1, 100},
	})
}

func newCoordinator(t *testing.T) (*Coordinator, *store.Store) {
	t.Helper()
	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return NewCoordinator(st, Options{
		Load:     parser.LoadOptions{SheetName: "RAW data", SkipRows: 1},
		YearFrom: 2024,
		YearTo:   2025,
	}), st
}

func TestLoad_ParsesAndCaches(t *testing.T) {
	c, st := newCoordinator(t)
	data := salesWorkbook(t)

	ds, cached, err := c.Load(context.Background(), data, "/tmp/upload/sales.xlsx")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "sales.xlsx", ds.Filename)
	assert.Equal(t, 4, ds.Stats.TotalRows)
	assert.Equal(t, 3, ds.Stats.WorkingRows)
	assert.Equal(t, 1, ds.Stats.OutOfRange)
	assert.Len(t, ds.All, 4)
	assert.Equal(t, "Region", ds.Schema.Columns[model.FieldRegion])

	again, cached, err := c.Load(context.Background(), data, "copy.xlsx")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Same(t, ds, again)
	assert.Equal(t, 1, c.Count())

	logs, err := st.ListImportLogs(10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.True(t, logs[0].Cached)
	assert.False(t, logs[1].Cached)
	assert.Equal(t, store.ImportStatusSuccess, logs[1].Status)
}

func TestLoad_ConcurrentSameContent(t *testing.T) {
	c, _ := newCoordinator(t)
	data := salesWorkbook(t)

	var wg sync.WaitGroup
	results := make([]*model.Dataset, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, _, err := c.Load(context.Background(), data, "sales.xlsx")
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	wg.Wait()

	for _, ds := range results {
		assert.Same(t, results[0], ds)
	}
	assert.Equal(t, 1, c.Count())
}

func TestLoad_MissingColumns(t *testing.T) {
	c, st := newCoordinator(t)
	data := buildWorkbook(t, [][]interface{}{
		{"title"},
		{"Region", "Sales Value"},
		{"North", 1},
	})

	_, _, err := c.Load(context.Background(), data, "bad.xlsx")
	var missing *model.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []model.Field{model.FieldStatus, model.FieldDate, model.FieldQuantity, model.FieldSalesperson}, missing.Fields)

	logs, err := st.ListImportLogs(1)
	require.NoError(t, err)
	assert.Equal(t, store.ImportStatusFailed, logs[0].Status)
	assert.Contains(t, logs[0].ErrorMessage, "Sales Quantity")
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	c, _ := newCoordinator(t)
	_, _, err := c.Load(context.Background(), []byte("a,b,c"), "data.csv")
	assert.ErrorIs(t, err, parser.ErrUnsupportedFileFormat)
}

func TestLoad_CanceledContext(t *testing.T) {
	c, _ := newCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := c.Load(ctx, salesWorkbook(t), "sales.xlsx")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_WaiterCancelLeavesSharedParseRunning(t *testing.T) {
	c, _ := newCoordinator(t)
	data := salesWorkbook(t)

	// 占住同一内容的解析，模拟另一请求正在加载
	release := make(chan struct{})
	inflight := c.group.DoChan(parser.ContentHash(data), func() (interface{}, error) {
		<-release
		return c.parse(data, "sales.xlsx")
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, _, err := c.Load(ctx, data, "sales.xlsx")
		errCh <- err
	}()
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	res := <-inflight
	require.NoError(t, res.Err)

	ds, cached, err := c.Load(context.Background(), data, "sales.xlsx")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Same(t, res.Val.(*parseResult).ds, ds)
}

func TestImport_ProgressEvents(t *testing.T) {
	c, _ := newCoordinator(t)

	var types []string
	var summary Summary
	for evt := range c.Import(context.Background(), ImportOptions{Data: salesWorkbook(t), Filename: "sales.xlsx"}) {
		types = append(types, evt.Type)
		assert.False(t, evt.Timestamp.IsZero())
		if evt.Type == "done" {
			s, ok := evt.Data.(Summary)
			require.True(t, ok, "unexpected done payload %T", evt.Data)
			summary = s
		}
	}

	require.NotEmpty(t, types)
	assert.Equal(t, "start", types[0])
	assert.Equal(t, "done", types[len(types)-1])
	assert.Equal(t, 3, summary.Stats.WorkingRows)
	assert.False(t, summary.Cached)

	_, ok := c.Dataset(summary.DatasetID)
	assert.True(t, ok)
}

func TestImport_ErrorEvent(t *testing.T) {
	c := NewCoordinator(nil, Options{Load: parser.LoadOptions{SheetName: "RAW data"}})

	var last ProgressEvent
	for evt := range c.Import(context.Background(), ImportOptions{Data: []byte("nope"), Filename: "x.txt"}) {
		last = evt
	}
	assert.Equal(t, "error", last.Type)
	assert.Contains(t, last.Message, "unsupported file format")
}
