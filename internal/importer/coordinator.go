package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"rscboard/internal/model"
	"rscboard/internal/parser"
	"rscboard/internal/store"
)

// Options 加载参数
type Options struct {
	Load     parser.LoadOptions
	YearFrom int
	YearTo   int
	Aliases  map[string][]string
}

// Coordinator 导入协调器：解析上传文件并按内容哈希缓存数据集
type Coordinator struct {
	store  *store.Store
	mapper *parser.FieldMapper
	opts   Options

	mu       sync.RWMutex
	datasets map[string]*model.Dataset
	group    singleflight.Group
}

// NewCoordinator 创建导入协调器；st 为 nil 时不记录导入日志
func NewCoordinator(st *store.Store, opts Options) *Coordinator {
	return &Coordinator{
		store:    st,
		mapper:   parser.NewFieldMapper(opts.Aliases),
		opts:     opts,
		datasets: make(map[string]*model.Dataset),
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	Data     []byte
	Filename string
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/warning/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// Summary 导入结果摘要
type Summary struct {
	DatasetID   string                   `json:"datasetId"`
	Filename    string                   `json:"filename"`
	Format      string                   `json:"format"`
	Sheet       string                   `json:"sheet"`
	Stats       model.LoadStats          `json:"stats"`
	Columns     map[model.Field]string   `json:"columns"`
	Ambiguities map[model.Field][]string `json:"ambiguities,omitempty"`
	Cached      bool                     `json:"cached"`
	Duration    string                   `json:"duration"`
}

// NewSummary 生成数据集摘要
func NewSummary(ds *model.Dataset, cached bool, elapsed time.Duration) Summary {
	return Summary{
		DatasetID:   ds.ID,
		Filename:    ds.Filename,
		Format:      ds.Format,
		Sheet:       ds.Sheet,
		Stats:       ds.Stats,
		Columns:     ds.Schema.Columns,
		Ambiguities: ds.Schema.Ambiguities,
		Cached:      cached,
		Duration:    elapsed.Round(time.Millisecond).String(),
	}
}

// Load 同步加载，返回数据集及是否复用了已解析的结果；相同内容直接复用，并发的相同请求只解析一次
func (c *Coordinator) Load(ctx context.Context, data []byte, filename string) (*model.Dataset, bool, error) {
	return c.load(ctx, data, filename, nil)
}

// Import 执行导入，返回进度通道
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doImport(ctx, opts, progressChan)
	}()

	return progressChan
}

func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progressChan chan ProgressEvent) {
	startTime := time.Now()

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "start",
		Message: "import started",
		Data: map[string]interface{}{
			"filename": filepath.Base(opts.Filename),
			"size":     len(opts.Data),
		},
	})

	ds, cached, err := c.load(ctx, opts.Data, opts.Filename, progressChan)
	if err != nil {
		c.sendProgress(progressChan, ProgressEvent{
			Type:    "error",
			Message: err.Error(),
		})
		return
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "done",
		Message: "import finished",
		Data:    NewSummary(ds, cached, time.Since(startTime)),
	})
}

// parseResult 解析结果及解析过程中产生的事件（由各调用方自行转发）
type parseResult struct {
	ds     *model.Dataset
	cached bool
	events []ProgressEvent
}

// load 返回数据集及是否命中缓存
func (c *Coordinator) load(ctx context.Context, data []byte, filename string, progress chan ProgressEvent) (*model.Dataset, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	hash := parser.ContentHash(data)
	logID := c.createLog(filename, int64(len(data)), hash)

	if ds, ok := c.Dataset(hash); ok {
		c.sendProgress(progress, ProgressEvent{
			Type:    "info",
			Message: "file already loaded, reusing parsed dataset",
			Data:    map[string]string{"datasetId": hash},
		})
		c.finishLog(logID, ds, true, nil)
		return ds, true, nil
	}

	// 解析不绑定任一请求的 ctx：首个请求取消不影响共享同一次解析的其他请求
	ch := c.group.DoChan(hash, func() (interface{}, error) {
		if ds, ok := c.Dataset(hash); ok {
			return &parseResult{ds: ds, cached: true}, nil
		}
		return c.parse(data, filename)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		c.finishLog(logID, nil, false, ctx.Err())
		return nil, false, ctx.Err()
	}

	if pr, ok := res.Val.(*parseResult); ok && pr != nil {
		for _, ev := range pr.events {
			c.sendProgress(progress, ev)
		}
	}
	if res.Err != nil {
		c.finishLog(logID, nil, false, res.Err)
		return nil, false, res.Err
	}

	pr := res.Val.(*parseResult)
	cached := pr.cached || res.Shared
	c.finishLog(logID, pr.ds, cached, nil)
	return pr.ds, cached, nil
}

// parse 解析流程：读取工作表 → 解析列 → 规范化日期 → 缓存
func (c *Coordinator) parse(data []byte, filename string) (*parseResult, error) {
	res := &parseResult{}
	emit := func(ev ProgressEvent) {
		ev.Timestamp = time.Now()
		res.events = append(res.events, ev)
	}

	table, err := parser.LoadWorkbook(data, c.opts.Load)
	if err != nil {
		return res, err
	}
	emit(ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("read sheet %q: %d data rows", table.SheetName, len(table.Rows)),
		Data: map[string]interface{}{
			"sheet":  table.SheetName,
			"format": table.Format,
			"rows":   len(table.Rows),
		},
	})

	schema, err := c.mapper.Resolve(table.Headers, parser.MandatoryFields...)
	if err != nil {
		return res, err
	}
	for _, f := range sortedFields(schema.Ambiguities) {
		emit(ProgressEvent{
			Type:    "warning",
			Message: fmt.Sprintf("several columns match %s, using %q", f.Label(), schema.Columns[f]),
			Data:    map[string]interface{}{"field": f, "candidates": schema.Ambiguities[f]},
		})
	}

	all, working, stats := parser.NewRecordParser(c.opts.YearFrom, c.opts.YearTo).Parse(table, schema)
	if stats.DateParseFailures > 0 {
		emit(ProgressEvent{
			Type:    "warning",
			Message: fmt.Sprintf("%d rows have unparseable dates and are excluded from date based reports", stats.DateParseFailures),
			Data:    map[string]int{"dateParseFailures": stats.DateParseFailures},
		})
	}
	if stats.InvalidNumbers > 0 {
		emit(ProgressEvent{
			Type:    "warning",
			Message: fmt.Sprintf("%d numeric cells could not be parsed and count as 0", stats.InvalidNumbers),
			Data:    map[string]int{"invalidNumbers": stats.InvalidNumbers},
		})
	}
	if stats.OutOfRange > 0 {
		emit(ProgressEvent{
			Type:    "info",
			Message: fmt.Sprintf("%d rows outside %d-%d dropped", stats.OutOfRange, c.opts.YearFrom, c.opts.YearTo),
		})
	}

	ds := &model.Dataset{
		ID:       table.Hash,
		Filename: filepath.Base(filename),
		Format:   table.Format,
		Sheet:    table.SheetName,
		Schema:   schema,
		Stats:    stats,
		LoadedAt: time.Now(),
		All:      all,
		Working:  working,
	}

	c.mu.Lock()
	c.datasets[ds.ID] = ds
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"dataset":  ds.ID[:12],
		"filename": ds.Filename,
		"rows":     stats.TotalRows,
		"working":  stats.WorkingRows,
		"dateMode": stats.DateMode,
	}).Info("dataset loaded")

	res.ds = ds
	return res, nil
}

// Dataset 按 ID 获取已加载数据集
func (c *Coordinator) Dataset(id string) (*model.Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.datasets[id]
	return ds, ok
}

// Count 已缓存的数据集数量
func (c *Coordinator) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.datasets)
}

func (c *Coordinator) createLog(filename string, size int64, hash string) int64 {
	if c.store == nil {
		return 0
	}
	id, err := c.store.CreateImportLog(filepath.Base(filename), size, hash)
	if err != nil {
		logrus.WithError(err).Warn("create import log failed")
		return 0
	}
	return id
}

func (c *Coordinator) finishLog(id int64, ds *model.Dataset, cached bool, loadErr error) {
	if c.store == nil || id == 0 {
		return
	}
	out := store.ImportOutcome{Cached: cached, Err: loadErr}
	if ds != nil {
		out.SheetName = ds.Sheet
		out.Format = ds.Format
		out.DateMode = ds.Stats.DateMode
		out.TotalRows = ds.Stats.TotalRows
		out.WorkingRows = ds.Stats.WorkingRows
		out.DateFailures = ds.Stats.DateParseFailures
		out.OutOfRange = ds.Stats.OutOfRange
	}
	if err := c.store.FinishImportLog(id, out); err != nil {
		logrus.WithError(err).Warn("finish import log failed")
	}
}

func sortedFields(m map[model.Field][]string) []model.Field {
	out := make([]model.Field, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sendProgress 发送进度事件
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	if ch == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}
