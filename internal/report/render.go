// Package report 报表视图目录与渲染：解析字段 → 筛选 → 汇总。
package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"rscboard/internal/calculator"
	"rscboard/internal/filter"
	"rscboard/internal/model"
)

// Settings 渲染参数（来自配置）
type Settings struct {
	PassedStatus string
	TopN         int
}

// Render 在数据集上渲染视图。缺失字段一次性通过 *model.MissingColumnError 返回；
// 筛选结果为空返回 filter.ErrEmptyResult。
func Render(ds *model.Dataset, viewName string, opts filter.Options, settings Settings) (*calculator.Table, error) {
	view, err := Lookup(viewName)
	if err != nil {
		return nil, err
	}

	required := append(view.RequiredFields(), opts.Fields()...)
	if strings.TrimSpace(opts.Status) == "" && settings.PassedStatus != "" {
		opts.Status = settings.PassedStatus
		required = append(required, model.FieldStatus)
	}
	if err := ds.Schema.Require(required...); err != nil {
		return nil, err
	}

	records, err := filter.Apply(ds.Working, opts)
	if err != nil {
		return nil, err
	}

	table, err := calculator.GroupSum(records, view.GroupBy, view.Measures)
	if err != nil {
		return nil, err
	}

	for i := len(view.SortKeys) - 1; i >= 0; i-- {
		table = calculator.SortByKey(table, view.SortKeys[i], true)
	}
	if view.Rank != nil {
		n := 0
		if view.Rank.TopN {
			n = settings.TopN
		}
		table = calculator.RankRows(table, view.Rank.Measure, n, view.Rank.Order)
	}
	if view.Rollup != nil {
		// 叶子按分组键排序，与小计顺序一致
		for i := len(view.GroupBy) - 1; i >= 0; i-- {
			table = calculator.SortByKey(table, i, false)
		}
		if table, err = calculator.Rollup(table, *view.Rollup); err != nil {
			return nil, err
		}
	}
	if len(view.Composites) > 0 {
		table = calculator.WithComposites(table, view.Composites...)
	}
	if view.Cumulative != nil {
		table = calculator.Cumulative(table, view.Cumulative.Measure, view.Cumulative.Column)
	}
	if view.Share != nil {
		table = calculator.Share(table, view.Share.Measure, view.Share.Column)
	}
	if len(view.Columns) > 0 {
		table = calculator.Select(table, view.Columns...)
	}

	logrus.WithFields(logrus.Fields{
		"view":    view.Name,
		"records": len(records),
		"rows":    len(table.Rows),
	}).Debug("report rendered")

	return table, nil
}

// Options 筛选项候选值（供前端下拉）
type Options struct {
	Statuses     []string   `json:"statuses"`
	Years        []int      `json:"years"`
	Regions      []string   `json:"regions"`
	Territories  []string   `json:"territories"`
	Managers     []string   `json:"managers"`
	Cities       []string   `json:"cities"`
	Stores       []string   `json:"stores"`
	Salespersons []string   `json:"salespersons"`
	Categories   []string   `json:"categories"`
	Models       []string   `json:"models"`
	LeadSources  []string   `json:"leadSources"`
	DateMin      *time.Time `json:"dateMin,omitempty"`
	DateMax      *time.Time `json:"dateMax,omitempty"`
}

// FilterOptions 汇总数据集各维度的去重排序值；表中不存在的字段为空列表
func FilterOptions(ds *model.Dataset) Options {
	values := func(f model.Field) []string {
		if !ds.Schema.Has(f) {
			return []string{}
		}
		out := lo.Uniq(lo.FilterMap(ds.Working, func(r model.Record, _ int) (string, bool) {
			v, ok := r.Dimension(f)
			v = strings.TrimSpace(v)
			return v, ok && v != ""
		}))
		sort.Strings(out)
		return out
	}

	years := lo.Map(values(model.FieldYear), func(s string, _ int) int {
		y, _ := strconv.Atoi(s)
		return y
	})
	sort.Ints(years)

	opts := Options{
		Statuses:     values(model.FieldStatus),
		Years:        years,
		Regions:      values(model.FieldRegion),
		Territories:  values(model.FieldTerritory),
		Managers:     values(model.FieldManager),
		Cities:       values(model.FieldCity),
		Stores:       values(model.FieldStore),
		Salespersons: values(model.FieldSalesperson),
		Categories:   values(model.FieldCategory),
		Models:       values(model.FieldModel),
		LeadSources:  values(model.FieldLeadSource),
	}

	for _, r := range ds.Working {
		if !r.DateValid {
			continue
		}
		d := r.Date
		if opts.DateMin == nil || d.Before(*opts.DateMin) {
			opts.DateMin = &d
		}
		if opts.DateMax == nil || d.After(*opts.DateMax) {
			opts.DateMax = &d
		}
	}
	return opts
}

// ViewInfo 视图摘要
type ViewInfo struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Requires []string `json:"requires"`
}

// Describe 列出视图目录及各自所需列
func Describe() []ViewInfo {
	return lo.Map(views, func(v View, _ int) ViewInfo {
		return ViewInfo{
			Name:  v.Name,
			Title: v.Title,
			Requires: lo.Uniq(lo.Map(v.RequiredFields(), func(f model.Field, _ int) string {
				return f.Label()
			})),
		}
	})
}
