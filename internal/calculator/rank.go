package calculator

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"rscboard/internal/model"
)

// TopNSpec 排名配置：按 GroupBy 单字段分组，以 Measure 排序取前 N
type TopNSpec struct {
	GroupBy model.Field
	Measure MeasureSpec
	Extra   []MeasureSpec // 随行输出的其他度量，不参与排序
	N       int
	Order   Order
}

// TopN 分组后按度量排序取前 N；组数不足 N 时全部返回
func TopN(records []model.Record, spec TopNSpec) (*Table, error) {
	measures := append([]MeasureSpec{spec.Measure}, spec.Extra...)
	table, err := GroupSum(records, []model.Field{spec.GroupBy}, measures)
	if err != nil {
		return table, err
	}
	return RankRows(table, spec.Measure.Name, spec.N, spec.Order), nil
}

// RankRows 稳定排序后截取前 n 行，n<=0 表示不截取
func RankRows(t *Table, measure string, n int, order Order) *Table {
	out := SortRows(t, measure, order)
	if n > 0 && len(out.Rows) > n {
		out.Rows = out.Rows[:n]
	}
	return out
}

// SortRows 按度量稳定排序，相等时保持原有顺序
func SortRows(t *Table, measure string, order Order) *Table {
	out := t.clone(nil)
	sort.SliceStable(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i].Value(measure), out.Rows[j].Value(measure)
		if order == OrderAsc {
			return a.LessThan(b)
		}
		return a.GreaterThan(b)
	})
	return out
}

// SortByKey 按某个键位升序稳定排序；numeric 时按整数比较（如月份序号）
func SortByKey(t *Table, keyIndex int, numeric bool) *Table {
	out := t.clone(nil)
	sort.SliceStable(out.Rows, func(i, j int) bool {
		a, b := keyAt(out.Rows[i], keyIndex), keyAt(out.Rows[j], keyIndex)
		if numeric {
			x, errX := strconv.Atoi(a)
			y, errY := strconv.Atoi(b)
			if errX == nil && errY == nil {
				return x < y
			}
		}
		return a < b
	})
	return out
}

func keyAt(row AggregateRow, i int) string {
	if i < 0 || i >= len(row.Key) {
		return ""
	}
	return row.Key[i]
}

// Cumulative 按给定顺序从左到右累加度量，写入 column；不重新排序
func Cumulative(t *Table, measure, column string) *Table {
	out := t.clone(nil)
	if !out.HasMeasure(column) {
		out.Measures = append(out.Measures, column)
	}
	running := decimal.Zero
	for i := range out.Rows {
		running = running.Add(out.Rows[i].Value(measure))
		out.Rows[i].Values[column] = running
	}
	return out
}

// Share 每行度量占合计的百分比（保留两位小数），写入 column
func Share(t *Table, measure, column string) *Table {
	out := t.clone(nil)
	if !out.HasMeasure(column) {
		out.Measures = append(out.Measures, column)
	}
	total := decimal.Zero
	for _, row := range out.Rows {
		if row.Level == LevelLeaf || row.Level == "" {
			total = total.Add(row.Value(measure))
		}
	}
	hundred := decimal.NewFromInt(100)
	for i := range out.Rows {
		pct := decimal.Zero
		if !total.IsZero() {
			pct = out.Rows[i].Value(measure).Mul(hundred).DivRound(total, 2)
		}
		out.Rows[i].Values[column] = pct
	}
	return out
}

// Select 按给定顺序保留度量列，未知列忽略
func Select(t *Table, measures ...string) *Table {
	out := t.clone(nil)
	kept := make([]string, 0, len(measures))
	for _, m := range measures {
		if t.HasMeasure(m) {
			kept = append(kept, m)
		}
	}
	out.Measures = kept
	return out
}
