package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrInvalidRollup 汇总配置与表结构不符
var ErrInvalidRollup = errors.New("invalid rollup")

// RollupOptions 层级汇总选项
type RollupOptions struct {
	// LabelColumn 写入 "Total"/"Grand Total" 的键位；多级分组时不能是第一列
	LabelColumn     int
	SortSubtotals   bool
	SubtotalLabel   string
	GrandTotalLabel string
}

func (o RollupOptions) withDefaults() RollupOptions {
	if o.SubtotalLabel == "" {
		o.SubtotalLabel = "Total"
	}
	if o.GrandTotalLabel == "" {
		o.GrandTotalLabel = "Grand Total"
	}
	return o
}

// Rollup 在叶子行之后追加按第一列分组的小计行及唯一的总计行。
// 小计按第一列首次出现顺序（或排序）输出；只有一列分组时小计与叶子相同，只追加总计。
// 输入中已有的小计/总计行会被忽略，不会重复计入。
func Rollup(t *Table, opts RollupOptions) (*Table, error) {
	opts = opts.withDefaults()
	width := len(t.KeyFields)
	if width == 0 {
		return nil, fmt.Errorf("%w: table has no grouping columns", ErrInvalidRollup)
	}
	if opts.LabelColumn < 0 || opts.LabelColumn >= width || (width > 1 && opts.LabelColumn == 0) {
		return nil, fmt.Errorf("%w: label column %d out of range for %d grouping columns", ErrInvalidRollup, opts.LabelColumn, width)
	}

	leaves := make([]AggregateRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row.Level == LevelLeaf || row.Level == "" {
			leaves = append(leaves, row)
		}
	}
	if len(leaves) == 0 {
		return nil, ErrEmptyInput
	}

	out := t.clone(leaves)
	for i := range out.Rows {
		out.Rows[i].Level = LevelLeaf
	}

	if width > 1 {
		var order []string
		subtotals := make(map[string]AggregateRow)
		for _, row := range leaves {
			parent := row.Key[0]
			sub, ok := subtotals[parent]
			if !ok {
				sub = blankRow(width, LevelSubtotal, t.Measures)
				sub.Key[0] = parent
				sub.Key[opts.LabelColumn] = opts.SubtotalLabel
				order = append(order, parent)
			}
			accumulate(sub, row, t.Measures)
			subtotals[parent] = sub
		}
		if opts.SortSubtotals {
			sort.Strings(order)
		}
		for _, parent := range order {
			out.Rows = append(out.Rows, subtotals[parent])
		}
	}

	grand := blankRow(width, LevelGrandTotal, t.Measures)
	grand.Key[opts.LabelColumn] = opts.GrandTotalLabel
	for _, row := range leaves {
		accumulate(grand, row, t.Measures)
	}
	out.Rows = append(out.Rows, grand)

	return out, nil
}

func blankRow(width int, level Level, measures []string) AggregateRow {
	row := AggregateRow{
		Key:    make([]string, width),
		Level:  level,
		Values: make(map[string]decimal.Decimal, len(measures)),
	}
	for _, m := range measures {
		row.Values[m] = decimal.Zero
	}
	return row
}

func accumulate(dst, src AggregateRow, measures []string) {
	for _, m := range measures {
		dst.Values[m] = dst.Values[m].Add(src.Value(m))
	}
}
