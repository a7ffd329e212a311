package calculator

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"rscboard/internal/model"
)

type groupState struct {
	row      AggregateRow
	distinct map[string]map[string]struct{}
}

// GroupSum 按 groupBy 分组归约度量。组按首次出现顺序输出，只产生数据中实际存在的组合；
// 分组字段为空白或取不到值（如日期无效时的派生字段）的记录不参与。groupBy 为空时输出单行合计。
func GroupSum(records []model.Record, groupBy []model.Field, measures []MeasureSpec) (*Table, error) {
	table := &Table{
		KeyFields: append([]model.Field(nil), groupBy...),
		Columns:   lo.Map(groupBy, func(f model.Field, _ int) string { return f.Label() }),
		Measures:  lo.Map(measures, func(m MeasureSpec, _ int) string { return m.Name }),
	}
	if len(records) == 0 {
		return table, ErrEmptyInput
	}

	index := make(map[string]int)
	var groups []*groupState

	for _, r := range records {
		key, ok := groupKey(r, groupBy)
		if !ok {
			continue
		}
		id := strings.Join(key, "\x1f")

		pos, seen := index[id]
		if !seen {
			pos = len(groups)
			index[id] = pos
			groups = append(groups, newGroupState(key, measures))
		}
		groups[pos].add(r, measures)
	}

	if len(groups) == 0 {
		return table, ErrEmptyInput
	}

	table.Rows = make([]AggregateRow, 0, len(groups))
	for _, g := range groups {
		for name, set := range g.distinct {
			g.row.Values[name] = decimal.NewFromInt(int64(len(set)))
		}
		table.Rows = append(table.Rows, g.row)
	}
	return table, nil
}

// groupKey 分组键：各字段值去除首尾空白，区分大小写；任一字段为空时该记录不成组
func groupKey(r model.Record, groupBy []model.Field) ([]string, bool) {
	key := make([]string, len(groupBy))
	for i, f := range groupBy {
		v, ok := r.Dimension(f)
		if !ok {
			return nil, false
		}
		if key[i] = strings.TrimSpace(v); key[i] == "" {
			return nil, false
		}
	}
	return key, true
}

func newGroupState(key []string, measures []MeasureSpec) *groupState {
	g := &groupState{
		row: AggregateRow{
			Key:    key,
			Level:  LevelLeaf,
			Values: make(map[string]decimal.Decimal, len(measures)),
		},
		distinct: make(map[string]map[string]struct{}),
	}
	for _, m := range measures {
		g.row.Values[m.Name] = decimal.Zero
		if m.Reducer == ReduceCountDistinct {
			g.distinct[m.Name] = make(map[string]struct{})
		}
	}
	return g
}

func (g *groupState) add(r model.Record, measures []MeasureSpec) {
	for _, m := range measures {
		switch m.Reducer {
		case ReduceCountDistinct:
			var v string
			if m.Source.IsMeasure() {
				v = r.Measure(m.Source).String()
			} else {
				v, _ = r.Dimension(m.Source)
			}
			if v = strings.TrimSpace(v); v != "" {
				g.distinct[m.Name][v] = struct{}{}
			}
		default:
			g.row.Values[m.Name] = g.row.Values[m.Name].Add(r.Measure(m.Source))
		}
	}
}

// WithComposites 追加复合度量列，每行（含小计/总计行）取其组成度量之和
func WithComposites(t *Table, composites ...CompositeSpec) *Table {
	out := t.clone(nil)
	for _, c := range composites {
		if !out.HasMeasure(c.Name) {
			out.Measures = append(out.Measures, c.Name)
		}
		for i := range out.Rows {
			total := decimal.Zero
			for _, part := range c.Components {
				total = total.Add(out.Rows[i].Value(part))
			}
			out.Rows[i].Values[c.Name] = total
		}
	}
	return out
}
