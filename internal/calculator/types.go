package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"rscboard/internal/model"
)

// ErrEmptyInput 输入记录为空（可恢复，展示为空状态）
var ErrEmptyInput = errors.New("no records to aggregate")

// Level 汇总行层级
type Level string

const (
	LevelLeaf       Level = "leaf"
	LevelSubtotal   Level = "subtotal"
	LevelGrandTotal Level = "grand_total"
)

// Reducer 度量归约方式
type Reducer string

const (
	ReduceSum           Reducer = "sum"
	ReduceCountDistinct Reducer = "count_distinct"
)

// Order 排序方向，零值为降序
type Order string

const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// MeasureSpec 度量定义：对 Source 字段按 Reducer 归约，结果列名为 Name
type MeasureSpec struct {
	Name    string      `json:"name" validate:"required"`
	Source  model.Field `json:"source" validate:"required"`
	Reducer Reducer     `json:"reducer" validate:"oneof=sum count_distinct"`
}

// Sum 求和度量
func Sum(name string, source model.Field) MeasureSpec {
	return MeasureSpec{Name: name, Source: source, Reducer: ReduceSum}
}

// CountDistinct 去重计数度量
func CountDistinct(name string, source model.Field) MeasureSpec {
	return MeasureSpec{Name: name, Source: source, Reducer: ReduceCountDistinct}
}

// CompositeSpec 复合度量：同一行上若干已归约度量之和
type CompositeSpec struct {
	Name       string   `json:"name" validate:"required"`
	Components []string `json:"components" validate:"min=2,dive,required"`
}

// AggregateRow 汇总输出行；小计/总计行中被汇总掉的键位为空串
type AggregateRow struct {
	Key    []string                   `json:"key"`
	Level  Level                      `json:"level"`
	Values map[string]decimal.Decimal `json:"values"`
}

// Value 取度量值，缺失为 0
func (r AggregateRow) Value(measure string) decimal.Decimal {
	return r.Values[measure]
}

func (r AggregateRow) clone() AggregateRow {
	out := AggregateRow{
		Key:    append([]string(nil), r.Key...),
		Level:  r.Level,
		Values: make(map[string]decimal.Decimal, len(r.Values)),
	}
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return out
}

// Table 汇总结果表
type Table struct {
	KeyFields []model.Field  `json:"keyFields"`
	Columns   []string       `json:"columns"`  // 分组列标题，与 Key 对应
	Measures  []string       `json:"measures"` // 度量列名（有序）
	Rows      []AggregateRow `json:"rows"`
}

// Header 完整列标题：分组列 + 度量列
func (t *Table) Header() []string {
	out := make([]string, 0, len(t.Columns)+len(t.Measures))
	out = append(out, t.Columns...)
	return append(out, t.Measures...)
}

// Total 指定层级的度量合计
func (t *Table) Total(measure string, level Level) decimal.Decimal {
	total := decimal.Zero
	for _, row := range t.Rows {
		if row.Level == level {
			total = total.Add(row.Value(measure))
		}
	}
	return total
}

// HasMeasure 是否包含度量列
func (t *Table) HasMeasure(name string) bool {
	for _, m := range t.Measures {
		if m == name {
			return true
		}
	}
	return false
}

// clone 深拷贝；rows 为 nil 时沿用原行
func (t *Table) clone(rows []AggregateRow) *Table {
	out := &Table{
		KeyFields: append([]model.Field(nil), t.KeyFields...),
		Columns:   append([]string(nil), t.Columns...),
		Measures:  append([]string(nil), t.Measures...),
	}
	if rows == nil {
		rows = t.Rows
	}
	out.Rows = make([]AggregateRow, len(rows))
	for i, row := range rows {
		out.Rows[i] = row.clone()
	}
	return out
}
