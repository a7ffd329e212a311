package report

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"rscboard/internal/calculator"
	"rscboard/internal/model"
)

// ErrUnknownView 报表视图不存在
var ErrUnknownView = errors.New("unknown report view")

// RankSpec 排名设置；TopN 为 true 时截取 Settings.TopN 行
type RankSpec struct {
	Measure string           `json:"measure" validate:"required"`
	Order   calculator.Order `json:"order" validate:"omitempty,oneof=asc desc"`
	TopN    bool             `json:"topN"`
}

// DerivedColumn 基于某度量派生的列（累计/占比）
type DerivedColumn struct {
	Measure string `json:"measure" validate:"required"`
	Column  string `json:"column" validate:"required"`
}

// View 声明式报表定义
type View struct {
	Name  string `json:"name" validate:"required"`
	Title string `json:"title" validate:"required"`

	GroupBy    []model.Field              `json:"groupBy"`
	Measures   []calculator.MeasureSpec   `json:"measures" validate:"required,min=1,dive"`
	Composites []calculator.CompositeSpec `json:"composites,omitempty" validate:"dive"`

	SortKeys   []int                     `json:"sortKeys,omitempty"` // 依次按这些键位数值升序
	Rank       *RankSpec                 `json:"rank,omitempty"`
	Rollup     *calculator.RollupOptions `json:"rollup,omitempty"`
	Cumulative *DerivedColumn            `json:"cumulative,omitempty"`
	Share      *DerivedColumn            `json:"share,omitempty"`

	// Columns 最终度量列顺序，为空时保持计算顺序
	Columns []string `json:"columns,omitempty"`
}

// RequiredFields 渲染该视图所需的全部逻辑字段
func (v View) RequiredFields() []model.Field {
	fields := append([]model.Field(nil), v.GroupBy...)
	for _, m := range v.Measures {
		fields = append(fields, m.Source)
	}
	return fields
}

var (
	validate     = validator.New()
	catalogOnce  sync.Once
	catalogErr   error
	catalogIndex map[string]View
)

// Catalog 全部报表视图（按展示顺序）
func Catalog() []View {
	return append([]View(nil), views...)
}

// Lookup 按名称查找视图
func Lookup(name string) (View, error) {
	catalogOnce.Do(func() {
		catalogIndex = make(map[string]View, len(views))
		for _, v := range views {
			if err := validate.Struct(v); err != nil {
				catalogErr = fmt.Errorf("invalid view %s: %w", v.Name, err)
				return
			}
			catalogIndex[v.Name] = v
		}
	})
	if catalogErr != nil {
		return View{}, catalogErr
	}
	v, ok := catalogIndex[name]
	if !ok {
		return View{}, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
	return v, nil
}

var views = []View{
	{
		Name:    "monthly_trend",
		Title:   "Month-wise Sales Trend",
		GroupBy: []model.Field{model.FieldMonthNumber, model.FieldMonthName},
		Measures: []calculator.MeasureSpec{
			calculator.Sum("Sales Quantity", model.FieldQuantity),
			calculator.Sum("Sales Value", model.FieldValue),
		},
		SortKeys: []int{0},
	},
	{
		Name:    "yearly_trend",
		Title:   "Year-over-Year Monthly Quantity",
		GroupBy: []model.Field{model.FieldYear, model.FieldMonthNumber, model.FieldMonthName},
		Measures: []calculator.MeasureSpec{
			calculator.Sum("Sales Quantity", model.FieldQuantity),
		},
		SortKeys: []int{0, 1},
	},
	{
		Name:    "region_summary",
		Title:   "Region-wise Performance Summary",
		GroupBy: []model.Field{model.FieldRegion, model.FieldTerritory, model.FieldManager},
		Measures: []calculator.MeasureSpec{
			calculator.CountDistinct("Retail Sales Consultant Count", model.FieldSalesperson),
			calculator.Sum("FTD PIXMA Zone", model.FieldFTDPixma),
			calculator.Sum("FTD MBO", model.FieldFTDMBO),
			calculator.Sum("MTD PIXMA Zone", model.FieldMTDPixma),
			calculator.Sum("MTD MBO", model.FieldMTDMBO),
		},
		Composites: []calculator.CompositeSpec{
			{Name: "FTD Total", Components: []string{"FTD PIXMA Zone", "FTD MBO"}},
			{Name: "MTD Total", Components: []string{"MTD PIXMA Zone", "MTD MBO"}},
		},
		Rollup: &calculator.RollupOptions{LabelColumn: 2, SortSubtotals: true},
		Columns: []string{
			"Retail Sales Consultant Count",
			"FTD PIXMA Zone", "FTD MBO", "FTD Total",
			"MTD PIXMA Zone", "MTD MBO", "MTD Total",
		},
	},
	topByValue("top_stores", "Top Stores by Sales Value", model.FieldStore),
	topByValue("top_cities", "Top Cities by Sales Value", model.FieldCity),
	topByValue("top_categories", "Top Product Categories by Sales Value", model.FieldCategory),
	topByValue("top_models", "Top Models by Sales Value", model.FieldModel),
	{
		Name:    "salesperson_leaderboard",
		Title:   "Salesperson Leaderboard",
		GroupBy: []model.Field{model.FieldSalesperson},
		Measures: []calculator.MeasureSpec{
			calculator.Sum("Sales Quantity", model.FieldQuantity),
			calculator.Sum("Sales Value", model.FieldValue),
		},
		Rank: &RankSpec{Measure: "Sales Quantity", TopN: true},
	},
	{
		Name:    "lead_source_mix",
		Title:   "Lead Source Mix",
		GroupBy: []model.Field{model.FieldLeadSource},
		Measures: []calculator.MeasureSpec{
			calculator.Sum("Sales Quantity", model.FieldQuantity),
		},
		Rank:  &RankSpec{Measure: "Sales Quantity"},
		Share: &DerivedColumn{Measure: "Sales Quantity", Column: "Share %"},
	},
	{
		Name:  "kpi",
		Title: "Key Figures",
		Measures: []calculator.MeasureSpec{
			calculator.Sum("Total Quantity", model.FieldQuantity),
			calculator.Sum("Total Value", model.FieldValue),
			calculator.CountDistinct("Salespersons", model.FieldSalesperson),
			calculator.CountDistinct("Stores", model.FieldStore),
			calculator.CountDistinct("Cities", model.FieldCity),
		},
	},
	{
		Name:    "store_pareto",
		Title:   "Store Contribution (Cumulative)",
		GroupBy: []model.Field{model.FieldStore},
		Measures: []calculator.MeasureSpec{
			calculator.Sum("Sales Value", model.FieldValue),
		},
		Rank:       &RankSpec{Measure: "Sales Value", Order: calculator.OrderAsc},
		Cumulative: &DerivedColumn{Measure: "Sales Value", Column: "Cumulative Sales Value"},
	},
}

func topByValue(name, title string, dim model.Field) View {
	return View{
		Name:    name,
		Title:   title,
		GroupBy: []model.Field{dim},
		Measures: []calculator.MeasureSpec{
			calculator.Sum("Sales Value", model.FieldValue),
			calculator.Sum("Sales Quantity", model.FieldQuantity),
		},
		Rank: &RankSpec{Measure: "Sales Value", TopN: true},
	}
}
