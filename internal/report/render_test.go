package report

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rscboard/internal/filter"
	"rscboard/internal/model"
	"rscboard/internal/parser"
)

var fullHeaders = []string{
	"Status", "Refer Date", "Region", "RM's Territory", "Field Op Manager", "City",
	"Store Name", "Name", "Product Category", "Model Name", "Lead Source",
	"Sales Quantity", "Sales Value", "FTD PIXMA Zone", "FTD MBO", "MTD PIXMA Zone", "MTD MBO",
}

type row struct {
	status, region, territory, manager, city, store, person, lead string
	date                                                          time.Time
	qty, value, ftdP, ftdM, mtdP, mtdM                            int64
}

func buildDataset(t *testing.T, headers []string, rows []row) *model.Dataset {
	t.Helper()
	schema, err := parser.NewFieldMapper(nil).Resolve(headers)
	require.NoError(t, err)

	ds := &model.Dataset{ID: "test", Schema: schema}
	for _, r := range rows {
		rec := model.Record{
			Status: r.status, Region: r.region, Territory: r.territory, Manager: r.manager,
			City: r.city, Store: r.store, Salesperson: r.person, LeadSource: r.lead,
			Category: "Printer", Model: "G3010",
			Quantity: decimal.NewFromInt(r.qty), Value: decimal.NewFromInt(r.value),
			FTDPixma: decimal.NewFromInt(r.ftdP), FTDMBO: decimal.NewFromInt(r.ftdM),
			MTDPixma: decimal.NewFromInt(r.mtdP), MTDMBO: decimal.NewFromInt(r.mtdM),
		}.WithDate(r.date, !r.date.IsZero())
		ds.All = append(ds.All, rec)
		if rec.DateValid {
			ds.Working = append(ds.Working, rec)
		}
	}
	return ds
}

func jan(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
func feb(d int) time.Time { return time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC) }

func fixtureRows() []row {
	return []row{
		{status: "Passed", region: "South", territory: "S1", manager: "Lata", city: "Chennai", store: "Croma", person: "Meera", lead: "Walk-in", date: feb(3), qty: 5, value: 500, ftdP: 2, ftdM: 1, mtdP: 20, mtdM: 10},
		{status: "Passed", region: "North", territory: "N1", manager: "Amit", city: "Delhi", store: "Vijay", person: "Asha", lead: "Online", date: jan(5), qty: 10, value: 1000, ftdP: 3, ftdM: 1, mtdP: 30, mtdM: 10},
		{status: "Failed", region: "North", territory: "N1", manager: "Amit", city: "Delhi", store: "Vijay", person: "Ravi", lead: "Online", date: jan(6), qty: 99, value: 9900},
		{status: "Passed", region: "North", territory: "N1", manager: "Amit", city: "Delhi", store: "Reliance", person: "Ravi", lead: "Walk-in", date: feb(7), qty: 4, value: 300, ftdP: 1, ftdM: 1, mtdP: 10, mtdM: 10},
	}
}

var settings = Settings{PassedStatus: "Passed", TopN: 10}

func TestRender_RegionSummary(t *testing.T) {
	ds := buildDataset(t, fullHeaders, fixtureRows())

	table, err := Render(ds, "region_summary", filter.Options{}, settings)
	require.NoError(t, err)

	// 叶子 North/N1/Amit、South/S1/Lata + 两个小计 + 总计
	require.Len(t, table.Rows, 5)
	assert.Equal(t, []string{"North", "N1", "Amit"}, table.Rows[0].Key)
	assert.Equal(t, []string{"South", "S1", "Lata"}, table.Rows[1].Key)
	assert.Equal(t, []string{"North", "", "Total"}, table.Rows[2].Key)
	assert.Equal(t, []string{"", "", "Grand Total"}, table.Rows[4].Key)

	assert.Equal(t, []string{
		"Retail Sales Consultant Count",
		"FTD PIXMA Zone", "FTD MBO", "FTD Total",
		"MTD PIXMA Zone", "MTD MBO", "MTD Total",
	}, table.Measures)

	grand := table.Rows[4]
	assert.Equal(t, "3", grand.Value("Retail Sales Consultant Count").String())
	assert.Equal(t, "9", grand.Value("FTD Total").String())
	assert.Equal(t, "90", grand.Value("MTD Total").String())
}

func TestRender_DefaultsToPassedStatus(t *testing.T) {
	ds := buildDataset(t, fullHeaders, fixtureRows())

	table, err := Render(ds, "kpi", filter.Options{}, settings)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "19", table.Rows[0].Value("Total Quantity").String())
	assert.Equal(t, "3", table.Rows[0].Value("Stores").String())

	table, err = Render(ds, "kpi", filter.Options{Status: "Failed"}, settings)
	require.NoError(t, err)
	assert.Equal(t, "99", table.Rows[0].Value("Total Quantity").String())
}

func TestRender_MonthlyTrendOrderedByMonth(t *testing.T) {
	ds := buildDataset(t, fullHeaders, fixtureRows())

	table, err := Render(ds, "monthly_trend", filter.Options{}, settings)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"1", "Jan"}, table.Rows[0].Key)
	assert.Equal(t, []string{"2", "Feb"}, table.Rows[1].Key)
	assert.Equal(t, "9", table.Rows[1].Value("Sales Quantity").String())
}

func TestRender_TopNAndPareto(t *testing.T) {
	ds := buildDataset(t, fullHeaders, fixtureRows())

	top, err := Render(ds, "top_stores", filter.Options{}, Settings{PassedStatus: "Passed", TopN: 2})
	require.NoError(t, err)
	require.Len(t, top.Rows, 2)
	assert.Equal(t, "Vijay", top.Rows[0].Key[0])
	assert.Equal(t, "Croma", top.Rows[1].Key[0])

	pareto, err := Render(ds, "store_pareto", filter.Options{}, settings)
	require.NoError(t, err)
	require.Len(t, pareto.Rows, 3)
	assert.Equal(t, "Reliance", pareto.Rows[0].Key[0])
	assert.Equal(t, "1800", pareto.Rows[2].Value("Cumulative Sales Value").String())
}

func TestRender_BlankDimensionsDoNotFormGroups(t *testing.T) {
	rows := append(fixtureRows(),
		row{status: "Passed", region: "", territory: "X1", manager: "Zed", city: "Pune", store: "", person: "Nina", lead: "Online", date: jan(9), qty: 1000, value: 50000, ftdP: 50, mtdP: 500},
	)
	ds := buildDataset(t, fullHeaders, rows)

	top, err := Render(ds, "top_stores", filter.Options{}, settings)
	require.NoError(t, err)
	require.Len(t, top.Rows, 3)
	for _, r := range top.Rows {
		assert.NotEmpty(t, r.Key[0])
	}
	assert.Equal(t, "Vijay", top.Rows[0].Key[0])

	summary, err := Render(ds, "region_summary", filter.Options{}, settings)
	require.NoError(t, err)
	require.Len(t, summary.Rows, 5)
	for _, r := range summary.Rows[:4] {
		assert.NotEmpty(t, r.Key[0], "level %s", r.Level)
	}
	assert.Equal(t, "9", summary.Rows[4].Value("FTD Total").String())
}

func TestRender_LeadSourceShare(t *testing.T) {
	ds := buildDataset(t, fullHeaders, fixtureRows())

	table, err := Render(ds, "lead_source_mix", filter.Options{}, settings)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Online", table.Rows[0].Key[0])

	total := table.Rows[0].Value("Share %").Add(table.Rows[1].Value("Share %"))
	assert.True(t, total.Sub(decimal.NewFromInt(100)).Abs().LessThanOrEqual(decimal.NewFromFloat(0.01)))
}

func TestRender_MissingColumnsReportedTogether(t *testing.T) {
	headers := []string{"Status", "Refer Date", "Name", "Sales Quantity", "Sales Value", "Region"}
	ds := buildDataset(t, headers, fixtureRows())

	_, err := Render(ds, "region_summary", filter.Options{}, settings)
	require.Error(t, err)

	var missing *model.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.ElementsMatch(t, []model.Field{
		model.FieldTerritory, model.FieldManager,
		model.FieldFTDPixma, model.FieldFTDMBO, model.FieldMTDPixma, model.FieldMTDMBO,
	}, missing.Fields)
	assert.ErrorIs(t, err, model.ErrMissingColumn)
}

func TestRender_EmptySelection(t *testing.T) {
	ds := buildDataset(t, fullHeaders, fixtureRows())

	_, err := Render(ds, "kpi", filter.Options{Regions: []string{"East"}}, settings)
	assert.ErrorIs(t, err, filter.ErrEmptyResult)
}

func TestRender_UnknownView(t *testing.T) {
	ds := buildDataset(t, fullHeaders, fixtureRows())
	_, err := Render(ds, "nope", filter.Options{}, settings)
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestCatalogIsValid(t *testing.T) {
	for _, v := range Catalog() {
		got, err := Lookup(v.Name)
		require.NoError(t, err, v.Name)
		assert.Equal(t, v.Name, got.Name)
		for _, c := range v.Composites {
			for _, part := range c.Components {
				assert.Contains(t, measureNames(v), part)
			}
		}
	}
	assert.Len(t, Describe(), len(Catalog()))
}

func measureNames(v View) []string {
	out := make([]string, 0, len(v.Measures))
	for _, m := range v.Measures {
		out = append(out, m.Name)
	}
	return out
}

func TestFilterOptions(t *testing.T) {
	headers := []string{"Status", "Refer Date", "Name", "Sales Quantity", "Sales Value", "Region", "City"}
	ds := buildDataset(t, headers, fixtureRows())

	opts := FilterOptions(ds)
	assert.Equal(t, []string{"North", "South"}, opts.Regions)
	assert.Equal(t, []string{"Failed", "Passed"}, opts.Statuses)
	assert.Equal(t, []int{2024}, opts.Years)
	assert.Equal(t, []string{}, opts.Stores)
	require.NotNil(t, opts.DateMin)
	assert.Equal(t, jan(5), *opts.DateMin)
	assert.Equal(t, feb(7), *opts.DateMax)

}
