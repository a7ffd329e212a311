package model

// Field 逻辑字段（与实际表头解耦，由 Schema 解析到具体列）
type Field string

const (
	FieldStatus      Field = "status"
	FieldDate        Field = "date"
	FieldRegion      Field = "region"
	FieldTerritory   Field = "territory"
	FieldManager     Field = "manager"
	FieldCity        Field = "city"
	FieldStore       Field = "store"
	FieldSalesperson Field = "salesperson"
	FieldCategory    Field = "category"
	FieldModel       Field = "model"
	FieldLeadSource  Field = "lead_source"

	// 数值字段
	FieldQuantity Field = "quantity"
	FieldValue    Field = "value"
	FieldFTDPixma Field = "ftd_pixma"
	FieldFTDMBO   Field = "ftd_mbo"
	FieldMTDPixma Field = "mtd_pixma"
	FieldMTDMBO   Field = "mtd_mbo"

	// 派生字段（由日期计算，不对应表头）
	FieldYear        Field = "year"
	FieldMonthNumber Field = "month_number"
	FieldMonthName   Field = "month_name"
)

var fieldLabels = map[Field]string{
	FieldStatus:      "Status",
	FieldDate:        "Date",
	FieldRegion:      "Region",
	FieldTerritory:   "RM's Territory",
	FieldManager:     "Field Op Manager",
	FieldCity:        "City",
	FieldStore:       "Store",
	FieldSalesperson: "Salesperson",
	FieldCategory:    "Product Category",
	FieldModel:       "Model",
	FieldLeadSource:  "Lead Source",
	FieldQuantity:    "Sales Quantity",
	FieldValue:       "Sales Value",
	FieldFTDPixma:    "FTD PIXMA Zone",
	FieldFTDMBO:      "FTD MBO",
	FieldMTDPixma:    "MTD PIXMA Zone",
	FieldMTDMBO:      "MTD MBO",
	FieldYear:        "Year",
	FieldMonthNumber: "Month_No",
	FieldMonthName:   "Month_Name",
}

// SourceFields 需要从表头解析的全部逻辑字段（顺序即解析顺序）
var SourceFields = []Field{
	FieldStatus, FieldDate,
	FieldRegion, FieldTerritory, FieldManager,
	FieldCity, FieldStore, FieldSalesperson,
	FieldCategory, FieldModel, FieldLeadSource,
	FieldQuantity, FieldValue,
	FieldFTDPixma, FieldFTDMBO, FieldMTDPixma, FieldMTDMBO,
}

// Label 展示用列名
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// IsMeasure 是否数值字段
func (f Field) IsMeasure() bool {
	switch f {
	case FieldQuantity, FieldValue, FieldFTDPixma, FieldFTDMBO, FieldMTDPixma, FieldMTDMBO:
		return true
	}
	return false
}

// IsDerived 是否由日期派生
func (f Field) IsDerived() bool {
	return f == FieldYear || f == FieldMonthNumber || f == FieldMonthName
}

// Known 是否为已定义的逻辑字段
func (f Field) Known() bool {
	_, ok := fieldLabels[f]
	return ok
}
