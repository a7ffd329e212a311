package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Record 单条交易记录（加载后只读）
type Record struct {
	RowNo int `json:"rowNo"` // Excel 行号

	Status string `json:"status"`

	// 日期及派生字段；DateValid=false 时三者均无定义
	Date        time.Time `json:"date"`
	DateValid   bool      `json:"dateValid"`
	Year        int       `json:"year"`
	MonthNumber int       `json:"monthNumber"`
	MonthName   string    `json:"monthName"`

	Region      string `json:"region"`
	Territory   string `json:"territory"`
	Manager     string `json:"manager"`
	City        string `json:"city"`
	Store       string `json:"store"`
	Salesperson string `json:"salesperson"`
	Category    string `json:"category"`
	Model       string `json:"model"`
	LeadSource  string `json:"leadSource"`

	Quantity decimal.Decimal `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
	FTDPixma decimal.Decimal `json:"ftdPixma"`
	FTDMBO   decimal.Decimal `json:"ftdMbo"`
	MTDPixma decimal.Decimal `json:"mtdPixma"`
	MTDMBO   decimal.Decimal `json:"mtdMbo"`
}

// Dimension 取分类字段值；派生字段在日期无效时返回 ok=false
func (r Record) Dimension(f Field) (string, bool) {
	switch f {
	case FieldStatus:
		return r.Status, true
	case FieldRegion:
		return r.Region, true
	case FieldTerritory:
		return r.Territory, true
	case FieldManager:
		return r.Manager, true
	case FieldCity:
		return r.City, true
	case FieldStore:
		return r.Store, true
	case FieldSalesperson:
		return r.Salesperson, true
	case FieldCategory:
		return r.Category, true
	case FieldModel:
		return r.Model, true
	case FieldLeadSource:
		return r.LeadSource, true
	case FieldDate:
		if !r.DateValid {
			return "", false
		}
		return r.Date.Format("2006-01-02"), true
	case FieldYear:
		if !r.DateValid {
			return "", false
		}
		return strconv.Itoa(r.Year), true
	case FieldMonthNumber:
		if !r.DateValid {
			return "", false
		}
		return strconv.Itoa(r.MonthNumber), true
	case FieldMonthName:
		if !r.DateValid {
			return "", false
		}
		return r.MonthName, true
	}
	return "", false
}

// Measure 取数值字段值，未知字段返回 0
func (r Record) Measure(f Field) decimal.Decimal {
	switch f {
	case FieldQuantity:
		return r.Quantity
	case FieldValue:
		return r.Value
	case FieldFTDPixma:
		return r.FTDPixma
	case FieldFTDMBO:
		return r.FTDMBO
	case FieldMTDPixma:
		return r.MTDPixma
	case FieldMTDMBO:
		return r.MTDMBO
	}
	return decimal.Zero
}

// WithDate 返回附带日期及派生字段的副本
func (r Record) WithDate(t time.Time, valid bool) Record {
	out := r
	if !valid {
		out.Date = time.Time{}
		out.DateValid = false
		out.Year = 0
		out.MonthNumber = 0
		out.MonthName = ""
		return out
	}
	out.Date = t
	out.DateValid = true
	out.Year = t.Year()
	out.MonthNumber = int(t.Month())
	out.MonthName = t.Format("Jan")
	return out
}
