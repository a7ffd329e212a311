package parser

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"rscboard/internal/model"
)

// RecordParser 把原始表格解析为交易记录
type RecordParser struct {
	yearFrom int
	yearTo   int
}

// NewRecordParser 创建记录解析器；[yearFrom, yearTo] 为保留年份区间（含两端），0 表示不限
func NewRecordParser(yearFrom, yearTo int) *RecordParser {
	return &RecordParser{yearFrom: yearFrom, yearTo: yearTo}
}

// Parse 解析全部数据行。all 为全部记录，working 为日期有效且年份在区间内的记录。
// 日期无法解析只影响该行，不中断加载。
func (p *RecordParser) Parse(table *model.RawTable, schema *model.Schema) (all, working []model.Record, stats model.LoadStats) {
	stats.TotalRows = len(table.Rows)

	mode := DateModeText
	dates := make([]time.Time, len(table.Rows))
	valid := make([]bool, len(table.Rows))
	if idx, ok := schema.Index[model.FieldDate]; ok {
		dates, valid, mode = NormalizeColumn(table.Column(idx))
	}
	stats.DateMode = string(mode)

	all = make([]model.Record, 0, len(table.Rows))
	working = make([]model.Record, 0, len(table.Rows))

	for i, row := range table.Rows {
		record := model.Record{}
		if i < len(table.RowNos) {
			record.RowNo = table.RowNos[i]
		}

		// 遍历所有已解析字段
		for f, colIdx := range schema.Index {
			if colIdx >= len(row) || f == model.FieldDate {
				continue
			}
			value := strings.TrimSpace(row[colIdx])
			if value == "" {
				continue
			}
			if !p.setFieldValue(&record, f, value) {
				stats.InvalidNumbers++
			}
		}

		record = record.WithDate(dates[i], valid[i])
		all = append(all, record)

		if !record.DateValid {
			stats.DateParseFailures++
			continue
		}
		if !p.inRange(record.Year) {
			stats.OutOfRange++
			continue
		}
		working = append(working, record)
	}

	stats.WorkingRows = len(working)

	if stats.DateParseFailures > 0 {
		logrus.WithFields(logrus.Fields{
			"failures": stats.DateParseFailures,
			"mode":     stats.DateMode,
		}).Warn("rows with unparseable dates excluded from date based reports")
	}
	return all, working, stats
}

func (p *RecordParser) inRange(year int) bool {
	if p.yearFrom > 0 && year < p.yearFrom {
		return false
	}
	if p.yearTo > 0 && year > p.yearTo {
		return false
	}
	return true
}

// setFieldValue 设置字段值；数值无法解析时按 0 处理并返回 false
func (p *RecordParser) setFieldValue(record *model.Record, field model.Field, value string) bool {
	if field.IsMeasure() && value == "-" {
		return true // 短横线记为 0
	}
	ok := true
	switch field {
	case model.FieldStatus:
		record.Status = value
	case model.FieldRegion:
		record.Region = value
	case model.FieldTerritory:
		record.Territory = value
	case model.FieldManager:
		record.Manager = value
	case model.FieldCity:
		record.City = value
	case model.FieldStore:
		record.Store = value
	case model.FieldSalesperson:
		record.Salesperson = value
	case model.FieldCategory:
		record.Category = value
	case model.FieldModel:
		record.Model = value
	case model.FieldLeadSource:
		record.LeadSource = value

	// 数值
	case model.FieldQuantity:
		record.Quantity, ok = parseDecimal(value)
	case model.FieldValue:
		record.Value, ok = parseDecimal(value)
	case model.FieldFTDPixma:
		record.FTDPixma, ok = parseDecimal(value)
	case model.FieldFTDMBO:
		record.FTDMBO, ok = parseDecimal(value)
	case model.FieldMTDPixma:
		record.MTDPixma, ok = parseDecimal(value)
	case model.FieldMTDMBO:
		record.MTDMBO, ok = parseDecimal(value)
	}
	return ok
}
