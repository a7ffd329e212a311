package parser

import (
	"github.com/sirupsen/logrus"

	"rscboard/internal/model"
)

// MandatoryFields 加载阶段必须存在的字段
var MandatoryFields = []model.Field{
	model.FieldStatus,
	model.FieldDate,
	model.FieldQuantity,
	model.FieldValue,
	model.FieldSalesperson,
}

// DefaultAliases 内置列名别名（按优先级排列）
var DefaultAliases = map[model.Field][]string{
	model.FieldStatus: {"Status"},
	model.FieldDate: {
		"Refer Date", "ReferDate", "Reference Date",
		"Ref Date", "Invoice Date", "Date",
	},
	model.FieldRegion:    {"Region"},
	model.FieldTerritory: {"RM's Territory", "RM Territory", "RMs Territory"},
	model.FieldManager: {
		"Field Op Manager",
		"Field Operation Manager",
		"Field Ops Manager",
		"FOM",
	},
	model.FieldCity:        {"City"},
	model.FieldStore:       {"Store Name", "Store", "Dealer Name"},
	model.FieldSalesperson: {"Name", "RSC Name", "Sales Person", "Salesperson"},
	model.FieldCategory:    {"Product Category", "Category"},
	model.FieldModel:       {"Model Name", "Model"},
	model.FieldLeadSource:  {"Lead Source", "Source"},
	model.FieldQuantity:    {"Sales Quantity", "Quantity", "Qty"},
	model.FieldValue:       {"Sales Value", "Value", "Sales Amount"},
	model.FieldFTDPixma:    {"FTD PIXMA Zone"},
	model.FieldFTDMBO:      {"FTD MBO"},
	model.FieldMTDPixma:    {"MTD PIXMA Zone"},
	model.FieldMTDMBO:      {"MTD MBO"},
}

// FieldMapper 字段映射器：把逻辑字段解析到实际表头
type FieldMapper struct {
	aliases map[model.Field][]string
}

// NewFieldMapper 创建字段映射器，overrides 按字段整体替换内置别名
func NewFieldMapper(overrides map[string][]string) *FieldMapper {
	aliases := make(map[model.Field][]string, len(DefaultAliases))
	for f, list := range DefaultAliases {
		aliases[f] = list
	}
	for name, list := range overrides {
		f := model.Field(name)
		if !f.Known() || f.IsDerived() {
			logrus.WithField("field", name).Warn("ignoring aliases for unknown field")
			continue
		}
		if len(list) == 0 {
			continue
		}
		aliases[f] = list
	}
	return &FieldMapper{aliases: aliases}
}

// Aliases 获取字段的别名列表
func (m *FieldMapper) Aliases(f model.Field) []string {
	return m.aliases[f]
}

// Resolve 解析表头，返回 Schema；required 中缺失的字段一次性通过 *MissingColumnError 返回。
// 匹配规则：两侧去空白后忽略大小写相等，按别名顺序先到先得。
func (m *FieldMapper) Resolve(headers []string, required ...model.Field) (*model.Schema, error) {
	positions := make(map[string][]int, len(headers))
	for idx, h := range headers {
		key := headerKey(h)
		if key == "" {
			continue
		}
		positions[key] = append(positions[key], idx)
	}

	schema := model.NewSchema()
	for _, f := range model.SourceFields {
		candidates := m.candidates(f, positions)
		if len(candidates) == 0 {
			continue
		}

		picked := candidates[0]
		schema.Columns[f] = NormalizeHeader(headers[picked])
		schema.Index[f] = picked

		if len(candidates) > 1 {
			names := make([]string, 0, len(candidates))
			for _, idx := range candidates {
				names = append(names, NormalizeHeader(headers[idx]))
			}
			schema.Ambiguities[f] = names
			logrus.WithFields(logrus.Fields{
				"field":      string(f),
				"picked":     names[0],
				"candidates": names,
			}).Warn("multiple columns match field aliases, using first by alias order")
		}
	}

	if err := schema.Require(required...); err != nil {
		return schema, err
	}
	return schema, nil
}

// candidates 按别名顺序收集匹配列（去重）
func (m *FieldMapper) candidates(f model.Field, positions map[string][]int) []int {
	var out []int
	seen := make(map[int]struct{})
	for _, alias := range m.aliases[f] {
		for _, idx := range positions[headerKey(alias)] {
			if _, ok := seen[idx]; ok {
				continue
			}
			seen[idx] = struct{}{}
			out = append(out, idx)
		}
	}
	return out
}
