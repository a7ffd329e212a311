package model

import "time"

// RawTable 从工作表读取的原始表格（表头已去除首尾空白）
type RawTable struct {
	SheetName string     `json:"sheetName"`
	Format    string     `json:"format"` // xlsx / xls
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"-"`
	RowNos    []int      `json:"-"`    // 与 Rows 对应的 Excel 行号
	Hash      string     `json:"hash"` // 文件内容 sha256
}

// Column 返回某列的全部单元格
func (t *RawTable) Column(idx int) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out
}

// LoadStats 加载统计
type LoadStats struct {
	TotalRows         int    `json:"totalRows"`
	DateMode          string `json:"dateMode"` // serial / text
	DateParseFailures int    `json:"dateParseFailures"`
	OutOfRange        int    `json:"outOfRange"`
	InvalidNumbers    int    `json:"invalidNumbers"` // 无法解析的数值单元格（按 0 计）
	WorkingRows       int    `json:"workingRows"`
}

// Dataset 一次会话内的只读数据集
type Dataset struct {
	ID       string    `json:"id"` // 内容哈希
	Filename string    `json:"filename"`
	Format   string    `json:"format"`
	Sheet    string    `json:"sheet"`
	Schema   *Schema   `json:"schema"`
	Stats    LoadStats `json:"stats"`
	LoadedAt time.Time `json:"loadedAt"`

	// All 全部已加载记录；Working 为日期有效且年份在保留区间内的记录
	All     []Record `json:"-"`
	Working []Record `json:"-"`
}
