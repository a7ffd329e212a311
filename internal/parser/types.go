package parser

// 工作簿容器格式
const (
	FormatXLSX = "xlsx"
	FormatXLS  = "xls"
)

// DateMode 日期列解析模式（按整列判定）
type DateMode string

const (
	DateModeSerial DateMode = "serial" // 整列均为数值：Excel 序列日期
	DateModeText   DateMode = "text"   // 存在文本：按日期字符串解析
)

// LoadOptions 工作簿读取选项
type LoadOptions struct {
	SheetName string // 目标工作表，默认 "RAW data"
	SkipRows  int    // 表头之前跳过的行数
}
