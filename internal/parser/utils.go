package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeHeader 规范化列名：去除首尾空白及换行/制表符
func NormalizeHeader(name string) string {
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\t", " ")
	return strings.TrimSpace(name)
}

// headerKey 列名匹配键：规范化后忽略大小写
func headerKey(name string) string {
	return strings.ToLower(NormalizeHeader(name))
}

// parseDecimal 安全转换为精确小数，空值/非法值返回 0 与 ok=false
func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "") // 移除千分位
	if s == "" || s == "-" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// isNumeric 是否为数值文本
func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// isBlankRow 整行是否为空
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
