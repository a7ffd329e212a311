package parser

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// excelEpoch Excel 序列日期起点（1900 体系，已包含 1900-02-29 的偏移）
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// maxSerial 9999-12-31 对应的序列值
const maxSerial = 2958465

// DetectDateMode 判定日期列模式：非空值全部为数值时按序列日期处理
func DetectDateMode(values []string) DateMode {
	seen := false
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if !isNumeric(v) {
			return DateModeText
		}
		seen = true
	}
	if !seen {
		return DateModeText
	}
	return DateModeSerial
}

// inSerialRange NaN 与 Inf 均不在范围内
func inSerialRange(f float64) bool {
	return f >= 1 && f <= maxSerial
}

// SerialToTime 序列日期转日历时间，小数部分作为当日时间保留
func SerialToTime(serial float64) time.Time {
	days := math.Floor(serial)
	frac := serial - days
	t := excelEpoch.AddDate(0, 0, int(days))
	// 精确到秒，避免浮点尾差
	secs := math.Round(frac * 86400)
	return t.Add(time.Duration(secs) * time.Second)
}

// ParseDateText 按日期字符串解析（与区域无关）；纯数字且在序列范围内的值按序列日期处理
func ParseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if !inSerialRange(f) {
			return time.Time{}, false
		}
		return SerialToTime(f), true
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeColumn 解析整列日期，返回时间、有效标记与所用模式
func NormalizeColumn(values []string) ([]time.Time, []bool, DateMode) {
	mode := DetectDateMode(values)
	times := make([]time.Time, len(values))
	valid := make([]bool, len(values))

	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if mode == DateModeSerial {
			f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if !inSerialRange(f) {
				continue
			}
			times[i], valid[i] = SerialToTime(f), true
			continue
		}
		times[i], valid[i] = ParseDateText(v)
	}
	return times, valid, mode
}

// NormalizeValue 规范化单个值；已是日历时间时原样返回
func NormalizeValue(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x, true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return NormalizeValue(*x)
	case float64:
		if !inSerialRange(x) {
			return time.Time{}, false
		}
		return SerialToTime(x), true
	case float32:
		return NormalizeValue(float64(x))
	case int:
		return NormalizeValue(float64(x))
	case int64:
		return NormalizeValue(float64(x))
	case string:
		return ParseDateText(x)
	}
	return time.Time{}, false
}
