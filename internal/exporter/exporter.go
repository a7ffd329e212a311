package exporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"rscboard/internal/calculator"
)

// Sheet 一个导出工作表
type Sheet struct {
	Name  string
	Title string
	Table *calculator.Table
}

// styles 导出样式
type styles struct {
	title    int
	header   int
	number   int
	subtotal int
	grand    int
}

func newStyles(f *excelize.File) (*styles, error) {
	numFmt := "#,##0.##"
	s := &styles{}
	var err error

	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	}); err != nil {
		return nil, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C00000"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorder(),
	}); err != nil {
		return nil, err
	}
	if s.number, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &numFmt,
		Border:       thinBorder(),
	}); err != nil {
		return nil, err
	}
	if s.subtotal, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F2F2F2"}},
		CustomNumFmt: &numFmt,
		Border:       thinBorder(),
	}); err != nil {
		return nil, err
	}
	if s.grand, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9D9D9"}},
		CustomNumFmt: &numFmt,
		Border:       thinBorder(),
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "BFBFBF", Style: 1},
		{Type: "right", Color: "BFBFBF", Style: 1},
		{Type: "top", Color: "BFBFBF", Style: 1},
		{Type: "bottom", Color: "BFBFBF", Style: 1},
	}
}

// ExportTable 导出单张报表
func ExportTable(table *calculator.Table, title string) (*excelize.File, error) {
	return ExportWorkbook([]Sheet{{Name: title, Title: title, Table: table}}, nil)
}

// ExportWorkbook 导出多张报表，每张一个工作表
func ExportWorkbook(sheets []Sheet, progress func(ProgressEvent)) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}

	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create styles failed: %w", err)
	}

	used := make(map[string]int)
	for i, sh := range sheets {
		name := uniqueSheetName(sanitizeSheetName(sh.Name), used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				_ = f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, err
		}

		if err := writeTable(f, st, name, sh.Title, sh.Table); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write sheet %s failed: %w", name, err)
		}
		sheetWritten(progress, name, i+1, len(sheets))
	}

	f.SetActiveSheet(0)
	return f, nil
}

// writeTable 标题占第 1 行，表头第 3 行，数据从第 4 行开始
func writeTable(f *excelize.File, st *styles, sheet, title string, table *calculator.Table) error {
	if table == nil {
		return fmt.Errorf("nil table")
	}
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", st.title); err != nil {
		return err
	}

	header := table.Header()
	if len(header) == 0 {
		return nil
	}
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A3", &headerRow); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, 3)
	last, _ := excelize.CoordinatesToCellName(len(header), 3)
	if err := f.SetCellStyle(sheet, first, last, st.header); err != nil {
		return err
	}

	keyWidth := len(table.Columns)
	for i, row := range table.Rows {
		r := i + 4
		values := make([]interface{}, 0, len(header))
		for k := 0; k < keyWidth; k++ {
			v := ""
			if k < len(row.Key) {
				v = row.Key[k]
			}
			values = append(values, v)
		}
		for _, m := range table.Measures {
			values = append(values, row.Value(m).InexactFloat64())
		}
		cell, _ := excelize.CoordinatesToCellName(1, r)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}

		style := st.number
		from := keyWidth + 1
		switch row.Level {
		case calculator.LevelSubtotal:
			style, from = st.subtotal, 1
		case calculator.LevelGrandTotal:
			style, from = st.grand, 1
		}
		if from <= len(header) {
			a, _ := excelize.CoordinatesToCellName(from, r)
			b, _ := excelize.CoordinatesToCellName(len(header), r)
			if err := f.SetCellStyle(sheet, a, b, style); err != nil {
				return err
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      3,
		TopLeftCell: "A4",
		ActivePane:  "bottomLeft",
	})
}

// sanitizeSheetName 工作表名最长 31 字符，且不能含 : \ / ? * [ ]
func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Report"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

func uniqueSheetName(name string, used map[string]int) string {
	key := strings.ToLower(name)
	n := used[key]
	used[key] = n + 1
	if n == 0 {
		return name
	}
	suffix := fmt.Sprintf(" (%d)", n+1)
	r := []rune(name)
	if len(r)+len(suffix) > 31 {
		r = r[:31-len(suffix)]
	}
	return string(r) + suffix
}
