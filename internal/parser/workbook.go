package parser

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"rscboard/internal/model"
)

var (
	// ErrUnsupportedFileFormat 既不是 xlsx 也不是 xls
	ErrUnsupportedFileFormat = errors.New("unsupported file format: expected an .xlsx or .xls workbook")
	// ErrSheetNotFound 指定工作表不存在
	ErrSheetNotFound = errors.New("sheet not found")
)

var (
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat 按文件头识别容器格式
func DetectFormat(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS, nil
	}
	return "", ErrUnsupportedFileFormat
}

// ContentHash 文件内容哈希（用于会话缓存）
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LoadWorkbook 读取工作簿中的目标工作表，跳过前置行后以下一行为表头
func LoadWorkbook(data []byte, opts LoadOptions) (*model.RawTable, error) {
	if opts.SheetName == "" {
		opts.SheetName = "RAW data"
	}

	format, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, err = readXLSXRows(data, opts.SheetName)
	case FormatXLS:
		rows, err = readXLSRows(data, opts.SheetName)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) <= opts.SkipRows {
		return nil, fmt.Errorf("sheet %q has no header row", opts.SheetName)
	}

	rawHeaders := rows[opts.SkipRows]
	headers := make([]string, len(rawHeaders))
	for i, h := range rawHeaders {
		headers[i] = NormalizeHeader(h)
	}

	table := &model.RawTable{
		SheetName: opts.SheetName,
		Format:    format,
		Headers:   headers,
		Hash:      ContentHash(data),
	}

	for i := opts.SkipRows + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		table.Rows = append(table.Rows, padRow(row, len(headers)))
		table.RowNos = append(table.RowNos, i+1)
	}

	return table, nil
}

// readXLSXRows 读取 xlsx；使用原始单元格值，日期保持序列数字
func readXLSXRows(data []byte, sheet string) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer func() { _ = file.Close() }()

	if idx, err := file.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheet, strings.Join(file.GetSheetList(), ", "))
	}

	rows, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return rows, nil
}

// readXLSRows 读取旧版 xls
func readXLSRows(data []byte, sheet string) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}

	names := make([]string, 0, workbook.NumSheets())
	for i := 0; i < workbook.NumSheets(); i++ {
		ws := workbook.GetSheet(i)
		if ws == nil {
			continue
		}
		names = append(names, ws.Name)
		if ws.Name != sheet {
			continue
		}

		rows := make([][]string, 0, int(ws.MaxRow)+1)
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		return rows, nil
	}

	return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheet, strings.Join(names, ", "))
}

func padRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
