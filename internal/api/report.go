package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"rscboard/internal/calculator"
	"rscboard/internal/exporter"
	"rscboard/internal/filter"
	"rscboard/internal/importer"
	"rscboard/internal/model"
	"rscboard/internal/report"
)

var validate = validator.New()

// ReportRequest 报表请求体（筛选条件）
type ReportRequest struct {
	Status       string     `json:"status" validate:"max=64"`
	Years        []int      `json:"years" validate:"dive,min=1900,max=9999"`
	Regions      []string   `json:"regions"`
	Territories  []string   `json:"territories"`
	Managers     []string   `json:"managers"`
	Cities       []string   `json:"cities"`
	Stores       []string   `json:"stores"`
	Salespersons []string   `json:"salespersons"`
	Categories   []string   `json:"categories"`
	Models       []string   `json:"models"`
	LeadSources  []string   `json:"leadSources"`
	DateFrom     *time.Time `json:"dateFrom"`
	DateTo       *time.Time `json:"dateTo"`
}

func (r ReportRequest) options() filter.Options {
	return filter.Options{
		Status:       r.Status,
		Years:        r.Years,
		Regions:      r.Regions,
		Territories:  r.Territories,
		Managers:     r.Managers,
		Cities:       r.Cities,
		Stores:       r.Stores,
		Salespersons: r.Salespersons,
		Categories:   r.Categories,
		Models:       r.Models,
		LeadSources:  r.LeadSources,
		DateRange:    filter.DateRange{From: r.DateFrom, To: r.DateTo},
	}
}

// TableResponse 报表输出
type TableResponse struct {
	View    string     `json:"view"`
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

// TableRow 一行：cells 与 columns 对齐，数值为字符串避免精度损失
type TableRow struct {
	Level calculator.Level `json:"level"`
	Cells []string         `json:"cells"`
}

func newTableResponse(view report.View, table *calculator.Table) TableResponse {
	resp := TableResponse{
		View:    view.Name,
		Title:   view.Title,
		Columns: table.Header(),
		Rows:    make([]TableRow, 0, len(table.Rows)),
	}
	for _, row := range table.Rows {
		cells := make([]string, 0, len(resp.Columns))
		cells = append(cells, row.Key...)
		for _, m := range table.Measures {
			cells = append(cells, row.Value(m).String())
		}
		resp.Rows = append(resp.Rows, TableRow{Level: row.Level, Cells: cells})
	}
	return resp
}

// ListViews 报表目录
// GET /api/views
func (h *Handler) ListViews(c *gin.Context) {
	success(c, report.Describe())
}

func (h *Handler) dataset(c *gin.Context) (*model.Dataset, bool) {
	ds, ok := h.coord.Dataset(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, CodeNotFound, "dataset not loaded, upload the workbook again")
		return nil, false
	}
	return ds, true
}

// GetDataset 数据集摘要
// GET /api/datasets/:id
func (h *Handler) GetDataset(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	success(c, importer.NewSummary(ds, true, 0))
}

// GetOptions 筛选候选值
// GET /api/datasets/:id/options
func (h *Handler) GetOptions(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	success(c, report.FilterOptions(ds))
}

// bindReport 解析数据集、视图与筛选条件并渲染
func (h *Handler) bindReport(c *gin.Context) (report.View, *calculator.Table, bool) {
	ds, ok := h.dataset(c)
	if !ok {
		return report.View{}, nil, false
	}

	view, err := report.Lookup(c.Param("view"))
	if err != nil {
		writeError(c, err)
		return report.View{}, nil, false
	}

	var req ReportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
			return report.View{}, nil, false
		}
	}
	if err := validate.Struct(req); err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return report.View{}, nil, false
	}
	if req.DateFrom != nil && req.DateTo != nil && req.DateTo.Before(*req.DateFrom) {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "dateTo is before dateFrom")
		return report.View{}, nil, false
	}

	table, err := report.Render(ds, view.Name, req.options(), h.settings)
	if err != nil {
		writeError(c, err)
		return report.View{}, nil, false
	}
	return view, table, true
}

// RenderReport 渲染报表
// POST /api/datasets/:id/reports/:view
func (h *Handler) RenderReport(c *gin.Context) {
	view, table, ok := h.bindReport(c)
	if !ok {
		return
	}
	success(c, newTableResponse(view, table))
}

// ExportReport 渲染并导出为 xlsx，返回一次性下载地址
// POST /api/datasets/:id/reports/:view/export
func (h *Handler) ExportReport(c *gin.Context) {
	view, table, ok := h.bindReport(c)
	if !ok {
		return
	}

	file, err := exporter.ExportTable(table, view.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		writeError(c, fmt.Errorf("write export failed: %w", err))
		return
	}

	filename := fmt.Sprintf("%s_%s.xlsx", view.Name, time.Now().Format("20060102_150405"))
	token := h.downloads.put(filename, buf.Bytes(), 10*time.Minute)

	prefix := strings.TrimSuffix(strings.SplitN(c.FullPath(), "/datasets/", 2)[0], "/")
	success(c, gin.H{
		"token":       token,
		"filename":    filename,
		"downloadUrl": fmt.Sprintf("%s/export/download/%s", prefix, token),
	})
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	item, ok := h.downloads.take(c.Param("token"))
	if !ok {
		errorResponse(c, http.StatusNotFound, CodeNotFound, "download link expired")
		return
	}

	c.Header("Content-Disposition", buildContentDisposition(item.filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", item.data)
}

func buildContentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, url.PathEscape(filename))
}
