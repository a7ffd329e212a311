package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rscboard/internal/importer"
)

// readUpload 读取 multipart 中的 file 字段
func (h *Handler) readUpload(c *gin.Context) ([]byte, string, error) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("missing upload field \"file\": %w", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload failed: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read upload failed: %w", err)
	}
	return data, fh.Filename, nil
}

// Import 上传并加载工作簿
// POST /api/import
func (h *Handler) Import(c *gin.Context) {
	data, filename, err := h.readUpload(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	start := time.Now()
	ds, cached, err := h.coord.Load(c.Request.Context(), data, filename)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, importer.NewSummary(ds, cached, time.Since(start)))
}

// ImportStream 上传并加载工作簿 (SSE 流式响应)
// POST /api/import/stream
func (h *Handler) ImportStream(c *gin.Context) {
	data, filename, err := h.readUpload(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		errorResponse(c, http.StatusInternalServerError, CodeInternal, "streaming not supported")
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	progressChan := h.coord.Import(c.Request.Context(), importer.ImportOptions{
		Data:     data,
		Filename: filename,
	})

	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// ListImports 导入历史
// GET /api/imports
func (h *Handler) ListImports(c *gin.Context) {
	if h.store == nil {
		success(c, []interface{}{})
		return
	}
	logs, err := h.store.ListImportLogs(20)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, logs)
}
