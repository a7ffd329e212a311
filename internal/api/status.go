package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rscboard/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Datasets   int              `json:"datasets"`   // 内存中的数据集数
	Imports    map[string]int   `json:"imports"`    // 按状态统计的导入次数
	LastImport *store.ImportLog `json:"lastImport"` // 最近一次成功导入
	Store      string           `json:"store"`      // ok / unavailable / disabled
	Uptime     string           `json:"uptime"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Datasets: h.coord.Count(),
		Imports:  map[string]int{},
		Store:    "disabled",
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
	}

	if h.store != nil {
		resp.Store = "ok"
		if err := h.store.Ping(); err != nil {
			logrus.WithError(err).Warn("import log store unavailable")
			resp.Store = "unavailable"
		}
		if counts, err := h.store.CountImports(); err == nil {
			resp.Imports = counts
		}
		if last, err := h.store.LastImport(); err == nil {
			resp.LastImport = last
		}
	}

	success(c, resp)
}
