package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"rscboard/internal/importer"
	"rscboard/internal/report"
	"rscboard/internal/store"
)

// Handler API 处理器
type Handler struct {
	coord     *importer.Coordinator
	store     *store.Store
	settings  report.Settings
	downloads *exportDownloadStore
	logo      *logoCache
	maxUpload int64
	startedAt time.Time
}

// Options 处理器参数
type Options struct {
	Settings       report.Settings
	LogoPath       string
	MaxUploadBytes int64
}

// NewHandler 创建 API 处理器
func NewHandler(coord *importer.Coordinator, st *store.Store, opts Options) *Handler {
	return &Handler{
		coord:     coord,
		store:     st,
		settings:  opts.Settings,
		downloads: newExportDownloadStore(),
		logo:      newLogoCache(opts.LogoPath),
		maxUpload: opts.MaxUploadBytes,
		startedAt: time.Now(),
	}
}

// RegisterRoutes 注册路由；importGuards 作用于上传接口（如限流）
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, importGuards ...gin.HandlerFunc) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	router.GET("/logo", h.GetLogo)

	// 数据导入
	guarded := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, importGuards...), fn)
	}
	router.POST("/import", guarded(h.Import)...)
	router.POST("/import/stream", guarded(h.ImportStream)...)
	router.GET("/imports", h.ListImports)

	// 报表
	router.GET("/views", h.ListViews)
	router.GET("/datasets/:id", h.GetDataset)
	router.GET("/datasets/:id/options", h.GetOptions)
	router.POST("/datasets/:id/reports/:view", h.RenderReport)

	// 导出
	router.POST("/datasets/:id/reports/:view/export", h.ExportReport)
	router.GET("/export/download/:token", h.DownloadExport)
}
