package api

import (
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// logoFallback 无 logo 文件时前端显示的文字
const logoFallback = "Canon"

// logoCache logo 只读取一次
type logoCache struct {
	path string
	once sync.Once
	data []byte
	mime string
}

func newLogoCache(path string) *logoCache {
	return &logoCache{path: path}
}

func (l *logoCache) get() ([]byte, string) {
	l.once.Do(func() {
		if l.path == "" {
			return
		}
		data, err := os.ReadFile(l.path)
		if err != nil {
			logrus.WithError(err).WithField("path", l.path).Info("logo not available, using text fallback")
			return
		}
		l.data = data
		l.mime = http.DetectContentType(data)
	})
	return l.data, l.mime
}

// GetLogo 获取 logo 图片
// GET /api/logo
func (h *Handler) GetLogo(c *gin.Context) {
	data, mime := h.logo.get()
	if len(data) == 0 {
		c.JSON(http.StatusNotFound, Response{
			Code:    CodeNotFound,
			Message: "logo not available",
			Level:   LevelInfo,
			Data:    gin.H{"fallback": logoFallback},
		})
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, mime, data)
}
