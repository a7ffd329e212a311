package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rscboard/internal/calculator"
	"rscboard/internal/filter"
	"rscboard/internal/model"
	"rscboard/internal/parser"
	"rscboard/internal/report"
)

// 业务码
const (
	CodeOK                = 0
	CodeBadRequest        = 1001
	CodeUnsupportedFormat = 2001
	CodeMissingColumn     = 2002
	CodeEmptyResult       = 3001
	CodeNotFound          = 4004
	CodeInternal          = 5000
)

// 消息级别：info 为可恢复提示，error 为本次操作失败
const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Level   string      `json:"level,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Level:   LevelError,
	})
}

// emptyResponse 空结果属于正常状态，HTTP 200
func emptyResponse(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeEmptyResult,
		Message: message,
		Level:   LevelInfo,
		Data:    gin.H{"empty": true},
	})
}

// writeError 将领域错误映射为响应
func writeError(c *gin.Context, err error) {
	var missing *model.MissingColumnError
	switch {
	case errors.Is(err, filter.ErrEmptyResult), errors.Is(err, calculator.ErrEmptyInput):
		emptyResponse(c, err.Error())
	case errors.As(err, &missing):
		c.JSON(http.StatusUnprocessableEntity, Response{
			Code:    CodeMissingColumn,
			Message: err.Error(),
			Level:   LevelError,
			Data:    gin.H{"missing": missingLabels(missing)},
		})
	case errors.Is(err, parser.ErrUnsupportedFileFormat):
		errorResponse(c, http.StatusUnsupportedMediaType, CodeUnsupportedFormat, err.Error())
	case errors.Is(err, parser.ErrSheetNotFound):
		errorResponse(c, http.StatusUnprocessableEntity, CodeMissingColumn, err.Error())
	case errors.Is(err, report.ErrUnknownView):
		errorResponse(c, http.StatusNotFound, CodeNotFound, err.Error())
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		errorResponse(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}

func missingLabels(err *model.MissingColumnError) []string {
	out := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		out = append(out, f.Label())
	}
	return out
}
