// Package http 参考数据的 HTTP 接口。
package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/response"

	"github.com/franksiereveld/rationalmarkets/internal/referencedata/application"
)

// ReferenceDataHandler HTTP 处理器
// 负责处理标的与券商符号映射相关的 HTTP 请求
type ReferenceDataHandler struct {
	app *application.ReferenceDataService // 参考数据应用服务
}

// NewReferenceDataHandler 创建 HTTP 处理器实例
func NewReferenceDataHandler(app *application.ReferenceDataService) *ReferenceDataHandler {
	return &ReferenceDataHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *ReferenceDataHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/referencedata")
	{
		api.GET("/instruments", h.ListInstruments)
		api.GET("/instruments/:ticker/mappings", h.ListMappings)
	}
}

// ListInstruments 列出全部标的
func (h *ReferenceDataHandler) ListInstruments(c *gin.Context) {
	response.Success(c, h.app.ListInstruments())
}

// ListMappings 列出标的在各券商下的符号映射
func (h *ReferenceDataHandler) ListMappings(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))
	mappings := h.app.ListMappings(ticker)
	if len(mappings) == 0 {
		response.ErrorWithStatus(c, http.StatusNotFound, "no mappings for ticker", ticker)
		return
	}
	response.Success(c, mappings)
}
