// Package http 券商连接管理的 HTTP 接口。
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/response"

	"github.com/franksiereveld/rationalmarkets/internal/connectivity/application"
	"github.com/franksiereveld/rationalmarkets/internal/connectivity/domain"
	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
)

// connectRequest 连接请求。凭据可选，缺省时使用启动配置。
type connectRequest struct {
	Broker       string      `json:"broker"`
	APIKey       string      `json:"api_key"`
	APISecret    string      `json:"api_secret"`
	ClientID     string      `json:"client_id"`
	ClientSecret string      `json:"client_secret"`
	Mode         domain.Mode `json:"mode"`
}

// ConnectivityHandler HTTP 处理器
// 负责处理券商连接相关的 HTTP 请求
type ConnectivityHandler struct {
	manager *application.Manager // 连接管理器
}

// NewConnectivityHandler 创建 HTTP 处理器实例
func NewConnectivityHandler(manager *application.Manager) *ConnectivityHandler {
	return &ConnectivityHandler{manager: manager}
}

// RegisterRoutes 注册路由
func (h *ConnectivityHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/connectivity")
	{
		api.POST("/connect", h.Connect)
		api.GET("/status", h.GetStatus)
	}
}

// Connect 探测券商连接。请求体可携带凭据覆盖启动配置。
func (h *ConnectivityHandler) Connect(c *gin.Context) {
	var req connectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}
	if req.Broker == "" {
		req.Broker = c.Query("broker")
	}

	broker := refdomain.Broker(req.Broker)
	if broker == "" {
		response.Success(c, h.manager.ConnectAll(c.Request.Context()))
		return
	}
	if !broker.Valid() {
		response.ErrorWithStatus(c, http.StatusBadRequest, "unknown broker", string(broker))
		return
	}

	creds := domain.Credentials{
		APIKey:       req.APIKey,
		APISecret:    req.APISecret,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Mode:         req.Mode,
	}
	if creds.Configured() {
		response.Success(c, h.manager.ConnectWith(c.Request.Context(), broker, creds))
		return
	}
	response.Success(c, h.manager.Connect(c.Request.Context(), broker))
}

// GetStatus 查看连接状态
func (h *ConnectivityHandler) GetStatus(c *gin.Context) {
	response.Success(c, h.manager.Status())
}
