// Package http 行情查询的 HTTP 接口。
package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/franksiereveld/rationalmarkets/internal/marketdata/application"
	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
)

// MarketDataHandler HTTP 处理器
// 负责处理行情查询相关的 HTTP 请求
type MarketDataHandler struct {
	app *application.MarketDataService // 行情应用服务
}

// NewMarketDataHandler 创建 HTTP 处理器实例
func NewMarketDataHandler(app *application.MarketDataService) *MarketDataHandler {
	return &MarketDataHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *MarketDataHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/marketdata")
	{
		api.GET("/price", h.GetPrice)
		api.GET("/return", h.GetReturn)
		api.GET("/history", h.GetHistory)
	}
}

// GetPrice 获取当前价格快照
func (h *MarketDataHandler) GetPrice(c *gin.Context) {
	ticker := strings.ToUpper(c.Query("ticker"))
	if ticker == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "ticker is required", "")
		return
	}
	broker := refdomain.Broker(c.Query("broker"))
	if broker != "" && !broker.Valid() {
		response.ErrorWithStatus(c, http.StatusBadRequest, "unknown broker", string(broker))
		return
	}

	snap, err := h.app.Price(c.Request.Context(), ticker, broker)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to get price", "ticker", ticker, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, snap)
}

// GetReturn 获取最近六个月的区间收益率
func (h *MarketDataHandler) GetReturn(c *gin.Context) {
	ticker := strings.ToUpper(c.Query("ticker"))
	if ticker == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "ticker is required", "")
		return
	}

	ret, err := h.app.Return(c.Request.Context(), ticker)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to get return", "ticker", ticker, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"ticker": ticker, "six_month_return": ret})
}

// GetHistory 获取快照落库历史
func (h *MarketDataHandler) GetHistory(c *gin.Context) {
	ticker := strings.ToUpper(c.Query("ticker"))
	if ticker == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "ticker is required", "")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}

	snaps, err := h.app.History(c.Request.Context(), ticker, limit)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to get history", "ticker", ticker, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, snaps)
}
