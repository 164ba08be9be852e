// Package http 策略分配与执行的 HTTP 接口。
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	execapp "github.com/franksiereveld/rationalmarkets/internal/execution/application"
	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
	"github.com/franksiereveld/rationalmarkets/internal/strategy/application"
)

// StrategyHandler HTTP 处理器
// 负责处理策略分配与执行相关的 HTTP 请求
type StrategyHandler struct {
	allocator *application.AllocationService // 分配应用服务
	executor  *execapp.ExecutionService      // 执行应用服务
}

// NewStrategyHandler 创建 HTTP 处理器实例
func NewStrategyHandler(allocator *application.AllocationService, executor *execapp.ExecutionService) *StrategyHandler {
	return &StrategyHandler{allocator: allocator, executor: executor}
}

// RegisterRoutes 注册路由
func (h *StrategyHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/strategy")
	{
		api.GET("/summary", h.GetSummary)
		api.GET("/list", h.ListStrategies)
		api.POST("/allocate", h.Allocate)
		api.POST("/execute", h.Execute)
	}
}

type allocateRequest struct {
	Strategy      string          `json:"strategy"`
	Broker        string          `json:"broker" binding:"required"`
	TotalCapital  decimal.Decimal `json:"total_capital"`
	InvestPercent decimal.Decimal `json:"allocation_percent"`
}

const defaultStrategy = "global-ai-long-short"

func (r *allocateRequest) toCommand() application.AllocateCommand {
	strategy := r.Strategy
	if strategy == "" {
		strategy = defaultStrategy
	}
	return application.AllocateCommand{
		Strategy:      strategy,
		Broker:        refdomain.Broker(r.Broker),
		TotalCapital:  r.TotalCapital,
		InvestPercent: r.InvestPercent,
	}
}

// Allocate 计算资金分配
func (h *StrategyHandler) Allocate(c *gin.Context) {
	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.allocator.Allocate(c.Request.Context(), req.toCommand())
	if err != nil {
		logging.Error(c.Request.Context(), "Allocation failed", "strategy", req.Strategy, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Execute 计算资金分配并提交订单
func (h *StrategyHandler) Execute(c *gin.Context) {
	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	cmd := req.toCommand()

	allocation, err := h.allocator.Allocate(c.Request.Context(), cmd)
	if err != nil {
		logging.Error(c.Request.Context(), "Allocation failed", "strategy", cmd.Strategy, "error", err)
		response.Error(c, err)
		return
	}

	execution, err := h.executor.Execute(c.Request.Context(), cmd.Broker, cmd.Strategy, allocation.Orders)
	if err != nil {
		logging.Error(c.Request.Context(), "Execution failed", "strategy", cmd.Strategy, "error", err)
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"allocation": allocation,
		"execution":  execution,
	})
}

// GetSummary 获取策略摘要
func (h *StrategyHandler) GetSummary(c *gin.Context) {
	name := c.DefaultQuery("strategy", defaultStrategy)
	summary, err := h.allocator.Summary(name)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to get strategy summary", "strategy", name, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}

// ListStrategies 列出全部策略
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	response.Success(c, h.allocator.ListStrategies())
}
