package api

import (
	"errors"
	"net/http"
	"time"

	"chatrelay/config"
	"chatrelay/middleware"
	"chatrelay/models"
	"chatrelay/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// HistoryLimit 聊天历史最多返回条数
	HistoryLimit = 50
	// ExportLimit 导出最多条数
	ExportLimit = 1000
)

// ChatHandler 聊天处理器
type ChatHandler struct {
	cfg     *config.Config
	chats   ChatStore
	gateway Gateway
	log     *zap.Logger
	now     func() time.Time
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(cfg *config.Config, chats ChatStore, gateway Gateway, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		cfg:     cfg,
		chats:   chats,
		gateway: gateway,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ChatRequest 聊天请求
type ChatRequest struct {
	Message string `json:"message" binding:"required" example:"What is the capital of France?"`
}

// ChatResponse 聊天响应
type ChatResponse struct {
	Response string `json:"response"`
}

// ChatHistoryResponse 聊天历史响应
type ChatHistoryResponse struct {
	Chats []models.ChatRecord `json:"chats"`
}

// Chat 发送消息给 AI 并保存本轮对话
// @Summary AI聊天
// @Description 将消息转发给生成式 AI，成功后保存聊天记录。模型不携带历史上下文。
// @Tags 聊天
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChatRequest true "聊天请求"
// @Success 200 {object} ChatResponse "AI回复"
// @Failure 400 {object} ErrorResponse "缺少 message"
// @Failure 401 {object} ErrorResponse "未授权"
// @Failure 500 {object} ErrorResponse "网关不可用或调用失败"
// @Router /api/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Message is required")
		return
	}

	aiText, err := h.gateway.Converse(c.Request.Context(), req.Message)
	if err != nil {
		if errors.Is(err, service.ErrGatewayUnavailable) {
			InternalError(c, service.ErrGatewayUnavailable.Error())
			return
		}
		h.log.Error("ai gateway", zap.String("user_id", userID), zap.Error(err))
		InternalError(c, h.cfg.SafeErrorMessage(err, service.ErrServiceError.Error()))
		return
	}

	// AI 调用已产生费用，保存失败不回滚也不重试
	record := models.ChatRecord{
		UserID:      userID,
		UserMessage: req.Message,
		AIResponse:  aiText,
		Timestamp:   h.now(),
	}
	if err := h.chats.Create(c.Request.Context(), &record); err != nil {
		h.log.Error("save chat record", zap.String("user_id", userID), zap.Error(err))
		InternalError(c, h.cfg.SafeErrorMessage(err, "Failed to save chat"))
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Response: aiText})
}

// ChatHistory 获取聊天历史
// @Summary 获取聊天历史
// @Description 返回当前用户最近 50 条聊天记录，按时间倒序。
// @Tags 聊天
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ChatHistoryResponse "获取成功"
// @Failure 401 {object} ErrorResponse "未授权"
// @Failure 500 {object} ErrorResponse "服务器错误"
// @Router /api/chat-history [get]
func (h *ChatHandler) ChatHistory(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	list, err := h.chats.ListRecent(c.Request.Context(), userID, HistoryLimit)
	if err != nil {
		h.log.Error("list chat history", zap.String("user_id", userID), zap.Error(err))
		InternalError(c, h.cfg.SafeErrorMessage(err, "Failed to load chat history"))
		return
	}
	if len(list) > HistoryLimit {
		list = list[:HistoryLimit]
	}
	if list == nil {
		list = []models.ChatRecord{}
	}

	c.JSON(http.StatusOK, ChatHistoryResponse{Chats: list})
}
