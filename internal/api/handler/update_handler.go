package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YakushevDanila/tanuki-bot3/internal/bot"
	"github.com/YakushevDanila/tanuki-bot3/internal/notify"
	"github.com/YakushevDanila/tanuki-bot3/pkg/response"
)

// UpdateRequest is one inbound chat message from the platform adapter.
type UpdateRequest struct {
	ChatID int64  `json:"chat_id" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// UpdateHandler receives chat updates and feeds them to the dispatcher.
type UpdateHandler struct {
	dispatcher *bot.Dispatcher
	sender     notify.Sender
	chunkDelay time.Duration
	logger     *zap.Logger
}

// NewUpdateHandler creates an UpdateHandler.
func NewUpdateHandler(dispatcher *bot.Dispatcher, sender notify.Sender, chunkDelay time.Duration, logger *zap.Logger) *UpdateHandler {
	return &UpdateHandler{
		dispatcher: dispatcher,
		sender:     sender,
		chunkDelay: chunkDelay,
		logger:     logger,
	}
}

// HandleUpdate processes one conversational turn.
// POST /api/v1/updates
func (h *UpdateHandler) HandleUpdate(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "chat_id and text are required")
		return
	}

	ctx := c.Request.Context()
	replies := h.dispatcher.HandleMessage(ctx, req.ChatID, req.Text)

	// Push replies through the outbound sender with a pacing delay
	// between multi-part reports; they are also echoed in the response
	// for synchronous clients.
	for i, text := range replies {
		if i > 0 && h.chunkDelay > 0 {
			time.Sleep(h.chunkDelay)
		}
		if err := h.sender.Send(ctx, req.ChatID, text); err != nil {
			h.logger.Error("pushing reply failed", zap.Int64("chat_id", req.ChatID), zap.Error(err))
		}
	}

	response.OK(c, gin.H{"replies": replies})
}
