package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/usecase"
)

const defaultPollInterval = 500 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler pushes submission status to a client until judging finishes.
type WebSocketHandler struct {
	getUC        *usecase.GetSubmissionUsecase
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(getUC *usecase.GetSubmissionUsecase, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		getUC:        getUC,
		pollInterval: defaultPollInterval,
		logger:       logger,
	}
}

// Stream handles GET /api/submissions/:id/stream (WebSocket upgrade)
func (h *WebSocketHandler) Stream(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID format"})
		return
	}

	// Resolve before upgrading so unknown ids get a plain 404.
	s, err := h.getUC.Execute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return
		}
		h.logger.Error("Get submission failed", zap.Error(err), zap.String("submission_id", idStr))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("WebSocket connection opened", zap.String("submission_id", idStr))

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(s.View()); err != nil {
			h.logger.Debug("WebSocket write failed (client disconnected)", zap.Error(err))
			return
		}
		if s.Status.IsTerminal() {
			h.logger.Debug("Submission reached terminal state, closing WebSocket", zap.String("submission_id", idStr))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(s.Status)))
			return
		}

		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}

		s, err = h.getUC.Execute(c.Request.Context(), id)
		if err != nil {
			_ = conn.WriteJSON(gin.H{"error": "Submission not found"})
			return
		}
	}
}
