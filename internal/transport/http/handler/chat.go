package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"admissions-advisor/internal/app"
	"admissions-advisor/internal/transport/http/middleware"
	"admissions-advisor/internal/transport/http/response"
)

// ChatHandler serves the browser-facing chat contract. /chat, /clear_chat and
// /api/current_chat_history keep their legacy wire shapes ({"response": ...},
// {"error": ...}, {"status": "ok"}); the staff API uses the shared envelope.
type ChatHandler struct {
	chatService *app.ChatService
}

type ChatRequest struct {
	Message string `json:"message"`
}

type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	token, ok := middleware.SessionToken(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session not resolved"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	reply, err := h.chatService.SendMessage(c.Request.Context(), token, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMessageEmpty), errors.Is(err, app.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No message provided"})
		case errors.Is(err, app.ErrGenerator):
			c.JSON(http.StatusBadGateway, gin.H{"error": "The advisor is temporarily unavailable. Please try again."})
		case errors.Is(err, app.ErrSessionNotFound):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Session expired. Please retry."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": reply})
}

// ClearChat handles POST /clear_chat. Always succeeds, even with nothing to clear.
func (h *ChatHandler) ClearChat(c *gin.Context) {
	token, ok := middleware.SessionToken(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session not resolved"})
		return
	}

	if err := h.chatService.ClearChat(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clear chat failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CurrentHistory handles GET /api/current_chat_history, used by the UI to
// restore the thread on reload.
func (h *ChatHandler) CurrentHistory(c *gin.Context) {
	token, ok := middleware.SessionToken(c)
	if !ok {
		c.JSON(http.StatusOK, []historyEntry{})
		return
	}

	messages, err := h.chatService.GetHistory(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load history failed"})
		return
	}

	entries := make([]historyEntry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, historyEntry{Role: m.Role, Content: m.Content})
	}
	c.JSON(http.StatusOK, entries)
}

// ListSessions handles GET /api/v1/sessions for the staff dashboard, newest
// activity first.
func (h *ChatHandler) ListSessions(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	sessions, err := h.chatService.ListSessions(limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list sessions failed")
		return
	}
	response.OK(c, sessions)
}
