package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
)

// ChatHandler serves conversations and messages.
type ChatHandler struct {
	messenger Messenger
}

func NewChatHandler(messenger Messenger) *ChatHandler {
	return &ChatHandler{messenger: messenger}
}

// ListConversations returns the caller's conversations, most recent first.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	conversations, err := h.messenger.ListConversations(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	if conversations == nil {
		conversations = []models.Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetDirectMessages returns the messages exchanged with :user_id.
func (h *ChatHandler) GetDirectMessages(c *gin.Context) {
	counterpartID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	h.listMessages(c, models.MessageTarget{CounterpartID: &counterpartID})
}

// GetGroupMessages returns the log of :group_id.
func (h *ChatHandler) GetGroupMessages(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}
	h.listMessages(c, models.MessageTarget{GroupID: &groupID})
}

func (h *ChatHandler) listMessages(c *gin.Context, target models.MessageTarget) {
	msgs, err := h.messenger.ListMessages(c.Request.Context(), c.GetInt("userID"), target)
	if err != nil {
		writeError(c, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a message; live connections are notified by the store.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		RecipientID *int   `json:"recipientId"`
		GroupID     *int   `json:"groupId"`
		Content     string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messenger.SendMessage(c.Request.Context(), c.GetInt("userID"), models.SendMessageInput{
		RecipientID: req.RecipientID,
		GroupID:     req.GroupID,
		Content:     req.Content,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
