package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
)

type UserHandler struct {
	messenger Messenger
}

func NewUserHandler(messenger Messenger) *UserHandler {
	return &UserHandler{messenger: messenger}
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.messenger.AuthenticateLookup(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Search lists users whose name contains q, ignoring case. An empty q lists everyone.
func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.messenger.SearchUsers(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
