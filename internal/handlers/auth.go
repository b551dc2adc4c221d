package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
	"messenger-service/internal/telemetry"
)

// AuthHandler serves signup and login.
type AuthHandler struct {
	messenger Messenger
	tokens    TokenIssuer
	audit     *telemetry.AuditEmitter
}

func NewAuthHandler(messenger Messenger, tokens TokenIssuer, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{messenger: messenger, tokens: tokens, audit: audit}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Signup registers a user and returns a session token.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.messenger.CreateUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondWithSession(c, http.StatusCreated, user, "user signed up")
}

// Login exchanges credentials for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.messenger.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			h.audit.Emit(c.Request.Context(), "WARN", "login failed for "+req.Username, requestIDFromContext(c), nil)
		}
		writeError(c, err)
		return
	}
	h.respondWithSession(c, http.StatusOK, user, "user logged in")
}

func (h *AuthHandler) respondWithSession(c *gin.Context, status int, user models.User, auditText string) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	userID := strconv.Itoa(user.ID)
	h.audit.Emit(c.Request.Context(), "INFO", auditText, requestIDFromContext(c), &userID)
	c.JSON(status, sessionResponse{User: user, Token: token})
}
