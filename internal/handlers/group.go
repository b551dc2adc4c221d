package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
	"messenger-service/internal/telemetry"
)

// GroupHandler manages groups and their members.
type GroupHandler struct {
	messenger Messenger
	audit     *telemetry.AuditEmitter
}

func NewGroupHandler(messenger Messenger, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{messenger: messenger, audit: audit}
}

// CreateGroup creates a group owned by the caller.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		MemberIDs []int  `json:"memberIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	group, err := h.messenger.CreateGroup(c.Request.Context(), userID, req.Name, req.MemberIDs)
	if err != nil {
		writeError(c, err)
		return
	}

	actor := strconv.Itoa(userID)
	h.audit.Emit(c.Request.Context(), "INFO", "group created: "+group.Name, requestIDFromContext(c), &actor)
	c.JSON(http.StatusCreated, group)
}

// ListGroups returns the groups the caller belongs to.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.messenger.ListGroups(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	if groups == nil {
		groups = []models.GroupWithMembers{}
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// AddMember adds a user to the group. Callers must be members.
func (h *GroupHandler) AddMember(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}

	var req struct {
		UserID int `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.messenger.AddGroupMember(c.Request.Context(), c.GetInt("userID"), groupID, req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// RemoveMember removes :user_id from the group; members may remove themselves.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	groupID, ok := parseIDParam(c, "group_id")
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	group, err := h.messenger.RemoveGroupMember(c.Request.Context(), c.GetInt("userID"), groupID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}
