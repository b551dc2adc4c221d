package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/telemetry"
)

func setupRouter(messenger Messenger, tokens TokenIssuer, audit *telemetry.AuditEmitter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	authHandler := NewAuthHandler(messenger, tokens, audit)
	r.POST("/auth/signup", authHandler.Signup)
	r.POST("/auth/login", authHandler.Login)

	api := r.Group("/")
	api.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	userHandler := NewUserHandler(messenger)
	api.GET("/users", userHandler.Search)
	api.GET("/users/me", userHandler.Me)

	chatHandler := NewChatHandler(messenger)
	api.GET("/conversations", chatHandler.ListConversations)
	api.GET("/users/:user_id/messages", chatHandler.GetDirectMessages)
	api.GET("/groups/:group_id/messages", chatHandler.GetGroupMessages)
	api.POST("/messages", chatHandler.PostMessage)

	groupHandler := NewGroupHandler(messenger, audit)
	api.POST("/groups", groupHandler.CreateGroup)
	api.GET("/groups", groupHandler.ListGroups)
	api.POST("/groups/:group_id/members", groupHandler.AddMember)
	api.DELETE("/groups/:group_id/members/:user_id", groupHandler.RemoveMember)
	return r
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newAudit(publisher telemetry.Publisher) *telemetry.AuditEmitter {
	return telemetry.NewAuditEmitter(publisher, "audit.messenger", "messenger-service", "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func intPtr(v int) *int { return &v }

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		apperrors.ErrInvalidAddressing:  http.StatusBadRequest,
		apperrors.ErrEmptyName:          http.StatusBadRequest,
		apperrors.ErrInvalidCredentials: http.StatusUnauthorized,
		apperrors.ErrForbidden:          http.StatusForbidden,
		apperrors.ErrUserNotFound:       http.StatusNotFound,
		apperrors.ErrGroupNotFound:      http.StatusNotFound,
		apperrors.ErrDuplicateUsername:  http.StatusConflict,
		assert.AnError:                  http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}

func TestSignupIssuesToken(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	tokens := new(mocks.TokenManagerMock)
	publisher := new(mocks.PublisherMock)
	router := setupRouter(messenger, tokens, newAudit(publisher))

	user := models.User{ID: 4, Username: "alice", CreatedAt: time.Now().UTC()}
	messenger.On("CreateUser", mock.Anything, "alice", "secret1").Return(user, nil).Once()
	tokens.On("Issue", 4).Return("tok", nil).Once()
	publisher.On("Publish", mock.Anything, "audit.messenger", mock.AnythingOfType("telemetry.AuditEnvelope"), mock.Anything).Return(nil).Once()

	rec := doRequest(router, http.MethodPost, "/auth/signup", `{"username":"alice","password":"secret1"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, 4, resp.User.ID)
	assert.NotContains(t, rec.Body.String(), "password")

	messenger.AssertExpectations(t)
	tokens.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestSignupErrors(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	router := setupRouter(messenger, new(mocks.TokenManagerMock), nil)

	messenger.On("CreateUser", mock.Anything, "alice", "secret1").Return(nil, apperrors.ErrDuplicateUsername).Once()

	rec := doRequest(router, http.MethodPost, "/auth/signup", `{"username":"alice","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(router, http.MethodPost, "/auth/signup", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	messenger.AssertExpectations(t)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	publisher := new(mocks.PublisherMock)
	router := setupRouter(messenger, new(mocks.TokenManagerMock), newAudit(publisher))

	messenger.On("Login", mock.Anything, "alice", "wrong-pass").Return(nil, apperrors.ErrInvalidCredentials).Once()
	publisher.On("Publish", mock.Anything, "audit.messenger", mock.MatchedBy(func(env telemetry.AuditEnvelope) bool {
		return env.Payload.Level == "WARN" && env.UserID == nil
	}), mock.Anything).Return(nil).Once()

	rec := doRequest(router, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong-pass"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	messenger.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestSearchUsers(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	router := setupRouter(messenger, nil, nil)

	messenger.On("SearchUsers", mock.Anything, "ali").Return([]models.User{{ID: 2, Username: "Alice"}}, nil).Once()
	messenger.On("SearchUsers", mock.Anything, "zzz").Return(nil, nil).Once()

	rec := doRequest(router, http.MethodGet, "/users?q=ali", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"Alice"`)

	rec = doRequest(router, http.MethodGet, "/users?q=zzz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"users":[]}`, rec.Body.String())

	messenger.AssertExpectations(t)
}

func TestMeUnknownUser(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	router := setupRouter(messenger, nil, nil)

	messenger.On("AuthenticateLookup", mock.Anything, 1).Return(nil, apperrors.ErrUserNotFound).Once()

	rec := doRequest(router, http.MethodGet, "/users/me", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	messenger.AssertExpectations(t)
}

func TestListConversations(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	router := setupRouter(messenger, nil, nil)

	last := models.Message{ID: 9, SenderID: 2, RecipientID: intPtr(1), Content: "hey"}
	messenger.On("ListConversations", mock.Anything, 1).Return([]models.Conversation{{
		ID:          models.DirectConversationID(2),
		Type:        models.ConversationDirect,
		Counterpart: &models.User{ID: 2, Username: "bob"},
		LastMessage: &last,
	}}, nil).Once()

	rec := doRequest(router, http.MethodGet, "/conversations", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Conversations []map[string]any `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Conversations, 1)
	assert.Equal(t, "direct:2", resp.Conversations[0]["id"])
	assert.EqualValues(t, 0, resp.Conversations[0]["unreadCount"])
	messenger.AssertExpectations(t)
}

func TestListConversationsFailure(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	router := setupRouter(messenger, nil, nil)

	messenger.On("ListConversations", mock.Anything, 1).Return(nil, assert.AnError).Once()

	rec := doRequest(router, http.MethodGet, "/conversations", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	messenger.AssertExpectations(t)
}

func TestGetDirectMessages(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	router := setupRouter(messenger, nil, nil)

	target := models.MessageTarget{CounterpartID: intPtr(2)}
	messenger.On("ListMessages", mock.Anything, 1, target).Return([]models.Message{{ID: 1, Content: "hi"}}, nil).Once()

	rec := doRequest(router, http.MethodGet, "/users/2/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"content":"hi"`)

	rec = doRequest(router, http.MethodGet, "/users/abc/messages", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	messenger.AssertExpectations(t)
}

func TestGetGroupMessagesForbidden(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	router := setupRouter(messenger, nil, nil)

	messenger.On("ListMessages", mock.Anything, 1, models.MessageTarget{GroupID: intPtr(7)}).Return(nil, apperrors.ErrForbidden).Once()

	rec := doRequest(router, http.MethodGet, "/groups/7/messages", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	messenger.AssertExpectations(t)
}

func TestPostMessage(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	router := setupRouter(messenger, nil, nil)

	in := models.SendMessageInput{RecipientID: intPtr(2), Content: "hi"}
	stored := models.Message{ID: 3, SenderID: 1, RecipientID: intPtr(2), Content: "hi", CreatedAt: time.Now().UTC()}
	messenger.On("SendMessage", mock.Anything, 1, in).Return(stored, nil).Once()

	rec := doRequest(router, http.MethodPost, "/messages", `{"recipientId":2,"content":"hi"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 3, got.ID)
	assert.Nil(t, got.GroupID)
	messenger.AssertExpectations(t)
}

func TestPostMessageRejectsBadInput(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	router := setupRouter(messenger, nil, nil)

	both := models.SendMessageInput{RecipientID: intPtr(2), GroupID: intPtr(3), Content: "hi"}
	messenger.On("SendMessage", mock.Anything, 1, both).Return(nil, apperrors.ErrInvalidAddressing).Once()

	rec := doRequest(router, http.MethodPost, "/messages", `{"recipientId":2,"groupId":3,"content":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(router, http.MethodPost, "/messages", `{"recipientId":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	messenger.AssertExpectations(t)
}

func TestCreateGroup(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	publisher := new(mocks.PublisherMock)
	router := setupRouter(messenger, nil, newAudit(publisher))

	group := models.GroupWithMembers{
		Group:   models.Group{ID: 5, Name: "team", CreatorID: 1},
		Members: []models.User{{ID: 1}, {ID: 2}},
	}
	messenger.On("CreateGroup", mock.Anything, 1, "team", []int{2, 2}).Return(group, nil).Once()
	messenger.On("CreateGroup", mock.Anything, 1, " ", []int(nil)).Return(nil, apperrors.ErrEmptyName).Once()
	publisher.On("Publish", mock.Anything, "audit.messenger", mock.Anything, mock.Anything).Return(nil).Once()

	rec := doRequest(router, http.MethodPost, "/groups", `{"name":"team","memberIds":[2,2]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"creatorId":1`)
	assert.Contains(t, rec.Body.String(), `"members"`)

	rec = doRequest(router, http.MethodPost, "/groups", `{"name":" "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	messenger.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestListGroupsEmpty(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	router := setupRouter(messenger, nil, nil)

	messenger.On("ListGroups", mock.Anything, 1).Return(nil, nil).Once()

	rec := doRequest(router, http.MethodGet, "/groups", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"groups":[]}`, rec.Body.String())
	messenger.AssertExpectations(t)
}

func TestGroupMemberEndpoints(t *testing.T) {
	messenger := new(mocks.MessengerMock)
	router := setupRouter(messenger, nil, nil)

	group := models.GroupWithMembers{Group: models.Group{ID: 5, Name: "team"}}
	messenger.On("AddGroupMember", mock.Anything, 1, 5, 3).Return(group, nil).Once()
	messenger.On("AddGroupMember", mock.Anything, 1, 6, 3).Return(nil, apperrors.ErrGroupNotFound).Once()
	messenger.On("RemoveGroupMember", mock.Anything, 1, 5, 3).Return(group, nil).Once()
	messenger.On("RemoveGroupMember", mock.Anything, 1, 5, 4).Return(nil, apperrors.ErrForbidden).Once()

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/groups/5/members", `{"userId":3}`).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(router, http.MethodPost, "/groups/6/members", `{"userId":3}`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodPost, "/groups/5/members", `{}`).Code)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodDelete, "/groups/5/members/3", "").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(router, http.MethodDelete, "/groups/5/members/4", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodDelete, "/groups/5/members/x", "").Code)

	messenger.AssertExpectations(t)
}

type fixedCounter int

func (f fixedCounter) Count() int { return int(f) }

func TestDebugRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	disabled := gin.New()
	RegisterDebugRoutes(disabled, nil, fixedCounter(0), false)
	assert.Equal(t, http.StatusNotFound, doRequest(disabled, http.MethodGet, "/debug/audit-test", "").Code)

	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit.messenger", mock.MatchedBy(func(env telemetry.AuditEnvelope) bool {
		return env.Payload.Text == "audit test" && env.RequestID != ""
	}), mock.Anything).Return(nil).Once()

	enabled := gin.New()
	RegisterDebugRoutes(enabled, newAudit(publisher), fixedCounter(3), true)
	assert.Equal(t, http.StatusOK, doRequest(enabled, http.MethodGet, "/debug/audit-test", "").Code)

	rec := doRequest(enabled, http.MethodGet, "/debug/ws", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"connections":3}`, rec.Body.String())

	publisher.AssertExpectations(t)
}
