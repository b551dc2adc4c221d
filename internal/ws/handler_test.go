package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/apperrors"
	"messenger-service/internal/models"
)

type stubTokens map[string]int

func (s stubTokens) ValidateToken(token string) (int, error) {
	id, ok := s[token]
	if !ok {
		return 0, errors.New("invalid token")
	}
	return id, nil
}

type stubUsers map[int]models.User

func (s stubUsers) AuthenticateLookup(_ context.Context, userID int) (models.User, error) {
	u, ok := s[userID]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return u, nil
}

func newWSServer(t *testing.T, hub *Hub) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := stubTokens{"alice-token": 1, "ghost-token": 99}
	users := stubUsers{1: {ID: 1, Username: "alice"}}

	router := gin.New()
	router.GET("/ws", NewHandler(hub, tokens, users, discardLogger()).Handle)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestHandlerDeliversEventsOverWebsocket(t *testing.T) {
	hub := NewHub(stubEnricher{}, Options{PingInterval: time.Second}, discardLogger())
	url := newWSServer(t, hub)

	client, _, err := websocket.DefaultDialer.Dial(url+"?token=alice-token", nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Len(t, hub.Connections(1), 1)

	hub.OnMessageCreated(context.Background(), directMessage(5, 1, 2))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)

	var event map[string]any
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.EqualValues(t, 5, event["id"])
	assert.EqualValues(t, 1, event["senderId"])
	assert.EqualValues(t, 2, event["recipientId"])
	assert.Contains(t, event, "sender")
	assert.Contains(t, event, "recipient")
	assert.Contains(t, event, "createdAt")
	assert.NotContains(t, event, "groupId")
	assert.NotContains(t, event, "group")

	require.NoError(t, client.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandlerRejectsBadCredentials(t *testing.T) {
	hub := NewHub(stubEnricher{}, Options{}, discardLogger())
	url := newWSServer(t, hub)

	for _, query := range []string{"", "?token=nope", "?token=ghost-token"} {
		_, resp, err := websocket.DefaultDialer.Dial(url+query, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	assert.Equal(t, 0, hub.Count())
}
