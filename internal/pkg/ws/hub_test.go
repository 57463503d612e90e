package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/subs_go_server/internal/pkg/pubsub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.Equal(t, 0, len(hub.clients))
}

func TestHub_ConnectionCount_Empty(t *testing.T) {
	hub := NewHub()

	count := hub.ConnectionCount()
	assert.Equal(t, 0, count)
}

func TestHub_IsOnline_NoConnections(t *testing.T) {
	hub := NewHub()

	online := hub.IsOnline(123)
	assert.False(t, online)
}

func TestHub_SendToUser_UserNotOnline(t *testing.T) {
	hub := NewHub()

	msg := &Message{
		Type: "test",
		Data: map[string]string{"key": "value"},
	}

	// 离线用户不算错误
	err := hub.SendToUser(123, msg)
	assert.NoError(t, err)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client := &Client{UserID: 456}
	hub.Register(client)

	assert.True(t, hub.IsOnline(456))
	assert.Equal(t, 1, hub.ConnectionCount())

	hub.Unregister(client)

	assert.False(t, hub.IsOnline(456))
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_MultipleConnectionsSameUser(t *testing.T) {
	hub := NewHub()

	// 同一用户多标签页
	c1 := &Client{UserID: 300}
	c2 := &Client{UserID: 300}
	hub.Register(c1)
	hub.Register(c2)

	assert.Equal(t, 2, hub.ConnectionCount())
	assert.True(t, hub.IsOnline(300))

	hub.Unregister(c1)
	assert.True(t, hub.IsOnline(300))
	assert.Equal(t, 1, hub.ConnectionCount())

	hub.Unregister(c2)
	assert.False(t, hub.IsOnline(300))
}

func TestHub_WithRealWebSocket(t *testing.T) {
	hub := NewHub()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}

		client := &Client{
			UserID: 100,
			Conn:   conn,
		}
		hub.Register(client)

		time.Sleep(100 * time.Millisecond)

		hub.Unregister(client)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)

	assert.True(t, hub.IsOnline(100))
	assert.Equal(t, 1, hub.ConnectionCount())

	time.Sleep(100 * time.Millisecond)
}

func TestHub_SendToUser_WithConnection(t *testing.T) {
	hub := NewHub()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := &Client{
			UserID: 200,
			Conn:   conn,
		}
		hub.Register(client)

		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)

	msg := &Message{
		Type: "notification",
		Data: map[string]string{"content": "Hello"},
	}
	err = hub.SendToUser(200, msg)
	assert.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, received, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(received), "notification")
	assert.Contains(t, string(received), "Hello")
}

func TestHub_DispatchEvent(t *testing.T) {
	hub := NewHub()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := &Client{
			UserID: 77,
			Conn:   conn,
		}
		hub.Register(client)

		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)

	hub.DispatchEvent(&pubsub.SubscriptionEvent{
		Type:     pubsub.EventRequestApproved,
		UserID:   77,
		PlanName: "专业版",
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, received, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(received), "subscription_updated")
	assert.Contains(t, string(received), pubsub.EventRequestApproved)
	assert.Contains(t, string(received), "专业版")
}

func TestHub_MultipleUsers(t *testing.T) {
	hub := NewHub()

	var userID int64 = 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		userID++
		client := &Client{
			UserID: userID,
			Conn:   conn,
		}
		hub.Register(client)

		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		conns = append(conns, conn)
	}

	defer func() {
		for _, conn := range conns {
			conn.Close()
		}
	}()

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 3, hub.ConnectionCount())
	assert.True(t, hub.IsOnline(1))
	assert.True(t, hub.IsOnline(2))
	assert.True(t, hub.IsOnline(3))
	assert.False(t, hub.IsOnline(4))
}

func TestMessage_Structure(t *testing.T) {
	msg := &Message{
		Type: "subscription_updated",
		Data: map[string]interface{}{
			"user_id": 123,
			"plan_id": 5,
		},
	}

	assert.Equal(t, "subscription_updated", msg.Type)
	data := msg.Data.(map[string]interface{})
	assert.Equal(t, 123, data["user_id"])
	assert.Equal(t, 5, data["plan_id"])
}
