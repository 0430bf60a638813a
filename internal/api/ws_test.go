package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalconnect/backend/internal/scoring"
	"github.com/goalconnect/backend/pkg/logger"
)

func hubHandler(hub *Hub) http.Handler {
	return http.HandlerFunc(hub.HandleConnection)
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d (got %d)", want, hub.ClientCount())
}

func TestHubBroadcastsScoreUpdates(t *testing.T) {
	hub := NewHub(logger.NewNop())

	srv := httptest.NewServer(hubHandler(hub))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	waitForClients(t, hub, 1)

	hub.PublishScoreUpdate(scoring.ScoreUpdate{
		HabitID:     10,
		NewScore:    0.798,
		ScoreChange: 0.051,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string              `json:"type"`
		Payload scoring.ScoreUpdate `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "score_update", msg.Type)
	assert.Equal(t, int64(10), msg.Payload.HabitID)
	assert.InDelta(t, 0.798, msg.Payload.NewScore, 1e-9)
}

func TestHubRemovesDisconnectedClients(t *testing.T) {
	hub := NewHub(logger.NewNop())

	srv := httptest.NewServer(hubHandler(hub))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// Broadcasting with no clients is a no-op.
	hub.PublishScoreUpdate(scoring.ScoreUpdate{HabitID: 10})
}
