package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"poker-quiz-service/internal/app"
	filestore "poker-quiz-service/internal/infra/file"
	"poker-quiz-service/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := filestore.NewScoreStore(filepath.Join(t.TempDir(), "scores.json"))
	members := memory.NewMemberDirectory(memory.NewStaticMemberSource(map[string]string{"u1": "Alice"}), time.Minute)
	service, err := app.NewQuizService(context.Background(), memory.NewSessionRegistry(), store, memory.NewRolePlatform(), members)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	wsHandler := NewWSHandler(service, "sekret")

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg map[string]any) (string, map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	return reply.Type, reply.Payload
}

func TestWebSocketQuizFlow(t *testing.T) {
	server := newTestServer(t)

	author := dial(t, server, "userId=author")
	typ, payload := roundTrip(t, author, map[string]any{
		"type": "create",
		"payload": map[string]any{
			"quizId":   "q1",
			"question": "Best starting hand?",
			"choices":  "AhAd|KhKd|72o",
			"correct":  "A,C",
			"points":   10,
		},
	})
	if typ != "quiz" {
		t.Fatalf("expected quiz reply, got %s: %v", typ, payload)
	}

	player := dial(t, server, "userId=u1")
	typ, payload = roundTrip(t, player, map[string]any{
		"type":    "toggle",
		"payload": map[string]any{"quizId": "q1", "letter": "A"},
	})
	if typ != "selection" {
		t.Fatalf("expected selection, got %s: %v", typ, payload)
	}
	roundTrip(t, player, map[string]any{
		"type":    "toggle",
		"payload": map[string]any{"quizId": "q1", "letter": "B"},
	})

	typ, payload = roundTrip(t, player, map[string]any{
		"type":    "validate",
		"payload": map[string]any{"quizId": "q1"},
	})
	if typ != "submission" {
		t.Fatalf("expected submission, got %s: %v", typ, payload)
	}
	if gained, _ := payload["gained"].(float64); gained != 9.5 {
		t.Fatalf("expected gained 9.5, got %v", payload["gained"])
	}

	typ, payload = roundTrip(t, author, map[string]any{
		"type":    "reveal",
		"payload": map[string]any{"quizId": "q1"},
	})
	if typ != "reveal" {
		t.Fatalf("expected reveal, got %s: %v", typ, payload)
	}

	typ, _ = roundTrip(t, author, map[string]any{
		"type":    "reveal",
		"payload": map[string]any{"quizId": "q1"},
	})
	if typ != "error" {
		t.Fatalf("second reveal should error, got %s", typ)
	}
}

func TestWebSocketAdminGate(t *testing.T) {
	server := newTestServer(t)

	player := dial(t, server, "userId=u1")
	typ, payload := roundTrip(t, player, map[string]any{
		"type":    "resetScores",
		"payload": map[string]any{},
	})
	if typ != "error" {
		t.Fatalf("expected permission error, got %s: %v", typ, payload)
	}

	admin := dial(t, server, "userId=boss&adminToken=sekret")
	typ, _ = roundTrip(t, admin, map[string]any{
		"type":    "addPoints",
		"payload": map[string]any{"userId": "u1", "points": 50},
	})
	if typ != "ack" {
		t.Fatalf("expected ack for admin action, got %s", typ)
	}

	typ, payload = roundTrip(t, admin, map[string]any{
		"type":    "myRank",
		"payload": map[string]any{},
	})
	if typ != "myRank" {
		t.Fatalf("expected myRank, got %s: %v", typ, payload)
	}
}
