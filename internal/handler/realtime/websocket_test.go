package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/mindful/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/mindful/backend/internal/service/chat"
	"github.com/zhouzirui/mindful/backend/internal/service/companion"
)

func startServer(t *testing.T, userName string) (*httptest.Server, string) {
	t.Helper()
	chatSvc := chatservice.NewService()
	responder := companion.NewResponder(companion.Config{Persona: persona.Seed()[0]})
	handler := NewWebSocketHandler(chatSvc, companion.NewConversation(chatSvc, responder), []string{"*"})

	session, err := chatSvc.CreateSession(context.Background(), persona.DefaultID, userName)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, session.ID
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type resultMessage struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func readResult(t *testing.T, conn *websocket.Conn) resultMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg resultMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read err: %v", err)
	}
	return msg
}

func expectKind(t *testing.T, msg resultMessage, kind string) {
	t.Helper()
	if msg.Type != "result" || msg.Data["type"] != kind {
		t.Fatalf("expected result %s, got %+v", kind, msg)
	}
}

func TestTextTurnOverWebSocket(t *testing.T) {
	server, sessionID := startServer(t, "Sam")
	conn := dial(t, server, sessionID)

	expectKind(t, readResult(t, conn), "connected")

	if err := conn.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": "I feel stressed"}}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	expectKind(t, readResult(t, conn), "typing")
	user := readResult(t, conn)
	expectKind(t, user, "user")
	if user.Data["sentiment"] != "negative" {
		t.Fatalf("expected negative sentiment, got %v", user.Data["sentiment"])
	}
	reply := readResult(t, conn)
	expectKind(t, reply, "ai")
	if text, _ := reply.Data["text"].(string); !strings.Contains(text, "Sam") {
		t.Fatalf("expected reply addressed to Sam, got %q", text)
	}
}

func TestCrisisTurnOverWebSocket(t *testing.T) {
	server, sessionID := startServer(t, "")
	conn := dial(t, server, sessionID)
	readResult(t, conn)

	if err := conn.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": "I want to hurt myself"}}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	expectKind(t, readResult(t, conn), "typing")
	expectKind(t, readResult(t, conn), "user")
	expectKind(t, readResult(t, conn), "crisis")
	reply := readResult(t, conn)
	expectKind(t, reply, "ai")
	if text, _ := reply.Data["text"].(string); !strings.Contains(text, "988") {
		t.Fatalf("expected crisis resources, got %q", text)
	}
}

func TestUnsupportedMessageType(t *testing.T) {
	server, sessionID := startServer(t, "")
	conn := dial(t, server, sessionID)
	readResult(t, conn)

	if err := conn.WriteJSON(map[string]any{"type": "audio"}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	if msg := readResult(t, conn); msg.Type != "error" {
		t.Fatalf("expected error message, got %+v", msg)
	}
}

func TestLongTextRejected(t *testing.T) {
	server, sessionID := startServer(t, "")
	conn := dial(t, server, sessionID)
	readResult(t, conn)

	long := strings.Repeat("a", companion.MaxMessageLength+1)
	if err := conn.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": long}}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	msg := readResult(t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %+v", msg)
	}
	if text, _ := msg.Data["message"].(string); !strings.Contains(text, "at most 4000") {
		t.Fatalf("unexpected error text %q", text)
	}

	// 连接仍可继续使用
	if err := conn.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": "thanks"}}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	expectKind(t, readResult(t, conn), "typing")
}

func TestOversizedFrameClosesConnection(t *testing.T) {
	server, sessionID := startServer(t, "")
	conn := dial(t, server, sessionID)
	readResult(t, conn)

	huge := strings.Repeat("a", maxFrameBytes*2)
	if err := conn.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": huge}}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg resultMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("expected connection to be closed, got %+v", msg)
	}
}

func TestUnknownSessionRejected(t *testing.T) {
	server, _ := startServer(t, "")

	resp, err := http.Get(server.URL + "/ws/missing")
	if err != nil {
		t.Fatalf("get err: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestApplyConfigUpdatesName(t *testing.T) {
	state := &connectionState{sessionID: "session", userName: "Sam"}
	name := "  Alex "

	applyConfig(state, ConfigMessage{Name: &name})
	if state.userName != "Alex" {
		t.Fatalf("expected name Alex, got %q", state.userName)
	}

	applyConfig(state, ConfigMessage{})
	if state.userName != "Alex" {
		t.Fatalf("expected name unchanged, got %q", state.userName)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://mindful.example"})

	req := httptest.NewRequest(http.MethodGet, "/ws/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	if check(req) {
		t.Fatal("expected foreign origin rejected")
	}
	req.Header.Set("Origin", "https://mindful.example")
	if !check(req) {
		t.Fatal("expected allowed origin accepted")
	}
}
