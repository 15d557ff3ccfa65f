package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/zhouzirui/mindful/backend/internal/service/chat"
	"github.com/zhouzirui/mindful/backend/internal/service/companion"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
	// 单帧上限：4000 字符的消息经 JSON 转义后仍在此范围内
	maxFrameBytes = 32 << 10
)

// WebSocketHandler 实时对话通道
type WebSocketHandler struct {
	chatSvc      *chatservice.Service
	conversation *companion.Conversation
	upgrader     websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器。allowedOrigins 为空或包含 "*" 时不校验来源。
func NewWebSocketHandler(chatSvc *chatservice.Service, conversation *companion.Conversation, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc:      chatSvc,
		conversation: conversation,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

// ConfigMessage 连接级设置
type ConfigMessage struct {
	Name *string `json:"name,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type connectionState struct {
	sessionID string
	userName  string
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	state := &connectionState{sessionID: sessionID, userName: session.UserName}
	h.sendInfo(conn, sessionID, map[string]any{
		"type":    "connected",
		"persona": h.conversation.Responder().Persona().ID,
		"remote":  h.conversation.Responder().RemoteConfigured(),
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(conn, "session mismatch")
			continue
		}

		h.handleMessage(ctx, conn, state, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		h.handleTextMessage(ctx, conn, state, msg.Data)
	case "config":
		h.handleConfigMessage(conn, state, msg.Data)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) handleTextMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		h.sendError(conn, "invalid text payload")
		return
	}
	if err := companion.CheckLength(text.Text); err != nil {
		if errors.Is(err, companion.ErrMessageTooLong) {
			h.sendError(conn, err.Error())
		}
		return
	}

	h.sendInfo(conn, state.sessionID, map[string]any{"type": "typing"})

	exchange, err := h.conversation.Send(ctx, state.sessionID, state.userName, text.Text)
	if err != nil {
		if errors.Is(err, companion.ErrTurnInProgress) || errors.Is(err, companion.ErrMessageTooLong) {
			h.sendError(conn, err.Error())
			return
		}
		log.Printf("[websocket] turn failed session=%s: %v", state.sessionID, err)
		h.sendError(conn, "failed to process message")
		return
	}

	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":      "user",
		"id":        exchange.User.ID,
		"text":      exchange.User.Content,
		"sentiment": exchange.User.Sentiment,
	})

	if exchange.Crisis {
		h.sendInfo(conn, state.sessionID, map[string]any{
			"type":      "crisis",
			"resources": "/api/crisis/resources",
		})
	}

	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":      "ai",
		"id":        exchange.Reply.ID,
		"text":      exchange.Reply.Content,
		"sentiment": exchange.Reply.Sentiment,
		"isFinal":   true,
	})
}

func (h *WebSocketHandler) handleConfigMessage(conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var cfg ConfigMessage
	if err := json.Unmarshal(raw, &cfg); err != nil {
		h.sendError(conn, "invalid config payload")
		return
	}

	applyConfig(state, cfg)
	log.Printf("[websocket] config applied session=%s anonymous=%t", state.sessionID, state.userName == "")

	h.sendInfo(conn, state.sessionID, map[string]any{
		"type": "config",
		"name": state.userName,
	})
}

func applyConfig(state *connectionState, cfg ConfigMessage) {
	if cfg.Name != nil {
		state.userName = strings.TrimSpace(*cfg.Name)
	}
}

func (h *WebSocketHandler) sendInfo(conn *websocket.Conn, sessionID string, data map[string]any) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write info failed: %v", err)
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

// pingLoop 定期发送ping消息。WriteControl 可与 WriteJSON 并发调用。
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, candidate := range allowed {
			if candidate == "*" || strings.EqualFold(candidate, origin) {
				return true
			}
		}
		return false
	}
}
