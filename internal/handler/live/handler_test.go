package live

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	liveproto "github.com/zhouzirui/z-meeting/internal/live"
	"github.com/zhouzirui/z-meeting/internal/model/profile"
	"github.com/zhouzirui/z-meeting/internal/model/session"
	meetingService "github.com/zhouzirui/z-meeting/internal/service/meeting"
	"github.com/zhouzirui/z-meeting/internal/store"
)

func newLiveBackend(t *testing.T) (*httptest.Server, *meetingService.Service) {
	t.Helper()
	svc := meetingService.NewService(store.NewMemoryStore(), nil)
	r := chi.NewRouter()
	New(svc, zerolog.Nop()).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func dialLive(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + sessionID + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func createSession(t *testing.T, svc *meetingService.Service) session.Session {
	t.Helper()
	ctx := context.Background()
	p, err := svc.CreateProfile(ctx, profile.Input{Name: "Sarah", Role: "Product Manager"})
	if err != nil {
		t.Fatalf("CreateProfile err: %v", err)
	}
	sess, err := svc.CreateSession(ctx, session.ForProfile(p.ID, p.Name))
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	return sess
}

func TestLiveConversation(t *testing.T) {
	srv, svc := newLiveBackend(t)
	sess := createSession(t, svc)
	conn := dialLive(t, srv, sess.ID)

	var greeting liveproto.Envelope
	if err := conn.ReadJSON(&greeting); err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if greeting.Type != liveproto.TypeConnected || greeting.SessionID != sess.ID {
		t.Fatalf("unexpected greeting: %+v", greeting)
	}
	if greeting.Message != "Connected to meeting as Sarah" {
		t.Fatalf("unexpected greeting message: %q", greeting.Message)
	}

	if err := conn.WriteJSON(liveproto.Envelope{Type: liveproto.TypeMessage, ID: "m-1", Content: "status update?", Speaker: "Manager"}); err != nil {
		t.Fatalf("write message: %v", err)
	}

	var reply liveproto.Envelope
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply.Type != liveproto.TypeAIResponse {
		t.Fatalf("expected ai_response, got %q", reply.Type)
	}
	if reply.Speaker != "Sarah" || reply.ReplyTo != "m-1" {
		t.Fatalf("unexpected reply attribution: %+v", reply)
	}
	if !strings.HasPrefix(reply.Content, "Thanks, Manager.") {
		t.Fatalf("unexpected reply content: %q", reply.Content)
	}
	if _, err := time.Parse(time.RFC3339Nano, reply.Timestamp); err != nil {
		t.Fatalf("timestamp not RFC3339: %q", reply.Timestamp)
	}

	if err := conn.WriteJSON(liveproto.Envelope{Type: liveproto.TypePing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var pong liveproto.Envelope
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if pong.Type != liveproto.TypePong {
		t.Fatalf("expected pong, got %q", pong.Type)
	}

	got, err := svc.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if len(got.ConversationHistory) != 1 || got.ConversationHistory[0].UserMessage != "Manager: status update?" {
		t.Fatalf("live turn not recorded: %+v", got.ConversationHistory)
	}
}

func TestLiveUnknownSession(t *testing.T) {
	srv, _ := newLiveBackend(t)
	conn := dialLive(t, srv, "missing")

	var frame map[string]string
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if frame["error"] != "Session not found" {
		t.Fatalf("unexpected frame: %v", frame)
	}

	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal closure, got %v", err)
	}
}

func TestLiveIgnoresUnknownTypes(t *testing.T) {
	srv, svc := newLiveBackend(t)
	sess := createSession(t, svc)
	conn := dialLive(t, srv, sess.ID)

	var greeting liveproto.Envelope
	if err := conn.ReadJSON(&greeting); err != nil {
		t.Fatalf("read greeting: %v", err)
	}

	if err := conn.WriteJSON(map[string]string{"type": "typing"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(liveproto.Envelope{Type: liveproto.TypePing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	var next liveproto.Envelope
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read: %v", err)
	}
	if next.Type != liveproto.TypePong {
		t.Fatalf("expected the unknown frame to be ignored, got %q", next.Type)
	}
}
