package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"spacesBack/internal/autoquote/events"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/autoquote" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitConnected(t *testing.T, h *Hub, id int64) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !h.Connected(id) {
		if time.Now().After(deadline) {
			t.Fatalf("user %d never registered", id)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublishReachesRecipient(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn := dial(t, srv, "?user_id=5")
	defer conn.Close()
	waitConnected(t, h, 5)

	h.Publish(context.Background(), events.Event{Type: events.QuoteSent, QuoteID: "q1", Recipients: []int64{5, 6}})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got events.Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != events.QuoteSent || got.QuoteID != "q1" {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestServeWSRequiresUser(t *testing.T) {
	h := NewHub(nil)
	rec := httptest.NewRecorder()
	h.ServeWS(rec, httptest.NewRequest("GET", "/ws/autoquote", nil))
	if rec.Code != 401 {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
