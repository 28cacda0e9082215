package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

func TestServePumpsEvents(t *testing.T) {
	hub := NewHub(zap.NewNop())
	alice := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(r.Context(), conn, alice)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for !hub.Connected(alice) {
		select {
		case <-ctx.Done():
			t.Fatal("connection never registered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	ev, _ := NewEvent("balances_updated", []uuid.UUID{alice}, map[string]string{"k": "v"})
	hub.Deliver(ev)

	_, msg, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(msg); got != `{"type":"balances_updated","data":{"k":"v"}}` {
		t.Errorf("message = %s", got)
	}
}
