package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/photowall/internal/imageinfo"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/images/a.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", "1536")
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/ws/viewer", NewHandler(imageinfo.NewClient(time.Second)))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/viewer"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	// The session greets with the closed state.
	msg := read(t, conn)
	if msg.Type != "state" || msg.State.State != "closed" {
		t.Fatalf("expected initial closed state, got %+v", msg)
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg serverMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

// readUntil reads messages until ok accepts a state snapshot.
func readUntil(t *testing.T, conn *websocket.Conn, ok func(serverMessage) bool) serverMessage {
	t.Helper()
	for i := 0; i < 10; i++ {
		msg := read(t, conn)
		if msg.Type == "state" && ok(msg) {
			return msg
		}
	}
	t.Fatal("expected state not received")
	return serverMessage{}
}

func send(t *testing.T, conn *websocket.Conn, msg clientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestOpenLoadAndSize(t *testing.T) {
	server := setupServer(t)
	conn := dial(t, server)

	send(t, conn, clientMessage{Type: "open", Path: "/images/a.jpg"})
	msg := read(t, conn)
	if msg.State.State != "loading" {
		t.Fatalf("state: got %q, want loading", msg.State.State)
	}
	if msg.State.Entry == nil || msg.State.Entry.Title != "a" {
		t.Errorf("entry: got %+v, want title a", msg.State.Entry)
	}
	token := msg.State.Token

	msg = readUntil(t, conn, func(m serverMessage) bool { return m.State.SizeLabel == "1.5 KB" })
	if msg.State.Token != token {
		t.Errorf("token: got %d, want %d", msg.State.Token, token)
	}

	send(t, conn, clientMessage{Type: "loaded", Token: token, Width: 800, Height: 600})
	msg = readUntil(t, conn, func(m serverMessage) bool { return m.State.State == "open" })
	if msg.State.Dimensions != "800 × 600" {
		t.Errorf("dimensions: got %q, want %q", msg.State.Dimensions, "800 × 600")
	}
	if !msg.State.ScrollLocked {
		t.Error("expected scroll lock while open")
	}
	if msg.State.DownloadName != "a.jpg" {
		t.Errorf("download name: got %q, want a.jpg", msg.State.DownloadName)
	}
}

func TestZoomAndClose(t *testing.T) {
	server := setupServer(t)
	conn := dial(t, server)

	send(t, conn, clientMessage{Type: "open", Path: "/images/a.jpg", Title: "Sunset"})
	token := read(t, conn).State.Token
	send(t, conn, clientMessage{Type: "loaded", Token: token, Width: 100, Height: 100})
	readUntil(t, conn, func(m serverMessage) bool { return m.State.State == "open" })

	send(t, conn, clientMessage{Type: "zoom_in"})
	msg := readUntil(t, conn, func(m serverMessage) bool { return m.State.ZoomLabel != "100%" })
	if msg.State.ZoomLabel != "125%" {
		t.Errorf("zoom label: got %q, want 125%%", msg.State.ZoomLabel)
	}
	if msg.State.Entry.Title != "Sunset" {
		t.Errorf("title: got %q, want Sunset", msg.State.Entry.Title)
	}

	send(t, conn, clientMessage{Type: "close"})
	msg = readUntil(t, conn, func(m serverMessage) bool { return m.State.State == "closed" })
	if msg.State.ScrollLocked {
		t.Error("expected scroll unlocked after close")
	}
}

func TestStaleLoadIgnored(t *testing.T) {
	server := setupServer(t)
	conn := dial(t, server)

	send(t, conn, clientMessage{Type: "open", Path: "/images/a.jpg"})
	first := read(t, conn).State.Token
	send(t, conn, clientMessage{Type: "open", Path: "/images/b.png"})
	second := readUntil(t, conn, func(m serverMessage) bool { return m.State.Token != first }).State.Token

	send(t, conn, clientMessage{Type: "loaded", Token: first, Width: 10, Height: 10})
	msg := readUntil(t, conn, func(m serverMessage) bool { return m.State.SizeLabel != "1.5 KB" })
	if msg.State.State != "loading" {
		t.Errorf("stale completion changed state to %q", msg.State.State)
	}
	if msg.State.Token != second {
		t.Errorf("token: got %d, want %d", msg.State.Token, second)
	}
}

func TestLoadFailedAndDismiss(t *testing.T) {
	server := setupServer(t)
	conn := dial(t, server)

	send(t, conn, clientMessage{Type: "open", Path: "/images/missing.jpg"})
	token := read(t, conn).State.Token

	send(t, conn, clientMessage{Type: "load_failed", Token: token})
	msg := readUntil(t, conn, func(m serverMessage) bool { return m.State.State == "failed" })
	if !strings.Contains(msg.State.Error, "/images/missing.jpg") {
		t.Errorf("error should name the path, got %q", msg.State.Error)
	}

	send(t, conn, clientMessage{Type: "dismiss"})
	readUntil(t, conn, func(m serverMessage) bool { return m.State.State == "closed" })
}

func TestInvalidMessages(t *testing.T) {
	server := setupServer(t)
	conn := dial(t, server)

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"not json", "{", "invalid message format"},
		{"unknown type", `{"type":"spin"}`, "unknown message type"},
		{"open without path", `{"type":"open"}`, "requires a path"},
		{"open non-image", `{"type":"open","path":"/notes.txt"}`, "not an image path"},
		{"open absolute url", `{"type":"open","path":"http://example.com/a.jpg"}`, "relative to the site root"},
		{"open scheme-relative", `{"type":"open","path":"//example.com/a.jpg"}`, "relative to the site root"},
		{"open relative", `{"type":"open","path":"images/a.jpg"}`, "relative to the site root"},
		{"open backslash", `{"type":"open","path":"/\\\\example.com/a.jpg"}`, "relative to the site root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.payload)); err != nil {
				t.Fatalf("write: %v", err)
			}
			msg := read(t, conn)
			if msg.Type != "error" {
				t.Fatalf("expected error type, got %q", msg.Type)
			}
			if !strings.Contains(msg.Error, tt.want) {
				t.Errorf("error: got %q, want it to contain %q", msg.Error, tt.want)
			}
		})
	}
}

func TestOpenDoesNotFetchForeignHosts(t *testing.T) {
	var hits atomic.Int32
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Length", "123456")
		w.WriteHeader(http.StatusOK)
	}))
	defer foreign.Close()

	server := setupServer(t)
	conn := dial(t, server)

	send(t, conn, clientMessage{Type: "open", Path: foreign.URL + "/secret.jpg"})
	msg := read(t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error type, got %q", msg.Type)
	}

	// A valid open afterwards proves the session is still usable and flushes
	// any lookup that might have been started.
	send(t, conn, clientMessage{Type: "open", Path: "/images/a.jpg"})
	readUntil(t, conn, func(m serverMessage) bool { return m.State.SizeLabel == "1.5 KB" })

	if n := hits.Load(); n != 0 {
		t.Errorf("foreign host received %d requests, want 0", n)
	}
}
