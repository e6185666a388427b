// Package live drives a lightbox viewer over a websocket. Each connection
// owns one viewer; the browser forwards its DOM events and renders the
// snapshots sent back.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/photowall/internal/gallery"
	"github.com/ziadkadry99/photowall/internal/imageinfo"
	"github.com/ziadkadry99/photowall/internal/viewer"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientMessage is any event sent by the page.
type clientMessage struct {
	Type      string         `json:"type"`
	Path      string         `json:"path,omitempty"`
	Title     string         `json:"title,omitempty"`
	Token     viewer.Token   `json:"token,omitempty"`
	Width     float64        `json:"width,omitempty"`
	Height    float64        `json:"height,omitempty"`
	DeltaY    float64        `json:"delta_y,omitempty"`
	Container viewer.Size    `json:"container"`
	Button    int            `json:"button,omitempty"`
	X         float64        `json:"x,omitempty"`
	Y         float64        `json:"y,omitempty"`
	Touches   []viewer.Point `json:"touches,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// serverMessage is either a state snapshot or an error.
type serverMessage struct {
	Type  string           `json:"type"`
	State *viewer.Snapshot `json:"state,omitempty"`
	Error string           `json:"error,omitempty"`
}

// Handler upgrades requests to viewer sessions.
type Handler struct {
	// Meta issues the metadata-only request for opened images. Nil disables
	// size lookups and leaves the readout unknown.
	Meta *imageinfo.Client
	// Origin returns the scheme and host image paths are resolved against.
	// Defaults to the origin of the upgrade request.
	Origin func(r *http.Request) string
	Logger *slog.Logger
}

// NewHandler returns a Handler using meta for size lookups.
func NewHandler(meta *imageinfo.Client) *Handler {
	return &Handler{Meta: meta, Logger: slog.Default()}
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// ServeHTTP upgrades the connection and runs the session until the peer
// goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger().Warn("live: websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	origin := requestOrigin(r)
	if h.Origin != nil {
		origin = h.Origin(r)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s := &session{
		conn:   conn,
		viewer: viewer.New(),
		meta:   h.Meta,
		origin: strings.TrimSuffix(origin, "/"),
		log:    h.logger(),
	}
	s.run(ctx)
	cancel()
	s.wg.Wait()
}

// session is one connected page.
type session struct {
	conn   *websocket.Conn
	viewer *viewer.Viewer
	meta   *imageinfo.Client
	origin string
	log    *slog.Logger

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func (s *session) run(ctx context.Context) {
	s.sendState()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("live: websocket read", "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError("invalid message format")
			continue
		}
		if err := s.dispatch(ctx, msg); err != nil {
			s.sendError(err.Error())
			continue
		}
		s.sendState()
	}
}

// dispatch applies msg to the viewer. Completions for superseded requests
// are dropped without an error.
func (s *session) dispatch(ctx context.Context, msg clientMessage) error {
	v := s.viewer
	switch msg.Type {
	case "open":
		if msg.Path == "" {
			return errors.New("open requires a path")
		}
		if !gallery.IsImagePath(msg.Path) {
			return fmt.Errorf("not an image path: %s", msg.Path)
		}
		if !sitePath(msg.Path) {
			return fmt.Errorf("path must be relative to the site root: %s", msg.Path)
		}
		entry := gallery.ImageEntry{Path: msg.Path, Title: msg.Title}
		if entry.Title == "" {
			entry.Title = gallery.TitleFromPath(msg.Path)
		}
		token := v.Open(entry)
		s.lookupSize(ctx, token, msg.Path)
	case "loaded":
		if err := v.Loaded(msg.Token, msg.Width, msg.Height); err != nil {
			s.log.Debug("live: dropped load completion", "token", msg.Token)
		}
	case "load_failed":
		var cause error
		if msg.Reason != "" {
			cause = errors.New(msg.Reason)
		}
		if err := v.LoadFailed(msg.Token, cause); err != nil {
			s.log.Debug("live: dropped load failure", "token", msg.Token)
		}
	case "close":
		v.Close()
	case "dismiss":
		v.Dismiss()
	case "zoom_in":
		v.ZoomIn()
	case "zoom_out":
		v.ZoomOut()
	case "wheel":
		v.Wheel(msg.DeltaY, msg.Container)
	case "reset":
		v.Reset()
	case "pointer_down":
		v.PointerDown(msg.Button, viewer.Point{X: msg.X, Y: msg.Y})
	case "pointer_move":
		v.PointerMove(viewer.Point{X: msg.X, Y: msg.Y})
	case "pointer_up":
		v.PointerUp()
	case "touch_start":
		v.TouchStart(msg.Touches)
	case "touch_move":
		v.TouchMove(msg.Touches)
	case "touch_end":
		v.TouchEnd()
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
	return nil
}

// sitePath reports whether p resolves against the session's own origin.
func sitePath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, `\`)
}

// lookupSize issues the HEAD request for path in the background and pushes
// a fresh snapshot when it lands for the still-current token.
func (s *session) lookupSize(ctx context.Context, token viewer.Token, path string) {
	if s.meta == nil {
		return
	}
	u := s.origin + path

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		size, known, err := s.meta.Head(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Debug("live: size lookup failed", "url", u, "error", err)
		}
		if err := s.viewer.SetMetadata(token, viewer.Metadata{Bytes: size, Known: known}); err != nil {
			return
		}
		s.sendState()
	}()
}

func (s *session) sendState() {
	snap := s.viewer.Snapshot()
	s.write(serverMessage{Type: "state", State: &snap})
}

func (s *session) sendError(message string) {
	s.write(serverMessage{Type: "error", Error: message})
}

func (s *session) write(msg serverMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		s.log.Debug("live: websocket write", "error", err)
	}
}
