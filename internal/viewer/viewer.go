// Package viewer implements the lightbox: a single-image modal with
// pointer-driven pan and wheel or button zoom.
//
// A Viewer is a state machine. Every Open issues a Token; completions
// (Loaded, LoadFailed, SetMetadata) carrying an older token are rejected with
// ErrStaleToken so a slow response for a previous image never overwrites the
// current one.
package viewer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ziadkadry99/photowall/internal/gallery"
	"github.com/ziadkadry99/photowall/internal/imageinfo"
)

// State is the lifecycle phase of the viewer.
type State int

const (
	Closed State = iota
	Loading
	Open
	Failed
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Loading:
		return "loading"
	case Open:
		return "open"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Token identifies one Open request.
type Token uint64

// ErrStaleToken is returned for completions belonging to a superseded request.
var ErrStaleToken = errors.New("viewer: stale request token")

// Readout placeholders.
const (
	LoadingLabel      = "loading"
	UnknownDimensions = "--- × ---"
)

// Metadata is the result of the metadata-only request for the active image.
type Metadata struct {
	Bytes int64
	Known bool
}

// Snapshot is a read-only view of the viewer for rendering.
type Snapshot struct {
	State        string              `json:"state"`
	Token        Token               `json:"token"`
	Entry        *gallery.ImageEntry `json:"entry,omitempty"`
	Transform    Transform           `json:"transform"`
	CSS          string              `json:"css"`
	ZoomLabel    string              `json:"zoom_label"`
	SizeLabel    string              `json:"size_label"`
	Dimensions   string              `json:"dimensions"`
	DownloadName string              `json:"download_name,omitempty"`
	ScrollLocked bool                `json:"scroll_locked"`
	Dragging     bool                `json:"dragging"`
	Error        string              `json:"error,omitempty"`
}

// Viewer owns the lightbox state. It is safe for concurrent use.
type Viewer struct {
	mu sync.Mutex

	state     State
	token     Token
	entry     *gallery.ImageEntry
	transform Transform
	natural   Size
	meta      *Metadata
	errMsg    string

	dragging  bool
	dragStart Point
}

// New returns a closed viewer.
func New() *Viewer {
	return &Viewer{transform: Identity()}
}

// Open starts loading entry. Any previous request is superseded.
func (v *Viewer) Open(entry gallery.ImageEntry) Token {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.token++
	v.state = Loading
	v.entry = &entry
	v.transform = Identity()
	v.natural = Size{}
	v.meta = nil
	v.errMsg = ""
	v.dragging = false
	return v.token
}

// Loaded reports that the image for token finished loading with the given
// natural dimensions.
func (v *Viewer) Loaded(token Token, naturalW, naturalH float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if token != v.token || v.state != Loading {
		return ErrStaleToken
	}
	v.state = Open
	v.natural = Size{Width: naturalW, Height: naturalH}
	return nil
}

// LoadFailed reports that the image for token could not be loaded.
func (v *Viewer) LoadFailed(token Token, cause error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if token != v.token || v.state != Loading {
		return ErrStaleToken
	}
	v.state = Failed
	v.errMsg = fmt.Sprintf("Unable to load image %s. Check that the image path is correct.", v.entry.Path)
	if cause != nil {
		v.errMsg += " (" + cause.Error() + ")"
	}
	return nil
}

// SetMetadata records the size readout for token. It may arrive before or
// after Loaded.
func (v *Viewer) SetMetadata(token Token, md Metadata) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if token != v.token || (v.state != Loading && v.state != Open) {
		return ErrStaleToken
	}
	v.meta = &md
	return nil
}

// Close hides the viewer from any state and invalidates the current token.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closeLocked()
}

func (v *Viewer) closeLocked() {
	v.token++
	v.state = Closed
	v.entry = nil
	v.errMsg = ""
	v.dragging = false
}

// Dismiss acknowledges a load failure. It reports whether the viewer was in
// the Failed state.
func (v *Viewer) Dismiss() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != Failed {
		return false
	}
	v.closeLocked()
	return true
}

// ZoomIn raises the scale by one step.
func (v *Viewer) ZoomIn() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == Open {
		v.transform.Scale = clamp(v.transform.Scale + ScaleStep)
	}
}

// ZoomOut lowers the scale by one step.
func (v *Viewer) ZoomOut() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == Open {
		v.transform.Scale = clamp(v.transform.Scale - ScaleStep)
	}
}

// Wheel applies a wheel event inside a container of the given size.
func (v *Viewer) Wheel(deltaY float64, container Size) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == Open {
		v.transform.Scale = WheelScale(v.transform.Scale, deltaY, v.natural, container)
	}
}

// Reset restores the identity transform.
func (v *Viewer) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == Open {
		v.transform = Identity()
		v.dragging = false
	}
}

// PointerDown starts a drag. Only the primary button (0) pans.
func (v *Viewer) PointerDown(button int, p Point) bool {
	if button != 0 {
		return false
	}
	return v.startDrag(p)
}

// PointerMove pans while a drag is in progress.
func (v *Viewer) PointerMove(p Point) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.moveLocked(p)
}

// PointerUp ends the drag.
func (v *Viewer) PointerUp() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dragging = false
}

// TouchStart begins a drag for a single-finger touch. Multi-finger touches
// cancel any drag.
func (v *Viewer) TouchStart(touches []Point) bool {
	if len(touches) != 1 {
		v.PointerUp()
		return false
	}
	return v.startDrag(touches[0])
}

// TouchMove pans while exactly one finger is down.
func (v *Viewer) TouchMove(touches []Point) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(touches) != 1 {
		v.dragging = false
		return
	}
	v.moveLocked(touches[0])
}

// TouchEnd ends the drag.
func (v *Viewer) TouchEnd() {
	v.PointerUp()
}

func (v *Viewer) startDrag(p Point) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != Open {
		return false
	}
	v.dragging = true
	v.dragStart = Point{X: p.X - v.transform.TranslateX, Y: p.Y - v.transform.TranslateY}
	return true
}

func (v *Viewer) moveLocked(p Point) {
	if !v.dragging || v.state != Open {
		return
	}
	v.transform.TranslateX = p.X - v.dragStart.X
	v.transform.TranslateY = p.Y - v.dragStart.Y
}

// State returns the current lifecycle phase.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Token returns the token of the current request.
func (v *Viewer) Token() Token {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.token
}

// Transform returns the current transform.
func (v *Viewer) Transform() Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.transform
}

// Snapshot captures everything the page needs to render the lightbox.
func (v *Viewer) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := Snapshot{
		State:        v.state.String(),
		Token:        v.token,
		Transform:    v.transform,
		CSS:          v.transform.CSS(),
		ZoomLabel:    v.transform.ZoomLabel(),
		Dimensions:   UnknownDimensions,
		ScrollLocked: v.state == Open || v.state == Failed,
		Dragging:     v.dragging,
		Error:        v.errMsg,
	}
	if v.entry == nil {
		return s
	}

	entry := *v.entry
	s.Entry = &entry
	s.DownloadName = gallery.DownloadName(entry.Path)
	if v.natural.valid() {
		s.Dimensions = fmt.Sprintf("%d × %d", int(v.natural.Width), int(v.natural.Height))
	}
	s.SizeLabel = LoadingLabel
	if v.meta != nil {
		s.SizeLabel = imageinfo.SizeLabel(v.meta.Bytes, v.meta.Known)
	}
	return s
}
