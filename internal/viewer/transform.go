package viewer

import (
	"fmt"
	"math"
	"strconv"
)

// Scale bounds and input factors.
const (
	MinScale    = 0.3
	MaxScale    = 4.0
	ScaleStep   = 0.25
	WheelFactor = 0.01
)

// Transform is the affine transform applied to the displayed image: scale
// first, then translation in pixels.
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

// Identity is the transform of a freshly opened image.
func Identity() Transform {
	return Transform{Scale: 1}
}

// CSS renders t as a CSS transform value.
func (t Transform) CSS() string {
	return fmt.Sprintf("scale(%s) translate(%spx, %spx)", num(t.Scale), num(t.TranslateX), num(t.TranslateY))
}

// ZoomLabel is the percentage readout, e.g. "125%".
func (t Transform) ZoomLabel() string {
	return fmt.Sprintf("%d%%", int(math.Round(t.Scale*100)))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s Size) valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Point is a pointer position in client pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func clamp(s float64) float64 {
	return math.Min(MaxScale, math.Max(MinScale, s))
}

// WheelScale computes the scale that results from a wheel event. The
// proposed scale is clamped to [MinScale, MaxScale]; when it exceeds 1 it is
// further capped so a wide image never renders wider than the container and a
// tall image never renders taller. The cap may land below MinScale.
func WheelScale(current, deltaY float64, natural, container Size) float64 {
	proposed := clamp(current - deltaY*WheelFactor)
	if !natural.valid() || !container.valid() || proposed <= 1 {
		return proposed
	}

	imgRatio := natural.Width / natural.Height
	containerRatio := container.Width / container.Height
	switch {
	case imgRatio > containerRatio:
		return math.Min(proposed, container.Width/natural.Width)
	case imgRatio < containerRatio:
		return math.Min(proposed, container.Height/natural.Height)
	default:
		return proposed
	}
}
