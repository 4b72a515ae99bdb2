// Package annotate draws and removes the transient highlight that marks the
// element involved in a captured interaction.
package annotate

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoOverlay is returned by With when fn succeeded but no overlay could be
// drawn around the target.
var ErrNoOverlay = errors.New("no overlay")

// Rect is a rectangle in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageRect converts a viewport-relative rectangle to page coordinates.
func PageRect(client Rect, scrollX, scrollY float64) Rect {
	return Rect{
		X:      client.X + scrollX,
		Y:      client.Y + scrollY,
		Width:  client.Width,
		Height: client.Height,
	}
}

// Overlay identifies a highlight frame currently drawn on the page and the
// element it surrounds.
type Overlay struct {
	ID     string
	Target string
	Rect   Rect
}

// Annotator shows and hides highlight overlays. Target is an opaque element
// reference understood by the implementation.
type Annotator interface {
	Show(ctx context.Context, target string) (Overlay, error)
	Hide(ctx context.Context, overlay Overlay) error
}

// With shows an overlay on target, runs fn, and hides the overlay on every
// exit path of fn, including a panic. If Show fails fn still runs, without an
// overlay, and a successful fn yields an error wrapping ErrNoOverlay.
// A Hide failure is reported only when fn itself succeeded.
func With(ctx context.Context, a Annotator, target string, fn func(ctx context.Context) error) (err error) {
	overlay, err := a.Show(ctx, target)
	if err != nil {
		if fnErr := fn(ctx); fnErr != nil {
			return fnErr
		}
		return fmt.Errorf("%w: %w", ErrNoOverlay, err)
	}
	defer func() {
		// Hide runs on a context that outlives cancellation of the capture step.
		hideErr := a.Hide(context.WithoutCancel(ctx), overlay)
		if err == nil && hideErr != nil {
			err = fmt.Errorf("hide overlay: %w", hideErr)
		}
	}()
	return fn(ctx)
}
