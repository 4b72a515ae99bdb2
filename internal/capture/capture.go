// Package capture defines the contract for rasterizing the current page.
package capture

import (
	"context"
	"encoding/base64"
)

// Capturer produces an encoded still image (PNG) of the whole page as it
// looks at the moment of the call. Implementations may fail; callers treat a
// failure as "skip this entry".
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Func adapts an ordinary function to the Capturer interface.
type Func func(ctx context.Context) ([]byte, error)

func (f Func) Capture(ctx context.Context) ([]byte, error) { return f(ctx) }

const pngDataURLPrefix = "data:image/png;base64,"

// DataURL encodes a PNG payload as a data URL.
func DataURL(png []byte) string {
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(png)
}
