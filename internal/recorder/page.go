package recorder

import (
	"context"
	"time"

	"github.com/fakeyudi/clicktrail/internal/session"
)

// Interaction is one page-level event delivered by a Page.
type Interaction struct {
	Kind    session.EventKind
	Target  string          // element reference understood by the Annotator
	Element session.Element // metadata read when the event fired
	Path    string          // page path when the event fired
	At      time.Time
}

// Page is the live page the recorder listens to.
//
// Subscribe registers handler for the given kinds and returns a function that
// removes the subscription. Handlers must return quickly; they are typically
// invoked from the page's event dispatch loop.
type Page interface {
	Subscribe(kinds []session.EventKind, handler func(Interaction)) (unsubscribe func())
	Path(ctx context.Context) (string, error)
}
