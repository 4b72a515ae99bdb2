package session

import "fmt"

// EventKind is the DOM event type of a captured interaction.
type EventKind string

const (
	KindClick       EventKind = "click"
	KindDoubleClick EventKind = "dblclick"
	KindContextMenu EventKind = "contextmenu"
	KindDragOver    EventKind = "dragover"
)

// Kinds returns every interaction kind the recorder listens for.
func Kinds() []EventKind {
	return []EventKind{KindClick, KindDoubleClick, KindContextMenu, KindDragOver}
}

// ParseEventKind validates a DOM event type name.
func ParseEventKind(s string) (EventKind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unsupported event kind: %q", s)
}

// Label returns a human-readable name for the kind.
func (k EventKind) Label() string {
	switch k {
	case KindClick:
		return "click"
	case KindDoubleClick:
		return "double-click"
	case KindContextMenu:
		return "context-menu"
	case KindDragOver:
		return "drag-over"
	}
	return string(k)
}
