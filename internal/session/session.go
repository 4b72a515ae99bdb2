package session

import "time"

// Session is the recorder's lifecycle metadata for one start-to-export run.
type Session struct {
	ID        string     `json:"id"`
	StartPath string     `json:"start_path"` // page path when the session was armed
	StartedAt time.Time  `json:"started_at"`
	StoppedAt *time.Time `json:"stopped_at,omitempty"`
}

// Entry records a single captured interaction. Every field is populated;
// missing metadata is replaced by sentinels before an Entry is stored.
type Entry struct {
	Image              []byte    `json:"image"` // PNG, base64 in JSON
	ElementDescription string    `json:"element_description"`
	PagePath           string    `json:"page_path"`
	Label              string    `json:"label"`
	Content            string    `json:"content"`
	EventKind          EventKind `json:"event_kind"`
	CapturedAt         time.Time `json:"captured_at"`
}

// Snapshot is a read-only copy of a session and the entries recorded so far.
type Snapshot struct {
	Session Session `json:"session"`
	Entries []Entry `json:"entries"`
}

// NewEntry builds an Entry for an interaction on el captured as image.
func NewEntry(image []byte, kind EventKind, el Element, pagePath string, at time.Time) Entry {
	if pagePath == "" {
		pagePath = "/"
	}
	return Entry{
		Image:              image,
		ElementDescription: Describe(el),
		PagePath:           pagePath,
		Label:              ResolveLabel(el.AriaLabel, el.LabelAttr, el.InnerText, el.TextContent),
		Content:            ResolveContent(el.TextContent),
		EventKind:          kind,
		CapturedAt:         at,
	}
}
