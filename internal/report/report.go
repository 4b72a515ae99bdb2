// Package report turns a recorded session into a downloadable document,
// one captured interaction per page.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fakeyudi/clicktrail/internal/session"
)

// ErrNothingToExport is returned when a session has no recorded entries.
// Callers treat it as a no-op rather than a failure.
var ErrNothingToExport = errors.New("nothing to export")

// Report is the renderable view of a session.
type Report struct {
	Session  session.Session `json:"session"`
	Name     string          `json:"name"`     // sanitized start path, used as the file stem
	Recorded int             `json:"recorded"` // entries in the session, including the discarded first one
	Entries  []session.Entry `json:"entries"`
}

// Artifact is a rendered report ready to be written or downloaded.
type Artifact struct {
	Filename string
	Data     []byte
	Pages    int // entry pages laid out
}

// Build prepares a report from snap. The first recorded entry is always
// discarded. Build never mutates snap.
func Build(snap session.Snapshot) (*Report, error) {
	if len(snap.Entries) == 0 {
		return nil, ErrNothingToExport
	}
	rest := make([]session.Entry, len(snap.Entries)-1)
	copy(rest, snap.Entries[1:])
	return &Report{
		Session:  snap.Session,
		Name:     SanitizeFilename(snap.Session.StartPath),
		Recorded: len(snap.Entries),
		Entries:  rest,
	}, nil
}

// Export builds and renders snap.
func Export(snap session.Snapshot, r Renderer) (*Artifact, error) {
	rep, err := Build(snap)
	if err != nil {
		return nil, err
	}
	data, err := r.Render(rep)
	if errors.Is(err, ErrNothingToExport) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return &Artifact{
		Filename: rep.Name + r.Ext(),
		Data:     data,
		Pages:    len(rep.Entries),
	}, nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_", `\`, "_", "?", "_", "%", "_", "*", "_",
	":", "_", "|", "_", `"`, "_", "<", "_", ">", "_",
)

// DefaultName is used when a start path sanitizes to nothing.
const DefaultName = "clicktrail"

// SanitizeFilename replaces each of / \ ? % * : | " < > with an underscore.
func SanitizeFilename(startPath string) string {
	name := filenameReplacer.Replace(startPath)
	if name == "" {
		return DefaultName
	}
	return name
}
