package session_test

import (
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/clicktrail/internal/session"
)

func TestResolveLabelPriority(t *testing.T) {
	cases := []struct {
		name                                string
		aria, labelAttr, inner, textContent string
		want                                string
	}{
		{"aria wins", "Close dialog", "close", "X", "X", "Close dialog"},
		{"label attribute", "", "close", "X", "X", "close"},
		{"visible text", "", "", "Save", "Save draft", "Save"},
		{"text content", "", "", "", "hidden text", "hidden text"},
		{"whitespace counts as empty", "  ", "\n", "", "body", "body"},
		{"sentinel", "", "", "", "", session.NoLabel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := session.ResolveLabel(tc.aria, tc.labelAttr, tc.inner, tc.textContent)
			if got != tc.want {
				t.Errorf("ResolveLabel() = %q, want %q", got, tc.want)
			}
		})
	}
}

// Feature: clicktrail, Property 1: Label resolution never yields an empty label
func TestResolveLabelNeverEmpty(t *testing.T) {
	candidate := rapid.OneOf(rapid.Just(""), rapid.Just("   "), rapid.StringN(1, 30, -1))

	rapid.Check(t, func(t *rapid.T) {
		aria := candidate.Draw(t, "aria")
		attr := candidate.Draw(t, "attr")
		inner := candidate.Draw(t, "inner")
		text := candidate.Draw(t, "text")

		got := session.ResolveLabel(aria, attr, inner, text)
		if strings.TrimSpace(got) == "" {
			t.Fatalf("ResolveLabel(%q, %q, %q, %q) returned blank label %q", aria, attr, inner, text, got)
		}

		// The first non-blank candidate always wins.
		for _, c := range []string{aria, attr, inner, text} {
			if strings.TrimSpace(c) != "" {
				if got != c {
					t.Fatalf("expected first non-blank candidate %q, got %q", c, got)
				}
				return
			}
		}
		if got != session.NoLabel {
			t.Fatalf("expected sentinel %q, got %q", session.NoLabel, got)
		}
	})
}

func TestResolveContent(t *testing.T) {
	if got := session.ResolveContent(""); got != session.NoContent {
		t.Errorf("ResolveContent(\"\") = %q, want %q", got, session.NoContent)
	}
	if got := session.ResolveContent("Submit"); got != "Submit" {
		t.Errorf("ResolveContent(\"Submit\") = %q, want %q", got, "Submit")
	}
}

func TestDescribe(t *testing.T) {
	got := session.Describe(session.Element{Tag: "button", ID: "save", ClassName: "btn primary"})
	want := "Tag: BUTTON\nID: save\nClasses: btn primary\n"
	if got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestNewEntryPopulatesEveryField(t *testing.T) {
	at := time.Unix(1_700_000_000, 0).UTC()
	e := session.NewEntry([]byte{0x89, 'P', 'N', 'G'}, session.KindContextMenu, session.Element{Tag: "div"}, "", at)

	if e.Label != session.NoLabel {
		t.Errorf("Label = %q, want %q", e.Label, session.NoLabel)
	}
	if e.Content != session.NoContent {
		t.Errorf("Content = %q, want %q", e.Content, session.NoContent)
	}
	if e.PagePath != "/" {
		t.Errorf("PagePath = %q, want %q", e.PagePath, "/")
	}
	if e.ElementDescription == "" {
		t.Error("ElementDescription is empty")
	}
	if e.EventKind != session.KindContextMenu {
		t.Errorf("EventKind = %q, want %q", e.EventKind, session.KindContextMenu)
	}
	if !e.CapturedAt.Equal(at) {
		t.Errorf("CapturedAt = %v, want %v", e.CapturedAt, at)
	}
}

func TestParseEventKind(t *testing.T) {
	for _, k := range session.Kinds() {
		got, err := session.ParseEventKind(string(k))
		if err != nil {
			t.Fatalf("ParseEventKind(%q): %v", k, err)
		}
		if got != k {
			t.Errorf("ParseEventKind(%q) = %q", k, got)
		}
	}
	if _, err := session.ParseEventKind("mousemove"); err == nil {
		t.Error("expected error for mousemove, got nil")
	}
	if got := session.KindDoubleClick.Label(); got != "double-click" {
		t.Errorf("Label() = %q, want %q", got, "double-click")
	}
}
