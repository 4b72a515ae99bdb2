package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"pgregory.net/rapid"

	"github.com/fakeyudi/clicktrail/internal/report"
	"github.com/fakeyudi/clicktrail/internal/session"
)

// syncBuffer is a bytes.Buffer safe for the concurrent writes of command
// output and background logging.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(syncBuffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// generateReport produces a report with a rapid-chosen number of entries.
func generateReport(t *rapid.T) *report.Report {
	sec := rapid.Int64Range(1_000_000_000, 1_700_000_000).Draw(t, "unix_sec")
	ts := time.Unix(sec, 0).UTC()

	n := rapid.IntRange(0, 6).Draw(t, "entries")
	rep := &report.Report{
		Session: session.Session{
			ID:        rapid.StringMatching(`[a-f0-9-]{8,36}`).Draw(t, "session_id"),
			StartPath: rapid.StringMatching(`/[a-z/]{0,20}`).Draw(t, "start_path"),
			StartedAt: ts,
		},
		Recorded: n + 1,
	}
	for i := 0; i < n; i++ {
		kind := rapid.SampledFrom(session.Kinds()).Draw(t, "kind")
		el := session.Element{
			Tag:         rapid.SampledFrom([]string{"a", "button", "div", "input"}).Draw(t, "tag"),
			AriaLabel:   rapid.StringN(0, 20, -1).Draw(t, "aria"),
			TextContent: rapid.StringN(0, 40, -1).Draw(t, "text"),
		}
		rep.Entries = append(rep.Entries, session.NewEntry([]byte{1, 2, 3}, kind, el, "/p", ts.Add(time.Duration(i)*time.Second)))
	}
	return rep
}

// Feature: clicktrail, Property 6: Plain view lists the summary, then every entry in order
func TestPrintReportOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rep := generateReport(rt)
		var buf bytes.Buffer
		printReport(&buf, rep)
		out := buf.String()

		summary := strings.Index(out, "## Summary")
		entries := strings.Index(out, "## Entries")
		if summary == -1 || entries == -1 || summary >= entries {
			rt.Fatalf("sections out of order:\n%s", out)
		}

		last := entries
		for i := range rep.Entries {
			marker := "  " + strconv.Itoa(i+1) + ". ["
			pos := strings.Index(out[last:], marker)
			if pos == -1 {
				rt.Fatalf("entry %d missing after position %d:\n%s", i+1, last, out)
			}
			last += pos + len(marker)
		}
		if len(rep.Entries) == 0 && !strings.Contains(out, "(none)") {
			rt.Fatalf("empty report should print (none):\n%s", out)
		}
	})
}

func writeReport(t *testing.T, dir string, entries int) string {
	t.Helper()
	snap := session.Snapshot{Session: session.Session{ID: "sess-1", StartPath: "/docs/intro", StartedAt: time.Now()}}
	for i := 0; i < entries; i++ {
		snap.Entries = append(snap.Entries, session.NewEntry([]byte{byte(i)}, session.KindClick,
			session.Element{Tag: "a", AriaLabel: "Link " + string(rune('A'+i))}, "/docs/intro", time.Now()))
	}
	a, err := report.Export(snap, &report.JSONRenderer{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	path, err := report.WriteFile(dir, a)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestViewPlain(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeReport(t, t.TempDir(), 3)

	out, err := executeCommand(rootCmd, "view", "--plain", path)
	if err != nil {
		t.Fatalf("view: %v\n%s", err, out)
	}
	for _, want := range []string{"sess-1", "/docs/intro", "2 of 3 recorded", "Label:        Link B", "Label:        Link C"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Link A") {
		t.Error("the first recorded entry should not be in the report")
	}
}

// TestViewNonExistentFile verifies that viewing a missing file returns
// "file not found: <path>".
func TestViewNonExistentFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	missingPath := filepath.Join(tmp, "does-not-exist.json")

	out, err := executeCommand(rootCmd, "view", missingPath)
	if err == nil {
		t.Fatal("expected an error for non-existent file, got nil")
	}
	combined := out + err.Error()
	expected := "file not found: " + missingPath
	if !strings.Contains(combined, expected) {
		t.Errorf("expected error to contain %q, got: %q", expected, combined)
	}
}

func TestViewRejectsNonJSON(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	pdf := filepath.Join(tmp, "report.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.3"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := executeCommand(rootCmd, "view", pdf)
	if err == nil || !strings.Contains(err.Error(), "export with --format json") {
		t.Fatalf("expected a format hint, got %v", err)
	}
}

func TestViewInvalidReport(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	bad := filepath.Join(tmp, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := executeCommand(rootCmd, "view", "--plain", bad)
	if err == nil || !strings.Contains(err.Error(), "failed to parse JSON report") {
		t.Fatalf("expected a parse error, got %v", err)
	}
}
