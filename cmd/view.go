package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/clicktrail/internal/report"
	"github.com/fakeyudi/clicktrail/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "View an exported JSON report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		if ext := strings.ToLower(filepath.Ext(path)); ext != ".json" {
			return fmt.Errorf("cannot view %s reports; export with --format json", strings.TrimPrefix(ext, "."))
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		rep, err := (&report.JSONParser{}).Parse(data)
		if err != nil {
			return err
		}

		if plainOutput {
			printReport(cmd.OutOrStdout(), rep)
			return nil
		}
		return tui.RunViewer(rep, path)
	},
}

// printReport writes a plain-text rendition of rep to w.
func printReport(w io.Writer, rep *report.Report) {
	s := rep.Session
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "  Session:     %s\n", s.ID)
	fmt.Fprintf(w, "  Start path:  %s\n", s.StartPath)
	fmt.Fprintf(w, "  Started:     %s\n", s.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if s.StoppedAt != nil {
		fmt.Fprintf(w, "  Stopped:     %s\n", s.StoppedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(w, "  Entries:     %d of %d recorded\n", len(rep.Entries), rep.Recorded)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Entries")
	if len(rep.Entries) == 0 {
		fmt.Fprintln(w, "  (none)")
		fmt.Fprintln(w)
		return
	}
	for i, e := range rep.Entries {
		fmt.Fprintf(w, "  %d. [%s] %s  (%s)\n", i+1, e.CapturedAt.Format("2006-01-02 15:04:05"), e.EventKind, e.PagePath)
		fmt.Fprintf(w, "     Screenshot:   %d bytes\n", len(e.Image))
		fmt.Fprintf(w, "     Element Info: %s\n", strings.ReplaceAll(strings.TrimRight(e.ElementDescription, "\n"), "\n", "; "))
		fmt.Fprintf(w, "     Label:        %s\n", hang(e.Label, 19))
		fmt.Fprintf(w, "     Content:      %s\n", hang(e.Content, 19))
	}
	fmt.Fprintln(w)
}

// hang indents every line of s after the first by n spaces.
func hang(s string, n int) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n"+strings.Repeat(" ", n))
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
