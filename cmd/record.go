package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/clicktrail/internal/config"
	"github.com/fakeyudi/clicktrail/internal/control"
	"github.com/fakeyudi/clicktrail/internal/report"
	"github.com/fakeyudi/clicktrail/internal/tui"
)

var (
	recordFormat    string
	recordOutputDir string
	recordHeadless  bool
	recordLogFile   string
)

var recordCmd = &cobra.Command{
	Use:   "record <url>",
	Short: "Open a page and record interactions",
	Long: `Open <url> in Chrome and record clicks, double-clicks, context menus and
drag-overs as annotated screenshots. Use s/x/e (or start/stop/export on
stdin when not attached to a terminal) to drive the session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]
		c := applyRecordFlags(cmd, GetConfig())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		interactive := term.IsTerminal(os.Stdin.Fd()) && term.IsTerminal(os.Stdout.Fd())
		l := logger
		if interactive || recordLogFile != "" {
			// Keep log lines off the alt-screen.
			var out io.Writer = io.Discard
			if recordLogFile != "" {
				f, err := os.OpenFile(recordLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				out = f
			}
			l = log.NewWithOptions(out, log.Options{Level: logger.GetLevel(), ReportTimestamp: true, Prefix: "clicktrail"})
		}

		s, err := openSession(ctx, url, c, l)
		if err != nil {
			return err
		}
		defer s.Close()

		if interactive {
			return tui.RunControls(s.ctl, url, c.DefaultFormat)
		}
		return runLineControls(ctx, s.ctl, s.page.Done(), cmd.InOrStdin(), cmd.OutOrStdout(), c.DefaultFormat)
	},
}

// applyRecordFlags overlays explicitly set flags on the merged config.
func applyRecordFlags(cmd *cobra.Command, c config.Config) config.Config {
	if cmd.Flags().Changed("format") {
		c.DefaultFormat = recordFormat
	}
	if cmd.Flags().Changed("output-dir") {
		c.OutputDir = recordOutputDir
	}
	if cmd.Flags().Changed("headless") {
		h := recordHeadless
		c.Headless = &h
	}
	return c
}

// runLineControls drives the session from line-based commands on in until
// quit, end of input, cancellation of ctx or closure of the page.
func runLineControls(ctx context.Context, lc tui.Lifecycle, pageDone <-chan struct{}, in io.Reader, out io.Writer, format string) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, "Commands: start, stop, export [pdf|json|markdown], status, quit")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pageDone:
			fmt.Fprintln(out, "Browser closed.")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			switch fields[0] {
			case "start", "s":
				if err := lc.Start(ctx); err != nil {
					fmt.Fprintf(out, "Error: %v\n", err)
					continue
				}
				fmt.Fprintln(out, "Capture started.")
			case "stop", "x":
				lc.Stop()
				fmt.Fprintln(out, "Capture stopped.")
			case "export", "e":
				f := format
				if len(fields) > 1 {
					f = fields[1]
				}
				path, err := lc.Export(ctx, f)
				switch {
				case errors.Is(err, report.ErrNothingToExport):
					fmt.Fprintln(out, "Nothing to export.")
				case err != nil:
					fmt.Fprintf(out, "Error: %v\n", err)
				default:
					fmt.Fprintf(out, "Report written to %s\n", path)
				}
			case "status":
				printStatus(out, lc.Status())
			case "quit", "q", "exit":
				return nil
			default:
				fmt.Fprintf(out, "Unknown command %q\n", fields[0])
			}
		}
	}
}

func printStatus(out io.Writer, st control.Status) {
	state := "idle"
	if st.Armed {
		state = "recording"
	}
	fmt.Fprintf(out, "State:    %s\n", state)
	if st.SessionID != "" {
		fmt.Fprintf(out, "Session:  %s (%s)\n", st.SessionID, st.StartPath)
	}
	fmt.Fprintf(out, "Entries:  %d\n", st.Entries)
	if st.Pending > 0 {
		fmt.Fprintf(out, "Pending:  %d\n", st.Pending)
	}
	if st.LastExport != "" {
		fmt.Fprintf(out, "Exported: %s\n", st.LastExport)
	}
}

func init() {
	recordCmd.Flags().StringVar(&recordFormat, "format", "pdf", "report format: pdf, json or markdown")
	recordCmd.Flags().StringVar(&recordOutputDir, "output-dir", ".", "directory for exported reports")
	recordCmd.Flags().BoolVar(&recordHeadless, "headless", false, "run Chrome without a window")
	recordCmd.Flags().StringVar(&recordLogFile, "log-file", "", "write logs to this file")
	rootCmd.AddCommand(recordCmd)
}
