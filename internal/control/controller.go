// Package control glues a Recorder to the report pipeline and exposes the
// start/stop/export lifecycle to the CLI, HTTP and MCP front ends.
package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fakeyudi/clicktrail/internal/config"
	"github.com/fakeyudi/clicktrail/internal/report"
	"github.com/fakeyudi/clicktrail/internal/session"
)

// ErrNotExportable is returned by Export until a Stop follows the last Start.
var ErrNotExportable = errors.New("stop the capture session before exporting")

// DefaultDrainTimeout bounds how long Export waits for queued captures.
const DefaultDrainTimeout = 10 * time.Second

// Recorder is the subset of *recorder.Recorder the controller drives.
type Recorder interface {
	Start(ctx context.Context) error
	Stop()
	Armed() bool
	Exportable() bool
	Pending() int
	SetDwell(d time.Duration)
	Snapshot() session.Snapshot
	Drain(ctx context.Context) error
}

// Status is a point-in-time view of the controller.
type Status struct {
	SessionID  string `json:"session_id,omitempty"`
	StartPath  string `json:"start_path,omitempty"`
	Armed      bool   `json:"armed"`
	Exportable bool   `json:"exportable"`
	Entries    int    `json:"entries"`
	Pending    int    `json:"pending"`
	LastExport string `json:"last_export,omitempty"`
}

// Controller serializes lifecycle commands from any front end.
type Controller struct {
	rec          Recorder
	log          *log.Logger
	DrainTimeout time.Duration

	mu         sync.Mutex
	cfg        config.Config
	lastExport string
}

// New returns a Controller for rec using cfg for output settings.
func New(rec Recorder, cfg config.Config, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	rec.SetDwell(cfg.Dwell())
	return &Controller{
		rec:          rec,
		log:          logger,
		DrainTimeout: DefaultDrainTimeout,
		cfg:          cfg,
	}
}

// Apply swaps in a new configuration, e.g. after a config file reload.
func (c *Controller) Apply(cfg config.Config) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
	c.rec.SetDwell(cfg.Dwell())
	c.log.Info("configuration applied", "dwell", cfg.Dwell(), "output_dir", cfg.OutputDir, "format", cfg.DefaultFormat)
}

// Config returns the active configuration.
func (c *Controller) Config() config.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Start begins a new capture session, discarding any previous one.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.rec.Start(ctx); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	snap := c.rec.Snapshot()
	c.log.Info("capture started", "session", snap.Session.ID, "path", snap.Session.StartPath)
	return nil
}

// Stop ends the capture session. Queued captures still complete.
func (c *Controller) Stop() {
	c.rec.Stop()
	c.log.Info("capture stopped", "pending", c.rec.Pending())
}

// Export waits for queued captures, renders the session in format (the
// configured default when empty) and writes it to the output directory.
// It returns report.ErrNothingToExport, without writing, when the session
// holds no entries.
func (c *Controller) Export(ctx context.Context, format string) (string, error) {
	if !c.rec.Exportable() {
		return "", ErrNotExportable
	}
	cfg := c.Config()
	if format == "" {
		format = cfg.DefaultFormat
	}
	renderer, err := report.RendererFor(format)
	if err != nil {
		return "", err
	}

	drainCtx, cancel := context.WithTimeout(ctx, c.DrainTimeout)
	defer cancel()
	if err := c.rec.Drain(drainCtx); err != nil {
		c.log.Warn("exporting before all captures finished", "pending", c.rec.Pending(), "err", err)
	}

	artifact, err := report.Export(c.rec.Snapshot(), renderer)
	if err != nil {
		return "", err
	}
	path, err := report.WriteFile(cfg.OutputDir, artifact)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.lastExport = path
	c.mu.Unlock()
	c.log.Info("report exported", "path", path, "pages", artifact.Pages, "format", format)
	return path, nil
}

// Status reports the current session state.
func (c *Controller) Status() Status {
	snap := c.rec.Snapshot()
	c.mu.Lock()
	last := c.lastExport
	c.mu.Unlock()
	return Status{
		SessionID:  snap.Session.ID,
		StartPath:  snap.Session.StartPath,
		Armed:      c.rec.Armed(),
		Exportable: c.rec.Exportable(),
		Entries:    len(snap.Entries),
		Pending:    c.rec.Pending(),
		LastExport: last,
	}
}
