// Package recorder turns page interactions into an ordered list of annotated
// screenshots. A Recorder owns the session state and processes events one at
// a time: show overlay, wait the dwell time, capture, append, hide overlay.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/fakeyudi/clicktrail/internal/annotate"
	"github.com/fakeyudi/clicktrail/internal/capture"
	"github.com/fakeyudi/clicktrail/internal/session"
)

// DefaultDwell is the minimum time an overlay stays visible before capture.
const DefaultDwell = 100 * time.Millisecond

// ErrClosed is returned by operations on a Recorder after Close.
var ErrClosed = errors.New("recorder closed")

var errEmptyCapture = errors.New("capture: empty image")

// Options tunes a Recorder. The zero value is usable.
type Options struct {
	Dwell  time.Duration // DefaultDwell when zero
	Logger *log.Logger   // discards when nil
	Now    func() time.Time
}

// job is a queued interaction tagged with the session generation it was
// observed in.
type job struct {
	gen uint64
	in  Interaction
}

// Recorder is the capture state machine: Idle -> Armed -> Idle.
type Recorder struct {
	page      Page
	annotator annotate.Annotator
	capturer  capture.Capturer
	log       *log.Logger
	now       func() time.Time

	// ctx bounds in-flight work; cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.Mutex
	cond        *sync.Cond
	dwell       time.Duration
	armed       bool
	stopped     bool // a Stop happened since the last Start
	gen         uint64
	sess        session.Session
	entries     []session.Entry
	queue       []job
	busy        bool
	mounted     bool
	closed      bool
	unsubscribe func()
}

// New returns an idle Recorder. Call Mount (or Start) to begin listening.
func New(page Page, a annotate.Annotator, c capture.Capturer, opts Options) *Recorder {
	if opts.Dwell <= 0 {
		opts.Dwell = DefaultDwell
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Recorder{
		page:      page,
		annotator: a,
		capturer:  c,
		log:       opts.Logger,
		now:       opts.Now,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		dwell:     opts.Dwell,
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Mount subscribes to the page and starts the capture worker. The
// subscription lives until Close, independent of Start/Stop. Calling Mount
// more than once is a no-op.
func (r *Recorder) Mount() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mountLocked()
}

func (r *Recorder) mountLocked() error {
	if r.closed {
		return ErrClosed
	}
	if r.mounted {
		return nil
	}
	r.mounted = true
	r.unsubscribe = r.page.Subscribe(session.Kinds(), r.handle)
	go r.run()
	return nil
}

// Close unsubscribes from the page and stops the worker. A sequence in
// flight is cancelled; queued interactions are discarded. Recorded entries
// stay readable through Snapshot.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.armed = false
	r.queue = nil
	mounted := r.mounted
	unsubscribe := r.unsubscribe
	r.cond.Broadcast()
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	r.cancel()
	if mounted {
		<-r.done
	}
	return nil
}

// Start clears the recorded entries, records the current page path, and
// arms the recorder. Starting while already armed resets the session.
func (r *Recorder) Start(ctx context.Context) error {
	path, err := r.page.Path(ctx)
	if err != nil {
		r.log.Warn("could not read page path at session start", "err", err)
		path = ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.mountLocked(); err != nil {
		return err
	}
	r.gen++
	r.entries = nil
	r.queue = nil
	r.sess = session.Session{
		ID:        uuid.New().String(),
		StartPath: path,
		StartedAt: r.now(),
	}
	r.armed = true
	r.stopped = false
	r.log.Info("capture session started", "session", r.sess.ID, "path", path)
	return nil
}

// Stop disarms the recorder. Interactions already queued or in flight still
// complete; new interactions are ignored.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.armed {
		return
	}
	now := r.now()
	r.armed = false
	r.stopped = true
	r.sess.StoppedAt = &now
	r.log.Info("capture session stopped", "session", r.sess.ID, "entries", len(r.entries), "pending", len(r.queue))
}

// Armed reports whether interactions are currently being recorded.
func (r *Recorder) Armed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.armed
}

// Exportable reports whether a Stop has happened since the last Start.
func (r *Recorder) Exportable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Pending returns the number of interactions queued or in flight.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.queue)
	if r.busy {
		n++
	}
	return n
}

// SetDwell changes the dwell time for sequences that have not started yet.
func (r *Recorder) SetDwell(d time.Duration) {
	if d <= 0 {
		d = DefaultDwell
	}
	r.mu.Lock()
	r.dwell = d
	r.mu.Unlock()
}

// Snapshot returns a copy of the session and the entries recorded so far.
// It never waits for in-flight work.
func (r *Recorder) Snapshot() session.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]session.Entry, len(r.entries))
	copy(entries, r.entries)
	sess := r.sess
	if sess.StoppedAt != nil {
		t := *sess.StoppedAt
		sess.StoppedAt = &t
	}
	return session.Snapshot{Session: sess, Entries: entries}
}

// Drain blocks until no interaction is queued or in flight, or ctx is done.
func (r *Recorder) Drain(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for (len(r.queue) > 0 || r.busy) && !r.closed {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.cond.Wait()
	}
	return nil
}

// handle is the page subscription callback. It only enqueues.
func (r *Recorder) handle(in Interaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.armed {
		return
	}
	if in.At.IsZero() {
		in.At = r.now()
	}
	r.queue = append(r.queue, job{gen: r.gen, in: in})
	r.cond.Broadcast()
}

// run processes queued interactions strictly one at a time.
func (r *Recorder) run() {
	defer close(r.done)
	for {
		r.mu.Lock()
		for len(r.queue) == 0 && !r.closed {
			r.cond.Wait()
		}
		if r.closed {
			r.mu.Unlock()
			return
		}
		j := r.queue[0]
		r.queue = r.queue[1:]
		r.busy = true
		dwell := r.dwell
		r.mu.Unlock()

		r.process(j, dwell)

		r.mu.Lock()
		r.busy = false
		r.cond.Broadcast()
		r.mu.Unlock()
	}
}

// process runs show -> dwell -> capture -> append -> hide for one job.
// A target that cannot be highlighted is captured without an overlay.
// Capture failures drop the entry and leave the session untouched.
func (r *Recorder) process(j job, dwell time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("capture sequence panicked", "panic", rec, "stack", string(debug.Stack()))
		}
	}()

	err := annotate.With(r.ctx, r.annotator, j.in.Target, func(ctx context.Context) error {
		if err := sleep(ctx, dwell); err != nil {
			return err
		}
		img, err := r.capturer.Capture(ctx)
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		if len(img) == 0 {
			return errEmptyCapture
		}
		entry := session.NewEntry(img, j.in.Kind, j.in.Element, j.in.Path, j.in.At)

		r.mu.Lock()
		defer r.mu.Unlock()
		if j.gen != r.gen {
			r.log.Debug("discarding capture from a previous session", "kind", j.in.Kind)
			return nil
		}
		r.entries = append(r.entries, entry)
		r.log.Debug("entry recorded", "kind", entry.EventKind, "label", entry.Label, "count", len(r.entries))
		return nil
	})
	switch {
	case errors.Is(err, annotate.ErrNoOverlay):
		r.log.Info("captured without overlay", "kind", j.in.Kind, "path", j.in.Path, "err", err)
	case err != nil:
		r.log.Warn("interaction dropped", "kind", j.in.Kind, "path", j.in.Path, "err", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
