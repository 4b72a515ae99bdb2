// Package browser drives a Chrome tab over the DevTools protocol and exposes
// it as the page, annotator and capturer used by the recorder.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/fakeyudi/clicktrail/internal/annotate"
	"github.com/fakeyudi/clicktrail/internal/recorder"
	"github.com/fakeyudi/clicktrail/internal/session"
)

// ErrTargetGone is returned by Show when the page no longer tracks the target.
var ErrTargetGone = errors.New("target element not found")

// Options configures Launch.
type Options struct {
	URL      string
	Headless bool
	Width    int
	Height   int
	Logger   *log.Logger
}

type subscription struct {
	kinds   map[session.EventKind]bool
	handler func(recorder.Interaction)
}

// Browser is a single Chrome tab. It implements recorder.Page,
// annotate.Annotator and capture.Capturer.
type Browser struct {
	ctx         context.Context // chromedp tab context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	log         *log.Logger

	overlaySeq atomic.Uint64

	mu     sync.Mutex
	nextID int
	subs   map[int]subscription
}

var (
	_ recorder.Page      = (*Browser)(nil)
	_ annotate.Annotator = (*Browser)(nil)
)

// Launch starts Chrome, installs the interaction listener and navigates to
// opts.URL. The browser lives until Close or until ctx is cancelled.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 800
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(opts.Logger.Debugf),
		chromedp.WithErrorf(opts.Logger.Errorf),
	)

	b := &Browser{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		log:         opts.Logger,
		subs:        make(map[int]subscription),
	}
	chromedp.ListenTarget(tabCtx, b.onEvent)

	err := chromedp.Run(tabCtx,
		runtime.AddBinding(bindingName),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(listenerScript()).Do(ctx)
			return err
		}),
		chromedp.Navigate(opts.URL),
	)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	b.log.Info("browser ready", "url", opts.URL, "headless", opts.Headless)
	return b, nil
}

// Done is closed when the tab or the browser goes away.
func (b *Browser) Done() <-chan struct{} { return b.ctx.Done() }

// Close shuts the tab and the browser process down.
func (b *Browser) Close() {
	b.cancelTab()
	b.cancelAlloc()
}

// onEvent runs on the DevTools event loop and must not block.
func (b *Browser) onEvent(ev any) {
	called, ok := ev.(*runtime.EventBindingCalled)
	if !ok || called.Name != bindingName {
		return
	}
	in, err := decodeInteraction(called.Payload, time.Now())
	if err != nil {
		b.log.Warn("ignoring malformed interaction", "err", err)
		return
	}

	b.mu.Lock()
	var handlers []func(recorder.Interaction)
	for _, s := range b.subs {
		if s.kinds[in.Kind] {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(in)
	}
}

// Subscribe implements recorder.Page.
func (b *Browser) Subscribe(kinds []session.EventKind, handler func(recorder.Interaction)) func() {
	set := make(map[session.EventKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{kinds: set, handler: handler}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Path implements recorder.Page.
func (b *Browser) Path(ctx context.Context) (string, error) {
	var path string
	if err := b.run(ctx, chromedp.Evaluate(`window.location.pathname`, &path)); err != nil {
		return "", fmt.Errorf("read page path: %w", err)
	}
	return path, nil
}

// Show implements annotate.Annotator.
func (b *Browser) Show(ctx context.Context, target string) (annotate.Overlay, error) {
	var res rectResult
	if err := b.run(ctx, chromedp.Evaluate(measureScript(target), &res)); err != nil {
		return annotate.Overlay{}, err
	}
	if !res.Found {
		return annotate.Overlay{}, ErrTargetGone
	}
	o := annotate.Overlay{
		ID:     "o" + strconv.FormatUint(b.overlaySeq.Add(1), 10),
		Target: target,
		Rect:   res.pageRect(),
	}
	if err := b.run(ctx, chromedp.Evaluate(showScript(o.ID, o.Rect), nil)); err != nil {
		return annotate.Overlay{}, err
	}
	return o, nil
}

// Hide implements annotate.Annotator.
func (b *Browser) Hide(ctx context.Context, o annotate.Overlay) error {
	return b.run(ctx, chromedp.Evaluate(hideScript(o.ID, o.Target), nil))
}

// Capture implements capture.Capturer with a full-page PNG.
func (b *Browser) Capture(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := b.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, err
	}
	return buf, nil
}

// run executes actions on the tab, honouring cancellation of ctx as well as
// the lifetime of the tab.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}
