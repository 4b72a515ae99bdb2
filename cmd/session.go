package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/fakeyudi/clicktrail/internal/annotate"
	"github.com/fakeyudi/clicktrail/internal/browser"
	"github.com/fakeyudi/clicktrail/internal/capture"
	"github.com/fakeyudi/clicktrail/internal/config"
	"github.com/fakeyudi/clicktrail/internal/control"
	"github.com/fakeyudi/clicktrail/internal/recorder"
)

// pageDriver is a live page that can also draw overlays and take screenshots.
type pageDriver interface {
	recorder.Page
	annotate.Annotator
	capture.Capturer
	Done() <-chan struct{}
	Close()
}

// launchPage opens the page under test. Tests replace it with a fake.
var launchPage = func(ctx context.Context, url string, c config.Config, l *log.Logger) (pageDriver, error) {
	b, err := browser.Launch(ctx, browser.Options{
		URL:      url,
		Headless: c.IsHeadless(),
		Width:    c.ViewportWidth,
		Height:   c.ViewportHeight,
		Logger:   l,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// liveSession is a launched page with a mounted recorder and its controller.
type liveSession struct {
	page pageDriver
	rec  *recorder.Recorder
	ctl  *control.Controller
}

func openSession(ctx context.Context, url string, c config.Config, l *log.Logger) (*liveSession, error) {
	page, err := launchPage(ctx, url, c, l)
	if err != nil {
		return nil, err
	}
	rec := recorder.New(page, page, page, recorder.Options{Dwell: c.Dwell(), Logger: l})
	if err := rec.Mount(); err != nil {
		page.Close()
		return nil, fmt.Errorf("mount recorder: %w", err)
	}
	return &liveSession{
		page: page,
		rec:  rec,
		ctl:  control.New(rec, c, l),
	}, nil
}

func (s *liveSession) Close() {
	s.rec.Close()
	s.page.Close()
}
