package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
)

func formatElapsed(elapsed time.Duration, showMillis bool) string {
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60
	if showMillis {
		millis := int(elapsed.Milliseconds()) % 1000
		return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// timer shows the time since it was last Set. It does not count until the first Set.
type timer struct {
	showMillis bool
	mtx        sync.Mutex
	startTime  time.Time
	text       *canvas.Text
}

func newTimer(showMillis bool) *timer {
	return &timer{
		showMillis: showMillis,
		text:       canvas.NewText(formatElapsed(0, showMillis), theme.Color(theme.ColorNameForeground)),
	}
}

func (t *timer) Set(start time.Time) {
	t.mtx.Lock()
	t.startTime = start
	t.mtx.Unlock()
}

func (t *timer) elapsed() (time.Duration, bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.startTime.IsZero() {
		return 0, false
	}
	return time.Since(t.startTime), true
}

// Go refreshes the text until ctx is done
func (t *timer) Go(ctx context.Context) {
	d := time.Second
	if t.showMillis {
		d = 64 * time.Millisecond
	}

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			elapsed, ok := t.elapsed()
			if !ok {
				continue
			}
			fyne.Do(func() {
				t.text.Text = formatElapsed(elapsed, t.showMillis)
				t.text.Refresh()
			})
		}
	}()
}
