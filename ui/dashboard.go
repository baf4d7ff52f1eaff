// Package ui renders the terminal watch face when a compatible terminal is
// available. It consumes display snapshots published by the core; the core
// never imports it.
package ui

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"watchface/face"
	"watchface/theme"
)

const logMaxLines = 6

// Dashboard shows the elapsed-time face, a detail pane (mode, instant, draw
// count), and a scrolling system log pane.
type Dashboard struct {
	app        *tview.Application
	timeView   *tview.TextView
	detailView *tview.TextView
	logView    *tview.TextView

	sched   *drawScheduler
	metrics *Metrics

	mu       sync.Mutex
	th       theme.Theme
	logLines []string
	ambient  bool

	closed atomic.Bool
	ready  chan struct{}
}

// NewDashboard builds and starts the watch-face UI. Returns nil when
// disabled so call sites can wire it unconditionally.
func NewDashboard(enable bool, targetFPS int, th theme.Theme, metrics *Metrics) *Dashboard {
	if !enable {
		return nil
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	timeView := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	detailView := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	logView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	logView.SetTitle("System").SetTitleAlign(tview.AlignLeft)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(timeView, 3, 0, false).
		AddItem(detailView, 4, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(logView, logMaxLines+1, 0, false)

	app := tview.NewApplication().SetRoot(layout, true).EnableMouse(false)
	ready := make(chan struct{})
	var once sync.Once
	app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		once.Do(func() { close(ready) })
		return false
	})

	d := &Dashboard{
		app:        app,
		timeView:   timeView,
		detailView: detailView,
		logView:    logView,
		metrics:    metrics,
		th:         th,
		ready:      ready,
	}
	d.sched = newDrawScheduler(d.flushBatch, targetFPS, 100*time.Millisecond, metrics)
	d.sched.Start()

	go func() {
		if err := app.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "dashboard error: %v\n", err)
		}
	}()

	return d
}

// Stop tears the UI down.
func (d *Dashboard) Stop() {
	if d == nil || d.app == nil {
		return
	}
	d.closed.Store(true)
	d.sched.Stop()
	d.app.Stop()
}

// WaitReady blocks until the first screen draw.
func (d *Dashboard) WaitReady() {
	if d == nil || d.ready == nil {
		return
	}
	<-d.ready
}

// SetTheme swaps the visual theme; the next frame picks it up.
func (d *Dashboard) SetTheme(th theme.Theme) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.th = th
	d.mu.Unlock()
}

// ShowState schedules a face redraw for the given snapshot. Entering ambient
// mode switches the draw scheduler to immediate flushing, since ambient
// redraws are rare and each one should land at once.
func (d *Dashboard) ShowState(st face.State) {
	if d == nil || d.closed.Load() {
		return
	}
	d.mu.Lock()
	th := d.th
	ambientChanged := d.ambient != (st.Mode == face.ModeAmbient)
	d.ambient = st.Mode == face.ModeAmbient
	d.mu.Unlock()

	if ambientChanged {
		d.sched.SetAmbient(st.Mode == face.ModeAmbient)
	}

	timeColor := th.TimeColor
	if st.Mode == face.ModeAmbient {
		timeColor = th.AmbientColor
	}
	d.sched.Schedule("face", func() {
		d.timeView.SetText(st.Elapsed)
		d.timeView.SetTextColor(tcell.GetColor(timeColor))
		d.detailView.SetText(fmt.Sprintf("%s\n%s\n%s  |  draws %d",
			th.Label,
			st.Instant.UTC().Format(th.ClockLayout),
			st.Mode, st.Draws))
		d.detailView.SetTextColor(tcell.GetColor(th.DetailColor))
	})
}

// AppendSystem adds one line to the system log pane.
func (d *Dashboard) AppendSystem(line string) {
	if d == nil || d.closed.Load() {
		return
	}
	d.mu.Lock()
	d.logLines = append(d.logLines, line)
	if len(d.logLines) > logMaxLines {
		d.logLines = d.logLines[len(d.logLines)-logMaxLines:]
	}
	text := strings.Join(d.logLines, "\n")
	d.mu.Unlock()

	d.sched.Schedule("log", func() {
		d.logView.SetText(text)
		d.logView.ScrollToEnd()
	})
}

func (d *Dashboard) flushBatch(batch []func()) {
	if d.closed.Load() {
		return
	}
	d.app.QueueUpdateDraw(func() {
		for _, fn := range batch {
			fn()
		}
	})
}

// SystemWriter adapts the log fanout to the system pane, line buffered.
func (d *Dashboard) SystemWriter() *paneWriter {
	if d == nil {
		return nil
	}
	return &paneWriter{dash: d}
}

type paneWriter struct {
	mu   sync.Mutex
	buf  []byte
	dash *Dashboard
}

func (w *paneWriter) Write(p []byte) (int, error) {
	if w == nil || w.dash == nil {
		return len(p), nil
	}
	w.mu.Lock()
	w.buf = append(w.buf, p...)
	var lines []string
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx == -1 {
			break
		}
		lines = append(lines, string(bytes.TrimRight(w.buf[:idx], "\r")))
		w.buf = w.buf[idx+1:]
	}
	w.mu.Unlock()

	for _, line := range lines {
		w.dash.AppendSystem(line)
	}
	return len(p), nil
}
