// Program watchface runs the display refresh core for an always-on watch
// face: a mode-aware controller fed by a tick scheduler, a broadcast
// ambient-update source, and a TCP control console, with an optional terminal
// dashboard, refresh journal, and session recorder around it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"watchface/admin"
	"watchface/broadcast"
	"watchface/config"
	"watchface/control"
	"watchface/face"
	"watchface/journal"
	"watchface/recorder"
	"watchface/theme"
	"watchface/ui"
)

const (
	defaultConfigPath = "data/config.yaml"
	envConfigPath     = "WATCHFACE_CONFIG_PATH"
)

// Purpose: Resolve the config file path from flag, environment, or default.
// Key aspects: Flag wins over environment; both win over the default.
// Upstream: main.
// Downstream: os.Getenv.
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(envConfigPath); env != "" {
		return env
	}
	return defaultConfigPath
}

// Purpose: Load configuration, falling back to defaults when no file exists.
// Key aspects: A missing file is not fatal; a malformed one is.
// Upstream: main.
// Downstream: config.Load and config.Default.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("Config: %s not found, using defaults\n", path)
			return config.Default(), nil
		}
		return nil, err
	}
	return config.Load(path)
}

// Purpose: Load the configured theme, falling back to the built-in default.
// Key aspects: A broken theme file degrades visuals, never startup.
// Upstream: main and the config reload callback.
// Downstream: theme.Load.
func loadTheme(cfg config.ThemeConfig) theme.Theme {
	if cfg.Path == "" {
		return theme.Default()
	}
	th, err := theme.Load(cfg.Path)
	if err != nil {
		log.Printf("Theme: %v, using default", err)
		return theme.Default()
	}
	log.Printf("Theme: loaded %q from %s", th.Name, cfg.Path)
	return th
}

// Purpose: Open the refresh journal and report where the last run ended.
// Key aspects: Journal failures disable journaling rather than abort.
// Upstream: main.
// Downstream: journal.Open and Journal.LastSeq.
func openJournal(cfg config.JournalConfig) *journal.Journal {
	if !cfg.Enabled || cfg.Dir == "" {
		return nil
	}
	jnl, err := journal.Open(cfg.Dir)
	if err != nil {
		log.Printf("Journal: disabled: %v", err)
		return nil
	}
	if last, err := jnl.LastSeq(); err != nil {
		log.Printf("Journal: replay check failed: %v", err)
	} else if last > 0 {
		log.Printf("Journal: previous session ended at draw %d", last)
	}
	return jnl
}

// Purpose: Forward broadcast refresh instants into the event loop.
// Key aspects: Runs until the updates channel would block on a stopped loop.
// Upstream: main wiring.
// Downstream: Loop.Post.
func pumpBroadcast(loop *face.Loop, updates <-chan time.Time, done <-chan struct{}) {
	for {
		select {
		case at := <-updates:
			if !loop.Post(face.Event{Kind: face.EventAmbientUpdate, At: at}) {
				return
			}
		case <-done:
			return
		}
	}
}

func main() {
	configFlag := flag.String("config", "", "path to config file")
	showConfig := flag.Bool("show-config", false, "print resolved configuration and exit")
	noUI := flag.Bool("no-ui", false, "disable the terminal dashboard")
	flag.Parse()

	cfg, err := loadConfig(resolveConfigPath(*configFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config: %v\n", err)
		os.Exit(1)
	}
	if *showConfig {
		cfg.Print()
		return
	}

	fanout, err := setupLogging(cfg.Logging, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging: file sink unavailable: %v\n", err)
	}
	log.SetFlags(0)
	log.SetOutput(fanout)
	defer fanout.Close()

	clock := face.SystemClock()
	ctrl := face.NewController(clock)
	loop := face.NewLoop(ctrl, cfg.Display.EventQueueDepth, log.Default())
	scheduler := face.NewTickScheduler(clock, loop,
		time.Duration(cfg.Display.TickIntervalMS)*time.Millisecond)

	jnl := openJournal(cfg.Journal)

	uiEnabled := cfg.UI.Enabled && !*noUI && term.IsTerminal(int(os.Stdout.Fd()))
	if cfg.UI.Enabled && !uiEnabled {
		log.Printf("UI: disabled (no terminal attached or -no-ui set)")
	}
	metrics := ui.NewMetrics()
	dash := ui.NewDashboard(uiEnabled, cfg.UI.TargetFPS, loadTheme(cfg.Theme), metrics)
	if dash != nil {
		dash.WaitReady()
		fanout.SetConsoleSink(dash.SystemWriter(), true)
		defer fanout.SetConsoleSink(os.Stdout, true)
	}

	monitor := newActivityMonitor(3, log.Default())
	monitor.Start()

	// Every accepted redraw fans out from here: the journal gets the refresh
	// event, the dashboard gets the new snapshot, the monitor counts the draw.
	ctrl.SetDrawHook(func(st face.State, ev face.RefreshEvent) {
		if jnl != nil {
			if err := jnl.Append(ev); err != nil {
				log.Printf("Journal: append draw %d: %v", ev.Seq, err)
			}
		}
		monitor.Increment(ev.At)
		dash.ShowState(st)
	})
	dash.ShowState(ctrl.Snapshot())

	loop.Start()
	scheduler.Start()
	log.Printf("Display: active, ticking every %dms", cfg.Display.TickIntervalMS)

	var bcast *broadcast.Client
	pumpDone := make(chan struct{})
	if cfg.Broadcast.Enabled {
		bcast = broadcast.NewClient(cfg.Broadcast.Broker, cfg.Broadcast.Port,
			cfg.Broadcast.Topic,
			time.Duration(cfg.Broadcast.DedupeWindowSeconds)*time.Second)
		if err := bcast.Connect(); err != nil {
			log.Printf("Broadcast: %v (reconnect pending)", err)
		}
		go pumpBroadcast(loop, bcast.Updates(), pumpDone)
	}

	ctrlServer := control.NewServer(cfg.Control, clock, ctrl)
	if err := ctrlServer.Start(); err != nil {
		log.Printf("Control: %v", err)
		ctrlServer = nil
	}

	adminServer := admin.NewServer(cfg.Admin, ctrl, metrics)
	adminServer.Start()

	var watcher *config.Watcher
	if *configFlag != "" || fileExists(resolveConfigPath(*configFlag)) {
		path := resolveConfigPath(*configFlag)
		watcher, err = config.NewWatcher(path, 0, log.Default(), func(next *config.Config) {
			// Only the theme is safe to swap at runtime; everything else
			// needs a restart.
			dash.SetTheme(loadTheme(next.Theme))
		})
		if err != nil {
			log.Printf("Config: watch unavailable: %v", err)
		} else {
			watcher.Start()
		}
	}

	sessionStart := ctrl.Started()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Shutdown: received %s", sig)

	if watcher != nil {
		watcher.Stop()
	}
	monitor.Stop()
	scheduler.Stop()
	if bcast != nil {
		bcast.Stop()
	}
	close(pumpDone)
	loop.Stop()
	if ctrlServer != nil {
		ctrlServer.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	adminServer.Stop(shutdownCtx)
	cancel()

	counts := ctrl.CounterSnapshot()
	finalMode := ctrl.Mode()
	recordSession(cfg.Recorder, recorder.Session{
		StartedAt:    sessionStart,
		EndedAt:      clock.Now(),
		Draws:        counts.Draws,
		TickDraws:    counts.TickDraws,
		AmbientDraws: counts.AmbientDraws,
		Wakes:        counts.Wakes,
		Sleeps:       counts.Sleeps,
		FinalMode:    finalMode.String(),
	})

	if jnl != nil {
		if err := jnl.Close(); err != nil {
			log.Printf("Journal: close: %v", err)
		}
	}

	dash.Stop()
	fanout.SetConsoleSink(os.Stdout, true)
	log.Printf("Shutdown: %d draws this session (%d tick, %d ambient), final mode %s",
		counts.Draws, counts.TickDraws, counts.AmbientDraws, finalMode)
}

// Purpose: Persist the finished session summary when the recorder is enabled.
// Key aspects: Recorder failures are logged, never fatal during shutdown.
// Upstream: main shutdown.
// Downstream: recorder.NewRecorder and RecordSession.
func recordSession(cfg config.RecorderConfig, s recorder.Session) {
	if !cfg.Enabled || cfg.Path == "" {
		return
	}
	rec, err := recorder.NewRecorder(cfg.Path)
	if err != nil {
		log.Printf("Recorder: %v", err)
		return
	}
	defer rec.Close()
	if err := rec.RecordSession(s); err != nil {
		log.Printf("Recorder: %v", err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
