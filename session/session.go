// Package session owns the decode pipeline and the event loop that
// stitches network, scripting, timers, and UI together. One goroutine
// owns all mutable pipeline state; everything else talks to it through
// channels.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drake/ember/event"
	"github.com/drake/ember/gauge"
	"github.com/drake/ember/gmcp"
	"github.com/drake/ember/network"
	"github.com/drake/ember/script"
	"github.com/drake/ember/text"
	"github.com/drake/ember/timer"
)

// Ensure Session implements script.Host at compile time
var _ script.Host = (*Session)(nil)

const connectTimeout = 15 * time.Second

// Config holds session configuration.
type Config struct {
	ConfigDir   string   // Path to ~/.config/ember
	UserScripts []string // CLI script arguments
	Address     string   // Dialed on boot when non-empty

	VitalsPercent bool     // Wire values are percentages of known maxima
	GaugeStats    []string // Quantities shown as gauges, in order

	// Gauge band boundaries; zero means use the defaults.
	GaugeHigh float64
	GaugeMid  float64
}

// Session orchestrates the client components.
type Session struct {
	// Components
	net    network.Network
	ui     UI
	engine *script.Engine
	timer  *timer.Service

	// Pipeline state, owned by the session goroutine
	scanner    *text.Scanner
	builder    *text.SpanBuilder
	vitals     *gmcp.Vitals
	store      *gmcp.Store
	thresholds gauge.Thresholds

	// Channels
	events      chan event.Event
	timerEvents chan timer.Event

	// Track last prompt to commit to scrollback when replaced
	lastPrompt text.Line

	eventsProcessed atomic.Uint64
	gmcpErrors      atomic.Uint64

	// Config (retained for reload)
	config Config

	// Shutdown coordination
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new Session. It is passive; no goroutines start here.
func New(net network.Network, ui UI, cfg Config) *Session {
	timerEvents := make(chan timer.Event, 1024)

	mapper := gmcp.AbsoluteMapper
	if cfg.VitalsPercent {
		mapper = gmcp.PercentMapper
	}

	thresholds := gauge.DefaultThresholds()
	if cfg.GaugeHigh > 0 {
		thresholds.High = cfg.GaugeHigh
	}
	if cfg.GaugeMid > 0 {
		thresholds.Mid = cfg.GaugeMid
	}

	s := &Session{
		net:         net,
		ui:          ui,
		timer:       timer.NewService(timerEvents),
		timerEvents: timerEvents,
		scanner:     text.NewScanner(),
		builder:     text.NewSpanBuilder(),
		vitals:      gmcp.NewVitals(mapper),
		store:       gmcp.NewStore(),
		thresholds:  thresholds,
		events:      make(chan event.Event, 4096),
		config:      cfg,
		done:        make(chan struct{}),
	}

	s.engine = script.NewEngine(s)

	return s
}

// Run starts the session and blocks until exit.
func (s *Session) Run() error {
	defer s.engine.Close()

	if err := s.boot(); err != nil {
		s.systemLine(fmt.Sprintf("Boot error: %v", err))
	}

	go s.processEvents()

	if s.config.Address != "" {
		s.Connect(s.config.Address)
	}

	// Block on UI
	err := s.ui.Run()
	s.shutdown()
	return err
}

// processEvents is the main event loop.
func (s *Session) processEvents() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.eventsProcessed.Add(1)
			s.handleEvent(ev)
		case out := <-s.net.Output():
			s.eventsProcessed.Add(1)
			s.handleOutput(out)
		case line := <-s.ui.Input():
			s.eventsProcessed.Add(1)
			s.handleEvent(event.Event{Type: event.UserInput, Payload: line})
		case evt := <-s.timerEvents:
			s.engine.OnTimer(evt.ID, evt.Repeating)
		}
	}
}

// handleEvent executes a single event on the session loop.
func (s *Session) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.UserInput:
		s.handleInput(ev.Payload)

	case event.AsyncResult:
		if ev.Callback != nil {
			ev.Callback()
		}

	case event.SystemControl:
		s.handleControl(ev.Control)
	}
}

// handleInput runs user input through scripting, echoes it, and sends
// whatever is not consumed.
func (s *Session) handleInput(line string) {
	// A submitted command ends the overlay prompt; commit it first.
	s.commitPrompt()

	if !s.engine.OnInput(line) {
		return
	}

	if s.net.LocalEchoEnabled() {
		s.ui.Append(PaneOutput, echoLine(line))
	}
	if err := s.net.Send(line); err != nil {
		s.systemLine(fmt.Sprintf("Send failed: %v", err))
	}
}

// boot loads script state.
func (s *Session) boot() error {
	if err := s.engine.Init(); err != nil {
		return err
	}

	setupCode := fmt.Sprintf("ember.config_dir = [[%s]]", s.config.ConfigDir)
	if err := s.engine.DoString("boot_config", setupCode); err != nil {
		return err
	}

	// Load user init.lua
	initPath := filepath.Join(s.config.ConfigDir, "init.lua")
	if _, err := os.Stat(initPath); err == nil {
		if err := s.engine.DoFile(initPath); err != nil {
			return fmt.Errorf("init.lua: %w", err)
		}
	}

	// Load CLI scripts
	for _, path := range s.config.UserScripts {
		if err := s.engine.DoFile(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	s.engine.CallHook("ready")
	return nil
}

// handleControl processes system control events.
func (s *Session) handleControl(ctrl event.ControlOp) {
	switch ctrl.Action {
	case event.ActionQuit:
		s.shutdown()
	case event.ActionConnect:
		s.Connect(ctrl.Address)
	case event.ActionDisconnect:
		s.Disconnect()
	case event.ActionReload:
		s.Reload()
	case event.ActionLoadScript:
		s.loadScript(ctrl.ScriptPath)
	}
}

// --- script.Host implementation ---

func (s *Session) Print(txt string) {
	s.events <- event.Event{
		Type:     event.AsyncResult,
		Callback: func() { s.ui.Append(PaneOutput, text.PlainLine(txt)) },
	}
}

func (s *Session) Send(data string) {
	if err := s.net.Send(data); err != nil {
		s.systemLine(fmt.Sprintf("Send failed: %v", err))
	}
}

func (s *Session) Quit() { s.shutdown() }

func (s *Session) Connect(addr string) {
	s.engine.CallHook("connecting", addr)
	s.systemLine("Connecting to " + addr + "...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		err := s.net.Connect(ctx, addr)
		s.events <- event.Event{
			Type: event.AsyncResult,
			Callback: func() {
				if err != nil {
					s.systemLine(fmt.Sprintf("Connection failed: %v", err))
					s.engine.CallHook("error", err.Error())
					return
				}
				s.resetPipeline()
				s.ui.SetConnectionState(true, addr)
				s.systemLine("Connected to " + addr + ".")
				s.engine.CallHook("connected", addr)
			},
		}
	}()
}

func (s *Session) Disconnect() {
	s.engine.CallHook("disconnecting")
	s.net.Disconnect()
}

// Load enqueues a request to load a script on the session loop.
func (s *Session) Load(path string) {
	s.events <- event.Event{
		Type: event.SystemControl,
		Control: event.ControlOp{
			Action:     event.ActionLoadScript,
			ScriptPath: path,
		},
	}
}

func (s *Session) Reload() {
	s.engine.CallHook("reloading")
	s.events <- event.Event{
		Type: event.AsyncResult,
		Callback: func() {
			if err := s.boot(); err != nil {
				s.systemLine(fmt.Sprintf("Reload failed: %v", err))
			} else {
				s.engine.CallHook("reloaded")
			}
		},
	}
}

func (s *Session) SetStatus(txt string) { s.ui.SetStatus(txt) }

// GMCPValue reads a dot-path from the session's GMCP store.
func (s *Session) GMCPValue(path string) (any, bool) {
	return s.store.Get(path)
}

// TimerAfter schedules a one-shot timer. Returns the timer ID.
func (s *Session) TimerAfter(d time.Duration) int {
	return s.timer.After(d)
}

// TimerEvery schedules a repeating timer. Returns the timer ID.
func (s *Session) TimerEvery(d time.Duration) int {
	return s.timer.Every(d)
}

// TimerCancel cancels a timer by ID.
func (s *Session) TimerCancel(id int) {
	s.timer.Cancel(id)
}

// TimerCancelAll cancels all timers.
func (s *Session) TimerCancelAll() {
	s.timer.CancelAll()
}

// --- internals ---

// loadScript loads a script file and notifies hooks. Runs on the
// session goroutine.
func (s *Session) loadScript(path string) {
	if path == "" {
		s.systemLine("Load failed: empty path")
		return
	}

	if err := s.engine.DoFile(path); err != nil {
		s.systemLine(fmt.Sprintf("Load failed (%s): %v", path, err))
		return
	}

	s.engine.CallHook("loaded", path)
}

// shutdown attempts a coordinated shutdown of goroutines, timers,
// network, and UI.
func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.timer.CancelAll()
		s.net.Disconnect()
		s.ui.Quit()
	})
}

func (s *Session) systemLine(msg string) {
	s.ui.Append(PaneOutput, text.StyledLine("[ember] "+msg, systemStyle))
}

var (
	systemStyle = text.Style{Fg: text.Named(text.BrightBlack)}
	echoStyle   = text.Style{Fg: text.Named(text.Yellow)}
)

func echoLine(input string) text.Line {
	return text.StyledLine("> "+input, echoStyle)
}

// --- monitoring ---

// Stats is a point-in-time snapshot for the debug monitor.
type Stats struct {
	EventsProcessed uint64
	EventQueueLen   int
	EventQueueCap   int
	TimerQueueLen   int
	TimerQueueCap   int
	ActiveTimers    int
	Goroutines      int
	GMCPErrors      uint64
	Network         network.Stats
}

// Stats returns current session statistics. Safe to call from any
// goroutine.
func (s *Session) Stats() Stats {
	st := Stats{
		EventsProcessed: s.eventsProcessed.Load(),
		EventQueueLen:   len(s.events),
		EventQueueCap:   cap(s.events),
		TimerQueueLen:   len(s.timerEvents),
		TimerQueueCap:   cap(s.timerEvents),
		ActiveTimers:    s.timer.Active(),
		Goroutines:      runtime.NumGoroutine(),
		GMCPErrors:      s.gmcpErrors.Load(),
	}
	if sp, ok := s.net.(interface{ Stats() network.Stats }); ok {
		st.Network = sp.Stats()
	}
	return st
}
