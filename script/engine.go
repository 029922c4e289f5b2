package script

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	glua "github.com/yuin/gopher-lua"

	"github.com/drake/ember/gmcp"
)

// Engine wraps gopher-lua and manages the VM lifecycle.
// It is a pure mechanism: it knows how to run Lua code and expose APIs.
// It does NOT know about config dirs or boot sequences.
type Engine struct {
	L          *glua.LState
	regexCache *lru.Cache[string, *regexp.Regexp]

	// Cached table reference
	emberTable *glua.LTable

	// Host interface for communication with the rest of the system
	host Host

	// Timer callbacks - Engine owns callbacks, Timer service owns IDs
	callbacks map[int]*glua.LFunction

	// Output triggers in registration order
	triggers []*trigger
	nextTrig int

	// Vitals hook, nil until ember.on_vitals is called
	vitalsFn *glua.LFunction
}

type trigger struct {
	id int
	re *regexp.Regexp
	fn *glua.LFunction
}

// NewEngine creates an Engine with the given Host.
func NewEngine(host Host) *Engine {
	cache, _ := lru.New[string, *regexp.Regexp](100)
	return &Engine{
		regexCache: cache,
		host:       host,
		callbacks:  make(map[int]*glua.LFunction),
	}
}

// --- Lifecycle ---

// Init initializes (or re-initializes) the Lua VM with fresh state.
// It registers the API but does NOT load any scripts - that's the
// caller's job.
func (e *Engine) Init() error {
	if e.L != nil {
		e.L.Close()
	}

	e.L = glua.NewState()

	cache, _ := lru.New[string, *regexp.Regexp](100)
	e.regexCache = cache

	// Cancel all pending timers and clear script state
	e.host.TimerCancelAll()
	e.callbacks = make(map[int]*glua.LFunction)
	e.triggers = nil
	e.nextTrig = 0
	e.vitalsFn = nil

	e.registerAPI()

	return nil
}

// Close cleans up the Lua state.
func (e *Engine) Close() {
	e.host.TimerCancelAll()
	e.callbacks = nil
	e.triggers = nil
	if e.L != nil {
		e.L.Close()
		e.L = nil
	}
}

// OnTimer handles wake-up calls from Session.
// This is the single entry point for all timer callback execution.
func (e *Engine) OnTimer(id int, repeating bool) {
	if e.L == nil {
		return
	}

	fn, ok := e.callbacks[id]
	if !ok {
		return // cancelled, or belonged to a previous Engine instance
	}

	e.L.Push(fn)
	if err := e.L.PCall(0, 0, nil); err != nil {
		e.CallHook("error", "timer: "+err.Error())
	}

	if !repeating {
		delete(e.callbacks, id)
	}
}

// --- Execution Primitives ---

// DoString executes a raw string of Lua code.
// The name parameter is used for stack traces.
func (e *Engine) DoString(name, code string) error {
	fn, err := e.L.Load(strings.NewReader(code), name)
	if err != nil {
		return err
	}
	e.L.Push(fn)
	return e.L.PCall(0, 0, nil)
}

// DoFile executes a Lua file from the filesystem.
// It temporarily adjusts package.path to allow local requires.
func (e *Engine) DoFile(path string) error {
	path = expandTilde(path)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absPath)

	// Temporarily prepend the script's directory to package.path
	pkg := e.L.GetGlobal("package").(*glua.LTable)
	oldPath := e.L.GetField(pkg, "path").String()
	newPath := dir + "/?.lua;" + oldPath
	e.L.SetField(pkg, "path", glua.LString(newPath))

	err = e.L.DoFile(absPath)

	e.L.SetField(pkg, "path", glua.LString(oldPath))

	return err
}

// --- Event Handlers ---

// OnInput handles user typing. Returns false when a script consumed the
// input and it should not be sent to the server.
func (e *Engine) OnInput(text string) bool {
	fn := e.L.GetGlobal("on_input")
	if fn == glua.LNil {
		return true
	}

	if err := e.L.CallByParam(glua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, glua.LString(text)); err != nil {
		e.CallHook("error", "on_input: "+err.Error())
		return true
	}

	ret := e.L.Get(-1)
	e.L.Pop(1)

	return ret != glua.LFalse
}

// OnLine runs output triggers against the plain text of a server line.
// Returns false when any trigger gagged the line.
func (e *Engine) OnLine(text string) bool {
	show := true
	for _, tr := range e.triggers {
		matches := tr.re.FindStringSubmatch(text)
		if matches == nil {
			continue
		}

		tbl := e.L.NewTable()
		for i, m := range matches {
			tbl.RawSetInt(i+1, glua.LString(m))
		}

		if err := e.L.CallByParam(glua.P{
			Fn:      tr.fn,
			NRet:    1,
			Protect: true,
		}, glua.LString(text), tbl); err != nil {
			e.CallHook("error", "trigger: "+err.Error())
			continue
		}

		ret := e.L.Get(-1)
		e.L.Pop(1)
		if ret == glua.LFalse {
			show = false
		}
	}
	return show
}

// OnPrompt lets a script rewrite the prompt. Returns the text unchanged
// when no on_prompt global is defined.
func (e *Engine) OnPrompt(text string) string {
	fn := e.L.GetGlobal("on_prompt")
	if fn == glua.LNil {
		return text
	}

	if err := e.L.CallByParam(glua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, glua.LString(text)); err != nil {
		return text
	}

	ret := e.L.Get(-1)
	e.L.Pop(1)

	if ret == glua.LNil {
		return text
	}
	return ret.String()
}

// OnVitals forwards a vitals snapshot to the registered hook.
func (e *Engine) OnVitals(stats map[string]gmcp.Stat, flags map[string]string) {
	if e.vitalsFn == nil {
		return
	}

	tbl := e.L.NewTable()
	for name, st := range stats {
		stat := e.L.NewTable()
		e.L.SetField(stat, "current", glua.LNumber(st.Current))
		e.L.SetField(stat, "max", glua.LNumber(st.Max))
		e.L.SetField(tbl, name, stat)
	}
	flagTbl := e.L.NewTable()
	for name, val := range flags {
		e.L.SetField(flagTbl, name, glua.LString(val))
	}
	e.L.SetField(tbl, "flags", flagTbl)

	if err := e.L.CallByParam(glua.P{
		Fn:      e.vitalsFn,
		NRet:    0,
		Protect: true,
	}, tbl); err != nil {
		e.CallHook("error", "on_vitals: "+err.Error())
	}
}

// CallHook calls the global on_<event> function with string arguments,
// if it exists.
func (e *Engine) CallHook(event string, args ...string) {
	fn := e.L.GetGlobal("on_" + event)
	if fn == glua.LNil {
		return
	}

	luaArgs := make([]glua.LValue, len(args))
	for i, arg := range args {
		luaArgs[i] = glua.LString(arg)
	}

	e.L.CallByParam(glua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, luaArgs...)
}

// ExecuteCallback runs a callback function.
func (e *Engine) ExecuteCallback(cb func()) {
	if cb != nil {
		cb()
	}
}

// compileCached compiles a pattern through the LRU cache.
func (e *Engine) compileCached(pattern string) (*regexp.Regexp, error) {
	if re, ok := e.regexCache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	e.regexCache.Add(pattern, re)
	return re, nil
}

// expandTilde expands ~ to home directory.
func expandTilde(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
