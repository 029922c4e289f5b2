package script

import (
	"time"

	glua "github.com/yuin/gopher-lua"
)

// registerAPI builds the ember.* table exposed to user scripts.
func (e *Engine) registerAPI() {
	e.emberTable = e.L.NewTable()
	e.L.SetGlobal("ember", e.emberTable)

	e.registerCoreFuncs()
	e.registerTriggerFuncs()
	e.registerTimerFuncs()
	e.registerGMCPFuncs()
}

func (e *Engine) registerCoreFuncs() {
	// ember.send(text): writes a command to the server
	e.L.SetField(e.emberTable, "send", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Send(L.CheckString(1))
		return 0
	}))

	// ember.echo(text): prints to the local display only
	e.L.SetField(e.emberTable, "echo", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Print(L.CheckString(1))
		return 0
	}))

	// ember.status(text): sets the status bar text
	e.L.SetField(e.emberTable, "status", e.L.NewFunction(func(L *glua.LState) int {
		e.host.SetStatus(L.CheckString(1))
		return 0
	}))

	// ember.quit(): exit the client
	e.L.SetField(e.emberTable, "quit", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Quit()
		return 0
	}))

	// ember.connect(address): connect to a server
	e.L.SetField(e.emberTable, "connect", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Connect(L.CheckString(1))
		return 0
	}))

	// ember.disconnect(): drop the current connection
	e.L.SetField(e.emberTable, "disconnect", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Disconnect()
		return 0
	}))

	// ember.reload(): reload all scripts
	e.L.SetField(e.emberTable, "reload", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Reload()
		return 0
	}))

	// ember.load(path): load a Lua script file
	e.L.SetField(e.emberTable, "load", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Load(L.CheckString(1))
		return 0
	}))
}

func (e *Engine) registerTriggerFuncs() {
	// ember.trigger(pattern, callback): run callback(line, captures) on
	// every matching server line. Returning false gags the line.
	// Returns the trigger ID, or nil plus an error message.
	e.L.SetField(e.emberTable, "trigger", e.L.NewFunction(func(L *glua.LState) int {
		pattern := L.CheckString(1)
		fn := L.CheckFunction(2)

		re, err := e.compileCached(pattern)
		if err != nil {
			L.Push(glua.LNil)
			L.Push(glua.LString(err.Error()))
			return 2
		}

		e.nextTrig++
		e.triggers = append(e.triggers, &trigger{id: e.nextTrig, re: re, fn: fn})
		L.Push(glua.LNumber(e.nextTrig))
		return 1
	}))

	// ember.untrigger(id): remove a trigger
	e.L.SetField(e.emberTable, "untrigger", e.L.NewFunction(func(L *glua.LState) int {
		id := int(L.CheckNumber(1))
		for i, tr := range e.triggers {
			if tr.id == id {
				e.triggers = append(e.triggers[:i], e.triggers[i+1:]...)
				break
			}
		}
		return 0
	}))

	// ember.on_vitals(callback): callback receives a table of stats and
	// flags on every vitals change
	e.L.SetField(e.emberTable, "on_vitals", e.L.NewFunction(func(L *glua.LState) int {
		e.vitalsFn = L.CheckFunction(1)
		return 0
	}))
}

func (e *Engine) registerTimerFuncs() {
	timerTable := e.L.NewTable()
	e.L.SetField(e.emberTable, "timer", timerTable)

	// ember.timer.after(seconds, callback): one-shot timer, returns ID
	e.L.SetField(timerTable, "after", e.L.NewFunction(func(L *glua.LState) int {
		seconds := L.CheckNumber(1)
		fn := L.CheckFunction(2)

		id := e.host.TimerAfter(toDuration(seconds))
		e.callbacks[id] = fn

		L.Push(glua.LNumber(id))
		return 1
	}))

	// ember.timer.every(seconds, callback): repeating timer, returns ID
	e.L.SetField(timerTable, "every", e.L.NewFunction(func(L *glua.LState) int {
		seconds := L.CheckNumber(1)
		fn := L.CheckFunction(2)

		id := e.host.TimerEvery(toDuration(seconds))
		e.callbacks[id] = fn

		L.Push(glua.LNumber(id))
		return 1
	}))

	// ember.timer.cancel(id): stop a timer
	e.L.SetField(timerTable, "cancel", e.L.NewFunction(func(L *glua.LState) int {
		id := int(L.CheckNumber(1))
		if _, ok := e.callbacks[id]; ok {
			delete(e.callbacks, id)
			e.host.TimerCancel(id)
		}
		return 0
	}))

	// ember.timer.cancel_all(): stop all timers
	e.L.SetField(timerTable, "cancel_all", e.L.NewFunction(func(L *glua.LState) int {
		e.callbacks = make(map[int]*glua.LFunction)
		e.host.TimerCancelAll()
		return 0
	}))
}

func (e *Engine) registerGMCPFuncs() {
	// ember.gmcp(path): read a dot-path from the GMCP store, e.g.
	// ember.gmcp("char.vitals.hp"). Returns nil if unset.
	e.L.SetField(e.emberTable, "gmcp", e.L.NewFunction(func(L *glua.LState) int {
		path := L.CheckString(1)
		val, ok := e.host.GMCPValue(path)
		if !ok {
			L.Push(glua.LNil)
			return 1
		}
		L.Push(toLua(L, val))
		return 1
	}))
}

// toLua converts a decoded JSON value into its Lua equivalent.
func toLua(L *glua.LState, val any) glua.LValue {
	switch v := val.(type) {
	case nil:
		return glua.LNil
	case bool:
		return glua.LBool(v)
	case float64:
		return glua.LNumber(v)
	case string:
		return glua.LString(v)
	case []any:
		tbl := L.NewTable()
		for i, item := range v {
			tbl.RawSetInt(i+1, toLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for key, item := range v {
			L.SetField(tbl, key, toLua(L, item))
		}
		return tbl
	default:
		return glua.LNil
	}
}

// toDuration converts Lua number seconds to Go duration
func toDuration(seconds glua.LNumber) time.Duration {
	return time.Duration(float64(seconds) * float64(time.Second))
}
