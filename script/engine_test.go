package script

import (
	"testing"

	glua "github.com/yuin/gopher-lua"

	"github.com/drake/ember/gmcp"
)

func setupEngine(t *testing.T) (*Engine, *MockHost) {
	t.Helper()

	host := NewMockHost()
	engine := NewEngine(host)
	if err := engine.Init(); err != nil {
		t.Fatal("Failed to initialize engine:", err)
	}
	t.Cleanup(engine.Close)

	return engine, host
}

func mustDo(t *testing.T, e *Engine, code string) {
	t.Helper()
	if err := e.DoString("test", code); err != nil {
		t.Fatalf("lua error: %v", err)
	}
}

func TestSendAndEcho(t *testing.T) {
	engine, host := setupEngine(t)

	mustDo(t, engine, `ember.send("north")`)
	mustDo(t, engine, `ember.echo("hello")`)

	if sent := host.DrainSent(); len(sent) != 1 || sent[0] != "north" {
		t.Errorf("Sent = %v, want [north]", sent)
	}
	if printed := host.DrainPrinted(); len(printed) != 1 || printed[0] != "hello" {
		t.Errorf("Printed = %v, want [hello]", printed)
	}
}

func TestTriggerFires(t *testing.T) {
	engine, host := setupEngine(t)

	mustDo(t, engine, `
		ember.trigger("^You are hungry", function(line, m)
			ember.send("eat bread")
		end)
	`)

	if show := engine.OnLine("You are hungry."); !show {
		t.Error("trigger without a false return should not gag")
	}
	if sent := host.DrainSent(); len(sent) != 1 || sent[0] != "eat bread" {
		t.Errorf("Sent = %v, want [eat bread]", sent)
	}

	// Non-matching line fires nothing
	engine.OnLine("You are rested.")
	if sent := host.DrainSent(); len(sent) != 0 {
		t.Errorf("Sent = %v, want none", sent)
	}
}

func TestTriggerCaptures(t *testing.T) {
	engine, host := setupEngine(t)

	mustDo(t, engine, `
		ember.trigger("^(\\w+) tells you '(.+)'$", function(line, m)
			ember.send("reply " .. m[2] .. " heard: " .. m[3])
		end)
	`)

	engine.OnLine("Gandalf tells you 'fly you fools'")

	sent := host.DrainSent()
	if len(sent) != 1 || sent[0] != "reply Gandalf heard: fly you fools" {
		t.Errorf("Sent = %v", sent)
	}
}

func TestTriggerGag(t *testing.T) {
	engine, _ := setupEngine(t)

	mustDo(t, engine, `
		ember.trigger("spams", function(line, m)
			return false
		end)
	`)

	if show := engine.OnLine("A novice spams kill."); show {
		t.Error("expected gagged line")
	}
	if show := engine.OnLine("A novice waves."); !show {
		t.Error("non-matching line should show")
	}
}

func TestUntrigger(t *testing.T) {
	engine, host := setupEngine(t)

	mustDo(t, engine, `
		trig_id = ember.trigger("ding", function(line, m)
			ember.send("cheer")
		end)
	`)

	engine.OnLine("ding! level up")
	if sent := host.DrainSent(); len(sent) != 1 {
		t.Fatalf("Sent = %v, want one command", sent)
	}

	mustDo(t, engine, `ember.untrigger(trig_id)`)
	engine.OnLine("ding! level up")
	if sent := host.DrainSent(); len(sent) != 0 {
		t.Errorf("Sent after untrigger = %v, want none", sent)
	}
}

func TestBadTriggerPattern(t *testing.T) {
	engine, _ := setupEngine(t)

	mustDo(t, engine, `
		id, err = ember.trigger("(unclosed", function() end)
	`)

	if got := engine.L.GetGlobal("id"); got != glua.LNil {
		t.Errorf("id = %v, want nil", got)
	}
	if got := engine.L.GetGlobal("err"); got == glua.LNil {
		t.Error("expected an error message for a bad pattern")
	}
}

func TestOnInputConsumed(t *testing.T) {
	engine, host := setupEngine(t)

	// No hook defined: input passes through
	if !engine.OnInput("look") {
		t.Error("input should pass through without a hook")
	}

	mustDo(t, engine, `
		function on_input(text)
			if text == "n" then
				ember.send("north")
				return false
			end
			return true
		end
	`)

	if engine.OnInput("n") {
		t.Error("aliased input should be consumed")
	}
	if sent := host.DrainSent(); len(sent) != 1 || sent[0] != "north" {
		t.Errorf("Sent = %v, want [north]", sent)
	}
	if !engine.OnInput("look") {
		t.Error("unaliased input should pass through")
	}
}

func TestOnPromptRewrite(t *testing.T) {
	engine, _ := setupEngine(t)

	if got := engine.OnPrompt("100hp>"); got != "100hp>" {
		t.Errorf("prompt without hook = %q", got)
	}

	mustDo(t, engine, `
		function on_prompt(text)
			return "[" .. text .. "]"
		end
	`)

	if got := engine.OnPrompt("100hp>"); got != "[100hp>]" {
		t.Errorf("rewritten prompt = %q", got)
	}
}

func TestTimerCallback(t *testing.T) {
	engine, host := setupEngine(t)

	mustDo(t, engine, `
		ember.timer.after(5, function()
			ember.send("wake")
		end)
	`)

	if len(host.timerDone) != 1 {
		t.Fatalf("expected one scheduled timer, got %d", len(host.timerDone))
	}

	// The service fires; Session routes the wake-up back to the engine
	engine.OnTimer(1, false)
	if sent := host.DrainSent(); len(sent) != 1 || sent[0] != "wake" {
		t.Errorf("Sent = %v, want [wake]", sent)
	}

	// One-shot callbacks are removed after firing
	engine.OnTimer(1, false)
	if sent := host.DrainSent(); len(sent) != 0 {
		t.Errorf("Sent after second fire = %v, want none", sent)
	}
}

func TestOnVitalsHook(t *testing.T) {
	engine, host := setupEngine(t)

	mustDo(t, engine, `
		ember.on_vitals(function(v)
			if v.hp.current < v.hp.max / 2 then
				ember.send("flee")
			end
			seen_flag = v.flags.combat
		end)
	`)

	engine.OnVitals(
		map[string]gmcp.Stat{"hp": {Current: 20, Max: 100}},
		map[string]string{"combat": "1"},
	)

	if sent := host.DrainSent(); len(sent) != 1 || sent[0] != "flee" {
		t.Errorf("Sent = %v, want [flee]", sent)
	}
	if got := engine.L.GetGlobal("seen_flag"); got.String() != "1" {
		t.Errorf("seen_flag = %v, want 1", got)
	}
}

func TestGMCPLookup(t *testing.T) {
	engine, host := setupEngine(t)
	host.gmcpValues["char.vitals"] = map[string]any{"hp": float64(42)}

	mustDo(t, engine, `
		v = ember.gmcp("char.vitals")
		hp = v.hp
		missing = ember.gmcp("room.info")
	`)

	if got := engine.L.GetGlobal("hp"); got != glua.LNumber(42) {
		t.Errorf("hp = %v, want 42", got)
	}
	if got := engine.L.GetGlobal("missing"); got != glua.LNil {
		t.Errorf("missing = %v, want nil", got)
	}
}

func TestInitResetsScriptState(t *testing.T) {
	engine, host := setupEngine(t)

	mustDo(t, engine, `ember.trigger("x", function() ember.send("y") end)`)
	if err := engine.Init(); err != nil {
		t.Fatal(err)
	}

	engine.OnLine("x marks the spot")
	if sent := host.DrainSent(); len(sent) != 0 {
		t.Errorf("triggers should not survive Init, got %v", sent)
	}
	if host.cancelledAll < 2 {
		t.Errorf("Init should cancel pending timers, cancelledAll = %d", host.cancelledAll)
	}
}
