package scripting

import (
	"os"
	"path/filepath"
	"testing"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func TestHooksAreOptional(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	if err := e.OnConnect(); err != nil {
		t.Fatalf("on_connect without script: %v", err)
	}
	if err := e.OnTick(0.5); err != nil {
		t.Fatalf("on_tick without script: %v", err)
	}
}

func TestMissingScriptsDirIsUnscriptedRun(t *testing.T) {
	e, err := NewEngine(filepath.Join(t.TempDir(), "absent"), zap.NewNop())
	if err != nil {
		t.Fatalf("missing dir should not fail: %v", err)
	}
	e.Close()
}

func TestOnTickReceivesElapsed(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "scenario.lua", `
last_elapsed = -1
function on_tick(elapsed)
    last_elapsed = elapsed
    record(elapsed)
end
`)

	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	var got []float64
	e.Bind("record", func(L *lua.LState) int {
		got = append(got, float64(L.CheckNumber(1)))
		return 0
	})

	if err := e.OnTick(1.25); err != nil {
		t.Fatalf("on_tick: %v", err)
	}
	if err := e.OnTick(2.5); err != nil {
		t.Fatalf("on_tick: %v", err)
	}
	if len(got) != 2 || got[0] != 1.25 || got[1] != 2.5 {
		t.Fatalf("recorded: %v", got)
	}
}

func TestOnConnectCallsBinding(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "scenario.lua", `
function on_connect()
    greet("tower")
end
`)

	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	var name string
	e.Bind("greet", func(L *lua.LState) int {
		name = L.CheckString(1)
		return 0
	})

	if err := e.OnConnect(); err != nil {
		t.Fatalf("on_connect: %v", err)
	}
	if name != "tower" {
		t.Fatalf("binding saw %q", name)
	}
}

func TestScriptErrorSurfaces(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "scenario.lua", `
function on_tick(elapsed)
    error("scenario exploded")
end
`)

	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer e.Close()

	if err := e.OnTick(0); err == nil {
		t.Fatalf("expected lua error to propagate")
	}
}

func TestBrokenScriptFailsLoad(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", "function on_tick( -- unterminated")

	if _, err := NewEngine(dir, zap.NewNop()); err == nil {
		t.Fatalf("expected load failure")
	}
}

func TestNonLuaFilesIgnored(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "notes.txt", "this is not lua ((")

	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	e.Close()
}
