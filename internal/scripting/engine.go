package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for scenario scripts driving the
// headless client. Single-goroutine access only (tick loop).
//
// A scenario script may define:
//
//	function on_connect()          -- called once after the UDP handshake
//	function on_tick(elapsed)      -- called every tick with seconds since start
//
// and call whatever Go bindings the binary registered (log, send_chat,
// client_stats, ...).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all .lua files from scriptsDir.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scenario scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory. Missing directories are
// skipped, matching an unscripted run.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Bind registers a Go function callable from scenario scripts.
func (e *Engine) Bind(name string, fn lua.LGFunction) {
	e.vm.SetGlobal(name, e.vm.NewFunction(fn))
}

// OnConnect invokes the optional on_connect hook.
func (e *Engine) OnConnect() error {
	return e.callOptional("on_connect")
}

// OnTick invokes the optional on_tick hook with elapsed seconds.
func (e *Engine) OnTick(elapsed float64) error {
	return e.callOptional("on_tick", lua.LNumber(elapsed))
}

// callOptional calls a global function if the scripts defined it.
func (e *Engine) callOptional(name string, args ...lua.LValue) error {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return nil
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		return fmt.Errorf("lua %s: %w", name, err)
	}
	return nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}
