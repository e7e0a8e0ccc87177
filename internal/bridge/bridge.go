// Package bridge holds the handle to the external procedural-generation
// core. JSON requests and responses are passed through opaquely, keyed by
// operation name; nothing here parses or produces their contents.
//
// The handle is injected and carried by an explicit Context with an
// initialize/shutdown lifecycle — no package-level singleton.
package bridge

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Operation names understood by the procedural core.
const (
	OpFloorLayout  = "floor_layout"
	OpMonsterStats = "monster_stats"
	OpLootRoll     = "loot_roll"
	OpCombatMath   = "combat_math"
)

// ErrNotInitialized is returned by Call before Initialize or after Shutdown.
var ErrNotInitialized = errors.New("bridge not initialized")

// Core is the injected boundary to the external library. Implementations
// own the FFI or IPC details.
type Core interface {
	// Invoke runs one named operation with a JSON request and returns a
	// JSON response.
	Invoke(op string, requestJSON string) (string, error)
}

// Context carries the core handle to whatever needs it.
type Context struct {
	core        Core
	log         *zap.Logger
	initialized bool
}

func NewContext(core Core, log *zap.Logger) *Context {
	return &Context{core: core, log: log}
}

func (c *Context) Initialized() bool {
	return c.initialized
}

// Initialize marks the context usable. Idempotent.
func (c *Context) Initialize() error {
	if c.core == nil {
		return errors.New("bridge core is nil")
	}
	c.initialized = true
	c.log.Info("程序生成橋接啟動")
	return nil
}

// Shutdown marks the context unusable. Idempotent.
func (c *Context) Shutdown() {
	if !c.initialized {
		return
	}
	c.initialized = false
	c.log.Info("程序生成橋接關閉")
}

// Call forwards one operation to the core. The JSON payloads are opaque at
// this boundary.
func (c *Context) Call(op string, requestJSON string) (string, error) {
	if !c.initialized {
		return "", fmt.Errorf("call %s: %w", op, ErrNotInitialized)
	}
	resp, err := c.core.Invoke(op, requestJSON)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", op, err)
	}
	return resp, nil
}
