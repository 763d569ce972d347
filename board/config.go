package board

import (
	"os"
	"strconv"
	"time"
)

// Config carries the engine's timing knobs. Zero values fall back to the
// documented defaults, so Config{} is usable as-is.
type Config struct {
	// DebounceInterval is the quiet period before a lane's pending state
	// change is flushed to the gateway.
	DebounceInterval time.Duration
	// ManualMoveWindow is how long automation stays suppressed after a
	// user-initiated drop.
	ManualMoveWindow time.Duration
	// FlushTimeout bounds each gateway call issued by the engine.
	FlushTimeout time.Duration
	// MaxAutomationPasses caps re-evaluation rounds within one settle, so
	// conflicting rules cannot ping-pong a task forever.
	MaxAutomationPasses int
}

// DefaultConfig reads the engine knobs from the environment.
func DefaultConfig() Config {
	return Config{
		DebounceInterval:    envDur("FLOWMATE_AUTOSAVE_DEBOUNCE", time.Second),
		ManualMoveWindow:    envDur("FLOWMATE_MANUAL_MOVE_WINDOW", 2*time.Second),
		FlushTimeout:        envDur("FLOWMATE_FLUSH_TIMEOUT", 30*time.Second),
		MaxAutomationPasses: envInt("FLOWMATE_AUTOMATION_PASSES", 4),
	}
}

func (c Config) withDefaults() Config {
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = time.Second
	}
	if c.ManualMoveWindow <= 0 {
		c.ManualMoveWindow = 2 * c.DebounceInterval
	}
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = 30 * time.Second
	}
	if c.MaxAutomationPasses <= 0 {
		c.MaxAutomationPasses = 4
	}
	return c
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDur(name string, def time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
