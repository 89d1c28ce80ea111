// Package config holds runtime configuration: defaults, CLI flag wiring, and
// validation. Nothing here is persisted; every run starts from DefaultConfig.
package config

import (
	"errors"
	"strings"
)

// --- Enum types for validated string fields ---

// EngineChoice selects the processing backend.
type EngineChoice string

const (
	EngineAuto   EngineChoice = "auto"   // SoX when located, else FFmpeg (default).
	EngineSox    EngineChoice = "sox"    // Force SoX; fail when it was not located.
	EngineFFmpeg EngineChoice = "ffmpeg" // Force FFmpeg; fail when it was not located.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then overwritten by [FromCommand] once urfave/cli has parsed the flags.
type Config struct {
	// Engine selection.
	Engine     EngineChoice // Default: "auto".
	FFmpegPath string       // Tried before the built-in candidate list.
	SoxPath    string       // Tried before the built-in candidate list.

	// Behavior flags.
	DryRun bool // Print engine command lines instead of running them.
	Quiet  bool // Suppress the progress line.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		Engine:    EngineAuto,
		ColorMode: ColorAuto,
	}
}

// Validate checks that the enum fields hold known values and that the path
// overrides are not blank strings.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineAuto, EngineSox, EngineFFmpeg:
		// valid
	default:
		return errors.New("invalid engine (use 'auto', 'sox' or 'ffmpeg')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	c.FFmpegPath = strings.TrimSpace(c.FFmpegPath)
	c.SoxPath = strings.TrimSpace(c.SoxPath)
	c.LogFile = strings.TrimSpace(c.LogFile)
	return nil
}

// ParseEngine normalizes a user-supplied engine name. Unknown values are
// returned unchanged so that [Config.Validate] reports them.
func ParseEngine(s string) EngineChoice {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return EngineAuto
	case "sox":
		return EngineSox
	case "ffmpeg":
		return EngineFFmpeg
	}
	return EngineChoice(s)
}
