package config

// This file declares the global flags shared by every verb.
// Flags are grouped into engine, behavior, and display; each group has its
// own define function so the order in --help follows the grouping.

import (
	"fmt"

	"github.com/urfave/cli/v3"
)

// Flag names read back by [FromCommand].
const (
	FlagEngine     = "engine"
	FlagFFmpegPath = "ffmpeg-path"
	FlagSoxPath    = "sox-path"
	FlagDryRun     = "dry-run"
	FlagQuiet      = "quiet"
	FlagVerbose    = "verbose"
	FlagColor      = "color"
	FlagNoColor    = "no-color"
	FlagLog        = "log"
	FlagEngines    = "engines"
)

// Flags returns the global flags in display order.
func Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, defineEngineFlags()...)
	flags = append(flags, defineBehaviorFlags()...)
	flags = append(flags, defineDisplayFlags()...)
	return flags
}

// defineEngineFlags registers --engine, --ffmpeg-path, --sox-path, --engines.
func defineEngineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagEngine,
			Aliases: []string{"e"},
			Usage:   "processing engine: auto | sox | ffmpeg",
			Value:   string(EngineAuto),
			Sources: cli.EnvVars("AUDIOFLOW_ENGINE"),
			Validator: func(s string) error {
				switch ParseEngine(s) {
				case EngineAuto, EngineSox, EngineFFmpeg:
					return nil
				}
				return fmt.Errorf("unknown engine %q (use auto, sox or ffmpeg)", s)
			},
		},
		&cli.StringFlag{
			Name:    FlagFFmpegPath,
			Usage:   "ffmpeg executable to try first",
			Sources: cli.EnvVars("AUDIOFLOW_FFMPEG"),
		},
		&cli.StringFlag{
			Name:    FlagSoxPath,
			Usage:   "sox executable to try first",
			Sources: cli.EnvVars("AUDIOFLOW_SOX"),
		},
		&cli.BoolFlag{
			Name:  FlagEngines,
			Usage: "show which engines were found and exit",
		},
	}
}

// defineBehaviorFlags registers -n/--dry-run and -q/--quiet.
func defineBehaviorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    FlagDryRun,
			Aliases: []string{"n"},
			Usage:   "print the engine command instead of running it",
		},
		&cli.BoolFlag{
			Name:    FlagQuiet,
			Aliases: []string{"q"},
			Usage:   "do not draw the progress line",
		},
	}
}

// defineDisplayFlags registers -v/--verbose, --color, --no-color, -l/--log.
func defineDisplayFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    FlagVerbose,
			Aliases: []string{"v"},
			Usage:   "debug logging and engine stderr passthrough",
		},
		&cli.BoolFlag{
			Name:  FlagColor,
			Usage: "force colored logs",
		},
		&cli.BoolFlag{
			Name:    FlagNoColor,
			Usage:   "disable colored logs",
			Sources: cli.EnvVars("AUDIOFLOW_NO_COLOR"),
		},
		&cli.StringFlag{
			Name:      FlagLog,
			Aliases:   []string{"l"},
			Usage:     "append log lines to `FILE`",
			TakesFile: true,
		},
	}
}

// FromCommand builds a Config from the parsed global flags. --no-color wins
// over --color when both are given.
func FromCommand(cmd *cli.Command) Config {
	cfg := DefaultConfig()
	cfg.Engine = ParseEngine(cmd.String(FlagEngine))
	cfg.FFmpegPath = cmd.String(FlagFFmpegPath)
	cfg.SoxPath = cmd.String(FlagSoxPath)
	cfg.DryRun = cmd.Bool(FlagDryRun)
	cfg.Quiet = cmd.Bool(FlagQuiet)
	cfg.Verbose = cmd.Bool(FlagVerbose)
	cfg.LogFile = cmd.String(FlagLog)

	switch {
	case cmd.Bool(FlagNoColor):
		cfg.ColorMode = ColorNever
	case cmd.Bool(FlagColor):
		cfg.ColorMode = ColorAlways
	}
	return cfg
}
