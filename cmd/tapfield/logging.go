package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tapfield/internal/audio"
	"github.com/vovakirdan/tapfield/internal/config"
	"github.com/vovakirdan/tapfield/internal/core"
	"github.com/vovakirdan/tapfield/internal/spawn"
)

// newLogger builds the command logger at --log-level.
func newLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(strings.ToLower(flagLogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", flagLogLevel, err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "tapfield",
		Level:           level,
	}), nil
}

// tuiLogger logs to ~/.tapfield/tapfield.log; a TUI owns the terminal.
// The returned func closes the file.
func tuiLogger() (*log.Logger, func(), error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot get home directory: %w", err)
	}
	dir := filepath.Join(home, ".tapfield")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("cannot create %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "tapfield.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file: %w", err)
	}
	logger, err := newLogger(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, func() { f.Close() }, nil
}

// soundPlayer returns the speaker player when --sound is set. A speaker
// that fails to open leaves the game silent.
func soundPlayer(logger *log.Logger) (spawn.SoundPlayer, func()) {
	if !flagSound {
		return audio.Nop{}, func() {}
	}
	p := audio.NewPlayer(audio.WithLogger(logger))
	if err := p.Init(); err != nil {
		logger.Warn("sound disabled", "err", err)
		return audio.Nop{}, func() {}
	}
	return p, p.Close
}

// runtimeConfig builds the runtime config from the global flags.
func runtimeConfig(width, height int) (core.RuntimeConfig, error) {
	if flagDifficulty != "" {
		if _, err := config.ParsePreset(flagDifficulty); err != nil {
			return core.RuntimeConfig{}, err
		}
	}
	if flagFPS <= 0 {
		return core.RuntimeConfig{}, fmt.Errorf("--fps must be positive, got %d", flagFPS)
	}
	return core.RuntimeConfig{
		ScreenW:    width,
		ScreenH:    height,
		TickRate:   flagFPS,
		Seed:       flagSeed,
		ConfigPath: flagConfig,
		Difficulty: flagDifficulty,
	}, nil
}
