package core

import "time"

// RuntimeConfig contains settings passed to games at Reset.
type RuntimeConfig struct {
	ScreenW    int    // Screen width in characters
	ScreenH    int    // Screen height in characters
	TickRate   int    // Simulation ticks per second
	Seed       int64  // RNG seed; 0 lets the platform pick one
	ConfigPath string // Optional variant config file overriding the search path
	Difficulty string // Difficulty preset name, empty for the file's own values
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 30,
	}
}

// TickDuration returns the simulated time covered by one tick.
func (c RuntimeConfig) TickDuration() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(c.TickRate)
}

// GameState represents the current state of a game.
type GameState struct {
	Score     int           // Current score
	Captures  int           // Rewards collected this round
	Remaining time.Duration // Time left in the round, 0 for endless rounds
	GameOver  bool          // Whether the round has ended
	Paused    bool          // Whether the game is paused
}

// StepResult is returned by Game.Step after each simulation tick.
type StepResult struct {
	State GameState
}
