package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tapfield/internal/platform/tui"
	"github.com/vovakirdan/tapfield/internal/registry"
	"github.com/vovakirdan/tapfield/internal/storage"
)

var (
	flagWatch  bool
	flagPlayer string
)

var playCmd = &cobra.Command{
	Use:   "play <game>",
	Short: "Play a game",
	Long: `Start playing the specified game.

Controls:
  Click      - Tap whatever is in the slot
  1-9        - Tap the slot with that number
  P          - Pause
  R          - Restart (when paused or after the round)
  B/Esc      - Leave (when paused or after the round)
  Ctrl+S     - Save a screenshot to ~/.tapfield/screenshots
  Q/Ctrl+C   - Quit

Difficulty options:
  easy   - Longer lifetimes and round, slower pace increase
  normal - The variant's own values
  hard   - Shorter lifetimes and round, faster spawns
  fixed  - No pace increase during the round

Examples:
  tapfield play mole
  tapfield play eggs --difficulty easy
  tapfield play balloons --sound
  tapfield play fossils --config ./my-fossils.yaml --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&flagWatch, "watch", false, "Restart the round when the variant's config file changes")
	playCmd.Flags().StringVar(&flagPlayer, "player", "", "Name saved with scores (default: $USER)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	gameID := args[0]

	if !registry.Exists(gameID) {
		return fmt.Errorf("unknown game %q; run 'tapfield list' to see available games", gameID)
	}

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	cfg, err := runtimeConfig(width, height)
	if err != nil {
		return err
	}

	logger, closeLog, err := tuiLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	game, err := registry.Create(gameID)
	if err != nil {
		return err
	}

	// Continue without storage - game still works
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	sound, closeSound := soundPlayer(logger)
	defer closeSound()

	return tui.Run(game, cfg, tui.Options{
		Store:  store,
		Player: flagPlayer,
		Logger: logger,
		Sound:  sound,
		Watch:  flagWatch,
	})
}
