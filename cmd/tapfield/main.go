// tapfield is a terminal tap field: moles, insects, eggs and more pop up in
// slots and you click (or press 1-9) to catch them.
//
// Usage:
//
//	tapfield list              - List available games
//	tapfield play <game>       - Play a game
//	tapfield menu              - Start menu to pick games interactively
//	tapfield serve             - Start SSH server for remote and shared play
//	tapfield scores <game>     - Show high scores and the capture tally
//	tapfield simulate <game>   - Run a round headless with a random tapper
//
// Global flags:
//
//	--fps <rate>          - Set tick rate (default: 30)
//	--seed <value>        - Set RNG seed for reproducible rounds
//	--db <path>           - Set database path (default: ~/.tapfield/scores.db)
//	--config <path>       - Variant config file overriding the search path
//	--difficulty <preset> - easy, normal, hard or fixed
//	--log-level <level>   - debug, info, warn or error
//	--sound               - Play synthesized sound cues
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Import games to register them
	_ "github.com/vovakirdan/tapfield/internal/games/field"
	"github.com/vovakirdan/tapfield/internal/storage"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       int64
	flagDBPath     string
	flagConfig     string
	flagDifficulty string
	flagLogLevel   string
	flagSound      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tapfield",
	Short: "Tapfield - catch what pops up, right in your terminal",
	Long: `Tapfield is a terminal tap game. Things appear in slots on the field
(moles in holes, insects on flowers, eggs in nests) and you click them, or
press the slot's number, before they go away.

Available commands:
  list      - Show all available games
  play      - Play a specific game directly
  menu      - Interactive game picker menu
  serve     - Start SSH server for remote and shared play
  scores    - View high scores and the capture tally
  simulate  - Run a round headless with a random tapper

Examples:
  tapfield list
  tapfield play mole
  tapfield menu
  tapfield serve --ssh :2222
  tapfield scores eggs --tally
  tapfield simulate fossils --seconds 60 --taps-per-second 3`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 30, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", storage.DefaultPath, "Path to scores database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a variant config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagSound, "sound", false, "Play sound cues")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(simulateCmd)
}
