package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tapfield/internal/games/field"
	"github.com/vovakirdan/tapfield/internal/registry"
	"github.com/vovakirdan/tapfield/internal/spawn"
)

var (
	flagSimSeconds float64
	flagSimTaps    float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <game>",
	Short: "Run a round headless with a random tapper",
	Long: `Play a round without a terminal. A seeded tapper presses a random
capturable slot at the given rate; the captures are printed per tier and per
reward. Useful to check how a config change shifts the odds.

Examples:
  tapfield simulate mole
  tapfield simulate fossils --seconds 90 --taps-per-second 3 --seed 42
  tapfield simulate balloons --config ./balloons.yaml --log-level debug`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().Float64Var(&flagSimSeconds, "seconds", 60, "Simulated seconds (the round may end sooner)")
	simulateCmd.Flags().Float64Var(&flagSimTaps, "taps-per-second", 2, "Tapper rate")
}

func runSimulate(_ *cobra.Command, args []string) error {
	gameID := args[0]
	if !registry.Exists(gameID) {
		return fmt.Errorf("unknown game %q; run 'tapfield list' to see available games", gameID)
	}
	if _, err := runtimeConfig(0, 0); err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	res, err := field.Simulate(gameID, field.SimOptions{
		Seconds:       flagSimSeconds,
		TapsPerSecond: flagSimTaps,
		Seed:          flagSeed,
		TickRate:      flagFPS,
		ConfigPath:    flagConfig,
		Difficulty:    flagDifficulty,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Simulated %s for %.1fs\n", gameID, res.Elapsed.Seconds())
	fmt.Println()
	fmt.Printf("  Taps:     %d (%d with nothing to catch)\n", res.Taps, res.Misses)
	fmt.Printf("  Captures: %d\n", res.Captures)
	fmt.Printf("  Score:    %d\n", res.Score)
	fmt.Println()

	fmt.Println("By tier")
	for _, tier := range []spawn.Tier{spawn.TierNormal, spawn.TierRare, spawn.TierSuperRare} {
		fmt.Printf("  %-11s %4d  %s\n", tier, res.ByTier[tier], share(res.ByTier[tier], res.Captures))
	}
	fmt.Println()

	fmt.Println("By reward")
	ids := make([]string, 0, len(res.ByTemplate))
	for id := range res.ByTemplate {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if res.ByTemplate[ids[i]] != res.ByTemplate[ids[j]] {
			return res.ByTemplate[ids[i]] > res.ByTemplate[ids[j]]
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		fmt.Printf("  %-14s %4d  %s\n", id, res.ByTemplate[id], share(res.ByTemplate[id], res.Captures))
	}
	return nil
}

func share(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%5.1f%%", 100*float64(n)/float64(total))
}
