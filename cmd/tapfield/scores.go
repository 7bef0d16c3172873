package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tapfield/internal/registry"
	"github.com/vovakirdan/tapfield/internal/storage"
)

var (
	flagScoresLimit int
	flagTally       bool
	flagRooms       bool
	flagClear       bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores [game]",
	Short: "Show high scores for a game",
	Long: `Display the top high scores for the specified game.

With --tally, also show how many rewards of each kind were caught.
With --rooms, show the results of recent shared rooms instead (no game needed).
Without a game, show a summary of every game.

Examples:
  tapfield scores mole
  tapfield scores eggs --tally
  tapfield scores --rooms
  tapfield scores fossils --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of entries to show")
	scoresCmd.Flags().BoolVar(&flagTally, "tally", false, "Show the capture tally per reward")
	scoresCmd.Flags().BoolVar(&flagRooms, "rooms", false, "Show recent shared room results")
	scoresCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete the scores and tally of the game")
}

func runScores(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("opening scores database: %w", err)
	}
	defer store.Close()

	if flagRooms {
		return printRooms(store)
	}
	if len(args) == 0 {
		return printSummary(store)
	}

	gameID := args[0]
	if !registry.Exists(gameID) {
		return fmt.Errorf("unknown game %q; run 'tapfield list' to see available games", gameID)
	}
	game, err := registry.Create(gameID)
	if err != nil {
		return err
	}
	title := game.Title()

	if flagClear {
		if err := store.ClearScores(gameID); err != nil {
			return err
		}
		fmt.Printf("Cleared scores for %s.\n", title)
		return nil
	}

	scores, err := store.TopScores(gameID, flagScoresLimit)
	if err != nil {
		return fmt.Errorf("retrieving scores: %w", err)
	}

	fmt.Printf("High Scores - %s\n", title)
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Printf("Play 'tapfield play %s' to set the first high score!\n", gameID)
	} else {
		fmt.Printf("  %-4s  %-12s  %-8s  %-7s  %s\n", "Rank", "Player", "Score", "Caught", "Date")
		fmt.Printf("  %-4s  %-12s  %-8s  %-7s  %s\n", "----", "------", "-----", "------", "----")
		for i, entry := range scores {
			dateStr := entry.CreatedAt.Format("2006-01-02 15:04")
			fmt.Printf("  %-4d  %-12s  %-8d  %-7d  %s\n", i+1, entry.Player, entry.Score, entry.Captures, dateStr)
		}

		fmt.Println()
		if highScore, err := store.HighScore(gameID); err == nil {
			fmt.Printf("Best: %d\n", highScore)
		}
	}

	if flagTally {
		return printTally(store, gameID)
	}
	return nil
}

func printTally(store *storage.Store, gameID string) error {
	tally, err := store.Captures(gameID)
	if err != nil {
		return fmt.Errorf("retrieving tally: %w", err)
	}

	fmt.Println()
	fmt.Println("Caught")
	fmt.Println()
	if len(tally) == 0 {
		fmt.Println("Nothing caught yet.")
		return nil
	}
	fmt.Printf("  %-14s  %-11s  %s\n", "Reward", "Tier", "Count")
	fmt.Printf("  %-14s  %-11s  %s\n", "------", "----", "-----")
	for _, c := range tally {
		fmt.Printf("  %-14s  %-11s  %d\n", c.TemplateID, c.Tier, c.Count)
	}
	return nil
}

func printSummary(store *storage.Store) error {
	stats, err := store.GetAllGamesStats()
	if err != nil {
		return fmt.Errorf("retrieving stats: %w", err)
	}

	fmt.Println("All games")
	fmt.Println()
	fmt.Printf("  %-12s  %-6s  %-6s  %-7s  %s\n", "Game", "Games", "Best", "Caught", "Last played")
	fmt.Printf("  %-12s  %-6s  %-6s  %-7s  %s\n", "----", "-----", "----", "------", "-----------")
	for _, g := range registry.List() {
		s, ok := stats[g.ID]
		if !ok {
			fmt.Printf("  %-12s  %-6d  %-6s  %-7s  %s\n", g.ID, 0, "-", "-", "never")
			continue
		}
		fmt.Printf("  %-12s  %-6d  %-6d  %-7d  %s\n",
			g.ID, s.GamesCount, s.HighScore, s.TotalCaptures, s.LastPlayed.Format("2006-01-02 15:04"))
	}
	return nil
}

func printRooms(store *storage.Store) error {
	rooms, err := store.RecentRooms(flagScoresLimit)
	if err != nil {
		return fmt.Errorf("retrieving rooms: %w", err)
	}

	fmt.Println("Recent shared rooms")
	fmt.Println()
	if len(rooms) == 0 {
		fmt.Println("No shared rooms played yet.")
		return nil
	}
	for _, r := range rooms {
		players := make([]string, 0, len(r.Players))
		for _, p := range r.Players {
			players = append(players, fmt.Sprintf("%s %d", p.Player, p.Score))
		}
		fmt.Printf("  %s  %-10s  %-9s  %4ds  %s\n",
			r.Code, r.GameID, r.EndReason, r.DurationSecs, strings.Join(players, ", "))
	}
	return nil
}
