package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show local skills database statistics",
		Action: func(ctx context.Context, c *cli.Command) error {
			return showStats(c.String("config"))
		},
	}
}

// showStats prints aggregate counts from the local store
func showStats(configPath string) error {
	store, cfg, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Printf("Warning: failed to close store: %v\n", err)
		}
	}()

	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}

	fmt.Println(titleStyle.Render("Skills database"))
	fmt.Printf("Database:       %s\n", cfg.DBPath)
	fmt.Printf("Skills:         %v\n", stats["total_skills"])
	fmt.Printf("Install events: %v\n", stats["total_install_events"])
	return nil
}
