package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/qaskills/qas/pkg/sync"
)

// SyncCommand creates the sync command
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Import skills from GitHub repositories into the local database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "topic",
				Usage: "Repository topic to sync (defaults to config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return syncSkills(ctx, c.String("config"), c.String("topic"))
		},
	}
}

// syncSkills crawls GitHub for skill repositories and imports them
func syncSkills(ctx context.Context, configPath, topic string) error {
	store, cfg, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Printf("Warning: failed to close store: %v\n", err)
		}
	}()

	if topic == "" {
		topic = cfg.GitHub.Topic
	}

	syncer := sync.NewSyncer(store, sync.Config{
		Token: cfg.GitHub.Token,
		Topic: topic,
	})

	fmt.Printf("Syncing repositories tagged '%s'...\n", topic)
	imported, err := syncer.Sync(ctx)
	if err != nil {
		return fmt.Errorf("syncing skills: %w", err)
	}

	fmt.Printf("Imported %d skills\n", imported)
	return nil
}
