package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// ExportCommand creates the export command
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the local skills database as zstd-compressed NDJSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (defaults to stdout)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return exportSkills(c.String("config"), c.String("output"))
		},
	}
}

// exportSkills dumps the store to a file or stdout
func exportSkills(configPath, output string) error {
	store, _, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
		}
	}()

	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close output file: %v\n", err)
			}
		}()
		out = f
	}

	if err := store.Export(out); err != nil {
		return fmt.Errorf("exporting skills: %w", err)
	}

	if output != "" {
		fmt.Printf("Exported skills to %s\n", output)
	}
	return nil
}
