package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/qaskills/qas/pkg/core"
	"github.com/qaskills/qas/pkg/version"
)

// InstallCommand creates the install command
func InstallCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Install a skill for your coding agent",
		ArgsUsage: "<skill>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "agent",
				Aliases: []string{"a"},
				Usage:   "Agent the skill is installed for. Can be used multiple times",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return errors.New("usage: qas install <skill>")
			}
			return trackSkillAction(ctx, c.String("config"), c.Args().First(), core.ActionInstall, c.StringSlice("agent"))
		},
	}
}

// RemoveCommand creates the remove command
func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove an installed skill",
		ArgsUsage: "<skill>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return errors.New("usage: qas remove <skill>")
			}
			return trackSkillAction(ctx, c.String("config"), c.Args().First(), core.ActionRemove, nil)
		},
	}
}

// UpdateCommand creates the update command
func UpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update an installed skill",
		ArgsUsage: "<skill>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return errors.New("usage: qas update <skill>")
			}
			return trackSkillAction(ctx, c.String("config"), c.Args().First(), core.ActionUpdate, nil)
		},
	}
}

// trackSkillAction resolves the skill, prints its content or instructions,
// and reports the action as telemetry. Telemetry failures are logged but
// never fail the command.
func trackSkillAction(ctx context.Context, configPath, idOrSlug string, action core.InstallAction, agents []string) error {
	api, _, err := newAPIClient(configPath)
	if err != nil {
		return err
	}

	skill, err := api.GetSkill(ctx, idOrSlug)
	if err != nil {
		return reportAPIError(err)
	}

	switch action {
	case core.ActionInstall:
		fmt.Println(titleStyle.Render("Installing " + skill.Name))
		if skill.Content != "" {
			fmt.Println(skill.Content)
		} else {
			fmt.Printf("Skill %s has no bundled content. See its repository for setup steps.\n", skill.Slug)
		}
	case core.ActionRemove:
		fmt.Printf("Removed %s. Delete the skill file from your agent's skills directory.\n", skill.Name)
	case core.ActionUpdate:
		fmt.Println(titleStyle.Render("Updating " + skill.Name))
		if skill.Content != "" {
			fmt.Println(skill.Content)
		}
	}

	event := core.InstallEvent{
		SkillID:    skill.Slug,
		Action:     action,
		Agents:     agents,
		CLIVersion: version.Version,
	}
	if err := api.TrackInstall(ctx, event); err != nil {
		// Telemetry is best effort.
		fmt.Println(metaStyle.Render("Note: could not report telemetry."))
	}

	return nil
}
