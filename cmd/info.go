package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/qaskills/qas/pkg/core"
)

// InfoCommand creates the info command
func InfoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show details for a skill",
		ArgsUsage: "<skill>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return errors.New("usage: qas info <skill>")
			}
			return showSkill(ctx, c.String("config"), c.Args().First())
		},
	}
}

// showSkill fetches and renders a single skill
func showSkill(ctx context.Context, configPath, idOrSlug string) error {
	api, _, err := newAPIClient(configPath)
	if err != nil {
		return err
	}

	skill, err := api.GetSkill(ctx, idOrSlug)
	if err != nil {
		return reportAPIError(err)
	}

	fmt.Println(titleStyle.Render(skill.Name))

	var b strings.Builder
	if skill.Description != "" {
		b.WriteString(skill.Description + "\n\n")
	}

	writeField := func(label string, values []string) {
		if len(values) > 0 {
			b.WriteString(fmt.Sprintf("%-14s %s\n", label+":", strings.Join(values, ", ")))
		}
	}
	b.WriteString(fmt.Sprintf("%-14s %s\n", "Slug:", skill.Slug))
	b.WriteString(fmt.Sprintf("%-14s %s\n", "Author:", skill.Author))
	writeField("Testing types", skill.TestingTypes)
	writeField("Frameworks", skill.Frameworks)
	writeField("Languages", skill.Languages)
	writeField("Domains", skill.Domains)
	writeField("Agents", skill.Agents)
	b.WriteString(fmt.Sprintf("%-14s %s\n", "Installs:", formatNumber(skill.InstallCount)))
	b.WriteString(fmt.Sprintf("%-14s %s\n", "Quality:", formatQuality(skill.QualityScore)))
	if !skill.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("%-14s %s\n", "Updated:", formatTime(skill.UpdatedAt)))
	}

	badges := skillBadges(skill)
	if badges != "" {
		b.WriteString(badgeStyle.Render(badges) + "\n")
	}

	fmt.Println(skillStyle.Render(strings.TrimRight(b.String(), "\n")))

	if skill.Content != "" {
		fmt.Println(headerStyle.Render("Skill content"))
		fmt.Println(skill.Content)
	}

	fmt.Println(metaStyle.Render(fmt.Sprintf("Install with: qas install %s", skill.Slug)))
	return nil
}

func skillBadges(skill *core.Skill) string {
	var badges []string
	if skill.Verified {
		badges = append(badges, "[verified]")
	}
	if skill.Featured {
		badges = append(badges, "[featured]")
	}
	return strings.Join(badges, " ")
}
