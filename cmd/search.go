package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/qaskills/qas/pkg/core"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the skills directory",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Filter by testing type. Can be used multiple times",
			},
			&cli.StringSliceFlag{
				Name:    "framework",
				Aliases: []string{"f"},
				Usage:   "Filter by framework. Can be used multiple times",
			},
			&cli.StringSliceFlag{
				Name:  "language",
				Usage: "Filter by programming language. Can be used multiple times",
			},
			&cli.StringSliceFlag{
				Name:  "domain",
				Usage: "Filter by domain. Can be used multiple times",
			},
			&cli.StringSliceFlag{
				Name:  "agent",
				Usage: "Filter by supported agent. Can be used multiple times",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort order: trending, most_installed, newest, highest_quality",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "verified",
				Usage: "Only show verified skills",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			params := core.SearchParams{
				Query:        strings.Join(c.Args().Slice(), " "),
				TestingTypes: c.StringSlice("type"),
				Frameworks:   c.StringSlice("framework"),
				Languages:    c.StringSlice("language"),
				Domains:      c.StringSlice("domain"),
				Agents:       c.StringSlice("agent"),
				Sort:         core.Sort(c.String("sort")),
				Page:         c.Int("page"),
				PageSize:     c.Int("limit"),
				VerifiedOnly: c.Bool("verified"),
			}
			if params.Sort != "" && !params.Sort.Valid() {
				return fmt.Errorf("unknown sort order %q", params.Sort)
			}
			return searchSkills(ctx, c.String("config"), params)
		},
	}
}

// searchSkills queries the API and renders the result list
func searchSkills(ctx context.Context, configPath string, params core.SearchParams) error {
	api, _, err := newAPIClient(configPath)
	if err != nil {
		return err
	}

	result, err := api.SearchSkills(ctx, params)
	if err != nil {
		return reportAPIError(err)
	}

	if result.Total == 0 {
		fmt.Println(noDataStyle.Render("No skills found. Try a broader query or fewer filters."))
		return nil
	}

	header := fmt.Sprintf("Found %s skills", formatNumber(result.Total))
	if len(result.Skills) < result.Total {
		header += fmt.Sprintf(" (showing page %d, %d per page)", result.Page, result.PageSize)
	}
	fmt.Println(titleStyle.Render(header))

	for _, skill := range result.Skills {
		fmt.Println(renderSkillLine(skill))
	}

	return nil
}

// renderSkillLine renders one result row: name, slug, badges and a meta line
func renderSkillLine(skill core.SkillSummary) string {
	var b strings.Builder

	name := skill.Name
	if skill.Verified {
		name += " " + badgeStyle.Render("[verified]")
	}
	if skill.Featured {
		name += " " + badgeStyle.Render("[featured]")
	}
	b.WriteString(fmt.Sprintf("%s (%s)\n", name, skill.Slug))

	if skill.Description != "" {
		b.WriteString(skill.Description + "\n")
	}

	meta := fmt.Sprintf("by %s · %s installs · quality %s",
		skill.Author, formatNumber(skill.InstallCount), formatQuality(skill.QualityScore))
	if len(skill.TestingTypes) > 0 {
		meta += " · " + strings.Join(skill.TestingTypes, ", ")
	}
	if len(skill.Frameworks) > 0 {
		meta += " · " + strings.Join(skill.Frameworks, ", ")
	}
	b.WriteString(metaStyle.Render(meta))

	return skillStyle.Render(b.String())
}
