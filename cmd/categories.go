package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/qaskills/qas/pkg/core"
)

// CategoriesCommand creates the categories command
func CategoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List skill categories",
		Action: func(ctx context.Context, c *cli.Command) error {
			return listCategories(ctx, c.String("config"))
		},
	}
}

// listCategories fetches and renders categories grouped by kind
func listCategories(ctx context.Context, configPath string) error {
	api, _, err := newAPIClient(configPath)
	if err != nil {
		return err
	}

	categories, err := api.GetCategories(ctx)
	if err != nil {
		return reportAPIError(err)
	}

	if len(categories) == 0 {
		fmt.Println(noDataStyle.Render("No categories yet."))
		return nil
	}

	// Group by kind in the canonical filter field order.
	grouped := make(map[string][]core.Category)
	for _, cat := range categories {
		grouped[cat.Kind] = append(grouped[cat.Kind], cat)
	}

	for _, field := range core.FilterFields {
		kinds := grouped[field]
		if len(kinds) == 0 {
			continue
		}
		fmt.Println(headerStyle.Render(fieldCaption(field)))
		for _, cat := range kinds {
			fmt.Printf("  %s (%s skills)\n", cat.Name, formatNumber(cat.SkillCount))
		}
	}

	return nil
}

// fieldCaption turns a camelCase field name into a display caption, e.g.
// "testingTypes" becomes "Testing Types".
func fieldCaption(field string) string {
	var spaced []rune
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			spaced = append(spaced, ' ')
		}
		spaced = append(spaced, r)
	}
	return titleCase(string(spaced))
}
