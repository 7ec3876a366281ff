package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/qaskills/qas/pkg/core"
)

// PublishCommand creates the publish command
func PublishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Publish a skill to the directory",
		ArgsUsage: "<SKILL.md>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "token",
				Usage: "Publish token (defaults to config or QAS_PUBLISH_TOKEN)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return errors.New("usage: qas publish <SKILL.md>")
			}
			return publishSkill(ctx, c.String("config"), c.Args().First(), c.String("token"))
		},
	}
}

// publishSkill reads a skill markdown file and publishes it via the API
func publishSkill(ctx context.Context, configPath, skillPath, token string) error {
	api, cfg, err := newAPIClient(configPath)
	if err != nil {
		return err
	}

	if token == "" {
		token = cfg.PublishToken
	}
	if token == "" {
		return errors.New("no publish token configured, set publish_token in the config or QAS_PUBLISH_TOKEN")
	}

	data, err := os.ReadFile(skillPath)
	if err != nil {
		return fmt.Errorf("reading skill file: %w", err)
	}

	frontmatter, content, err := splitFrontmatter(string(data))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", skillPath, err)
	}
	if frontmatter["name"] == nil {
		return errors.New("skill file frontmatter must set 'name'")
	}

	req := core.PublishRequest{Frontmatter: frontmatter, Content: content}
	resp, err := api.PublishSkill(ctx, req, token)
	if err != nil {
		return reportAPIError(err)
	}

	fmt.Printf("Published %s (id %s)\n", resp.Slug, resp.ID)
	return nil
}

// splitFrontmatter separates a markdown document into its YAML frontmatter
// and body. A document without a frontmatter block is an error here, since
// publishing needs at least a name.
func splitFrontmatter(doc string) (map[string]any, string, error) {
	s := strings.TrimPrefix(doc, "\uFEFF")
	if !strings.HasPrefix(s, "---") {
		return nil, "", errors.New("missing frontmatter block")
	}

	parts := strings.SplitN(s, "---", 3)
	if len(parts) < 3 {
		return nil, "", errors.New("unterminated frontmatter block")
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(parts[1]), &frontmatter); err != nil {
		return nil, "", fmt.Errorf("parsing frontmatter: %w", err)
	}

	body := strings.TrimPrefix(parts[2], "\n")
	return frontmatter, body, nil
}
