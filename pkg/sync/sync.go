// Package sync imports skill packages from GitHub. Repositories tagged with
// the configured topic and carrying a skill.yaml manifest in their root are
// turned into store records; the markdown body comes from the repository's
// SKILL.md when present.
package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"github.com/qaskills/qas/pkg/core"
	"github.com/qaskills/qas/pkg/log"
	"github.com/qaskills/qas/pkg/storage"
)

const (
	manifestPath = "skill.yaml"
	contentPath  = "SKILL.md"
	defaultTopic = "qa-skill"
)

// Manifest is the skill.yaml schema skill authors publish in their repos.
type Manifest struct {
	Name         string   `yaml:"name"`
	Slug         string   `yaml:"slug"`
	Description  string   `yaml:"description"`
	Author       string   `yaml:"author"`
	TestingTypes []string `yaml:"testingTypes"`
	Frameworks   []string `yaml:"frameworks"`
	Languages    []string `yaml:"languages"`
	Domains      []string `yaml:"domains"`
	Agents       []string `yaml:"agents"`
}

// ParseManifest decodes a skill.yaml document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if strings.TrimSpace(m.Name) == "" {
		return nil, fmt.Errorf("manifest missing required key 'name'")
	}
	return &m, nil
}

type Config struct {
	Token string
	Topic string
}

// Syncer crawls GitHub for skill repositories and imports them.
type Syncer struct {
	client *github.Client
	store  *storage.Store
	topic  string
	logger *log.Logger
}

// NewSyncer builds a syncer. A token raises the API rate limit and allows
// private repositories; without one the anonymous client is used.
func NewSyncer(store *storage.Store, cfg Config) *Syncer {
	var client *github.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		tc := oauth2.NewClient(context.Background(), ts)
		client = github.NewClient(tc)
	} else {
		client = github.NewClient(nil)
	}

	topic := cfg.Topic
	if topic == "" {
		topic = defaultTopic
	}

	return &Syncer{
		client: client,
		store:  store,
		topic:  topic,
		logger: log.ForComponent("sync"),
	}
}

// Sync imports every repository tagged with the topic. Repositories without
// a parseable manifest are skipped with a warning; the first store or API
// error aborts the run. Returns the number of imported skills.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	imported := 0
	opts := &github.SearchOptions{
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		result, resp, err := s.client.Search.Repositories(ctx, "topic:"+s.topic, opts)
		if err != nil {
			return imported, fmt.Errorf("searching repositories: %w", err)
		}

		for _, repo := range result.Repositories {
			skill, err := s.importRepo(ctx, repo)
			if err != nil {
				s.logger.Warnf("skipping %s: %v", repo.GetFullName(), err)
				continue
			}
			if err := s.store.UpsertSkill(skill); err != nil {
				return imported, fmt.Errorf("storing %s: %w", skill.Slug, err)
			}
			s.logger.Debugf("imported %s from %s", skill.Slug, repo.GetFullName())
			imported++
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return imported, nil
}

func (s *Syncer) importRepo(ctx context.Context, repo *github.Repository) (*core.Skill, error) {
	owner := repo.GetOwner().GetLogin()
	name := repo.GetName()

	manifestData, err := s.fileContent(ctx, owner, name, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", manifestPath, err)
	}
	manifest, err := ParseManifest([]byte(manifestData))
	if err != nil {
		return nil, err
	}

	// SKILL.md is optional; the repo description still makes a usable record.
	content, err := s.fileContent(ctx, owner, name, contentPath)
	if err != nil {
		content = ""
	}

	return skillFromRepo(manifest, repo, content), nil
}

func (s *Syncer) fileContent(ctx context.Context, owner, repo, path string) (string, error) {
	file, _, _, err := s.client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return "", err
	}
	if file == nil {
		return "", fmt.Errorf("%s is not a file", path)
	}
	return file.GetContent()
}

// skillFromRepo maps a manifest plus its repository metadata onto a skill
// record. The repo owner wins over the manifest author, and repository
// timestamps become the record timestamps so newest sorting reflects
// upstream activity.
func skillFromRepo(m *Manifest, repo *github.Repository, content string) *core.Skill {
	slug := m.Slug
	if slug == "" {
		slug = repo.GetName()
	}

	author := repo.GetOwner().GetLogin()
	if author == "" {
		author = m.Author
	}

	description := m.Description
	if description == "" {
		description = repo.GetDescription()
	}

	return &core.Skill{
		SkillSummary: core.SkillSummary{
			Name:         m.Name,
			Slug:         slug,
			Description:  description,
			Author:       author,
			TestingTypes: m.TestingTypes,
			Frameworks:   m.Frameworks,
		},
		Languages: m.Languages,
		Domains:   m.Domains,
		Agents:    m.Agents,
		Content:   content,
		CreatedAt: repo.GetCreatedAt().Time,
		UpdatedAt: repo.GetUpdatedAt().Time,
	}
}
