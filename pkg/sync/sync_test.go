package sync

import (
	"testing"
	"time"

	"github.com/google/go-github/v73/github"
)

const sampleManifest = `
name: Playwright E2E
slug: playwright-e2e
description: End to end browser testing workflows
author: alice
testingTypes:
  - e2e
frameworks:
  - playwright
languages:
  - typescript
agents:
  - claude-code
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if m.Name != "Playwright E2E" || m.Slug != "playwright-e2e" {
		t.Errorf("unexpected identity fields: %+v", m)
	}
	if len(m.TestingTypes) != 1 || m.TestingTypes[0] != "e2e" {
		t.Errorf("unexpected testing types %v", m.TestingTypes)
	}
	if len(m.Agents) != 1 || m.Agents[0] != "claude-code" {
		t.Errorf("unexpected agents %v", m.Agents)
	}
}

func TestParseManifestErrors(t *testing.T) {
	if _, err := ParseManifest([]byte("description: no name here")); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := ParseManifest([]byte("\tnot: [valid yaml")); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestSkillFromRepo(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}

	created := github.Timestamp{Time: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	updated := github.Timestamp{Time: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	repo := &github.Repository{
		Name:        github.Ptr("pw-skill"),
		Description: github.Ptr("repo description"),
		Owner:       &github.User{Login: github.Ptr("bob")},
		CreatedAt:   &created,
		UpdatedAt:   &updated,
	}

	skill := skillFromRepo(m, repo, "# body")
	if skill.Slug != "playwright-e2e" {
		t.Errorf("manifest slug should win, got %q", skill.Slug)
	}
	// The repo owner is the authoritative author.
	if skill.Author != "bob" {
		t.Errorf("expected repo owner as author, got %q", skill.Author)
	}
	if skill.Description != "End to end browser testing workflows" {
		t.Errorf("manifest description should win, got %q", skill.Description)
	}
	if skill.Content != "# body" {
		t.Errorf("unexpected content %q", skill.Content)
	}
	if !skill.CreatedAt.Equal(created.Time) || !skill.UpdatedAt.Equal(updated.Time) {
		t.Errorf("expected repo timestamps, got %v / %v", skill.CreatedAt, skill.UpdatedAt)
	}

	// Sparse manifests fall back to repository metadata.
	minimal := &Manifest{Name: "Minimal"}
	skill = skillFromRepo(minimal, repo, "")
	if skill.Slug != "pw-skill" {
		t.Errorf("expected repo name slug fallback, got %q", skill.Slug)
	}
	if skill.Description != "repo description" {
		t.Errorf("expected repo description fallback, got %q", skill.Description)
	}
}
