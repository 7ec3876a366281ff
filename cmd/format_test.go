package cmd

import (
	"testing"
	"time"
)

func TestFormatNumber(t *testing.T) {
	cases := map[int]string{
		0:       "0",
		999:     "999",
		1500:    "1.5K",
		2000000: "2.0M",
	}
	for in, want := range cases {
		if got := formatNumber(in); got != want {
			t.Errorf("formatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(time.Now().Add(-30 * time.Second)); got != "just now" {
		t.Errorf("expected 'just now', got %q", got)
	}
	if got := formatTime(time.Now().Add(-2 * time.Hour)); got != "2 hours ago" {
		t.Errorf("expected '2 hours ago', got %q", got)
	}
	if got := formatTime(time.Now().Add(-3 * 24 * time.Hour)); got != "3 days ago" {
		t.Errorf("expected '3 days ago', got %q", got)
	}
}

func TestFieldCaption(t *testing.T) {
	cases := map[string]string{
		"testingTypes": "Testing Types",
		"frameworks":   "Frameworks",
		"agents":       "Agents",
	}
	for in, want := range cases {
		if got := fieldCaption(in); got != want {
			t.Errorf("fieldCaption(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitFrontmatter(t *testing.T) {
	doc := "---\nname: Test Skill\nframeworks:\n  - playwright\n---\n# Body\n"
	fm, body, err := splitFrontmatter(doc)
	if err != nil {
		t.Fatalf("splitFrontmatter failed: %v", err)
	}
	if fm["name"] != "Test Skill" {
		t.Errorf("unexpected name %v", fm["name"])
	}
	if body != "# Body\n" {
		t.Errorf("unexpected body %q", body)
	}

	// Files saved by Windows editors may start with a byte-order mark.
	fm, _, err = splitFrontmatter("\uFEFF" + doc)
	if err != nil {
		t.Fatalf("splitFrontmatter with BOM failed: %v", err)
	}
	if fm["name"] != "Test Skill" {
		t.Errorf("unexpected name with BOM %v", fm["name"])
	}

	if _, _, err := splitFrontmatter("# no frontmatter"); err == nil {
		t.Error("expected error for missing frontmatter")
	}
	if _, _, err := splitFrontmatter("---\nname: x"); err == nil {
		t.Error("expected error for unterminated frontmatter")
	}
}
