// Package core defines the data types shared by the qas CLI, the REST
// client, the search service and the API server. All of them are transient
// request/response values: they are built for a single call and discarded,
// there is no caching layer and no identity beyond the provider's own
// id/slug.
package core

import "time"

// Sort identifies one of the recognized result orderings.
type Sort string

const (
	SortTrending       Sort = "trending"
	SortMostInstalled  Sort = "most_installed"
	SortNewest         Sort = "newest"
	SortHighestQuality Sort = "highest_quality"
)

// Valid reports whether s is one of the recognized sort values.
func (s Sort) Valid() bool {
	switch s {
	case SortTrending, SortMostInstalled, SortNewest, SortHighestQuality:
		return true
	}
	return false
}

// FilterFields lists the multi-valued skill fields that can be filtered and
// faceted on, in the order facets are reported.
var FilterFields = []string{"testingTypes", "frameworks", "languages", "domains", "agents"}

// SearchParams describes a single skill search. A zero field means "not
// specified"; callers never mutate a SearchParams after constructing it, and
// every request built from one is a pure function of its fields.
type SearchParams struct {
	// Query is the free-text search term. Empty means match all.
	Query string

	// TestingTypes, Frameworks, Languages, Domains and Agents each restrict
	// results to skills whose corresponding multi-valued field contains all
	// of the given values. Nil or empty means no restriction.
	TestingTypes []string
	Frameworks   []string
	Languages    []string
	Domains      []string
	Agents       []string

	// Sort selects the result ordering. Empty defaults to SortTrending.
	Sort Sort

	// Page is the 1-based page number. Zero defaults to 1.
	Page int

	// PageSize is the number of results per page. Zero defaults to 20.
	PageSize int

	// VerifiedOnly restricts results to verified skills when true.
	VerifiedOnly bool
}

// EffectivePage returns the page number with the default applied.
func (p SearchParams) EffectivePage() int {
	if p.Page > 0 {
		return p.Page
	}
	return 1
}

// EffectivePageSize returns the page size with the default applied.
func (p SearchParams) EffectivePageSize() int {
	if p.PageSize > 0 {
		return p.PageSize
	}
	return 20
}

// EffectiveSort returns the sort order with the default applied.
func (p SearchParams) EffectiveSort() Sort {
	if p.Sort == "" {
		return SortTrending
	}
	return p.Sort
}

// Filters returns the five filterable field sequences keyed by field name,
// in FilterFields order.
func (p SearchParams) Filters() map[string][]string {
	return map[string][]string{
		"testingTypes": p.TestingTypes,
		"frameworks":   p.Frameworks,
		"languages":    p.Languages,
		"domains":      p.Domains,
		"agents":       p.Agents,
	}
}

// SkillSummary is a single search result row.
type SkillSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Description  string   `json:"description"`
	Author       string   `json:"author"`
	QualityScore float64  `json:"qualityScore"`
	InstallCount int      `json:"installCount"`
	TestingTypes []string `json:"testingTypes"`
	Frameworks   []string `json:"frameworks"`
	Featured     bool     `json:"featured"`
	Verified     bool     `json:"verified"`
}

// Skill is the full record returned when fetching a single skill.
type Skill struct {
	SkillSummary
	Languages []string  `json:"languages"`
	Domains   []string  `json:"domains"`
	Agents    []string  `json:"agents"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FacetCount is one value of a categorical field together with the number of
// matching skills carrying that value.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SearchResult is the envelope returned by every search transport. Total is
// the provider's reported match count and may exceed len(Skills) under
// paging. Facets describes the distribution of the filterable fields so a
// UI can render filter option counts; it may be nil when the provider does
// not report facets.
type SearchResult struct {
	Skills   []SkillSummary          `json:"skills"`
	Total    int                     `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"pageSize"`
	Facets   map[string][]FacetCount `json:"facets,omitempty"`
}

// Category is a single filterable category (a testing type, framework,
// language, domain or agent) with the number of skills tagged with it.
type Category struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	SkillCount int    `json:"skillCount"`
}

// InstallAction enumerates the telemetry actions the CLI reports.
type InstallAction string

const (
	ActionInstall InstallAction = "install"
	ActionRemove  InstallAction = "remove"
	ActionUpdate  InstallAction = "update"
)

// Valid reports whether a is one of the recognized install actions.
func (a InstallAction) Valid() bool {
	switch a {
	case ActionInstall, ActionRemove, ActionUpdate:
		return true
	}
	return false
}

// InstallEvent is the telemetry payload sent when a skill is installed,
// removed or updated.
type InstallEvent struct {
	SkillID    string        `json:"skillId"`
	Action     InstallAction `json:"action"`
	Agents     []string      `json:"agents"`
	CLIVersion string        `json:"cliVersion"`
}

// PublishRequest is the payload for publishing a skill: the parsed
// frontmatter of the skill manifest plus the markdown body.
type PublishRequest struct {
	Frontmatter map[string]any `json:"frontmatter"`
	Content     string         `json:"content"`
}

// PublishResponse identifies a freshly published skill.
type PublishResponse struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}
