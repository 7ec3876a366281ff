package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qaskills/qas/pkg/core"
)

// queryBy lists the document fields matched by free-text queries, most
// important first.
const queryBy = "name,description,author"

// Config holds the hosted search engine connection. Collection defaults to
// "skills" when empty.
type Config struct {
	Host       string
	APIKey     string
	Collection string
}

// Service executes skill searches against the hosted engine.
type Service struct {
	host       string
	apiKey     string
	collection string
	httpClient *http.Client
}

// NewService creates a search service. It never fails: an incomplete
// configuration yields a service whose Search returns empty results.
func NewService(cfg Config) *Service {
	collection := cfg.Collection
	if collection == "" {
		collection = "skills"
	}
	return &Service{
		host:       strings.TrimRight(cfg.Host, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Available reports whether the search engine is configured.
func (s *Service) Available() bool {
	return s.host != "" && s.apiKey != ""
}

// Search runs one search call against the configured collection. When the
// engine is unconfigured it returns an empty result echoing the requested
// paging, never an error. Errors from a configured engine propagate
// untouched: no retry, no fallback ranking.
func (s *Service) Search(ctx context.Context, params core.SearchParams) (*core.SearchResult, error) {
	if !s.Available() {
		return &core.SearchResult{
			Skills:   []core.SkillSummary{},
			Total:    0,
			Page:     params.EffectivePage(),
			PageSize: params.EffectivePageSize(),
		}, nil
	}

	searchURL := fmt.Sprintf("%s/collections/%s/documents/search?%s",
		s.host, url.PathEscape(s.collection), buildQuery(params).Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("X-TYPESENSE-API-KEY", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying search engine: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search engine returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	return normalize(&raw, params), nil
}

// buildQuery assembles the engine's native query parameters from params.
// Facets are requested for all filterable fields regardless of which were
// used as filters, so the UI can always render filter option counts.
func buildQuery(params core.SearchParams) url.Values {
	q := url.Values{}

	// Empty queries become a match-all wildcard so the engine returns
	// ranked-by-sort results instead of zero matches.
	text := params.Query
	if text == "" {
		text = "*"
	}
	q.Set("q", text)
	q.Set("query_by", queryBy)
	q.Set("sort_by", sortExpr(params.EffectiveSort()))
	q.Set("page", strconv.Itoa(params.EffectivePage()))
	q.Set("per_page", strconv.Itoa(params.EffectivePageSize()))
	q.Set("facet_by", strings.Join(core.FilterFields, ","))

	if filter := buildFilter(params); filter != "" {
		q.Set("filter_by", filter)
	}

	return q
}

// buildFilter produces the filter_by expression: one membership clause per
// filter value (so a record must contain all of a field's requested values),
// all joined with logical AND. No active filters means no clause at all.
// Values are backtick-quoted so identifiers containing spaces, commas or
// operator characters cannot corrupt the expression.
func buildFilter(params core.SearchParams) string {
	var clauses []string
	filters := params.Filters()
	for _, field := range core.FilterFields {
		for _, value := range filters[field] {
			clauses = append(clauses, fmt.Sprintf("%s:=`%s`", field, quoteFilterValue(value)))
		}
	}
	if params.VerifiedOnly {
		clauses = append(clauses, "verified:=true")
	}
	return strings.Join(clauses, " && ")
}

// quoteFilterValue strips backticks from a value before it is embedded in a
// backtick-quoted clause; the engine's quoting has no inner escape.
func quoteFilterValue(value string) string {
	return strings.ReplaceAll(value, "`", "")
}

// sortExpr maps a sort value to the engine's field:direction syntax.
func sortExpr(sort core.Sort) string {
	switch sort {
	case core.SortNewest:
		return "createdAt:desc"
	case core.SortHighestQuality:
		return "qualityScore:desc"
	default:
		// trending and most_installed share the install-count ordering.
		return "installCount:desc"
	}
}

// searchResponse mirrors the engine's hit/facet envelope.
type searchResponse struct {
	Found int `json:"found"`
	Hits  []struct {
		Document core.SkillSummary `json:"document"`
	} `json:"hits"`
	FacetCounts []struct {
		FieldName string `json:"field_name"`
		Counts    []struct {
			Value string `json:"value"`
			Count int    `json:"count"`
		} `json:"counts"`
	} `json:"facet_counts"`
}

// normalize maps the engine response into the application result type.
// Total comes from the engine's found count, never the page's row count.
func normalize(raw *searchResponse, params core.SearchParams) *core.SearchResult {
	skills := make([]core.SkillSummary, len(raw.Hits))
	for i, hit := range raw.Hits {
		skills[i] = hit.Document
	}

	facets := make(map[string][]core.FacetCount, len(core.FilterFields))
	for _, field := range core.FilterFields {
		facets[field] = []core.FacetCount{}
	}
	for _, fc := range raw.FacetCounts {
		counts := make([]core.FacetCount, len(fc.Counts))
		for i, c := range fc.Counts {
			counts[i] = core.FacetCount{Value: c.Value, Count: c.Count}
		}
		facets[fc.FieldName] = counts
	}

	return &core.SearchResult{
		Skills:   skills,
		Total:    raw.Found,
		Page:     params.EffectivePage(),
		PageSize: params.EffectivePageSize(),
		Facets:   facets,
	}
}
