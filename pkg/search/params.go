package search

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/qaskills/qas/pkg/core"
)

// ParseSearchParams parses HTTP query parameters into a core.SearchParams.
// It handles type conversion and leaves defaults to the consumers; invalid
// page/pageSize values are ignored rather than rejected.
//
// Supported parameters:
//   - q: free-text query
//   - testingTypes, frameworks, languages, domains, agents: repeated filters
//   - sort: one of trending, most_installed, newest, highest_quality
//   - page: 1-based page number (positive integer)
//   - pageSize: results per page (positive integer)
//   - verifiedOnly: "true" restricts to verified skills
func ParseSearchParams(queryParams url.Values) (core.SearchParams, error) {
	var params core.SearchParams

	if q := queryParams["q"]; len(q) > 0 {
		params.Query = q[0]
	}

	params.TestingTypes = queryParams["testingTypes"]
	params.Frameworks = queryParams["frameworks"]
	params.Languages = queryParams["languages"]
	params.Domains = queryParams["domains"]
	params.Agents = queryParams["agents"]

	if sortStr := queryParams.Get("sort"); sortStr != "" {
		sort := core.Sort(sortStr)
		if !sort.Valid() {
			return params, fmt.Errorf("unknown sort value %q", sortStr)
		}
		params.Sort = sort
	}

	if pageStr := queryParams.Get("page"); pageStr != "" {
		if parsed, err := strconv.Atoi(pageStr); err == nil && parsed > 0 {
			params.Page = parsed
		}
	}

	if sizeStr := queryParams.Get("pageSize"); sizeStr != "" {
		if parsed, err := strconv.Atoi(sizeStr); err == nil && parsed > 0 {
			params.PageSize = parsed
		}
	}

	if queryParams.Get("verifiedOnly") == "true" {
		params.VerifiedOnly = true
	}

	return params, nil
}
