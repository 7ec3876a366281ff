package storage

import (
	"fmt"

	"github.com/qaskills/qas/pkg/core"
)

// Search runs a filtered, sorted, paged skill search against the local
// database, mirroring the hosted engine's semantics: every filter value must
// be present on a matching skill, facet counts are computed over the
// filtered set, and Total is the full match count independent of paging.
func (s *Store) Search(params core.SearchParams) (*core.SearchResult, error) {
	where, args := buildWhere(params)

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM skills s `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting matches: %w", err)
	}

	page := params.EffectivePage()
	pageSize := params.EffectivePageSize()

	query := fmt.Sprintf(`
		SELECT s.id, s.name, s.slug, s.description, s.author, s.quality_score, s.install_count, s.featured, s.verified
		FROM skills s %s
		ORDER BY %s
		LIMIT ? OFFSET ?
	`, where, orderBy(params.EffectiveSort()))

	rows, err := s.db.Query(query, append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, fmt.Errorf("querying skills: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	skills := []core.SkillSummary{}
	for rows.Next() {
		var sk core.SkillSummary
		var featured, verified int
		if err := rows.Scan(&sk.ID, &sk.Name, &sk.Slug, &sk.Description, &sk.Author,
			&sk.QualityScore, &sk.InstallCount, &featured, &verified); err != nil {
			return nil, fmt.Errorf("scanning skill row: %w", err)
		}
		sk.Featured = featured != 0
		sk.Verified = verified != 0
		skills = append(skills, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating skill rows: %w", err)
	}

	// Result rows carry the testingTypes/frameworks tag arrays too.
	for i := range skills {
		full := core.Skill{SkillSummary: skills[i]}
		if err := s.loadTags(&full); err != nil {
			return nil, err
		}
		skills[i].TestingTypes = full.TestingTypes
		skills[i].Frameworks = full.Frameworks
	}

	facets, err := s.facetCounts(where, args)
	if err != nil {
		return nil, err
	}

	return &core.SearchResult{
		Skills:   skills,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Facets:   facets,
	}, nil
}

// buildWhere assembles the WHERE clause: an FTS match for free text, one
// EXISTS membership test per filter value, and a verified flag test. Zero
// active filters produce no clause at all.
func buildWhere(params core.SearchParams) (string, []any) {
	var clauses []string
	var args []any

	if escaped := escapeFTSQuery(params.Query); escaped != "" {
		clauses = append(clauses, `s.id IN (SELECT id FROM skills_fts WHERE skills_fts MATCH ?)`)
		args = append(args, escaped)
	}

	filters := params.Filters()
	for _, field := range core.FilterFields {
		for _, value := range filters[field] {
			clauses = append(clauses, `EXISTS (SELECT 1 FROM skill_tags t WHERE t.skill_id = s.id AND t.field = ? AND t.value = ?)`)
			args = append(args, field, value)
		}
	}

	if params.VerifiedOnly {
		clauses = append(clauses, `s.verified = 1`)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	where := "WHERE " + clauses[0]
	for _, clause := range clauses[1:] {
		where += " AND " + clause
	}
	return where, args
}

func orderBy(sort core.Sort) string {
	switch sort {
	case core.SortNewest:
		return "s.created_at DESC, s.name ASC"
	case core.SortHighestQuality:
		return "s.quality_score DESC, s.name ASC"
	default:
		// trending and most_installed share the install-count ordering.
		return "s.install_count DESC, s.name ASC"
	}
}

// facetCounts computes the tag value distribution of the filtered set for
// every filterable field, most common values first.
func (s *Store) facetCounts(where string, args []any) (map[string][]core.FacetCount, error) {
	facets := make(map[string][]core.FacetCount, len(core.FilterFields))
	for _, field := range core.FilterFields {
		facets[field] = []core.FacetCount{}
	}

	query := fmt.Sprintf(`
		SELECT t.field, t.value, COUNT(DISTINCT t.skill_id)
		FROM skill_tags t
		WHERE t.skill_id IN (SELECT s.id FROM skills s %s)
		GROUP BY t.field, t.value
		ORDER BY t.field, COUNT(DISTINCT t.skill_id) DESC, t.value
	`, where)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying facets: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var field, value string
		var count int
		if err := rows.Scan(&field, &value, &count); err != nil {
			return nil, fmt.Errorf("scanning facet row: %w", err)
		}
		if _, ok := facets[field]; !ok {
			continue
		}
		facets[field] = append(facets[field], core.FacetCount{Value: value, Count: count})
	}
	return facets, rows.Err()
}
