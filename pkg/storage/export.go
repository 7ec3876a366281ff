package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/qaskills/qas/pkg/core"
)

// Export writes every skill as zstd-compressed NDJSON, one full skill record
// per line. The dump is what Import consumes, so a directory can be moved
// between deployments without going through the API.
func (s *Store) Export(w io.Writer) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	rows, err := s.db.Query(`SELECT slug FROM skills ORDER BY slug`)
	if err != nil {
		_ = enc.Close()
		return fmt.Errorf("querying skills for export: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			_ = enc.Close()
			return fmt.Errorf("scanning slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		_ = enc.Close()
		return fmt.Errorf("iterating slugs: %w", err)
	}

	jsonEnc := json.NewEncoder(enc)
	for _, slug := range slugs {
		skill, err := s.GetSkill(slug)
		if err != nil {
			_ = enc.Close()
			return fmt.Errorf("loading skill %s: %w", slug, err)
		}
		if err := jsonEnc.Encode(skill); err != nil {
			_ = enc.Close()
			return fmt.Errorf("encoding skill %s: %w", slug, err)
		}
	}

	return enc.Close()
}

// Import reads a zstd-compressed NDJSON dump produced by Export and upserts
// every record. Returns the number of imported skills.
func (s *Store) Import(r io.Reader) (int, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer dec.Close()

	count := 0
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var skill core.Skill
		if err := json.Unmarshal(line, &skill); err != nil {
			return count, fmt.Errorf("decoding skill record %d: %w", count+1, err)
		}
		if err := s.UpsertSkill(&skill); err != nil {
			return count, fmt.Errorf("importing skill %s: %w", skill.Slug, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("reading dump: %w", err)
	}
	return count, nil
}
