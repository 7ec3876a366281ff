// Package storage persists the skills directory in a single SQLite database
// with an FTS5 index over the searchable text fields. It backs the API
// server's search, lookup, category, telemetry and export endpoints.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/qaskills/qas/pkg/core"
)

// ErrNotFound is returned when no skill matches the given id or slug.
var ErrNotFound = errors.New("skill not found")

type Store struct {
	db *sql.DB
}

// NewStore opens (and if necessary creates) the skills database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Apply performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = memory",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS skills (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			quality_score REAL NOT NULL DEFAULT 0,
			install_count INTEGER NOT NULL DEFAULT 0,
			featured INTEGER NOT NULL DEFAULT 0,
			verified INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS skill_tags (
			skill_id TEXT NOT NULL REFERENCES skills(id) ON DELETE CASCADE,
			field TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (skill_id, field, value)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_skill_tags_field_value ON skill_tags(field, value)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS skills_fts USING fts5(
			id UNINDEXED,
			name,
			description,
			author
		)`,
		`CREATE TABLE IF NOT EXISTS install_events (
			id TEXT PRIMARY KEY,
			skill_id TEXT NOT NULL,
			action TEXT NOT NULL,
			agents TEXT NOT NULL DEFAULT '[]',
			cli_version TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertSkill inserts or replaces a skill together with its tag rows and FTS
// document. A missing ID is filled with a fresh UUID; missing timestamps
// default to now.
func (s *Store) UpsertSkill(skill *core.Skill) error {
	if skill.Slug == "" {
		return errors.New("skill slug required")
	}
	if skill.ID == "" {
		skill.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if skill.CreatedAt.IsZero() {
		skill.CreatedAt = now
	}
	if skill.UpdatedAt.IsZero() {
		skill.UpdatedAt = now
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec(`
		INSERT INTO skills (id, name, slug, description, author, content, quality_score, install_count, featured, verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			author = excluded.author,
			content = excluded.content,
			quality_score = excluded.quality_score,
			featured = excluded.featured,
			verified = excluded.verified,
			updated_at = excluded.updated_at
	`, skill.ID, skill.Name, skill.Slug, skill.Description, skill.Author, skill.Content,
		skill.QualityScore, skill.InstallCount, boolToInt(skill.Featured), boolToInt(skill.Verified),
		skill.CreatedAt, skill.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting skill %s: %w", skill.Slug, err)
	}

	// The conflict target may have kept an existing id; re-read it so tag
	// and FTS rows attach to the stored row.
	var storedID string
	if err := tx.QueryRow(`SELECT id FROM skills WHERE slug = ?`, skill.Slug).Scan(&storedID); err != nil {
		return fmt.Errorf("reading stored skill id: %w", err)
	}
	skill.ID = storedID

	if _, err := tx.Exec(`DELETE FROM skill_tags WHERE skill_id = ?`, storedID); err != nil {
		return fmt.Errorf("clearing tags for %s: %w", skill.Slug, err)
	}
	for field, values := range map[string][]string{
		"testingTypes": skill.TestingTypes,
		"frameworks":   skill.Frameworks,
		"languages":    skill.Languages,
		"domains":      skill.Domains,
		"agents":       skill.Agents,
	} {
		for _, value := range values {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO skill_tags (skill_id, field, value) VALUES (?, ?, ?)`,
				storedID, field, value); err != nil {
				return fmt.Errorf("inserting tag %s=%s: %w", field, value, err)
			}
		}
	}

	if _, err := tx.Exec(`DELETE FROM skills_fts WHERE id = ?`, storedID); err != nil {
		return fmt.Errorf("clearing FTS document: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO skills_fts (id, name, description, author) VALUES (?, ?, ?, ?)`,
		storedID, skill.Name, skill.Description, skill.Author); err != nil {
		return fmt.Errorf("inserting FTS document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return nil
}

// GetSkill fetches a single skill by id or slug.
func (s *Store) GetSkill(idOrSlug string) (*core.Skill, error) {
	row := s.db.QueryRow(`
		SELECT id, name, slug, description, author, content, quality_score, install_count, featured, verified, created_at, updated_at
		FROM skills
		WHERE id = ? OR slug = ?
	`, idOrSlug, idOrSlug)

	skill, err := scanSkill(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying skill %s: %w", idOrSlug, err)
	}

	if err := s.loadTags(skill); err != nil {
		return nil, err
	}
	return skill, nil
}

func (s *Store) loadTags(skill *core.Skill) error {
	rows, err := s.db.Query(`SELECT field, value FROM skill_tags WHERE skill_id = ? ORDER BY field, value`, skill.ID)
	if err != nil {
		return fmt.Errorf("querying tags for %s: %w", skill.Slug, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return fmt.Errorf("scanning tag: %w", err)
		}
		switch field {
		case "testingTypes":
			skill.TestingTypes = append(skill.TestingTypes, value)
		case "frameworks":
			skill.Frameworks = append(skill.Frameworks, value)
		case "languages":
			skill.Languages = append(skill.Languages, value)
		case "domains":
			skill.Domains = append(skill.Domains, value)
		case "agents":
			skill.Agents = append(skill.Agents, value)
		}
	}
	return rows.Err()
}

// Categories lists every distinct tag value with the number of skills
// carrying it.
func (s *Store) Categories() ([]core.Category, error) {
	rows, err := s.db.Query(`
		SELECT field, value, COUNT(DISTINCT skill_id)
		FROM skill_tags
		GROUP BY field, value
		ORDER BY field, COUNT(DISTINCT skill_id) DESC, value
	`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var categories []core.Category
	for rows.Next() {
		var field, value string
		var count int
		if err := rows.Scan(&field, &value, &count); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, core.Category{
			ID:         field + ":" + value,
			Name:       value,
			Kind:       field,
			SkillCount: count,
		})
	}
	return categories, rows.Err()
}

// RecordInstall stores a telemetry event and bumps the skill's install count
// for install actions. Returns the stored event id.
func (s *Store) RecordInstall(event core.InstallEvent) (string, error) {
	if event.SkillID == "" {
		return "", errors.New("skill id required")
	}
	if !event.Action.Valid() {
		return "", fmt.Errorf("invalid install action %q", event.Action)
	}

	agents, err := json.Marshal(event.Agents)
	if err != nil {
		return "", fmt.Errorf("encoding agents: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	eventID := uuid.NewString()
	if _, err := tx.Exec(`
		INSERT INTO install_events (id, skill_id, action, agents, cli_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, eventID, event.SkillID, string(event.Action), string(agents), event.CLIVersion, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("inserting install event: %w", err)
	}

	if event.Action == core.ActionInstall {
		if _, err := tx.Exec(`
			UPDATE skills SET install_count = install_count + 1
			WHERE id = ? OR slug = ?
		`, event.SkillID, event.SkillID); err != nil {
			return "", fmt.Errorf("incrementing install count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return eventID, nil
}

// Stats returns aggregate counts for the status output.
func (s *Store) Stats() (map[string]any, error) {
	stats := make(map[string]any)

	var skills, installs int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM skills`).Scan(&skills); err != nil {
		return nil, fmt.Errorf("counting skills: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM install_events`).Scan(&installs); err != nil {
		return nil, fmt.Errorf("counting install events: %w", err)
	}

	stats["total_skills"] = skills
	stats["total_install_events"] = installs
	return stats, nil
}

func scanSkill(row *sql.Row) (*core.Skill, error) {
	var skill core.Skill
	var featured, verified int
	err := row.Scan(&skill.ID, &skill.Name, &skill.Slug, &skill.Description, &skill.Author,
		&skill.Content, &skill.QualityScore, &skill.InstallCount, &featured, &verified,
		&skill.CreatedAt, &skill.UpdatedAt)
	if err != nil {
		return nil, err
	}
	skill.Featured = featured != 0
	skill.Verified = verified != 0
	return &skill, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// escapeFTSQuery quotes each whitespace-separated token so user input with
// FTS5 operators ("-", "*", quotes) cannot break the MATCH expression.
func escapeFTSQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}
