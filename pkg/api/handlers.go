package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/qaskills/qas/pkg/core"
	"github.com/qaskills/qas/pkg/realtime"
	"github.com/qaskills/qas/pkg/search"
	"github.com/qaskills/qas/pkg/storage"
	"github.com/qaskills/qas/pkg/version"
)

// HandleSearchSkills serves GET /api/skills. When a hosted search backend is
// configured results come from it; otherwise the local store answers with
// the same result shape.
func (s *Server) HandleSearchSkills(w http.ResponseWriter, r *http.Request) {
	params, err := search.ParseSearchParams(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid search parameters", err.Error())
		return
	}

	if s.search != nil && s.search.Available() {
		result, err := s.search.Search(r.Context(), params)
		if err == nil {
			s.writeJSON(w, http.StatusOK, result)
			return
		}
		s.logger.Warnf("hosted search failed, falling back to local store: %v", err)
	}

	result, err := s.store.Search(params)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Search failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) HandleGetSkill(w http.ResponseWriter, r *http.Request) {
	idOrSlug := r.PathValue("idOrSlug")
	if idOrSlug == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid path", "Skill id or slug is required")
		return
	}

	skill, err := s.store.GetSkill(idOrSlug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Skill not found", fmt.Sprintf("No skill with id or slug '%s'", idOrSlug))
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to load skill", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, skill)
}

func (s *Server) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.Categories()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to load categories", err.Error())
		return
	}
	if categories == nil {
		categories = []core.Category{}
	}
	s.writeJSON(w, http.StatusOK, categories)
}

// HandleTrackInstall serves POST /api/telemetry/install. The event is stored,
// the install counter bumped for install actions, and the event pushed to
// firehose listeners.
func (s *Server) HandleTrackInstall(w http.ResponseWriter, r *http.Request) {
	var event core.InstallEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid payload", err.Error())
		return
	}
	if event.SkillID == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid payload", "skillId is required")
		return
	}
	if !event.Action.Valid() {
		s.writeError(w, http.StatusBadRequest, "Invalid payload", fmt.Sprintf("unknown action %q", event.Action))
		return
	}

	eventID, err := s.store.RecordInstall(event)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to record event", err.Error())
		return
	}

	if s.hub != nil {
		skillName := ""
		if skill, err := s.store.GetSkill(event.SkillID); err == nil {
			skillName = skill.Name
		}
		s.hub.Broadcast(realtime.NewInstallEvent(eventID, event, skillName))
	}

	s.writeJSON(w, http.StatusAccepted, TelemetryResponse{ID: eventID, Status: "recorded"})
}

// HandlePublishSkill serves POST /api/skills. Requires the configured bearer
// token; the skill record is built from the manifest frontmatter plus the
// markdown body.
func (s *Server) HandlePublishSkill(w http.ResponseWriter, r *http.Request) {
	if s.publishToken == "" {
		s.writeError(w, http.StatusServiceUnavailable, "Publishing disabled", "No publish token configured on this server")
		return
	}
	token := bearerToken(r)
	if token == "" {
		s.writeError(w, http.StatusUnauthorized, "Missing token", "Authorization: Bearer token is required")
		return
	}
	if token != s.publishToken {
		s.writeError(w, http.StatusForbidden, "Invalid token", "Publish token does not match")
		return
	}

	var req core.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid payload", err.Error())
		return
	}

	skill, err := skillFromPublish(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid skill", err.Error())
		return
	}

	if err := s.store.UpsertSkill(skill); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to store skill", err.Error())
		return
	}

	s.logger.Infof("published skill %s (%s)", skill.Slug, skill.ID)
	s.writeJSON(w, http.StatusCreated, core.PublishResponse{ID: skill.ID, Slug: skill.Slug})
}

// HandleExport streams the whole directory as zstd-compressed NDJSON.
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition", `attachment; filename="skills.ndjson.zst"`)
	if err := s.store.Export(w); err != nil {
		// Headers are already out; all we can do is log.
		s.logger.Errorf("exporting skills: %v", err)
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	searchStatus := "local"
	if s.search != nil && s.search.Available() {
		searchStatus = "hosted"
	}

	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
		Search:    searchStatus,
	}

	s.writeJSON(w, http.StatusOK, health)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, prefix))
}

// skillFromPublish maps manifest frontmatter onto a skill record. Name is
// the only required key; the slug defaults to a slugified name.
func skillFromPublish(req core.PublishRequest) (*core.Skill, error) {
	name := stringField(req.Frontmatter, "name")
	if name == "" {
		return nil, errors.New("frontmatter key 'name' is required")
	}
	slug := stringField(req.Frontmatter, "slug")
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, fmt.Errorf("cannot derive a slug from name %q", name)
	}

	skill := &core.Skill{
		SkillSummary: core.SkillSummary{
			Name:         name,
			Slug:         slug,
			Description:  stringField(req.Frontmatter, "description"),
			Author:       stringField(req.Frontmatter, "author"),
			TestingTypes: stringSliceField(req.Frontmatter, "testingTypes"),
			Frameworks:   stringSliceField(req.Frontmatter, "frameworks"),
		},
		Languages: stringSliceField(req.Frontmatter, "languages"),
		Domains:   stringSliceField(req.Frontmatter, "domains"),
		Agents:    stringSliceField(req.Frontmatter, "agents"),
		Content:   req.Content,
	}
	return skill, nil
}

func stringField(fm map[string]any, key string) string {
	if v, ok := fm[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func stringSliceField(fm map[string]any, key string) []string {
	raw, ok := fm[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		// Comma-separated shorthand some manifests use.
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

// Slugify lowercases a name and collapses every non-alphanumeric run into a
// single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
