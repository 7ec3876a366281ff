package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/qaskills/qas/pkg/core"
	"github.com/qaskills/qas/pkg/realtime"
	"github.com/qaskills/qas/pkg/search"
	"github.com/qaskills/qas/pkg/storage"
)

func newTestServer(t *testing.T, publishToken string) (*httptest.Server, *storage.Store, *realtime.Hub) {
	t.Helper()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "qas.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	hub := realtime.NewHub(8)
	srv := NewServer(store, search.NewService(search.Config{}), hub, publishToken)

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	ts := httptest.NewServer(CorsMiddleware(mux))
	t.Cleanup(ts.Close)
	return ts, store, hub
}

func seedSkill(t *testing.T, store *storage.Store, slug string, installs int) *core.Skill {
	t.Helper()
	skill := &core.Skill{
		SkillSummary: core.SkillSummary{
			Name:         "Skill " + slug,
			Slug:         slug,
			Description:  "testing skill",
			Author:       "alice",
			QualityScore: 90,
			InstallCount: installs,
			TestingTypes: []string{"e2e"},
			Frameworks:   []string{"playwright"},
			Verified:     true,
		},
		Languages: []string{"typescript"},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.UpsertSkill(skill); err != nil {
		t.Fatalf("seeding %s failed: %v", slug, err)
	}
	return skill
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s response: %v", url, err)
		}
	}
	return resp
}

func TestSearchSkillsLocalFallback(t *testing.T) {
	ts, store, _ := newTestServer(t, "")
	seedSkill(t, store, "playwright-e2e", 10)
	seedSkill(t, store, "cypress-basics", 20)

	var result core.SearchResult
	resp := getJSON(t, ts.URL+"/api/skills?testingTypes=e2e&sort=most_installed", &result)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if result.Total != 2 {
		t.Errorf("expected total 2, got %d", result.Total)
	}
	if len(result.Skills) != 2 || result.Skills[0].Slug != "cypress-basics" {
		t.Errorf("unexpected result order: %+v", result.Skills)
	}
	// Both seeded skills share one framework, so its facet counts them both.
	frameworks := result.Facets["frameworks"]
	if len(frameworks) != 1 || frameworks[0].Value != "playwright" || frameworks[0].Count != 2 {
		t.Errorf("expected a single {playwright, 2} framework facet, got %v", frameworks)
	}
}

func TestSearchSkillsInvalidSort(t *testing.T) {
	ts, _, _ := newTestServer(t, "")

	resp := getJSON(t, ts.URL+"/api/skills?sort=bogus", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid sort, got %d", resp.StatusCode)
	}
}

func TestSearchSkillsHostedBackend(t *testing.T) {
	hosted := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"found": 42, "hits": [{"document": {"id": "1", "name": "Hosted Skill", "slug": "hosted-skill"}}]}`)
	}))
	defer hosted.Close()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "qas.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer func() {
		_ = store.Close()
	}()

	srv := NewServer(store, search.NewService(search.Config{Host: hosted.URL, APIKey: "k"}), nil, "")
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	var result core.SearchResult
	resp := getJSON(t, ts.URL+"/api/skills?q=hosted", &result)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if result.Total != 42 {
		t.Errorf("expected hosted total 42, got %d", result.Total)
	}
	if len(result.Skills) != 1 || result.Skills[0].Slug != "hosted-skill" {
		t.Errorf("unexpected hosted results: %+v", result.Skills)
	}
}

func TestGetSkill(t *testing.T) {
	ts, store, _ := newTestServer(t, "")
	seeded := seedSkill(t, store, "api-testing", 5)

	var skill core.Skill
	resp := getJSON(t, ts.URL+"/api/skills/api-testing", &skill)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if skill.ID != seeded.ID || skill.Author != "alice" {
		t.Errorf("unexpected skill: %+v", skill)
	}
	if len(skill.Languages) != 1 || skill.Languages[0] != "typescript" {
		t.Errorf("unexpected languages: %v", skill.Languages)
	}

	var errResp ErrorResponse
	resp = getJSON(t, ts.URL+"/api/skills/missing", &errResp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if errResp.Error != "Skill not found" {
		t.Errorf("unexpected error payload: %+v", errResp)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	ts, store, _ := newTestServer(t, "")
	seedSkill(t, store, "playwright-e2e", 0)

	var categories []core.Category
	resp := getJSON(t, ts.URL+"/api/categories", &categories)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(categories) == 0 {
		t.Fatal("expected at least one category")
	}

	found := false
	for _, c := range categories {
		if c.Kind == "frameworks" && c.Name == "playwright" && c.SkillCount == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("missing playwright framework category: %+v", categories)
	}
}

func TestTrackInstall(t *testing.T) {
	ts, store, _ := newTestServer(t, "")
	seedSkill(t, store, "tracked", 0)

	body, _ := json.Marshal(core.InstallEvent{
		SkillID:    "tracked",
		Action:     core.ActionInstall,
		Agents:     []string{"claude-code"},
		CLIVersion: "0.4.1",
	})
	resp, err := http.Post(ts.URL+"/api/telemetry/install", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var tr TelemetryResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if tr.ID == "" || tr.Status != "recorded" {
		t.Errorf("unexpected telemetry response: %+v", tr)
	}

	skill, err := store.GetSkill("tracked")
	if err != nil {
		t.Fatalf("GetSkill failed: %v", err)
	}
	if skill.InstallCount != 1 {
		t.Errorf("expected install count 1, got %d", skill.InstallCount)
	}
}

func TestTrackInstallInvalidAction(t *testing.T) {
	ts, _, _ := newTestServer(t, "")

	resp, err := http.Post(ts.URL+"/api/telemetry/install", "application/json",
		bytes.NewReader([]byte(`{"skillId": "x", "action": "purge"}`)))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func publishRequest(t *testing.T, url, token string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(core.PublishRequest{
		Frontmatter: map[string]any{
			"name":         "Visual Regression Testing",
			"description":  "Pixel comparison workflows",
			"author":       "carol",
			"testingTypes": []any{"visual"},
			"frameworks":   []any{"percy"},
		},
		Content: "# Visual Regression Testing",
	})
	req, err := http.NewRequest(http.MethodPost, url+"/api/skills", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	return resp
}

func TestPublishSkill(t *testing.T) {
	ts, store, _ := newTestServer(t, "secret")

	resp := publishRequest(t, ts.URL, "secret")
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var pub core.PublishResponse
	if err := json.NewDecoder(resp.Body).Decode(&pub); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if pub.Slug != "visual-regression-testing" {
		t.Errorf("unexpected slug %q", pub.Slug)
	}

	skill, err := store.GetSkill(pub.Slug)
	if err != nil {
		t.Fatalf("published skill not stored: %v", err)
	}
	if skill.Author != "carol" || skill.Content != "# Visual Regression Testing" {
		t.Errorf("unexpected stored skill: %+v", skill)
	}
	if len(skill.TestingTypes) != 1 || skill.TestingTypes[0] != "visual" {
		t.Errorf("unexpected testing types: %v", skill.TestingTypes)
	}
}

func TestPublishSkillAuth(t *testing.T) {
	ts, _, _ := newTestServer(t, "secret")

	resp := publishRequest(t, ts.URL, "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp = publishRequest(t, ts.URL, "wrong")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for bad token, got %d", resp.StatusCode)
	}
}

func TestPublishSkillDisabled(t *testing.T) {
	ts, _, _ := newTestServer(t, "")

	resp := publishRequest(t, ts.URL, "anything")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with publishing disabled, got %d", resp.StatusCode)
	}
}

func TestExportEndpoint(t *testing.T) {
	ts, store, _ := newTestServer(t, "")
	seedSkill(t, store, "exported", 3)

	resp, err := http.Get(ts.URL + "/api/export")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/zstd" {
		t.Errorf("unexpected content type %q", ct)
	}

	dec, err := zstd.NewReader(resp.Body)
	if err != nil {
		t.Fatalf("creating zstd reader: %v", err)
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	var skill core.Skill
	if err := json.Unmarshal(bytes.TrimSpace(data), &skill); err != nil {
		t.Fatalf("decoding export line: %v", err)
	}
	if skill.Slug != "exported" || skill.InstallCount != 3 {
		t.Errorf("unexpected exported skill: %+v", skill)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t, "")

	var health HealthResponse
	resp := getJSON(t, ts.URL+"/health", &health)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if health.Status != "ok" || health.Search != "local" {
		t.Errorf("unexpected health payload: %+v", health)
	}
}

func TestCorsMiddleware(t *testing.T) {
	ts, _, _ := newTestServer(t, "")

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/skills", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS failed: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for preflight, got %d", resp.StatusCode)
	}
	if origin := resp.Header.Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("unexpected allow-origin %q", origin)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Visual Regression Testing": "visual-regression-testing",
		"  API / Contract!  ":       "api-contract",
		"already-slugged":           "already-slugged",
		"---":                       "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
