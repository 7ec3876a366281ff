package core

import "testing"

func TestSearchParamsDefaults(t *testing.T) {
	var p SearchParams

	if got := p.EffectivePage(); got != 1 {
		t.Errorf("EffectivePage() = %d, want 1", got)
	}
	if got := p.EffectivePageSize(); got != 20 {
		t.Errorf("EffectivePageSize() = %d, want 20", got)
	}
	if got := p.EffectiveSort(); got != SortTrending {
		t.Errorf("EffectiveSort() = %q, want %q", got, SortTrending)
	}
}

func TestSearchParamsExplicitValues(t *testing.T) {
	p := SearchParams{Page: 3, PageSize: 5, Sort: SortNewest}

	if got := p.EffectivePage(); got != 3 {
		t.Errorf("EffectivePage() = %d, want 3", got)
	}
	if got := p.EffectivePageSize(); got != 5 {
		t.Errorf("EffectivePageSize() = %d, want 5", got)
	}
	if got := p.EffectiveSort(); got != SortNewest {
		t.Errorf("EffectiveSort() = %q, want %q", got, SortNewest)
	}
}

func TestSortValid(t *testing.T) {
	for _, s := range []Sort{SortTrending, SortMostInstalled, SortNewest, SortHighestQuality} {
		if !s.Valid() {
			t.Errorf("Sort(%q).Valid() = false, want true", s)
		}
	}
	if Sort("popular").Valid() {
		t.Error("Sort(\"popular\").Valid() = true, want false")
	}
	if Sort("").Valid() {
		t.Error("empty sort should not be valid")
	}
}

func TestFiltersCoverAllFilterFields(t *testing.T) {
	p := SearchParams{
		TestingTypes: []string{"e2e"},
		Frameworks:   []string{"playwright"},
		Languages:    []string{"typescript"},
		Domains:      []string{"web"},
		Agents:       []string{"claude-code"},
	}

	filters := p.Filters()
	for _, field := range FilterFields {
		values, ok := filters[field]
		if !ok {
			t.Errorf("Filters() missing field %q", field)
			continue
		}
		if len(values) != 1 {
			t.Errorf("Filters()[%q] has %d values, want 1", field, len(values))
		}
	}
	if len(filters) != len(FilterFields) {
		t.Errorf("Filters() has %d fields, want %d", len(filters), len(FilterFields))
	}
}

func TestInstallActionValid(t *testing.T) {
	for _, a := range []InstallAction{ActionInstall, ActionRemove, ActionUpdate} {
		if !a.Valid() {
			t.Errorf("InstallAction(%q).Valid() = false, want true", a)
		}
	}
	if InstallAction("uninstall").Valid() {
		t.Error("InstallAction(\"uninstall\").Valid() = true, want false")
	}
}
