package realtime

import (
	"testing"
	"time"

	"github.com/qaskills/qas/pkg/core"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(4)

	id1, ch1 := hub.Register()
	id2, ch2 := hub.Register()
	defer hub.Unregister(id1)
	defer hub.Unregister(id2)

	if hub.Size() != 2 {
		t.Fatalf("expected 2 listeners, got %d", hub.Size())
	}

	event := NewInstallEvent("ev-1", core.InstallEvent{
		SkillID: "playwright-e2e",
		Action:  core.ActionInstall,
	}, "Playwright E2E")
	hub.Broadcast(event)

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case got := <-ch:
			if got.Type != "install" || got.EventID != "ev-1" {
				t.Errorf("unexpected event %+v", got)
			}
			if got.Install.SkillID != "playwright-e2e" {
				t.Errorf("unexpected skill id %q", got.Install.SkillID)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestHubSlowListenerDropsEvents(t *testing.T) {
	hub := NewHub(1)

	id, ch := hub.Register()
	defer hub.Unregister(id)

	first := NewInstallEvent("ev-1", core.InstallEvent{SkillID: "a", Action: core.ActionInstall}, "")
	second := NewInstallEvent("ev-2", core.InstallEvent{SkillID: "b", Action: core.ActionInstall}, "")

	// The buffer holds one event; the second broadcast must not block.
	hub.Broadcast(first)
	hub.Broadcast(second)

	got := <-ch
	if got.EventID != "ev-1" {
		t.Errorf("expected first event to survive, got %s", got.EventID)
	}
	select {
	case extra := <-ch:
		t.Errorf("expected second event to be dropped, got %s", extra.EventID)
	default:
	}
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	hub := NewHub(0)

	id, ch := hub.Register()
	hub.Unregister(id)
	hub.Unregister(id) // idempotent

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
	if hub.Size() != 0 {
		t.Errorf("expected 0 listeners, got %d", hub.Size())
	}
}
