package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qaskills/qas/pkg/core"
	"github.com/qaskills/qas/pkg/realtime"
)

func wsDial(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	u, err := url.Parse(httpURL)
	if err != nil {
		t.Fatalf("parsing server url: %v", err)
	}
	u.Scheme = "ws"
	u.Path = "/api/firehose/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var init firehoseInit
	if err := conn.ReadJSON(&init); err != nil {
		t.Fatalf("read init: %v", err)
	}
	if init.Type != "init" {
		t.Fatalf("expected init message, got %q", init.Type)
	}
	return conn
}

func TestFirehosePushesInstallEvents(t *testing.T) {
	ts, store, _ := newTestServer(t, "")
	seedSkill(t, store, "pushed", 0)

	conn := wsDial(t, ts.URL)
	defer func() {
		_ = conn.Close()
	}()

	body, _ := json.Marshal(core.InstallEvent{
		SkillID:    "pushed",
		Action:     core.ActionInstall,
		CLIVersion: "0.4.1",
	})
	resp, err := http.Post(ts.URL+"/api/telemetry/install", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	var event realtime.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != "install" || event.EventID == "" {
		t.Errorf("unexpected event envelope: %+v", event)
	}
	if event.Install.SkillID != "pushed" {
		t.Errorf("unexpected skill id %q", event.Install.SkillID)
	}
	if event.SkillName != "Skill pushed" {
		t.Errorf("unexpected skill name %q", event.SkillName)
	}
}

func TestFirehoseMultipleListeners(t *testing.T) {
	ts, store, hub := newTestServer(t, "")
	seedSkill(t, store, "fanout", 0)

	conn1 := wsDial(t, ts.URL)
	defer func() {
		_ = conn1.Close()
	}()
	conn2 := wsDial(t, ts.URL)
	defer func() {
		_ = conn2.Close()
	}()

	// Both sockets must be registered before the broadcast.
	deadline := time.Now().Add(5 * time.Second)
	for hub.Size() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Size() < 2 {
		t.Fatalf("expected 2 listeners, got %d", hub.Size())
	}

	body, _ := json.Marshal(core.InstallEvent{SkillID: "fanout", Action: core.ActionInstall})
	resp, err := http.Post(ts.URL+"/api/telemetry/install", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	_ = resp.Body.Close()

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		var event realtime.Event
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("listener %d read failed: %v", i+1, err)
		}
		if event.Install.SkillID != "fanout" {
			t.Errorf("listener %d got unexpected event: %+v", i+1, event)
		}
	}
}

func TestFirehoseDisabledWithoutHub(t *testing.T) {
	srv := NewServer(nil, nil, nil, "")
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	req, _ := http.NewRequest(http.MethodGet, "/api/firehose/ws", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without hub, got %d", rec.Code)
	}
}
