package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rocket-dispersion/internal/campaign"
	"rocket-dispersion/internal/record"
)

type staticSource struct{ p campaign.Progress }

func (s staticSource) Progress() campaign.Progress { return s.p }

func TestHandleStatus(t *testing.T) {
	src := staticSource{campaign.Progress{CampaignID: "c1", Name: "nimbus", Requested: 10, Completed: 4, Succeeded: 3, Failed: 1}}
	server := NewServer(src)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", resp.StatusCode)
	}
	var got campaign.Progress
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CampaignID != "c1" || got.Completed != 4 || got.Failed != 1 {
		t.Errorf("unexpected progress %+v", got)
	}
}

func TestHandleSummary(t *testing.T) {
	running := NewServer(staticSource{campaign.Progress{CampaignID: "c1"}})
	w := httptest.NewRecorder()
	running.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/summary", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 while running, got %v", w.Code)
	}

	sum := record.Summary{Completed: 5, CPUTime: time.Second, WallTime: 2 * time.Second}
	done := NewServer(staticSource{campaign.Progress{CampaignID: "c1", Finished: true, Succeeded: 5, Summary: &sum}})
	w = httptest.NewRecorder()
	done.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/summary", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Completed 5 iterations successfully.") {
		t.Errorf("summary line missing: %s", w.Body.String())
	}
}

func TestHandleIndex(t *testing.T) {
	server := NewServer(staticSource{campaign.Progress{Name: "nimbus", Requested: 3, Completed: 1}})
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "1 / 3") {
		t.Fatalf("unexpected index: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown path, got %v", w.Code)
	}
}

func TestHandleMetrics(t *testing.T) {
	campaign.TrialsTotal.WithLabelValues("admin-test", "success").Inc()
	server := NewServer(staticSource{})
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `dispersion_trials_total{campaign="admin-test",outcome="success"} 1`) {
		t.Fatalf("metrics missing trial counter:\n%s", w.Body.String())
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- NewServer(staticSource{}).Start(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
