package adminhttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeReporter struct{}

func (fakeReporter) OpenSocketCount() int      { return 3 }
func (fakeReporter) CacheEntryCount() int      { return 42 }
func (fakeReporter) CacheBytes() int64         { return 1024 }
func (fakeReporter) CacheMaxBytes() int64      { return 4096 }
func (fakeReporter) PinnedCertCount() int      { return 2 }
func (fakeReporter) BlacklistedCertCount() int { return 1 }

type fakeCache struct{ known map[string]bool }

func (c fakeCache) Contains(mid string) bool { return c.known[mid] }

func TestStatusReportsCounts(t *testing.T) {
	s := New(fakeReporter{}, fakeCache{known: map[string]bool{"<a@b>": true}})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if int(body["cache_entries"].(float64)) != 42 {
		t.Fatalf("expected cache_entries=42, got %v", body["cache_entries"])
	}
}

func TestMetricsRendersGauges(t *testing.T) {
	s := New(fakeReporter{}, fakeCache{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "panengine_open_sockets 3") {
		t.Fatalf("expected open_sockets gauge, got:\n%s", rec.Body.String())
	}
}

func TestCacheLookupRoute(t *testing.T) {
	s := New(fakeReporter{}, fakeCache{known: map[string]bool{"<present@x>": true}})

	req := httptest.NewRequest(http.MethodGet, "/cache/%3Cpresent@x%3E", nil)
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for present mid, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/cache/%3Cmissing@x%3E", nil)
	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing mid, got %d", rec.Code)
	}
}
