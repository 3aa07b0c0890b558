package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"
)

////////////////////////////////////////////////////////////////////////////////
// INTEGRATION TEST SUITE
//
// These tests validate both services end-to-end:
//
//   Client → Ingestion API → Postgres → Dashboard → Operator
//
// Both services must already be running (for example via docker compose).
//
// Optional environment overrides:
//
//   API_URL        default http://localhost:8080
//   DASHBOARD_URL  default http://localhost:8081
//   ADMIN_PASSWORD default 1234
//
////////////////////////////////////////////////////////////////////////////////

func apiURL() string {
	if v := os.Getenv("API_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func dashboardURL() string {
	if v := os.Getenv("DASHBOARD_URL"); v != "" {
		return v
	}
	return "http://localhost:8081"
}

func adminPassword() string {
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		return v
	}
	return "1234"
}

// unique generates a unique event name so tests never collide with previous runs.
func unique(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

////////////////////////////////////////////////////////////////////////////////
// SERVICE READINESS HELPER
//
// waitReady polls /ready until DB + server are ready.
// Prevents flaky failures when containers are still booting.
////////////////////////////////////////////////////////////////////////////////

func waitReady(t *testing.T, base string) {
	t.Helper()

	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(30 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(base + "/ready")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(300 * time.Millisecond)
	}

	t.Fatalf("service at %s not ready after 30s", base)
}

////////////////////////////////////////////////////////////////////////////////
// GENERIC HTTP HELPERS
////////////////////////////////////////////////////////////////////////////////

// postBatch POSTs a JSON array of events to the ingestion endpoint.
func postBatch(t *testing.T, events any) (int, []byte) {
	t.Helper()

	b, _ := json.Marshal(events)

	req, _ := http.NewRequest("POST", apiURL()+"/analytics", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("POST /analytics failed: %v", err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

// parseSavedCount extracts saved_count from an ingestion response.
func parseSavedCount(t *testing.T, b []byte) int64 {
	var r struct {
		SavedCount int64 `json:"saved_count"`
	}
	if err := json.Unmarshal(b, &r); err != nil {
		t.Fatalf("invalid ingestion JSON: %v", err)
	}
	return r.SavedCount
}

// dashboardClient logs into the dashboard and returns a cookie-carrying client.
func dashboardClient(t *testing.T) *http.Client {
	t.Helper()

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Timeout: 5 * time.Second, Jar: jar}

	form := url.Values{"password": {adminPassword()}}
	resp, err := client.PostForm(dashboardURL()+"/login", form)
	if err != nil {
		t.Fatalf("dashboard login failed: %v", err)
	}
	_ = resp.Body.Close()
	return client
}

// dashboardPage GETs the dashboard home and returns its HTML.
func dashboardPage(t *testing.T, client *http.Client) string {
	t.Helper()

	resp, err := client.Get(dashboardURL() + "/")
	if err != nil {
		t.Fatalf("GET dashboard failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard expected 200 got %d", resp.StatusCode)
	}
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

////////////////////////////////////////////////////////////////////////////////
// HEALTH & READINESS TESTS
////////////////////////////////////////////////////////////////////////////////

func TestHealth_ReturnsOK(t *testing.T) {
	resp, err := http.Get(apiURL() + "/health")
	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health expected 200 got %d", resp.StatusCode)
	}
}

func TestReady_ReturnsOK(t *testing.T) {
	waitReady(t, apiURL())
}

////////////////////////////////////////////////////////////////////////////////
// INGESTION CONTRACT TESTS
////////////////////////////////////////////////////////////////////////////////

// Empty batches must be rejected before any store interaction.
func TestAnalytics_BadRequestOnEmptyBatch(t *testing.T) {
	waitReady(t, apiURL())

	s, _ := postBatch(t, []map[string]any{})
	if s != http.StatusBadRequest {
		t.Fatalf("empty batch expected 400 got %d", s)
	}

	s, _ = postBatch(t, nil)
	if s != http.StatusBadRequest {
		t.Fatalf("null batch expected 400 got %d", s)
	}
}

// A batch of N events reports saved_count == N.
func TestAnalytics_SavedCountMatchesBatchSize(t *testing.T) {
	waitReady(t, apiURL())

	name := unique("batch")
	events := []map[string]any{
		{"event": name, "id": "u1", "time": time.Now().UnixMilli()},
		{"event": name, "id": "u2", "time": time.Now().UnixMilli()},
		{"event": name, "id": "u3"},
	}

	s, b := postBatch(t, events)
	if s != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", s, b)
	}
	if got := parseSavedCount(t, b); got != 3 {
		t.Fatalf("saved_count expected 3 got %d", got)
	}
}

// Duplicate submissions are stored again — no dedup on the ingestion path.
func TestAnalytics_DuplicatesAreStoredAgain(t *testing.T) {
	waitReady(t, apiURL())

	events := []map[string]any{{"event": unique("dup"), "id": "u1"}}

	s1, b1 := postBatch(t, events)
	s2, b2 := postBatch(t, events)
	if s1 != http.StatusOK || s2 != http.StatusOK {
		t.Fatalf("expected 200/200 got %d/%d", s1, s2)
	}
	if parseSavedCount(t, b1) != 1 || parseSavedCount(t, b2) != 1 {
		t.Fatal("each submission must persist independently")
	}
}

////////////////////////////////////////////////////////////////////////////////
// DASHBOARD TESTS
////////////////////////////////////////////////////////////////////////////////

// The dashboard home is gated behind the login page.
func TestDashboard_RequiresLogin(t *testing.T) {
	waitReady(t, dashboardURL())

	client := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(dashboardURL() + "/")
	if err != nil {
		t.Fatalf("GET dashboard failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 got %d", resp.StatusCode)
	}
}

// Ingested events show up on the dashboard after login.
func TestDashboard_ShowsIngestedEvents(t *testing.T) {
	waitReady(t, apiURL())
	waitReady(t, dashboardURL())

	name := unique("visible")
	s, _ := postBatch(t, []map[string]any{{"event": name, "id": "u1"}})
	if s != http.StatusOK {
		t.Fatalf("ingest expected 200 got %d", s)
	}

	client := dashboardClient(t)
	page := dashboardPage(t, client)
	if !strings.Contains(page, name) {
		t.Fatalf("dashboard does not show ingested event %q", name)
	}
}

// Delete All empties the store; the dashboard then shows the waiting notice.
func TestDashboard_DeleteAllClearsStore(t *testing.T) {
	waitReady(t, apiURL())
	waitReady(t, dashboardURL())

	postBatch(t, []map[string]any{{"event": unique("doomed")}})

	client := dashboardClient(t)
	resp, err := client.Post(dashboardURL()+"/delete", "application/x-www-form-urlencoded", nil)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_ = resp.Body.Close()

	page := dashboardPage(t, client)
	if !strings.Contains(page, "No data found") {
		t.Fatal("store not empty after delete all")
	}
}
