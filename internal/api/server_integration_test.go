package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/fretlogapp/fretlog-web/internal/analytics"
	"github.com/fretlogapp/fretlog-web/internal/testutil"
)

// setupTestServer starts the production router against containerized
// infrastructure. Analytics run in UTC so assertions are deterministic.
func setupTestServer(t *testing.T, env *testutil.TestEnvironment) *testutil.TestServer {
	t.Helper()

	testutil.SetEnvForTest(t, "INSECURE_DEV_MODE", "true")

	config := Config{
		CSRFSecretKey:  "test-csrf-secret-key-32-bytes!!!",
		AllowedOrigins: []string{"http://localhost:3000"},
		SecureCookies:  false,
	}

	engine := analytics.NewEngine(time.UTC)
	apiServer := NewServer(env.DB, env.Storage, engine, config)

	return testutil.StartTestServer(t, env, apiServer.SetupRoutes())
}

func TestHealthEndpoint_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping HTTP integration test in short mode")
	}

	env := testutil.SetupTestEnvironment(t)
	ts := setupTestServer(t, env)
	client := testutil.NewTestClient(t, ts)

	resp, err := client.Get("/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	testutil.RequireStatus(t, resp, http.StatusOK)

	var result map[string]string
	testutil.ParseJSON(t, resp, &result)
	if result["status"] != "ok" {
		t.Errorf("expected status ok, got %q", result["status"])
	}
}

func TestUnauthenticatedRequestsRejected_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping HTTP integration test in short mode")
	}

	env := testutil.SetupTestEnvironment(t)
	ts := setupTestServer(t, env)
	client := testutil.NewTestClient(t, ts)

	paths := []string{
		"/api/v1/me",
		"/api/v1/songs",
		"/api/v1/sessions",
		"/api/v1/stats/summary",
		"/api/v1/stats/charts",
	}

	for _, path := range paths {
		resp, err := client.Get(path)
		if err != nil {
			t.Fatalf("request to %s failed: %v", path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401 for %s without auth, got %d", path, resp.StatusCode)
		}
	}
}
