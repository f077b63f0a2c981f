package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"

	"github.com/fretlogapp/fretlog-web/internal/auth"
)

// TestClient makes authenticated requests against a TestServer.
type TestClient struct {
	*http.Client
	t         *testing.T
	ts        *TestServer
	apiKey    string
	cookies   []*http.Cookie
	csrfToken string
}

// NewTestClient creates an unauthenticated client for the given server.
func NewTestClient(t *testing.T, ts *TestServer) *TestClient {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	return &TestClient{
		Client: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
			// Surface redirects to the test instead of following them
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		t:  t,
		ts: ts,
	}
}

// WithAPIKey returns a client that sends the key as a bearer token.
func (c *TestClient) WithAPIKey(apiKey string) *TestClient {
	return &TestClient{
		Client: c.Client,
		t:      c.t,
		ts:     c.ts,
		apiKey: apiKey,
	}
}

// WithSession returns a client authenticated by session cookie, with a CSRF
// token fetched up front for state-changing requests.
func (c *TestClient) WithSession(sessionToken string) *TestClient {
	newClient := &TestClient{
		Client: c.Client,
		t:      c.t,
		ts:     c.ts,
		cookies: []*http.Cookie{{
			Name:  auth.SessionCookieName,
			Value: sessionToken,
		}},
	}

	newClient.csrfToken = newClient.fetchCSRFToken()

	return newClient
}

// fetchCSRFToken hits the token endpoint and captures the CSRF cookie pair.
func (c *TestClient) fetchCSRFToken() string {
	req, err := http.NewRequest("GET", c.ts.URL+"/api/v1/csrf-token", nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	// Keep cookies set by the CSRF middleware for subsequent requests
	for _, newCookie := range resp.Cookies() {
		exists := false
		for _, existing := range c.cookies {
			if existing.Name == newCookie.Name {
				exists = true
				break
			}
		}
		if !exists {
			c.cookies = append(c.cookies, newCookie)
		}
	}

	if token := resp.Header.Get("X-CSRF-Token"); token != "" {
		return token
	}

	var result struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		return result.CSRFToken
	}

	return ""
}

// Request makes an HTTP request to the test server. Body can be nil, an
// io.Reader, a []byte/string, or a struct (JSON encoded).
func (c *TestClient) Request(method, path string, body interface{}) (*http.Response, error) {
	return c.RequestWithHeaders(method, path, body, nil)
}

// RequestWithHeaders makes an HTTP request with custom headers.
func (c *TestClient) RequestWithHeaders(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := c.ts.URL + path

	var bodyReader io.Reader
	if body != nil {
		switch v := body.(type) {
		case io.Reader:
			bodyReader = v
		case []byte:
			bodyReader = bytes.NewReader(v)
		case string:
			bodyReader = bytes.NewReader([]byte(v))
		default:
			jsonBytes, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal body: %w", err)
			}
			bodyReader = bytes.NewReader(jsonBytes)
		}
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Browser-like headers so CSRF validation treats us as same-origin
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	if c.csrfToken != "" && isStateChangingMethod(method) {
		req.Header.Set("X-CSRF-Token", c.csrfToken)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return c.Client.Do(req)
}

func isStateChangingMethod(method string) bool {
	return method == http.MethodPost ||
		method == http.MethodPatch ||
		method == http.MethodDelete ||
		method == http.MethodPut
}

// Get makes a GET request to the test server.
func (c *TestClient) Get(path string) (*http.Response, error) {
	return c.Request(http.MethodGet, path, nil)
}

// Post makes a POST request to the test server with a JSON body.
func (c *TestClient) Post(path string, body interface{}) (*http.Response, error) {
	return c.Request(http.MethodPost, path, body)
}

// Put makes a PUT request to the test server with a JSON body.
func (c *TestClient) Put(path string, body interface{}) (*http.Response, error) {
	return c.Request(http.MethodPut, path, body)
}

// Delete makes a DELETE request to the test server.
func (c *TestClient) Delete(path string) (*http.Response, error) {
	return c.Request(http.MethodDelete, path, nil)
}

// ParseJSON decodes the response body as JSON into v and closes the body.
func ParseJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("failed to decode response JSON: %v. Body: %s", err, string(body))
	}
}

// RequireStatus checks that the response has the expected status code,
// failing with the body for debugging otherwise.
func RequireStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("expected status %d, got %d. Body: %s", expected, resp.StatusCode, string(body))
	}
}
