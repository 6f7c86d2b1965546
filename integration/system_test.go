//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

func TestSystem_E2E(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var view struct {
		Items      []map[string]any `json:"items"`
		TotalPages int              `json:"total_pages"`
		TotalAll   int              `json:"total_all"`
	}
	doJSON(t, http.MethodGet, baseURL+"/products", nil, &view, 200)
	if view.TotalPages < 1 {
		t.Fatalf("expected at least one page, got %d", view.TotalPages)
	}

	name := fmt.Sprintf("e2e product %d-%d", time.Now().Unix(), rand.Intn(100000))
	var created map[string]any
	doJSON(t, http.MethodPost, baseURL+"/products", map[string]any{
		"name":        name,
		"price":       19.99,
		"category":    "E2E",
		"brand":       "TestBrand",
		"description": "created by the integration suite",
		"stock":       1,
		"rating":      5,
		"images":      []string{"https://example.com/e2e.jpg"},
	}, &created, 201)

	pid, _ := created["id"].(string)
	if pid == "" {
		t.Fatalf("product id missing in response: %#v", created)
	}
	if origin, _ := created["origin"].(string); origin != "local" {
		t.Fatalf("expected local origin, got %q", origin)
	}

	var got map[string]any
	doJSON(t, http.MethodGet, baseURL+"/products/"+pid, nil, &got, 200)

	// Search for the created product by its unique name.
	doJSON(t, http.MethodGet, baseURL+"/products?search="+url.QueryEscape(name), nil, &view, 200)
	if len(view.Items) != 1 {
		t.Fatalf("expected exactly the created product, got %d items", len(view.Items))
	}

	doJSON(t, http.MethodPut, baseURL+"/prefs/theme", map[string]any{"theme": "dark"}, nil, 204)
	var theme map[string]string
	doJSON(t, http.MethodGet, baseURL+"/prefs/theme", nil, &theme, 200)
	if theme["theme"] != "dark" {
		t.Fatalf("theme not persisted: %#v", theme)
	}

	// A restart must keep local products (bolt/postgres backends) while
	// the remote snapshot is refetched on the next request.
	if os.Getenv("E2E_RESTART_DASHBOARD") == "1" {
		restartDashboardContainer(t, ctx)
		waitReady(t, ctx, baseURL+"/readyz")
		doJSON(t, http.MethodGet, baseURL+"/products/"+pid, nil, &got, 200)
	}

	doJSON(t, http.MethodDelete, baseURL+"/products/"+pid, nil, nil, 204)
	doJSON(t, http.MethodGet, baseURL+"/products/"+pid, nil, nil, 404)
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
