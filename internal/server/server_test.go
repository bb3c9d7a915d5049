package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	srv, err := New(Config{
		Host:       "localhost",
		Port:       "0",
		BackendURL: "http://backend.invalid",
		Log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts, srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func TestHealthHasLinks(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := get(t, ts.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"ok"`) {
		t.Errorf("body = %s", body)
	}
	if links := strings.Join(resp.Header.Values("Link"), ","); !strings.Contains(links, `rel="info"`) {
		t.Errorf("Link headers = %q", links)
	}
}

func TestWizardPage(t *testing.T) {
	ts, srv := newTestServer(t)
	resp, body := get(t, ts.URL+"/wizard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	if srv.store.Len() != 1 {
		t.Errorf("page opened %d sessions, want 1", srv.store.Len())
	}
	for _, want := range []string{
		"data-signals=",
		"/events&#39;)",
		"/next&#39;)",
		`id="suggest-list"`,
		`id="notice-area"`,
		`data-bind:latupperleft`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page lacks %q", want)
		}
	}
}

func TestRootRedirects(t *testing.T) {
	ts, _ := newTestServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/wizard" {
		t.Errorf("status %d location %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestStaticAssets(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := get(t, ts.URL+"/static/wizard.js")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "mapwizard") {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestOpenAPIListsWizardEvents(t *testing.T) {
	_, srv := newTestServer(t)
	paths := srv.OpenAPI().Paths
	for _, p := range []string{
		"/health",
		"/api/v1/catalog",
		"/api/v1/wizard/sessions",
		"/api/v1/wizard/{id}/events",
		"/api/v1/wizard/{id}/next",
		"/api/v1/wizard/{id}/fields",
		"/api/v1/wizard/{id}/language",
	} {
		if _, ok := paths[p]; !ok {
			t.Errorf("OpenAPI lacks %s", p)
		}
	}
}

func TestBadConfigFile(t *testing.T) {
	_, err := New(Config{ConfigPath: "does-not-exist.yaml"})
	if err == nil {
		t.Fatal("want error for a missing config file")
	}
}
