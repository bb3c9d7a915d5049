package wizardui

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-mapwizard/internal/backend"
	"github.com/joeblew999/plat-mapwizard/internal/config"
	"github.com/joeblew999/plat-mapwizard/internal/templates"
	"github.com/joeblew999/plat-mapwizard/internal/wizard"
	"github.com/joeblew999/plat-mapwizard/web"
)

// fakeRenderService answers the three lookup endpoints.
func fakeRenderService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/apis/nominatim/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"entries": [
			{"display_name": "Paris, France", "country_code": "fr",
			 "ocitysmap_params": {"id": -7444, "valid": 1}}
		], "hasprev": false, "hasnext": false}`)
	})
	mux.HandleFunc("/apis/reversegeo/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"country_code": "fr"}]`)
	})
	mux.HandleFunc("/apis/papersize/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"name": "A4", "widthMm": 210, "heightMm": 297, "portrait": true, "landscape": true, "default": true}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) (*httptest.Server, *wizard.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.SuggestDebounceMs = 10
	store := wizard.NewStore(cfg, backend.New(fakeRenderService(t).URL), log)
	t.Cleanup(store.CloseAll)

	renderer, err := templates.New(web.FS, web.Templates...)
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("test", "0.0.0"))
	NewHandler(store, renderer, log).RegisterRoutes(api)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func createSession(t *testing.T, srv *httptest.Server) SessionBody {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/v1/wizard/sessions", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	var body SessionBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return body
}

// post sends signals to a wizard event and returns the SSE body.
func post(t *testing.T, srv *httptest.Server, id, event string, signals map[string]any) (int, string) {
	t.Helper()
	data, _ := json.Marshal(signals)
	resp, err := http.Post(srv.URL+"/api/v1/wizard/"+id+"/"+event, "application/json", strings.NewReader(string(data)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestCreateSession(t *testing.T) {
	srv, store := newTestServer(t)
	body := createSession(t, srv)
	if body.ID == "" {
		t.Fatal("empty session id")
	}
	if want := "/api/v1/wizard/" + body.ID + "/events"; body.Events != want {
		t.Errorf("events = %q, want %q", body.Events, want)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d sessions, want 1", store.Len())
	}
}

func TestBoundingBoxFlow(t *testing.T) {
	srv, store := newTestServer(t)
	id := createSession(t, srv).ID

	_, out := post(t, srv, id, "next", nil)
	if !strings.Contains(out, "datastar-patch-signals") || !strings.Contains(out, `"cangonext":false`) {
		t.Fatalf("next on empty area should stream a disabled nav:\n%s", out)
	}
	if strings.Contains(out, `"step":"layout"`) {
		t.Fatalf("wizard advanced without an area:\n%s", out)
	}

	_, out = post(t, srv, id, "mode", map[string]any{"mode": "bbox"})
	if !strings.Contains(out, `"mode":"bbox"`) {
		t.Fatalf("mode switch not streamed:\n%s", out)
	}

	_, out = post(t, srv, id, "fields", map[string]any{
		"latupperleft":   "48.9",
		"lonupperleft":   "2.3",
		"latbottomright": "48.8",
		"lonbottomright": "2.4",
	})
	if !strings.Contains(out, `"cangonext":true`) {
		t.Fatalf("valid box should enable next:\n%s", out)
	}
	if !strings.Contains(out, `"mapseq":1`) {
		t.Fatalf("field edit should move the map:\n%s", out)
	}

	_, out = post(t, srv, id, "next", nil)
	if !strings.Contains(out, `"step":"layout"`) {
		t.Fatalf("next should reach the layout step:\n%s", out)
	}

	s, err := store.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	s.Wait()

	resp, err := http.Get(srv.URL + "/api/v1/wizard/" + id + "/form")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var form map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&form); err != nil {
		t.Fatal(err)
	}
	if form["mode"] != "bbox" || form[wizard.FieldLatUpperLeft] != "48.9000" {
		t.Errorf("form = %v", form)
	}
}

func TestInvalidFieldsShowNotice(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv).ID

	post(t, srv, id, "mode", map[string]any{"mode": "bbox"})
	_, out := post(t, srv, id, "fields", map[string]any{
		"latupperleft":   "north",
		"lonupperleft":   "2.3",
		"latbottomright": "48.8",
		"lonbottomright": "2.4",
	})
	if !strings.Contains(out, "datastar-patch-elements") {
		t.Fatalf("no element patch streamed:\n%s", out)
	}
	if !strings.Contains(out, "notice-warning") || !strings.Contains(out, "#notice-area") {
		t.Fatalf("area notice missing:\n%s", out)
	}
	if !strings.Contains(out, `"cangonext":false`) {
		t.Fatalf("invalid fields must not enable next:\n%s", out)
	}

	_, out = post(t, srv, id, "dismiss", map[string]any{"dismiss": wizard.ControlArea})
	if strings.Contains(out, "notice-warning") {
		t.Fatalf("dismissed notice still rendered:\n%s", out)
	}
}

func TestRejectedEventSetsError(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv).ID

	// Drawing needs bbox mode.
	_, out := post(t, srv, id, "box", map[string]any{"rectleft": 10, "recttop": 10, "rectright": 50, "rectbottom": 50})
	if !strings.Contains(out, wizard.ErrNotAllowed.Error()) {
		t.Fatalf("error signal missing:\n%s", out)
	}
}

func TestUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)

	status, _ := post(t, srv, "nope", "next", nil)
	if status != http.StatusNotFound {
		t.Errorf("event on unknown session: status %d, want 404", status)
	}

	resp, err := http.Get(srv.URL + "/api/v1/wizard/nope/form")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("form of unknown session: status %d, want 404", resp.StatusCode)
	}
}

func TestMalformedSignals(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv).ID

	resp, err := http.Post(srv.URL+"/api/v1/wizard/"+id+"/mode", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d, want 400", resp.StatusCode)
	}
}

func TestEventsStreamDeliversSearchResults(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv).ID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/wizard/"+id+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	// The stream opens with the full state.
	waitFor(t, lines, `"step":"location"`)

	_, out := post(t, srv, id, "search", map[string]any{"city": "Paris"})
	if !strings.Contains(out, `"suggestloading":true`) {
		t.Fatalf("search should mark the list loading:\n%s", out)
	}

	// The result arrives asynchronously on the stream.
	waitFor(t, lines, "Paris, France")
}

func waitFor(t *testing.T, lines <-chan string, want string) {
	t.Helper()
	for line := range lines {
		if strings.Contains(line, want) {
			return
		}
	}
	t.Fatalf("stream ended before %q", want)
}
