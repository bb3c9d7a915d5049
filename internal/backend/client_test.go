package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joeblew999/plat-mapwizard/internal/geo"
)

func TestSearchPlaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/apis/nominatim/" {
			t.Errorf("path=%q", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Paris" {
			t.Errorf("q=%q, want Paris", got)
		}
		if got := r.URL.Query().Get("exclude"); got != "1,2" {
			t.Errorf("exclude=%q, want 1,2", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"entries": [
				{"display_name": "Paris, France", "country_code": "fr", "icon": "/i.png",
				 "ocitysmap_params": {"id": -7444, "valid": 1, "admin_level": 8}},
				{"display_name": "Paris, Texas", "country_code": "us",
				 "ocitysmap_params": {"valid": 0, "reason": "no-admin", "reason_text": "No administrative boundary"}},
				{"display_name": "Paris Hilton Street"}
			],
			"hasprev": false, "prevexcludes": "",
			"hasnext": true, "nextexcludes": 12345
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.SearchPlaces(context.Background(), "Paris", "1,2")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("entries=%d, want 3", len(res.Entries))
	}
	if !res.Entries[0].Usable() || res.Entries[0].OsmID() != -7444 {
		t.Fatalf("first entry should be usable with id -7444: %+v", res.Entries[0])
	}
	if res.Entries[1].Usable() || res.Entries[1].Reason() != "No administrative boundary" {
		t.Fatalf("second entry should be unusable with a reason: %+v", res.Entries[1])
	}
	if res.Entries[2].Usable() {
		t.Fatal("entry without params must not be usable")
	}
	if res.HasPrev || !res.HasNext || res.NextExcludes != "12345" {
		t.Fatalf("pagination mismatch: %+v", res)
	}
}

func TestReverseGeocodeFirstCountryWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/apis/reversegeo/48.85/2.35/" {
			t.Errorf("path=%q", r.URL.Path)
		}
		w.Write([]byte(`[{"place_id": "1"}, {"country_code": "fr"}, {"country_code": "de"}]`))
	}))
	defer srv.Close()

	got, err := New(srv.URL).ReverseGeocode(context.Background(), 48.85, 2.35)
	if err != nil {
		t.Fatal(err)
	}
	if got != "fr" {
		t.Fatalf("country=%q, want fr", got)
	}
}

func TestPaperSizesByBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		want := map[string]string{
			"lat_upper_left":   "48.8600",
			"lon_upper_left":   "2.3300",
			"lat_bottom_right": "48.8500",
			"lon_bottom_right": "2.3500",
			"layout":           "plain",
			"stylesheet":       "Default",
		}
		for k, v := range want {
			if got := r.PostForm.Get(k); got != v {
				t.Errorf("%s=%q, want %q", k, got, v)
			}
		}
		if r.PostForm.Has("osmid") {
			t.Error("osmid sent in bbox mode")
		}
		w.Write([]byte(`[["Best fit", 312, 456, true, true, false], ["A4", 210, 297, true, true, true], ["A3", 297, 420, 1, 0]]`))
	}))
	defer srv.Close()

	got, err := New(srv.URL).PaperSizes(context.Background(), PaperQuery{
		Bounds:     geo.Bounds{LatTop: 48.86, LonLeft: 2.33, LatBottom: 48.85, LonRight: 2.35},
		Layout:     "plain",
		Stylesheet: "Default",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []PaperSize{
		{Name: "Best fit", WidthMm: 312, HeightMm: 456, Portrait: true, Landscape: true},
		{Name: "A4", WidthMm: 210, HeightMm: 297, Portrait: true, Landscape: true, Default: true},
		{Name: "A3", WidthMm: 297, HeightMm: 420, Portrait: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("paper sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestPaperSizesByOsmID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostForm.Get("osmid"); got != "-7444" {
			t.Errorf("osmid=%q", got)
		}
		if r.PostForm.Has("lat_upper_left") {
			t.Error("bbox sent in boundary mode")
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	got, err := New(srv.URL).PaperSizes(context.Background(), PaperQuery{OsmID: -7444, Layout: "plain"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d sizes, want 0", len(got))
	}
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).SearchPlaces(context.Background(), "x", "")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
		t.Fatalf("err=%v, want StatusError 502", err)
	}
}

func TestCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL, WithRateLimit(10, 1)).ReverseGeocode(ctx, 1, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

func TestPaperSizeMarshalRoundTrip(t *testing.T) {
	in := PaperSize{Name: "A4", WidthMm: 210, HeightMm: 297, Portrait: true, Default: true}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["A4",210,297,true,false,true]` {
		t.Fatalf("wire form %s", data)
	}
}
