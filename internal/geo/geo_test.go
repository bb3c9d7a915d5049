package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestEdgeLengthsKm(t *testing.T) {
	// One degree of latitude is roughly 111.2 km on the haversine sphere.
	b := Bounds{LatTop: 1, LonLeft: 0, LatBottom: 0, LonRight: 1}
	w, h := EdgeLengthsKm(b)
	if math.Abs(h-111.2) > 0.5 {
		t.Fatalf("height=%.2f, want ~111.2", h)
	}
	if w >= h {
		t.Fatalf("width=%.2f should be below height=%.2f away from the equator", w, h)
	}
}

func TestExceedsKm(t *testing.T) {
	small := Bounds{LatTop: 48.86, LonLeft: 2.33, LatBottom: 48.85, LonRight: 2.35}
	if ExceedsKm(small, 20) {
		t.Fatal("small Paris box reported as too big")
	}
	large := Bounds{LatTop: 49.5, LonLeft: 2.0, LatBottom: 48.5, LonRight: 2.1}
	if !ExceedsKm(large, 20) {
		t.Fatal("box one degree tall reported as small enough")
	}
}

func TestWideBoxMeasuredAroundTheGlobe(t *testing.T) {
	b := Bounds{LatTop: 1, LonLeft: -179, LatBottom: 0, LonRight: 179}
	w, _ := EdgeLengthsKm(b)
	if w < 39000 {
		t.Fatalf("width=%.0f km, want the long way round", w)
	}
	if !ExceedsKm(b, 20) {
		t.Fatal("box spanning 358° of longitude passed the size limit")
	}
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		name    string
		in      FieldSet
		want    Bounds
		wantErr bool
	}{
		{
			name: "ok",
			in:   FieldSet{"48.8600", "2.3300", "48.8500", "2.3500"},
			want: Bounds{LatTop: 48.86, LonLeft: 2.33, LatBottom: 48.85, LonRight: 2.35},
		},
		{name: "blank", in: FieldSet{"48.86", "", "48.85", "2.35"}, wantErr: true},
		{name: "garbage", in: FieldSet{"north", "2.33", "48.85", "2.35"}, wantErr: true},
		{name: "out of range", in: FieldSet{"95", "2.33", "48.85", "2.35"}, wantErr: true},
		{name: "degenerate", in: FieldSet{"48.85", "2.33", "48.85", "2.35"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFields(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBounds) {
					t.Fatalf("err=%v, want ErrInvalidBounds", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("bounds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFieldsRoundTrip(t *testing.T) {
	b := Bounds{LatTop: 48.861234, LonLeft: 2.331299, LatBottom: 48.850011, LonRight: 2.349999}
	f := b.Fields()
	if f.LatUpperLeft != "48.8612" || f.LonBottomRight != "2.3500" {
		t.Fatalf("unexpected field formatting: %+v", f)
	}
	back, err := ParseFields(f)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(b.Round(), back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMercatorRoundTrip(t *testing.T) {
	b := Bounds{LatTop: 48.86, LonLeft: 2.33, LatBottom: 48.85, LonRight: 2.35}
	got := FromMercator(MercatorBound(b))
	if diff := cmp.Diff(b, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("mercator round trip (-want +got):\n%s", diff)
	}
}

func TestViewportFitBoundsContainsBox(t *testing.T) {
	v := NewViewport(800, 600)
	b := Bounds{LatTop: 48.86, LonLeft: 2.33, LatBottom: 48.85, LonRight: 2.35}

	var moves int
	v.OnMove(func(Bounds) { moves++ })
	v.FitBounds(b)

	if moves != 1 {
		t.Fatalf("moves=%d, want 1", moves)
	}
	if v.Zoom() != math.Floor(v.Zoom()) {
		t.Fatalf("zoom %.3f is not an integer level", v.Zoom())
	}
	ext := v.Extent()
	if ext.LatTop < b.LatTop || ext.LatBottom > b.LatBottom || ext.LonLeft > b.LonLeft || ext.LonRight < b.LonRight {
		t.Fatalf("extent %s does not contain %s", ext, b)
	}
	c := v.Center()
	if math.Abs(c.Lat()-b.Center().Lat()) > 1e-3 || math.Abs(c.Lon()-b.Center().Lon()) > 1e-6 {
		t.Fatalf("center %v, want ~%v", c, b.Center())
	}
}

func TestViewportPixelRect(t *testing.T) {
	v := NewViewport(400, 400)
	v.FitBounds(Bounds{LatTop: 10, LonLeft: -10, LatBottom: -10, LonRight: 10})

	full, ok := v.PixelRect(PixelRect{Left: 0, Top: 0, Right: 400, Bottom: 400})
	if !ok {
		t.Fatal("full rect rejected")
	}
	if diff := cmp.Diff(v.Extent(), full, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("full-viewport rect should equal extent (-want +got):\n%s", diff)
	}

	if _, ok := v.PixelRect(PixelRect{Left: 50, Top: 50, Right: 50, Bottom: 50}); ok {
		t.Fatal("zero-area rect accepted")
	}

	// Dragging bottom-right to top-left yields the same normalized box.
	a, _ := v.PixelRect(PixelRect{Left: 100, Top: 100, Right: 200, Bottom: 200})
	b, _ := v.PixelRect(PixelRect{Left: 200, Top: 200, Right: 100, Bottom: 100})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("drag direction changed the box (-want +got):\n%s", diff)
	}
	if a.LatTop <= a.LatBottom || a.LonRight <= a.LonLeft {
		t.Fatalf("box not normalized: %+v", a)
	}
}

func TestViewportSetExtent(t *testing.T) {
	v := NewViewport(512, 512)
	target := Bounds{LatTop: 50, LonLeft: 0, LatBottom: 40, LonRight: 10}
	v.SetExtent(target)
	got := v.Extent()
	if math.Abs(got.LonLeft-target.LonLeft) > 1e-6 || math.Abs(got.LonRight-target.LonRight) > 1e-6 {
		t.Fatalf("extent %s, want longitudes of %s", got, target)
	}
}
