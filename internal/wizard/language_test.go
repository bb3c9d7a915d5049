package wizard

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joeblew999/plat-mapwizard/internal/config"
)

var smallCatalog = []config.Language{
	{Code: "fr_FR.UTF-8", Name: "France"},
	{Code: "en_US.UTF-8", Name: "United States"},
	{Code: "fr_CA.UTF-8", Name: "Canada (FR)"},
	{Code: config.NoLocalization, Name: "No localization"},
}

func codes(opts []LanguageOption) []string {
	var out []string
	for _, o := range opts {
		if o.Disabled {
			out = append(out, "---")
			continue
		}
		out = append(out, o.Code)
	}
	return out
}

func TestPartitionLanguages(t *testing.T) {
	tests := []struct {
		country string
		want    []string
	}{
		{"FR", []string{"fr_FR.UTF-8", "fr_CA.UTF-8", "---", "C", "en_US.UTF-8"}},
		{"fr", []string{"fr_FR.UTF-8", "fr_CA.UTF-8", "---", "C", "en_US.UTF-8"}},
		{"us", []string{"en_US.UTF-8", "---", "C", "fr_FR.UTF-8", "fr_CA.UTF-8"}},
		{"", []string{"C", "fr_FR.UTF-8", "en_US.UTF-8", "fr_CA.UTF-8"}},
		{"jp", []string{"C", "fr_FR.UTF-8", "en_US.UTF-8", "fr_CA.UTF-8"}},
	}
	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			got := codes(PartitionLanguages(smallCatalog, tt.country))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPreselectorSelectsFirst(t *testing.T) {
	st := NewState(DefaultSteps)
	p := &LanguagePreselector{st: st, catalog: smallCatalog}

	p.Apply("FR")
	if st.Options.Language != "fr_FR.UTF-8" {
		t.Fatalf("selected %q, want fr_FR.UTF-8", st.Options.Language)
	}
	p.Apply("")
	if st.Options.Language != config.NoLocalization {
		t.Fatalf("selected %q, want C", st.Options.Language)
	}

	if err := p.Select("en_US.UTF-8"); err != nil {
		t.Fatal(err)
	}
	if err := p.Select(""); err != ErrUnknownOption {
		t.Fatalf("separator selectable: %v", err)
	}
	if got := p.Name("fr_CA.UTF-8"); got != "Canada (FR)" {
		t.Fatalf("name=%q", got)
	}
}
