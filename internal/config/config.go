// Package config holds the wizard configuration: backend location, the
// bounding box size limit and the catalogs offered by the form.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Choice is a radio-button option with a machine name and a label.
type Choice struct {
	Name        string `yaml:"name" json:"name" doc:"Machine name"`
	Description string `yaml:"description" json:"description" doc:"Human readable label"`
}

// Language is a map localization entry.
type Language struct {
	Code string `yaml:"code" json:"code" doc:"Locale code" example:"fr_FR.UTF-8"`
	Name string `yaml:"name" json:"name" doc:"Display name" example:"France"`
}

// NoLocalization is the code of the "no localization" language.
const NoLocalization = "C"

// Config is the full wizard configuration.
type Config struct {
	BackendURL        string     `yaml:"backend_url"`
	BBoxMaxMeters     int        `yaml:"bbox_max_meters"`
	SuggestDebounceMs int        `yaml:"suggest_debounce_ms"`
	LookupRateLimit   float64    `yaml:"lookup_rate_limit"`
	SessionIdleMin    int        `yaml:"session_idle_minutes"`
	Layouts           []Choice   `yaml:"layouts"`
	Stylesheets       []Choice   `yaml:"stylesheets"`
	PaperSizes        []string   `yaml:"paper_sizes"`
	Languages         []Language `yaml:"languages"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BackendURL:        "http://localhost:8000",
		BBoxMaxMeters:     20000,
		SuggestDebounceMs: 200,
		LookupRateLimit:   5,
		SessionIdleMin:    60,
		Layouts: []Choice{
			{Name: "plain", Description: "Full-page layout without street index"},
			{Name: "single_page_index_side", Description: "Full-page layout with the street index on the side"},
			{Name: "single_page_index_bottom", Description: "Full-page layout with the street index at the bottom"},
		},
		Stylesheets: []Choice{
			{Name: "Default", Description: "The default OpenStreetMap.org style"},
			{Name: "MapQuestEu", Description: "MapQuest European style"},
			{Name: "Printable", Description: "Printer-friendly style"},
		},
		PaperSizes: []string{"Best fit", "A5", "A4", "A3", "A2", "A1", "A0", "US letter", "US legal"},
		Languages: []Language{
			{Code: "fr_BE.UTF-8", Name: "Royaume de Belgique (FR)"},
			{Code: "fr_FR.UTF-8", Name: "France"},
			{Code: "fr_CA.UTF-8", Name: "Canada (FR)"},
			{Code: "fr_CH.UTF-8", Name: "Suisse (FR)"},
			{Code: "fr_LU.UTF-8", Name: "Luxembourg (FR)"},
			{Code: "en_AG", Name: "Antigua and Barbuda (EN)"},
			{Code: "en_AU.UTF-8", Name: "Australia (EN)"},
			{Code: "en_BW.UTF-8", Name: "Botswana (EN)"},
			{Code: "en_CA.UTF-8", Name: "Canada (EN)"},
			{Code: "en_DK.UTF-8", Name: "Denmark (EN)"},
			{Code: "en_GB.UTF-8", Name: "United Kingdom (EN)"},
			{Code: "en_HK.UTF-8", Name: "Hong Kong (EN)"},
			{Code: "en_IE.UTF-8", Name: "Ireland (EN)"},
			{Code: "en_IN", Name: "India (EN)"},
			{Code: "en_NG", Name: "Nigeria (EN)"},
			{Code: "en_NZ.UTF-8", Name: "New Zealand (EN)"},
			{Code: "en_PH.UTF-8", Name: "Philippines (EN)"},
			{Code: "en_SG.UTF-8", Name: "Singapore (EN)"},
			{Code: "en_US.UTF-8", Name: "United States (EN)"},
			{Code: "en_ZA.UTF-8", Name: "South Africa (EN)"},
			{Code: "en_ZW.UTF-8", Name: "Zimbabwe (EN)"},
			{Code: "de_BE.UTF-8", Name: "Königreich Belgien (DE)"},
			{Code: "it_CH.UTF-8", Name: "Svizzera (IT)"},
			{Code: "it_IT.UTF-8", Name: "Italia (IT)"},
			{Code: "nl_BE.UTF-8", Name: "Koninkrijk België (NL)"},
			{Code: NoLocalization, Name: "No localization"},
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values the wizard cannot run without.
func (c Config) Validate() error {
	var errs []error
	if c.BackendURL == "" {
		errs = append(errs, errors.New("backend_url is required"))
	}
	if c.BBoxMaxMeters <= 0 {
		errs = append(errs, errors.New("bbox_max_meters must be positive"))
	}
	if c.SuggestDebounceMs < 0 {
		errs = append(errs, errors.New("suggest_debounce_ms must not be negative"))
	}
	if len(c.Layouts) == 0 {
		errs = append(errs, errors.New("at least one layout is required"))
	}
	if len(c.Stylesheets) == 0 {
		errs = append(errs, errors.New("at least one stylesheet is required"))
	}
	if len(c.PaperSizes) == 0 {
		errs = append(errs, errors.New("at least one paper size is required"))
	}
	hasC := false
	for _, l := range c.Languages {
		if l.Code == NoLocalization {
			hasC = true
		}
	}
	if !hasC {
		errs = append(errs, fmt.Errorf("languages must include the %q entry", NoLocalization))
	}
	return errors.Join(errs...)
}

// BBoxMaxKm is the maximum bounding box edge length in kilometers.
func (c Config) BBoxMaxKm() float64 {
	return float64(c.BBoxMaxMeters) / 1000
}

// SuggestDebounce is the quiet interval before a place search is issued.
func (c Config) SuggestDebounce() time.Duration {
	return time.Duration(c.SuggestDebounceMs) * time.Millisecond
}

// SessionIdle is how long an untouched wizard session is kept.
func (c Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMin) * time.Minute
}

// Layout returns the layout with the given name.
func (c Config) Layout(name string) (Choice, bool) {
	return findChoice(c.Layouts, name)
}

// Stylesheet returns the stylesheet with the given name.
func (c Config) Stylesheet(name string) (Choice, bool) {
	return findChoice(c.Stylesheets, name)
}

func findChoice(choices []Choice, name string) (Choice, bool) {
	for _, ch := range choices {
		if ch.Name == name {
			return ch, true
		}
	}
	return Choice{}, false
}
