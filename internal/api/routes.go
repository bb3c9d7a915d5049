// Package api defines the Huma REST routes that are not part of the wizard
// event flow: health, service info and the option catalogs.
package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-mapwizard/internal/config"
	"github.com/joeblew999/plat-mapwizard/internal/wizard"
)

// Version of the service and its API.
const Version = "0.1.0"

// Sessions reports how many wizard sessions are open.
type Sessions interface {
	Len() int
}

// Types

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
}

type InfoBody struct {
	Name          string   `json:"name" doc:"Service name"`
	Version       string   `json:"version" doc:"Service version"`
	BackendURL    string   `json:"backend_url" doc:"Rendering service the lookups go to"`
	BBoxMaxMeters int      `json:"bbox_max_meters" doc:"Maximum bounding box edge length"`
	Sessions      int      `json:"sessions" doc:"Open wizard sessions"`
	Features      []string `json:"features" doc:"Available features"`
}

type CatalogBody struct {
	Layouts     []config.Choice   `json:"layouts" doc:"Layout choices"`
	Stylesheets []config.Choice   `json:"stylesheets" doc:"Stylesheet choices"`
	PaperSizes  []string          `json:"paper_sizes" doc:"Candidate paper sizes, in display order"`
	Languages   []config.Language `json:"languages" doc:"Map languages"`
}

// APIHandler holds the REST handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	cfg      config.Config
	sessions Sessions
}

func NewAPIHandler(cfg config.Config, sessions Sessions) *APIHandler {
	return &APIHandler{cfg: cfg, sessions: sessions}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

// RegisterCatalog registers the option catalog routes.
func (h *APIHandler) RegisterCatalog(api huma.API) {
	huma.Get(api, "/api/v1/catalog", h.GetCatalog, huma.OperationTags("catalog"))
	huma.Get(api, "/api/v1/catalog/languages", h.GetLanguages, huma.OperationTags("catalog"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	n := 0
	if h.sessions != nil {
		n = h.sessions.Len()
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:          "plat-mapwizard",
		Version:       Version,
		BackendURL:    h.cfg.BackendURL,
		BBoxMaxMeters: h.cfg.BBoxMaxMeters,
		Sessions:      n,
		Features:      []string{"admin-boundary", "bbox", "autosuggest", "papersize", "language"},
	}}, nil
}

func (h *APIHandler) GetCatalog(ctx context.Context, input *struct{}) (*struct{ Body CatalogBody }, error) {
	return &struct{ Body CatalogBody }{Body: CatalogBody{
		Layouts:     h.cfg.Layouts,
		Stylesheets: h.cfg.Stylesheets,
		PaperSizes:  h.cfg.PaperSizes,
		Languages:   h.cfg.Languages,
	}}, nil
}

func (h *APIHandler) GetLanguages(ctx context.Context, input *struct {
	Country string `query:"country" doc:"Country code the list is ordered for" example:"fr"`
}) (*struct{ Body []config.Language }, error) {
	if input.Country == "" {
		return &struct{ Body []config.Language }{Body: h.cfg.Languages}, nil
	}
	return &struct{ Body []config.Language }{Body: orderLanguages(h.cfg.Languages, input.Country)}, nil
}

// orderLanguages puts the country's locale family first, without the
// separator entry.
func orderLanguages(catalog []config.Language, country string) []config.Language {
	var out []config.Language
	for _, o := range wizard.PartitionLanguages(catalog, country) {
		if o.Disabled {
			continue
		}
		out = append(out, config.Language{Code: o.Code, Name: o.Name})
	}
	return out
}
