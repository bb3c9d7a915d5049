package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-mapwizard/internal/api"
	"github.com/joeblew999/plat-mapwizard/internal/api/wizardui"
	"github.com/joeblew999/plat-mapwizard/internal/backend"
	"github.com/joeblew999/plat-mapwizard/internal/config"
	"github.com/joeblew999/plat-mapwizard/internal/humastar"
	"github.com/joeblew999/plat-mapwizard/internal/templates"
	"github.com/joeblew999/plat-mapwizard/internal/wizard"
	"github.com/joeblew999/plat-mapwizard/web"
)

// Config holds the server configuration.
type Config struct {
	Host       string
	Port       string
	BackendURL string // overrides the config file when set
	ConfigPath string // optional YAML file, see config.Load
	Log        *slog.Logger
}

// Server is the map wizard HTTP server.
type Server struct {
	config   Config
	wizard   config.Config
	log      *slog.Logger
	mux      *http.ServeMux
	humaAPI  huma.API
	store    *wizard.Store
	renderer *templates.Renderer
	cancel   context.CancelFunc
}

// New creates a new wizard server.
func New(cfg Config) (*Server, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	wcfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.BackendURL != "" {
		wcfg.BackendURL = cfg.BackendURL
	}

	renderer, err := templates.New(web.FS, web.Templates...)
	if err != nil {
		return nil, err
	}

	client := backend.New(wcfg.BackendURL,
		backend.WithRateLimit(wcfg.LookupRateLimit, 1),
		backend.WithLogger(log),
	)

	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("plat-mapwizard API", api.Version)
	humaConfig.Info.Description = "Map creation wizard: area selection, place search, paper size and language choice."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	s := &Server{
		config:   cfg,
		wizard:   wcfg,
		log:      log,
		mux:      mux,
		humaAPI:  humago.New(mux, humaConfig),
		store:    wizard.NewStore(wcfg, client, log),
		renderer: renderer,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start runs the idle session sweeper until ctx is done or Close is called.
func (s *Server) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.store.Run(ctx)
}

// Close ends every wizard session.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.store.CloseAll()
	return nil
}

// OpenAPI returns the OpenAPI document of the registered routes.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Wizard returns the effective wizard configuration.
func (s *Server) Wizard() config.Config {
	return s.wizard
}

func (s *Server) routes() error {
	// REST routes: Register* methods are discovered by name.
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.wizard, s.store))

	// Wizard events: Huma + Datastar SSE
	wizardui.NewHandler(s.store, s.renderer, s.log).RegisterRoutes(s.humaAPI)

	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return err
	}
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.mux.HandleFunc("GET /wizard", s.handleWizard)
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/wizard", http.StatusFound)
	})
	return nil
}

// boxField is one of the four bbox text inputs on the page.
type boxField struct {
	Field  string // name in the request form
	Signal string
	Label  string
}

var boxFields = []boxField{
	{wizard.FieldLatUpperLeft, "latupperleft", "North latitude"},
	{wizard.FieldLonUpperLeft, "lonupperleft", "West longitude"},
	{wizard.FieldLatBottomRight, "latbottomright", "South latitude"},
	{wizard.FieldLonBottomRight, "lonbottomright", "East longitude"},
}

type wizardPage struct {
	humastar.PageData
	Steps     []wizard.Step
	Config    config.Config
	BoxFields []boxField
}

// handleWizard opens a new session and renders its page. The routes the
// page posts to come from the OpenAPI document.
func (s *Server) handleWizard(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Create()
	st := sess.Snapshot()

	page := wizardPage{
		PageData: humastar.BuildPageData(s.humaAPI, wizardui.BasePath,
			map[string]string{"id": sess.ID}, wizardui.InitialSignals(st)),
		Steps:     st.Steps,
		Config:    s.wizard,
		BoxFields: boxFields,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.renderer.Execute(w, "wizard.html", page); err != nil {
		s.log.Error("render wizard page", "session", sess.ID, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}
