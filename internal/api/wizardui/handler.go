// Package wizardui contains the Datastar SSE handlers driving the map
// creation wizard. Every browser event posts the page signals; the handler
// applies the event to the session and streams back the changed parts.
package wizardui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-mapwizard/internal/geo"
	"github.com/joeblew999/plat-mapwizard/internal/humastar"
	"github.com/joeblew999/plat-mapwizard/internal/templates"
	"github.com/joeblew999/plat-mapwizard/internal/wizard"
)

// BasePath prefixes every per-session route.
const BasePath = "/api/v1/wizard/{id}/"

// SessionInput identifies a wizard session.
type SessionInput struct {
	ID string `path:"id" doc:"Wizard session ID" example:"4b0c6a8e-8f43-4a1c-a2f8-0f3f5f8a2c11"`
}

// EventInput is a browser event: the session plus the posted signals.
type EventInput struct {
	ID      string `path:"id" doc:"Wizard session ID"`
	RawBody []byte
}

type SessionBody struct {
	ID     string `json:"id" doc:"Wizard session ID"`
	Events string `json:"events" doc:"SSE stream of asynchronous updates"`
}

// Handler serves the wizard routes.
type Handler struct {
	humastar.Handler
	store *wizard.Store
}

// NewHandler creates a wizard handler over store.
func NewHandler(store *wizard.Store, renderer *templates.Renderer, log *slog.Logger) *Handler {
	return &Handler{
		Handler: humastar.Handler{Renderer: renderer, Log: log},
		store:   store,
	}
}

type eventFunc func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error)

func (h *Handler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags("wizard")
	huma.Post(api, "/api/v1/wizard/sessions", h.CreateSession, tags)
	huma.Get(api, "/api/v1/wizard/{id}/events", h.Events, tags)
	huma.Get(api, "/api/v1/wizard/{id}/form", h.Form, tags)

	events := map[string]eventFunc{
		"next": func(s *wizard.Session, _ humastar.Signals) (wizard.Part, error) { return s.Next() },
		"prev": func(s *wizard.Session, _ humastar.Signals) (wizard.Part, error) { return s.Prev() },
		"mode": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.SetMode(wizard.Mode(sig.String("mode")))
		},
		"key": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.Key(sig.String("key"), sig.String("city"))
		},
		"search": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.Search(sig.String("city"))
		},
		"select": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.SelectSuggestion(sig.Int("suggestindex"))
		},
		"page": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.Page(sig.Int("pagedir"))
		},
		"extent": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			b := geo.Bounds{
				LatTop:    sig.Float("mapnorth"),
				LonLeft:   sig.Float("mapwest"),
				LatBottom: sig.Float("mapsouth"),
				LonRight:  sig.Float("mapeast"),
			}
			return s.ReportExtent(b, sig.Int("mapwidth"), sig.Int("mapheight"))
		},
		"box": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.DrawBox(geo.PixelRect{
				Left:   sig.Float("rectleft"),
				Top:    sig.Float("recttop"),
				Right:  sig.Float("rectright"),
				Bottom: sig.Float("rectbottom"),
			})
		},
		"fields": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.EditFields(geo.FieldSet{
				LatUpperLeft:   sig.String("latupperleft"),
				LonUpperLeft:   sig.String("lonupperleft"),
				LatBottomRight: sig.String("latbottomright"),
				LonBottomRight: sig.String("lonbottomright"),
			})
		},
		"nudge": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.Nudge(sig.String("nudgefield"), sig.Int("nudgedir"))
		},
		"clear": func(s *wizard.Session, _ humastar.Signals) (wizard.Part, error) { return s.ClearBox() },
		"options": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.SetOptions(sig.String("layout"), sig.String("stylesheet"))
		},
		"paper": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.SelectPaper(sig.String("papersize"))
		},
		"orientation": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.SetOrientation(wizard.Orientation(sig.String("orientation")))
		},
		"title": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.SetTitle(sig.String("title"))
		},
		"language": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.SetLanguage(sig.String("language"))
		},
		"dismiss": func(s *wizard.Session, sig humastar.Signals) (wizard.Part, error) {
			return s.Dismiss(sig.String("dismiss"))
		},
	}
	for name, fn := range events {
		huma.Register(api, huma.Operation{
			OperationID: "wizard-" + name,
			Method:      http.MethodPost,
			Path:        BasePath + name,
			Summary:     "Wizard event: " + name,
			Tags:        []string{"wizard"},
		}, func(ctx context.Context, in *EventInput) (*huma.StreamResponse, error) {
			return h.event(in, fn)
		})
	}
}

func (h *Handler) session(id string) (*wizard.Session, error) {
	s, err := h.store.Get(id)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return s, nil
}

// CreateSession opens a new wizard.
func (h *Handler) CreateSession(ctx context.Context, input *struct{}) (*struct{ Body SessionBody }, error) {
	s := h.store.Create()
	return &struct{ Body SessionBody }{Body: SessionBody{
		ID:     s.ID,
		Events: "/api/v1/wizard/" + s.ID + "/events",
	}}, nil
}

// Events streams the full state once, then every change produced by
// asynchronous lookups until the client leaves or the session expires.
func (h *Handler) Events(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	s, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		sub := s.Subscribe()
		defer s.Unsubscribe(sub)

		h.render(sse, s.ID, s.Snapshot(), wizard.PartAll, nil)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.Done():
				return
			case <-sub.C:
				h.render(sse, s.ID, s.Snapshot(), sub.Take(), nil)
			}
		}
	}), nil
}

// Form returns the fields of the final map request.
func (h *Handler) Form(ctx context.Context, input *SessionInput) (*struct{ Body map[string]string }, error) {
	s, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	values := s.FormValues()
	out := make(map[string]string, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	return &struct{ Body map[string]string }{Body: out}, nil
}

func (h *Handler) event(in *EventInput, fn eventFunc) (*huma.StreamResponse, error) {
	s, err := h.session(in.ID)
	if err != nil {
		return nil, err
	}
	sig, err := (&humastar.SignalsInput{RawBody: in.RawBody}).MustParse()
	if err != nil {
		return nil, err
	}
	parts, err := fn(s, sig)
	if errors.Is(err, wizard.ErrNoSession) {
		return nil, huma.Error404NotFound(err.Error())
	}
	if err != nil {
		h.Log.Debug("wizard event rejected", "session", s.ID, "error", err)
	}
	st := s.Snapshot()
	return h.Stream(func(sse humastar.SSE) {
		h.render(sse, s.ID, st, parts, err)
	}), nil
}
