package wizard

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/joeblew999/plat-mapwizard/internal/backend"
	"github.com/joeblew999/plat-mapwizard/internal/config"
	"github.com/joeblew999/plat-mapwizard/internal/geo"
	"github.com/joeblew999/plat-mapwizard/internal/lookup"
)

// Backend is the set of remote lookups the wizard relies on.
type Backend interface {
	SearchPlaces(ctx context.Context, text, exclude string) (backend.SearchResult, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
	PaperSizes(ctx context.Context, q backend.PaperQuery) ([]backend.PaperSize, error)
}

// Default size of the map widget until the browser reports its own.
const (
	DefaultViewWidth  = 800
	DefaultViewHeight = 500
)

// Session is the wizard of one user. Every method is safe for concurrent
// use; mutations are applied one at a time.
type Session struct {
	ID string

	cfg config.Config
	be  Backend
	log *slog.Logger
	bus *Bus

	mu      sync.Mutex
	closed  bool
	touched time.Time
	st      *State
	view    *geo.Viewport
	ctrl    *Controller
	area    *AreaSelector
	suggest *Autosuggest
	paper   *PaperFilter
	lang    *LanguagePreselector

	ctx      context.Context
	cancel   context.CancelFunc
	search   *lookup.Slot
	reverse  *lookup.Slot
	sizes    *lookup.Slot
	debounce *lookup.Debouncer
	typing   uint64 // bumped whenever a pending debounced search is void
	inflight sync.WaitGroup
}

// NewSession creates a session with the cursor on the first step.
func NewSession(id string, cfg config.Config, be Backend, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       id,
		cfg:      cfg,
		be:       be,
		log:      log.With("session", id),
		bus:      NewBus(),
		touched:  time.Now(),
		st:       NewState(DefaultSteps),
		view:     geo.NewViewport(DefaultViewWidth, DefaultViewHeight),
		ctx:      ctx,
		cancel:   cancel,
		search:   lookup.NewSlot("search"),
		reverse:  lookup.NewSlot("reversegeo"),
		sizes:    lookup.NewSlot("papersize"),
		debounce: lookup.NewDebouncer(cfg.SuggestDebounce()),
	}
	if len(cfg.Layouts) > 0 {
		s.st.Options.Layout = cfg.Layouts[0].Name
	}
	if len(cfg.Stylesheets) > 0 {
		s.st.Options.Stylesheet = cfg.Stylesheets[0].Name
	}
	s.st.Visible = s.view.Extent().Round()

	s.area = NewAreaSelector(s.st, s.view, cfg.BBoxMaxKm(), s.lookupCountry)
	s.area.OnUnsettled(s.dropCountry)
	s.suggest = &Autosuggest{st: s.st}
	s.paper = &PaperFilter{st: s.st, catalog: cfg.PaperSizes}
	s.lang = &LanguagePreselector{st: s.st, catalog: cfg.Languages}
	s.ctrl = NewController(s.st)
	s.ctrl.OnPrepare(StepPaperSize, s.preparePaper)
	s.ctrl.OnPrepare(StepTitle, s.prepareTitle)
	s.ctrl.OnPrepare(StepLanguage, func() { s.lang.Apply(s.st.Area.Country) })
	s.ctrl.OnPrepare(StepSummary, func() { s.st.Summary = BuildSummary(s.st, s.cfg, s.lang.Name) })
	return s
}

// Subscribe registers for the parts changed by asynchronous lookups.
func (s *Session) Subscribe() *Subscription { return s.bus.Subscribe() }

// Unsubscribe removes a subscription.
func (s *Session) Unsubscribe(sub *Subscription) { s.bus.Unsubscribe(sub) }

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Touched returns the time of the last user event.
func (s *Session) Touched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Wait blocks until no lookup is in flight.
func (s *Session) Wait() { s.inflight.Wait() }

// Close aborts every pending lookup and rejects further events.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.debounce.Stop()
	s.search.Cancel()
	s.reverse.Cancel()
	s.sizes.Cancel()
	s.cancel()
}

// Snapshot returns a copy of the state for rendering.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := *s.st
	st.Notices = maps.Clone(s.st.Notices)
	return st
}

// do runs one user event on the session.
func (s *Session) do(fn func() (Part, error)) (Part, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrNoSession
	}
	s.touched = time.Now()
	p, err := fn()
	s.ctrl.Refresh()
	return p | PartNav, err
}

// start issues a lookup through slot. It must be called with s.mu held.
// apply runs on the session once the lookup returns, unless a newer lookup
// of the same class has been started meanwhile.
func (s *Session) start(slot *lookup.Slot, fetch func(ctx context.Context) (apply func() Part, err error), fail func(error) Part) {
	t := slot.Begin(s.ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer t.Finish()

		apply, err := fetch(t.Context())

		s.mu.Lock()
		if !t.Live() {
			s.mu.Unlock()
			s.log.Debug("dropped superseded lookup", "class", slot.Name())
			return
		}
		var p Part
		if err != nil {
			s.log.Warn("lookup failed", "class", slot.Name(), "error", err)
			p = fail(err)
		} else {
			p = apply()
		}
		s.ctrl.Refresh()
		s.mu.Unlock()
		s.bus.Publish(p | PartNav)
	}()
}

// Next advances the wizard.
func (s *Session) Next() (Part, error) {
	return s.do(func() (Part, error) {
		if !s.ctrl.Advance() {
			return 0, nil
		}
		return PartAll, nil
	})
}

// Prev goes back one step.
func (s *Session) Prev() (Part, error) {
	return s.do(func() (Part, error) {
		s.ctrl.Retreat()
		return 0, nil
	})
}

// SetMode switches between boundary and bounding box input. The other
// variant's fields and the inferred country are cleared.
func (s *Session) SetMode(m Mode) (Part, error) {
	return s.do(func() (Part, error) {
		if m != ModeBoundary && m != ModeBBox {
			return 0, ErrUnknownOption
		}
		if m == s.st.Area.Mode {
			return 0, nil
		}
		switch m {
		case ModeBBox:
			s.stopSearch()
			s.st.Area.Boundary = Boundary{}
			s.st.Suggest = SuggestList{Highlight: -1}
			s.st.ClearNotice(ControlSuggest)
		case ModeBoundary:
			s.area.Clear()
		}
		s.st.Area.Mode = m
		s.st.Area.Country = ""
		return PartArea | PartFields | PartSuggest | PartNotice, nil
	})
}

// Key handles a keystroke in the city field. text is the field content.
func (s *Session) Key(key, text string) (Part, error) {
	return s.do(func() (Part, error) {
		if s.st.Area.Mode != ModeBoundary {
			return 0, ErrNotAllowed
		}
		switch s.suggest.OnKey(key, text) {
		case KeyClosed:
			s.stopSearch()
			return PartSuggest, nil
		case KeyMoved:
			return PartSuggest, nil
		case KeyConfirmed:
			s.stopSearch()
			return PartSuggest | PartArea, nil
		case KeyQueryNow:
			s.stopTyping()
			return s.query(s.st.Suggest.Query, "") | PartArea, nil
		case KeyAdvance:
			if s.ctrl.Advance() {
				return PartAll, nil
			}
			return 0, nil
		case KeyDebounce:
			s.typing++
			gen := s.typing
			s.debounce.Trigger(func() { s.debounced(gen) })
			return PartArea, nil
		}
		return 0, nil
	})
}

// debounced fires the search once typing has paused. gen is the typing
// generation the timer was armed for.
func (s *Session) debounced(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.typing || s.st.Area.Mode != ModeBoundary {
		s.mu.Unlock()
		return
	}
	p := s.query(s.st.Suggest.Query, "")
	s.mu.Unlock()
	s.bus.Publish(p)
}

// stopTyping voids a pending debounced search, including one whose timer
// already fired. It must be called with s.mu held.
func (s *Session) stopTyping() {
	s.typing++
	s.debounce.Stop()
}

// stopSearch voids the pending and the in-flight search, so nothing reopens
// the list. It must be called with s.mu held.
func (s *Session) stopSearch() {
	s.stopTyping()
	s.search.Cancel()
	s.st.Suggest.Loading = false
}

// query starts a place search. It must be called with s.mu held.
func (s *Session) query(text, exclude string) Part {
	l := &s.st.Suggest
	if strings.TrimSpace(text) == "" {
		s.search.Cancel()
		*l = SuggestList{Highlight: -1}
		return PartSuggest
	}
	l.Loading = true
	s.start(s.search,
		func(ctx context.Context) (func() Part, error) {
			res, err := s.be.SearchPlaces(ctx, text, exclude)
			if err != nil {
				return nil, err
			}
			return func() Part {
				s.suggest.applyResult(res)
				return PartSuggest | PartNotice
			}, nil
		},
		func(err error) Part {
			l.Loading = false
			l.Open = false
			s.st.SetNotice(ControlSuggest, NoticeError, "Place search failed: "+err.Error())
			return PartSuggest | PartNotice
		})
	return PartSuggest
}

// Search queries the suggestions for text right away.
func (s *Session) Search(text string) (Part, error) {
	return s.do(func() (Part, error) {
		if s.st.Area.Mode != ModeBoundary {
			return 0, ErrNotAllowed
		}
		s.stopTyping()
		s.st.Suggest.Query = text
		return s.query(text, ""), nil
	})
}

// SelectSuggestion confirms the suggestion at index i.
func (s *Session) SelectSuggestion(i int) (Part, error) {
	return s.do(func() (Part, error) {
		if err := s.suggest.Select(i); err != nil {
			return 0, err
		}
		s.stopSearch()
		return PartSuggest | PartArea, nil
	})
}

// Page fetches the previous (dir < 0) or next page of suggestions.
func (s *Session) Page(dir int) (Part, error) {
	return s.do(func() (Part, error) {
		l := s.st.Suggest
		switch {
		case dir < 0 && l.HasPrev:
			return s.query(l.Query, l.PrevExcludes), nil
		case dir > 0 && l.HasNext:
			return s.query(l.Query, l.NextExcludes), nil
		}
		return 0, ErrNotAllowed
	})
}

// ReportExtent syncs the map mirror with the browser widget.
func (s *Session) ReportExtent(b geo.Bounds, width, height int) (Part, error) {
	return s.do(func() (Part, error) {
		if width > 0 && height > 0 {
			s.view.Resize(width, height)
		}
		if !b.Valid() {
			return 0, geo.ErrInvalidBounds
		}
		s.view.SetExtent(b)
		return PartVisible, nil
	})
}

// DrawBox selects the area of a rectangle drawn on the map.
func (s *Session) DrawBox(r geo.PixelRect) (Part, error) {
	return s.do(func() (Part, error) {
		if s.st.Area.Mode != ModeBBox {
			return 0, ErrNotAllowed
		}
		if !s.area.OnBoxDrawn(r) {
			return 0, nil
		}
		return PartArea | PartFields | PartNotice, nil
	})
}

// EditFields selects the area typed into the four bbox fields.
func (s *Session) EditFields(f geo.FieldSet) (Part, error) {
	return s.do(func() (Part, error) {
		if s.st.Area.Mode != ModeBBox {
			return 0, ErrNotAllowed
		}
		err := s.area.OnFieldsEdited(f)
		if errors.Is(err, geo.ErrInvalidBounds) {
			err = nil
		}
		return PartArea | PartMap | PartNotice, err
	})
}

// Nudge moves a bbox field by one step up (dir > 0) or down.
func (s *Session) Nudge(field string, dir int) (Part, error) {
	return s.do(func() (Part, error) {
		if s.st.Area.Mode != ModeBBox {
			return 0, ErrNotAllowed
		}
		delta := NudgeStep
		if dir < 0 {
			delta = -delta
		}
		if !s.area.Nudge(field, delta) {
			return 0, nil
		}
		return PartArea | PartFields | PartMap | PartNotice, nil
	})
}

// ClearBox removes the drawn selection.
func (s *Session) ClearBox() (Part, error) {
	return s.do(func() (Part, error) {
		s.area.Clear()
		return PartArea | PartFields | PartNotice, nil
	})
}

// dropCountry abandons the country lookup of a box that is no longer
// selected. It runs with s.mu held.
func (s *Session) dropCountry() {
	s.reverse.Cancel()
	s.st.ClearNotice(ControlReverseGeo)
}

// lookupCountry starts the best-effort reverse geocode of a box center. It
// runs with s.mu held, from inside the area selector.
func (s *Session) lookupCountry(b geo.Bounds) {
	c := b.Center()
	s.st.ClearNotice(ControlReverseGeo)
	s.start(s.reverse,
		func(ctx context.Context) (func() Part, error) {
			cc, err := s.be.ReverseGeocode(ctx, c.Lat(), c.Lon())
			if err != nil {
				return nil, err
			}
			return func() Part {
				s.st.Area.Country = cc
				return PartArea
			}, nil
		},
		func(err error) Part {
			s.st.SetNotice(ControlReverseGeo, NoticeWarning, "Could not determine the country of the selected area.")
			return PartNotice
		})
}

// SetOptions changes the layout and stylesheet. Empty values are kept.
func (s *Session) SetOptions(layout, stylesheet string) (Part, error) {
	return s.do(func() (Part, error) {
		if layout != "" {
			if _, ok := s.cfg.Layout(layout); !ok {
				return 0, ErrUnknownOption
			}
			s.st.Options.Layout = layout
		}
		if stylesheet != "" {
			if _, ok := s.cfg.Stylesheet(stylesheet); !ok {
				return 0, ErrUnknownOption
			}
			s.st.Options.Stylesheet = stylesheet
		}
		return PartOptions, nil
	})
}

// preparePaper fetches the allowed paper sizes on entering their step.
func (s *Session) preparePaper() {
	s.paper.Begin()
	q := s.paper.Query()
	s.start(s.sizes,
		func(ctx context.Context) (func() Part, error) {
			sizes, err := s.be.PaperSizes(ctx, q)
			if err != nil {
				return nil, err
			}
			return func() Part {
				s.paper.Apply(sizes)
				return PartPaper | PartOptions | PartNotice
			}, nil
		},
		func(err error) Part {
			s.paper.Fail(err)
			return PartPaper | PartNotice
		})
}

// prepareTitle proposes the city name as title in boundary mode.
func (s *Session) prepareTitle() {
	if s.st.Title != "" || s.st.Area.Mode != ModeBoundary {
		return
	}
	name, _, _ := strings.Cut(s.st.Area.Boundary.DisplayName, ",")
	s.st.Title = strings.TrimSpace(name)
}

// SelectPaper picks one of the allowed paper sizes.
func (s *Session) SelectPaper(name string) (Part, error) {
	return s.do(func() (Part, error) {
		if err := s.paper.Select(name); err != nil {
			return 0, err
		}
		return PartPaper | PartOptions, nil
	})
}

// SetOrientation checks an orientation radio.
func (s *Session) SetOrientation(o Orientation) (Part, error) {
	return s.do(func() (Part, error) {
		if err := s.paper.SetOrientation(o); err != nil {
			return 0, err
		}
		return PartOptions, nil
	})
}

// SetTitle changes the map title.
func (s *Session) SetTitle(title string) (Part, error) {
	return s.do(func() (Part, error) {
		s.st.Title = title
		return 0, nil
	})
}

// SetLanguage selects a map language.
func (s *Session) SetLanguage(code string) (Part, error) {
	return s.do(func() (Part, error) {
		if err := s.lang.Select(code); err != nil {
			return 0, err
		}
		return PartLanguage, nil
	})
}

// Dismiss hides the notice shown on a control.
func (s *Session) Dismiss(control string) (Part, error) {
	return s.do(func() (Part, error) {
		s.st.ClearNotice(control)
		return PartNotice, nil
	})
}
