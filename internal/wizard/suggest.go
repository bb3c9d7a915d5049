package wizard

import (
	"unicode/utf8"

	"github.com/joeblew999/plat-mapwizard/internal/backend"
)

// Keys the autosuggest reacts to, named as KeyboardEvent.key reports them.
const (
	KeyEscape = "Escape"
	KeyTab    = "Tab"
	KeyEnter  = "Enter"
	KeyUp     = "ArrowUp"
	KeyDown   = "ArrowDown"
	KeyLeft   = "ArrowLeft"
	KeyRight  = "ArrowRight"
)

// Suggestion is one entry of the suggestion list.
type Suggestion struct {
	DisplayName string `json:"displayName"`
	CountryCode string `json:"countryCode"`
	Icon        string `json:"icon,omitempty"`
	OsmID       int64  `json:"osmId"`
	Valid       bool   `json:"valid"`
	Reason      string `json:"reason,omitempty"`
}

// SuggestList is the state of the place suggestion dropdown.
type SuggestList struct {
	Query     string
	Open      bool
	Loading   bool
	Items     []Suggestion
	Highlight int // index into Items, -1 when nothing is highlighted

	HasPrev      bool
	PrevExcludes string
	HasNext      bool
	NextExcludes string
}

// NoResults reports whether the last search came back empty.
func (l SuggestList) NoResults() bool {
	return l.Open && !l.Loading && len(l.Items) == 0
}

// HasInvalid reports whether some entries cannot be selected, which calls
// for the explanatory hint.
func (l SuggestList) HasInvalid() bool {
	for _, it := range l.Items {
		if !it.Valid {
			return true
		}
	}
	return false
}

// Highlighted returns the highlighted entry.
func (l SuggestList) Highlighted() (Suggestion, bool) {
	if l.Highlight < 0 || l.Highlight >= len(l.Items) {
		return Suggestion{}, false
	}
	return l.Items[l.Highlight], true
}

// Move shifts the highlight to the next valid entry in direction dir (+1
// down, -1 up) without wrapping. With nothing highlighted, down starts at the
// first valid entry and up at the last one. It reports whether the
// highlight changed.
func (l *SuggestList) Move(dir int) bool {
	start := l.Highlight + dir
	if l.Highlight < 0 {
		start = 0
		if dir < 0 {
			start = len(l.Items) - 1
		}
	}
	for i := start; i >= 0 && i < len(l.Items); i += dir {
		if l.Items[i].Valid {
			l.Highlight = i
			return true
		}
	}
	return false
}

func suggestionsFrom(res backend.SearchResult) []Suggestion {
	items := make([]Suggestion, 0, len(res.Entries))
	for _, p := range res.Entries {
		items = append(items, Suggestion{
			DisplayName: p.DisplayName,
			CountryCode: p.CountryCode,
			Icon:        p.Icon,
			OsmID:       p.OsmID(),
			Valid:       p.Usable(),
			Reason:      p.Reason(),
		})
	}
	return items
}

// KeyAction is what the session must do after a keystroke.
type KeyAction int

const (
	KeyIgnored KeyAction = iota
	KeyClosed
	KeyConfirmed
	KeyMoved
	KeyQueryNow
	KeyAdvance
	KeyDebounce
)

// Autosuggest interprets keystrokes in the city field.
type Autosuggest struct {
	st *State
}

// OnKey applies a keystroke to the suggestion state. text is the current
// content of the input. Named keys other than the navigation keys above are
// ignored.
func (a *Autosuggest) OnKey(key, text string) KeyAction {
	l := &a.st.Suggest
	switch key {
	case KeyEscape:
		l.Open = false
		l.Highlight = -1
		return KeyClosed
	case KeyTab, KeyEnter:
		if l.Open {
			if it, ok := l.Highlighted(); ok && it.Valid {
				a.Confirm(it)
				return KeyConfirmed
			}
			return KeyIgnored
		}
		if key == KeyEnter && a.st.Area.Boundary.OsmID != 0 {
			return KeyAdvance
		}
		return KeyIgnored
	case KeyUp, KeyDown:
		if !l.Open {
			l.Query = text
			return KeyQueryNow
		}
		dir := 1
		if key == KeyUp {
			dir = -1
		}
		if l.Move(dir) {
			return KeyMoved
		}
		return KeyIgnored
	case KeyLeft, KeyRight:
		return KeyIgnored
	}
	if !typed(key) {
		return KeyIgnored
	}
	l.Query = text
	a.st.Area.Boundary = Boundary{}
	a.st.Area.Country = ""
	return KeyDebounce
}

// typed reports whether key edits the text: a character, a deletion, or
// the empty key the input event posts. Other named keys such as Shift or
// Home leave the selection alone.
func typed(key string) bool {
	switch key {
	case "", "Backspace", "Delete":
		return true
	}
	return utf8.RuneCountInString(key) == 1
}

// Confirm writes a valid suggestion into the area selection and closes the list.
func (a *Autosuggest) Confirm(it Suggestion) {
	a.st.Area.Boundary = Boundary{OsmID: it.OsmID, DisplayName: it.DisplayName, CountryCode: it.CountryCode}
	a.st.Area.Country = it.CountryCode
	a.st.Suggest.Query = it.DisplayName
	a.st.Suggest.Open = false
	a.st.Suggest.Highlight = -1
}

// Select confirms the entry at index i, as a click does.
func (a *Autosuggest) Select(i int) error {
	l := a.st.Suggest
	if !l.Open || i < 0 || i >= len(l.Items) {
		return ErrNotAllowed
	}
	if !l.Items[i].Valid {
		return ErrInvalidPlace
	}
	a.Confirm(l.Items[i])
	return nil
}

// applyResult replaces the list with a search result.
func (a *Autosuggest) applyResult(res backend.SearchResult) {
	l := &a.st.Suggest
	l.Open = true
	l.Loading = false
	l.Items = suggestionsFrom(res)
	l.Highlight = -1
	l.HasPrev = bool(res.HasPrev)
	l.PrevExcludes = string(res.PrevExcludes)
	l.HasNext = bool(res.HasNext)
	l.NextExcludes = string(res.NextExcludes)
	a.st.ClearNotice(ControlSuggest)
}
