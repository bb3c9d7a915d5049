package wizardui

import (
	"github.com/joeblew999/plat-mapwizard/internal/humastar"
	"github.com/joeblew999/plat-mapwizard/internal/wizard"
)

// noticeControls are the controls with a notice slot on the page.
var noticeControls = []string{
	wizard.ControlArea,
	wizard.ControlSuggest,
	wizard.ControlReverseGeo,
	wizard.ControlPaper,
}

// Fragment data. Every fragment gets the session URL prefix so it can post
// its own events.

type suggestData struct {
	Base string
	wizard.SuggestList
}

type paperData struct {
	Base     string
	Selected string
	wizard.PaperList
}

type languageData struct {
	Selected string
	Options  []wizard.LanguageOption
}

type summaryData struct {
	Base string
	wizard.Summary
}

type noticeData struct {
	Base    string
	Control string
	Notice  *wizard.Notice
}

func sessionBase(id string) string {
	return "/api/v1/wizard/" + id + "/"
}

// render streams the signals and fragments of the changed parts. err is the
// outcome of the event; the error signal is cleared on success.
func (h *Handler) render(sse humastar.SSE, id string, st wizard.State, parts wizard.Part, err error) {
	sig := signals(st, parts)
	if err != nil {
		sig["error"] = err.Error()
	} else {
		sig["error"] = ""
	}
	sse.Signals(sig)

	base := sessionBase(id)
	if parts.Has(wizard.PartSuggest) {
		sse.Patch(h.Render("suggest-list", suggestData{Base: base, SuggestList: st.Suggest}), "#suggest-list")
	}
	if parts.Has(wizard.PartPaper) {
		sse.Patch(h.Render("paper-options", paperData{
			Base:      base,
			Selected:  st.Options.PaperSize,
			PaperList: st.Paper,
		}), "#paper-list")
	}
	if parts.Has(wizard.PartLanguage) {
		sse.Patch(h.Render("language-options", languageData{
			Selected: st.Options.Language,
			Options:  st.Languages,
		}), "#language")
	}
	if parts.Has(wizard.PartSummary) {
		sse.Patch(h.Render("summary", summaryData{Base: base, Summary: st.Summary}), "#summary")
	}
	if parts.Has(wizard.PartNotice) {
		for _, c := range noticeControls {
			d := noticeData{Base: base, Control: c}
			if n, ok := st.Notices[c]; ok {
				d.Notice = &n
			}
			sse.Replace(h.Render("notice", d), "#notice-"+c)
		}
	}
}

// signals maps the changed parts of st to page signals.
func signals(st wizard.State, parts wizard.Part) map[string]any {
	sig := map[string]any{}
	if parts.Has(wizard.PartNav) {
		sig["step"] = string(st.Steps[st.Cursor])
		sig["cangonext"] = st.CanGoNext
		sig["cangoprev"] = st.CanGoPrev
	}
	if parts.Has(wizard.PartArea) {
		a := st.Area
		sig["mode"] = string(a.Mode)
		sig["osmid"] = a.Boundary.OsmID
		sig["country"] = a.Country
		sig["exceeds"] = a.Box.ExceedsMaxSize
		sig["boxdrawn"] = a.Box.Drawn
		if a.Mode == wizard.ModeBoundary && a.Boundary.OsmID != 0 {
			sig["city"] = a.Boundary.DisplayName
		}
	}
	if parts.Has(wizard.PartFields) {
		sig["latupperleft"] = st.Fields.LatUpperLeft
		sig["lonupperleft"] = st.Fields.LonUpperLeft
		sig["latbottomright"] = st.Fields.LatBottomRight
		sig["lonbottomright"] = st.Fields.LonBottomRight
	}
	if parts.Has(wizard.PartVisible) {
		sig["visiblenorth"] = st.Visible.LatTop
		sig["visiblewest"] = st.Visible.LonLeft
		sig["visiblesouth"] = st.Visible.LatBottom
		sig["visibleeast"] = st.Visible.LonRight
	}
	if parts.Has(wizard.PartMap) {
		sig["mapseq"] = st.Map.Seq
		sig["maplon"] = st.Map.Center[0]
		sig["maplat"] = st.Map.Center[1]
		sig["mapzoom"] = st.Map.Zoom
	}
	if parts.Has(wizard.PartSuggest) {
		sig["suggestopen"] = st.Suggest.Open
		sig["suggestloading"] = st.Suggest.Loading
	}
	if parts.Has(wizard.PartPaper) {
		sig["paperstatus"] = string(st.Paper.Status)
		sig["portraitenabled"] = st.Paper.PortraitEnabled
		sig["landscapeenabled"] = st.Paper.LandscapeEnabled
	}
	if parts.Has(wizard.PartOptions) {
		o := st.Options
		sig["layout"] = o.Layout
		sig["stylesheet"] = o.Stylesheet
		sig["papersize"] = o.PaperSize
		sig["paperwidthmm"] = o.PaperWidthMm
		sig["paperheightmm"] = o.PaperHeightMm
		sig["orientation"] = string(o.Orientation)
	}
	if parts.Has(wizard.PartTitle) {
		sig["title"] = st.Title
	}
	if parts.Has(wizard.PartLanguage) {
		sig["language"] = st.Options.Language
	}
	return sig
}

// InitialSignals seeds data-signals on the wizard page: the full state plus
// the input-only signals the page binds to.
func InitialSignals(st wizard.State) map[string]any {
	sig := signals(st, wizard.PartAll)
	if _, ok := sig["city"]; !ok {
		sig["city"] = st.Suggest.Query
	}
	for k, v := range map[string]any{
		"error":        "",
		"key":          "",
		"suggestindex": -1,
		"pagedir":      0,
		"nudgefield":   "",
		"nudgedir":     0,
		"mapnorth":     0.0,
		"mapwest":      0.0,
		"mapsouth":     0.0,
		"mapeast":      0.0,
		"mapwidth":     0,
		"mapheight":    0,
		"rectleft":     0.0,
		"recttop":      0.0,
		"rectright":    0.0,
		"rectbottom":   0.0,
		"dismiss":      "",
	} {
		sig[k] = v
	}
	return sig
}
