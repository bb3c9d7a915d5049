package wizard

import (
	"strings"

	"github.com/joeblew999/plat-mapwizard/internal/config"
)

// LanguageOption is an entry of the language select.
type LanguageOption struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Separator is the disabled entry between the country's languages and the rest.
var Separator = LanguageOption{Name: "──────────", Disabled: true}

// localeParts splits "fr_FR.UTF-8" into "fr" and "FR".
func localeParts(code string) (lang, region string) {
	if i := strings.IndexAny(code, ".@"); i >= 0 {
		code = code[:i]
	}
	lang, region, _ = strings.Cut(code, "_")
	return lang, region
}

// PartitionLanguages orders the catalog for a country: the entries of the
// country's locale family in catalog order, a separator, the no localization
// entry, then everything else. The family is every language spoken in a
// catalog entry for that country, so "FR" brings fr_FR and fr_CA forward.
// Without a matching country the list is no localization followed by the
// catalog, with no separator.
func PartitionLanguages(catalog []config.Language, country string) []LanguageOption {
	family := make(map[string]bool)
	if country != "" {
		for _, l := range catalog {
			lang, region := localeParts(l.Code)
			if region != "" && strings.EqualFold(region, country) {
				family[strings.ToLower(lang)] = true
			}
		}
	}

	var matched, rest []LanguageOption
	var none *LanguageOption
	for _, l := range catalog {
		opt := LanguageOption{Code: l.Code, Name: l.Name}
		if l.Code == config.NoLocalization {
			none = &opt
			continue
		}
		lang, region := localeParts(l.Code)
		if region != "" && family[strings.ToLower(lang)] {
			matched = append(matched, opt)
		} else {
			rest = append(rest, opt)
		}
	}

	out := make([]LanguageOption, 0, len(catalog)+1)
	if len(matched) > 0 {
		out = append(out, matched...)
		out = append(out, Separator)
		if none != nil {
			out = append(out, *none)
		}
	} else if none != nil {
		out = append(out, *none)
	}
	return append(out, rest...)
}

// LanguagePreselector rebuilds the language list on entering its step.
type LanguagePreselector struct {
	st      *State
	catalog []config.Language
}

// Apply rebuilds the list for country and selects its first entry.
func (p *LanguagePreselector) Apply(country string) {
	p.st.Languages = PartitionLanguages(p.catalog, country)
	p.st.Options.Language = ""
	for _, l := range p.st.Languages {
		if !l.Disabled {
			p.st.Options.Language = l.Code
			break
		}
	}
}

// Select picks a language from the catalog.
func (p *LanguagePreselector) Select(code string) error {
	for _, l := range p.st.Languages {
		if l.Code == code && !l.Disabled {
			p.st.Options.Language = code
			return nil
		}
	}
	return ErrUnknownOption
}

// Name returns the display name of a language code.
func (p *LanguagePreselector) Name(code string) string {
	for _, l := range p.catalog {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}
