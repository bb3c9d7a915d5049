// pagedata.go: OpenAPI document to page template data.
//
// BuildPageData walks the registered operations so page templates never
// hardcode URLs: every POST under a base path becomes a named route, and
// the GET events stream becomes the page's data-init.
package humastar

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// PageData holds everything a page template needs from the OpenAPI spec.
type PageData struct {
	// Signals is the JSON string for data-signals initialization.
	Signals string

	// Routes maps the last path segment of each POST operation to its URL,
	// e.g. Routes["next"] = "/api/v1/wizard/abc/next".
	Routes map[string]string

	// SSEInits holds the GET stream URLs opened when the page loads.
	SSEInits []string
}

// Post returns the Datastar action posting to a named route,
// e.g. "@post('/api/v1/wizard/abc/next')".
func (pd PageData) Post(name string) string {
	return fmt.Sprintf("@post('%s')", pd.Routes[name])
}

// DataInit returns a Datastar data-init attribute value joining all SSE init URLs.
// e.g. "@get('/api/v1/wizard/abc/events')"
func (pd PageData) DataInit() string {
	var parts []string
	for _, url := range pd.SSEInits {
		parts = append(parts, fmt.Sprintf("@get('%s')", url))
	}
	return strings.Join(parts, "; ")
}

// BuildPageData builds template data for the operations below basePath.
// Path parameters are filled from params, and signals seed data-signals.
func BuildPageData(api huma.API, basePath string, params map[string]string, signals map[string]any) PageData {
	pd := PageData{Routes: map[string]string{}}

	signalsJSON, _ := json.Marshal(signals)
	pd.Signals = string(signalsJSON)

	paths := api.OpenAPI().Paths
	for path, item := range paths {
		if !strings.HasPrefix(path, basePath) {
			continue
		}
		url := fillParams(path, params)
		name := path[strings.LastIndex(path, "/")+1:]
		if item.Post != nil {
			pd.Routes[name] = url
		}
		if item.Get != nil && name == "events" {
			pd.SSEInits = append(pd.SSEInits, url)
		}
	}
	return pd
}

func fillParams(path string, params map[string]string) string {
	for k, v := range params {
		path = strings.ReplaceAll(path, "{"+k+"}", v)
	}
	return path
}
