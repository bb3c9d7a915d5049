// Package web embeds the wizard page, its fragments and the browser glue.
package web

import "embed"

// FS holds templates/ and static/.
//
//go:embed templates static
var FS embed.FS

// Template patterns parsed by the renderer.
var Templates = []string{"templates/*.html", "templates/fragments/*.html"}
