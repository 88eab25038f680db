// Package views embeds the HTML templates rendered by the fiber html engine.
package views

import "embed"

//go:embed layouts/*.html *.html
var FS embed.FS
