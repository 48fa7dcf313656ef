// Package views embeds the page templates.
package views

import "embed"

//go:embed *.html layouts/*.html
var FS embed.FS
