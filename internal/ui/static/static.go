// Package static embeds the console stylesheet.
package static

import (
	"embed"
	"net/http"
)

//go:embed console.css
var files embed.FS

// Handler serves the embedded assets; mount it under /static/.
func Handler() http.Handler {
	return http.StripPrefix("/static/", http.FileServerFS(files))
}
