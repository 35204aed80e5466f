package swaggerkit

import (
	"encoding/json"
	"net/http"

	"flexcode/internal/core/version"
	phttp "flexcode/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// DocPath is where the generated document is served
const DocPath = "/api/docs/doc.json"

// Mount serves the Swagger UI under /api/docs when enabled
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api/docs/index.html", http.StatusMovedPermanently)
	})
	r.Get(DocPath, serveDocument)
	r.Handle("/api/docs/*", httpSwagger.Handler(httpSwagger.URL(DocPath)))
}

func serveDocument(w http.ResponseWriter, _ *http.Request) {
	doc := Document(Info{Title: "FlexCode API", Version: version.Info().Version})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(doc)
}
