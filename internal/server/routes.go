package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Web UI
	mux.HandleFunc("/", s.serveIndex)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	// API routes
	mux.HandleFunc("/api/query", s.app.QueryHandler.QueryHandler)       // POST - answer a question
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler) // GET - application status
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)     // GET - build info
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)       // GET - LLM connectivity

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// serveIndex serves the single-page UI.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, "web/static/index.html")
}
