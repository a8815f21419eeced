// Package httpapi exposes the tone engine as a REST API for the web front end.
//
// Uploaded originals are staged by the store package. Every processing
// endpoint starts a fresh tone session from the original upload, applies one
// operation and replaces the processed result, so repeated slider changes
// never compound. Errors are reported as {"detail": "..."} with 400 for bad
// parameters, 404 for unknown ids and 500 otherwise.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-tone/internal/config"
	"github.com/ironsheep/image-tone/internal/store"
)

// Server serves the REST endpoints.
type Server struct {
	cfg   config.Config
	store *store.Store
	log   zerolog.Logger
	mux   *http.ServeMux
}

// New creates a Server. Routes are registered immediately.
func New(cfg config.Config, st *store.Store, log zerolog.Logger) *Server {
	s := &Server{
		cfg:   cfg,
		store: st,
		log:   log,
		mux:   http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /process/{id}", s.handleProcess)
	s.mux.HandleFunc("POST /auto-adjust/{id}", s.handleAutoAdjust)
	s.mux.HandleFunc("POST /clahe/{id}", s.handleCLAHE)
	s.mux.HandleFunc("POST /s-curve/{id}", s.handleSCurve)
	s.mux.HandleFunc("GET /histogram/{id}", s.handleHistogram)
	s.mux.HandleFunc("GET /histogram-image/{id}", s.handleHistogramImage)
	s.mux.HandleFunc("GET /download/{id}", s.handleDownload)
	s.mux.HandleFunc("GET /preview/{id}", s.handlePreview)
	s.mux.HandleFunc("GET /info/{id}", s.handleInfo)
	s.mux.HandleFunc("DELETE /delete/{id}", s.handleDelete)
	s.mux.HandleFunc("POST /process-base64", s.handleProcessBase64)
	s.mux.HandleFunc("POST /batch/process", s.handleBatchProcess)
}

// endpoints is the map returned by the root endpoint.
var endpoints = map[string]string{
	"GET /":                     "API information",
	"GET /health":               "Service status",
	"POST /upload":              "Upload an image",
	"POST /process/{id}":        "Brightness, contrast and saturation",
	"POST /auto-adjust/{id}":    "Automatic 2-98 percentile level stretch",
	"POST /clahe/{id}":          "Adaptive local contrast (CLAHE)",
	"POST /s-curve/{id}":        "S-curve tone mapping",
	"GET /histogram/{id}":       "Per-channel histogram and statistics",
	"GET /histogram-image/{id}": "Histogram chart as PNG",
	"GET /download/{id}":        "Download the processed (or original) image",
	"GET /preview/{id}":         "Base64 preview of the image",
	"GET /info/{id}":            "Image information",
	"DELETE /delete/{id}":       "Delete an image",
	"POST /process-base64":      "Process a base64 image without storing it",
	"POST /batch/process":       "Adjust several uploaded images at once",
}

// Handler returns the root handler with CORS, body limits and request
// logging applied.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.cors(s.limitBody(s.mux)))
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ev := s.log.Info()
		if rec.status >= 500 {
			ev = s.log.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && s.cfg.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// cors allows credentialed requests from the configured origins with any
// method and header, and answers preflight requests directly.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || !s.originAllowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
				h.Set("Access-Control-Allow-Headers", req)
			}
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
