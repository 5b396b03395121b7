package httpadapter

import (
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rollcall/internal/hackerrank"
	"rollcall/internal/ports"
	"rollcall/internal/roster"
	"rollcall/internal/workers/exportrunner"
)

//go:embed templates/*.html
var templateFS embed.FS

const defaultUploadMaxBytes = 10 << 20

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"stars":      func(n int) string { return strings.Repeat("★", max(n, 0)) },
	"totalStars": hackerrank.TotalStars,
}).ParseFS(templateFS, "templates/*.html"))

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Students       ports.Students
	Exporter       ports.Exporter
	Store          *roster.Store
	Rosters        ports.RosterRepository
	Jobs           ports.JobRepository
	Processor      exportrunner.Processor
	UploadMaxBytes int64
	Logger         *slog.Logger
}

type Server struct {
	Deps
}

func New(deps Deps) *Server {
	if deps.UploadMaxBytes <= 0 {
		deps.UploadMaxBytes = defaultUploadMaxBytes
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	deps.Logger = deps.Logger.With("component", "http")
	return &Server{Deps: deps}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.index)
	r.Get("/healthz", s.healthz)
	r.Post("/student", s.student)
	r.Post("/hackerrank_badges", s.hackerRankBadges)
	r.Post("/upload", s.upload)
	r.Get("/bulk_fetch", s.bulkFetch)

	r.Route("/exports", func(r chi.Router) {
		r.Post("/", s.createExport)
		r.Get("/{id}", s.getExport)
		r.Get("/{id}/download", s.downloadExport)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("elapsed", time.Since(started)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"roster_version": s.Store.Current().Version,
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.Logger.ErrorContext(r.Context(), "render page", "page", name, "error", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.Logger.ErrorContext(r.Context(), msg, "error", err)
	http.Error(w, "Internal server error.", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
