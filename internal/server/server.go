package server

import (
	"context"
	"embed"
	"net/http"

	"github.com/tev2-toolkit/mrgen/internal/utils"
	"github.com/tev2-toolkit/mrgen/pkg/generator"
	"github.com/tev2-toolkit/mrgen/pkg/storage"
)

//go:embed web
var WebFS embed.FS

// Generator is the part of generator.Generator the server needs.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Result, error)
}

type Server struct {
	Generator Generator
	DB        *storage.DB // optional; nil disables run history
	Identity  string
	Username  string
	Password  string
}

func New(gen Generator, db *storage.DB, user, pass string) *Server {
	return &Server{
		Generator: gen,
		DB:        db,
		Username:  user,
		Password:  pass,
	}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ctwg/mrg", s.basicAuth(s.handleForm))
	mux.HandleFunc("POST /ctwg/mrg", s.basicAuth(s.handleGenerate))

	// API Group
	mux.HandleFunc("GET /api/runs", s.basicAuth(s.handleRuns))
	mux.HandleFunc("GET /api/runs/{id}", s.basicAuth(s.handleRun))
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))

	mux.Handle("GET /{$}", http.RedirectHandler("/ctwg/mrg", http.StatusFound))
	return mux
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
