package api

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body style="margin:0;background:#fff;text-align:center">
<img src="animation.png" alt="{{.Title}}">
</body>
</html>
`))

// Server serves a rendered animation for preview in a browser.
type Server struct {
	title string
	anim  []byte
	log   *slog.Logger
}

// NewServer creates a Server for an encoded APNG animation.
func NewServer(title string, anim []byte, log *slog.Logger) *Server {
	s := new(Server)
	s.title = title
	s.anim = anim
	s.log = log
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	return s
}

// Handler returns the routes of the preview.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/animation.png", s.handleAnimation).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage.Execute(w, struct{ Title string }{s.title}); err != nil {
		s.log.Error("render index", "error", err)
	}
}

func (s *Server) handleAnimation(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/apng")
	w.Header().Set("Content-Length", fmt.Sprint(len(s.anim)))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(s.anim); err != nil {
		s.log.Debug("write animation", "error", err)
	}
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("preview listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("preview server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("preview shutdown: %w", err)
		}
		return nil
	}
}
