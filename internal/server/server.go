package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/announce-flow/internal/webpush"
)

const shutdownTimeout = 5 * time.Second

func (s *implServer) routes() {
	s.mux.Handle("GET /ws", s.hub)
	s.mux.HandleFunc("GET /api/streams", s.listStreams)
	s.mux.Handle("GET /api/streams/", http.StripPrefix("/api/streams/", s.artifacts()))
	s.mux.HandleFunc("GET /api/sessions/{id}", s.getSession)
	if s.opts.Push != nil {
		s.mux.Handle("GET /api/push/key", webpush.KeyHandler(s.opts.VAPID))
		s.mux.Handle("POST /api/push/subscribe", webpush.SubscribeHandler(s.opts.Push))
	}
}

func (s *implServer) Handler() http.Handler {
	return s.mux
}

func (s *implServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening on %s", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// hijacked websocket connections are not tracked by Shutdown
	s.logger.Info(ctx, "Closing %d viewer connections", s.hub.Count())
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// listStreams returns the latest finished session ids, newest first
func (s *implServer) listStreams(w http.ResponseWriter, r *http.Request) {
	current, _ := s.opts.Current()
	entries, err := s.catalog.Recent(r.Context(), recentLimit, current)
	if err != nil {
		s.logger.Error(r.Context(), "List streams: %v", err)
		http.Error(w, "could not list streams", http.StatusInternalServerError)
		return
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ids)
}

// getSession returns the catalog entry of one session in any state
func (s *implServer) getSession(w http.ResponseWriter, r *http.Request) {
	entry, err := s.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error(r.Context(), "Get session %s: %v", r.PathValue("id"), err)
		http.Error(w, "could not load session", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

// artifacts serves session files. The live session's files change while it
// records; everything else is immutable once written.
func (s *implServer) artifacts() http.Handler {
	files := http.FileServer(http.Dir(s.opts.OutputDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		if name == "" || strings.HasSuffix(name, "/") {
			http.NotFound(w, r)
			return
		}
		if current, ok := s.opts.Current(); ok && streamID(name) == current {
			w.Header().Set("Cache-Control", "no-store")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		files.ServeHTTP(w, r)
	})
}

// streamID strips every extension, so "<id>.summary.txt" maps to "<id>"
func streamID(name string) string {
	base := filepath.Base(name)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}
