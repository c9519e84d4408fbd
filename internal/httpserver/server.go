// Package httpserver is the JSON front door over the streetspeak service.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/slanglearn/streetspeak/pkg/streetspeak"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/internalerr"
)

// Server exposes the pipeline over HTTP.
type Server struct {
	svc *streetspeak.Service
	log logrus.FieldLogger
}

func New(svc *streetspeak.Service, log logrus.FieldLogger) *Server {
	return &Server{svc: svc, log: log}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Post("/videos", s.handleVideos)
		api.Post("/refresh", s.handleRefresh)
		api.Post("/discover", s.handleDiscover)

		api.Get("/slang", s.handleSlangList)
		api.Get("/slang/{term}", s.handleSlangGet)
		api.Delete("/slang/{term}", s.handleSlangDelete)

		api.Get("/stats", s.handleStats)
		api.Get("/cache/stats", s.handleCacheStats)
		api.Post("/cache/evict", s.handleCacheEvict)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"slang_terms_loaded": len(s.svc.Terms()),
	})
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	var req streetspeak.Request
	if !s.decode(w, r, &req) {
		return
	}
	videos, fromCache, err := s.svc.Videos(r.Context(), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	found := make(map[string]struct{})
	for _, v := range videos {
		for _, t := range v.UniqueTerms() {
			found[t] = struct{}{}
		}
	}
	s.respond(w, http.StatusOK, map[string]any{
		"videos":            videos,
		"count":             len(videos),
		"from_cache":        fromCache,
		"slang_terms_found": len(found),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req streetspeak.Request
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.svc.Refresh(r.Context(), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, res)
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topics []string `json:"topics"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	terms, analyzed, err := s.svc.Discover(r.Context(), req.Topics)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"discovered":        len(terms),
		"terms":             terms,
		"comments_analyzed": analyzed,
	})
}

func (s *Server) handleSlangList(w http.ResponseWriter, r *http.Request) {
	terms := s.svc.Terms()
	s.respond(w, http.StatusOK, map[string]any{
		"total_terms": len(terms),
		"terms":       terms,
	})
}

func (s *Server) handleSlangGet(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "term")
	info, ok := s.svc.Lookup(term)
	if !ok {
		s.respondDetail(w, http.StatusNotFound, "slang term '"+term+"' not found")
		return
	}
	s.respond(w, http.StatusOK, info)
}

func (s *Server) handleSlangDelete(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "term")
	if err := s.svc.DeleteTerm(term); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"message": "deleted '" + term + "'"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stats(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, st)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.CacheStats(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, st)
}

func (s *Server) handleCacheEvict(w http.ResponseWriter, r *http.Request) {
	removed, err := s.svc.EvictExpiredCache(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"removed": removed})
}

// decode reads a JSON body; an empty body yields the zero request so every
// endpoint works with defaults.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		s.respondDetail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("response encode failed")
	}
}

func (s *Server) respondDetail(w http.ResponseWriter, status int, detail string) {
	s.respond(w, status, map[string]string{"detail": detail})
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, internalerr.ErrNotFound):
		s.respondDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, internalerr.ErrInvalidInput):
		s.respondDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, internalerr.ErrUnavailable):
		s.respondDetail(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.WithError(err).Error("request failed")
		s.respondDetail(w, http.StatusInternalServerError, err.Error())
	}
}
