package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marco/pdp-generator/internal/notes"
	"github.com/marco/pdp-generator/internal/pipeline"
	"github.com/marco/pdp-generator/internal/rag"
	"github.com/marco/pdp-generator/internal/registry"
	"github.com/marco/pdp-generator/internal/server/middleware"
	"github.com/marco/pdp-generator/internal/server/ratelimit"
	"github.com/marco/pdp-generator/internal/templates"
)

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	generator   *pipeline.Generator
	registry    registry.Store
	notes       *notes.FileStore
	rag         *rag.Client
	templates   *templates.Store
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
}

// Config holds server configuration. Generator and Templates are required;
// nil collaborators disable their routes with 503-style errors. An empty
// JWTSecret leaves mutating routes unauthenticated.
type Config struct {
	Port      int
	Generator *pipeline.Generator
	Registry  registry.Store
	Notes     *notes.FileStore
	RAG       *rag.Client
	Templates *templates.Store
	JWTSecret string
}

// New creates a new server instance.
func New(cfg Config) (*Server, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Templates == nil {
		return nil, fmt.Errorf("template store is required")
	}

	s := &Server{
		generator: cfg.Generator,
		registry:  cfg.Registry,
		notes:     cfg.Notes,
		rag:       cfg.RAG,
		templates: cfg.Templates,
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	if cfg.JWTSecret != "" {
		jwtService, err := NewJWTService(cfg.JWTSecret, DefaultTokenLifetime)
		if err != nil {
			return nil, fmt.Errorf("failed to create JWT service: %w", err)
		}
		s.jwtService = jwtService
	}

	mux := http.NewServeMux()

	// Generation
	mux.Handle("POST /generate", s.protect(http.HandlerFunc(s.handleGenerate)))
	mux.Handle("POST /generate/rag", s.protect(http.HandlerFunc(s.handleGenerateRAG)))

	// Retrieval proxy
	mux.HandleFunc("POST /rag/search", s.handleRAGSearch)
	mux.HandleFunc("GET /rag/health", s.handleRAGHealth)

	// Templates
	mux.HandleFunc("GET /templates", s.handleListTemplates)

	// Notes
	mux.Handle("POST /notes", s.protect(http.HandlerFunc(s.handleCreateNote)))
	mux.HandleFunc("GET /notes", s.handleListNotes)

	// Technician registry
	mux.HandleFunc("GET /technicians", s.handleListTechnicians)
	mux.HandleFunc("GET /technicians/expiring", s.handleExpiringCertifications)
	mux.HandleFunc("GET /technicians/export.csv", s.handleExportTechnicians)

	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		// Generation runs a LibreOffice subprocess, so writes stay generous.
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler exposes the configured handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.registry != nil {
		_ = s.registry.Close()
	}
	log.Println("Server stopped")
	return nil
}

// protect wraps mutating routes with bearer auth when a JWT secret is set.
func (s *Server) protect(next http.Handler) http.Handler {
	if s.jwtService == nil {
		return next
	}
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(next)
}

// withCORS adds CORS headers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		if !allowed {
			s.setRateLimitHeaders(w, info)
			s.rateLimitResponse(w, info)
			return
		}

		s.setRateLimitHeaders(w, info)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response, attaching validation details
// when the error carries them.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error()}
	if details := errorDetails(err); len(details) > 0 {
		body["details"] = details
	}
	s.jsonResponse(w, HTTPStatus(err), body)
}

// extractClientID extracts the client identifier (IP address) from the request.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}
	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
