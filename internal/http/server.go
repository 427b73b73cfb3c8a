// Package http serves the server-rendered expense pages, the JSON API and
// the CSV export.
package http

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
	"expenses/internal/storage"
	appweb "expenses/web"
)

// Routes.
const (
	routeExpenseList   = "/expense/list/"
	routeCategoryList  = "/category/list/"
	routeExpenseExport = "/expense/export.csv"
)

// Options configures a Server.
type Options struct {
	Store storage.Store
	// Events may be nil.
	Events             services.EventPublisher
	RateLimitPerMinute int
	Logger             *slog.Logger
}

type Server struct {
	http.Server
	store      storage.Store
	expenses   *services.ExpenseService
	categories *services.CategoryService
	pages      *renderer
	limiter    *ratelimit.Limiter
	tracer     *trace.Middleware
	logger     *slog.Logger
	started    time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = log.WithComponent(logger, log.ComponentHTTP)

	pages, err := newRenderer(appweb.TemplatesFS)
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	ips := security.NewIPResolver()
	s := &Server{
		store:      opts.Store,
		expenses:   services.NewExpenseService(opts.Store, opts.Events),
		categories: services.NewCategoryService(opts.Store, opts.Events),
		pages:      pages,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:     trace.NewMiddleware(logger, ips.ClientIP),
		logger:     logger,
		started:    time.Now(),
	}

	mux := http.NewServeMux()
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServerFS(static))))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	mux.HandleFunc("GET /expense/list/{$}", s.handleExpenseList)
	mux.HandleFunc("GET "+routeExpenseExport, s.handleExpenseExport)
	mux.HandleFunc("GET /expense/create/{$}", s.handleExpenseCreateForm)
	mux.HandleFunc("POST /expense/create/{$}", s.handleExpenseCreate)
	mux.HandleFunc("GET /expense/{id}/edit/{$}", s.handleExpenseEditForm)
	mux.HandleFunc("POST /expense/{id}/edit/{$}", s.handleExpenseEdit)
	mux.HandleFunc("GET /expense/{id}/delete/{$}", s.handleExpenseDeleteConfirm)
	mux.HandleFunc("POST /expense/{id}/delete/{$}", s.handleExpenseDelete)

	mux.HandleFunc("GET /category/list/{$}", s.handleCategoryList)
	mux.HandleFunc("GET /category/create/{$}", s.handleCategoryCreateForm)
	mux.HandleFunc("POST /category/create/{$}", s.handleCategoryCreate)
	mux.HandleFunc("GET /category/{id}/{$}", s.handleCategoryDetail)
	mux.HandleFunc("GET /category/{id}/edit/{$}", s.handleCategoryEditForm)
	mux.HandleFunc("POST /category/{id}/edit/{$}", s.handleCategoryEdit)
	mux.HandleFunc("GET /category/{id}/delete/{$}", s.handleCategoryDeleteConfirm)
	mux.HandleFunc("POST /category/{id}/delete/{$}", s.handleCategoryDelete)

	mux.HandleFunc("GET /api/expenses", s.handleAPIExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleAPIExpenseCreate)
	mux.HandleFunc("GET /api/categories", s.handleAPICategories)
	mux.HandleFunc("GET /api/categories/{id}", s.handleAPICategory)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(ips.ClientIP, s.handleRateLimited)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	NewResponse().Redirect(routeExpenseList).Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"requests":  s.tracer.Metrics(),
	}).Write(w)
}

// handleReady reports whether the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"store": "ok"}
	if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	NewResponse().Status(code).JSON(map[string]any{
		"status":         status,
		"checks":         checks,
		"active_clients": s.limiter.ActiveClients(),
	}).Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	s.renderError(w, r, http.StatusTooManyRequests, "Too many requests. Please try again later.")
}
