package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/middleware/ratelimit"
	"fluxo/internal/middleware/security"
	"fluxo/internal/middleware/trace"
	"fluxo/internal/services"
	"fluxo/internal/storage"
)

// Service ports the handlers depend on.
type (
	EntryService interface {
		Create(ctx context.Context, ownerID string, in services.EntryInput) (core.LedgerEntry, error)
		Update(ctx context.Context, ownerID, id string, in services.EntryInput) (core.LedgerEntry, error)
		Delete(ctx context.Context, ownerID, id string) error
		List(ctx context.Context, ownerID string, f storage.EntryFilter) ([]core.LedgerEntry, error)
	}

	CategoryService interface {
		List(ctx context.Context, ownerID string) ([]core.Category, error)
		Create(ctx context.Context, ownerID string, in services.CategoryInput) (core.Category, error)
		Update(ctx context.Context, ownerID, id string, in services.CategoryInput) (core.Category, error)
		SetLimit(ctx context.Context, ownerID, id string, limit *core.Money) (core.Category, error)
		Deactivate(ctx context.Context, ownerID, id string) error
	}

	CardService interface {
		List(ctx context.Context, ownerID string) ([]core.Card, error)
		Create(ctx context.Context, ownerID string, in services.CardInput) (core.Card, error)
		Update(ctx context.Context, ownerID, id string, in services.CardInput) (core.Card, error)
		SetLimit(ctx context.Context, ownerID, id string, limit core.Money) (core.Card, error)
		Delete(ctx context.Context, ownerID, id string) error
	}

	RuleService interface {
		List(ctx context.Context, ownerID string) ([]services.RuleView, error)
		Create(ctx context.Context, ownerID string, in services.RuleInput) (core.RecurrenceRule, error)
		Update(ctx context.Context, ownerID, id string, in services.RuleInput) (core.RecurrenceRule, error)
		Deactivate(ctx context.Context, ownerID, id string) error
	}

	DashboardService interface {
		Stats(ctx context.Context, ownerID string, r core.DateRange) (core.Stats, error)
		SpendingByCategory(ctx context.Context, ownerID string, r core.DateRange) ([]core.CategoryTotal, error)
		Ranking(ctx context.Context, ownerID string, r core.DateRange, n int) ([]core.CategoryTotal, error)
		CardSpending(ctx context.Context, ownerID string, today core.Date) ([]core.CardSpending, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Services bundles what the API serves.
type Services struct {
	Entries    EntryService
	Categories CategoryService
	Cards      CardService
	Rules      RuleService
	Dashboard  DashboardService
	Sweeper    services.Sweeper
	DB         Pinger
}

type Config struct {
	Addr           string
	DefaultOwnerID string
	// Location decides "today" for range filters and card cycles.
	Location     *time.Location
	RateLimitRPS int
	Logger       *log.Logger
}

type Server struct {
	http.Server
	svc            Services
	defaultOwnerID string
	loc            *time.Location
	now            func() time.Time
	logger         *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, svc Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	detector := security.NewDetector()

	s := &Server{
		svc:            svc,
		defaultOwnerID: cfg.DefaultOwnerID,
		loc:            loc,
		now:            time.Now,
		logger:         logger.WithComponent(log.ComponentHTTP),
		limiter:        ratelimit.NewLimiter(ratelimit.PerSecond(cfg.RateLimitRPS)),
		detector:       detector,
		tracer:         trace.NewMiddleware(logger, detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, nil)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = detector.Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metricsz", s.handleMetrics)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("PUT /api/categories/{id}/limit", s.handleSetCategoryLimit)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeactivateCategory)

	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("PUT /api/entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)

	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("POST /api/cards", s.handleCreateCard)
	mux.HandleFunc("PUT /api/cards/{id}", s.handleUpdateCard)
	mux.HandleFunc("PUT /api/cards/{id}/limit", s.handleSetCardLimit)
	mux.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard)

	mux.HandleFunc("GET /api/recurring", s.handleListRules)
	mux.HandleFunc("POST /api/recurring", s.handleCreateRule)
	mux.HandleFunc("POST /api/recurring/sync", s.handleSyncRecurring)
	mux.HandleFunc("POST /api/recurring/process", s.handleProcessRecurring)
	mux.HandleFunc("PUT /api/recurring/{id}", s.handleUpdateRule)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.handleDeactivateRule)

	mux.HandleFunc("GET /api/dashboard/stats", s.handleDashboardStats)
	mux.HandleFunc("GET /api/dashboard/categories", s.handleDashboardCategories)
	mux.HandleFunc("GET /api/dashboard/ranking", s.handleDashboardRanking)
	mux.HandleFunc("GET /api/dashboard/cards", s.handleDashboardCards)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now(), s.loc)
}
