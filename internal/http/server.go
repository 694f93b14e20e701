package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/middleware/ratelimit"
	"budgetwise/internal/middleware/security"
	"budgetwise/internal/middleware/trace"
	"budgetwise/internal/services"
)

// UsernameHeader identifies the caller on every authenticated route.
const UsernameHeader = "X-Username"

// Dependencies are the services behind the API.
type Dependencies struct {
	Auth          *services.AuthService
	Transactions  *services.TransactionService
	Planner       *services.PlannerService
	Notifications *services.NotificationService
	Reports       *services.ReportService
	Trends        *services.TrendService
	// Ready reports whether backing stores are reachable.
	Ready func(ctx context.Context) error
}

type Options struct {
	Addr               string
	CORSOrigin         string
	RateLimitPerMinute int
	Logger             *log.Logger
}

// Server is the HTTP front of budgetwise.
type Server struct {
	http.Server

	deps     Dependencies
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, deps Dependencies) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		deps:     deps,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)

	mux.HandleFunc("GET /transactions", s.withUser(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.withUser(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.withUser(s.handleDeleteTransaction))

	mux.HandleFunc("GET /savings-goals", s.withUser(s.handleListGoals))
	mux.HandleFunc("POST /savings-goals", s.withUser(s.handleCreateGoal))
	mux.HandleFunc("GET /budgets", s.withUser(s.handleListBudgets))
	mux.HandleFunc("POST /budgets", s.withUser(s.handleCreateBudget))

	mux.HandleFunc("GET /achievements", s.withUser(s.handleAchievements))
	mux.HandleFunc("GET /notifications", s.withUser(s.handleListNotifications))
	mux.HandleFunc("POST /notifications/{id}/read", s.withUser(s.handleMarkNotificationRead))

	mux.HandleFunc("GET /transaction-report", s.withUser(s.handleReport))
	mux.HandleFunc("POST /chat", s.withUser(s.handleChat))
	mux.HandleFunc("GET /balance-trend", s.withUser(s.handleBalanceTrend))

	var handler http.Handler = mux
	handler = s.withSuspiciousLogging(handler)
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.WritesOnly, handleRateLimited)(handler)
	handler = security.CORS(opts.CORSOrigin)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = security.Recovery(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	s.limiter.Start()

	return s
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "HTTP server shutting down", "rate_limited", s.limiter.Rejected())
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type userHandler func(w http.ResponseWriter, r *http.Request, user core.User)

// withUser resolves the X-Username header and rejects unknown callers.
func (s *Server) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.deps.Auth.Authenticate(r.Context(), r.Header.Get(UsernameHeader))
		if err != nil {
			writeServiceError(w, r, err, "Unauthorized")
			return
		}
		ctx := log.WithLogger(r.Context(), log.FromContext(r.Context()).With(log.FieldUserID, user.ID))
		next(w, r.WithContext(ctx), user)
	}
}

func (s *Server) withSuspiciousLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).DebugContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
