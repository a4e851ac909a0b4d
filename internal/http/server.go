// Package http exposes the JSON API. Handlers stay thin: decode, call a
// service, encode. Identity arrives as the X-User-ID header; real
// authentication is expected to happen in front of this service.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/services"

	"github.com/shopspring/decimal"
)

// UserStore registers and resolves users.
type UserStore interface {
	CreateUser(ctx context.Context, username, email string) (core.User, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
}

// CategoryStore manages the owner's category list.
type CategoryStore interface {
	ListCategories(ctx context.Context, owner int64) ([]core.Category, error)
	ResolveOrCreateCategory(ctx context.Context, owner int64, name string, typ core.TxType) (core.Category, error)
	DeleteCategory(ctx context.Context, owner, id int64) error
}

// TransactionAPI is the transaction service surface the handlers use.
type TransactionAPI interface {
	Create(ctx context.Context, owner int64, input services.TxInput) (core.Transaction, error)
	Update(ctx context.Context, owner, id int64, input services.TxInput) (core.Transaction, error)
	Delete(ctx context.Context, owner int64, key string) error
	List(ctx context.Context, owner int64, typ core.TxType) ([]core.Transaction, error)
}

// BudgetAPI is the budget service surface the handlers use.
type BudgetAPI interface {
	Upsert(ctx context.Context, owner int64, categoryName, currency string, amount decimal.Decimal) (core.Budget, error)
	Delete(ctx context.Context, owner, id int64) error
	List(ctx context.Context, owner int64) ([]core.Budget, error)
	Statuses(ctx context.Context, owner int64) ([]core.BudgetStatus, error)
}

// ReportAPI serves the aggregated report views.
type ReportAPI interface {
	MonthlyTotals(ctx context.Context, owner int64) ([]services.MonthlySummary, error)
	CategoryBreakdown(ctx context.Context, owner int64) ([]services.CategoryTotal, error)
}

// Deps bundles everything the server needs.
type Deps struct {
	Users        UserStore
	Categories   CategoryStore
	Transactions TransactionAPI
	Budgets      BudgetAPI
	Reports      ReportAPI
}

type Server struct {
	http.Server
	deps        Deps
	rateLimiter *rateLimiter
}

var _ BudgetAPI = (*budget.Service)(nil)

// NewServer configures routes and middleware, returning a ready-to-run
// server. writeLimit is the per-IP write budget per minute.
func NewServer(addr string, deps Deps, writeLimit int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server:      http.Server{Addr: addr, Handler: mux},
		deps:        deps,
		rateLimiter: newRateLimiter(writeLimit),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /register", s.secured(s.handleRegister))

	mux.HandleFunc("GET /transactions", s.secured(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.secured(s.handleCreateTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.secured(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.secured(s.handleDeleteTransaction))

	mux.HandleFunc("GET /budgets", s.secured(s.handleListBudgets))
	mux.HandleFunc("POST /budgets", s.secured(s.handleUpsertBudget))
	mux.HandleFunc("DELETE /budgets/{id}", s.secured(s.handleDeleteBudget))
	mux.HandleFunc("GET /budgets/status", s.secured(s.handleBudgetStatus))

	mux.HandleFunc("GET /categories", s.secured(s.handleListCategories))
	mux.HandleFunc("POST /categories", s.secured(s.handleCreateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.secured(s.handleDeleteCategory))

	mux.HandleFunc("GET /reports/monthly", s.secured(s.handleMonthlyReport))
	mux.HandleFunc("GET /reports/categories", s.secured(s.handleCategoryReport))

	return s
}

// Shutdown stops the listener and the rate limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}

// secured adds security headers, write rate limiting and request logging.
func (s *Server) secured(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestID, "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter captures the status code for the completion log line.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
