// Package api declares HTTP contracts and route registration helpers for
// the web pages of the payments site.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/studentpay/internal/domain/model"
	"github.com/okian/studentpay/pkg/logger"
)

// Dependencies required by HTTP handlers. *remote.Client satisfies it.
type Dependencies interface {
	Authenticate(ctx context.Context, username, pin string) model.LoginResult
	ListStudents(ctx context.Context, class string) model.StudentsResult
	RecordPayment(ctx context.Context, p *model.Payment) model.PaymentResult
}

// Server wires HTTP routes for the pages.
type Server struct {
	healthHandler   *HealthHandler
	loginHandler    *LoginHandler
	studentsHandler *StudentsHandler
	paymentsHandler *PaymentsHandler
	dateHandler     *DateHandler

	loginRate  float64
	loginBurst int
	now        func() time.Time
	logger     logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLoginRateLimit sets the token bucket for /api/login.
func WithLoginRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond > 0 && burst > 0 {
			s.loginRate = perSecond
			s.loginBurst = burst
		}
	}
}

// WithClock overrides the clock used to default payment dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		loginRate:  2,
		loginBurst: 5,
		now:        time.Now,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.loginHandler = NewLoginHandler(deps)
	s.studentsHandler = NewStudentsHandler(deps)
	s.paymentsHandler = NewPaymentsHandler(deps, s.now, s.logger)
	s.dateHandler = NewDateHandler(s.now)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	loginLimit := RateLimitMiddleware(s.loginRate, s.loginBurst, "login")

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/api/login", MetricsMiddleware(loginLimit(s.loginHandler.HandleLogin), "login"))
	mux.HandleFunc("/api/students", MetricsMiddleware(s.studentsHandler.HandleListStudents, "students"))
	mux.HandleFunc("/api/payments", MetricsMiddleware(s.paymentsHandler.HandleRecordPayment, "payments"))
	mux.HandleFunc("/api/date", MetricsMiddleware(s.dateHandler.HandleDate, "date"))
}

// failureResponse is the body written when a request never reached the
// remote endpoint. It has the same shape as the operation results.
type failureResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, failureResponse{Success: false, Code: code, Message: msg})
}

// decodeBody decodes a JSON request body into v, rejecting unknown trailing data.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}
