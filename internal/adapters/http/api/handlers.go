package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/studentpay/internal/domain/dateutil"
	"github.com/okian/studentpay/internal/domain/model"
	"github.com/okian/studentpay/pkg/logger"
)

const maxRequestBytes = 64 << 10

var errTrailingData = errors.New("unexpected data after JSON body")

// LoginHandler handles POST /api/login.
type LoginHandler struct {
	deps Dependencies
}

// NewLoginHandler creates a new login handler.
func NewLoginHandler(deps Dependencies) *LoginHandler {
	return &LoginHandler{deps: deps}
}

type loginRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

// HandleLogin handles POST /api/login requests.
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Authenticate(r.Context(), req.Username, req.PIN))
}

// StudentsHandler handles GET /api/students.
type StudentsHandler struct {
	deps Dependencies
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(deps Dependencies) *StudentsHandler {
	return &StudentsHandler{deps: deps}
}

// HandleListStudents handles GET /api/students?class=X requests.
func (h *StudentsHandler) HandleListStudents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	class := strings.TrimSpace(r.URL.Query().Get("class"))
	writeJSON(w, http.StatusOK, h.deps.ListStudents(r.Context(), class))
}

// PaymentsHandler handles POST /api/payments.
type PaymentsHandler struct {
	deps   Dependencies
	now    func() time.Time
	logger logger.Logger
}

// NewPaymentsHandler creates a new payments handler.
func NewPaymentsHandler(deps Dependencies, now func() time.Time, l logger.Logger) *PaymentsHandler {
	return &PaymentsHandler{deps: deps, now: now, logger: l}
}

// HandleRecordPayment handles POST /api/payments requests. An empty date
// becomes today; a recognizable one is normalized to YYYY-MM-DD; anything
// else is forwarded untouched.
func (h *PaymentsHandler) HandleRecordPayment(w http.ResponseWriter, r *http.Request) {
	const op = "api.record_payment"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var p model.Payment
	if err := decodeBody(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if d, err := dateutil.Normalize(p.Date, h.now); err == nil {
		p.Date = d
	} else {
		h.logger.Debug(r.Context(), "forwarding unrecognized payment date", logger.String("date", p.Date))
	}
	writeJSON(w, http.StatusOK, h.deps.RecordPayment(r.Context(), &p))
}

// DateHandler handles GET /api/date.
type DateHandler struct {
	now func() time.Time
}

// NewDateHandler creates a new date handler.
func NewDateHandler(now func() time.Time) *DateHandler {
	return &DateHandler{now: now}
}

type dateResponse struct {
	Date string `json:"date"`
}

// HandleDate handles GET /api/date?d=... requests, formatting d (or today)
// for a date input.
func (h *DateHandler) HandleDate(w http.ResponseWriter, r *http.Request) {
	const op = "api.date"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	d, err := dateutil.Normalize(r.URL.Query().Get("d"), h.now)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, dateResponse{Date: d})
}
