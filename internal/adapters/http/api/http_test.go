package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/studentpay/internal/adapters/http/api"
	"github.com/okian/studentpay/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies records what the handlers pass through.
type mockDependencies struct {
	mu        sync.Mutex
	username  string
	pin       string
	class     string
	payment   *model.Payment
	login     model.LoginResult
	students  model.StudentsResult
	paymentRs model.PaymentResult
}

func (m *mockDependencies) Authenticate(_ context.Context, username, pin string) model.LoginResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.username, m.pin = username, pin
	return m.login
}

func (m *mockDependencies) ListStudents(_ context.Context, class string) model.StudentsResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.class = class
	return m.students
}

func (m *mockDependencies) RecordPayment(_ context.Context, p *model.Payment) model.PaymentResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payment = p
	return m.paymentRs
}

var fixedNow = func() time.Time { return time.Date(2024, time.May, 9, 12, 0, 0, 0, time.Local) }

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	opts = append([]api.Option{api.WithClock(fixedNow)}, opts...)
	mux := http.NewServeMux()
	api.NewServer(deps, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("Then the health endpoint should serve metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then wrong methods should be 404", func() {
			So(do(mux, http.MethodGet, "/api/login", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/api/students", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/api/payments", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/api/date", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLoginHandler(t *testing.T) {
	Convey("Given a login endpoint", t, func() {
		deps := &mockDependencies{login: model.LoginResult{Success: true, Class: "A"}}
		mux := newMux(deps)

		Convey("When posting credentials", func() {
			w := do(mux, http.MethodPost, "/api/login", `{"username":" bob ","pin":"42"}`)

			Convey("Then they should reach the client untouched", func() {
				So(deps.username, ShouldEqual, " bob ")
				So(deps.pin, ShouldEqual, "42")
			})

			Convey("And the result should be written as JSON with 200", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				So(decode(w), ShouldResemble, map[string]any{"success": true, "class": "A"})
			})
		})

		Convey("When the client reports a failure", func() {
			deps.login = model.LoginResult{Success: false, Message: "Invalid credentials"}
			w := do(mux, http.MethodPost, "/api/login", `{"username":"bob","pin":"1"}`)

			Convey("Then the failure should still be a 200 result", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w), ShouldResemble, map[string]any{"success": false, "message": "Invalid credentials"})
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/api/login", `username=bob`)

			Convey("Then it should be a 400 failure", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decode(w)
				So(body["success"], ShouldEqual, false)
				So(body["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the body has trailing data", func() {
			w := do(mux, http.MethodPost, "/api/login", `{"username":"a","pin":"b"} {}`)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestLoginRateLimit(t *testing.T) {
	Convey("Given a login endpoint with a burst of two", t, func() {
		deps := &mockDependencies{login: model.LoginResult{Success: true}}
		mux := newMux(deps, api.WithLoginRateLimit(0.001, 2))

		Convey("When three logins arrive at once", func() {
			codes := []int{}
			for i := 0; i < 3; i++ {
				codes = append(codes, do(mux, http.MethodPost, "/api/login", `{"username":"a","pin":"b"}`).Code)
			}

			Convey("Then the third should be refused", func() {
				So(codes, ShouldResemble, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests})
			})
		})

		Convey("When a refused request is inspected", func() {
			do(mux, http.MethodPost, "/api/login", `{}`)
			do(mux, http.MethodPost, "/api/login", `{}`)
			w := do(mux, http.MethodPost, "/api/login", `{}`)

			Convey("Then it should carry the failure shape and Retry-After", func() {
				So(w.Header().Get("Retry-After"), ShouldEqual, "1")
				So(decode(w), ShouldResemble, map[string]any{"success": false, "code": "rate_limited", "message": "Too many requests"})
			})
		})

		Convey("Then other endpoints should not be limited", func() {
			for i := 0; i < 5; i++ {
				So(do(mux, http.MethodGet, "/api/students", "").Code, ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestStudentsHandler(t *testing.T) {
	Convey("Given a students endpoint", t, func() {
		deps := &mockDependencies{students: model.StudentsResult{
			Success:  true,
			Students: []model.Student{{Name: "A", Class: "B", Fields: map[string]any{"paid": 100.0}}},
		}}
		mux := newMux(deps)

		Convey("When listing with a class filter", func() {
			w := do(mux, http.MethodGet, "/api/students?class=B", "")

			Convey("Then the filter should be forwarded", func() {
				So(deps.class, ShouldEqual, "B")
			})

			Convey("And students should be flattened back to JSON objects", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w), ShouldResemble, map[string]any{
					"success":  true,
					"students": []any{map[string]any{"name": "A", "class": "B", "paid": 100.0}},
				})
			})
		})

		Convey("When listing without a filter", func() {
			do(mux, http.MethodGet, "/api/students", "")

			Convey("Then an empty filter should be forwarded", func() {
				So(deps.class, ShouldEqual, "")
			})
		})

		Convey("When the list is empty", func() {
			deps.students = model.StudentsResult{Success: true, Students: []model.Student{}}
			w := do(mux, http.MethodGet, "/api/students", "")

			Convey("Then students should be an empty array", func() {
				So(w.Body.String(), ShouldContainSubstring, `"students":[]`)
			})
		})
	})
}

func TestPaymentsHandler(t *testing.T) {
	Convey("Given a payments endpoint", t, func() {
		deps := &mockDependencies{paymentRs: model.PaymentResult{Success: true}}
		mux := newMux(deps)

		Convey("When posting a form payment with a string amount and no date", func() {
			w := do(mux, http.MethodPost, "/api/payments", `{"name":"A","class":"B","amount":"250","mode":"upi"}`)

			Convey("Then the amount should be parsed and the date defaulted to today", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.payment, ShouldResemble, &model.Payment{Name: "A", Class: "B", Amount: 250, Mode: "upi", Date: "2024-05-09"})
				So(decode(w), ShouldResemble, map[string]any{"success": true})
			})
		})

		Convey("When the date is in another recognizable layout", func() {
			do(mux, http.MethodPost, "/api/payments", `{"name":"A","amount":1,"date":"2024/01/31"}`)

			Convey("Then it should be normalized", func() {
				So(deps.payment.Date, ShouldEqual, "2024-01-31")
			})
		})

		Convey("When the date is not recognizable", func() {
			do(mux, http.MethodPost, "/api/payments", `{"name":"A","amount":1,"date":"Jan 31st"}`)

			Convey("Then it should be forwarded verbatim", func() {
				So(deps.payment.Date, ShouldEqual, "Jan 31st")
			})
		})

		Convey("When the amount is not a number", func() {
			w := do(mux, http.MethodPost, "/api/payments", `{"name":"A","amount":"ten"}`)

			Convey("Then it should be a 400 and the client not called", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.payment, ShouldBeNil)
			})
		})

		Convey("When the client rejects the payment", func() {
			deps.paymentRs = model.PaymentResult{Success: false, Message: "Missing payment data"}
			w := do(mux, http.MethodPost, "/api/payments", `{"amount":5}`)

			Convey("Then the result should be relayed", func() {
				So(decode(w), ShouldResemble, map[string]any{"success": false, "message": "Missing payment data"})
			})
		})
	})
}

func TestDateHandler(t *testing.T) {
	Convey("Given a date endpoint", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then no argument should yield today", func() {
			w := do(mux, http.MethodGet, "/api/date", "")
			So(decode(w), ShouldResemble, map[string]any{"date": "2024-05-09"})
		})

		Convey("Then a timestamp should be trimmed to the day", func() {
			w := do(mux, http.MethodGet, "/api/date?d=2023-12-01T08:30", "")
			So(decode(w), ShouldResemble, map[string]any{"date": "2023-12-01"})
		})

		Convey("Then garbage should be a 400", func() {
			w := do(mux, http.MethodGet, "/api/date?d=soon", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}
