package remote_test

import (
	"context"
	"math"
	"net/http"
	"testing"

	"github.com/okian/studentpay/internal/domain/model"
	"github.com/okian/studentpay/internal/remote"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAuthenticate(t *testing.T) {
	Convey("Given a client against a fake endpoint", t, func() {
		f := &fakeEndpoint{body: `{"success":true,"class":"B"}`}
		c, rec, done := newTestClient(f)
		defer done()
		ctx := context.Background()

		Convey("When credentials are padded with spaces", func() {
			res := c.Authenticate(ctx, "  alice ", " 1234\t")

			Convey("Then exactly one trimmed login call should be sent", func() {
				So(f.calls(), ShouldEqual, 1)
				So(f.last(), ShouldResemble, map[string]any{"action": "login", "username": "alice", "pin": "1234"})
			})

			Convey("And the remote class should be returned", func() {
				So(res, ShouldResemble, model.LoginResult{Success: true, Class: "B"})
			})
		})

		Convey("When either credential is blank", func() {
			cases := [][2]string{{"", "x"}, {"  ", "x"}, {"x", ""}, {"x", "   "}}
			for _, in := range cases {
				res := c.Authenticate(ctx, in[0], in[1])
				So(res, ShouldResemble, model.LoginResult{Success: false, Message: remote.MsgCredentialsMissing})
			}

			Convey("Then no network call should be made", func() {
				So(f.calls(), ShouldEqual, 0)
				So(len(rec.validation), ShouldEqual, len(cases))
			})
		})

		Convey("When the endpoint rejects without a message", func() {
			f.body = `{"success":false}`
			res := c.Authenticate(ctx, "alice", "0000")

			Convey("Then the default message should be used", func() {
				So(res, ShouldResemble, model.LoginResult{Success: false, Message: remote.MsgInvalidCredentials})
			})
		})

		Convey("When the endpoint answers null", func() {
			f.body = `null`
			res := c.Authenticate(ctx, "alice", "0000")

			Convey("Then it should be treated as a rejection", func() {
				So(res.Message, ShouldEqual, remote.MsgInvalidCredentials)
			})
		})

		Convey("When the endpoint sends the class as a number", func() {
			f.body = `{"success":true,"class":5}`
			res := c.Authenticate(ctx, "alice", "1234")

			Convey("Then its text should be passed through", func() {
				So(res, ShouldResemble, model.LoginResult{Success: true, Class: "5"})
			})
		})

		Convey("When the endpoint accepts without a class", func() {
			f.body = `{"success":true}`
			res := c.Authenticate(ctx, "alice", "0000")

			Convey("Then success should be returned with an empty class", func() {
				So(res, ShouldResemble, model.LoginResult{Success: true})
			})
		})
	})
}

func TestListStudents(t *testing.T) {
	Convey("Given a client against a fake endpoint", t, func() {
		f := &fakeEndpoint{body: `{"success":true,"students":[{"name":"A","class":"B","paid":10}]}`}
		c, _, done := newTestClient(f)
		defer done()
		ctx := context.Background()

		Convey("When called without a filter", func() {
			res := c.ListStudents(ctx, "")

			Convey("Then class ALL should be sent", func() {
				So(f.last(), ShouldResemble, map[string]any{"action": "getStudents", "class": "ALL"})
			})

			Convey("And the students should be decoded", func() {
				So(res.Success, ShouldBeTrue)
				So(len(res.Students), ShouldEqual, 1)
				So(res.Students[0].Name, ShouldEqual, "A")
				So(res.Students[0].Fields["paid"], ShouldEqual, 10.0)
			})
		})

		Convey("When called with a filter", func() {
			c.ListStudents(ctx, "B")

			Convey("Then the filter should be sent", func() {
				So(f.last()["class"], ShouldEqual, "B")
			})
		})

		Convey("When some student entries are not objects", func() {
			f.body = `{"success":true,"students":[{"name":"A","class":7},"B",null,{"name":"C"}]}`
			res := c.ListStudents(ctx, "")

			Convey("Then the object entries should be kept and the rest skipped", func() {
				So(res.Success, ShouldBeTrue)
				So(len(res.Students), ShouldEqual, 2)
				So(res.Students[0].Name, ShouldEqual, "A")
				So(res.Students[0].Class, ShouldEqual, "7")
				So(res.Students[1].Name, ShouldEqual, "C")
			})
		})

		Convey("When a successful reply has no students field", func() {
			f.body = `{"success":true}`
			res := c.ListStudents(ctx, "")

			Convey("Then an empty, non-nil list should be returned", func() {
				So(res.Success, ShouldBeTrue)
				So(res.Students, ShouldNotBeNil)
				So(res.Students, ShouldBeEmpty)
			})
		})

		Convey("When the endpoint fails", func() {
			f.body = `{"success":false}`
			res := c.ListStudents(ctx, "")

			Convey("Then the default message should be used", func() {
				So(res.Success, ShouldBeFalse)
				So(res.Message, ShouldEqual, remote.MsgFetchStudents)
				So(res.Students, ShouldBeNil)
			})
		})

		Convey("When the endpoint answers HTTP 503", func() {
			f.status = http.StatusServiceUnavailable
			res := c.ListStudents(ctx, "")

			Convey("Then the network error should be surfaced", func() {
				So(res.Message, ShouldEqual, "Network error: 503 Service Unavailable")
			})
		})
	})
}

func TestRecordPayment(t *testing.T) {
	Convey("Given a client against an endpoint that echoes success", t, func() {
		f := &fakeEndpoint{body: `{"success":true}`}
		c, rec, done := newTestClient(f)
		defer done()
		ctx := context.Background()

		Convey("When the record is complete", func() {
			p := &model.Payment{Name: "A", Amount: 10, Class: "B", Mode: "cash", Date: "2024-01-01"}
			res := c.RecordPayment(ctx, p)

			Convey("Then success should be returned", func() {
				So(res, ShouldResemble, model.PaymentResult{Success: true})
			})

			Convey("And the record should be sent verbatim under payment", func() {
				So(f.last(), ShouldResemble, map[string]any{
					"action": "addPayment",
					"payment": map[string]any{
						"name": "A", "class": "B", "amount": 10.0, "mode": "cash", "date": "2024-01-01",
					},
				})
			})
		})

		Convey("When required fields are missing", func() {
			missing := []*model.Payment{nil, {Amount: 10}, {Name: "A"}}
			for _, p := range missing {
				So(c.RecordPayment(ctx, p), ShouldResemble, model.PaymentResult{Success: false, Message: remote.MsgPaymentMissing})
			}

			Convey("Then no network call should be made", func() {
				So(f.calls(), ShouldEqual, 0)
				So(rec.validation, ShouldResemble, []string{"addPayment", "addPayment", "addPayment"})
			})
		})

		Convey("When the amount is not a finite number", func() {
			for _, a := range []float64{math.NaN(), math.Inf(1)} {
				res := c.RecordPayment(ctx, &model.Payment{Name: "A", Amount: model.Amount(a)})
				So(res, ShouldResemble, model.PaymentResult{Success: false, Message: remote.MsgPaymentMissing})
			}

			Convey("Then no network call should be made", func() {
				So(f.calls(), ShouldEqual, 0)
				So(len(rec.validation), ShouldEqual, 2)
			})
		})

		Convey("When the endpoint rejects the payment", func() {
			f.body = `{"success":false,"message":"Duplicate entry"}`
			res := c.RecordPayment(ctx, &model.Payment{Name: "A", Amount: 5})

			Convey("Then the remote message should be returned", func() {
				So(res, ShouldResemble, model.PaymentResult{Success: false, Message: "Duplicate entry"})
			})
		})

		Convey("When the endpoint rejects without a message", func() {
			f.body = `{"success":false}`
			res := c.RecordPayment(ctx, &model.Payment{Name: "A", Amount: 5})

			Convey("Then the default message should be returned", func() {
				So(res.Message, ShouldEqual, remote.MsgAddPayment)
			})
		})
	})
}
