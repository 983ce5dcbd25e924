package remote

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/studentpay/internal/domain/model"
	"github.com/okian/studentpay/pkg/logger"
)

var errNonFiniteAmount = errors.New("amount is not a finite number")

// Authenticate checks a username and PIN. Both are trimmed; if either is
// empty the endpoint is not called.
func (c *Client) Authenticate(ctx context.Context, username, pin string) model.LoginResult {
	req := model.NewLoginRequest(strings.TrimSpace(username), strings.TrimSpace(pin))
	if err := model.Validate(req); err != nil {
		c.rejectLocally(ctx, model.ActionLogin, err)
		return model.LoginResult{Success: false, Message: MsgCredentialsMissing}
	}

	env := c.Call(ctx, req)
	if !env.Success {
		return model.LoginResult{Success: false, Message: messageOr(env, MsgInvalidCredentials)}
	}
	return model.LoginResult{Success: true, Class: env.Class}
}

// ListStudents fetches the students of class; an empty class means all.
func (c *Client) ListStudents(ctx context.Context, class string) model.StudentsResult {
	env := c.Call(ctx, model.NewStudentsRequest(class))
	if !env.Success {
		return model.StudentsResult{Success: false, Message: messageOr(env, MsgFetchStudents)}
	}
	students := env.Students
	if students == nil {
		students = []model.Student{}
	}
	return model.StudentsResult{Success: true, Students: students}
}

// RecordPayment submits a payment. The record must carry a name and a
// non-zero amount; otherwise the endpoint is not called.
func (c *Client) RecordPayment(ctx context.Context, p *model.Payment) model.PaymentResult {
	if p == nil {
		c.rejectLocally(ctx, model.ActionAddPayment, nil)
		return model.PaymentResult{Success: false, Message: MsgPaymentMissing}
	}
	if err := model.Validate(p); err != nil {
		c.rejectLocally(ctx, model.ActionAddPayment, err)
		return model.PaymentResult{Success: false, Message: MsgPaymentMissing}
	}
	if !p.Amount.Finite() {
		c.rejectLocally(ctx, model.ActionAddPayment, errNonFiniteAmount)
		return model.PaymentResult{Success: false, Message: MsgPaymentMissing}
	}

	env := c.Call(ctx, model.NewPaymentRequest(p))
	if !env.Success {
		return model.PaymentResult{Success: false, Message: messageOr(env, MsgAddPayment)}
	}
	return model.PaymentResult{Success: true}
}

func (c *Client) rejectLocally(ctx context.Context, action model.Action, err error) {
	c.recorder.RecordValidationFailure(string(action))
	fields := []logger.Field{logger.String("action", string(action))}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	c.logger.Debug(ctx, "request rejected before sending", fields...)
}

func messageOr(env model.Envelope, fallback string) string {
	if env.Message != "" {
		return env.Message
	}
	return fallback
}
