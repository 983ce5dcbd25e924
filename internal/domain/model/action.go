// Package model contains the request and response shapes exchanged with the
// remote payments endpoint.
package model

// Action tags a request variant. The remote endpoint dispatches on it.
type Action string

// Known actions.
const (
	ActionLogin       Action = "login"
	ActionGetStudents Action = "getStudents"
	ActionAddPayment  Action = "addPayment"
)

// AllClasses is the class filter meaning "every class".
const AllClasses = "ALL"

// Request is any action-tagged payload that can be sent to the endpoint.
type Request interface {
	ActionName() Action
}

// LoginRequest carries credentials for the login action.
type LoginRequest struct {
	Action   Action `json:"action"`
	Username string `json:"username" validate:"required"`
	PIN      string `json:"pin" validate:"required"`
}

// NewLoginRequest builds a login payload. Inputs are used as given.
func NewLoginRequest(username, pin string) LoginRequest {
	return LoginRequest{Action: ActionLogin, Username: username, PIN: pin}
}

// ActionName implements Request.
func (LoginRequest) ActionName() Action { return ActionLogin }

// StudentsRequest asks for the students of a class, or of every class.
type StudentsRequest struct {
	Action Action `json:"action"`
	Class  string `json:"class"`
}

// NewStudentsRequest builds a getStudents payload; an empty filter becomes AllClasses.
func NewStudentsRequest(class string) StudentsRequest {
	if class == "" {
		class = AllClasses
	}
	return StudentsRequest{Action: ActionGetStudents, Class: class}
}

// ActionName implements Request.
func (StudentsRequest) ActionName() Action { return ActionGetStudents }

// PaymentRequest wraps a payment record for the addPayment action.
type PaymentRequest struct {
	Action  Action   `json:"action"`
	Payment *Payment `json:"payment"`
}

// NewPaymentRequest builds an addPayment payload.
func NewPaymentRequest(p *Payment) PaymentRequest {
	return PaymentRequest{Action: ActionAddPayment, Payment: p}
}

// ActionName implements Request.
func (PaymentRequest) ActionName() Action { return ActionAddPayment }
