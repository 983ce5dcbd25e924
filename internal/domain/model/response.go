package model

import (
	"bytes"
	"encoding/json"
)

// Envelope is the decoded reply of the endpoint. Success is required by
// contract; the other fields depend on the action that was sent.
type Envelope struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	Class    string    `json:"class,omitempty"`
	Students []Student `json:"students,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. Only success must have its
// documented type. Message and class are kept as text whatever JSON scalar
// carries them, and student entries that are not objects are dropped.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		Success  bool            `json:"success"`
		Message  json.RawMessage `json:"message"`
		Class    json.RawMessage `json:"class"`
		Students json.RawMessage `json:"students"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Envelope{
		Success:  raw.Success,
		Message:  rawText(raw.Message),
		Class:    rawText(raw.Class),
		Students: rawStudents(raw.Students),
	}
	return nil
}

// rawText returns a JSON string's value, or the literal text of any other
// value. null and absent values yield "".
func rawText(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	return string(data)
}

func rawStudents(data json.RawMessage) []Student {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return nil
	}
	out := make([]Student, 0, len(items))
	for _, item := range items {
		var st Student
		if err := json.Unmarshal(item, &st); err != nil {
			continue
		}
		out = append(out, st)
	}
	return out
}

// Failure builds an unsuccessful envelope with msg.
func Failure(msg string) Envelope {
	return Envelope{Success: false, Message: msg}
}

// LoginResult is returned by the login operation.
type LoginResult struct {
	Success bool   `json:"success"`
	Class   string `json:"class,omitempty"`
	Message string `json:"message,omitempty"`
}

// StudentsResult is returned by the student listing operation. On success
// Students is never nil.
type StudentsResult struct {
	Success  bool      `json:"success"`
	Students []Student `json:"students"`
	Message  string    `json:"message,omitempty"`
}

// PaymentResult is returned by the payment operation.
type PaymentResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
