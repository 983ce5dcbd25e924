package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Payment is a caller-supplied payment record. Only Name and Amount are
// checked; Class, Mode and Date are passed to the endpoint verbatim.
type Payment struct {
	Name   string `json:"name" validate:"required"`
	Class  string `json:"class,omitempty"`
	Amount Amount `json:"amount" validate:"required"`
	Mode   string `json:"mode,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Amount is a payment amount. It decodes from a JSON number or from a
// numeric string, since HTML forms post numbers as text.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("amount %q is not a number", s)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("amount must be a number: %w", err)
	}
	*a = Amount(f)
	return nil
}

// Finite reports whether the amount is neither NaN nor infinite.
func (a Amount) Finite() bool {
	f := float64(a)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// String formats the amount without trailing zeros.
func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}
