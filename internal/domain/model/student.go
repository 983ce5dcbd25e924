package model

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"
)

var errNotStudent = errors.New("student entry is not a JSON object")

// Student is one row of the remote student list. Name and Class are typed;
// every other column the endpoint returns is kept in Fields so nothing is
// lost when the list is relayed to a page or exported.
type Student struct {
	Name   string
	Class  string
	Fields map[string]any
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Student) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errNotStudent
	}
	*s = Student{}
	if v, ok := scalarText(raw["name"]); ok {
		s.Name = v
		delete(raw, "name")
	}
	if v, ok := scalarText(raw["class"]); ok {
		s.Class = v
		delete(raw, "class")
	}
	if len(raw) > 0 {
		s.Fields = raw
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Student) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Fields)+2)
	for k, v := range s.Fields {
		out[k] = v
	}
	if s.Name != "" {
		out["name"] = s.Name
	}
	if s.Class != "" {
		out["class"] = s.Class
	}
	return json.Marshal(out)
}

// ExtraKeys returns the keys of Fields in sorted order.
func (s Student) ExtraKeys() []string {
	keys := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// scalarText renders sheet-cell values (strings, numbers, booleans) as text.
func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
