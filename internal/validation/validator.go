// Package validation checks outgoing payloads against a fixed table of
// per-field constraints before anything is sent.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Constraint names reported in FieldError.
const (
	ConstraintMaxLength = "max"
	ConstraintOneOf     = "in"
)

// FieldError reports the first constraint a payload field violated.
type FieldError struct {
	Field      string
	Constraint string
	Value      any
	MaxLength  int
	Allowed    []string
}

func (e *FieldError) Error() string {
	switch e.Constraint {
	case ConstraintMaxLength:
		return fmt.Sprintf("field %s must not be longer than %d characters", e.Field, e.MaxLength)
	case ConstraintOneOf:
		return fmt.Sprintf("field %s must be one of %s, got %v", e.Field, strings.Join(e.Allowed, ","), e.Value)
	}
	return fmt.Sprintf("field %s is invalid", e.Field)
}

// Validate checks every top-level field of payload that has a rule. Fields
// are visited in sorted order so the reported violation is deterministic.
// Length is counted in Unicode code points.
func Validate(payload map[string]any) error {
	fields := make([]string, 0, len(payload))
	for field := range payload {
		if _, ok := rules[field]; ok {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)

	for _, field := range fields {
		if err := check(field, payload[field], rules[field]); err != nil {
			return err
		}
	}
	return nil
}

func check(field string, value any, rule Rule) error {
	text, scalar := canonical(value)

	if rule.MaxLength > 0 {
		if !scalar || utf8.RuneCountInString(text) > rule.MaxLength {
			return &FieldError{Field: field, Constraint: ConstraintMaxLength, Value: value, MaxLength: rule.MaxLength}
		}
	}
	if rule.OneOf != nil {
		if !scalar || !slices.Contains(rule.OneOf, numericForm(text)) {
			return &FieldError{Field: field, Constraint: ConstraintOneOf, Value: value, Allowed: rule.OneOf}
		}
	}
	return nil
}

// numericForm rewrites a numeric string in its shortest decimal form so "1.0",
// json.Number("1.0") and 1 all compare equal against an enumerated set.
// Non-numeric text is returned unchanged.
func numericForm(text string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return text
	}
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// canonical renders a scalar the way it would appear in the JSON body.
func canonical(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		if v {
			return "1", true
		}
		return "", true
	case int:
		return strconv.Itoa(v), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}
