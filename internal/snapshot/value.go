package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Number is the set of numeric types a Value can carry.
type Number interface {
	~int64 | ~float64
}

type valueState uint8

const (
	stateUnset valueState = iota
	stateNotAvailable
	stateAvailable
)

// legacyNotAvailable is how older snapshot files spelled a missing delta.
const legacyNotAvailable = "N/A"

// Value is a delta that is either an available number or NotAvailable. The
// zero Value is unset: it is omitted from JSON and ranks like NotAvailable.
type Value[T Number] struct {
	n     T
	state valueState
}

// Of returns an available value.
func Of[T Number](n T) Value[T] {
	return Value[T]{n: n, state: stateAvailable}
}

// NotAvailable returns a value with no computable number.
func NotAvailable[T Number]() Value[T] {
	return Value[T]{state: stateNotAvailable}
}

// Get returns the number and whether it is available.
func (v Value[T]) Get() (T, bool) {
	return v.n, v.state == stateAvailable
}

// Available reports whether the value carries a number.
func (v Value[T]) Available() bool {
	return v.state == stateAvailable
}

// Annotated reports whether the field was set at all, available or not.
func (v Value[T]) Annotated() bool {
	return v.state != stateUnset
}

// IsZero reports whether the value is unset; encoding/json uses it for omitzero.
func (v Value[T]) IsZero() bool {
	return v.state == stateUnset
}

func (v Value[T]) String() string {
	if v.state != stateAvailable {
		return legacyNotAvailable
	}
	switch n := any(v.n).(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', 2, 64)
	default:
		return fmt.Sprint(v.n)
	}
}

// Float returns the value as float64 for sorting and display.
func (v Value[T]) Float() (float64, bool) {
	if v.state != stateAvailable {
		return 0, false
	}
	return float64(v.n), true
}

func (v Value[T]) MarshalJSON() ([]byte, error) {
	if v.state != stateAvailable {
		return []byte("null"), nil
	}
	return json.Marshal(v.n)
}

func (v *Value[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = NotAvailable[T]()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == legacyNotAvailable || s == "" {
			*v = NotAvailable[T]()
			return nil
		}
		data = []byte(s)
	}
	var zero T
	if _, isInt := any(zero).(int64); isInt {
		if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			*v = Of(T(n))
			return nil
		}
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("decode delta %q: %w", data, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		*v = NotAvailable[T]()
		return nil
	}
	switch any(zero).(type) {
	case int64:
		*v = Of(T(math.Round(f)))
	default:
		*v = Of(T(f))
	}
	return nil
}
