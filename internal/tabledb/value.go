package tabledb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// DType is the declared kind of a column.
//
// The ordinal values are the type codes of the file format and must not be
// reordered.
type DType int

const (
	// TypeText stores free-form strings.
	TypeText DType = iota
	// TypeChar stores short strings.
	TypeChar
	// TypeInt stores integers.
	TypeInt
	// TypeFloat stores floating point numbers.
	TypeFloat
	// TypeReal stores floating point numbers.
	TypeReal
	// TypeRelation is reserved for foreign-key typed columns; values are opaque.
	TypeRelation
)

var dtypeNames = [...]string{
	TypeText:     "TEXT",
	TypeChar:     "CHAR",
	TypeInt:      "INT",
	TypeFloat:    "FLOAT",
	TypeReal:     "REAL",
	TypeRelation: "RELATION",
}

// String returns the keyword used in CREATE TABLE.
func (t DType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("DType(%d)", int(t))
	}
	return dtypeNames[t]
}

// Valid reports whether t is one of the declared types.
func (t DType) Valid() bool {
	return t >= TypeText && t <= TypeRelation
}

// ParseDType maps a type keyword to a DType. Matching is case-insensitive.
func ParseDType(s string) (DType, bool) {
	up := strings.ToUpper(s)
	for i, name := range dtypeNames {
		if name == up {
			return DType(i), true
		}
	}
	return 0, false
}

// Value is one cell: the column's declared type plus its payload.
//
// Data holds a normalized JSON value: nil, bool, int64, float64, string,
// []any or map[string]any. The payload shape is not checked against Type.
type Value struct {
	Type DType
	Data any
}

// NewValue returns a Value with data normalized.
func NewValue(t DType, data any) Value {
	return Value{Type: t, Data: normalize(data)}
}

// IsNull reports whether the payload is JSON null.
func (v Value) IsNull() bool {
	return v.Data == nil
}

// maxInt64Float is 2^63, the first float64 above the int64 range.
const maxInt64Float = float64(1 << 63)

// Int64 returns the payload as an integer. Floats are truncated; floats
// outside the int64 range are rejected.
func (v Value) Int64() (int64, bool) {
	switch d := v.Data.(type) {
	case int64:
		return d, true
	case float64:
		if math.IsNaN(d) || d >= maxInt64Float || d < -maxInt64Float {
			return 0, false
		}
		return int64(d), true
	default:
		return 0, false
	}
}

// Equal reports whether both payloads are structurally equal. The type tag is
// ignored, matching how rows are compared on lookup.
func (v Value) Equal(other any) bool {
	if o, ok := other.(Value); ok {
		other = o.Data
	}
	return equalJSON(v.Data, normalize(other))
}

// MarshalJSON encodes the payload only.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Data)
}

// normalize converts decoded or Go-native values to the canonical set used by
// Value.Data.
func normalize(v any) any {
	switch d := v.(type) {
	case nil, bool, string, int64, float64:
		return d
	case json.Number:
		if i, err := d.Int64(); err == nil {
			return i
		}
		if f, err := d.Float64(); err == nil {
			return f
		}
		return d.String()
	case int:
		return int64(d)
	case int8:
		return int64(d)
	case int16:
		return int64(d)
	case int32:
		return int64(d)
	case uint:
		return int64(d)
	case uint8:
		return int64(d)
	case uint16:
		return int64(d)
	case uint32:
		return int64(d)
	case uint64:
		if d > math.MaxInt64 {
			return float64(d)
		}
		return int64(d)
	case float32:
		return float64(d)
	case []any:
		out := make([]any, len(d))
		for i, e := range d {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(d))
		for k, e := range d {
			out[k] = normalize(e)
		}
		return out
	case Value:
		return d.Data
	default:
		return d
	}
}

// equalJSON compares two normalized values. Numbers compare by value across
// int64 and float64.
func equalJSON(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
		return false
	case float64:
		switch y := b.(type) {
		case int64:
			return x == float64(y)
		case float64:
			return x == y
		}
		return false
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equalJSON(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !equalJSON(xv, yv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

var errTrailingData = errors.New("unexpected data after JSON value")

// ParseLiteral decodes a single JSON value. Numbers become int64 when they
// have no fractional part and float64 otherwise.
func ParseLiteral(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return normalize(v), nil
}

// ParseObject decodes a JSON object.
func ParseObject(data []byte) (map[string]any, error) {
	v, err := ParseLiteral(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %s", jsonKind(v))
	}
	return m, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case int64, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	default:
		return "object"
	}
}
