package tabledb

import (
	"math"
	"testing"
)

func TestParseDType(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		tests := []struct {
			in   string
			want DType
		}{
			{"TEXT", TypeText},
			{"char", TypeChar},
			{"Int", TypeInt},
			{"float", TypeFloat},
			{"REAL", TypeReal},
			{"relation", TypeRelation},
		}
		for _, tt := range tests {
			t.Run(tt.in, func(t *testing.T) {
				got, ok := ParseDType(tt.in)
				if !ok {
					t.Fatalf("ParseDType(%q) failed", tt.in)
				}
				if got != tt.want {
					t.Errorf("ParseDType(%q) = %v, want %v", tt.in, got, tt.want)
				}
			})
		}
	})
	t.Run("errors", func(t *testing.T) {
		for _, in := range []string{"", "STRING", "BOOL", "INTEGER"} {
			if _, ok := ParseDType(in); ok {
				t.Errorf("ParseDType(%q) succeeded, want failure", in)
			}
		}
	})
	t.Run("codes", func(t *testing.T) {
		// The file format depends on these ordinals.
		want := map[DType]int{TypeText: 0, TypeChar: 1, TypeInt: 2, TypeFloat: 3, TypeReal: 4, TypeRelation: 5}
		for d, code := range want {
			if int(d) != code {
				t.Errorf("%v = %d, want %d", d, int(d), code)
			}
		}
		if DType(6).Valid() || DType(-1).Valid() {
			t.Error("out of range DType reported valid")
		}
	})
}

func TestParseLiteral(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		tests := []struct {
			in   string
			want any
		}{
			{"1", int64(1)},
			{"-42", int64(-42)},
			{"3.5", 3.5},
			{"true", true},
			{"null", nil},
			{`"x y"`, "x y"},
			{"[1, 2.5]", []any{int64(1), 2.5}},
			{` {"a": 1} `, map[string]any{"a": int64(1)}},
		}
		for _, tt := range tests {
			t.Run(tt.in, func(t *testing.T) {
				got, err := ParseLiteral([]byte(tt.in))
				if err != nil {
					t.Fatalf("ParseLiteral(%q) error = %v", tt.in, err)
				}
				if !equalJSON(got, tt.want) {
					t.Errorf("ParseLiteral(%q) = %#v, want %#v", tt.in, got, tt.want)
				}
			})
		}
	})
	t.Run("errors", func(t *testing.T) {
		for _, in := range []string{"", "abc", "1 2", `{"a":}`, "tru"} {
			if _, err := ParseLiteral([]byte(in)); err == nil {
				t.Errorf("ParseLiteral(%q) succeeded, want error", in)
			}
		}
	})
}

func TestParseObject(t *testing.T) {
	if _, err := ParseObject([]byte(`[1]`)); err == nil {
		t.Error("ParseObject(array) succeeded, want error")
	}
	m, err := ParseObject([]byte(`{"name":"Alice","id":7}`))
	if err != nil {
		t.Fatal(err)
	}
	if m["name"] != "Alice" || m["id"] != int64(7) {
		t.Errorf("ParseObject = %#v", m)
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a    any
		b    any
		want bool
	}{
		{"int int", 1, int64(1), true},
		{"int float", int64(2), 2.0, true},
		{"float fraction", 2.5, int64(2), false},
		{"string", "a", "a", true},
		{"string vs number", "1", 1, false},
		{"null", nil, nil, true},
		{"null vs zero", nil, 0, false},
		{"bool", true, true, true},
		{"array", []any{1, "x"}, []any{int64(1), "x"}, true},
		{"array length", []any{1}, []any{1, 2}, false},
		{"object", map[string]any{"a": 1}, map[string]any{"a": 1.0}, true},
		{"object keys", map[string]any{"a": 1}, map[string]any{"b": 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValue(TypeInt, tt.a)
			if got := v.Equal(tt.b); got != tt.want {
				t.Errorf("Equal(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValueInt64(t *testing.T) {
	if n, ok := NewValue(TypeInt, 7).Int64(); !ok || n != 7 {
		t.Errorf("Int64() = %d, %v", n, ok)
	}
	if n, ok := NewValue(TypeFloat, 7.9).Int64(); !ok || n != 7 {
		t.Errorf("Int64() of float = %d, %v", n, ok)
	}
	if _, ok := NewValue(TypeText, "7").Int64(); ok {
		t.Error("Int64() of string succeeded")
	}
	for _, f := range []float64{1e20, -1e20, 9223372036854775807} {
		if n, ok := NewValue(TypeFloat, f).Int64(); ok {
			t.Errorf("Int64() of %g = %d, want out of range", f, n)
		}
	}
	if n, ok := NewValue(TypeFloat, -9223372036854775808.0).Int64(); !ok || n != math.MinInt64 {
		t.Errorf("Int64() of -2^63 = %d, %v", n, ok)
	}
	if !NewValue(TypeText, nil).IsNull() {
		t.Error("IsNull() = false for nil payload")
	}
}
