package flags

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindUnset Kind = iota
	KindBool
	KindNumber
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindEnum:
		return "enum"
	default:
		return "unset"
	}
}

// Value is a flag value: a boolean, a number, or an enumerated string.
// The zero Value is unset and reads as falsy.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
}

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

func Enum(s string) Value { return Value{kind: KindEnum, s: s} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUnset() bool { return v.kind == KindUnset }

// Number returns the numeric payload and whether v is a number.
func (v Value) Number() (float64, bool) {
	return v.n, v.kind == KindNumber
}

// Truthy reports whether the value counts as set for boolean checks.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0
	case KindEnum:
		return v.s != ""
	default:
		return false
	}
}

// Equal compares two values of the same kind. An unset value equals the
// falsy value of any kind, so an unset flag matches false, 0 and "".
func (v Value) Equal(o Value) bool {
	if v.kind == KindUnset || o.kind == KindUnset {
		return !v.Truthy() && !o.Truthy()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	default:
		return v.s == o.s
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindEnum:
		return v.s
	default:
		return ""
	}
}

// Parse reads a value from free text: "true"/"false" become booleans,
// numerals become numbers and anything else an enum.
func Parse(s string) Value {
	if s == "true" || s == "false" {
		return Bool(s == "true")
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(n)
	}
	return Enum(s)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindEnum:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a bare boolean, number or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Bool(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Number(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Enum(s)
		return nil
	}
	return fmt.Errorf("flag value: not a bool, number or string: %s", string(data))
}

// UnmarshalYAML accepts a scalar node and picks the variant from its tag.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("flag value: line %d: expected a scalar", node.Line)
	}
	switch node.Tag {
	case "!!null":
		*v = Value{}
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = Bool(b)
	case "!!int", "!!float":
		var n float64
		if err := node.Decode(&n); err != nil {
			return err
		}
		*v = Number(n)
	default:
		*v = Enum(node.Value)
	}
	return nil
}
