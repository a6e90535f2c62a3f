package flags

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestValue_Truthy(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected bool
	}{
		{"unset", Value{}, false},
		{"bool true", Bool(true), true},
		{"bool false", Bool(false), false},
		{"number zero", Number(0), false},
		{"number nonzero", Number(3), true},
		{"enum empty", Enum(""), false},
		{"enum set", Enum("open"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.Truthy(); got != tt.expected {
				t.Errorf("Truthy() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Value
		expected bool
	}{
		{"same bool", Bool(true), Bool(true), true},
		{"different bool", Bool(true), Bool(false), false},
		{"same number", Number(2), Number(2), true},
		{"same enum", Enum("north"), Enum("north"), true},
		{"different kinds", Bool(true), Enum("true"), false},
		{"unset equals false", Value{}, Bool(false), true},
		{"unset equals zero", Number(0), Value{}, true},
		{"unset does not equal true", Value{}, Bool(true), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.expected {
				t.Errorf("Equal() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if v := Parse("true"); v.Kind() != KindBool || !v.Truthy() {
		t.Errorf("expected bool true, got %v (%s)", v, v.Kind())
	}
	if v := Parse("2.5"); v.Kind() != KindNumber {
		t.Errorf("expected number, got %s", v.Kind())
	}
	if v := Parse("harbour"); v.Kind() != KindEnum || v.String() != "harbour" {
		t.Errorf("expected enum harbour, got %v", v)
	}
}

func TestValue_JSON(t *testing.T) {
	var got map[string]Value
	data := []byte(`{"met_guide": true, "visits": 3, "weather": "rain", "nothing": null}`)
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !got["met_guide"].Equal(Bool(true)) {
		t.Errorf("met_guide = %v", got["met_guide"])
	}
	if !got["visits"].Equal(Number(3)) {
		t.Errorf("visits = %v", got["visits"])
	}
	if !got["weather"].Equal(Enum("rain")) {
		t.Errorf("weather = %v", got["weather"])
	}
	if !got["nothing"].IsUnset() {
		t.Errorf("nothing should be unset, got %s", got["nothing"].Kind())
	}

	out, err := json.Marshal(Number(3))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != "3" {
		t.Errorf("expected 3, got %s", out)
	}
}

func TestValue_YAML(t *testing.T) {
	var got map[string]Value
	data := []byte("met_guide: false\nvisits: 2\nweather: sunny\nquoted: \"true\"\n")
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if got["met_guide"].Kind() != KindBool {
		t.Errorf("met_guide kind = %s", got["met_guide"].Kind())
	}
	if !got["visits"].Equal(Number(2)) {
		t.Errorf("visits = %v", got["visits"])
	}
	if !got["weather"].Equal(Enum("sunny")) {
		t.Errorf("weather = %v", got["weather"])
	}
	if got["quoted"].Kind() != KindEnum {
		t.Errorf("quoted string should stay an enum, got %s", got["quoted"].Kind())
	}
}

func TestStore(t *testing.T) {
	s := NewStore(map[string]Value{"met_guide": Bool(false)})

	if v := s.Get("never_declared"); !v.IsUnset() {
		t.Errorf("unknown flag should read unset, got %v", v)
	}
	if !s.Has("met_guide") {
		t.Error("declared default should be present")
	}

	s.Set("met_guide", Bool(true))
	if !s.Get("met_guide").Truthy() {
		t.Error("expected met_guide to be true after Set")
	}

	snap := s.Snapshot()
	snap["met_guide"] = Bool(false)
	if !s.Get("met_guide").Truthy() {
		t.Error("snapshot mutation leaked into the store")
	}
}
