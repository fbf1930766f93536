package optional

import (
	"encoding/json"
	"testing"
)

type patch struct {
	Name     Value[string] `json:"name"`
	Quantity Value[int]    `json:"quantity"`
	Assignee Value[int64]  `json:"assignee"`
}

func TestUnmarshalDistinguishesAbsentNullAndSet(t *testing.T) {
	var p patch
	if err := json.Unmarshal([]byte(`{"name":"Widget","assignee":null}`), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if name, ok := p.Name.Get(); !ok || name != "Widget" {
		t.Errorf("Name = %q, %v; want Widget, true", name, ok)
	}
	if !p.Quantity.IsUnset() {
		t.Error("Quantity should be unset when absent")
	}
	if !p.Assignee.IsNull() {
		t.Error("Assignee should be null when explicitly null")
	}
}

func TestUnmarshalTypeMismatch(t *testing.T) {
	var p patch
	if err := json.Unmarshal([]byte(`{"quantity":"ten"}`), &p); err == nil {
		t.Error("expected error for string quantity")
	}
}

func TestOrElse(t *testing.T) {
	if got := Of(5).OrElse(1); got != 5 {
		t.Errorf("OrElse on set = %d, want 5", got)
	}
	if got := Null[int]().OrElse(1); got != 1 {
		t.Errorf("OrElse on null = %d, want 1", got)
	}
	var unset Value[int]
	if got := unset.OrElse(3); got != 3 {
		t.Errorf("OrElse on unset = %d, want 3", got)
	}
}

func TestMarshal(t *testing.T) {
	data, err := json.Marshal(patch{Name: Of("A"), Assignee: Null[int64]()})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"name":"A","quantity":null,"assignee":null}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
