package audit

import (
	"testing"
)

func TestDiffKeys(t *testing.T) {
	before := map[string]any{
		"lifecycle":  "active",
		"direction":  45,
		"created_at": "2026-01-01T00:00:00Z",
		"updated_at": "2026-01-01T00:00:00Z",
	}
	after := map[string]any{
		"lifecycle":  "inactive",
		"direction":  45,
		"height":     2,
		"created_at": "2026-01-01T00:00:00Z",
		"updated_at": "2026-02-01T00:00:00Z",
	}

	changed := diffKeys(before, after)
	want := []string{"height", "lifecycle"}
	if len(changed) != len(want) {
		t.Fatalf("changed = %v, want %v", changed, want)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Errorf("changed[%d] = %q, want %q", i, changed[i], want[i])
		}
	}
}

func TestDiffKeysCreate(t *testing.T) {
	after := map[string]any{"lifecycle": "active", "kind": "traffic_sign"}
	changed := diffKeys(nil, after)
	if len(changed) != 2 {
		t.Fatalf("changed = %v", changed)
	}
	if changed[0] != "kind" || changed[1] != "lifecycle" {
		t.Errorf("changed keys not sorted: %v", changed)
	}
}

func TestSnapshot(t *testing.T) {
	snap, err := snapshot(map[string]any{"id": "x", "order": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.doc["id"] != "x" {
		t.Errorf("doc = %v", snap.doc)
	}

	empty, err := snapshot(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty.raw != nil || empty.doc != nil {
		t.Error("nil snapshot must stay empty")
	}
}

func TestRawJSONMarshal(t *testing.T) {
	var empty rawJSON
	out, err := empty.MarshalJSON()
	if err != nil || string(out) != "null" {
		t.Errorf("empty rawJSON should marshal as null, got %s (%v)", out, err)
	}

	filled := rawJSON(`{"a":1}`)
	out, err = filled.MarshalJSON()
	if err != nil || string(out) != `{"a":1}` {
		t.Errorf("rawJSON should pass through, got %s (%v)", out, err)
	}
}
