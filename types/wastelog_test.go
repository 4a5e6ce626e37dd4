package types

import (
	"encoding/json"
	"testing"
)

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2024-01-01"`), &d); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if d.String() != "2024-01-01" {
		t.Fatalf("date = %q, want 2024-01-01", d.String())
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	if string(out) != `"2024-01-01"` {
		t.Fatalf("marshaled = %s", out)
	}
}

func TestDateJSONEmptyAndInvalid(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`""`), &d); err != nil {
		t.Fatalf("empty date should be accepted: %v", err)
	}
	if !d.IsZero() {
		t.Fatalf("empty date should be zero")
	}

	if err := json.Unmarshal([]byte(`"01/02/2024"`), &d); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestWasteLogJSONFieldNames(t *testing.T) {
	entry := WasteLog{ID: "log-1", UserID: 2, Points: 10, Category: "plastic", Date: Today()}
	out, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	// The mobile client reads the category as "type".
	if fields["type"] != "plastic" {
		t.Fatalf("type field = %v", fields["type"])
	}
	if _, ok := fields["created_at"]; ok {
		t.Fatalf("created_at must not be serialized")
	}
}
