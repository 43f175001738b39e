package persistence

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestColumnsCodecRoundTrip(t *testing.T) {
	cols := map[string][]any{
		"x":     {0.0, 0.5, 1.0},
		"label": {"a", "b", "c"},
		"meta":  {map[string]any{"gain": 2.0}, nil, nil},
	}

	blob, err := EncodeColumns(cols)
	if err != nil {
		t.Fatalf("EncodeColumns failed: %v", err)
	}
	got, err := DecodeColumns(blob)
	if err != nil {
		t.Fatalf("DecodeColumns failed: %v", err)
	}

	if diff := cmp.Diff(cols, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeColumnsRejectsGarbage(t *testing.T) {
	if _, err := DecodeColumns([]byte("not gob")); err == nil {
		t.Fatal("expected decode error")
	}
}
