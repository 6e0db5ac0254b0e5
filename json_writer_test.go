package dough

import (
	"encoding/json"
	"testing"
)

func TestJsonObjectWriter(t *testing.T) {
	t.Run("empty object", func(t *testing.T) {
		var w jsonObjectWriter
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "{}"; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("embed object", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("type", "JournalEntry")
		w.Embed(json.RawMessage(`{"id":"e1","memo":"rent"}`))
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := `{"type":"JournalEntry","id":"e1","memo":"rent"}`; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("embed non object", func(t *testing.T) {
		var w jsonObjectWriter
		w.Embed(json.RawMessage(`[1,2]`))
		if _, err := w.MarshalJSON(); err == nil {
			t.Errorf("embedding an array: got no error, want one")
		}
	})

	t.Run("optional fields", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("a", 0)
		w.Optional("b", "")
		w.Optional("c", 0)
		w.Optional("d", "hello")
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := `{"a":0,"d":"hello"}`; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("canonical", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("type", "JournalEntry")
		w.EmbedFrom(struct {
			Z string `json:"z"`
			A []any  `json:"a"`
		}{Z: "<&>", A: []any{map[string]any{"y": 1, "b": 20000000000}}})
		got, err := w.Canonical()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"a":[{"b":20000000000,"y":1}],"type":"JournalEntry","z":"<&>"}`
		if string(got) != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})
}
