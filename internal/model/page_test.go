package model

import "testing"

// TestTexts tests message text projection.
func TestTexts(t *testing.T) {
	t.Parallel()

	t.Run("keeps order", func(t *testing.T) {
		t.Parallel()

		got := Texts([]Message{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}})
		if len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("unexpected texts %v", got)
		}
	})

	t.Run("nil input gives empty slice", func(t *testing.T) {
		t.Parallel()

		if got := Texts(nil); len(got) != 0 {
			t.Errorf("expected empty slice, got %v", got)
		}
	})
}
