package engine

import "testing"

func TestHistoryNewestFirstBounded(t *testing.T) {
	h := NewHistory[int](3)
	for i := 1; i <= 5; i++ {
		h.Add(i)
	}

	items := h.Items()
	if len(items) != 3 || items[0] != 5 || items[1] != 4 || items[2] != 3 {
		t.Fatalf("unexpected items %v", items)
	}

	items[0] = 99
	if h.Items()[0] != 5 {
		t.Fatal("Items must return a copy")
	}
}
