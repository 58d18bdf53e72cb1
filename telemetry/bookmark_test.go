package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, b := range bookmarks {
		if b.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_FirstDelivery(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if got := bd.Check(WindowStats{WindowEndTick: 100}); hasBookmark(got, BookmarkFirstDelivery) {
		t.Error("first_delivery before any delivery")
	}
	if got := bd.Check(WindowStats{WindowEndTick: 200, Delivered: 2}); !hasBookmark(got, BookmarkFirstDelivery) {
		t.Error("expected first_delivery bookmark")
	}
	if got := bd.Check(WindowStats{WindowEndTick: 300, Delivered: 1}); hasBookmark(got, BookmarkFirstDelivery) {
		t.Error("first_delivery fired twice")
	}
}

func TestBookmarkDetector_FoodExhausted(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(WindowStats{WindowEndTick: 100, FoodSourcesLeft: 3})
	if got := bd.Check(WindowStats{WindowEndTick: 200, FoodSourcesLeft: 3}); hasBookmark(got, BookmarkFoodExhausted) {
		t.Error("food_exhausted with no change")
	}
	got := bd.Check(WindowStats{WindowEndTick: 300, FoodSourcesLeft: 2})
	if !hasBookmark(got, BookmarkFoodExhausted) {
		t.Fatal("expected food_exhausted bookmark")
	}
	for _, b := range got {
		if b.Type == BookmarkFoodExhausted && b.Tick != 300 {
			t.Errorf("bookmark tick = %d, want 300", b.Tick)
		}
	}
}

func TestBookmarkDetector_TrailBreakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 100), Delivered: 2})
	}

	if got := bd.Check(WindowStats{WindowEndTick: 500, Delivered: 4}); hasBookmark(got, BookmarkTrailBreakthrough) {
		t.Error("trail_breakthrough at exactly 2x average")
	}
	if got := bd.Check(WindowStats{WindowEndTick: 600, Delivered: 9}); !hasBookmark(got, BookmarkTrailBreakthrough) {
		t.Error("expected trail_breakthrough bookmark")
	}
}

func TestBookmarkDetector_TrailBreakthroughNeedsHistory(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{Delivered: 1})

	if got := bd.Check(WindowStats{Delivered: 10}); hasBookmark(got, BookmarkTrailBreakthrough) {
		t.Error("trail_breakthrough with fewer than 3 windows of history")
	}
}

func TestBookmarkDetector_FieldCollapse(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if got := bd.Check(WindowStats{WindowEndTick: 100}); hasBookmark(got, BookmarkFieldCollapse) {
		t.Error("field_collapse on a field that was never positive")
	}
	bd.Check(WindowStats{WindowEndTick: 200, FieldMass: 40})
	if got := bd.Check(WindowStats{WindowEndTick: 300}); !hasBookmark(got, BookmarkFieldCollapse) {
		t.Error("expected field_collapse bookmark")
	}
	if got := bd.Check(WindowStats{WindowEndTick: 400}); hasBookmark(got, BookmarkFieldCollapse) {
		t.Error("field_collapse fired again while the field stayed empty")
	}
}
