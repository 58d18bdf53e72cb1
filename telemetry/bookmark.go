package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFirstDelivery     BookmarkType = "first_delivery"
	BookmarkFoodExhausted     BookmarkType = "food_exhausted"
	BookmarkTrailBreakthrough BookmarkType = "trail_breakthrough"
	BookmarkFieldCollapse     BookmarkType = "field_collapse"
)

// Bookmark marks a notable moment in a run.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector watches window stats for notable colony events.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	delivered   bool // a delivery has been seen
	sourcesLeft int  // food sources with stock in the previous window, -1 before the first
	lastMass    float64
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
		sourcesLeft: -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkFirstDelivery(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkFoodExhausted(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkTrailBreakthrough(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkFieldCollapse(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	bd.sourcesLeft = stats.FoodSourcesLeft
	bd.lastMass = stats.FieldMass

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkFirstDelivery(stats WindowStats) *Bookmark {
	if bd.delivered || stats.Delivered == 0 {
		return nil
	}
	bd.delivered = true
	return &Bookmark{
		Type:        BookmarkFirstDelivery,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("First food delivered home (%d this window)", stats.Delivered),
	}
}

func (bd *BookmarkDetector) checkFoodExhausted(stats WindowStats) *Bookmark {
	if bd.sourcesLeft < 0 || stats.FoodSourcesLeft >= bd.sourcesLeft {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkFoodExhausted,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Food sources with stock fell from %d to %d", bd.sourcesLeft, stats.FoodSourcesLeft),
	}
}

// checkTrailBreakthrough fires when deliveries exceed twice the rolling mean.
func (bd *BookmarkDetector) checkTrailBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Delivered
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Delivered) > avg*2.0 && stats.Delivered >= 3 {
		return &Bookmark{
			Type:        BookmarkTrailBreakthrough,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Delivered %d is %.1fx average (%.2f)", stats.Delivered, float64(stats.Delivered)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkFieldCollapse(stats WindowStats) *Bookmark {
	if bd.lastMass <= 0 || stats.FieldMass > 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkFieldCollapse,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Pheromone mass fell from %.2f to zero", bd.lastMass),
	}
}
