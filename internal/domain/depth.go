package domain

import "time"

// LevelInfo is one row of the depth-of-book view: a price and the
// aggregate remaining quantity resting at it.
type LevelInfo struct {
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// Depth is a per-side snapshot of the book ordered best-to-worst.
type Depth struct {
	Symbol    string      `json:"symbol"`
	Bids      []LevelInfo `json:"bids"`
	Asks      []LevelInfo `json:"asks"`
	Timestamp time.Time   `json:"timestamp"`
}
