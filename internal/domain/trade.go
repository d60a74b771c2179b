package domain

// TradeInfo is one leg of a match: the order it filled against, that
// order's own price, and the matched quantity.
type TradeInfo struct {
	OrderID  uint64 `json:"order_id"`
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// Trade records a single crossing event. Each leg carries its own order's
// price; the book matches at the resting price, never a midpoint.
type Trade struct {
	Bid TradeInfo `json:"bid"`
	Ask TradeInfo `json:"ask"`
}
