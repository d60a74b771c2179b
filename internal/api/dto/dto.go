package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olyamironova/orderbook-engine/internal/domain"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type OrderKind string

const (
	GoodTillCancel OrderKind = "GTC"
	FillAndKill    OrderKind = "FAK"
	FillOrKill     OrderKind = "FOK"
	GoodForDay     OrderKind = "GFD"
	Market         OrderKind = "MARKET"
)

type SubmitOrderRequest struct {
	OrderID  uint64          `json:"order_id" binding:"required"`
	Side     Side            `json:"side" binding:"required"`
	Kind     OrderKind       `json:"kind" binding:"required"`
	Price    decimal.Decimal `json:"price,omitempty"` // ignored for MARKET
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

type SubmitOrderResponse struct {
	OrderID   uint64          `json:"order_id"`
	Trades    []Trade         `json:"trades"`
	Remaining decimal.Decimal `json:"remaining"`
	Message   string          `json:"message,omitempty"`
}

type CancelOrderRequest struct {
	OrderID uint64 `json:"order_id" binding:"required"`
}

type CancelOrderResponse struct {
	OrderID   uint64 `json:"order_id"`
	Cancelled bool   `json:"cancelled"`
}

type ModifyOrderRequest struct {
	OrderID  uint64          `json:"order_id" binding:"required"`
	Side     Side            `json:"side" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

type ModifyOrderResponse struct {
	OrderID uint64  `json:"order_id"`
	Trades  []Trade `json:"trades"`
}

type DepthResponse struct {
	Symbol    string    `json:"symbol"`
	Bids      []Level   `json:"bids"`
	Asks      []Level   `json:"asks"`
	Timestamp time.Time `json:"timestamp"`
}

type SizeResponse struct {
	Size int `json:"size"`
}

type SnapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

type Level struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

type TradeLeg struct {
	OrderID  uint64          `json:"order_id"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

type Trade struct {
	Bid TradeLeg `json:"bid"`
	Ask TradeLeg `json:"ask"`
}

func (s Side) Domain() (domain.Side, error) {
	switch s {
	case Buy:
		return domain.Buy, nil
	case Sell:
		return domain.Sell, nil
	default:
		return 0, fmt.Errorf("invalid side: %s", s)
	}
}

func (k OrderKind) Domain() (domain.OrderKind, error) {
	switch k {
	case GoodTillCancel:
		return domain.GoodTillCancel, nil
	case FillAndKill:
		return domain.FillAndKill, nil
	case FillOrKill:
		return domain.FillOrKill, nil
	case GoodForDay:
		return domain.GoodForDay, nil
	case Market:
		return domain.Market, nil
	default:
		return 0, fmt.Errorf("invalid order kind: %s", k)
	}
}

// ToTicks converts a decimal value to integer ticks at the given scale,
// rejecting values that do not land exactly on a tick.
func ToTicks(d decimal.Decimal, scale int32) (int64, error) {
	shifted := d.Shift(scale)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("value %s is not a multiple of the minimum increment", d)
	}
	return shifted.IntPart(), nil
}

// ToLots converts a decimal quantity to integer lots at the given scale.
func ToLots(d decimal.Decimal, scale int32) (uint64, error) {
	lots, err := ToTicks(d, scale)
	if err != nil {
		return 0, err
	}
	if lots <= 0 {
		return 0, fmt.Errorf("quantity must be > 0")
	}
	return uint64(lots), nil
}

// FromTicks renders integer ticks back to a decimal at the given scale.
func FromTicks(ticks int64, scale int32) decimal.Decimal {
	return decimal.New(ticks, -scale)
}

// FromLots renders integer lots back to a decimal at the given scale.
func FromLots(lots uint64, scale int32) decimal.Decimal {
	return decimal.New(int64(lots), -scale)
}
