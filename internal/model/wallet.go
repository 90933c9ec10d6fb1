package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is buy or sell.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// Order is one filled simulated order.
type Order struct {
	ID        string          `json:"id"`
	CoinID    string          `json:"coin_id"`
	Side      OrderSide       `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

// WalletState tracks the simulated balance, holdings and order history.
type WalletState struct {
	Balance   decimal.Decimal            `json:"balance"`
	Holdings  map[string]decimal.Decimal `json:"holdings"`
	Orders    []Order                    `json:"orders"`
	UpdatedAt time.Time                  `json:"updated_at"`
}
