// Package wallet keeps the simulated trading balance and holdings.
package wallet

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"CryptoPulse/internal/model"
)

var (
	ErrInvalidAmount        = errors.New("wallet: amount and price must be positive")
	ErrInsufficientBalance  = errors.New("wallet: insufficient balance")
	ErrInsufficientHoldings = errors.New("wallet: insufficient holdings")
)

const (
	quantityPlaces = 8
	maxOrders      = 200
)

// Manager applies simulated spot orders with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.WalletState
	filePath string
	now      func() time.Time
}

// NewManager creates a Manager, loading or initializing state from disk.
func NewManager(filePath string, initialBalance decimal.Decimal) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load wallet state: %w", err)
	}

	// Initialize if fresh state
	if state.UpdatedAt.IsZero() && state.Balance.IsZero() && len(state.Orders) == 0 {
		state.Balance = initialBalance
	}

	m := &Manager{state: state, filePath: filePath, now: time.Now}
	if err := m.save(); err != nil {
		return nil, fmt.Errorf("save wallet state: %w", err)
	}
	return m, nil
}

// GetState returns a deep copy of the current wallet state.
func (m *Manager) GetState() model.WalletState {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *m.state
	s.Holdings = make(map[string]decimal.Decimal, len(m.state.Holdings))
	for k, v := range m.state.Holdings {
		s.Holdings[k] = v
	}
	s.Orders = append([]model.Order(nil), m.state.Orders...)
	return s
}

// Buy spends the given quote amount at price. Quantity is truncated to 8
// decimal places and the balance is debited by quantity × price.
func (m *Manager) Buy(coinID string, price, spend decimal.Decimal) (model.Order, error) {
	if coinID == "" || !price.IsPositive() || !spend.IsPositive() {
		return model.Order{}, ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if spend.GreaterThan(m.state.Balance) {
		return model.Order{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientBalance, spend, m.state.Balance)
	}
	qty := spend.DivRound(price, quantityPlaces+4).Truncate(quantityPlaces)
	if !qty.IsPositive() {
		return model.Order{}, ErrInvalidAmount
	}
	total := qty.Mul(price)

	m.state.Balance = m.state.Balance.Sub(total)
	m.state.Holdings[coinID] = m.state.Holdings[coinID].Add(qty)
	return m.record(coinID, model.SideBuy, price, qty, total), nil
}

// Sell sells quantity of coinID at price and credits the balance.
func (m *Manager) Sell(coinID string, price, quantity decimal.Decimal) (model.Order, error) {
	if coinID == "" || !price.IsPositive() || !quantity.IsPositive() {
		return model.Order{}, ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	held := m.state.Holdings[coinID]
	if quantity.GreaterThan(held) {
		return model.Order{}, fmt.Errorf("%w: %s %s held", ErrInsufficientHoldings, held, coinID)
	}
	total := quantity.Mul(price)

	m.state.Balance = m.state.Balance.Add(total)
	if rest := held.Sub(quantity); rest.IsZero() {
		delete(m.state.Holdings, coinID)
	} else {
		m.state.Holdings[coinID] = rest
	}
	return m.record(coinID, model.SideSell, price, quantity, total), nil
}

// record appends the order, keeps the newest maxOrders and persists.
// Callers hold m.mu.
func (m *Manager) record(coinID string, side model.OrderSide, price, qty, total decimal.Decimal) model.Order {
	order := model.Order{
		ID:        uuid.NewString(),
		CoinID:    coinID,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Total:     total,
		CreatedAt: m.now(),
	}
	m.state.Orders = append(m.state.Orders, order)
	if len(m.state.Orders) > maxOrders {
		m.state.Orders = m.state.Orders[len(m.state.Orders)-maxOrders:]
	}

	if err := m.save(); err != nil {
		log.Error().Err(err).Str("order", order.ID).Msg("failed to save wallet state")
	}
	return order
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
