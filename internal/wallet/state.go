package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"CryptoPulse/internal/model"
)

// LoadState reads the wallet state from a JSON file. Returns a zero state if
// the path is empty or the file doesn't exist.
func LoadState(filePath string) (*model.WalletState, error) {
	state := &model.WalletState{Holdings: map[string]decimal.Decimal{}}
	if filePath == "" {
		return state, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.Holdings == nil {
		state.Holdings = map[string]decimal.Decimal{}
	}
	return state, nil
}

// SaveState writes the wallet state to a JSON file. An empty path keeps the
// state in memory only.
func SaveState(filePath string, state *model.WalletState) error {
	state.UpdatedAt = time.Now()
	if filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
