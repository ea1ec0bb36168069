package exchange

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// PaperState is the persisted paper account.
type PaperState struct {
	Base        float64   `json:"base"`
	Quote       float64   `json:"quote"`
	LastPrice   float64   `json:"last_price"`
	OrderCount  int       `json:"order_count"`
	FeesPaid    float64   `json:"fees_paid"`
	Initialized bool      `json:"initialized"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LoadState reads the paper state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*PaperState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &PaperState{}, nil
		}
		return nil, err
	}
	var state PaperState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the paper state to a JSON file.
func SaveState(filePath string, state *PaperState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
