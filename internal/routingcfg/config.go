// Package routingcfg holds the typed, immutable configuration trees loaded
// once at startup: the user simulation tree, the PSP rule set, and the
// merchant connector list. Percentage invariants are validated on load.
package routingcfg

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nimbuslab/routing-lab/internal/model"
)

// ConfigInvalid is returned by Validate when a node's child percentages do
// not sum to exactly 100.
type ConfigInvalid struct {
	Path   string
	Reason string
}

func (e *ConfigInvalid) Error() string {
	return fmt.Sprintf("config invalid at %q: %s", e.Path, e.Reason)
}

// Config is the top-level document loaded from input.json.
type Config struct {
	User     UserConfig     `json:"user"`
	Psp      PspConfig      `json:"psp"`
	Merchant MerchantConfig `json:"merchant"`
}

// AmountRange is the inclusive bound the sampler draws a transaction amount
// from.
type AmountRange struct {
	Min uint32 `json:"min"`
	Max uint32 `json:"max"`
}

// PaymentMethodNode is one entry in a SimulationConfig: a leaf percentage
// when Next is nil, or a composite percentage-plus-subtree otherwise.
type PaymentMethodNode struct {
	Percentage int              `json:"percentage"`
	Next       *SimulationConfig `json:"next,omitempty"`
}

// SimulationConfig is a tree level: a mapping from Key to a node.
type SimulationConfig map[model.Key]PaymentMethodNode

// UserConfig is the root of the weighted-hierarchical sampler input.
type UserConfig struct {
	Amount         AmountRange      `json:"amount"`
	Currency       string           `json:"currency"`
	PaymentMethods SimulationConfig `json:"payment_methods"`
}

// LoadConfig reads and parses the JSON document at path, then validates the
// user tree's percentage invariants.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	if cfg.User.Currency == "" {
		cfg.User.Currency = "USD"
	}
	if cfg.User.Amount.Max == 0 && cfg.User.Amount.Min == 0 {
		cfg.User.Amount = AmountRange{Min: 0, Max: 2000}
	}
	if cfg.User.Amount.Min > cfg.User.Amount.Max {
		return nil, &ConfigInvalid{Path: "user.amount", Reason: "min must be <= max"}
	}

	if err := cfg.User.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate walks the user tree recursively, checking that every node's child
// percentages sum to exactly 100.
func (u UserConfig) Validate() error {
	return u.PaymentMethods.validate("payment_methods")
}

func (s SimulationConfig) validate(path string) error {
	total := 0
	for key, node := range s {
		total += node.Percentage
		if node.Next != nil {
			if err := node.Next.validate(fmt.Sprintf("%s.%s.next", path, key)); err != nil {
				return err
			}
		}
	}
	if total != 100 {
		return &ConfigInvalid{
			Path:   path,
			Reason: fmt.Sprintf("percentages sum to %d, want 100", total),
		}
	}
	return nil
}
