package models

import (
	"fmt"
	"math"
	"strings"
)

// Catalog holds the fixed option tables of the dashboard: allocation
// templates, simulator assets, lookback windows and presets. It is loaded once
// at startup and handed to the components that need it; accessors return
// copies so callers cannot mutate it.
type Catalog struct {
	Templates         []AllocationTemplate `yaml:"templates" json:"templates"`
	DefaultTemplate   string               `yaml:"default_template" json:"default_template"`
	PortfolioPresets  []float64            `yaml:"portfolio_presets" json:"portfolio_presets"`
	SimulatorAssets   []SimulatorAsset     `yaml:"simulator_assets" json:"simulator_assets"`
	Windows           []LookbackWindow     `yaml:"lookback_windows" json:"lookback_windows"`
	DefaultWindowDays int                  `yaml:"default_window_days" json:"default_window_days"`
	AmountPresets     []float64            `yaml:"amount_presets" json:"amount_presets"`
	ListingSizes      []int                `yaml:"listing_sizes" json:"listing_sizes"`
}

// percentageTolerance bounds the rounding slack accepted when checking that a
// template sums to 100.
const percentageTolerance = 1e-9

// Template returns the template registered under key.
func (c *Catalog) Template(key string) (AllocationTemplate, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, t := range c.Templates {
		if t.Key == k {
			return cloneTemplate(t), nil
		}
	}
	return AllocationTemplate{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, key)
}

// AllTemplates returns every template in definition order.
func (c *Catalog) AllTemplates() []AllocationTemplate {
	out := make([]AllocationTemplate, 0, len(c.Templates))
	for _, t := range c.Templates {
		out = append(out, cloneTemplate(t))
	}
	return out
}

// Asset resolves a simulator asset by id or by symbol (case-insensitive).
func (c *Catalog) Asset(idOrSymbol string) (SimulatorAsset, error) {
	q := strings.TrimSpace(idOrSymbol)
	for _, a := range c.SimulatorAssets {
		if strings.EqualFold(a.ID, q) || strings.EqualFold(a.Symbol, q) {
			return a, nil
		}
	}
	return SimulatorAsset{}, fmt.Errorf("%w: %q", ErrUnknownAsset, idOrSymbol)
}

// Window returns the lookback window for days.
func (c *Catalog) Window(days int) (LookbackWindow, error) {
	for _, w := range c.Windows {
		if w.Days == days {
			return w, nil
		}
	}
	return LookbackWindow{}, fmt.Errorf("%w: %d days", ErrUnsupportedWindow, days)
}

// ListingSizeAllowed reports whether n is one of the selectable listing sizes.
func (c *Catalog) ListingSizeAllowed(n int) bool {
	for _, s := range c.ListingSizes {
		if s == n {
			return true
		}
	}
	return false
}

// Validate checks the catalog for authoring defects.
func (c *Catalog) Validate() error {
	if len(c.Templates) == 0 {
		return fmt.Errorf("catalog.templates cannot be empty")
	}
	seen := make(map[string]struct{}, len(c.Templates))
	for _, t := range c.Templates {
		if t.Key == "" {
			return fmt.Errorf("catalog.templates: key is required")
		}
		if t.Key != strings.ToLower(t.Key) {
			return fmt.Errorf("catalog.templates[%s]: key must be lowercase", t.Key)
		}
		if _, dup := seen[t.Key]; dup {
			return fmt.Errorf("catalog.templates[%s]: duplicate key", t.Key)
		}
		seen[t.Key] = struct{}{}
		if len(t.Allocations) == 0 {
			return fmt.Errorf("catalog.templates[%s]: allocations cannot be empty", t.Key)
		}
		for _, a := range t.Allocations {
			if a.Symbol == "" {
				return fmt.Errorf("catalog.templates[%s]: symbol is required", t.Key)
			}
			if a.Percentage <= 0 || math.IsNaN(a.Percentage) || math.IsInf(a.Percentage, 0) {
				return fmt.Errorf("catalog.templates[%s]: percentage for %s must be > 0", t.Key, a.Symbol)
			}
		}
		if sum := t.TotalPercentage(); math.Abs(sum-100) > percentageTolerance*100 {
			return fmt.Errorf("catalog.templates[%s]: percentages sum to %v, want 100", t.Key, sum)
		}
	}
	if c.DefaultTemplate != "" {
		if _, ok := seen[c.DefaultTemplate]; !ok {
			return fmt.Errorf("catalog.default_template %q is not a template key", c.DefaultTemplate)
		}
	}

	if len(c.SimulatorAssets) == 0 {
		return fmt.Errorf("catalog.simulator_assets cannot be empty")
	}
	ids := make(map[string]struct{}, len(c.SimulatorAssets))
	for _, a := range c.SimulatorAssets {
		if a.ID == "" || a.Symbol == "" {
			return fmt.Errorf("catalog.simulator_assets: id and symbol are required")
		}
		if _, dup := ids[a.ID]; dup {
			return fmt.Errorf("catalog.simulator_assets[%s]: duplicate id", a.ID)
		}
		ids[a.ID] = struct{}{}
	}

	if len(c.Windows) == 0 {
		return fmt.Errorf("catalog.lookback_windows cannot be empty")
	}
	for _, w := range c.Windows {
		if w.Days <= 0 {
			return fmt.Errorf("catalog.lookback_windows[%s]: days must be > 0", w.Label)
		}
	}
	if c.DefaultWindowDays != 0 {
		if _, err := c.Window(c.DefaultWindowDays); err != nil {
			return fmt.Errorf("catalog.default_window_days: %w", err)
		}
	}

	if len(c.ListingSizes) == 0 {
		return fmt.Errorf("catalog.listing_sizes cannot be empty")
	}
	for _, n := range c.ListingSizes {
		if n <= 0 || n > 250 {
			return fmt.Errorf("catalog.listing_sizes: %d out of range 1..250", n)
		}
	}
	return nil
}

func cloneTemplate(t AllocationTemplate) AllocationTemplate {
	t.Allocations = append([]TemplateAllocation(nil), t.Allocations...)
	return t
}

// DefaultCatalog returns the built-in option tables used when the
// configuration file does not provide a catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Templates: []AllocationTemplate{
			{
				Key:         "conservative",
				Name:        "Conservative",
				Description: "Low risk, stable assets focus",
				Risk:        "Low Risk",
				Allocations: []TemplateAllocation{
					{Symbol: "BTC", Name: "Bitcoin", Percentage: 60, Color: "#F7931A"},
					{Symbol: "ETH", Name: "Ethereum", Percentage: 30, Color: "#627EEA"},
					{Symbol: "USDT", Name: "Stablecoins", Percentage: 10, Color: "#26A17B"},
				},
			},
			{
				Key:         "balanced",
				Name:        "Balanced",
				Description: "Moderate risk, diversified portfolio",
				Risk:        "Medium Risk",
				Allocations: []TemplateAllocation{
					{Symbol: "BTC", Name: "Bitcoin", Percentage: 40, Color: "#F7931A"},
					{Symbol: "ETH", Name: "Ethereum", Percentage: 30, Color: "#627EEA"},
					{Symbol: "SOL", Name: "Solana", Percentage: 20, Color: "#14F195"},
					{Symbol: "USDT", Name: "Other", Percentage: 10, Color: "#8B5CF6"},
				},
			},
			{
				Key:         "aggressive",
				Name:        "Aggressive",
				Description: "High risk, maximum growth potential",
				Risk:        "High Risk",
				Allocations: []TemplateAllocation{
					{Symbol: "BTC", Name: "Bitcoin", Percentage: 30, Color: "#F7931A"},
					{Symbol: "ETH", Name: "Ethereum", Percentage: 25, Color: "#627EEA"},
					{Symbol: "SOL", Name: "Solana", Percentage: 25, Color: "#14F195"},
					{Symbol: "BNB", Name: "Altcoins", Percentage: 20, Color: "#F3BA2F"},
				},
			},
		},
		DefaultTemplate:  "balanced",
		PortfolioPresets: []float64{500, 1000, 5000, 10000},
		SimulatorAssets: []SimulatorAsset{
			{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Color: "#F7931A"},
			{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", Color: "#627EEA"},
			{ID: "solana", Symbol: "SOL", Name: "Solana", Color: "#14F195"},
			{ID: "binancecoin", Symbol: "BNB", Name: "BNB", Color: "#F3BA2F"},
			{ID: "ripple", Symbol: "XRP", Name: "XRP", Color: "#23292F"},
			{ID: "cardano", Symbol: "ADA", Name: "Cardano", Color: "#0033AD"},
			{ID: "dogecoin", Symbol: "DOGE", Name: "Dogecoin", Color: "#C2A633"},
		},
		Windows: []LookbackWindow{
			{Label: "1 month", Days: 30},
			{Label: "3 months", Days: 90},
			{Label: "6 months", Days: 180},
			{Label: "1 year", Days: 365},
			{Label: "2 years", Days: 730},
		},
		DefaultWindowDays: 180,
		AmountPresets:     []float64{100, 500, 1000, 5000, 10000},
		ListingSizes:      []int{10, 20, 50, 100},
	}
}
