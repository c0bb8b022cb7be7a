package models

// TemplateAllocation is one (symbol, target percentage) pair of a template.
type TemplateAllocation struct {
	Symbol     string  `yaml:"symbol" json:"symbol"`
	Name       string  `yaml:"name" json:"name"`
	Percentage float64 `yaml:"percentage" json:"percentage"`
	Color      string  `yaml:"color" json:"color"`
}

// AllocationTemplate is a fixed named mapping from asset symbol to target percentage.
type AllocationTemplate struct {
	Key         string               `yaml:"key" json:"key"`
	Name        string               `yaml:"name" json:"name"`
	Description string               `yaml:"description" json:"description"`
	Risk        string               `yaml:"risk" json:"risk"`
	Allocations []TemplateAllocation `yaml:"allocations" json:"allocations"`
}

// TotalPercentage sums the template's target percentages.
func (t AllocationTemplate) TotalPercentage() float64 {
	var sum float64
	for _, a := range t.Allocations {
		sum += a.Percentage
	}
	return sum
}

// CalculatedAllocation is the derived per-asset slice of an investment.
// CurrentPrice == 0 means the price is unknown, not that the asset is free.
type CalculatedAllocation struct {
	TemplateAllocation
	Amount       float64 `json:"amount"`
	Quantity     float64 `json:"quantity"`
	CurrentPrice float64 `json:"current_price"`
}
