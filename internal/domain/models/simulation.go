package models

// SimulationResult is the outcome of a historical "what-if" investment.
type SimulationResult struct {
	InitialPrice       float64 `json:"initial_price"`
	CurrentPrice       float64 `json:"current_price"`
	InitialValue       float64 `json:"initial_value"`
	CurrentValue       float64 `json:"current_value"`
	Profit             float64 `json:"profit"`
	ProfitPercent      float64 `json:"profit_percent"`
	UnitsOwned         float64 `json:"units_owned"`
	PriceChangePercent float64 `json:"price_change_percent"`
	// Gain is derived once from (current - initial) >= 0 and drives every
	// up/down indicator for this result.
	Gain bool `json:"gain"`
}

// SimulatorAsset is one selectable asset of the simulator.
type SimulatorAsset struct {
	ID     string `yaml:"id" json:"id"`
	Symbol string `yaml:"symbol" json:"symbol"`
	Name   string `yaml:"name" json:"name"`
	Color  string `yaml:"color" json:"color"`
}

// LookbackWindow is a selectable number of days of history.
type LookbackWindow struct {
	Label string `yaml:"label" json:"label"`
	Days  int    `yaml:"days" json:"days"`
}
