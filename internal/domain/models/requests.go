package models

// Requests for the dashboard HTTP endpoints. Amount fields stay raw strings so
// a non-numeric value degrades to zero instead of failing the bind.

type MarketsRequest struct {
	Mode string `query:"mode" json:"mode" default:"simple" validate:"oneof=simple advanced"`
}

// RelayRequest leaves Limit zero when absent; the relay fills in its
// configured default.
type RelayRequest struct {
	Limit int `query:"limit" json:"limit" validate:"omitempty,gte=1,lte=250"`
}

type ListingLimitRequest struct {
	Limit int    `query:"limit" json:"limit" validate:"required,gte=1,lte=250"`
	Mode  string `query:"mode" json:"mode" default:"simple" validate:"oneof=simple advanced"`
}

type AllocationRequest struct {
	Template string `query:"template" json:"template"`
	Amount   string `query:"amount" json:"amount"`
}

type SimulationRequest struct {
	Asset  string `query:"asset" json:"asset"`
	Days   int    `query:"days" json:"days" validate:"gte=0,lte=3650"`
	Amount string `query:"amount" json:"amount" default:"1000"`
}
