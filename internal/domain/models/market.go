package models

import "time"

// Asset is one entry of the ranked market listing as reported upstream.
type Asset struct {
	ID                string    `json:"id"`
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	Image             string    `json:"image,omitempty"`
	CurrentPrice      float64   `json:"current_price"`
	MarketCap         float64   `json:"market_cap"`
	Rank              int       `json:"market_cap_rank"`
	PriceChange24h    *float64  `json:"price_change_percentage_24h,omitempty"`
	PriceChange7d     *float64  `json:"price_change_percentage_7d_in_currency,omitempty"`
	TotalVolume       float64   `json:"total_volume"`
	CirculatingSupply float64   `json:"circulating_supply"`
	Sparkline7d       []float64 `json:"sparkline_7d,omitempty"`
}

// MarketSnapshot is the full listing fetched in one request. It is replaced
// wholesale on every refresh and never patched.
type MarketSnapshot struct {
	Resource  string    `json:"resource"`
	Seq       uint64    `json:"seq"`
	FetchedAt time.Time `json:"fetched_at"`
	Assets    []Asset   `json:"assets"`
}

// Len returns the number of assets in the snapshot.
func (s *MarketSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Assets)
}

// PricePoint is a single historical sample.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}
