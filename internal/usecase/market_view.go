package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CryptoCompass/internal/domain/models"
	"CryptoCompass/pkg/format"
)

const (
	ModeSimple   = "simple"
	ModeAdvanced = "advanced"

	// sparklineStride keeps every n-th sparkline point.
	sparklineStride = 4
)

// MarketRow is one display-ready listing row. Advanced-only fields are empty
// in simple mode.
type MarketRow struct {
	Rank        int       `json:"rank"`
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Image       string    `json:"image,omitempty"`
	Price       string    `json:"price"`
	Change24h   string    `json:"change_24h"`
	Up24h       bool      `json:"up_24h"`
	MarketCap   string    `json:"market_cap"`
	Change7d    string    `json:"change_7d,omitempty"`
	Up7d        bool      `json:"up_7d,omitempty"`
	Volume24h   string    `json:"volume_24h,omitempty"`
	Sparkline   []float64 `json:"sparkline,omitempty"`
	SparklineUp bool      `json:"sparkline_up,omitempty"`
}

// MarketView is the listing as the dashboard renders it.
type MarketView struct {
	Mode        string      `json:"mode"`
	Limit       int         `json:"limit"`
	Rows        []MarketRow `json:"rows"`
	LastUpdated *time.Time  `json:"last_updated,omitempty"`
	Error       string      `json:"error,omitempty"`
	Loading     bool        `json:"loading"`
	Seq         uint64      `json:"seq"`
}

// BuildMarketView formats st for mode.
func BuildMarketView(st BoardState, mode string, limit int) MarketView {
	v := MarketView{
		Mode:    mode,
		Limit:   limit,
		Rows:    []MarketRow{},
		Error:   st.Error,
		Loading: st.Loading,
	}
	if st.Snapshot == nil {
		return v
	}
	at := st.Snapshot.FetchedAt
	v.LastUpdated = &at
	v.Seq = st.Snapshot.Seq

	advanced := mode == ModeAdvanced
	for _, a := range st.Snapshot.Assets {
		v.Rows = append(v.Rows, buildRow(a, advanced))
	}
	return v
}

func buildRow(a models.Asset, advanced bool) MarketRow {
	row := MarketRow{
		Rank:      a.Rank,
		ID:        a.ID,
		Symbol:    strings.ToUpper(a.Symbol),
		Name:      a.Name,
		Image:     a.Image,
		Price:     format.Price(a.CurrentPrice),
		Change24h: optionalPercent(a.PriceChange24h),
		Up24h:     a.PriceChange24h != nil && *a.PriceChange24h >= 0,
		MarketCap: format.MarketCap(a.MarketCap),
	}
	if !advanced {
		return row
	}

	row.Change7d = optionalPercent(a.PriceChange7d)
	row.Up7d = a.PriceChange7d != nil && *a.PriceChange7d >= 0
	row.Volume24h = format.MarketCap(a.TotalVolume)
	if len(a.Sparkline7d) > 0 {
		row.Sparkline = SampleSparkline(a.Sparkline7d, sparklineStride)
		// A missing 7d change draws as flat-up.
		row.SparklineUp = a.PriceChange7d == nil || *a.PriceChange7d >= 0
	}
	return row
}

func optionalPercent(v *float64) string {
	if v == nil {
		return format.NotAvailable
	}
	return format.Percentage(*v)
}

// SampleSparkline keeps every stride-th point, always including the last so
// the line ends at the current price.
func SampleSparkline(points []float64, stride int) []float64 {
	if stride <= 1 || len(points) <= 2 {
		return append([]float64(nil), points...)
	}
	out := make([]float64, 0, len(points)/stride+2)
	for i := 0; i < len(points); i += stride {
		out = append(out, points[i])
	}
	if (len(points)-1)%stride != 0 {
		out = append(out, points[len(points)-1])
	}
	return out
}

// MarketService serves the listing board.
type MarketService struct {
	catalog   *models.Catalog
	refresher *Refresher
}

func NewMarketService(catalog *models.Catalog, refresher *Refresher) *MarketService {
	return &MarketService{catalog: catalog, refresher: refresher}
}

// View returns the current listing in mode.
func (s *MarketService) View(mode string) MarketView {
	return BuildMarketView(s.refresher.Board().State(), mode, s.refresher.Limit())
}

// Refresh triggers a manual refresh and returns the resulting view. A fetch
// failure is reported through the view's Error and the returned error.
func (s *MarketService) Refresh(ctx context.Context, mode string) (MarketView, error) {
	_, err := s.refresher.Refresh(ctx)
	return s.View(mode), err
}

// SetLimit changes the listing size and refreshes.
func (s *MarketService) SetLimit(ctx context.Context, limit int, mode string) (MarketView, error) {
	if !s.catalog.ListingSizeAllowed(limit) {
		return MarketView{}, fmt.Errorf("%w: %d", models.ErrUnsupportedListing, limit)
	}
	s.refresher.SetLimit(limit)
	return s.Refresh(ctx, mode)
}
