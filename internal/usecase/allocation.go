package usecase

import (
	"math"
	"strings"
	"time"

	"CryptoCompass/internal/domain/models"
	"CryptoCompass/pkg/util"
)

// PriceBook maps an uppercase symbol to its current USD price.
type PriceBook map[string]float64

// NewPriceBook indexes a listing by symbol. When two assets share a symbol the
// better-ranked one keeps the slot.
func NewPriceBook(assets []models.Asset) PriceBook {
	book := make(PriceBook, len(assets))
	ranks := make(map[string]int, len(assets))
	for _, a := range assets {
		sym := strings.ToUpper(strings.TrimSpace(a.Symbol))
		if sym == "" {
			continue
		}
		if r, seen := ranks[sym]; seen && r <= a.Rank {
			continue
		}
		ranks[sym] = a.Rank
		book[sym] = a.CurrentPrice
	}
	return book
}

// Lookup finds a price case-insensitively.
func (p PriceBook) Lookup(symbol string) (float64, bool) {
	v, ok := p[strings.ToUpper(strings.TrimSpace(symbol))]
	return v, ok
}

// CalculateAllocations splits amount across the template. A non-positive or
// non-finite amount yields an empty, non-nil slice. Assets without a usable
// price get Quantity 0 and CurrentPrice 0.
func CalculateAllocations(tpl models.AllocationTemplate, amount float64, prices PriceBook) []models.CalculatedAllocation {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return []models.CalculatedAllocation{}
	}

	out := make([]models.CalculatedAllocation, 0, len(tpl.Allocations))
	for _, a := range tpl.Allocations {
		c := models.CalculatedAllocation{
			TemplateAllocation: a,
			Amount:             amount * a.Percentage / 100,
		}
		if price, ok := prices.Lookup(a.Symbol); ok && price > 0 && !math.IsInf(price, 0) {
			c.CurrentPrice = price
			c.Quantity = c.Amount / price
		}
		out = append(out, c)
	}
	return out
}

// PriceSource exposes the latest price snapshot.
type PriceSource interface {
	State() BoardState
}

// AllocationResult is what the portfolio endpoint returns.
type AllocationResult struct {
	Template    models.AllocationTemplate     `json:"template"`
	Amount      float64                       `json:"amount"`
	Allocations []models.CalculatedAllocation `json:"allocations"`
	PricesAsOf  *time.Time                    `json:"prices_as_of,omitempty"`
	PriceError  string                        `json:"price_error,omitempty"`
}

// AllocationService recomputes allocations on every call from the catalog and
// the current price snapshot.
type AllocationService struct {
	catalog *models.Catalog
	prices  PriceSource
}

func NewAllocationService(catalog *models.Catalog, prices PriceSource) *AllocationService {
	return &AllocationService{catalog: catalog, prices: prices}
}

// Allocate resolves templateKey (empty means the catalog default) and splits
// the raw amount string across it.
func (s *AllocationService) Allocate(templateKey, rawAmount string) (*AllocationResult, error) {
	if strings.TrimSpace(templateKey) == "" {
		templateKey = s.catalog.DefaultTemplate
	}
	tpl, err := s.catalog.Template(templateKey)
	if err != nil {
		return nil, err
	}

	amount := util.ParseAmount(rawAmount)
	res := &AllocationResult{Template: tpl, Amount: amount}

	var book PriceBook
	if s.prices != nil {
		st := s.prices.State()
		res.PriceError = st.Error
		if st.Snapshot != nil {
			book = NewPriceBook(st.Snapshot.Assets)
			at := st.Snapshot.FetchedAt
			res.PricesAsOf = &at
		}
	}
	res.Allocations = CalculateAllocations(tpl, amount, book)
	return res, nil
}

// Templates returns the catalog's templates.
func (s *AllocationService) Templates() []models.AllocationTemplate {
	return s.catalog.AllTemplates()
}
