package usecase

import (
	"context"
	"math"
	"testing"

	"CryptoCompass/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateAllocationsSumsToAmount(t *testing.T) {
	catalog := models.DefaultCatalog()
	book := NewPriceBook(sampleAssets())

	for _, tpl := range catalog.AllTemplates() {
		for _, amount := range []float64{0.01, 1000, 1234.56, 987654321.12} {
			got := CalculateAllocations(tpl, amount, book)
			require.Len(t, got, len(tpl.Allocations))

			var sum float64
			for _, a := range got {
				sum += a.Amount
			}
			assert.LessOrEqual(t, math.Abs(sum-amount)/amount, 1e-9, "%s %v", tpl.Key, amount)
		}
	}
}

func TestCalculateAllocationsQuantities(t *testing.T) {
	catalog := models.DefaultCatalog()
	tpl, err := catalog.Template("balanced")
	require.NoError(t, err)

	got := CalculateAllocations(tpl, 10000, NewPriceBook(sampleAssets()))

	byMap := map[string]models.CalculatedAllocation{}
	for _, a := range got {
		byMap[a.Symbol] = a
	}
	assert.InDelta(t, 4000, byMap["BTC"].Amount, 1e-9)
	assert.InDelta(t, 0.08, byMap["BTC"].Quantity, 1e-12)
	assert.Equal(t, 50000.0, byMap["BTC"].CurrentPrice)

	// SOL is not in the price book.
	assert.InDelta(t, 2000, byMap["SOL"].Amount, 1e-9)
	assert.Zero(t, byMap["SOL"].Quantity)
	assert.Zero(t, byMap["SOL"].CurrentPrice)
}

func TestCalculateAllocationsZeroPriceIsUnknown(t *testing.T) {
	tpl := models.AllocationTemplate{Allocations: []models.TemplateAllocation{{Symbol: "X", Percentage: 100}}}
	got := CalculateAllocations(tpl, 100, PriceBook{"X": 0})
	require.Len(t, got, 1)
	assert.Zero(t, got[0].Quantity)
	assert.Zero(t, got[0].CurrentPrice)
}

func TestCalculateAllocationsEmptyForBadAmount(t *testing.T) {
	catalog := models.DefaultCatalog()
	tpl, err := catalog.Template("aggressive")
	require.NoError(t, err)
	for _, amount := range []float64{0, -100, math.NaN(), math.Inf(1)} {
		got := CalculateAllocations(tpl, amount, nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestNewPriceBookHigherRankWins(t *testing.T) {
	book := NewPriceBook([]models.Asset{
		{Symbol: "abc", CurrentPrice: 2, Rank: 40},
		{Symbol: "ABC", CurrentPrice: 1, Rank: 7},
		{Symbol: "abc", CurrentPrice: 3, Rank: 45},
	})
	p, ok := book.Lookup("Abc")
	require.True(t, ok)
	assert.Equal(t, 1.0, p)
}

type staticPrices struct{ st BoardState }

func (s staticPrices) State() BoardState { return s.st }

func TestAllocationServiceAllocate(t *testing.T) {
	catalog := models.DefaultCatalog()
	board := NewBoard("prices")
	seq := board.Begin()
	require.True(t, board.Commit(context.Background(), seq, sampleAssets(), fixedNow))

	svc := NewAllocationService(&catalog, board)

	res, err := svc.Allocate("", "1,000")
	require.NoError(t, err)
	assert.Equal(t, "balanced", res.Template.Key)
	assert.Equal(t, 1000.0, res.Amount)
	assert.Len(t, res.Allocations, 4)
	require.NotNil(t, res.PricesAsOf)
	assert.Equal(t, fixedNow, *res.PricesAsOf)

	for _, raw := range []string{"0", "-5", "abc", ""} {
		res, err := svc.Allocate("Conservative", raw)
		require.NoError(t, err)
		assert.Empty(t, res.Allocations, raw)
	}

	_, err = svc.Allocate("yolo", "100")
	assert.ErrorIs(t, err, models.ErrUnknownTemplate)
}

func TestAllocationServiceKeepsPricesOnFailure(t *testing.T) {
	catalog := models.DefaultCatalog()
	prices := staticPrices{st: BoardState{
		Snapshot: &models.MarketSnapshot{Assets: sampleAssets(), FetchedAt: fixedNow},
		Error:    FetchFailureMessage,
	}}
	res, err := NewAllocationService(&catalog, prices).Allocate("conservative", "100")
	require.NoError(t, err)
	assert.Equal(t, FetchFailureMessage, res.PriceError)
	assert.Equal(t, 50000.0, res.Allocations[0].CurrentPrice)
}
