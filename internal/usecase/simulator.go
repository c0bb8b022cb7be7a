package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"CryptoCompass/internal/domain/models"
	drepo "CryptoCompass/internal/domain/repository"
	"CryptoCompass/pkg/format"
	applogger "CryptoCompass/pkg/logger"
)

// Simulate computes the outcome of buying amount worth of an asset at the first
// sample and holding it until the last one.
func Simulate(samples []models.PricePoint, amount float64) (models.SimulationResult, error) {
	if len(samples) < 2 {
		return models.SimulationResult{}, fmt.Errorf("%w: got %d samples", models.ErrInsufficientData, len(samples))
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return models.SimulationResult{}, fmt.Errorf("%w: %v", models.ErrInvalidAmount, amount)
	}

	initial := samples[0].Price
	current := samples[len(samples)-1].Price
	if !(initial > 0) || math.IsInf(initial, 0) {
		return models.SimulationResult{}, fmt.Errorf("%w: initial price %v", models.ErrInvalidPrice, initial)
	}
	if math.IsNaN(current) || math.IsInf(current, 0) || current < 0 {
		return models.SimulationResult{}, fmt.Errorf("%w: current price %v", models.ErrInvalidPrice, current)
	}

	units := amount / initial
	value := units * current
	profit := value - amount
	profitPct := profit / amount * 100
	changePct := (current - initial) / initial * 100
	for _, v := range []float64{units, value, profit, profitPct, changePct} {
		if !finiteFloat(v) {
			return models.SimulationResult{}, fmt.Errorf("%w: %v -> %v out of range", models.ErrInvalidPrice, initial, current)
		}
	}

	return models.SimulationResult{
		InitialPrice:       initial,
		CurrentPrice:       current,
		InitialValue:       amount,
		CurrentValue:       value,
		Profit:             profit,
		ProfitPercent:      profitPct,
		UnitsOwned:         units,
		PriceChangePercent: changePct,
		Gain:               format.Gain(initial, current),
	}, nil
}

func finiteFloat(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SimulationDisplay carries the rendered strings for a result.
type SimulationDisplay struct {
	InitialPrice       string `json:"initial_price"`
	CurrentPrice       string `json:"current_price"`
	InitialValue       string `json:"initial_value"`
	CurrentValue       string `json:"current_value"`
	Profit             string `json:"profit"`
	ProfitPercent      string `json:"profit_percent"`
	UnitsOwned         string `json:"units_owned"`
	PriceChangePercent string `json:"price_change_percent"`
}

// SimulationReport is the simulator endpoint payload.
type SimulationReport struct {
	Asset   models.SimulatorAsset   `json:"asset"`
	Window  models.LookbackWindow   `json:"window"`
	From    time.Time               `json:"from"`
	To      time.Time               `json:"to"`
	Samples int                     `json:"samples"`
	Result  models.SimulationResult `json:"result"`
	Display SimulationDisplay       `json:"display"`
}

// Render builds the display strings. The sign shown on profit and on the
// price change both come from r.Gain.
func Render(r models.SimulationResult) SimulationDisplay {
	profit := format.Currency(math.Abs(r.Profit))
	if r.Gain {
		profit = "+" + profit
	} else {
		profit = "-" + profit
	}
	return SimulationDisplay{
		InitialPrice:       format.Price(r.InitialPrice),
		CurrentPrice:       format.Price(r.CurrentPrice),
		InitialValue:       format.Currency(r.InitialValue),
		CurrentValue:       format.Currency(r.CurrentValue),
		Profit:             profit,
		ProfitPercent:      signedPercent(r.ProfitPercent, r.Gain),
		UnitsOwned:         format.Quantity(r.UnitsOwned),
		PriceChangePercent: signedPercent(r.PriceChangePercent, r.Gain),
	}
}

func signedPercent(v float64, gain bool) string {
	s := format.SignedPercent1(math.Abs(v))
	if s == format.NotAvailable {
		return s
	}
	if !gain {
		return "-" + strings.TrimPrefix(s, "+")
	}
	return s
}

// SimulationService fetches history and runs Simulate. Nothing is cached:
// every call refetches the full window.
type SimulationService struct {
	catalog *models.Catalog
	source  drepo.MarketData
	metrics drepo.Metrics
	log     *applogger.Logger
}

func NewSimulationService(catalog *models.Catalog, source drepo.MarketData, metrics drepo.Metrics, l *applogger.Logger) *SimulationService {
	if l == nil {
		l = applogger.Nop()
	}
	return &SimulationService{catalog: catalog, source: source, metrics: metrics, log: l.Component("simulator")}
}

// Run resolves the asset and window (zero/empty select the defaults) and
// simulates amount.
func (s *SimulationService) Run(ctx context.Context, assetKey string, days int, amount float64) (*SimulationReport, error) {
	asset, window, err := s.resolve(assetKey, days)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAmount, amount)
	}

	start := time.Now()
	samples, err := s.source.History(ctx, asset.ID, window.Days)
	if s.metrics != nil {
		s.metrics.RecordLatency("history_fetch", time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordFetch("history", "error")
		}
		s.log.Warn("history fetch failed", applogger.String("asset", asset.ID), applogger.Int("days", window.Days), applogger.Error(err))
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordFetch("history", "ok")
	}

	res, err := Simulate(samples, amount)
	if err != nil {
		return nil, err
	}

	return &SimulationReport{
		Asset:   asset,
		Window:  window,
		From:    samples[0].Timestamp,
		To:      samples[len(samples)-1].Timestamp,
		Samples: len(samples),
		Result:  res,
		Display: Render(res),
	}, nil
}

func (s *SimulationService) resolve(assetKey string, days int) (models.SimulatorAsset, models.LookbackWindow, error) {
	if strings.TrimSpace(assetKey) == "" && len(s.catalog.SimulatorAssets) > 0 {
		assetKey = s.catalog.SimulatorAssets[0].ID
	}
	asset, err := s.catalog.Asset(assetKey)
	if err != nil {
		return models.SimulatorAsset{}, models.LookbackWindow{}, err
	}
	if days == 0 {
		days = s.catalog.DefaultWindowDays
	}
	window, err := s.catalog.Window(days)
	if err != nil {
		return models.SimulatorAsset{}, models.LookbackWindow{}, err
	}
	return asset, window, nil
}

// SimulatorOptions lists what a client can choose from.
type SimulatorOptions struct {
	Assets            []models.SimulatorAsset `json:"assets"`
	Windows           []models.LookbackWindow `json:"windows"`
	DefaultWindowDays int                     `json:"default_window_days"`
	AmountPresets     []float64               `json:"amount_presets"`
}

func (s *SimulationService) Options() SimulatorOptions {
	return SimulatorOptions{
		Assets:            append([]models.SimulatorAsset(nil), s.catalog.SimulatorAssets...),
		Windows:           append([]models.LookbackWindow(nil), s.catalog.Windows...),
		DefaultWindowDays: s.catalog.DefaultWindowDays,
		AmountPresets:     append([]float64(nil), s.catalog.AmountPresets...),
	}
}
