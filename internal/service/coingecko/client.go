// Package coingecko reads the ranked market listing and price history from a
// CoinGecko-compatible REST API. Every failure is reported as
// models.ErrFetchFailure so callers only branch on one error class.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"CryptoCompass/internal/domain/models"
	drepo "CryptoCompass/internal/domain/repository"
	xhttp "CryptoCompass/pkg/http"
	applogger "CryptoCompass/pkg/logger"
	"CryptoCompass/pkg/util"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	apiKeyHeader   = "x-cg-demo-api-key"
)

// Option configures the client.
type Option func(*Client)

// Client implements repository.MarketData.
type Client struct {
	baseURL    string
	apiKey     string
	vsCurrency string
	timeout    time.Duration
	log        *applogger.Logger
	http       *xhttp.Client
}

var _ drepo.MarketData = (*Client)(nil)

// New creates a client. Without options it targets the public API in USD.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		vsCurrency: "usd",
		timeout:    10 * time.Second,
		log:        applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = xhttp.NewClient(
		xhttp.WithBaseURL(c.baseURL),
		xhttp.WithTimeout(c.timeout),
		xhttp.WithHeader(apiKeyHeader, c.apiKey),
	)
	return c
}

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithAPIKey sends the demo API key header on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithVsCurrency sets the quote currency.
func WithVsCurrency(cur string) Option {
	return func(c *Client) {
		if cur != "" {
			c.vsCurrency = cur
		}
	}
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l.Component("coingecko")
		}
	}
}

// marketRow is the upstream listing row; the sparkline arrives nested.
type marketRow struct {
	models.Asset
	SparklineIn7d *struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

type marketChart struct {
	Prices [][]float64 `json:"prices"`
}

// ListMarketsRaw returns the listing body exactly as upstream sent it.
func (c *Client) ListMarketsRaw(ctx context.Context, limit int) ([]byte, error) {
	var body []byte
	if err := c.get(ctx, "/coins/markets", c.marketsQuery(limit), &body); err != nil {
		return nil, fmt.Errorf("%w: list markets: %v", models.ErrFetchFailure, err)
	}
	return body, nil
}

// ListMarkets returns the top limit assets ordered by market cap.
func (c *Client) ListMarkets(ctx context.Context, limit int) ([]models.Asset, error) {
	body, err := c.ListMarketsRaw(ctx, limit)
	if err != nil {
		return nil, err
	}
	return DecodeMarkets(body)
}

// DecodeMarkets parses a listing body. Missing ranks are filled from position.
func DecodeMarkets(body []byte) ([]models.Asset, error) {
	var rows []marketRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode markets: %v", models.ErrFetchFailure, err)
	}

	assets := make([]models.Asset, 0, len(rows))
	for i, r := range rows {
		a := r.Asset
		if r.SparklineIn7d != nil {
			a.Sparkline7d = r.SparklineIn7d.Price
		}
		if a.Rank <= 0 {
			a.Rank = i + 1
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// History returns chronological samples for assetID over the last days.
func (c *Client) History(ctx context.Context, assetID string, days int) ([]models.PricePoint, error) {
	q := map[string][]string{
		"vs_currency": {c.vsCurrency},
		"days":        {strconv.Itoa(days)},
	}

	var chart marketChart
	if err := c.get(ctx, "/coins/"+url.PathEscape(assetID)+"/market_chart", q, &chart); err != nil {
		return nil, fmt.Errorf("%w: history %s: %v", models.ErrFetchFailure, assetID, err)
	}

	points := make([]models.PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		if len(p) < 2 || math.IsNaN(p[1]) || math.IsInf(p[1], 0) {
			return nil, fmt.Errorf("%w: history %s: malformed sample %v", models.ErrFetchFailure, assetID, p)
		}
		points = append(points, models.PricePoint{Timestamp: util.FromUnixMillis(p[0]), Price: p[1]})
	}
	return points, nil
}

func (c *Client) marketsQuery(limit int) map[string][]string {
	return map[string][]string{
		"vs_currency":             {c.vsCurrency},
		"order":                   {"market_cap_desc"},
		"per_page":                {strconv.Itoa(limit)},
		"page":                    {"1"},
		"sparkline":               {"true"},
		"price_change_percentage": {"24h,7d"},
	}
}

func (c *Client) get(ctx context.Context, path string, q map[string][]string, dest interface{}) error {
	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         path,
		QueryParams: q,
	}, dest)
	if err != nil {
		c.log.Warn("upstream request failed",
			applogger.String("path", path),
			applogger.Duration("duration_ms", time.Since(start)),
			applogger.Error(err),
		)
		return err
	}
	c.log.Debug("upstream request",
		applogger.String("path", path),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}
