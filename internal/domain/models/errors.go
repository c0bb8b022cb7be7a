package models

import "errors"

var (
	// ErrFetchFailure covers every network error or non-success upstream response.
	ErrFetchFailure = errors.New("market data unavailable")
	// ErrInsufficientData is returned when fewer than two history samples exist.
	ErrInsufficientData = errors.New("insufficient price data")
	// ErrInvalidPrice is returned for zero, negative or non-finite reference prices.
	ErrInvalidPrice = errors.New("invalid reference price")
	// ErrInvalidAmount is returned for non-positive or non-finite investment amounts.
	ErrInvalidAmount = errors.New("invalid investment amount")

	ErrUnknownTemplate    = errors.New("unknown allocation template")
	ErrUnknownAsset       = errors.New("unknown asset")
	ErrUnsupportedWindow  = errors.New("unsupported lookback window")
	ErrUnsupportedListing = errors.New("unsupported listing size")
)
