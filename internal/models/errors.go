package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork covers fetch and decode failures of upstream data
	ErrNetwork = errors.New("network failure")
	// ErrAuth covers signing, key parsing and rejected connect attempts
	ErrAuth = errors.New("auth failure")
	// ErrOrderRejected is returned when the exchange refuses an order
	ErrOrderRejected = errors.New("order rejected")
	// ErrMalformedEstimate is returned when estimator output has no usable recommendation
	ErrMalformedEstimate = errors.New("malformed estimate")
	// ErrInsufficientData is returned when there are fewer candles than the warmup needs
	ErrInsufficientData = errors.New("insufficient data")
)

// OrderRejectedError carries the exchange-side reason of a rejected order
type OrderRejectedError struct {
	Status  int
	Message string
}

func (e *OrderRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("order rejected: status %d", e.Status)
	}
	return fmt.Sprintf("order rejected: status %d: %s", e.Status, e.Message)
}

func (e *OrderRejectedError) Unwrap() error { return ErrOrderRejected }
