package types

import "errors"

// Sentinel errors shared across components. Each component handles its own
// class locally and re-publishes a typed event; only unrecoverable errors
// propagate to shutdown.
var (
	// ErrBookCrossed reports best bid >= best ask after an update. The book
	// is paused until a fresh snapshot arrives.
	ErrBookCrossed = errors.New("order book crossed")

	// ErrSlippageExceeded reports adverse price movement between detection
	// and the pre-placement recheck.
	ErrSlippageExceeded = errors.New("slippage exceeded")

	// ErrRateLimited reports a dropped request under sliding-window
	// admission control.
	ErrRateLimited = errors.New("rate limited")
)
