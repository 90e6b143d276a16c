package strategy

import "errors"

var (
	// ErrInvalidSetup means the portfolio is missing brokerage linkage or
	// credentials. A rebalance is refused before any mutation.
	ErrInvalidSetup = errors.New("rebalance setup is invalid")

	// ErrInsufficientPosition means a sell would exceed the held quantity.
	// Rejected before any ledger mutation.
	ErrInsufficientPosition = errors.New("sell quantity exceeds held position")
)
