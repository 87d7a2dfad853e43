package height

import "context"

// Height is a block count as reported by a single source.
type Height = uint32

// Source defines the interface for querying a block height from one place.
// This abstraction allows the poll loop to be driven by an HTTP-backed
// source in production and by fakes in tests.
//
// Implementations must be thread-safe.
type Source interface {
	// Height returns the latest block height reported by the source.
	// Returns an error if the height cannot be fetched or extracted.
	Height(ctx context.Context) (Height, error)
}

// Rule extracts a height from a response body.
type Rule interface {
	// Extract parses body into a height.
	Extract(body string) (Height, error)

	// String describes the rule for logs.
	String() string
}
