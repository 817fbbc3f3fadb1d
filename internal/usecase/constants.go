package usecase

import "time"

const (
	// DefaultListLimit caps listing queries when the caller passes none.
	DefaultListLimit = 50

	// MaxListLimit is the hard ceiling for listing queries.
	MaxListLimit = 500

	// AggregationCacheTTL is how long a computed aggregation stays cached.
	// The cache key includes a hash of the input data, so a stale value can
	// never be served: any write changes the key.
	AggregationCacheTTL = 24 * time.Hour
)
