package config

import "time"

// Default runtime limits and guardrails for the storepulse tool server.
// They are referenced by internal/runtime and internal/store.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxOpenDatasets       = 2

	// Payload and row limits
	DefaultMaxPayloadBytes = 128 * 1024 // 128KB
	DefaultMaxRowsPerPage  = 1_000
	DefaultPageSize        = 200
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second

	// Dataset handle cache
	DefaultDatasetIdleTTL       = 15 * time.Minute
	DefaultDatasetCleanupPeriod = time.Minute
)
