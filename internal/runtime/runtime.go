package runtime

import (
	"context"
	"time"

	"github.com/vinodismyname/storepulse/config"
	"golang.org/x/sync/semaphore"
)

// Limits captures the concurrency and dataset guardrails configured for the server.
type Limits struct {
	// Concurrency caps
	MaxConcurrentRequests int `json:"max_concurrent_requests"`
	MaxOpenDatasets       int `json:"max_open_datasets"`

	// Payload and row bounds
	MaxPayloadBytes int `json:"max_payload_bytes"`
	MaxRowsPerPage  int `json:"max_rows_per_page"`
	PageSize        int `json:"page_size"`

	// Timeouts
	OperationTimeout      time.Duration `json:"operation_timeout"`
	AcquireRequestTimeout time.Duration `json:"acquire_request_timeout"`
}

// NewLimits initializes Limits with defaults from config when values are unset.
func NewLimits(maxConcurrentRequests, maxOpenDatasets int) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if maxOpenDatasets <= 0 {
		maxOpenDatasets = config.DefaultMaxOpenDatasets
	}

	return Limits{
		MaxConcurrentRequests: maxConcurrentRequests,
		MaxOpenDatasets:       maxOpenDatasets,
		MaxPayloadBytes:       config.DefaultMaxPayloadBytes,
		MaxRowsPerPage:        config.DefaultMaxRowsPerPage,
		PageSize:              config.DefaultPageSize,
		OperationTimeout:      config.DefaultOperationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
	}
}

// ClampPageSize bounds a requested page size to (0, MaxRowsPerPage], using PageSize
// when n is unset.
func (l Limits) ClampPageSize(n int) int {
	if n <= 0 {
		n = l.PageSize
	}
	if l.MaxRowsPerPage > 0 && n > l.MaxRowsPerPage {
		n = l.MaxRowsPerPage
	}
	return n
}

// Controller coordinates runtime semaphores for request and dataset guardrails.
type Controller struct {
	limits           Limits
	requestSemaphore *semaphore.Weighted
	datasetSemaphore *semaphore.Weighted
}

// NewController constructs a Controller backed by weighted semaphores.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:           limits,
		requestSemaphore: semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		datasetSemaphore: semaphore.NewWeighted(int64(limits.MaxOpenDatasets)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// AcquireDataset reserves an open dataset slot.
func (c *Controller) AcquireDataset(ctx context.Context) error {
	return c.datasetSemaphore.Acquire(ctx, 1)
}

// ReleaseDataset frees an open dataset slot.
func (c *Controller) ReleaseDataset() {
	c.datasetSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for telemetry and discovery.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}
