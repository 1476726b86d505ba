package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/storepulse/config"
	"github.com/vinodismyname/storepulse/internal/cleaning"
	"github.com/vinodismyname/storepulse/internal/dataset"
	"github.com/vinodismyname/storepulse/internal/features"
	"github.com/vinodismyname/storepulse/internal/schema"
	"github.com/vinodismyname/storepulse/pkg/apperr"
	"golang.org/x/sync/singleflight"
)

// Handle is a loaded, feature-augmented dataset plus metadata for TTL eviction and
// change detection. The table is never modified; a reload swaps it and bumps Version.
// mu guards table, report, version and the load metadata; the idle deadline is
// atomic so touching a handle never waits on its readers.
type Handle struct {
	ID       string
	Path     string
	ModTime  time.Time
	LoadedAt time.Time

	expires atomic.Int64
	table   *dataset.Table
	report  cleaning.Report
	version int64
	mu      sync.RWMutex
}

// DatasetGate coordinates capacity for open dataset handles (backed by runtime.Controller).
type DatasetGate interface {
	AcquireDataset(ctx context.Context) error
	ReleaseDataset()
}

// PathValidator abstracts filesystem path validation. Implementations should
// return a canonical absolute path if allowed, or an error when denied.
type PathValidator interface {
	ValidateOpenPath(path string) (string, error)
}

// ErrHandleNotFound indicates an unknown or expired handle ID.
var ErrHandleNotFound = &apperr.Error{Code: apperr.InvalidHandle, Message: "store: dataset handle not found"}

// Manager caches loaded datasets by handle. Caching only saves reloads; every read
// sees exactly what a fresh load of the same file would produce.
type Manager struct {
	mu           sync.RWMutex
	handles      map[string]*Handle
	byPath       map[string]string
	ttl          time.Duration
	cleanupEvery time.Duration
	clock        func() time.Time
	gate         DatasetGate
	validator    PathValidator
	schema       schema.Schema
	opening      singleflight.Group
	stopCh       chan struct{}
	cleanupWG    sync.WaitGroup
}

// NewManager constructs a manager with a TTL-bearing handle cache.
// Pass ttl or cleanupEvery <= 0 to use defaults from config.
// Gate can be nil for tests; clock defaults to time.Now when nil.
func NewManager(ttl, cleanupEvery time.Duration, gate DatasetGate, clock func() time.Time) *Manager {
	if ttl <= 0 {
		ttl = config.DefaultDatasetIdleTTL
	}
	if cleanupEvery <= 0 {
		cleanupEvery = config.DefaultDatasetCleanupPeriod
	}
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		handles:      make(map[string]*Handle),
		byPath:       make(map[string]string),
		ttl:          ttl,
		cleanupEvery: cleanupEvery,
		clock:        clock,
		gate:         gate,
		schema:       schema.Default(),
		stopCh:       make(chan struct{}),
	}
}

// SetValidator installs the path validator used by Open and GetOrOpenByPath.
func (m *Manager) SetValidator(v PathValidator) { m.validator = v }

// SetSchema replaces the column names used when loading files.
func (m *Manager) SetSchema(s schema.Schema) { m.schema = s }

// Start launches periodic eviction of expired handles.
func (m *Manager) Start() {
	m.cleanupWG.Add(1)
	ticker := time.NewTicker(m.cleanupEvery)
	go func() {
		defer m.cleanupWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.EvictExpired()
			}
		}
	}()
}

// Close stops background cleanup and drops all handles.
func (m *Manager) Close(ctx context.Context) error {
	close(m.stopCh)
	done := make(chan struct{})
	go func() { m.cleanupWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.handles {
		delete(m.handles, id)
		m.release()
	}
	clear(m.byPath)
	return nil
}

// Open loads the file at path, registers a handle and returns its ID. A path that
// already has a live handle keeps it.
func (m *Manager) Open(ctx context.Context, path string) (string, error) {
	canonical, err := m.canonical(path)
	if err != nil {
		return "", err
	}
	return m.open(ctx, canonical)
}

func (m *Manager) open(ctx context.Context, canonical string) (string, error) {
	if err := m.acquire(ctx); err != nil {
		return "", err
	}
	h, err := m.load(ctx, canonical)
	if err != nil {
		m.release()
		return "", err
	}
	h.ID = uuid.NewString()

	// A concurrent open of the same path may have registered first; keep its handle.
	m.mu.Lock()
	if id, ok := m.byPath[canonical]; ok {
		if _, live := m.handles[id]; live {
			m.mu.Unlock()
			m.release()
			return id, nil
		}
	}
	m.handles[h.ID] = h
	m.byPath[canonical] = h.ID
	m.mu.Unlock()
	return h.ID, nil
}

// Adopt registers an already cleaned table as a managed handle. The table gains time
// features if it has none.
func (m *Manager) Adopt(ctx context.Context, t *dataset.Table, rep cleaning.Report) (string, error) {
	if t == nil {
		return "", fmt.Errorf("store: nil table")
	}
	if err := m.acquire(ctx); err != nil {
		return "", err
	}
	now := m.clock()
	h := &Handle{
		ID:       uuid.NewString(),
		LoadedAt: now,
		table:    features.Ensure(t),
		report:   rep,
	}
	h.touch(now, m.ttl)
	m.mu.Lock()
	m.handles[h.ID] = h
	m.mu.Unlock()
	return h.ID, nil
}

// GetOrOpenByPath returns a live handle for path, opening it when none exists. A
// cached handle whose file changed on disk is reloaded in place and its version bumped.
func (m *Manager) GetOrOpenByPath(ctx context.Context, path string) (string, string, error) {
	canonical, err := m.canonical(path)
	if err != nil {
		return "", "", err
	}

	m.mu.RLock()
	id, ok := m.byPath[canonical]
	m.mu.RUnlock()
	if ok {
		h, live := m.Get(id)
		if live {
			if err := m.refresh(ctx, h); err != nil {
				return "", canonical, err
			}
			return id, canonical, nil
		}
	}

	// Concurrent first opens of one path share a single load.
	v, err, _ := m.opening.Do(canonical, func() (any, error) {
		return m.open(ctx, canonical)
	})
	if err != nil {
		return "", canonical, err
	}
	return v.(string), canonical, nil
}

// refresh reloads h when its file's modification time moved.
func (m *Manager) refresh(ctx context.Context, h *Handle) error {
	info, err := os.Stat(h.Path)
	if err != nil {
		return apperr.NewDataFormat("cannot stat "+h.Path, err)
	}
	h.mu.RLock()
	same := info.ModTime().Equal(h.ModTime)
	h.mu.RUnlock()
	if same {
		return nil
	}

	fresh, err := m.load(ctx, h.Path)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.table = fresh.table
	h.report = fresh.report
	h.ModTime = fresh.ModTime
	h.LoadedAt = fresh.LoadedAt
	h.version++
	h.mu.Unlock()
	zerolog.Ctx(ctx).Info().Str("dataset_id", h.ID).Str("path", h.Path).Msg("dataset reloaded after change")
	return nil
}

func (m *Manager) load(ctx context.Context, canonical string) (*Handle, error) {
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, apperr.NewDataFormat("cannot open "+canonical, err)
	}
	t, rep, err := cleaning.LoadFile(ctx, canonical, m.schema)
	if err != nil {
		return nil, err
	}
	now := m.clock()
	h := &Handle{
		Path:     canonical,
		ModTime:  info.ModTime(),
		LoadedAt: now,
		table:    features.DeriveTimeFeatures(t),
		report:   rep,
	}
	h.touch(now, m.ttl)
	return h, nil
}

func (m *Manager) canonical(path string) (string, error) {
	if m.validator != nil {
		return m.validator.ValidateOpenPath(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("store: abs path: %w", err)
	}
	return abs, nil
}

// Get returns the handle when present and refreshes its TTL.
func (m *Manager) Get(id string) (*Handle, bool) {
	m.mu.RLock()
	h, ok := m.handles[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	// Refresh TTL on access (idle timeout semantics)
	h.touch(m.clock(), m.ttl)
	return h, true
}

// WithRead runs fn with the handle's current table, cleaning report and version
// under a shared lock. fn must not call back into the manager for the same handle.
func (m *Manager) WithRead(id string, fn func(*dataset.Table, cleaning.Report, int64) error) error {
	h, ok := m.Get(id)
	if !ok {
		return ErrHandleNotFound
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fn(h.table, h.report, h.version)
}

// Report returns the cleaning report for a handle.
func (m *Manager) Report(id string) (cleaning.Report, error) {
	h, ok := m.Get(id)
	if !ok {
		return cleaning.Report{}, ErrHandleNotFound
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.report, nil
}

// CloseHandle removes a handle by ID, releasing capacity via the gate.
func (m *Manager) CloseHandle(_ context.Context, id string) error {
	m.mu.Lock()
	h, ok := m.handles[id]
	if ok {
		m.drop(h)
	}
	m.mu.Unlock()
	if !ok {
		return ErrHandleNotFound
	}
	m.release()
	return nil
}

// drop removes h from both indexes. Callers hold m.mu.
func (m *Manager) drop(h *Handle) {
	delete(m.handles, h.ID)
	if h.Path != "" && m.byPath[h.Path] == h.ID {
		delete(m.byPath, h.Path)
	}
}

// EvictExpired scans for expired handles and drops them.
func (m *Manager) EvictExpired() {
	now := m.clock()
	var expired []*Handle

	m.mu.RLock()
	for _, h := range m.handles {
		if h.Expired(now) {
			expired = append(expired, h)
		}
	}
	m.mu.RUnlock()

	// In-flight readers keep their table; it is immutable.
	for _, h := range expired {
		m.mu.Lock()
		_, still := m.handles[h.ID]
		if still {
			m.drop(h)
		}
		m.mu.Unlock()
		if still {
			m.release()
		}
	}
}

// Count returns the current number of cached handles.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

func (m *Manager) acquire(ctx context.Context) error {
	if m.gate == nil {
		return nil
	}
	return m.gate.AcquireDataset(ctx)
}

func (m *Manager) release() {
	if m.gate == nil {
		return
	}
	m.gate.ReleaseDataset()
}

// Expired reports whether the handle has reached its TTL.
func (h *Handle) Expired(now time.Time) bool {
	return now.After(h.ExpiresAt())
}

// ExpiresAt returns the idle deadline.
func (h *Handle) ExpiresAt() time.Time {
	return time.Unix(0, h.expires.Load())
}

func (h *Handle) touch(now time.Time, ttl time.Duration) {
	h.expires.Store(now.Add(ttl).UnixNano())
}

// Version returns how many times the handle was reloaded.
func (h *Handle) Version() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.version
}
