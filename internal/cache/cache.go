package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arvindpatil/dairyos/internal/domain/models"
)

// Freshness classifies a cache lookup. A Stale hit is still usable as a
// fallback when a refetch fails transiently.
type Freshness int

const (
	Miss Freshness = iota
	Stale
	Fresh
)

// Store is a short-lived read cache for upstream snapshots. Entries become
// stale after the freshness window and are evicted after the retention
// window; mutating operations invalidate affected keys immediately instead of
// waiting for expiry.
type Store interface {
	Get(ctx context.Context, key string, dest any) (Freshness, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// ConsumptionKey keys the authenticated customer's own records for a month.
func ConsumptionKey(month models.Month) string {
	return "consumption:self:" + month.String()
}

// BillKey keys one customer's bill for a month.
func BillKey(customerID uuid.UUID, month models.Month) string {
	return fmt.Sprintf("bill:%s:%s", customerID, month)
}

// MonthKeys lists every read key a bill mutation in that month invalidates.
func MonthKeys(customerID uuid.UUID, month models.Month) []string {
	return []string{
		BillKey(customerID, month),
		ConsumptionKey(month),
	}
}

type memoryEntry struct {
	payload   []byte
	fetchedAt time.Time
}

// MemoryStore is the in-process Store used when no Redis address is
// configured, and by tests. Values are stored as JSON so both backends share
// serialization behavior.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	freshness time.Duration
	retention time.Duration
	now       func() time.Time
}

// NewMemoryStore builds an in-process store with the given windows.
func NewMemoryStore(freshness, retention time.Duration) *MemoryStore {
	return NewMemoryStoreWithClock(freshness, retention, time.Now)
}

// NewMemoryStoreWithClock is NewMemoryStore with an injectable clock. Tests
// use it to age entries without sleeping.
func NewMemoryStoreWithClock(freshness, retention time.Duration, now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]memoryEntry),
		freshness: freshness,
		retention: retention,
		now:       now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string, dest any) (Freshness, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return Miss, nil
	}

	age := s.now().Sub(entry.fetchedAt)
	if age > s.retention {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return Miss, nil
	}

	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return Miss, fmt.Errorf("decode cached value for %s: %w", key, err)
	}
	if age > s.freshness {
		return Stale, nil
	}
	return Fresh, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %s: %w", key, err)
	}

	s.mu.Lock()
	s.entries[key] = memoryEntry{payload: payload, fetchedAt: s.now()}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) InvalidatePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
	return nil
}
