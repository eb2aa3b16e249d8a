package history

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in memory. It is used when history is disabled
// on disk and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Record
	maxSize int
}

// NewMemoryStore creates a store that keeps at most maxSize records.
// maxSize <= 0 means unbounded.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{maxSize: maxSize}
}

// Record stores a copy of rec, evicting the oldest record when full
func (m *MemoryStore) Record(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prepare(rec)
	cp := *rec
	m.records = append(m.records, &cp)
	if m.maxSize > 0 && len(m.records) > m.maxSize {
		m.records = m.records[len(m.records)-m.maxSize:]
	}
	return nil
}

// RecordBatch stores every record
func (m *MemoryStore) RecordBatch(ctx context.Context, recs []*Record) (int, error) {
	for _, rec := range recs {
		if err := m.Record(ctx, rec); err != nil {
			return 0, err
		}
	}
	return len(recs), nil
}

// Query returns matching records, newest first
func (m *MemoryStore) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Record
	for i := len(m.records) - 1; i >= 0; i-- {
		rec := m.records[i]
		if filter.SessionID != "" && rec.SessionID != filter.SessionID {
			continue
		}
		if filter.Source != "" && rec.Source != filter.Source {
			continue
		}
		if filter.OnlyErrors && !rec.Failed() {
			continue
		}
		if filter.ErrorKind != "" && rec.ErrorKind != filter.ErrorKind {
			continue
		}
		if !filter.Since.IsZero() && rec.Timestamp.Before(filter.Since) {
			continue
		}
		cp := *rec
		result = append(result, &cp)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Stats returns statistics over the stored records
func (m *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{ByKind: make(map[string]int64)}
	sessions := make(map[string]struct{})
	for _, rec := range m.records {
		stats.Total++
		sessions[rec.SessionID] = struct{}{}
		if rec.Failed() {
			stats.Errors++
			stats.ByKind[rec.ErrorKind]++
		}
		if stats.First.IsZero() || rec.Timestamp.Before(stats.First) {
			stats.First = rec.Timestamp
		}
		if rec.Timestamp.After(stats.Last) {
			stats.Last = rec.Timestamp
		}
	}
	stats.Sessions = int64(len(sessions))
	return stats, nil
}

// Prune removes records older than the specified duration
func (m *MemoryStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	kept := m.records[:0]
	var deleted int64
	for _, rec := range m.records {
		if rec.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return deleted, nil
}

// Ping always succeeds
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
