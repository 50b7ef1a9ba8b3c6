package testutil

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deppfellow/calculator-api/internal/errs"
	"github.com/deppfellow/calculator-api/internal/model"
)

// MemoryStore is an in-memory calculation store.
type MemoryStore struct {
	mu      sync.Mutex
	records []model.Calculation
	clock   time.Time

	// AppendErr, when set, fails every Append.
	AppendErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *MemoryStore) Append(_ context.Context, c *model.Calculation) (*model.Calculation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendErr != nil {
		return nil, m.AppendErr
	}

	// Strictly increasing timestamps keep the newest-first order stable.
	m.clock = m.clock.Add(time.Second)

	stored := *c
	stored.ID = uuid.NewString()
	stored.CreatedAt = m.clock
	m.records = append(m.records, stored)
	return &stored, nil
}

func (m *MemoryStore) QueryByOwner(_ context.Context, owner string, limit int) ([]model.Calculation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.Calculation{}
	for _, r := range m.records {
		if r.UserID == owner {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) DeleteByID(_ context.Context, owner string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.records {
		if r.ID == id.String() && r.UserID == owner {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return errs.NewNotFoundError("Calculation not found", true, nil)
}

func (m *MemoryStore) DeleteByOwner(_ context.Context, owner string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	var removed int64
	for _, r := range m.records {
		if r.UserID == owner {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return removed, nil
}

func (m *MemoryStore) StatsByOwner(ctx context.Context, owner string) (*model.CalculationStats, error) {
	records, _ := m.QueryByOwner(ctx, owner, math.MaxInt)

	stats := &model.CalculationStats{Operations: map[string]int64{}}
	for _, r := range records {
		stats.Total++
		stats.Operations[r.Operation]++
	}
	if len(records) > 0 {
		last := records[0]
		stats.LastCalculation = &last
	}
	return stats, nil
}

// Len is the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
