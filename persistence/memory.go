// persistence/memory.go
package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wfunc/impostor/models"
)

// Memory keeps history in process. Used when no database is configured and
// in tests.
type Memory struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.GameRecord
	order   []uuid.UUID
}

func NewMemory() *Memory {
	return &Memory{records: make(map[uuid.UUID]*models.GameRecord)}
}

func (m *Memory) SaveGameRecord(_ context.Context, record *models.GameRecord) error {
	if err := validate(record); err != nil {
		return err
	}
	cp := *record
	cp.Players = append([]models.PlayerInfo(nil), record.Players...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[cp.ID]; ok {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalidRecord, cp.ID)
	}
	m.records[cp.ID] = &cp
	m.order = append(m.order, cp.ID)
	return nil
}

func (m *Memory) LoadGameRecord(_ context.Context, id uuid.UUID) (*models.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *r
	cp.Players = append([]models.PlayerInfo(nil), r.Players...)
	return &cp, nil
}

func (m *Memory) PlayerStats(_ context.Context, playerID uint64) (*models.PlayerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &models.PlayerStats{}
	for _, id := range m.order {
		if p, ok := m.records[id].Player(playerID); ok {
			stats.Add(p)
		}
	}
	return stats, nil
}

func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

func (m *Memory) Close() error { return nil }
