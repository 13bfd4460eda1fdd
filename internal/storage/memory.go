package storage

import (
	"sync"

	"github.com/google/uuid"

	"github.com/pable/go-fm-metrics/internal/model"
)

// Memory is an in-process RecordStore. Reads return copies.
type Memory struct {
	mu        sync.RWMutex
	squad     []model.PlayerRecord
	transfers []model.TransferRecord
	matches   []model.MatchStatRecord
	revision  int64
	id        string
}

var _ RecordStore = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{id: uuid.NewString()}
}

func (m *Memory) Squad() ([]model.PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.PlayerRecord, len(m.squad))
	for i, p := range m.squad {
		p.Positions = append([]string(nil), p.Positions...)
		out[i] = p
	}
	return out, nil
}

func (m *Memory) Transfers() ([]model.TransferRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.TransferRecord(nil), m.transfers...), nil
}

func (m *Memory) MatchStats() ([]model.MatchStatRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneMatches(m.matches), nil
}

func (m *Memory) WriteSquad(players []model.PlayerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.squad = append([]model.PlayerRecord(nil), players...)
	m.revision++
	return nil
}

func (m *Memory) WriteTransfers(transfers []model.TransferRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers = withIDs(transfers)
	m.revision++
	return nil
}

func (m *Memory) WriteMatchStats(stats []model.MatchStatRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches = cloneMatches(stats)
	m.revision++
	return nil
}

func (m *Memory) AppendSquad(players ...model.PlayerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.squad = append(m.squad, players...)
	m.revision++
	return nil
}

func (m *Memory) AppendTransfers(transfers ...model.TransferRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers = append(m.transfers, withIDs(transfers)...)
	m.revision++
	return nil
}

func (m *Memory) AppendMatchStats(stats ...model.MatchStatRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches = append(m.matches, cloneMatches(stats)...)
	m.revision++
	return nil
}

func (m *Memory) Revision() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision, nil
}

func cloneMatches(in []model.MatchStatRecord) []model.MatchStatRecord {
	out := make([]model.MatchStatRecord, len(in))
	for i, r := range in {
		r.Stats = r.Stats.Clone()
		out[i] = r
	}
	return out
}

func (m *Memory) StoreID() (string, error) {
	return m.id, nil
}
