package repository

import (
	"context"
	"sync"

	"github.com/leyiUPM/emotion/pkg/interfaces"
	"github.com/leyiUPM/emotion/pkg/model"
)

// Memory keeps the serialized history in process. Data goes through the same codec as
// the durable backends so round trips behave identically.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

var _ interfaces.HistoryRepository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryWithData returns a repository preloaded with raw persisted bytes
func NewMemoryWithData(data []byte) *Memory {
	return &Memory{data: data}
}

func (m *Memory) LoadPredictions(ctx context.Context) ([]*model.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Decode(m.data)
}

func (m *Memory) SavePredictions(ctx context.Context, preds []*model.Prediction) error {
	data, err := Encode(preds)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

// Raw returns the currently persisted bytes
func (m *Memory) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}
