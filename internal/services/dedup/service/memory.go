package service

import (
	"container/list"
	"context"
	"time"

	dom "flexcode/internal/services/dedup/domain"
)

// Memory is an in-process Store ordered by processing time
type Memory struct {
	order *list.List // of dom.Record, oldest first
	index map[string]*list.Element
}

// NewMemory returns an empty in-process store
func NewMemory() *Memory {
	return &Memory{order: list.New(), index: map[string]*list.Element{}}
}

// Get implements dom.Store
func (m *Memory) Get(_ context.Context, id string) (time.Time, bool, error) {
	el, ok := m.index[id]
	if !ok {
		return time.Time{}, false, nil
	}
	return el.Value.(dom.Record).ProcessedAt, true, nil
}

// Put implements dom.Store. Re-marking moves the record to the back
func (m *Memory) Put(_ context.Context, rec dom.Record) error {
	if el, ok := m.index[rec.MessageID]; ok {
		el.Value = rec
		m.order.MoveToBack(el)
		return nil
	}
	m.index[rec.MessageID] = m.order.PushBack(rec)
	return nil
}

// Evict implements dom.Store
func (m *Memory) Evict(_ context.Context, cutoff time.Time, maxCount int) (int, error) {
	n := 0
	for el := m.order.Front(); el != nil; el = m.order.Front() {
		rec := el.Value.(dom.Record)
		if !rec.ProcessedAt.Before(cutoff) && (maxCount <= 0 || m.order.Len() <= maxCount) {
			break
		}
		m.order.Remove(el)
		delete(m.index, rec.MessageID)
		n++
	}
	return n, nil
}

// Len implements dom.Store
func (m *Memory) Len(context.Context) (int, error) { return m.order.Len(), nil }
