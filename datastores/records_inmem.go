package datastores

import (
	"context"
	"slices"
	"sync"
)

// Inmem implements [RecordStore] in memory.
type Inmem struct {
	mu   sync.Mutex
	docs map[string][]byte
}

var _ RecordStore = (*Inmem)(nil)

func NewInmem(docs ...Document) *Inmem {
	m := make(map[string][]byte, len(docs))
	for _, d := range docs {
		m[d.Collection] = slices.Clone(d.Data)
	}
	return &Inmem{docs: m}
}

func (s *Inmem) Load(_ context.Context, collection string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[collection]
	if !ok {
		data = slices.Clone(emptyDocument)
		s.docs[collection] = data
	}
	return slices.Clone(data), nil
}

func (s *Inmem) Save(_ context.Context, docs ...Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		s.docs[d.Collection] = slices.Clone(d.Data)
	}
	return nil
}

func (s *Inmem) Ping(context.Context) error { return nil }

func (s *Inmem) Close() error { return nil }
