package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ds "github.com/oaiiae/huma-phonebook/datastores"
)

// Calls is the dial log, newest entry first.
type Calls struct {
	store ds.RecordStore
	ids   IDGenerator
	mu    sync.RWMutex
}

func NewCalls(store ds.RecordStore, ids IDGenerator) *Calls {
	return &Calls{store: store, ids: ids}
}

func (s *Calls) List(ctx context.Context) ([]ds.Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ds.Load(ctx, s.store, ds.Calls)
}

// Add prepends a call. time is stored as given.
func (s *Calls) Add(ctx context.Context, number, time string) (*ds.Call, error) {
	if strings.TrimSpace(number) == "" {
		return nil, fmt.Errorf("%w: number is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	calls, err := ds.Load(ctx, s.store, ds.Calls)
	if err != nil {
		return nil, err
	}

	call := ds.Call{ID: s.ids.NewID(), Number: number, Time: time}
	doc, err := ds.Calls.Document(append([]ds.Call{call}, calls...))
	if err != nil {
		return nil, err
	}
	err = s.store.Save(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// ClearAll empties the log. It cannot be undone.
func (s *Calls) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := ds.Calls.Document(nil)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, doc)
}
