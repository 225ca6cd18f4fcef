package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	ds "github.com/oaiiae/huma-phonebook/datastores"
)

// Contacts moves contacts between the active and the deleted sets.
//
// Writers hold mu exclusively for the whole read-modify-write, readers
// share it, so a moved record is never seen in both sets or in neither.
type Contacts struct {
	store ds.RecordStore
	ids   IDGenerator
	mu    sync.RWMutex
}

func NewContacts(store ds.RecordStore, ids IDGenerator) *Contacts {
	return &Contacts{store: store, ids: ids}
}

type CreateParams struct {
	Name   string
	Phone  string
	Email  string
	SaveTo ds.SaveTo
}

// UpdateParams is a shallow merge: nil fields are left unchanged.
type UpdateParams struct {
	Name        *string
	Phone       *string
	Email       *string
	SaveTo      *ds.SaveTo
	IsFavourite *bool
	IsBlocked   *bool
}

func (s *Contacts) ListActive(ctx context.Context) ([]ds.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ds.Load(ctx, s.store, ds.Contacts)
}

func (s *Contacts) ListDeleted(ctx context.Context) ([]ds.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ds.Load(ctx, s.store, ds.DeletedContacts)
}

func (s *Contacts) Get(ctx context.Context, id string) (*ds.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active, err := ds.Load(ctx, s.store, ds.Contacts)
	if err != nil {
		return nil, err
	}
	i := indexOf(active, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: contact %q", ErrNotFound, id)
	}
	return &active[i], nil
}

func (s *Contacts) Create(ctx context.Context, params CreateParams) (*ds.Contact, error) {
	contact := ds.Contact{
		Name:   strings.TrimSpace(params.Name),
		Phone:  strings.TrimSpace(params.Phone),
		Email:  params.Email,
		SaveTo: params.SaveTo,
	}
	if err := validate(&contact); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := ds.Load(ctx, s.store, ds.Contacts)
	if err != nil {
		return nil, err
	}
	deleted, err := ds.Load(ctx, s.store, ds.DeletedContacts)
	if err != nil {
		return nil, err
	}
retry:
	contact.ID = s.ids.NewID()
	if indexOf(active, contact.ID) >= 0 || indexOf(deleted, contact.ID) >= 0 {
		goto retry
	}

	err = s.save(ctx, ds.Contacts, append(active, contact))
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (s *Contacts) Update(ctx context.Context, id string, params UpdateParams) (*ds.Contact, error) {
	return s.update(ctx, id, func(c *ds.Contact) {
		if params.Name != nil {
			c.Name = strings.TrimSpace(*params.Name)
		}
		if params.Phone != nil {
			c.Phone = strings.TrimSpace(*params.Phone)
		}
		if params.Email != nil {
			c.Email = *params.Email
		}
		if params.SaveTo != nil {
			c.SaveTo = *params.SaveTo
		}
		if params.IsFavourite != nil {
			c.IsFavourite = *params.IsFavourite
		}
		if params.IsBlocked != nil {
			c.IsBlocked = *params.IsBlocked
		}
	})
}

func (s *Contacts) ToggleFavourite(ctx context.Context, id string) (*ds.Contact, error) {
	return s.update(ctx, id, func(c *ds.Contact) { c.IsFavourite = !c.IsFavourite })
}

func (s *Contacts) ToggleBlock(ctx context.Context, id string) (*ds.Contact, error) {
	return s.update(ctx, id, func(c *ds.Contact) { c.IsBlocked = !c.IsBlocked })
}

// update applies merge to the active contact id and keeps its id.
func (s *Contacts) update(ctx context.Context, id string, merge func(*ds.Contact)) (*ds.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := ds.Load(ctx, s.store, ds.Contacts)
	if err != nil {
		return nil, err
	}
	i := indexOf(active, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: contact %q", ErrNotFound, id)
	}

	contact := active[i]
	merge(&contact)
	contact.ID = id
	if err := validate(&contact); err != nil {
		return nil, err
	}

	active[i] = contact
	err = s.save(ctx, ds.Contacts, active)
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (s *Contacts) Delete(ctx context.Context, id string) (*ds.Contact, error) {
	return s.move(ctx, id, ds.Contacts, ds.DeletedContacts)
}

func (s *Contacts) Restore(ctx context.Context, id string) (*ds.Contact, error) {
	return s.move(ctx, id, ds.DeletedContacts, ds.Contacts)
}

// move removes contact id from src and appends it unchanged to dst,
// saving both collections at once.
func (s *Contacts) move(ctx context.Context, id string, src, dst ds.Collection[ds.Contact]) (*ds.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, err := ds.Load(ctx, s.store, src)
	if err != nil {
		return nil, err
	}
	i := indexOf(from, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: contact %q in %s", ErrNotFound, id, src)
	}
	to, err := ds.Load(ctx, s.store, dst)
	if err != nil {
		return nil, err
	}

	contact := from[i]
	from = slices.Delete(from, i, i+1)
	to = append(slices.DeleteFunc(to, func(c ds.Contact) bool { return c.ID == id }), contact)

	srcDoc, err := src.Document(from)
	if err != nil {
		return nil, err
	}
	dstDoc, err := dst.Document(to)
	if err != nil {
		return nil, err
	}
	err = s.store.Save(ctx, srcDoc, dstDoc)
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (s *Contacts) save(ctx context.Context, c ds.Collection[ds.Contact], contacts []ds.Contact) error {
	doc, err := c.Document(contacts)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, doc)
}

// validate also stores an empty SaveTo as [ds.SaveToPhone].
func validate(c *ds.Contact) error {
	if c.SaveTo == "" {
		c.SaveTo = ds.SaveToPhone
	}
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case c.Phone == "":
		return fmt.Errorf("%w: phone is required", ErrValidation)
	case !c.SaveTo.Valid():
		return fmt.Errorf("%w: saveTo must be %q or %q", ErrValidation, ds.SaveToPhone, ds.SaveToSIM1)
	}
	return nil
}

func indexOf(contacts []ds.Contact, id string) int {
	return slices.IndexFunc(contacts, func(c ds.Contact) bool { return c.ID == id })
}
