package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ds "github.com/oaiiae/huma-phonebook/datastores"
)

func newContacts(t *testing.T) *Contacts {
	t.Helper()
	return NewContacts(ds.NewInmem(), ds.UUIDs{})
}

func ptr[T any](v T) *T { return &v }

func TestContactsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newContacts(t)

	created, err := s.Create(ctx, CreateParams{Name: "Ava", Phone: "9998887777"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.IsFavourite)
	assert.False(t, created.IsBlocked)
	assert.Equal(t, ds.SaveToPhone, created.SaveTo)
	assert.Empty(t, created.Email)

	deleted, err := s.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, deleted)

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	trash, err := s.ListDeleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ds.Contact{*created}, trash)

	restored, err := s.Restore(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, restored)

	active, err = s.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ds.Contact{*created}, active)
	trash, err = s.ListDeleted(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func TestContactsCreate(t *testing.T) {
	ctx := context.Background()
	s := newContacts(t)

	seen := map[string]bool{}
	for i := range 20 {
		c, err := s.Create(ctx, CreateParams{Name: fmt.Sprint("name", i), Phone: fmt.Sprint(5550000000 + i)})
		require.NoError(t, err)
		assert.False(t, seen[c.ID], "id %s reused", c.ID)
		seen[c.ID] = true

		active, err := s.ListActive(ctx)
		require.NoError(t, err)
		matches := 0
		for _, a := range active {
			if a.Name == c.Name && a.Phone == c.Phone {
				matches++
				assert.Equal(t, c.ID, a.ID)
			}
		}
		assert.Equal(t, 1, matches)
	}

	c, err := s.Create(ctx, CreateParams{Name: "  Bob ", Phone: "12", Email: "bob@example.com", SaveTo: ds.SaveToSIM1})
	require.NoError(t, err)
	assert.Equal(t, "Bob", c.Name)
	assert.Equal(t, "12", c.Phone, "malformed numbers are accepted")
	assert.Equal(t, "bob@example.com", c.Email)
	assert.Equal(t, ds.SaveToSIM1, c.SaveTo)
}

func TestContactsCreateValidation(t *testing.T) {
	ctx := context.Background()
	s := newContacts(t)

	for _, params := range []CreateParams{
		{Name: "", Phone: "9998887777"},
		{Name: "   ", Phone: "9998887777"},
		{Name: "Ava", Phone: ""},
		{Name: "Ava", Phone: "\t"},
		{Name: "Ava", Phone: "9998887777", SaveTo: "sim2"},
	} {
		_, err := s.Create(ctx, params)
		assert.ErrorIs(t, err, ErrValidation, "%+v", params)
	}

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestContactsUpdate(t *testing.T) {
	ctx := context.Background()
	s := newContacts(t)

	c, err := s.Create(ctx, CreateParams{Name: "Ava", Phone: "9998887777", Email: "ava@example.com"})
	require.NoError(t, err)

	updated, err := s.Update(ctx, c.ID, UpdateParams{IsFavourite: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsFavourite)

	updated, err = s.Update(ctx, c.ID, UpdateParams{Name: ptr("X")})
	require.NoError(t, err)
	assert.Equal(t, ds.Contact{
		ID:          c.ID,
		Name:        "X",
		Phone:       "9998887777",
		Email:       "ava@example.com",
		SaveTo:      ds.SaveToPhone,
		IsFavourite: true,
	}, *updated)

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = s.Update(ctx, c.ID, UpdateParams{Name: ptr(" ")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.Update(ctx, c.ID, UpdateParams{SaveTo: ptr(ds.SaveTo("cloud"))})
	assert.ErrorIs(t, err, ErrValidation)

	got, err = s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got, "failed updates change nothing")

	updated, err = s.Update(ctx, c.ID, UpdateParams{SaveTo: ptr(ds.SaveToSIM1)})
	require.NoError(t, err)
	assert.Equal(t, ds.SaveToSIM1, updated.SaveTo)
	updated, err = s.Update(ctx, c.ID, UpdateParams{SaveTo: ptr(ds.SaveTo(""))})
	require.NoError(t, err)
	assert.Equal(t, ds.SaveToPhone, updated.SaveTo, "empty saveTo means phone")
	got, err = s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, ds.SaveToPhone, got.SaveTo)
}

func TestContactsUpdateNormalisesLegacySaveTo(t *testing.T) {
	ctx := context.Background()
	doc, err := ds.Contacts.Document([]ds.Contact{{ID: "legacy", Name: "Ava", Phone: "9998887777"}})
	require.NoError(t, err)
	s := NewContacts(ds.NewInmem(doc), ds.UUIDs{})

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active[0].SaveTo, "legacy records load as stored")

	c, err := s.ToggleFavourite(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, ds.SaveToPhone, c.SaveTo)
}

func TestContactsNotFound(t *testing.T) {
	ctx := context.Background()
	s := newContacts(t)

	c, err := s.Create(ctx, CreateParams{Name: "Ava", Phone: "9998887777"})
	require.NoError(t, err)

	_, err = s.Update(ctx, "missing", UpdateParams{Name: ptr("X")})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Restore(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound, "restore needs a deleted contact")

	_, err = s.Delete(ctx, c.ID)
	require.NoError(t, err)
	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	trash, err := s.ListDeleted(ctx)
	require.NoError(t, err)

	_, err = s.Delete(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Update(ctx, c.ID, UpdateParams{Name: ptr("X")})
	assert.ErrorIs(t, err, ErrNotFound, "deleted contacts cannot be edited")
	_, err = s.ToggleFavourite(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	activeAfter, err := s.ListActive(ctx)
	require.NoError(t, err)
	trashAfter, err := s.ListDeleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, active, activeAfter)
	assert.Equal(t, trash, trashAfter)
}

func TestContactsFlagsSurviveDeletion(t *testing.T) {
	ctx := context.Background()
	s := newContacts(t)

	a, err := s.Create(ctx, CreateParams{Name: "Ava", Phone: "9998887777"})
	require.NoError(t, err)
	b, err := s.Create(ctx, CreateParams{Name: "Bob", Phone: "5551234567"})
	require.NoError(t, err)

	a, err = s.ToggleFavourite(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, a.IsFavourite)
	a, err = s.ToggleBlock(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, a.IsBlocked)

	_, err = s.Delete(ctx, a.ID)
	require.NoError(t, err)
	restored, err := s.Restore(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, restored)

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ds.Contact{*b, *a}, active, "restored contacts go last")

	a, err = s.ToggleFavourite(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, a.IsFavourite)
	assert.True(t, a.IsBlocked)
}

func TestContactsConcurrentDeletes(t *testing.T) {
	ctx := context.Background()
	store, err := ds.OpenFiles(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	defer store.Close()
	s := NewContacts(store, ds.UUIDs{})

	const n = 20
	ids := make([]string, 0, n)
	for i := range n {
		c, err := s.Create(ctx, CreateParams{Name: fmt.Sprint("name", i), Phone: fmt.Sprint(i + 1)})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Delete(ctx, id)
			assert.NoError(t, err)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ListActive(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	trash, err := s.ListDeleted(ctx)
	require.NoError(t, err)
	assert.Len(t, trash, n)
}

func TestContactsConcurrentCreateAndRestore(t *testing.T) {
	ctx := context.Background()
	store, err := ds.OpenFiles(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	defer store.Close()
	s := NewContacts(store, ds.UUIDs{})

	const n = 15
	deleted := make([]string, 0, n)
	for i := range n {
		c, err := s.Create(ctx, CreateParams{Name: fmt.Sprint("old", i), Phone: fmt.Sprint(i + 1)})
		require.NoError(t, err)
		_, err = s.Delete(ctx, c.ID)
		require.NoError(t, err)
		deleted = append(deleted, c.ID)
	}

	var wg sync.WaitGroup
	for i, id := range deleted {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Restore(ctx, id)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, CreateParams{Name: fmt.Sprint("new", i), Phone: fmt.Sprint(100 + i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2*n, "every create and every restore is kept")
	for _, id := range deleted {
		assert.GreaterOrEqual(t, indexOf(active, id), 0, "restored %s", id)
	}
	trash, err := s.ListDeleted(ctx)
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func TestContactsStoreFailure(t *testing.T) {
	ctx := context.Background()
	s := NewContacts(failingStore{}, ds.UUIDs{})

	_, err := s.ListActive(ctx)
	assert.ErrorIs(t, err, ds.ErrUnavailable)
	_, err = s.Create(ctx, CreateParams{Name: "Ava", Phone: "9998887777"})
	assert.ErrorIs(t, err, ds.ErrUnavailable)
	_, err = s.Delete(ctx, "x")
	assert.ErrorIs(t, err, ds.ErrUnavailable)
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("%w: disk gone", ds.ErrUnavailable)
}

func (failingStore) Save(context.Context, ...ds.Document) error {
	return fmt.Errorf("%w: disk gone", ds.ErrUnavailable)
}

func (failingStore) Ping(context.Context) error { return ds.ErrUnavailable }

func (failingStore) Close() error { return nil }
