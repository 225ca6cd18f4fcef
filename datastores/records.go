package datastores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type (
	SaveTo  string
	Contact struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Phone       string `json:"phone"`
		Email       string `json:"email"`
		SaveTo      SaveTo `json:"saveTo"`
		IsFavourite bool   `json:"isFavourite"`
		IsBlocked   bool   `json:"isBlocked"`
	}
	Call struct {
		ID     string `json:"id"`
		Number string `json:"number"`
		Time   string `json:"time"`
	}
)

const (
	SaveToPhone SaveTo = "phone"
	SaveToSIM1  SaveTo = "sim1"
)

// Valid reports whether s is one of the known storage tags.
func (s SaveTo) Valid() bool { return s == SaveToPhone || s == SaveToSIM1 }

// Document is the encoded content of a whole collection.
type Document struct {
	Collection string
	Data       []byte
}

// RecordStore keeps whole collections as opaque documents.
//
// Load on a collection that was never saved initializes it to an empty
// sequence and returns that. Save replaces every given document atomically:
// a later Load observes either the previous or the new document, never a
// partial write.
type RecordStore interface {
	Load(ctx context.Context, collection string) ([]byte, error)
	Save(ctx context.Context, docs ...Document) error
	Ping(ctx context.Context) error
	Close() error
}

// ErrUnavailable wraps every failure of the underlying storage medium.
var ErrUnavailable = errors.New("datastores: storage unavailable")

// emptyDocument is what an uninitialized collection holds.
var emptyDocument = []byte("[]\n") //nolint: gochecknoglobals,nolintlint

// Collection names a collection holding records of type T.
type Collection[T any] struct{ name string }

var ( //nolint: gochecknoglobals,nolintlint
	Contacts        = Collection[Contact]{"contacts"}
	DeletedContacts = Collection[Contact]{"deleted"}
	Calls           = Collection[Call]{"calls"}
)

func (c Collection[T]) String() string { return c.name }

// Document encodes records as an indented JSON array.
func (c Collection[T]) Document(records []T) (Document, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("encode %s: %w", c.name, err)
	}
	return Document{Collection: c.name, Data: append(data, '\n')}, nil
}

// Load reads and decodes the records of collection c.
func Load[T any](ctx context.Context, s RecordStore, c Collection[T]) ([]T, error) {
	data, err := s.Load(ctx, c.name)
	if err != nil {
		return nil, err
	}
	records := []T{}
	err = json.Unmarshal(data, &records)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, c.name, err)
	}
	return records, nil
}
