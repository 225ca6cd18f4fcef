package datastores

import (
	_ "encoding" // for documentation links to [encoding]
	"encoding/base32"

	"github.com/google/uuid"
)

// uuid32 is [uuid.UUID] but uses unpadded [base32.HexEncoding] for text
// marshaling, which keeps the byte order when texts are compared.
type uuid32 struct{ uuid.UUID }

var uuid32Encoding = base32.HexEncoding.WithPadding(base32.NoPadding) //nolint: gochecknoglobals,nolintlint

func (id *uuid32) initV7() *uuid32 { id.UUID = uuid.Must(uuid.NewV7()); return id }

// AppendText implements [encoding.TextAppender].
func (id *uuid32) AppendText(b []byte) ([]byte, error) {
	return uuid32Encoding.AppendEncode(b, id.UUID[:]), nil
}

// MarshalText implements [encoding.TextMarshaler].
func (id *uuid32) MarshalText() ([]byte, error) {
	return id.AppendText(nil)
}

// UUIDs generates record ids for every collection.
//
// Ids are version 7 UUIDs: unique, ordered by creation time, and their
// base32hex text sorts in the same order.
type UUIDs struct{}

func (UUIDs) NewID() string {
	b, _ := new(uuid32).initV7().MarshalText() //nolint: errcheck // never fails
	return string(b)
}
