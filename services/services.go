// Package services implements the contact lifecycle and the call log
// on top of a [datastores.RecordStore].
package services

import "errors"

var (
	ErrValidation = errors.New("services: validation failed")
	ErrNotFound   = errors.New("services: object not found")
)

// IDGenerator provides fresh record ids. A single generator serves both
// contacts and calls; see [datastores.UUIDs].
type IDGenerator interface {
	NewID() string
}
