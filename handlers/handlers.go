package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/huma-phonebook/datastores"
	"github.com/oaiiae/huma-phonebook/services"
)

type handler[I, O any] = func(context.Context, *I) (*O, error)

// OpError is what handlers report to their error handler: the service
// error and the status answered for it. Both are reachable with
// [errors.Is] and [errors.As].
type OpError struct {
	Err    error
	Status huma.StatusError
}

func (e *OpError) Error() string   { return e.Err.Error() }
func (e *OpError) Unwrap() []error { return []error{e.Err, e.Status} }

// withErrors translates the errors of handler to status errors and
// reports them to do, if set.
func withErrors[I, O any](handler handler[I, O], do func(context.Context, error)) handler[I, O] {
	return func(ctx context.Context, i *I) (*O, error) {
		o, err := handler(ctx, i)
		if err == nil {
			return o, nil
		}
		opErr := &OpError{Err: err, Status: statusError(err)}
		if do != nil {
			do(ctx, opErr)
		}
		return nil, opErr.Status
	}
}

func opErrors(codes ...int) func(*huma.Operation) {
	return func(o *huma.Operation) { o.Errors = codes }
}

func statusError(err error) huma.StatusError {
	switch {
	case errors.Is(err, services.ErrValidation):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, services.ErrNotFound):
		return huma.Error404NotFound("id not found")
	case errors.Is(err, ds.ErrUnavailable):
		return huma.Error503ServiceUnavailable("storage unavailable")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}

type SuccessOutput struct {
	Body struct {
		Success bool `json:"success" example:"true"`
	}
}
