package service

import (
	"errors"

	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/source"
	"github.com/folioapp/folio-server/internal/store"
)

// storeError maps store failures onto domain errors. Unknown failures are
// returned unchanged and end up as INTERNAL at the API edge.
func storeError(err error, what, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s %s not found", what, id).WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExistsf("%s %s already exists", what, id).WithCause(err)
	case errors.Is(err, store.ErrInvalidInput):
		msg := "invalid " + what
		var se *store.Error
		if errors.As(err, &se) {
			msg = se.Message
		}
		return domainerrors.Wrap(err, domainerrors.CodeValidation, msg)
	default:
		return err
	}
}

// adapterError maps a source failure onto a domain error.
func adapterError(src source.Source, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, source.ErrInvalidResponse):
		return domainerrors.Wrapf(err, domainerrors.CodeAdapterResponse, "%s returned an unexpected response", src)
	case errors.Is(err, source.ErrNotFound):
		return domainerrors.NotFoundf("book not found on %s", src).WithCause(err)
	case errors.Is(err, source.ErrBadRequest):
		return domainerrors.Wrapf(err, domainerrors.CodeValidation, "%s rejected the request", src)
	case errors.Is(err, source.ErrUnsupported):
		return domainerrors.UnsupportedOperationf("%s does not support this operation", src).WithCause(err)
	default:
		return domainerrors.Wrapf(err, domainerrors.CodeUnavailable, "%s is unavailable", src)
	}
}
