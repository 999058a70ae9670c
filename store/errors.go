package store

import (
	je "github.com/juju/errors"

	"github.com/zhukovaskychina/bplib/bperr"
)

// wrap annotates cause with op using juju/errors (the store package's
// ambient error-propagation library, per SPEC_FULL §2/§7) and tags it with
// one of bperr's sentinel kinds so callers can still test with bperr.Is*.
func wrap(op string, kind error, cause error) error {
	if cause == nil {
		return bperr.Wrap(op, kind, nil)
	}
	return bperr.Wrap(op, kind, je.Annotate(cause, op))
}

var (
	errNoFreeHandle  = bperr.Wrap("store.Create", bperr.ErrFailedOS, je.New("no free store handle slot"))
	errHandleInvalid = bperr.Wrap("store", bperr.ErrInvalidBlock, je.New("invalid or already-destroyed store handle"))
)
