package pool

import (
	"github.com/pkg/errors"
	"github.com/zhukovaskychina/bplib/bperr"
)

var errCapacityExceeded = bperr.Wrap("pool.SetData", bperr.ErrInvalidBlock, errors.New("payload exceeds slot payload capacity"))
