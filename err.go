package main

import (
	"errors"
	"strconv"
)

// ErrUsage is a command line error whose usage text has been printed.
var ErrUsage = errors.New(f("invalid usage"))

// ErrOffset is a load offset outside the address space.
type ErrOffset struct {
	Offset uint
}

func (err *ErrOffset) Error() string {
	return f("load offset %v exceeds 0xffff", strconv.FormatUint(uint64(err.Offset), 10))
}
