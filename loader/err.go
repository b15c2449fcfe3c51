package loader

import (
	"errors"

	"github.com/aryanA101a/lulu/translate"
)

var f = translate.From

var (
	ErrEmpty    = errors.New(f("image holds no words"))
	ErrNoOrigin = errors.New(f("image has no origin word"))
)

// ErrLoad ties a load failure to the image path.
type ErrLoad struct {
	Path string
	Err  error
}

func (err *ErrLoad) Error() string {
	return f("failed to load image '%v': %v", err.Path, err.Err)
}

func (err *ErrLoad) Unwrap() error {
	return err.Err
}
