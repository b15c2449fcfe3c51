package terminal

import (
	"errors"

	"github.com/aryanA101a/lulu/translate"
)

var f = translate.From

var ErrNotTerminal = errors.New(f("not a terminal"))
