package vm

import (
	"bufio"
	"context"
	goIO "io"
)

// Console is the character stream the machine talks to: keyboard in,
// display out.
type Console interface {
	// KeyReady reports whether ReadKey would return without waiting.
	KeyReady() bool
	// ReadKey blocks for the next character.
	ReadKey() (byte, error)
	WriteChar(c byte) error
}

// StreamConsole is a Console over plain readers and writers, used for piped
// input and in tests. A goroutine feeds input into keyBuffer so that waits
// end when ctx is done. KeyReady on a stream that has no data yet blocks
// until data, EOF or cancellation.
type StreamConsole struct {
	ctx       context.Context
	keyBuffer chan byte
	readErr   error // valid once keyBuffer is closed
	pending   *byte
	out       goIO.Writer
}

func NewStreamConsole(ctx context.Context, in goIO.Reader, out goIO.Writer) *StreamConsole {
	sc := &StreamConsole{
		ctx:       ctx,
		keyBuffer: make(chan byte, 1),
		out:       out,
	}
	if sc.out == nil {
		sc.out = goIO.Discard
	}

	if in == nil {
		sc.readErr = goIO.EOF
		close(sc.keyBuffer)
	} else {
		go sc.pollKeyboard(bufio.NewReader(in))
	}
	return sc
}

func (sc *StreamConsole) pollKeyboard(in *bufio.Reader) {
	defer close(sc.keyBuffer)

	for {
		c, err := in.ReadByte()
		if err != nil {
			sc.readErr = err
			return
		}

		select {
		case sc.keyBuffer <- c:
		case <-sc.ctx.Done():
			sc.readErr = context.Cause(sc.ctx)
			return
		}
	}
}

// next waits for the next key and holds it in pending.
func (sc *StreamConsole) next() error {
	if sc.pending != nil {
		return nil
	}

	select {
	case c, ok := <-sc.keyBuffer:
		if !ok {
			return sc.readErr
		}
		sc.pending = &c
		return nil
	case <-sc.ctx.Done():
		return context.Cause(sc.ctx)
	}
}

func (sc *StreamConsole) KeyReady() bool {
	return sc.next() == nil
}

func (sc *StreamConsole) ReadKey() (byte, error) {
	if err := sc.next(); err != nil {
		return 0, err
	}
	c := *sc.pending
	sc.pending = nil
	return c, nil
}

func (sc *StreamConsole) WriteChar(c byte) error {
	_, err := sc.out.Write([]byte{c})
	return err
}
