// Package terminal drives the host tty for the emulator: raw mode on the way
// in, the original settings on the way out, and a keyboard that can be polled
// without blocking.
package terminal

import (
	"context"
	"errors"
	goIO "io"
	"os"
	"time"

	"github.com/pkg/term/termios"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// pollInterval bounds how long a blocking read goes without looking at the
// context.
const pollInterval = 50 * time.Millisecond

// Terminal is the host tty seen as a vm.Console.
type Terminal struct {
	ctx context.Context
	in  *os.File
	out goIO.Writer

	raw                    bool
	originalTerminalConfig unix.Termios
}

// IsTerminal reports whether file is attached to a tty.
func IsTerminal(file *os.File) bool {
	return term.IsTerminal(int(file.Fd()))
}

// Open puts in into raw mode. Blocking reads give up once ctx is done. The
// caller must Restore the terminal on every exit path.
func Open(ctx context.Context, in *os.File, out goIO.Writer) (*Terminal, error) {
	if !IsTerminal(in) {
		return nil, ErrNotTerminal
	}

	t := &Terminal{ctx: ctx, in: in, out: out}
	if err := t.enableRawMode(); err != nil {
		return nil, err
	}
	return t, nil
}

// enableRawMode turns off line buffering and echo.
func (t *Terminal) enableRawMode() error {
	logrus.Debug("enabling raw mode")
	if err := termios.Tcgetattr(t.in.Fd(), &t.originalTerminalConfig); err != nil {
		return err
	}

	newTermios := t.originalTerminalConfig
	newTermios.Lflag &^= unix.ICANON | unix.ECHO
	if err := termios.Tcsetattr(t.in.Fd(), termios.TCSANOW, &newTermios); err != nil {
		return err
	}

	t.raw = true
	return nil
}

// Restore puts back the settings found by Open. Calling it again is a no-op.
func (t *Terminal) Restore() error {
	if t == nil || !t.raw {
		return nil
	}
	logrus.Debug("disabling raw mode")
	t.raw = false
	return termios.Tcsetattr(t.in.Fd(), termios.TCSANOW, &t.originalTerminalConfig)
}

func (t *Terminal) KeyReady() bool {
	ready, err := t.wait(0)
	if err != nil {
		logrus.WithError(err).Debug("key poll")
	}
	return ready
}

func (t *Terminal) ReadKey() (byte, error) {
	for {
		if err := t.ctx.Err(); err != nil {
			return 0, err
		}

		ready, err := t.wait(pollInterval)
		if err != nil {
			return 0, err
		}
		if !ready {
			continue
		}

		var buf [1]byte
		n, err := t.in.Read(buf[:])
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, goIO.EOF
		}
		return buf[0], nil
	}
}

func (t *Terminal) WriteChar(c byte) error {
	_, err := t.out.Write([]byte{c})
	return err
}

// wait reports whether input is readable within d.
func (t *Terminal) wait(d time.Duration) (bool, error) {
	fd := int(t.in.Fd())

	var readfds unix.FdSet
	readfds.Set(fd)
	timeout := unix.NsecToTimeval(d.Nanoseconds())

	n, err := unix.Select(fd+1, &readfds, nil, nil, &timeout)
	if errors.Is(err, unix.EINTR) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
