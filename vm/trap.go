package vm

import (
	"errors"
	"fmt"
	goIO "io"
	"strconv"

	"github.com/sirupsen/logrus"
)

// TrapVector selects a routine of the trap table.
type TrapVector uint8

const (
	TRAP_GETC    TrapVector = 0x20 /* get character from keyboard, not echoed onto the terminal */
	TRAP_OUT     TrapVector = 0x21 /* output a character */
	TRAP_PUTS    TrapVector = 0x22 /* output a word string */
	TRAP_IN      TrapVector = 0x23 /* get character from keyboard, echoed onto the terminal */
	TRAP_PUTSP   TrapVector = 0x24 /* output a byte string */
	TRAP_HALT    TrapVector = 0x25 /* halt the program */
	TRAP_IN_U16  TrapVector = 0x26 /* read an unsigned decimal into R0 */
	TRAP_OUT_U16 TrapVector = 0x27 /* write R0 as an unsigned decimal */
)

var trapNames = [...]string{"GETC", "OUT", "PUTS", "IN", "PUTSP", "HALT", "INU16", "OUTU16"}

func (v TrapVector) Valid() bool {
	return v >= TRAP_GETC && v <= TRAP_OUT_U16
}

func (v TrapVector) String() string {
	if v.Valid() {
		return trapNames[v-TRAP_GETC]
	}
	return fmt.Sprintf("TRAP_0x%02x", uint8(v))
}

func (vm *VM) trap(pc Word, vector TrapVector) error {
	regs := &vm.regs

	switch vector {
	case TRAP_GETC:
		c, err := vm.readKey()
		if err != nil {
			return err
		}
		regs.setResult(R0, Word(c))

	case TRAP_OUT:
		return vm.writeChar(byte(regs.Get(R0)))

	case TRAP_PUTS:
		return vm.puts(regs.Get(R0), false)

	case TRAP_IN:
		c, err := vm.readKey()
		if err != nil {
			return err
		}
		regs.setResult(R0, Word(c))
		return vm.writeChar(c)

	case TRAP_PUTSP:
		return vm.puts(regs.Get(R0), true)

	case TRAP_HALT:
		vm.log.WithField("pc", hex(pc)).Info("HALT")
		vm.halt()

	case TRAP_IN_U16:
		value, ok, err := vm.readDecimal()
		if err != nil {
			return err
		}
		if ok {
			regs.setResult(R0, value)
		}

	case TRAP_OUT_U16:
		for _, c := range strconv.AppendUint(nil, uint64(regs.Get(R0)), 10) {
			if err := vm.writeChar(c); err != nil {
				return err
			}
		}
		return vm.writeChar('\n')

	default:
		vm.invalid(pc, ErrTrap{PC: pc, Vector: vector}, logrus.Fields{"vector": vector.String()})
	}

	return nil
}

// puts writes the zero terminated string at addr. Packed strings hold two
// characters per word, low byte first.
func (vm *VM) puts(addr Word, packed bool) error {
	for {
		w := vm.mem.Peek(addr)
		if w == 0 {
			return nil
		}

		if err := vm.writeChar(byte(w)); err != nil {
			return err
		}
		if packed && w>>8 != 0 {
			if err := vm.writeChar(byte(w >> 8)); err != nil {
				return err
			}
		}

		if addr == MemorySize-1 {
			return nil
		}
		addr++
	}
}

// readDecimal reads an unsigned decimal number, skipping leading blanks. The
// character ending the number is consumed. ok is false when no digit was
// read.
func (vm *VM) readDecimal() (value Word, ok bool, err error) {
	for {
		var c byte
		c, err = vm.console.ReadKey()
		if err != nil {
			if ok && errors.Is(err, goIO.EOF) {
				err = nil
				return
			}
			err = fmt.Errorf("%w: %w", ErrConsole, err)
			return
		}

		switch {
		case c >= '0' && c <= '9':
			value = value*10 + Word(c-'0')
			ok = true
		case !ok && (c == ' ' || c == '\t' || c == '\n' || c == '\r'):
		default:
			return
		}
	}
}

func (vm *VM) readKey() (byte, error) {
	c, err := vm.console.ReadKey()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConsole, err)
	}
	return c, nil
}

func (vm *VM) writeChar(c byte) error {
	if err := vm.console.WriteChar(c); err != nil {
		return fmt.Errorf("%w: %w", ErrConsole, err)
	}
	return nil
}
