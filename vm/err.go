package vm

import (
	"errors"

	"github.com/aryanA101a/lulu/translate"
)

var f = translate.From

var (
	ErrInterrupted = errors.New(f("interrupted"))
	ErrHalted      = errors.New(f("machine halted"))
	ErrConsole     = errors.New(f("console"))
)

// ErrProtection is a write into the protected low region. It is reported,
// never returned from Run.
type ErrProtection struct {
	Addr  Word
	Value Word
}

func (err ErrProtection) Error() string {
	return f("protected address 0x%04x, write of 0x%04x dropped", uint16(err.Addr), uint16(err.Value))
}

// ErrOpcode is an instruction whose opcode has no implementation (RTI, RES).
type ErrOpcode struct {
	PC    Word
	Instr Instruction
}

func (err ErrOpcode) Error() string {
	return f("0x%04x: %v opcode 0x%04x not implemented", uint16(err.PC), err.Instr.Opcode(), uint16(err.Instr))
}

// ErrTrap is a TRAP with a vector outside the trap table.
type ErrTrap struct {
	PC     Word
	Vector TrapVector
}

func (err ErrTrap) Error() string {
	return f("0x%04x: invalid trap vector 0x%02x", uint16(err.PC), uint8(err.Vector))
}
