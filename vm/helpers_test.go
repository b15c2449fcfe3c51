package vm

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// encoders for the instructions the tests need

func enc(op Opcode, bits Word) Word { return Word(op)<<12 | bits&0x0FFF }

func field(v int, bits uint) Word { return Word(v) & (1<<bits - 1) }

func addr3(dr, sr1, sr2 Reg) Word { return Word(dr)<<9 | Word(sr1)<<6 | Word(sr2) }

func add(dr, sr1, sr2 Reg) Word { return enc(OP_ADD, addr3(dr, sr1, sr2)) }

func addi(dr, sr1 Reg, imm int) Word {
	return enc(OP_ADD, Word(dr)<<9|Word(sr1)<<6|1<<5|field(imm, 5))
}

func and(dr, sr1, sr2 Reg) Word { return enc(OP_AND, addr3(dr, sr1, sr2)) }

func andi(dr, sr1 Reg, imm int) Word {
	return enc(OP_AND, Word(dr)<<9|Word(sr1)<<6|1<<5|field(imm, 5))
}

func not(dr, sr Reg) Word { return enc(OP_NOT, Word(dr)<<9|Word(sr)<<6|0x3F) }

func br(cond Flag, off int) Word { return enc(OP_BR, Word(cond)<<9|field(off, 9)) }

func pcrel(op Opcode, r Reg, off int) Word { return enc(op, Word(r)<<9|field(off, 9)) }

func baserel(op Opcode, r, base Reg, off int) Word {
	return enc(op, Word(r)<<9|Word(base)<<6|field(off, 6))
}

func jmp(base Reg) Word { return enc(OP_JMP, Word(base)<<6) }

func jsr(off int) Word { return enc(OP_JSR, 1<<11|field(off, 11)) }

func jsrr(base Reg) Word { return enc(OP_JSR, Word(base)<<6) }

func trap(v TrapVector) Word { return enc(OP_TRAP, Word(v)) }

// quietLogger discards output and records every entry down to trace level.
func quietLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.TraceLevel)
	return log, hook
}

// newTestVM builds a machine that reads input and writes to the returned
// buffer.
func newTestVM(input string) (*VM, *bytes.Buffer) {
	out := &bytes.Buffer{}
	log, _ := quietLogger()
	return New(NewStreamConsole(context.Background(), strings.NewReader(input), out), Config{Logger: log}), out
}

// runProgram loads program at the user space start and runs it to a halt.
func runProgram(t *testing.T, input string, program ...Word) (*VM, *bytes.Buffer) {
	t.Helper()

	vm, out := newTestVM(input)
	vm.Load(UserSpaceStart, program)
	require.NoError(t, vm.Run(context.Background()))
	require.Equal(t, StateHalted, vm.State())

	return vm, out
}
