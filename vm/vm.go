// Package vm emulates the LC-3: a 16-bit register machine with 64K words of
// memory, memory mapped keyboard and display, and an eight entry trap table.
package vm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// State is the run state of the machine.
type State uint8

const (
	StateReady State = iota
	StateRunning
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	}
	return "unknown"
}

// TraceFunc observes every instruction before it executes.
type TraceFunc func(pc Word, instr Instruction, regs Registers)

// Config holds the optional settings of a VM. The zero value is usable.
type Config struct {
	Logger      *logrus.Logger
	Debug       bool // log every instruction at debug level
	MemoryTrace bool // log every memory access at trace level
	Trace       TraceFunc
}

// Stats counts what the machine has done since the last Reset.
type Stats struct {
	Instructions uint64
	Violations   int // dropped writes to protected memory
	Invalid      int // unimplemented opcodes and bad trap vectors
}

type VM struct {
	regs    Registers
	mem     *Memory
	console Console
	state   State
	log     *logrus.Logger
	debug   bool
	trace   TraceFunc
	stats   Stats
}

func New(console Console, cfg Config) *VM {
	if console == nil {
		console = NewStreamConsole(context.Background(), nil, nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	vm := &VM{
		console: console,
		log:     cfg.Logger,
		debug:   cfg.Debug,
		trace:   cfg.Trace,
	}
	vm.mem = newMemory(console, cfg.Logger, vm.halt)
	vm.mem.trace = cfg.MemoryTrace
	vm.Reset(UserSpaceStart)

	return vm
}

// Load places words into memory at base ahead of a run. It returns how many
// fit below the top of memory.
func (vm *VM) Load(base Word, words []Word) int {
	return vm.mem.Load(base, words)
}

// Reset clears the registers and readies the machine to start at pc. Memory
// is left as loaded.
func (vm *VM) Reset(pc Word) {
	vm.regs = Registers{PC: pc, Cond: FLAG_ZRO}
	vm.state = StateReady
	vm.stats = Stats{}
	vm.mem.violations = 0
}

// Step fetches, decodes and executes a single instruction.
func (vm *VM) Step() error {
	if vm.state == StateHalted {
		return ErrHalted
	}
	vm.state = StateRunning

	pc := vm.regs.PC
	instr := Instruction(vm.mem.Read(pc))
	vm.regs.PC++
	vm.stats.Instructions++

	if vm.debug {
		vm.log.WithFields(logrus.Fields{
			"pc":    hex(pc),
			"instr": hex(Word(instr)),
			"op":    instr.Opcode().String(),
			"regs":  vm.regs.String(),
		}).Debug("step")
	}
	if vm.trace != nil {
		vm.trace(pc, instr, vm.regs)
	}

	return vm.execute(pc, instr)
}

// Run executes instructions until the machine halts or ctx is done. A halt
// returns nil. Cancellation is checked between instructions and returns an
// error wrapping ErrInterrupted.
func (vm *VM) Run(ctx context.Context) error {
	if vm.state == StateHalted {
		return ErrHalted
	}
	vm.state = StateRunning
	defer vm.halt()

	for vm.state == StateRunning {
		select {
		case <-ctx.Done():
			return vm.interrupted(ctx)
		default:
		}

		if err := vm.Step(); err != nil {
			if ctx.Err() != nil {
				return vm.interrupted(ctx)
			}
			return err
		}
	}

	return nil
}

func (vm *VM) interrupted(ctx context.Context) error {
	vm.log.WithField("pc", hex(vm.regs.PC)).Warn("interrupted")
	return fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
}

func (vm *VM) halt() {
	vm.state = StateHalted
}

func (vm *VM) State() State {
	return vm.state
}

// Registers returns a copy of the register file.
func (vm *VM) Registers() Registers {
	return vm.regs
}

func (vm *VM) Memory() *Memory {
	return vm.mem
}

func (vm *VM) Stats() Stats {
	stats := vm.stats
	stats.Violations = vm.mem.violations
	return stats
}
