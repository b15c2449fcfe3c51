package vm

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const MemorySize = 1 << 16

const (
	TrapVectorTableStart       Word = 0x0000
	InterruptVectorTableStart  Word = 0x0100
	SystemSpaceStart           Word = 0x0200
	UserSpaceStart             Word = 0x3000
	MemoryMappedRegistersStart Word = 0xFE00
)

// memory mapped register addresses
const (
	KBSR Word = MemoryMappedRegistersStart          /* keyboard status register */
	KBDR Word = MemoryMappedRegistersStart + 0x0002 /* keyboard data register */
	DSR  Word = MemoryMappedRegistersStart + 0x0004 /* display status register */
	DDR  Word = MemoryMappedRegistersStart + 0x0006 /* display data register */
	MCR  Word = 0xFFFE                              /* machine control register */
)

// writes into [ProtectedStart, ProtectedEnd] are dropped
const (
	ProtectedStart Word = 0x0000
	ProtectedEnd   Word = 0x2FFF
)

const statusReady Word = 1 << 15

// Memory is the 64K word address space. Every guest access goes through Read
// and Write, which intercept the device registers and the protected region.
type Memory struct {
	cells   [MemorySize]Word
	console Console
	log     *logrus.Logger
	trace   bool
	halt    func()

	violations int
}

func newMemory(console Console, log *logrus.Logger, halt func()) *Memory {
	mem := &Memory{
		console: console,
		log:     log,
		halt:    halt,
	}
	mem.reset()
	return mem
}

// reset clears storage and sets the device registers to their power-on values.
func (mem *Memory) reset() {
	clear(mem.cells[:])
	mem.cells[DSR] = statusReady
	mem.cells[MCR] = statusReady
	mem.violations = 0
}

// Read returns the word at addr. Reading KBSR polls the console and latches a
// pending key into KBDR.
func (mem *Memory) Read(addr Word) Word {
	if addr == KBSR {
		mem.pollKeyboard()
	}

	value := mem.cells[addr]
	if mem.trace {
		mem.log.WithFields(logrus.Fields{"addr": hex(addr), "value": hex(value)}).Trace("mem read")
	}
	return value
}

func (mem *Memory) pollKeyboard() {
	if mem.console != nil && mem.console.KeyReady() {
		c, err := mem.console.ReadKey()
		if err == nil {
			mem.cells[KBSR] = statusReady
			mem.cells[KBDR] = Word(c)
			return
		}
		mem.log.WithError(err).Debug("keyboard poll")
	}
	mem.cells[KBSR] = 0
}

// Write stores value at addr. DDR sends its low byte to the console, MCR
// halts the machine when the run bit is cleared, and the protected region
// drops the write.
func (mem *Memory) Write(addr, value Word) {
	if addr <= ProtectedEnd {
		mem.violations++
		err := ErrProtection{Addr: addr, Value: value}
		mem.log.WithFields(logrus.Fields{"addr": hex(addr), "value": hex(value)}).Warn(err)
		return
	}

	if mem.trace {
		mem.log.WithFields(logrus.Fields{"addr": hex(addr), "value": hex(value)}).Trace("mem write")
	}

	switch addr {
	case DDR:
		if mem.console == nil {
			return
		}
		if err := mem.console.WriteChar(byte(value)); err != nil {
			mem.log.WithError(err).Error("display write")
		}
	case MCR:
		if value&statusReady == 0 && mem.halt != nil {
			mem.halt()
		}
	default:
		mem.cells[addr] = value
	}
}

// Load copies words into storage starting at base, bypassing the device and
// protection checks. Words past the top of memory are not loaded. It returns
// the number of words stored.
func (mem *Memory) Load(base Word, words []Word) int {
	n := min(len(words), MemorySize-int(base))
	copy(mem.cells[base:], words[:n])
	return n
}

// Peek returns storage at addr with no device side effects.
func (mem *Memory) Peek(addr Word) Word {
	return mem.cells[addr]
}

func hex(w Word) string {
	return fmt.Sprintf("0x%04x", uint16(w))
}
