package vm

import (
	"github.com/sirupsen/logrus"
)

// Word is the machine's unit of storage and arithmetic. Arithmetic wraps
// modulo 2^16.
type Word uint16

func (w Word) Add(v Word) Word { return w + v }

func (w Word) And(v Word) Word { return w & v }

func (w Word) Not() Word { return ^w }

// Negative reports whether the sign bit is set.
func (w Word) Negative() bool { return w>>15 != 0 }

// Reg names a general purpose register.
type Reg uint8

// general purpose registers
const (
	R0 Reg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
)

// Flag is the condition code. Exactly one bit is set at any time.
type Flag Word

// flags
const (
	FLAG_POS Flag = 1 << iota
	FLAG_ZRO
	FLAG_NEG
)

func (fl Flag) String() string {
	switch fl {
	case FLAG_POS:
		return "P"
	case FLAG_ZRO:
		return "Z"
	case FLAG_NEG:
		return "N"
	}
	return "?"
}

// Registers is the register file.
type Registers struct {
	R    [8]Word
	PC   Word
	Cond Flag
}

func (r Registers) Get(reg Reg) Word {
	return r.R[reg&0b111]
}

func (r *Registers) Set(reg Reg, value Word) {
	r.R[reg&0b111] = value
}

// UpdateFlags recomputes Cond from the content of reg.
func (r *Registers) UpdateFlags(reg Reg) {
	v := r.Get(reg)
	if v == 0 {
		r.Cond = FLAG_ZRO
	} else if v.Negative() {
		r.Cond = FLAG_NEG
	} else {
		r.Cond = FLAG_POS
	}
}

// setResult writes a register and updates the flags from it.
func (r *Registers) setResult(reg Reg, value Word) {
	r.Set(reg, value)
	r.UpdateFlags(reg)
}

// execute runs one decoded instruction. pc is the address it was fetched
// from; vm.regs.PC already points past it.
func (vm *VM) execute(pc Word, instr Instruction) error {
	regs := &vm.regs

	switch instr.Opcode() {
	case OP_BR:
		if instr.Cond()&regs.Cond != 0 {
			regs.PC = regs.PC.Add(instr.Offset9())
		}

	case OP_ADD:
		operand := instr.Imm5()
		if !instr.Imm() {
			operand = regs.Get(instr.SR2())
		}
		regs.setResult(instr.DR(), regs.Get(instr.SR1()).Add(operand))

	case OP_LD:
		regs.setResult(instr.DR(), vm.mem.Read(regs.PC.Add(instr.Offset9())))

	case OP_ST:
		vm.mem.Write(regs.PC.Add(instr.Offset9()), regs.Get(instr.DR()))

	case OP_JSR:
		regs.Set(R7, regs.PC)
		if instr.Long() {
			regs.PC = regs.PC.Add(instr.Offset11())
		} else {
			regs.PC = regs.Get(instr.BaseR())
		}

	case OP_AND:
		operand := instr.Imm5()
		if !instr.Imm() {
			operand = regs.Get(instr.SR2())
		}
		regs.setResult(instr.DR(), regs.Get(instr.SR1()).And(operand))

	case OP_LDR:
		regs.setResult(instr.DR(), vm.mem.Read(regs.Get(instr.BaseR()).Add(instr.Offset6())))

	case OP_STR:
		vm.mem.Write(regs.Get(instr.BaseR()).Add(instr.Offset6()), regs.Get(instr.DR()))

	case OP_RTI, OP_RES:
		vm.invalid(pc, ErrOpcode{PC: pc, Instr: instr}, logrus.Fields{"op": instr.Opcode().String()})

	case OP_NOT:
		regs.setResult(instr.DR(), regs.Get(instr.SR1()).Not())

	case OP_LDI:
		regs.setResult(instr.DR(), vm.mem.Read(vm.mem.Read(regs.PC.Add(instr.Offset9()))))

	case OP_STI:
		vm.mem.Write(vm.mem.Read(regs.PC.Add(instr.Offset9())), regs.Get(instr.DR()))

	case OP_JMP:
		regs.PC = regs.Get(instr.BaseR())

	case OP_LEA:
		regs.setResult(instr.DR(), regs.PC.Add(instr.Offset9()))

	case OP_TRAP:
		return vm.trap(pc, instr.Vector())
	}

	return nil
}

// invalid reports a guest error that leaves machine state untouched.
func (vm *VM) invalid(pc Word, err error, fields logrus.Fields) {
	vm.stats.Invalid++
	vm.log.WithFields(fields).WithField("pc", hex(pc)).Error(err)
}
