package vm

// Instruction is a fetched word viewed through the LC-3 field layout.
type Instruction Word

// Opcode selects one of the sixteen operations, bits 15-12.
type Opcode uint8

const (
	OP_BR Opcode = iota
	OP_ADD
	OP_LD
	OP_ST
	OP_JSR
	OP_AND
	OP_LDR
	OP_STR
	OP_RTI
	OP_NOT
	OP_LDI
	OP_STI
	OP_JMP
	OP_RES
	OP_LEA
	OP_TRAP
)

var opcodeNames = [...]string{
	"BR", "ADD", "LD", "ST", "JSR", "AND", "LDR", "STR",
	"RTI", "NOT", "LDI", "STI", "JMP", "RES", "LEA", "TRAP",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "???"
}

func (i Instruction) Opcode() Opcode { return Opcode(i >> 12) }

// DR is the destination register, also the source of ST/STI/STR.
func (i Instruction) DR() Reg { return Reg((i >> 9) & 0b111) }

func (i Instruction) SR1() Reg { return Reg((i >> 6) & 0b111) }

func (i Instruction) SR2() Reg { return Reg(i & 0b111) }

// BaseR shares its bits with SR1.
func (i Instruction) BaseR() Reg { return i.SR1() }

// Imm reports the immediate mode flag of ADD and AND, bit 5.
func (i Instruction) Imm() bool { return (i>>5)&0b1 == 1 }

// Long reports JSR (PC relative) over JSRR, bit 11.
func (i Instruction) Long() bool { return (i>>11)&0b1 == 1 }

// Cond is the n/z/p mask of BR, laid out like Flag.
func (i Instruction) Cond() Flag { return Flag((i >> 9) & 0b111) }

func (i Instruction) Imm5() Word { return Sext(Word(i)&0x1F, 5) }

func (i Instruction) Offset6() Word { return Sext(Word(i)&0x3F, 6) }

func (i Instruction) Offset9() Word { return Sext(Word(i)&0x1FF, 9) }

func (i Instruction) Offset11() Word { return Sext(Word(i)&0x7FF, 11) }

func (i Instruction) Vector() TrapVector { return TrapVector(i & 0xFF) }

// Sext sign extends the low bits of x to a full word.
func Sext(x Word, bits uint) Word {
	if (x>>(bits-1))&0b1 != 0 {
		x |= 0xFFFF << bits
	}
	return x
}
