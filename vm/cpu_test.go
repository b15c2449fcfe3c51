package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateFlags(t *testing.T) {
	var regs Registers

	for reg := R0; reg <= R7; reg++ {
		for v := 0; v <= 0xFFFF; v++ {
			regs.Set(reg, Word(v))
			regs.UpdateFlags(reg)

			var expected Flag
			switch {
			case v == 0:
				expected = FLAG_ZRO
			case v&0x8000 != 0:
				expected = FLAG_NEG
			default:
				expected = FLAG_POS
			}
			if regs.Cond != expected {
				t.Fatalf("R%d=0x%04x: cond %v, expected %v", reg, v, regs.Cond, expected)
			}
		}
	}
}

func TestRegisterWrap(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Word(0x0000), Word(0xFFFF).Add(1))
	assert.Equal(Word(0x7FFF), Word(0x8000).Add(0xFFFF))
	assert.Equal(Word(0xFFFF), Word(0).Not())
}

// step executes a single instruction with the given registers preloaded.
func step(t *testing.T, instr Word, setup func(vm *VM)) *VM {
	t.Helper()

	vm, _ := newTestVM("")
	vm.Load(UserSpaceStart, []Word{instr})
	if setup != nil {
		setup(vm)
	}
	require.NoError(t, vm.Step())
	return vm
}

func TestAddAndImmediateMatchesRegister(t *testing.T) {
	for _, op := range []Opcode{OP_ADD, OP_AND} {
		for imm := -16; imm <= 15; imm++ {
			for _, base := range []Word{0x0000, 0x0001, 0x7FFF, 0x8000, 0xFFFF, 0x1234} {
				immediate := addi(R0, R1, imm)
				register := add(R0, R1, R2)
				if op == OP_AND {
					immediate = andi(R0, R1, imm)
					register = and(R0, R1, R2)
				}

				a := step(t, immediate, func(vm *VM) { vm.regs.Set(R1, base) })
				b := step(t, register, func(vm *VM) {
					vm.regs.Set(R1, base)
					vm.regs.Set(R2, Sext(Word(imm)&0x1F, 5))
				})

				assert.Equal(t, a.regs.Get(R0), b.regs.Get(R0), "%v imm %d base 0x%04x", op, imm, uint16(base))
				assert.Equal(t, a.regs.Cond, b.regs.Cond, "%v imm %d base 0x%04x", op, imm, uint16(base))
			}
		}
	}
}

func TestArithmetic(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		instr Word
		r1    Word
		r2    Word
		r0    Word
		cond  Flag
	}){
		{"add", add(R0, R1, R2), 3, 4, 7, FLAG_POS},
		{"add_wrap", add(R0, R1, R2), 0xFFFF, 1, 0, FLAG_ZRO},
		{"add_neg", addi(R0, R1, -3), 1, 0, 0xFFFE, FLAG_NEG},
		{"and", and(R0, R1, R2), 0xF0F0, 0x0FF0, 0x00F0, FLAG_POS},
		{"and_zero", andi(R0, R1, 0), 0xFFFF, 0, 0, FLAG_ZRO},
		{"not", not(R0, R1), 0x0000, 0, 0xFFFF, FLAG_NEG},
		{"not_pos", not(R0, R1), 0xFFFE, 0, 0x0001, FLAG_POS},
	}

	for _, entry := range table {
		vm := step(t, entry.instr, func(vm *VM) {
			vm.regs.Set(R1, entry.r1)
			vm.regs.Set(R2, entry.r2)
		})
		assert.Equal(entry.r0, vm.regs.Get(R0), entry.name)
		assert.Equal(entry.cond, vm.regs.Cond, entry.name)
		assert.Equal(UserSpaceStart+1, vm.regs.PC, entry.name)
	}
}

func TestBranch(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		mask  Flag
		cond  Flag
		taken bool
	}){
		{"brn_neg", FLAG_NEG, FLAG_NEG, true},
		{"brn_pos", FLAG_NEG, FLAG_POS, false},
		{"brz_zro", FLAG_ZRO, FLAG_ZRO, true},
		{"brp_pos", FLAG_POS, FLAG_POS, true},
		{"brzp_neg", FLAG_ZRO | FLAG_POS, FLAG_NEG, false},
		{"brnzp", FLAG_NEG | FLAG_ZRO | FLAG_POS, FLAG_ZRO, true},
		{"nop", 0, FLAG_ZRO, false},
	}

	for _, entry := range table {
		vm := step(t, br(entry.mask, -0x10), func(vm *VM) { vm.regs.Cond = entry.cond })

		expected := UserSpaceStart + 1
		if entry.taken {
			expected = UserSpaceStart + 1 - 0x10
		}
		assert.Equal(expected, vm.regs.PC, entry.name)
		assert.Equal(entry.cond, vm.regs.Cond, entry.name)
	}
}

func TestJumps(t *testing.T) {
	assert := assert.New(t)

	vm := step(t, jmp(R3), func(vm *VM) { vm.regs.Set(R3, 0x4000) })
	assert.Equal(Word(0x4000), vm.regs.PC)

	vm = step(t, jmp(R7), func(vm *VM) { vm.regs.Set(R7, 0x3456) }) // RET
	assert.Equal(Word(0x3456), vm.regs.PC)

	vm = step(t, jsr(0x100), nil)
	assert.Equal(UserSpaceStart+1, vm.regs.Get(R7))
	assert.Equal(UserSpaceStart+0x101, vm.regs.PC)

	vm = step(t, jsr(-2), nil)
	assert.Equal(UserSpaceStart+1, vm.regs.Get(R7))
	assert.Equal(UserSpaceStart-1, vm.regs.PC)

	vm = step(t, jsrr(R2), func(vm *VM) { vm.regs.Set(R2, 0x5000) })
	assert.Equal(UserSpaceStart+1, vm.regs.Get(R7))
	assert.Equal(Word(0x5000), vm.regs.PC)

	// JSRR R7 links first, so it falls through to the return address.
	vm = step(t, jsrr(R7), func(vm *VM) { vm.regs.Set(R7, 0x6000) })
	assert.Equal(UserSpaceStart+1, vm.regs.Get(R7))
	assert.Equal(UserSpaceStart+1, vm.regs.PC)

	// Jumps leave the flags alone.
	assert.Equal(FLAG_ZRO, vm.regs.Cond)
}

func TestLoadStore(t *testing.T) {
	assert := assert.New(t)

	// LD R4, #2 reads 0x3003.
	vm := step(t, pcrel(OP_LD, R4, 2), func(vm *VM) { vm.Load(0x3003, []Word{0x8001}) })
	assert.Equal(Word(0x8001), vm.regs.Get(R4))
	assert.Equal(FLAG_NEG, vm.regs.Cond)

	// ST R4, #-1 writes 0x3000.
	vm = step(t, pcrel(OP_ST, R4, -1), func(vm *VM) {
		vm.regs.Set(R4, 0x1234)
		vm.regs.Cond = FLAG_POS
	})
	assert.Equal(Word(0x1234), vm.mem.Peek(0x3000))
	assert.Equal(FLAG_POS, vm.regs.Cond)

	// LDR R1, R2, #-4
	vm = step(t, baserel(OP_LDR, R1, R2, -4), func(vm *VM) {
		vm.regs.Set(R2, 0x4004)
		vm.Load(0x4000, []Word{0x0042})
	})
	assert.Equal(Word(0x0042), vm.regs.Get(R1))
	assert.Equal(FLAG_POS, vm.regs.Cond)

	// STR R1, R2, #31
	vm = step(t, baserel(OP_STR, R1, R2, 31), func(vm *VM) {
		vm.regs.Set(R1, 0xBEEF)
		vm.regs.Set(R2, 0x4000)
	})
	assert.Equal(Word(0xBEEF), vm.mem.Peek(0x401F))

	// LEA R5, #-1
	vm = step(t, pcrel(OP_LEA, R5, -1), nil)
	assert.Equal(UserSpaceStart, vm.regs.Get(R5))
	assert.Equal(FLAG_POS, vm.regs.Cond)

	// LDI R6, #0 through the pointer at 0x3001.
	vm = step(t, pcrel(OP_LDI, R6, 0), func(vm *VM) {
		vm.Load(0x3001, []Word{0x5000})
		vm.Load(0x5000, []Word{0x0000})
		vm.regs.Cond = FLAG_POS
	})
	assert.Equal(Word(0), vm.regs.Get(R6))
	assert.Equal(FLAG_ZRO, vm.regs.Cond)
}

func TestIndirectRoundTrip(t *testing.T) {
	assert := assert.New(t)

	vm, _ := runProgram(t, "",
		pcrel(OP_LEA, R1, 5), // 0x3000 R1 = 0x3006
		pcrel(OP_STI, R1, 3), // 0x3001 mem[mem[0x3005]] = R1
		pcrel(OP_LDI, R2, 2), // 0x3002 R2 = mem[mem[0x3005]]
		trap(TRAP_HALT),      // 0x3003
		0,                    // 0x3004
		0x4000,               // 0x3005 pointer
	)

	assert.Equal(Word(0x3006), vm.mem.Peek(0x4000))
	assert.Equal(Word(0x3006), vm.regs.Get(R2))
	assert.Equal(FLAG_POS, vm.regs.Cond)
}

func TestReservedOpcodes(t *testing.T) {
	assert := assert.New(t)

	for _, instr := range []Word{0x8000, 0xD000, 0xDFFF} {
		vm := step(t, instr, func(vm *VM) {
			vm.regs.Set(R0, 0x1111)
			vm.regs.Cond = FLAG_NEG
		})

		assert.Equal(Word(0x1111), vm.regs.Get(R0))
		assert.Equal(FLAG_NEG, vm.regs.Cond)
		assert.Equal(UserSpaceStart+1, vm.regs.PC)
		assert.Equal(StateRunning, vm.State())
		assert.Equal(1, vm.Stats().Invalid)
	}
}

func TestErrorMessages(t *testing.T) {
	assert := assert.New(t)

	assert.Contains(ErrOpcode{PC: 0x3000, Instr: 0x8000}.Error(), "RTI")
	assert.Contains(ErrTrap{PC: 0x3000, Vector: 0x30}.Error(), "0x30")
	assert.Contains(ErrProtection{Addr: 0x1000, Value: 1}.Error(), "0x1000")
}
