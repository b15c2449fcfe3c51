package vm

import (
	"fmt"
	goIO "io"
	"strings"
)

func (r Registers) String() string {
	var sb strings.Builder
	for n, v := range r.R {
		fmt.Fprintf(&sb, "R%d=0x%04x ", n, uint16(v))
	}
	fmt.Fprintf(&sb, "PC=0x%04x COND=%v", uint16(r.PC), r.Cond)
	return sb.String()
}

// DumpRegisters writes one register per line.
func (vm *VM) DumpRegisters(w goIO.Writer) error {
	for n, v := range vm.regs.R {
		if _, err := fmt.Fprintf(w, "R%d:   0x%04x\n", n, uint16(v)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "PC:   0x%04x\nCOND: %v\n", uint16(vm.regs.PC), vm.regs.Cond)
	return err
}

// DumpMemory writes every nonzero cell as "0xADDR: 0xVALUE".
func (vm *VM) DumpMemory(w goIO.Writer) error {
	for addr, v := range vm.mem.cells[:] {
		if v == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "0x%04x: 0x%04x\n", addr, uint16(v)); err != nil {
			return err
		}
	}
	return nil
}
