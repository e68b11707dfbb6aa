package nes

import "fmt"

// Disassemble returns a map of addresses and their corresponding
// instructions from 0x0000 to 0xffff. Debug aid only.
func (b *Bus) Disassemble() map[uint16]string {
	c := b.cpu
	disasm := make(map[uint16]string, 0x10000)

	addr := uint32(0)
	for addr <= 0xffff {
		pc := uint16(addr)
		opcode := c.read8(pc)
		in := c.instrs[opcode]
		if in.fn == nil {
			disasm[pc] = fmt.Sprintf("$%04X: ???", pc)
			addr++
			continue
		}

		pc++
		switch in.mode {
		case addrModeIMM:
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s #$%02X {%s}", addr, in.name, c.read8(pc), in.mode)
		case addrModeZP:
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s $%02X {%s}", addr, in.name, c.read8(pc), in.mode)
		case addrModeZPX:
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s $%02X,X {%s}", addr, in.name, c.read8(pc), in.mode)
		case addrModeZPY:
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s $%02X,Y {%s}", addr, in.name, c.read8(pc), in.mode)
		case addrModeABS:
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s $%04X {%s}", addr, in.name, c.read16(pc), in.mode)
		case addrModeABSX:
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s $%04X,X {%s}", addr, in.name, c.read16(pc), in.mode)
		case addrModeABSY:
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s $%04X,Y {%s}", addr, in.name, c.read16(pc), in.mode)
		case addrModeIND:
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s ($%04X) {%s}", addr, in.name, c.read16(pc), in.mode)
		case addrModeINDX:
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s ($%02X,X) {%s}", addr, in.name, c.read8(pc), in.mode)
		case addrModeINDY:
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s ($%02X),Y {%s}", addr, in.name, c.read8(pc), in.mode)
		case addrModeREL:
			offset := uint16(c.read8(pc))
			if offset&0x80 > 0 {
				offset |= 0xff00 // add leading 1 s to save the sign
			}
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s $%04X {%s}", addr, in.name, pc+1+offset, in.mode)
		case addrModeACC:
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s A {%s}", addr, in.name, in.mode)
		case addrModeIMP:
			disasm[uint16(addr)] = fmt.Sprintf("$%04X: %s {%s}", addr, in.name, in.mode)
		}

		addr = addr + 1 + uint32(in.mode.operandBytes())
	}

	return disasm
}
