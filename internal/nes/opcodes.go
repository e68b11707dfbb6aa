package nes

import "fmt"

type instr struct {
	name      string
	mode      addrMode
	fn        func()
	cycles    uint8
	pageBonus bool // +1 cycle when the indexed address crosses a page
	rmw       bool // read-modify-write: worst-case fixed cost
}

const (
	opPageBonus = 1 << iota
	opRMW
)

// opdef is one row of the opcode matrix: opcode byte, mnemonic,
// addressing mode, base cycles and cost flags.
type opdef struct {
	code   uint8
	name   string
	mode   addrMode
	cycles uint8
	flags  uint8
}

// opcodeMatrix lists all 151 official opcodes. The dispatch table is
// assembled from it at construction time, so a missing or duplicated
// row is caught before the first instruction runs.
var opcodeMatrix = []opdef{
	{0x69, "ADC", addrModeIMM, 2, 0},
	{0x65, "ADC", addrModeZP, 3, 0},
	{0x75, "ADC", addrModeZPX, 4, 0},
	{0x6d, "ADC", addrModeABS, 4, 0},
	{0x7d, "ADC", addrModeABSX, 4, opPageBonus},
	{0x79, "ADC", addrModeABSY, 4, opPageBonus},
	{0x61, "ADC", addrModeINDX, 6, 0},
	{0x71, "ADC", addrModeINDY, 5, opPageBonus},

	{0x29, "AND", addrModeIMM, 2, 0},
	{0x25, "AND", addrModeZP, 3, 0},
	{0x35, "AND", addrModeZPX, 4, 0},
	{0x2d, "AND", addrModeABS, 4, 0},
	{0x3d, "AND", addrModeABSX, 4, opPageBonus},
	{0x39, "AND", addrModeABSY, 4, opPageBonus},
	{0x21, "AND", addrModeINDX, 6, 0},
	{0x31, "AND", addrModeINDY, 5, opPageBonus},

	{0x0a, "ASL", addrModeACC, 2, 0},
	{0x06, "ASL", addrModeZP, 5, opRMW},
	{0x16, "ASL", addrModeZPX, 6, opRMW},
	{0x0e, "ASL", addrModeABS, 6, opRMW},
	{0x1e, "ASL", addrModeABSX, 7, opRMW},

	{0x90, "BCC", addrModeREL, 2, 0},
	{0xb0, "BCS", addrModeREL, 2, 0},
	{0xf0, "BEQ", addrModeREL, 2, 0},
	{0x30, "BMI", addrModeREL, 2, 0},
	{0xd0, "BNE", addrModeREL, 2, 0},
	{0x10, "BPL", addrModeREL, 2, 0},
	{0x50, "BVC", addrModeREL, 2, 0},
	{0x70, "BVS", addrModeREL, 2, 0},

	{0x24, "BIT", addrModeZP, 3, 0},
	{0x2c, "BIT", addrModeABS, 4, 0},

	{0x00, "BRK", addrModeIMP, 7, 0},

	{0x18, "CLC", addrModeIMP, 2, 0},
	{0xd8, "CLD", addrModeIMP, 2, 0},
	{0x58, "CLI", addrModeIMP, 2, 0},
	{0xb8, "CLV", addrModeIMP, 2, 0},

	{0xc9, "CMP", addrModeIMM, 2, 0},
	{0xc5, "CMP", addrModeZP, 3, 0},
	{0xd5, "CMP", addrModeZPX, 4, 0},
	{0xcd, "CMP", addrModeABS, 4, 0},
	{0xdd, "CMP", addrModeABSX, 4, opPageBonus},
	{0xd9, "CMP", addrModeABSY, 4, opPageBonus},
	{0xc1, "CMP", addrModeINDX, 6, 0},
	{0xd1, "CMP", addrModeINDY, 5, opPageBonus},

	{0xe0, "CPX", addrModeIMM, 2, 0},
	{0xe4, "CPX", addrModeZP, 3, 0},
	{0xec, "CPX", addrModeABS, 4, 0},

	{0xc0, "CPY", addrModeIMM, 2, 0},
	{0xc4, "CPY", addrModeZP, 3, 0},
	{0xcc, "CPY", addrModeABS, 4, 0},

	{0xc6, "DEC", addrModeZP, 5, opRMW},
	{0xd6, "DEC", addrModeZPX, 6, opRMW},
	{0xce, "DEC", addrModeABS, 6, opRMW},
	{0xde, "DEC", addrModeABSX, 7, opRMW},

	{0xca, "DEX", addrModeIMP, 2, 0},
	{0x88, "DEY", addrModeIMP, 2, 0},

	{0x49, "EOR", addrModeIMM, 2, 0},
	{0x45, "EOR", addrModeZP, 3, 0},
	{0x55, "EOR", addrModeZPX, 4, 0},
	{0x4d, "EOR", addrModeABS, 4, 0},
	{0x5d, "EOR", addrModeABSX, 4, opPageBonus},
	{0x59, "EOR", addrModeABSY, 4, opPageBonus},
	{0x41, "EOR", addrModeINDX, 6, 0},
	{0x51, "EOR", addrModeINDY, 5, opPageBonus},

	{0xe6, "INC", addrModeZP, 5, opRMW},
	{0xf6, "INC", addrModeZPX, 6, opRMW},
	{0xee, "INC", addrModeABS, 6, opRMW},
	{0xfe, "INC", addrModeABSX, 7, opRMW},

	{0xe8, "INX", addrModeIMP, 2, 0},
	{0xc8, "INY", addrModeIMP, 2, 0},

	{0x4c, "JMP", addrModeABS, 3, 0},
	{0x6c, "JMP", addrModeIND, 5, 0},
	{0x20, "JSR", addrModeABS, 6, 0},

	{0xa9, "LDA", addrModeIMM, 2, 0},
	{0xa5, "LDA", addrModeZP, 3, 0},
	{0xb5, "LDA", addrModeZPX, 4, 0},
	{0xad, "LDA", addrModeABS, 4, 0},
	{0xbd, "LDA", addrModeABSX, 4, opPageBonus},
	{0xb9, "LDA", addrModeABSY, 4, opPageBonus},
	{0xa1, "LDA", addrModeINDX, 6, 0},
	{0xb1, "LDA", addrModeINDY, 5, opPageBonus},

	{0xa2, "LDX", addrModeIMM, 2, 0},
	{0xa6, "LDX", addrModeZP, 3, 0},
	{0xb6, "LDX", addrModeZPY, 4, 0},
	{0xae, "LDX", addrModeABS, 4, 0},
	{0xbe, "LDX", addrModeABSY, 4, opPageBonus},

	{0xa0, "LDY", addrModeIMM, 2, 0},
	{0xa4, "LDY", addrModeZP, 3, 0},
	{0xb4, "LDY", addrModeZPX, 4, 0},
	{0xac, "LDY", addrModeABS, 4, 0},
	{0xbc, "LDY", addrModeABSX, 4, opPageBonus},

	{0x4a, "LSR", addrModeACC, 2, 0},
	{0x46, "LSR", addrModeZP, 5, opRMW},
	{0x56, "LSR", addrModeZPX, 6, opRMW},
	{0x4e, "LSR", addrModeABS, 6, opRMW},
	{0x5e, "LSR", addrModeABSX, 7, opRMW},

	{0xea, "NOP", addrModeIMP, 2, 0},

	{0x09, "ORA", addrModeIMM, 2, 0},
	{0x05, "ORA", addrModeZP, 3, 0},
	{0x15, "ORA", addrModeZPX, 4, 0},
	{0x0d, "ORA", addrModeABS, 4, 0},
	{0x1d, "ORA", addrModeABSX, 4, opPageBonus},
	{0x19, "ORA", addrModeABSY, 4, opPageBonus},
	{0x01, "ORA", addrModeINDX, 6, 0},
	{0x11, "ORA", addrModeINDY, 5, opPageBonus},

	{0x48, "PHA", addrModeIMP, 3, 0},
	{0x08, "PHP", addrModeIMP, 3, 0},
	{0x68, "PLA", addrModeIMP, 4, 0},
	{0x28, "PLP", addrModeIMP, 4, 0},

	{0x2a, "ROL", addrModeACC, 2, 0},
	{0x26, "ROL", addrModeZP, 5, opRMW},
	{0x36, "ROL", addrModeZPX, 6, opRMW},
	{0x2e, "ROL", addrModeABS, 6, opRMW},
	{0x3e, "ROL", addrModeABSX, 7, opRMW},

	{0x6a, "ROR", addrModeACC, 2, 0},
	{0x66, "ROR", addrModeZP, 5, opRMW},
	{0x76, "ROR", addrModeZPX, 6, opRMW},
	{0x6e, "ROR", addrModeABS, 6, opRMW},
	{0x7e, "ROR", addrModeABSX, 7, opRMW},

	{0x40, "RTI", addrModeIMP, 6, 0},
	{0x60, "RTS", addrModeIMP, 6, 0},

	{0xe9, "SBC", addrModeIMM, 2, 0},
	{0xe5, "SBC", addrModeZP, 3, 0},
	{0xf5, "SBC", addrModeZPX, 4, 0},
	{0xed, "SBC", addrModeABS, 4, 0},
	{0xfd, "SBC", addrModeABSX, 4, opPageBonus},
	{0xf9, "SBC", addrModeABSY, 4, opPageBonus},
	{0xe1, "SBC", addrModeINDX, 6, 0},
	{0xf1, "SBC", addrModeINDY, 5, opPageBonus},

	{0x38, "SEC", addrModeIMP, 2, 0},
	{0xf8, "SED", addrModeIMP, 2, 0},
	{0x78, "SEI", addrModeIMP, 2, 0},

	// stores never take the index cross-page penalty
	{0x85, "STA", addrModeZP, 3, 0},
	{0x95, "STA", addrModeZPX, 4, 0},
	{0x8d, "STA", addrModeABS, 4, 0},
	{0x9d, "STA", addrModeABSX, 5, 0},
	{0x99, "STA", addrModeABSY, 5, 0},
	{0x81, "STA", addrModeINDX, 6, 0},
	{0x91, "STA", addrModeINDY, 6, 0},

	{0x86, "STX", addrModeZP, 3, 0},
	{0x96, "STX", addrModeZPY, 4, 0},
	{0x8e, "STX", addrModeABS, 4, 0},

	{0x84, "STY", addrModeZP, 3, 0},
	{0x94, "STY", addrModeZPX, 4, 0},
	{0x8c, "STY", addrModeABS, 4, 0},

	{0xaa, "TAX", addrModeIMP, 2, 0},
	{0xa8, "TAY", addrModeIMP, 2, 0},
	{0xba, "TSX", addrModeIMP, 2, 0},
	{0x8a, "TXA", addrModeIMP, 2, 0},
	{0x9a, "TXS", addrModeIMP, 2, 0},
	{0x98, "TYA", addrModeIMP, 2, 0},
}

const officialOpcodeCount = 151

func (c *CPU) initInstructions() {
	fns := map[string]func(){
		"ADC": c.adc, "AND": c.and, "ASL": c.asl,
		"BCC": c.bcc, "BCS": c.bcs, "BEQ": c.beq, "BIT": c.bit,
		"BMI": c.bmi, "BNE": c.bne, "BPL": c.bpl, "BRK": c.brk,
		"BVC": c.bvc, "BVS": c.bvs,
		"CLC": c.clc, "CLD": c.cld, "CLI": c.cli, "CLV": c.clv,
		"CMP": c.cmp, "CPX": c.cpx, "CPY": c.cpy,
		"DEC": c.dec, "DEX": c.dex, "DEY": c.dey,
		"EOR": c.eor,
		"INC": c.inc, "INX": c.inx, "INY": c.iny,
		"JMP": c.jmp, "JSR": c.jsr,
		"LDA": c.lda, "LDX": c.ldx, "LDY": c.ldy, "LSR": c.lsr,
		"NOP": c.nop, "ORA": c.ora,
		"PHA": c.pha, "PHP": c.php, "PLA": c.pla, "PLP": c.plp,
		"ROL": c.rol, "ROR": c.ror, "RTI": c.rti, "RTS": c.rts,
		"SBC": c.sbc, "SEC": c.sec, "SED": c.sed, "SEI": c.sei,
		"STA": c.sta, "STX": c.stx, "STY": c.sty,
		"TAX": c.tax, "TAY": c.tay, "TSX": c.tsx,
		"TXA": c.txa, "TXS": c.txs, "TYA": c.tya,
	}

	if len(opcodeMatrix) != officialOpcodeCount {
		panic(fmt.Sprintf("opcode matrix holds %d rows, want %d", len(opcodeMatrix), officialOpcodeCount))
	}

	for _, def := range opcodeMatrix {
		fn, ok := fns[def.name]
		if !ok {
			panic(fmt.Sprintf("opcode %02X: unknown mnemonic %s", def.code, def.name))
		}
		if c.instrs[def.code].fn != nil {
			panic(fmt.Sprintf("opcode %02X: duplicate matrix row", def.code))
		}
		if def.mode < addrModeIMM || def.mode > addrModeIMP {
			panic(fmt.Sprintf("opcode %02X: invalid addressing mode %d", def.code, def.mode))
		}
		c.instrs[def.code] = instr{
			name:      def.name,
			mode:      def.mode,
			fn:        fn,
			cycles:    def.cycles,
			pageBonus: def.flags&opPageBonus != 0,
			rmw:       def.flags&opRMW != 0,
		}
	}
}

func (c *CPU) adc() {
	r16 := uint16(c.a) + uint16(c.operandValue)
	if c.getFlag(flagC) {
		r16++
	}
	r8 := uint8(r16)
	c.setFlag(flagC, r16 > 0xff)
	c.setFlagsZN(r8)
	c.setFlag(flagV, isSameSign(c.a, c.operandValue) && !isSameSign(c.a, r8))
	c.a = r8
}

func (c *CPU) and() {
	c.a &= c.operandValue
	c.setFlagsZN(c.a)
}

func (c *CPU) asl() {
	c.setFlag(flagC, c.operandValue&0x80 > 0)
	r8 := c.operandValue << 1
	c.setFlagsZN(r8)
	if c.addrMode == addrModeACC {
		c.a = r8
	} else {
		c.write8(c.operandAddr, r8)
	}
}

// jmpIf applies a taken branch: +1 cycle, +1 more when the target is
// on a different page than the post-fetch PC.
func (c *CPU) jmpIf(condition bool) {
	if !condition {
		return
	}
	c.cycles++
	addr := c.pc + c.operandAddr
	if isDiffPage(c.pc, addr) {
		c.cycles++
	}
	c.pc = addr
}

func (c *CPU) bcc() {
	c.jmpIf(!c.getFlag(flagC))
}

func (c *CPU) bcs() {
	c.jmpIf(c.getFlag(flagC))
}

func (c *CPU) beq() {
	c.jmpIf(c.getFlag(flagZ))
}

func (c *CPU) bit() {
	m := c.a & c.operandValue
	c.setFlag(flagZ, m == 0)
	c.setFlag(flagN, c.operandValue&flagN > 0)
	c.setFlag(flagV, c.operandValue&flagV > 0)
}

func (c *CPU) bmi() {
	c.jmpIf(c.getFlag(flagN))
}

func (c *CPU) bne() {
	c.jmpIf(!c.getFlag(flagZ))
}

func (c *CPU) bpl() {
	c.jmpIf(!c.getFlag(flagN))
}

func (c *CPU) brk() {
	c.pc++
	c.stackPush16(c.pc)
	c.stackPush8(c.p | flagB | flagU)
	c.setFlag(flagI, true)
	c.pc = c.read16(vectorIRQ)
}

func (c *CPU) bvc() {
	c.jmpIf(!c.getFlag(flagV))
}

func (c *CPU) bvs() {
	c.jmpIf(c.getFlag(flagV))
}

func (c *CPU) clc() {
	c.setFlag(flagC, false)
}

func (c *CPU) cld() {
	c.setFlag(flagD, false)
}

func (c *CPU) cli() {
	c.setFlag(flagI, false)
}

func (c *CPU) clv() {
	c.setFlag(flagV, false)
}

func (c *CPU) cmp() {
	c.setFlag(flagC, c.a >= c.operandValue)
	c.setFlagsZN(c.a - c.operandValue)
}

func (c *CPU) cpx() {
	c.setFlag(flagC, c.x >= c.operandValue)
	c.setFlagsZN(c.x - c.operandValue)
}

func (c *CPU) cpy() {
	c.setFlag(flagC, c.y >= c.operandValue)
	c.setFlagsZN(c.y - c.operandValue)
}

func (c *CPU) dec() {
	r := c.operandValue - 1
	c.setFlagsZN(r)
	c.write8(c.operandAddr, r)
}

func (c *CPU) dex() {
	c.x--
	c.setFlagsZN(c.x)
}

func (c *CPU) dey() {
	c.y--
	c.setFlagsZN(c.y)
}

func (c *CPU) eor() {
	c.a ^= c.operandValue
	c.setFlagsZN(c.a)
}

func (c *CPU) inc() {
	r := c.operandValue + 1
	c.setFlagsZN(r)
	c.write8(c.operandAddr, r)
}

func (c *CPU) inx() {
	c.x++
	c.setFlagsZN(c.x)
}

func (c *CPU) iny() {
	c.y++
	c.setFlagsZN(c.y)
}

func (c *CPU) jmp() {
	c.pc = c.operandAddr
}

func (c *CPU) jsr() {
	// pc moved past the operand by the fetch,
	// the 6502 pushes the address of its last byte
	c.pc--
	c.stackPush16(c.pc)
	c.pc = c.operandAddr
}

func (c *CPU) lda() {
	c.a = c.operandValue
	c.setFlagsZN(c.a)
}

func (c *CPU) ldx() {
	c.x = c.operandValue
	c.setFlagsZN(c.x)
}

func (c *CPU) ldy() {
	c.y = c.operandValue
	c.setFlagsZN(c.y)
}

func (c *CPU) lsr() {
	c.setFlag(flagC, c.operandValue&0x1 > 0)
	r := c.operandValue >> 1
	c.setFlagsZN(r)
	if c.addrMode == addrModeACC {
		c.a = r
	} else {
		c.write8(c.operandAddr, r)
	}
}

func (c *CPU) nop() {
}

func (c *CPU) ora() {
	c.a |= c.operandValue
	c.setFlagsZN(c.a)
}

func (c *CPU) pha() {
	c.stackPush8(c.a)
}

func (c *CPU) php() {
	c.stackPush8(c.p | flagB | flagU)
}

func (c *CPU) pla() {
	c.a = c.stackPop8()
	c.setFlagsZN(c.a)
}

func (c *CPU) plp() {
	c.p = (c.stackPop8() | flagU) & ^flagB
}

func (c *CPU) rol() {
	r := c.operandValue << 1
	if c.getFlag(flagC) {
		r |= 0x1
	}
	c.setFlag(flagC, c.operandValue&0x80 > 0)
	c.setFlagsZN(r)
	if c.addrMode == addrModeACC {
		c.a = r
	} else {
		c.write8(c.operandAddr, r)
	}
}

func (c *CPU) ror() {
	r := c.operandValue >> 1
	if c.getFlag(flagC) {
		r |= 0x80
	}
	c.setFlag(flagC, c.operandValue&0x1 > 0)
	c.setFlagsZN(r)
	if c.addrMode == addrModeACC {
		c.a = r
	} else {
		c.write8(c.operandAddr, r)
	}
}

func (c *CPU) rti() {
	c.p = (c.stackPop8() | flagU) & ^flagB
	c.pc = c.stackPop16()
}

func (c *CPU) rts() {
	c.pc = c.stackPop16()
	c.pc++
}

func (c *CPU) sbc() {
	c.operandValue = ^c.operandValue
	c.adc()
}

func (c *CPU) sec() {
	c.setFlag(flagC, true)
}

func (c *CPU) sed() {
	c.setFlag(flagD, true)
}

func (c *CPU) sei() {
	c.setFlag(flagI, true)
}

func (c *CPU) sta() {
	c.write8(c.operandAddr, c.a)
}

func (c *CPU) stx() {
	c.write8(c.operandAddr, c.x)
}

func (c *CPU) sty() {
	c.write8(c.operandAddr, c.y)
}

func (c *CPU) tax() {
	c.x = c.a
	c.setFlagsZN(c.x)
}

func (c *CPU) tay() {
	c.y = c.a
	c.setFlagsZN(c.y)
}

func (c *CPU) tsx() {
	c.x = c.sp
	c.setFlagsZN(c.x)
}

func (c *CPU) txa() {
	c.a = c.x
	c.setFlagsZN(c.a)
}

func (c *CPU) txs() {
	c.sp = c.x
}

func (c *CPU) tya() {
	c.a = c.y
	c.setFlagsZN(c.a)
}

func opcodeIsSupported(opcode byte) bool {
	fake := NewCPU(nil)
	return fake.instrs[opcode].fn != nil
}
