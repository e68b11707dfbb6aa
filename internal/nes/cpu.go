package nes

import "log"

const (
	stackStartAddr = uint16(0x100)

	vectorNMI   = uint16(0xfffa)
	vectorRESET = uint16(0xfffc)
	vectorIRQ   = uint16(0xfffe)
)

const (
	flagC = uint8(1 << iota) // Carry
	flagZ                    // Zero
	flagI                    // Interrupt Disable
	flagD                    // Decimal Mode (held but ignored on the 2A03)
	flagB                    // Break Command
	flagU                    // Unused, always reads 1
	flagV                    // Overflow
	flagN                    // Negative
)

type CPU struct {
	a      uint8
	x      uint8
	y      uint8
	p      uint8
	sp     uint8
	pc     uint16
	mem    ReadWriter
	instrs [0x100]instr

	cycles      uint8  // cycles charged by the instruction in flight
	stall       uint16 // cycles left of an OAM DMA stall
	totalCycles uint64

	nmiPending bool
	irqPending bool

	// operand scratch, valid only during one instruction
	addrMode     addrMode
	operandAddr  uint16
	operandValue uint8
	pageCrossed  bool

	onError func(error)
}

func isSameSign(a, b uint8) bool {
	return (a^b)&0x80 == 0
}

func isDiffPage(a, b uint16) bool {
	return a&0xff00 != b&0xff00
}

func NewCPU(mem ReadWriter) *CPU {
	c := &CPU{
		mem: mem,
	}
	c.initInstructions()
	return c
}

// SetErrorFunc installs a callback for runtime anomalies: unknown
// opcodes and unmapped accesses. Defaults to log.Printf.
func (c *CPU) SetErrorFunc(fn func(error)) {
	c.onError = fn
}

func (c *CPU) reportError(err error) {
	if c.onError != nil {
		c.onError(err)
		return
	}
	log.Printf("cpu: %s\n", err)
}

func (c CPU) read8(addr uint16) uint8 {
	return c.mem.Read8(addr)
}

func (c CPU) read16(addr uint16) uint16 {
	return uint16(c.read8(addr)) | uint16(c.read8(addr+1))<<8
}

func (c *CPU) write8(addr uint16, data uint8) {
	c.mem.Write8(addr, data)
}

func (c CPU) getFlag(flag uint8) bool {
	return c.p&flag > 0
}

func (c *CPU) setFlag(flag uint8, v bool) {
	if v {
		c.p |= flag
		return
	}
	c.p &= ^flag
}

func (c *CPU) setFlagsZN(value uint8) {
	c.setFlag(flagZ, value == 0)
	c.setFlag(flagN, value&flagN > 0)
}

func (c *CPU) stackPop8() uint8 {
	c.sp++
	return c.read8(stackStartAddr | uint16(c.sp))
}

func (c *CPU) stackPop16() uint16 {
	lo := uint16(c.stackPop8())
	hi := uint16(c.stackPop8())
	return lo | hi<<8
}

func (c *CPU) stackPush8(data uint8) {
	c.write8(stackStartAddr|uint16(c.sp), data)
	c.sp--
}

func (c *CPU) stackPush16(data uint16) {
	lo := uint8(data & 0xff)
	hi := uint8(data >> 8)
	c.stackPush8(hi)
	c.stackPush8(lo)
}

// Reset applies the RESET sequence: SP to $FD, registers cleared,
// I set, PC loaded from the reset vector. Nothing is pushed.
func (c *CPU) Reset() {
	c.a = 0
	c.x = 0
	c.y = 0
	c.p = 0x00 | flagU | flagI
	c.sp = 0xfd
	c.pc = c.read16(vectorRESET)
	c.stall = 0
	c.nmiPending = false
	c.irqPending = false
	c.totalCycles = 7
}

// TriggerNMI latches a falling edge on the NMI line. The CPU services
// it at the next instruction boundary; it cannot be masked.
func (c *CPU) TriggerNMI() {
	c.nmiPending = true
}

// TriggerIRQ raises the IRQ line. Serviced at the next instruction
// boundary unless the I flag is set.
func (c *CPU) TriggerIRQ() {
	c.irqPending = true
}

func (c *CPU) interrupt(vector uint16) {
	c.stackPush16(c.pc)
	c.setFlag(flagB, false)
	c.setFlag(flagU, true)
	c.stackPush8(c.p)
	c.setFlag(flagI, true)
	c.pc = c.read16(vector)
	c.cycles += 7
}

// Step executes one instruction, servicing a pending interrupt first,
// and returns the number of cycles consumed. All memory effects of the
// instruction complete before Step returns.
func (c *CPU) Step() int {
	if c.stall > 0 {
		c.stall--
		c.totalCycles++
		return 1
	}

	c.cycles = 0
	switch {
	case c.nmiPending:
		c.nmiPending = false
		c.interrupt(vectorNMI)
	case c.irqPending && !c.getFlag(flagI):
		c.irqPending = false
		c.interrupt(vectorIRQ)
	}
	if c.cycles > 0 {
		// interrupt entry: the handler's first instruction runs on
		// the next step
		c.totalCycles += uint64(c.cycles)
		return int(c.cycles)
	}

	opcode := c.read8(c.pc)
	c.pc++
	in := c.instrs[opcode]
	if in.fn == nil {
		c.reportError(UnknownOpcodeError{PC: c.pc - 1, Byte: opcode})
		c.totalCycles++
		return 1
	}

	c.cycles += in.cycles
	_ = c.fetch(in.mode)
	in.fn()
	if in.pageBonus && c.pageCrossed {
		c.cycles++
	}

	c.addrMode = 0
	c.operandAddr = 0
	c.operandValue = 0
	c.pageCrossed = false

	c.totalCycles += uint64(c.cycles)
	return int(c.cycles)
}
