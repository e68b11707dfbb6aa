package nes

import "strings"

// cpuCyclesPerFrame is one NTSC frame worth of CPU clocks
// (341 dots * 262 scanlines / 3).
const cpuCyclesPerFrame = 29780

// Bus owns every component and drives the clock: one CPU instruction,
// then three PPU dots per CPU cycle consumed. The host must not touch
// core state while StepFrame runs.
type Bus struct {
	cpu         *CPU
	ppu         *PPU
	ram         *RAM
	cart        *Cart
	controllers controllers

	paused  bool
	onError func(error)
}

// NewBus powers the machine on: all state constructed and zeroed.
// Load a cart to make it runnable.
func NewBus() *Bus {
	b := &Bus{}
	b.ram = NewRAM()
	b.ppu = NewPPU(b.newPpuMemory())
	b.cpu = NewCPU(b.newCpuMemory())
	return b
}

// SetErrorFunc installs a diagnostic callback for runtime anomalies.
// The core keeps running regardless of what it reports.
func (b *Bus) SetErrorFunc(fn func(error)) {
	b.onError = fn
	b.cpu.SetErrorFunc(fn)
}

func (b *Bus) reportError(err error) {
	if b.onError != nil {
		b.onError(err)
		return
	}
	b.cpu.reportError(err)
}

// LoadCart seats a cartridge and applies the RESET sequence.
func (b *Bus) LoadCart(cart *Cart) {
	b.cart = cart
	b.ppu.mirror = cart.mirror
	b.Reset()
}

// LoadROM parses an iNES image and seats it. Only errors wrapping
// ErrInvalidROM come back.
func (b *Bus) LoadROM(data []byte) error {
	cart, err := NewCartFromBytes(data)
	if err != nil {
		return err
	}
	b.LoadCart(cart)
	return nil
}

// Reset reruns the RESET sequence without clearing RAM.
func (b *Bus) Reset() {
	b.cpu.Reset()
	b.ppu.Reset()
}

// PowerOn is reset plus RAM clear.
func (b *Bus) PowerOn() {
	b.ram.Clear()
	b.Reset()
}

// SetController sets the live button bitfield for a pad.
func (b *Bus) SetController(port int, state uint8) {
	b.controllers.set(port, state)
}

// FrameBuffer returns the 256x240 RGBA frame, stable until the next
// StepFrame call.
func (b *Bus) FrameBuffer() []uint8 {
	return b.ppu.FrameBuffer()
}

// stepInstruction runs one instruction with interrupts sampled at the
// boundary, then catches the PPU up. Returns the CPU cycles consumed.
func (b *Bus) stepInstruction() int {
	if b.ppu.TakeNMI() {
		b.cpu.TriggerNMI()
	}
	cycles := b.cpu.Step()
	for i := 0; i < cycles*3; i++ {
		b.ppu.Tic()
	}
	return cycles
}

// StepFrame runs one NES frame and returns the CPU cycles consumed.
// Rate control belongs to the host.
func (b *Bus) StepFrame() int {
	if b.paused {
		return 0
	}
	total := 0
	for total < cpuCyclesPerFrame {
		total += b.stepInstruction()
	}
	return total
}

// TogglePause freezes or resumes StepFrame.
func (b *Bus) TogglePause() {
	b.paused = !b.paused
}

// OneStep executes a single instruction while paused.
func (b *Bus) OneStep() {
	if b.paused {
		b.stepInstruction()
	}
}

// DebugInfo is a snapshot of the CPU register file for overlays.
type DebugInfo struct {
	A, X, Y, P, SP uint8
	PC             uint16
	TotalCycles    uint64
}

func (b *Bus) DebugInfo() DebugInfo {
	return DebugInfo{
		A:           b.cpu.a,
		X:           b.cpu.x,
		Y:           b.cpu.y,
		P:           b.cpu.p,
		SP:          b.cpu.sp,
		PC:          b.cpu.pc,
		TotalCycles: b.cpu.totalCycles,
	}
}

func (d DebugInfo) StatusString() string {
	names := "CZIDBUVN"
	var sb strings.Builder
	for i := 7; i >= 0; i-- {
		ch := names[i]
		if d.P&(1<<uint(i)) == 0 {
			sb.WriteByte(ch | 0x20) // lowercase when clear
		} else {
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}
