package nes

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeLoopCart builds a 16 KiB NROM cart with a JMP $8000 loop, an
// NMI handler looping at $8005, and vectors pointing at both.
func makeLoopCart(t *testing.T) *Cart {
	t.Helper()

	data := makeINES(1, 1, 0, 0)
	prg := data[headerSizeBytes:]
	copy(prg[0x0000:], []byte{0x4c, 0x00, 0x80}) // JMP $8000
	copy(prg[0x0005:], []byte{0x4c, 0x05, 0x80}) // JMP $8005
	prg[0x3ffa] = 0x05                           // NMI vector: $8005
	prg[0x3ffb] = 0x80
	prg[0x3ffc] = 0x00 // RESET vector: $8000
	prg[0x3ffd] = 0x80

	cart, err := NewCartFromBytes(data)
	require.NoError(t, err)
	return cart
}

func Test_Bus_RAMMirroring(t *testing.T) {
	b := NewBus()
	b.SetErrorFunc(func(error) {})

	b.cpu.write8(0x0000, 0x42)
	assert.Equal(t, uint8(0x42), b.cpu.read8(0x0800))
	assert.Equal(t, uint8(0x42), b.cpu.read8(0x1000))
	assert.Equal(t, uint8(0x42), b.cpu.read8(0x1800))

	b.cpu.write8(0x1801, 0x24)
	assert.Equal(t, uint8(0x24), b.cpu.read8(0x0001), "mirror writes land in the base page")
}

func Test_Bus_PPURegisterMirroring(t *testing.T) {
	b := NewBus()
	b.SetErrorFunc(func(error) {})

	b.cpu.write8(0x2000, ctrlEnableNMI)
	assert.Equal(t, ctrlEnableNMI, b.ppu.ctrl)

	// $2008 and $3FF8 both land on CTRL
	b.cpu.write8(0x2008, 0)
	assert.Equal(t, uint8(0), b.ppu.ctrl)
	b.cpu.write8(0x3ff8, ctrlEnableNMI)
	assert.Equal(t, ctrlEnableNMI, b.ppu.ctrl)

	b.ppu.status = statusVBlank
	b.ppu.writeToggle = true
	v := b.cpu.read8(0x3ffa) // mirrors $2002
	assert.NotZero(t, v&statusVBlank)
	assert.Zero(t, b.ppu.status&statusVBlank, "status read side effect applies through mirrors")
	assert.False(t, b.ppu.writeToggle)
}

func Test_Bus_DisabledRegion(t *testing.T) {
	b := NewBus()
	b.SetErrorFunc(func(error) {})

	for addr := uint16(0x4018); addr < 0x4020; addr++ {
		assert.Equal(t, uint8(0), b.cpu.read8(addr), "reads return 0 at %04X", addr)
		b.cpu.write8(addr, 0xff) // dropped
	}
}

func Test_Bus_UnmappedAccessReported(t *testing.T) {
	b := NewBus()
	var reported []error
	b.SetErrorFunc(func(err error) { reported = append(reported, err) })

	assert.Equal(t, uint8(0), b.cpu.read8(0x8000), "no cart seated")
	if assert.Len(t, reported, 1) {
		assert.ErrorContains(t, reported[0], "unmapped read at 8000")
	}
}

func Test_Bus_OAMDMA(t *testing.T) {
	b := NewBus()
	b.SetErrorFunc(func(error) {})

	for i := 0; i < 256; i++ {
		b.cpu.write8(uint16(0x0200+i), uint8(i))
	}
	b.cpu.write8(0x2003, 0x10) // OAMADDR

	b.cpu.write8(0x4014, 0x02)

	assert.Equal(t, uint8(0x00), b.ppu.oam[0x10], "copy starts at OAMADDR")
	assert.Equal(t, uint8(0xef), b.ppu.oam[0xff])
	assert.Equal(t, uint8(0xf0), b.ppu.oam[0x00], "OAM index wraps")
	assert.Equal(t, uint16(513), b.cpu.stall, "stall on an even cycle")

	stallCycles := 0
	for b.cpu.stall > 0 {
		stallCycles += b.cpu.Step()
	}
	assert.Equal(t, 513, stallCycles, "stall drains one cycle per step")
}

func Test_Bus_OAMDMAOddCycle(t *testing.T) {
	b := NewBus()
	b.SetErrorFunc(func(error) {})
	b.cpu.totalCycles = 7

	b.cpu.write8(0x4014, 0x02)

	assert.Equal(t, uint16(514), b.cpu.stall, "one extra stall cycle when odd")
}

func Test_Bus_Controllers(t *testing.T) {
	b := NewBus()
	b.SetErrorFunc(func(error) {})

	state := ButtonA | ButtonStart | ButtonRight
	b.SetController(0, state)

	// strobe high then low latches the shift registers
	b.cpu.write8(0x4016, 1)
	b.cpu.write8(0x4016, 0)

	var got uint8
	for i := 0; i < 8; i++ {
		got |= (b.cpu.read8(0x4016) & 1) << uint(i)
	}
	assert.Equal(t, state, got)
	assert.Equal(t, uint8(1), b.cpu.read8(0x4016)&1, "reads past the eighth return 1")

	assert.Equal(t, uint8(0), b.cpu.read8(0x4017)&1, "port 1 is idle")
}

func Test_Bus_LoadROM(t *testing.T) {
	b := NewBus()
	b.SetErrorFunc(func(error) {})

	assert.ErrorIs(t, b.LoadROM([]byte("garbage")), ErrInvalidROM)
	assert.Nil(t, b.cart, "a bad image leaves the bus empty")

	require.NoError(t, b.LoadROM(makeINES(1, 1, 0x01, 0)))
	assert.Equal(t, mirrorVertical, b.ppu.mirror, "mirroring propagates to the PPU")
}

func Test_Bus_StepFrame(t *testing.T) {
	b := NewBus()
	b.SetErrorFunc(func(error) {})
	b.LoadCart(makeLoopCart(t))

	cycles := b.StepFrame()

	assert.GreaterOrEqual(t, cycles, cpuCyclesPerFrame, "a frame is at least 29780 CPU cycles")
	assert.Less(t, cycles, cpuCyclesPerFrame+10, "and overshoots by at most one instruction")
}

func Test_Bus_PauseAndStep(t *testing.T) {
	b := NewBus()
	b.SetErrorFunc(func(error) {})
	b.LoadCart(makeLoopCart(t))

	b.TogglePause()
	assert.Zero(t, b.StepFrame(), "paused frames run nothing")

	cycles := b.cpu.totalCycles
	b.OneStep()
	assert.Equal(t, cycles+3, b.cpu.totalCycles, "single stepping runs one JMP")

	b.TogglePause()
	assert.NotZero(t, b.StepFrame())
}

func Test_Bus_VBlankNMIEndToEnd(t *testing.T) {
	b := NewBus()
	b.SetErrorFunc(func(error) {})
	b.LoadCart(makeLoopCart(t))

	require.Equal(t, uint16(0x8000), b.cpu.pc, "reset vector")
	spBefore := b.cpu.sp

	b.cpu.write8(0x2000, ctrlEnableNMI)

	// run until the vblank NMI pulls the CPU into the handler
	entered := false
	for i := 0; i < 40000; i++ {
		b.stepInstruction()
		if b.cpu.pc == 0x8005 {
			entered = true
			break
		}
	}

	require.True(t, entered, "NMI handler entered during vblank")
	assert.Equal(t, spBefore-3, b.cpu.sp, "PC and flags pushed")
	pushedP := b.cpu.read8(stackStartAddr | uint16(b.cpu.sp+1))
	assert.Zero(t, pushedP&flagB, "B clear in the pushed flags")
	assert.NotZero(t, pushedP&flagU, "U set in the pushed flags")
	assert.True(t, b.cpu.getFlag(flagI), "I set on entry")
}

func Test_Bus_Disassemble(t *testing.T) {
	b := NewBus()
	b.SetErrorFunc(func(error) {})
	b.cpu.write8(0x0000, 0xa9) // LDA #$05
	b.cpu.write8(0x0001, 0x05)

	disasm := b.Disassemble()
	assert.Contains(t, disasm[0x0000], "LDA #$05")
}

func Test_Bus_Nestest(t *testing.T) {
	nestestBinFile := os.Getenv("NESTEST_BIN")
	nestestLogFile := os.Getenv("NESTEST_LOG")
	if nestestBinFile == "" || nestestLogFile == "" {
		t.Skip("skipping test because NESTEST_BIN or NESTEST_LOG is not set")
		return
	}

	cart, err := NewCartFromFile(nestestBinFile)
	if err != nil {
		t.Fatal("Failed to load nestest rom:", err)
	}

	bus := NewBus()
	bus.LoadCart(cart)
	// nestest (all tests) starts at 0xC000
	bus.cpu.pc = 0xC000

	re := regexp.MustCompile(`([A-F0-9]{4}).+A:([A-F0-9]{2}) X:([A-F0-9]{2}) Y:([A-F0-9]{2}) P:([A-F0-9]{2}) SP:([A-F0-9]{2}).+CYC:(\d+)`)
	type state struct {
		pc uint16
		// before executing the instruction
		a   uint8
		x   uint8
		y   uint8
		sp  uint8
		p   uint8
		cyc uint64
	}

	parseLogLine := func(s string) state {
		match := re.FindStringSubmatch(s)

		// from 1 to skip full match
		pc, err := strconv.ParseUint(match[1], 16, 16)
		if err != nil {
			t.Fatal(err)
		}
		a, err := strconv.ParseUint(match[2], 16, 8)
		if err != nil {
			t.Fatal(err)
		}
		x, err := strconv.ParseUint(match[3], 16, 8)
		if err != nil {
			t.Fatal(err)
		}
		y, err := strconv.ParseUint(match[4], 16, 8)
		if err != nil {
			t.Fatal(err)
		}
		p, err := strconv.ParseUint(match[5], 16, 8)
		if err != nil {
			t.Fatal(err)
		}
		sp, err := strconv.ParseUint(match[6], 16, 8)
		if err != nil {
			t.Fatal(err)
		}
		cyc, err := strconv.ParseUint(match[7], 10, 64)
		if err != nil {
			t.Fatal(err)
		}
		return state{
			pc:  uint16(pc),
			a:   uint8(a),
			x:   uint8(x),
			y:   uint8(y),
			sp:  uint8(sp),
			p:   uint8(p),
			cyc: cyc,
		}
	}

	logFileData, err := os.ReadFile(nestestLogFile)
	if err != nil {
		t.Fatal("Failed to open nestest log file:", err)
	}

	var expectedStates []state
	for _, line := range strings.Split(string(logFileData), "\n") {
		if len(line) == 0 {
			continue
		}
		expectedStates = append(expectedStates, parseLogLine(line))
	}

	for i, expectedState := range expectedStates {
		actualState := state{
			pc:  bus.cpu.pc,
			a:   bus.cpu.a,
			x:   bus.cpu.x,
			y:   bus.cpu.y,
			sp:  bus.cpu.sp,
			p:   bus.cpu.p,
			cyc: bus.cpu.totalCycles,
		}
		if !assert.Equal(t, expectedState, actualState, "failed at instruction %s:%d", nestestLogFile, i) {
			return
		}
		bus.cpu.Step()
	}
}
