package nes

const (
	dotsPerScanline   = 341
	scanlinesPerFrame = 262
	vblankScanline    = 241
	prerenderScanline = 261

	visibleWidth  = 256
	visibleHeight = 240

	// FrameBufferSize is the length of the RGBA frame buffer.
	FrameBufferSize = visibleWidth * visibleHeight * 4
)

const (
	ctrlIncrement32 = uint8(1 << 2)
	ctrlEnableNMI   = uint8(1 << 7)

	statusOverflow  = uint8(1 << 5)
	statusSprite0   = uint8(1 << 6)
	statusVBlank    = uint8(1 << 7)
)

const (
	mirrorHorizontal = uint8(0)
	mirrorVertical   = uint8(1)
)

type PPU struct {
	mem ReadWriter // PPU address space: pattern tables, nametables, palette

	// Registers
	ctrl    uint8
	mask    uint8
	status  uint8
	oamAddr uint8

	oam        [256]uint8
	nameTables [2][0x400]uint8
	palette    [0x20]uint8

	vramAddr    uint16
	tmpAddr     uint16
	writeToggle bool // shared by SCROLL and ADDR, cleared by STATUS reads
	scrollX     uint8
	scrollY     uint8
	readBuffer  uint8 // delays non-palette DATA reads by one access

	dot      uint16 // [0, 340]
	scanline uint16 // [0, 261]
	oddFrame bool
	frame    uint64

	mirror     uint8
	nmiPending bool

	front []uint8
}

func NewPPU(mem ReadWriter) *PPU {
	return &PPU{
		mem:   mem,
		front: make([]uint8, FrameBufferSize),
	}
}

func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.status = 0
	p.oamAddr = 0
	p.vramAddr = 0
	p.tmpAddr = 0
	p.writeToggle = false
	p.scrollX = 0
	p.scrollY = 0
	p.readBuffer = 0
	p.dot = 0
	p.scanline = 0
	p.oddFrame = false
	p.nmiPending = false
}

// TakeNMI reports and clears a latched NMI edge. The clock coordinator
// polls it at every instruction boundary.
func (p *PPU) TakeNMI() bool {
	if !p.nmiPending {
		return false
	}
	p.nmiPending = false
	return true
}

// FrameBuffer returns the RGBA frame. Stable until the next frame is
// stepped.
func (p *PPU) FrameBuffer() []uint8 {
	return p.front
}

// Tic advances the PPU by one dot.
func (p *PPU) Tic() {
	p.dot++
	if p.dot == dotsPerScanline {
		p.dot = 0
		p.scanline++
		if p.scanline == scanlinesPerFrame {
			p.scanline = 0
			p.oddFrame = !p.oddFrame
			p.frame++
		}
	}

	if p.dot == 1 {
		switch p.scanline {
		case vblankScanline:
			p.status |= statusVBlank
			if p.ctrl&ctrlEnableNMI != 0 {
				p.nmiPending = true
			}
		case prerenderScanline:
			p.status &= ^(statusVBlank | statusSprite0 | statusOverflow)
		}
	}

	if p.scanline < visibleHeight && p.dot >= 1 && p.dot <= visibleWidth {
		p.renderDot()
	}
}

// renderDot writes the backdrop color for the current dot. A real
// pixel pipeline would fetch tiles and sprites here.
func (p *PPU) renderDot() {
	x := int(p.dot) - 1
	y := int(p.scanline)
	c := nesPalette[p.palette[0]&0x3f]
	i := (y*visibleWidth + x) * 4
	p.front[i+0] = c.R
	p.front[i+1] = c.G
	p.front[i+2] = c.B
	p.front[i+3] = 0xff
}

func (p *PPU) addrIncrement() uint16 {
	if p.ctrl&ctrlIncrement32 != 0 {
		return 32
	}
	return 1
}

// nameTableIndex maps a VRAM address into (table, offset) honoring the
// cartridge mirroring.
func (p *PPU) nameTableIndex(addr uint16) (uint16, uint16) {
	addr &= 0x0fff
	table := addr / 0x400
	if p.mirror == mirrorVertical {
		table &= 1
	} else {
		table /= 2
	}
	return table, addr & 0x03ff
}

// $3F10/$3F14/$3F18/$3F1C mirror the backdrop entries.
func paletteIndex(addr uint16) uint16 {
	i := addr & 0x1f
	if i >= 0x10 && i%4 == 0 {
		i -= 0x10
	}
	return i
}

func (p *PPU) paletteRead(addr uint16) uint8 {
	return p.palette[paletteIndex(addr)]
}

func (p *PPU) paletteWrite(addr uint16, data uint8) {
	p.palette[paletteIndex(addr)] = data
}

func (p *PPU) readRegister(reg uint16) uint8 {
	switch reg {
	case 0x2: // STATUS
		v := p.status
		p.status &= ^statusVBlank
		p.writeToggle = false
		return v
	case 0x4: // OAMDATA, no auto-increment on read
		return p.oam[p.oamAddr]
	case 0x7: // DATA
		return p.readData()
	}
	// write-only registers read back as 0
	return 0
}

func (p *PPU) writeRegister(reg uint16, data uint8) {
	switch reg {
	case 0x0: // CTRL
		prev := p.ctrl
		p.ctrl = data
		// enabling NMI mid-VBlank re-asserts the line
		if prev&ctrlEnableNMI == 0 && data&ctrlEnableNMI != 0 && p.status&statusVBlank != 0 {
			p.nmiPending = true
		}
	case 0x1: // MASK
		p.mask = data
	case 0x3: // OAMADDR
		p.oamAddr = data
	case 0x4: // OAMDATA
		p.oam[p.oamAddr] = data
		p.oamAddr++
	case 0x5: // SCROLL, double write
		if !p.writeToggle {
			p.scrollX = data
		} else {
			p.scrollY = data
		}
		p.writeToggle = !p.writeToggle
	case 0x6: // ADDR, double write: high 6 bits then low byte
		if !p.writeToggle {
			p.tmpAddr = p.tmpAddr&0x00ff | uint16(data&0x3f)<<8
		} else {
			p.tmpAddr = p.tmpAddr&0xff00 | uint16(data)
			p.vramAddr = p.tmpAddr
		}
		p.writeToggle = !p.writeToggle
	case 0x7: // DATA
		p.mem.Write8(p.vramAddr, data)
		p.vramAddr += p.addrIncrement()
	}
}

// readData implements the $2007 buffered read: everything below the
// palette comes back one access late, palette reads are immediate with
// the buffer primed from the nametable underneath.
func (p *PPU) readData() uint8 {
	addr := p.vramAddr & 0x3fff
	var v uint8
	if addr >= 0x3f00 {
		v = p.paletteRead(addr)
		p.readBuffer = p.mem.Read8(addr - 0x1000)
	} else {
		v = p.readBuffer
		p.readBuffer = p.mem.Read8(addr)
	}
	p.vramAddr += p.addrIncrement()
	return v
}
