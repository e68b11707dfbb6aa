package nes

import (
	"os"

	"github.com/pkg/errors"
)

const (
	headerSizeBytes  = 16
	trainerSizeBytes = 512
	prgBankSizeBytes = 0x4000
	chrBankSizeBytes = 0x2000
)

var inesMagic = [4]byte{'N', 'E', 'S', 0x1a}

type Cart struct {
	prgMem []uint8
	chrMem []uint8

	prgBanks uint8
	chrBanks uint8
	mapperID uint8
	mirror   uint8 // 0: horizontal, 1: vertical
	chrRAM   bool

	mapper Mapper
}

// NewCartFromBytes parses an iNES image. Only mapper 0 (NROM) carts
// are accepted; everything that goes wrong wraps ErrInvalidROM.
func NewCartFromBytes(data []byte) (*Cart, error) {
	if len(data) < headerSizeBytes {
		return nil, errors.Wrap(ErrInvalidROM, "short header")
	}
	if data[0] != inesMagic[0] || data[1] != inesMagic[1] ||
		data[2] != inesMagic[2] || data[3] != inesMagic[3] {
		return nil, errors.Wrap(ErrInvalidROM, "bad magic")
	}

	prgBanks := data[4]
	chrBanks := data[5]
	flags6 := data[6]
	flags7 := data[7]

	mapperID := (flags7 & 0xf0) | (flags6 >> 4)
	if mapperID != 0 {
		return nil, errors.Wrapf(ErrInvalidROM, "unsupported mapper %d", mapperID)
	}
	if prgBanks == 0 || prgBanks > 2 {
		return nil, errors.Wrapf(ErrInvalidROM, "NROM cannot hold %d PRG banks", prgBanks)
	}

	offset := headerSizeBytes
	// the third bit of flags6 marks a 512-byte trainer to skip
	if flags6&0x4 != 0 {
		offset += trainerSizeBytes
	}

	prgSize := int(prgBanks) * prgBankSizeBytes
	chrSize := int(chrBanks) * chrBankSizeBytes
	if len(data) < offset+prgSize+chrSize {
		return nil, errors.Wrapf(ErrInvalidROM, "truncated file: want %d bytes, have %d",
			offset+prgSize+chrSize, len(data))
	}

	cart := &Cart{
		prgMem:   make([]uint8, prgSize),
		chrMem:   make([]uint8, chrSize),
		prgBanks: prgBanks,
		chrBanks: chrBanks,
		mapperID: mapperID,
		mirror:   flags6 & 0x1,
	}
	copy(cart.prgMem, data[offset:offset+prgSize])
	copy(cart.chrMem, data[offset+prgSize:offset+prgSize+chrSize])

	// no CHR banks means the board carries 8 KiB of CHR RAM
	if chrBanks == 0 {
		cart.chrMem = make([]uint8, chrBankSizeBytes)
		cart.chrRAM = true
	}

	cart.mapper = NewMapper(cart)
	return cart, nil
}

// NewCartFromFile reads a .nes file and returns a Cart struct.
// Supported NES format: iNES
func NewCartFromFile(path string) (*Cart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open the file")
	}
	return NewCartFromBytes(data)
}

func (c Cart) Read8(addr uint16) uint8 {
	return c.mapper.Read8(addr)
}

func (c Cart) Write8(addr uint16, data uint8) {
	c.mapper.Write8(addr, data)
}
