package nes

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidROM is wrapped by every error NewCartFromBytes returns.
var ErrInvalidROM = errors.New("invalid rom")

// UnknownOpcodeError is reported through the bus error callback when
// the decoder hits a byte with no table entry. It is never fatal: the
// CPU burns one cycle and keeps going.
type UnknownOpcodeError struct {
	PC   uint16
	Byte uint8
}

func (e UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode %02X at %04X", e.Byte, e.PC)
}

type accessKind uint8

const (
	accessRead accessKind = iota
	accessWrite
)

func (k accessKind) String() string {
	if k == accessWrite {
		return "write"
	}
	return "read"
}

// UnmappedAccessError marks bus traffic into a region with no backing
// device. Reads return 0 and writes are dropped.
type UnmappedAccessError struct {
	Addr uint16
	Kind accessKind
}

func (e UnmappedAccessError) Error() string {
	return fmt.Sprintf("unmapped %s at %04X", e.Kind, e.Addr)
}
