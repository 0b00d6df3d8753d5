package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Magic identifies a Pocol object file ("poco").
const Magic uint32 = 0x706F636F

// Version is the current object format version.
// Increment when making incompatible changes to the format.
const Version uint32 = 1

// HeaderSize is the fixed size of the object header in bytes.
// The code region starts immediately after it.
const HeaderSize = 24

// Header is the fixed-size prefix of every object file.
// All fields are little-endian on the wire.
//
//	[magic:4] [version:4] [entry_point:8] [code_size:8]
type Header struct {
	Magic    uint32
	Version  uint32
	Entry    uint64 // byte offset of _start in the file
	CodeSize uint64 // bytes in the code region
}

// Encode serializes the header into its wire form.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint64(buf[8:16], h.Entry)
	binary.LittleEndian.PutUint64(buf[16:24], h.CodeSize)
	return buf
}

// DecodeHeader reads a header from the start of an object image.
// It validates only the length; magic and version checks belong to the
// loader so it can report them as distinct load errors.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("object too short: need at least %d bytes, got %d", HeaderSize, len(data))
	}
	return Header{
		Magic:    binary.LittleEndian.Uint32(data[0:4]),
		Version:  binary.LittleEndian.Uint32(data[4:8]),
		Entry:    binary.LittleEndian.Uint64(data[8:16]),
		CodeSize: binary.LittleEndian.Uint64(data[16:24]),
	}, nil
}
