package bytecode

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEmitterBytes(t *testing.T) {
	e := NewEmitter()
	e.Byte(0x01)
	e.Byte(0x02)

	if e.Len() != 2 {
		t.Errorf("Len() = %d, want 2", e.Len())
	}
	if !bytes.Equal(e.Bytes(), []byte{0x01, 0x02}) {
		t.Errorf("Bytes() = % X, want 01 02", e.Bytes())
	}
}

func TestEmitterUint64LittleEndian(t *testing.T) {
	e := NewEmitter()
	e.Uint64(0x0102030405060708)

	want := []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(e.Bytes(), want) {
		t.Errorf("Uint64 emission = % X, want % X", e.Bytes(), want)
	}
}

func TestEmitterUint64RoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 42, 255, 256, 1<<32 - 1, 1 << 32, 1<<63 - 1, 1 << 63, ^uint64(0),
	}

	for _, v := range values {
		e := NewEmitter()
		e.Uint64(v)
		if got := binary.LittleEndian.Uint64(e.Bytes()); got != v {
			t.Errorf("round trip of %d = %d", v, got)
		}
	}
}

func TestEmitterPatch(t *testing.T) {
	e := NewEmitter()
	e.Raw(make([]byte, HeaderSize))
	e.Byte(byte(OpHalt))
	e.Byte(0x00)

	h := Header{Magic: Magic, Version: Version, Entry: HeaderSize, CodeSize: 2}
	e.Patch(0, h.Encode())

	got, err := DecodeHeader(e.Bytes())
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got != h {
		t.Errorf("patched header = %+v, want %+v", got, h)
	}
	if e.Bytes()[HeaderSize] != byte(OpHalt) {
		t.Error("patch overwrote code bytes")
	}
}
