package bytecode

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Magic:    Magic,
		Version:  Version,
		Entry:    24,
		CodeSize: 1234,
	}

	buf := h.Encode()
	if len(buf) != HeaderSize {
		t.Fatalf("Encode() length = %d, want %d", len(buf), HeaderSize)
	}

	got, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got != h {
		t.Errorf("DecodeHeader = %+v, want %+v", got, h)
	}
}

func TestHeaderWireLayout(t *testing.T) {
	h := Header{Magic: Magic, Version: 1, Entry: 0x18, CodeSize: 2}
	buf := h.Encode()

	// magic "poco" = 0x706F636F, little-endian on the wire
	want := []byte{0x6F, 0x63, 0x6F, 0x70}
	for i, b := range want {
		if buf[i] != b {
			t.Errorf("magic byte[%d] = 0x%02X, want 0x%02X", i, buf[i], b)
		}
	}
	if buf[4] != 1 || buf[5] != 0 {
		t.Errorf("version bytes = % X, want little-endian 1", buf[4:8])
	}
	if buf[8] != 0x18 {
		t.Errorf("entry byte[0] = 0x%02X, want 0x18", buf[8])
	}
	if buf[16] != 2 {
		t.Errorf("code_size byte[0] = 0x%02X, want 2", buf[16])
	}
}

func TestDecodeHeaderTooShort(t *testing.T) {
	if _, err := DecodeHeader(make([]byte, HeaderSize-1)); err == nil {
		t.Error("DecodeHeader(short) = nil error, want error")
	}
}
