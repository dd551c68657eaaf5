package rf4ce

import (
	"bytes"
	"testing"
)

func TestFrameControlEncoding(t *testing.T) {
	f := &Frame{
		Type:              FrameTypeData,
		Ciphered:          true,
		ProtocolVersion:   1,
		ChannelDesignator: 0,
	}
	if got, want := f.FrameControl(), byte(0x2D); got != want {
		t.Fatalf("frame control = 0x%02X, want 0x%02X", got, want)
	}
}

func TestFrameControlAlwaysSetsBit5(t *testing.T) {
	f := &Frame{Type: FrameTypeData, ProtocolVersion: 3, ChannelDesignator: 3}
	if f.FrameControl()&frameControlBit5 == 0 {
		t.Fatal("bit 5 must always be set")
	}
}

func TestDataFramePackPrefix(t *testing.T) {
	src, _ := ParseLongAddress("01:02:03:04:05:06:07:08")
	dst, _ := ParseLongAddress("11:12:13:14:15:16:17:18")
	key := vectorAKey()

	f := &Frame{
		Type:              FrameTypeData,
		Ciphered:          true,
		ProtocolVersion:   1,
		ChannelDesignator: 0,
		FrameCounter:      0x11223344,
		Source:            Node{Long: src},
		Destination:       Node{Long: dst},
		ProfileID:         0xC0,
		Payload:           []byte("hello"),
	}

	out, err := f.Pack(key)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	wantPrefix := []byte{0x2D, 0x44, 0x33, 0x22, 0x11, 0xC0}
	if !bytes.Equal(out[:len(wantPrefix)], wantPrefix) {
		t.Fatalf("prefix = % X, want % X", out[:len(wantPrefix)], wantPrefix)
	}
	if got, want := len(out), len(wantPrefix)+len(f.Payload)+micLen; got != want {
		t.Fatalf("packed length = %d, want %d", got, want)
	}
}

func TestFrameRoundTripAllTypes(t *testing.T) {
	src, _ := ParseLongAddress("01:02:03:04:05:06:07:08")
	dst, _ := ParseLongAddress("11:12:13:14:15:16:17:18")
	key := vectorAKey()
	source := Node{Long: src}
	destination := Node{Long: dst}

	cases := []*Frame{
		{Type: FrameTypeData, ProtocolVersion: 1, FrameCounter: 1, Source: source, Destination: destination, ProfileID: 0x01, Payload: []byte("plain data")},
		{Type: FrameTypeData, Ciphered: true, ProtocolVersion: 1, FrameCounter: 2, Source: source, Destination: destination, ProfileID: 0x01, Payload: []byte("ciphered data")},
		{Type: FrameTypeCommand, FrameCounter: 3, Source: source, Destination: destination, Command: 0x01, Payload: []byte{0xAA, 0xBB}},
		{Type: FrameTypeCommand, Ciphered: true, FrameCounter: 4, Source: source, Destination: destination, Command: 0x01, Payload: []byte{0xAA, 0xBB}},
		{Type: FrameTypeVendor, FrameCounter: 5, Source: source, Destination: destination, ProfileID: 0xB0, VendorID: 0x1234, Payload: []byte("vendor")},
		{Type: FrameTypeVendor, Ciphered: true, FrameCounter: 6, Source: source, Destination: destination, ProfileID: 0xB0, VendorID: 0x1234, Payload: []byte("vendor")},
	}

	for i, f := range cases {
		raw, err := f.Pack(key)
		if err != nil {
			t.Fatalf("case %d: pack: %v", i, err)
		}
		got, err := ParseFrame(raw, source, destination, key)
		if err != nil {
			t.Fatalf("case %d: parse: %v", i, err)
		}
		if got.Type != f.Type || got.Ciphered != f.Ciphered || got.FrameCounter != f.FrameCounter ||
			got.Command != f.Command || got.ProfileID != f.ProfileID || got.VendorID != f.VendorID ||
			!bytes.Equal(got.Payload, f.Payload) {
			t.Fatalf("case %d: round-trip mismatch: got %+v, want %+v", i, got, f)
		}
	}
}

func TestParseReservedFrameType(t *testing.T) {
	raw := []byte{0x00, 0, 0, 0, 0}
	if _, err := ParseFrame(raw, Node{}, Node{}, nil); err == nil {
		t.Fatal("expected error for reserved frame type")
	}
}

func TestParseCipheredWithoutKey(t *testing.T) {
	src, _ := ParseLongAddress("01:02:03:04:05:06:07:08")
	dst, _ := ParseLongAddress("11:12:13:14:15:16:17:18")
	source := Node{Long: src}
	destination := Node{Long: dst}
	f := &Frame{Type: FrameTypeData, Ciphered: true, FrameCounter: 1, Source: source, Destination: destination, ProfileID: 1, Payload: []byte("x")}
	raw, err := f.Pack(vectorAKey())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFrame(raw, source, destination, nil); !IsParseError(err) {
		t.Fatalf("expected ParseError for missing key, got %v", err)
	}
}
