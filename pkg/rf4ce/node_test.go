package rf4ce

import (
	"bytes"
	"testing"
)

func TestLongAddressWireReversesOctets(t *testing.T) {
	addr, err := ParseLongAddress("01:02:03:04:05:06:07:08")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}
	if got := addr.Wire(); !bytes.Equal(got, want) {
		t.Fatalf("wire = % X, want % X", got, want)
	}
}

func TestLongAddressRoundTrip(t *testing.T) {
	addr, err := ParseLongAddress("aa:bb:cc:dd:ee:ff:11:22")
	if err != nil {
		t.Fatal(err)
	}
	back, err := LongAddressFromWire(addr.Wire())
	if err != nil {
		t.Fatal(err)
	}
	if back != addr {
		t.Fatalf("round trip mismatch: %s != %s", back, addr)
	}
	if got, want := addr.String(), "aa:bb:cc:dd:ee:ff:11:22"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParseLongAddressRejectsWrongShape(t *testing.T) {
	if _, err := ParseLongAddress("01:02:03"); err == nil {
		t.Fatal("expected error for short address")
	}
	if _, err := ParseLongAddress("zz:02:03:04:05:06:07:08"); err == nil {
		t.Fatal("expected error for non-hex octet")
	}
}

func TestShortAddressWire(t *testing.T) {
	a := ShortAddress(0x1234)
	want := []byte{0x34, 0x12}
	if got := a.Wire(); !bytes.Equal(got, want) {
		t.Fatalf("wire = % X, want % X", got, want)
	}
	back, err := ShortAddressFromWire(want)
	if err != nil {
		t.Fatal(err)
	}
	if back != a {
		t.Fatalf("round trip: got %s, want %s", back, a)
	}
}
