package crc

import (
	"strings"
	"testing"
)

func makeCheck2(fun func(byte, byte) byte, tag string) func(t *testing.T, v1, v2, expect byte) {
	return func(t *testing.T, v1, v2, expect byte) {
		if fun(v1, v2) != expect {
			t.Errorf("%s(%02x, %02x) != %02x", tag, v1, v2, expect)
		}
	}
}

func makeCheckN(fun func([]byte) byte, tag string) func(t *testing.T, vs []byte, expect byte) {
	return func(t *testing.T, vs []byte, expect byte) {
		if fun(vs) != expect {
			t.Errorf("%s("+strings.Repeat("%02x", len(vs))+") != %02x", tag, vs, expect)
		}
	}
}

func TestReference(t *testing.T) {
	checkRef := makeCheck2(CRC8_p93_reference, "CRC8_p93_reference")
	checkRef(t, 0, 0x00, 0x00)
	checkRef(t, 0, 0x55, 0x86)
	checkRef(t, 0, 0xaa, 0x9f)
	checkRef(t, 0, 0xff, 0x19)
}

func TestLookup(t *testing.T) {
	checkAccum := makeCheck2(Accum8, "Accum8")
	checkAccum(t, 0, 0x00, 0x00)
	checkAccum(t, 0, 0x55, 0x86)
	checkAccum(t, 0, 0xaa, 0x9f)
	checkAccum(t, 0, 0xff, 0x19)
	checkN := makeCheckN(Table8, "Table8")
	checkN(t, []byte{0x06, 0x00, 0xbe, 0xeb, 0xee}, 0x75)
	checkN(t, []byte{0x04, 0x0f, 0x30}, 0xf7)
	checkN(t, []byte{0x01, 0x00, 0x00, 0x30, 0x04, 0x00, 0x00, 0x04, 0x1a}, 0x0d)
}

func TestLookupMatchesReference(t *testing.T) {
	for i := 0; i < 256; i++ {
		for _, init := range []byte{0x00, 0x55, 0xff} {
			if a, r := Accum8(init, byte(i)), CRC8_p93_reference(init, byte(i)); a != r {
				t.Fatalf("Accum8(%02x, %02x)=%02x reference=%02x", init, i, a, r)
			}
		}
	}
}

func TestDecimal(t *testing.T) {
	cases := []struct {
		input  string
		expect string
	}{
		// Checksum scope is the exact string passed in. Trailing '#' below
		// pins the content-plus-delimiter scope used by default.
		{"VT0000004142.02", "05"},
		{"VT0000004142.02#", "40"},
		{"STBZ#", "58"},
		{"PR0010.50#", "37"},
		{"", "00"},
	}
	for _, c := range cases {
		if out := Decimal(c.input); out != c.expect {
			t.Errorf("Decimal(%q)=%q expected=%q", c.input, out, c.expect)
		}
	}
}
