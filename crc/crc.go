// Package crc implements the frame checksums spoken by supported pump heads:
// CRC-8 poly 0x93 for the binary protocol family and an additive decimal
// checksum for the ASCII protocol family.
package crc

import "fmt"

const CRC_POLY_93 byte = 0x93

var table93 [256]byte

func init() {
	for i := 0; i < 256; i++ {
		table93[i] = CRC8_p93_reference(0, byte(i))
	}
}

// CRC8_p93_reference is the bitwise implementation, source of the lookup table.
func CRC8_p93_reference(crc, data byte) byte {
	crc ^= data
	var i byte = 0
	for ; i < 8; i++ {
		if (crc & 0x80) != 0 {
			crc <<= 1
			crc ^= CRC_POLY_93
		} else {
			crc <<= 1
		}
	}
	return crc
}

// Accum8 advances a running CRC-8 by one byte via table lookup.
func Accum8(crc, data byte) byte {
	return table93[crc^data]
}

// Table8 computes CRC-8 over bs with zero init.
func Table8(bs []byte) byte {
	var crc byte
	for _, b := range bs {
		crc = table93[crc^b]
	}
	return crc
}

// Decimal returns the ASCII-protocol checksum of s: sum of byte values
// mod 100, zero-padded to 2 characters.
func Decimal(s string) string {
	sum := 0
	for i := 0; i < len(s); i++ {
		sum += int(s[i])
	}
	return fmt.Sprintf("%02d", sum%100)
}
