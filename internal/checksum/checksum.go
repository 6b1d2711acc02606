// Package checksum computes the 32-bit ones-complement data checksum of
// the container format and its 16-character ASCII encoding.
package checksum

import (
	"strconv"
)

// Result is the integer/string pair handed to the checksum keyword
// writer: Sum feeds CHECKSUM, Text is the DATASUM keyword value.
type Result struct {
	Sum  uint32
	Text string
}

func NewResult(sum uint32) Result {
	return Result{Sum: sum, Text: strconv.FormatUint(uint64(sum), 10)}
}

// Sum accumulates data into a running ones-complement checksum. data is
// read as big-endian 32-bit words; a trailing partial word is zero padded.
func Sum(data []byte, prev uint32) uint32 {
	hi := uint64(prev >> 16)
	lo := uint64(prev & 0xFFFF)

	n := len(data) &^ 3
	for i := 0; i < n; i += 4 {
		hi += uint64(data[i])<<8 | uint64(data[i+1])
		lo += uint64(data[i+2])<<8 | uint64(data[i+3])
	}
	if rem := len(data) - n; rem > 0 {
		var w [4]byte
		copy(w[:], data[n:])
		hi += uint64(w[0])<<8 | uint64(w[1])
		lo += uint64(w[2])<<8 | uint64(w[3])
	}

	// end-around carry
	for {
		hc, lc := hi>>16, lo>>16
		if hc == 0 && lc == 0 {
			break
		}
		hi = (hi & 0xFFFF) + lc
		lo = (lo & 0xFFFF) + hc
	}
	return uint32(hi<<16 | lo)
}

// characters the encoding must avoid (punctuation between digits and letters)
var excluded = []byte{
	0x3a, 0x3b, 0x3c, 0x3d, 0x3e, 0x3f, 0x40,
	0x5b, 0x5c, 0x5d, 0x5e, 0x5f, 0x60,
}

const asciiOffset = 0x30

// Encode renders sum as the 16-character ASCII checksum string. With
// complement set the ones complement of sum is encoded, which is what a
// CHECKSUM keyword holds.
func Encode(sum uint32, complement bool) string {
	if complement {
		sum = ^sum
	}
	var asc [16]byte
	for i := 0; i < 4; i++ {
		b := int((sum >> (24 - 8*uint(i))) & 0xFF)
		q := b/4 + asciiOffset
		r := b % 4
		ch := [4]int{q + r, q, q, q}

		for again := true; again; {
			again = false
			for _, e := range excluded {
				for j := 0; j < 4; j += 2 {
					if ch[j] == int(e) || ch[j+1] == int(e) {
						ch[j]++
						ch[j+1]--
						again = true
					}
				}
			}
		}
		for j := 0; j < 4; j++ {
			asc[4*j+i] = byte(ch[j])
		}
	}

	// rotate right by one character
	var out [16]byte
	for i := range out {
		out[i] = asc[(i+15)%16]
	}
	return string(out[:])
}
