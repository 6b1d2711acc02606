package storage

import (
	"errors"
)

const (
	OneKB = 1 << 10 // 1,024

	// BlockSize is the on-disk record granularity of the container format.
	BlockSize = 2880 // 36 cards * 80 bytes
)

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

// Padding bytes used to fill a data unit up to the next block.
const (
	BinaryPad byte = 0x00
	ASCIIPad  byte = ' '
)

var (
	ErrShortRead    = errors.New("storage: region extends past end of file")
	ErrInvalidRange = errors.New("storage: invalid region")
)

// PadLength returns how many bytes must follow n bytes of data to reach a
// block boundary.
func PadLength(n int) int {
	if r := n % BlockSize; r != 0 {
		return BlockSize - r
	}
	return 0
}
