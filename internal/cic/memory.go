// Package cic owns the lockout-chip data model and its pure transforms.
//
// Ownership boundary:
// - nibble memories and index helpers
// - region RAM images and security-variant constants
// - encode, compare and variant rounds
//
// Nothing here performs I/O; the session drives these between wire phases.
package cic

const (
	BlockSize         = 16
	SessionMemorySize = 32
	VariantMemorySize = 30
	ChecksumLen       = 12

	HighBlockBase = 0x10
)

// Nibble is a 4-bit value; only the low four bits are meaningful.
type Nibble uint8

// Mask clears everything above the low four bits.
func (n Nibble) Mask() Nibble { return n & 0x0f }

// Block is one 16-entry region of SessionMemory.
type Block [BlockSize]Nibble

// SessionMemory is the working memory of a session: low block 0x00-0x0F,
// high block 0x10-0x1F.
type SessionMemory [SessionMemorySize]Nibble

// VariantMemory holds the variant-mode payload in place.
type VariantMemory [VariantMemorySize]Nibble

// Low returns the 0x00-0x0F block backed by m.
func (m *SessionMemory) Low() *Block {
	return (*Block)(m[:BlockSize])
}

// High returns the 0x10-0x1F block backed by m.
func (m *SessionMemory) High() *Block {
	return (*Block)(m[HighBlockBase:])
}

// At reads the cell at i, wrapping modulo the memory size.
func (m *SessionMemory) At(i int) Nibble {
	return m[Wrap32(i)]
}

// Set writes the masked nibble at i, wrapping modulo the memory size.
func (m *SessionMemory) Set(i int, n Nibble) {
	m[Wrap32(i)] = n.Mask()
}

// Wrap16 is the index within a block.
func Wrap16(i int) int { return i & (BlockSize - 1) }

// Wrap32 is the index within SessionMemory.
func Wrap32(i int) int { return i & (SessionMemorySize - 1) }

// Wrap30 is the index within VariantMemory.
func Wrap30(i int) int {
	i %= VariantMemorySize
	if i < 0 {
		i += VariantMemorySize
	}
	return i
}

// BlockEnd is the first index past the block that contains i.
func BlockEnd(i int) int {
	return (i | (BlockSize - 1)) + 1
}
