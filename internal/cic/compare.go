package cic

// CompareIndex is the cell whose low nibble picks the compare-mode start.
const CompareIndex = 0x17

// CompareStart is the compare-mode start index: the low nibble of
// mem[CompareIndex], never 0, inside the high block.
func CompareStart(mem *SessionMemory) int {
	start := int(mem.At(CompareIndex).Mask())
	if start == 0 {
		start = 1
	}
	return start | HighBlockBase
}

// CompareSteps is how many cells the walk from start visits before the index
// lands on a block boundary: NTSC walks up, PAL walks down.
func CompareSteps(region Region, start int) int {
	low := Wrap16(start)
	if region.CompareStep() < 0 {
		return low
	}
	return BlockSize - low
}
