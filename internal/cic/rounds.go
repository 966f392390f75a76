package cic

// EncodeRound diffuses the block containing start, beginning after start:
// each following cell becomes the running sum of itself, one, and the cell
// before it. A start on the last cell of a block leaves the memory untouched.
func EncodeRound(m *SessionMemory, start int) {
	start = Wrap32(start)
	a := m[start].Mask()
	for i := start + 1; i < BlockEnd(start); i++ {
		a = (a + 1 + m[i]).Mask()
		m[i] = a
	}
}

// CompareRound is the compare-mode memory alternation.
//
// The pass count is data dependent: x starts at b[15] and counts down
// modulo 16 once per pass, and the round ends when it reaches 15.
func CompareRound(b *Block) {
	for i := range b {
		b[i] = b[i].Mask()
	}

	x := b[15]
	for {
		a := x
		i := 1

		a = (a + b[i] + 1).Mask()
		b[i] = a
		i++

		a = (a + b[i] + 1).Mask()
		a, b[i] = b[i], a
		b[i] = (^b[i]).Mask()
		i++

		if s := a + b[i] + 1; s < 0x10 {
			a, b[i] = b[i], s
			i++
		} else {
			a = s.Mask()
		}

		a = (a + b[i]).Mask()
		b[i] = a
		i++

		a = (a + b[i]).Mask()
		a, b[i] = b[i], a
		i++

		if a+8 < 0x10 {
			a = (a + 8 + b[i]).Mask()
		} else {
			a = (a + 8).Mask()
		}
		a, b[i] = b[i], a
		i++

		for ; i < BlockSize; i++ {
			a = (a + b[i] + 1).Mask()
			b[i] = a
		}

		x = (x + 0xf).Mask()
		if x == 0xf {
			return
		}
	}
}

// VariantRound is the variant-mode transform. It runs exactly one step per
// cell and returns the final carry.
func VariantRound(m *VariantMemory) uint8 {
	a := Nibble(5)
	carry := Nibble(1)
	for i := range m {
		v := m[i].Mask()
		if v&1 == 0 {
			a += 8
		}
		if a&2 == 0 {
			a += 4
		}
		a = (a + v).Mask()
		m[i] = a
		if carry == 0 {
			a += 7
		}
		a = (a + m[i]).Mask()
		a += m[i] + carry
		if a >= 0x10 {
			carry = 1
			a -= 0x10
		} else {
			carry = 0
		}
		a = (^a).Mask()
		m[i] = a
	}
	return uint8(carry)
}
