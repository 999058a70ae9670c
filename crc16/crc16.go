// Package crc16 implements a parameter-driven CRC-16 calculator: table
// construction from a generator polynomial, streaming byte folding with
// optional input/output reflection and a final XOR, and a self-check
// against a named parameter set's witness value for "123456789".
package crc16

// Params describes one named CRC-16 variant.
type Params struct {
	Name       string
	Width      uint   // bit length, always 16 for this package
	Poly       uint16 // generator polynomial
	Init       uint16 // initial register value
	RefIn      bool   // reflect each input byte before folding
	RefOut     bool   // reflect the final register before the XOR-out
	XorOut     uint16 // final XOR applied after folding all bytes
	CheckValue uint16 // CRC of "123456789", used by Validate
}

// Well-known parameter sets, grounded on the witnesses spec §8 S6 names.
var (
	CCITTFalse = Params{
		Name:  "CRC-16/CCITT-FALSE",
		Width: 16, Poly: 0x1021, Init: 0xFFFF,
		RefIn: false, RefOut: false, XorOut: 0x0000,
		CheckValue: 0x29B1,
	}
	XModem = Params{
		Name:  "CRC-16/XMODEM",
		Width: 16, Poly: 0x1021, Init: 0x0000,
		RefIn: false, RefOut: false, XorOut: 0x0000,
		CheckValue: 0x31C3,
	}
)

func reflect8(b byte) byte {
	var r byte
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

func reflect16(v uint16) uint16 {
	var r uint16
	for i := 0; i < 16; i++ {
		r <<= 1
		r |= v & 1
		v >>= 1
	}
	return r
}

// Table is the precomputed 256-entry XOR table for one Params value.
type Table struct {
	entries [256]uint16
	p       Params
}

// PopulateTable precomputes the 256-entry table for p. The table only
// depends on Poly, but is keyed to the full Params so Calculate can apply
// Init/RefIn/RefOut/XorOut without a second argument. Input reflection
// (RefIn) is applied once, to each input byte in Calculate, not here: the
// table itself is always built from the unreflected index so it means the
// same thing regardless of RefIn.
func PopulateTable(p Params) *Table {
	t := &Table{p: p}
	for i := 0; i < 256; i++ {
		crc := uint16(byte(i)) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ p.Poly
			} else {
				crc <<= 1
			}
		}
		t.entries[i] = crc
	}
	return t
}

// Calculate folds every byte of data through the table, reflecting each
// input byte first when the parameter set asks for it, then applies the
// final XOR and output reflection.
func (t *Table) Calculate(data []byte) uint16 {
	crc := t.p.Init
	for _, b := range data {
		in := b
		if t.p.RefIn {
			in = reflect8(in)
		}
		crc = (crc << 8) ^ t.entries[byte(crc>>8)^in]
	}
	if t.p.RefOut {
		crc = reflect16(crc)
	}
	return crc ^ t.p.XorOut
}

// Calculate is a convenience one-shot entry point that builds the table,
// runs it once, and discards it. Callers computing many CRCs for the same
// Params should call PopulateTable once and reuse the Table instead.
func Calculate(data []byte, p Params) uint16 {
	return PopulateTable(p).Calculate(data)
}

// Validate recomputes the CRC of the witness string "123456789" under p
// and compares it against p.CheckValue.
func Validate(p Params) bool {
	return Calculate([]byte("123456789"), p) == p.CheckValue
}
