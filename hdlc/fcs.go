package hdlc

// 16-bit frame check sequence per ISO/IEC 13239 (CRC-16/X.25):
// reflected polynomial 0x8408, initial value 0xFFFF, final XOR 0xFFFF.
// Both the HCS and the FCS of an HDLC frame use this algorithm.

const (
	fcsInit = 0xFFFF
	fcsPoly = 0x8408

	// fcsGood is the residue obtained by running the FCS calculation over a
	// message followed by its own FCS (transmitted low byte first).
	fcsGood = 0xF0B8
)

var fcsTable [256]uint16

func init() {
	for i := range fcsTable {
		crc := uint16(i)
		for bit := 0; bit < 8; bit++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ fcsPoly
			} else {
				crc >>= 1
			}
		}
		fcsTable[i] = crc
	}
}

// updateFCS folds data into a running FCS value.
func updateFCS(fcs uint16, data []byte) uint16 {
	for _, b := range data {
		fcs = (fcs >> 8) ^ fcsTable[byte(fcs)^b]
	}

	return fcs
}

// FCS16 computes the 16-bit frame check sequence over data.
//
// The result is transmitted on the wire least significant byte first,
// immediately after the data it covers.
func FCS16(data []byte) uint16 {
	return updateFCS(fcsInit, data) ^ 0xFFFF
}

// validFCS reports whether data, whose last two bytes are an FCS in wire
// order, verifies against the preceding bytes.
func validFCS(data []byte) bool {
	return updateFCS(fcsInit, data) == fcsGood
}
