package hdlc

import "fmt"

// Address bit layout constants for the HDLC extension-bit scheme.
//
// Each address byte carries 7 address bits; the least significant bit is the
// extension bit, set only on the final byte of the address field.
const (
	// MaxOneByteAddress is the largest address value that fits a single byte.
	MaxOneByteAddress = 0x7F

	// MaxLogicalAddress is the largest logical or physical address value
	// (14 bits, four-byte encoding).
	MaxLogicalAddress = 0x3FFF

	extensionBit = 0x01
)

// Address is an HDLC address: a logical address with an optional physical
// address. The client side of a connection uses a one-byte logical address;
// the server (device) side may additionally carry a physical address to
// select a device on a multi-drop line.
//
// The zero value is not a valid address; use NewClientAddress or
// NewServerAddress.
type Address struct {
	// Logical is the logical device address (up to 14 bits).
	Logical uint16
	// Physical is the physical device address (up to 14 bits).
	// Only meaningful when HasPhysical is true.
	Physical uint16
	// HasPhysical indicates that the address carries a physical part.
	HasPhysical bool
}

// NewClientAddress creates a one-byte client address.
// Client addresses are always a single byte, so logical must be in [0, 127].
func NewClientAddress(logical uint8) (Address, error) {
	if logical > MaxOneByteAddress {
		return Address{}, fmt.Errorf("%w: client logical address %d exceeds %d", ErrInvalidAddress, logical, MaxOneByteAddress)
	}

	return Address{Logical: uint16(logical)}, nil
}

// NewServerAddress creates a server address with only a logical part.
func NewServerAddress(logical uint16) (Address, error) {
	if logical > MaxOneByteAddress {
		return Address{}, fmt.Errorf("%w: server logical address %d exceeds %d for one-byte addressing", ErrInvalidAddress, logical, MaxOneByteAddress)
	}

	return Address{Logical: logical}, nil
}

// NewServerPhysicalAddress creates a server address with logical and physical
// parts. The encoded size is two bytes when both values fit 7 bits, four
// bytes otherwise.
func NewServerPhysicalAddress(logical, physical uint16) (Address, error) {
	if logical > MaxLogicalAddress {
		return Address{}, fmt.Errorf("%w: logical address %d exceeds %d", ErrInvalidAddress, logical, MaxLogicalAddress)
	}
	if physical > MaxLogicalAddress {
		return Address{}, fmt.Errorf("%w: physical address %d exceeds %d", ErrInvalidAddress, physical, MaxLogicalAddress)
	}

	return Address{Logical: logical, Physical: physical, HasPhysical: true}, nil
}

// String returns a diagnostic representation of the address.
func (a Address) String() string {
	if a.HasPhysical {
		return fmt.Sprintf("%d/%d", a.Logical, a.Physical)
	}

	return fmt.Sprintf("%d", a.Logical)
}

// Encode returns the wire representation of the address.
//
// One byte for a logical-only address, two bytes for a logical+physical pair
// fitting 7 bits each, four bytes otherwise.
func (a Address) Encode() ([]byte, error) {
	if !a.HasPhysical {
		if a.Logical > MaxOneByteAddress {
			return nil, fmt.Errorf("%w: logical address %d requires a physical part for multi-byte encoding", ErrInvalidAddress, a.Logical)
		}

		return []byte{byte(a.Logical)<<1 | extensionBit}, nil
	}

	if a.Logical > MaxLogicalAddress || a.Physical > MaxLogicalAddress {
		return nil, fmt.Errorf("%w: address %s exceeds 14-bit range", ErrInvalidAddress, a)
	}

	if a.Logical <= MaxOneByteAddress && a.Physical <= MaxOneByteAddress {
		return []byte{
			byte(a.Logical) << 1,
			byte(a.Physical)<<1 | extensionBit,
		}, nil
	}

	return []byte{
		byte(a.Logical>>7) << 1,
		byte(a.Logical&0x7F) << 1,
		byte(a.Physical>>7) << 1,
		byte(a.Physical&0x7F)<<1 | extensionBit,
	}, nil
}

// decodeAddress consumes an address field from the start of data, returning
// the address and the number of bytes consumed.
//
// Valid address fields are 1, 2, or 4 bytes long, terminated by the byte
// whose extension bit is set.
func decodeAddress(data []byte) (Address, int, error) {
	size := 0
	for i, b := range data {
		if i >= 4 {
			break
		}
		if b&extensionBit != 0 {
			size = i + 1

			break
		}
	}

	switch size {
	case 1:
		return Address{Logical: uint16(data[0] >> 1)}, 1, nil

	case 2:
		return Address{
			Logical:     uint16(data[0] >> 1),
			Physical:    uint16(data[1] >> 1),
			HasPhysical: true,
		}, 2, nil

	case 4:
		return Address{
			Logical:     uint16(data[0]>>1)<<7 | uint16(data[1]>>1),
			Physical:    uint16(data[2]>>1)<<7 | uint16(data[3]>>1),
			HasPhysical: true,
		}, 4, nil

	default:
		return Address{}, 0, fmt.Errorf("%w: address field is not 1, 2 or 4 bytes", ErrInvalidAddress)
	}
}
