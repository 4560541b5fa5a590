package serial

// Word is the unit moved by one primitive call. byte covers ordinary 8-bit
// ports; uint16 covers 9-bit ports that carry the ninth bit as data.
type Word interface {
	~uint8 | ~uint16
}

// Mask9 keeps the data bits of a 9-bit word.
const Mask9 uint16 = 0x01FF
