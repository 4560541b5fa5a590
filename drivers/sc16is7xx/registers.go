package sc16is7xx

// Default I²C address (A1=A0=VDD).
const AddressDefault = 0x48

// FIFODepth is the size of each hardware FIFO in bytes.
const FIFODepth = 64

// Register numbers (general register set).
const (
	regRHR   = 0x00 // read
	regTHR   = 0x00 // write
	regFCR   = 0x02 // write
	regLSR   = 0x05
	regTXLVL = 0x08
	regRXLVL = 0x09
)

// FCR bits.
const (
	fcrFIFOEnable = 0x01
	fcrResetRX    = 0x02
	fcrResetTX    = 0x04
)

// LSR bits.
const (
	lsrDataReady = 0x01
	lsrOverrun   = 0x02
	lsrParity    = 0x04
	lsrFraming   = 0x08
	lsrBreak     = 0x10
	lsrFIFOError = 0x80

	lsrErrors    = lsrOverrun | lsrParity | lsrFraming | lsrBreak
	lsrCharError = lsrParity | lsrFraming | lsrBreak
)

// subaddr builds the register address byte: reg in bits 6:3, channel in 2:1.
func subaddr(reg, ch uint8) byte { return reg<<3 | (ch&0x03)<<1 }
