// Package serial describes serial port (UART) functionality as a set of
// small capability interfaces.
//
// A serial port here is anything that moves words (usually octets) in order,
// one at a time. Libraries that need byte-stream I/O, such as an AT command
// parser, depend on the narrowest capability they need; the application
// supplies the concrete driver for its board:
//
//	type Modem[P serial.TimeoutDuplex[byte]] struct{ port P }
//
//	func (m *Modem[P]) Send(cmd []byte) error {
//		_, err := serial.TransmitBufferTimeout(m.port, cmd, 50*time.Millisecond)
//		return err
//	}
//
// Capabilities cross two axes. Direction is receive (Rx) or transmit (Tx).
// Timing is blocking, blocking with a timeout, or non-blocking. A driver
// implements only the combinations its hardware really supports.
//
// Two conditions are part of the contract and are not faults: ErrWouldBlock
// from non-blocking calls and ErrTimedOut from timeout-bounded calls. Every
// other error is the driver's own fault value and is returned unchanged.
//
// Driver instances are single-owner. Nothing in this package locks; wrap a
// driver with package shared when several goroutines must use it.
package serial
