//go:build rp2040 || rp2350

package uartxport

import (
	"embedded-serial-go/errcode"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

var _ Port = (*uartx.UART)(nil)

// Open configures a hardware UART by id ("uart0" or "uart1") and wraps it.
// Zero fields in cfg take the uartx defaults.
func Open(id string, cfg uartx.UARTConfig) (*UART, error) {
	var hw *uartx.UART
	switch id {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "uartxport.Open", Msg: "unknown uart " + id}
	}
	if err := hw.Configure(cfg); err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "uartxport.Open", Msg: id, Err: err}
	}
	return New(hw), nil
}
