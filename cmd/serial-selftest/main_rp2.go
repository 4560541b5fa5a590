//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"embedded-serial-go/drivers/uartxport"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// Pico wiring: GP0 (UART0 TX) jumpered to GP5 (UART1 RX).
func main() {
	println("[serial] boot …")
	time.Sleep(1500 * time.Millisecond)

	u0, err := uartxport.Open("uart0", uartx.UARTConfig{BaudRate: 115200, TX: machine.GP0, RX: machine.GP1})
	if err != nil {
		println("[serial] FAIL: uart0:", err.Error())
		return
	}
	u1, err := uartxport.Open("uart1", uartx.UARTConfig{BaudRate: 115200, TX: machine.GP4, RX: machine.GP5})
	if err != nil {
		println("[serial] FAIL: uart1:", err.Error())
		return
	}

	for {
		if runAll(u0, u1) {
			println("[serial] all checks passed")
		}
		time.Sleep(10 * time.Second)
	}
}
