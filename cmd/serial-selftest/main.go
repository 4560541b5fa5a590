//go:build !rp2040 && !rp2350

// Command serial-selftest exercises a serial port end to end.
//
// With no argument it runs against an in-memory loopback. Given a device
// name (e.g. /dev/ttyUSB0) it opens that port at 115200 8N1; TX must be
// jumpered to RX.
package main

import (
	"os"

	"embedded-serial-go/drivers/hostserial"
	"embedded-serial-go/drivers/loopback"
)

func main() {
	var p port
	if len(os.Args) > 1 {
		name := os.Args[1]
		println("[serial] opening", name, "…")
		hp, err := hostserial.Open(name, nil)
		if err != nil {
			println("[serial] FAIL:", err.Error())
			if names, lerr := hostserial.List(); lerr == nil {
				for _, n := range names {
					println("[serial]   available:", n)
				}
			}
			os.Exit(1)
		}
		defer hp.Close()
		p = hp
	} else {
		println("[serial] loopback, 64-byte FIFO")
		p = loopback.New[byte](loopback.Config{})
	}

	if !runAll(p, p) {
		os.Exit(1)
	}
	println("[serial] all checks passed")
}
