package uartbridge

import (
	"errors"
	"strings"
	"testing"

	"embedded-serial-go/drivers/loopback"
	"embedded-serial-go/serial"
	"embedded-serial-go/serial/serialtest"

	"tinygo.org/x/drivers/gps"
)

func TestGPSReadsSentenceThroughBridge(t *testing.T) {
	lp := loopback.New[byte](loopback.Config{Size: 256})
	const gll = "$GPGLL,3751.65,S,14507.36,E*77"
	const rmc = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	feed := "\r\n" + gll + "\r\n" + rmc + "\r\n" + strings.Repeat("\r\n", 32)
	if n, err := serial.TransmitBuffer[byte](lp, []byte(feed)); err != nil || n != len(feed) {
		t.Fatalf("preload n=%d err=%v", n, err)
	}

	dev := gps.NewUART(New(lp, lp, Config{}))
	s, err := dev.NextSentence()
	if err != nil || s != gll {
		t.Fatalf("first sentence %q err=%v", s, err)
	}
	s, err = dev.NextSentence()
	if err != nil || s != rmc {
		t.Fatalf("second sentence %q err=%v", s, err)
	}
}

func TestBufferedAndRead(t *testing.T) {
	m := serialtest.NewMock[byte]()
	m.Load([]byte("hello")...)
	u := New(m, loopback.New[byte](loopback.Config{}), Config{Size: 4})

	if n := u.Buffered(); n != 4 {
		t.Fatalf("Buffered=%d want 4 (staging size)", n)
	}
	p := make([]byte, 8)
	n, err := u.Read(p)
	if n != 5 || err != nil || string(p[:n]) != "hello" {
		t.Fatalf("Read=%d,%v %q", n, err, p[:n])
	}
	if n, err := u.Read(p); n != 0 || err != nil {
		t.Fatalf("idle Read=%d,%v", n, err)
	}
}

func TestFaultAfterPrecedingBytes(t *testing.T) {
	m := serialtest.NewMock[byte]()
	fault := errors.New("uart: framing")
	m.Load('o', 'k')
	u := New(m, loopback.New[byte](loopback.Config{}), Config{})
	if u.Buffered() != 2 {
		t.Fatal("bytes not staged")
	}
	m.FailReceive(fault)

	p := make([]byte, 8)
	if n, err := u.Read(p); n != 2 || err != nil {
		t.Fatalf("Read=%d,%v", n, err)
	}
	if n, err := u.Read(p); n != 0 || err != fault {
		t.Fatalf("Read=%d,%v want fault", n, err)
	}
	if n, err := u.Read(p); n != 0 || err != nil {
		t.Fatalf("fault repeated: %d,%v", n, err)
	}
}

func TestWriteThenReadBack(t *testing.T) {
	lp := loopback.New[byte](loopback.Config{})
	u := New(lp, lp, Config{})
	const cmd = "$PMTK220,1000*1F\r\n"
	if n, err := u.Write([]byte(cmd)); n != len(cmd) || err != nil {
		t.Fatalf("Write=%d,%v", n, err)
	}
	if n := u.Buffered(); n != len(cmd) {
		t.Fatalf("Buffered=%d", n)
	}
	p := make([]byte, 32)
	n, err := u.Read(p)
	if err != nil || string(p[:n]) != cmd {
		t.Fatalf("Read=%d,%v %q", n, err, p[:n])
	}
}
