package main

import (
	"io"
	"machine"
	"runtime"
	"time"
)

type serialIO struct {
	machine.Serialer
}

// SerialReadWriter combines the io.ReadWriter and machine.Serialer interfaces.
type SerialReadWriter interface {
	io.ReadWriter
	ReadByte() (byte, error)
	WriteByte(byte) error
	// Buffered returns the number of bytes currently buffered in the serial
	// device.
	Buffered() int
}

// WrapSerial wraps a machine.Serialer in an io.ReadWriter.
func WrapSerial(serial machine.Serialer) SerialReadWriter {
	return serialIO{Serialer: serial}
}

func (s serialIO) Read(b []byte) (int, error) {
	n := min(s.Buffered(), len(b))
	if n == 0 {
		// Sleep so the report loop gets to run.
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	for i := 0; i < n; i++ {
		c, err := s.ReadByte()
		if err != nil {
			return i, err
		}
		b[i] = c
	}
	runtime.Gosched()
	return n, nil
}

func (s serialIO) Write(b []byte) (int, error) {
	for i, c := range b {
		if err := s.WriteByte(c); err != nil {
			return i, err
		}
	}
	runtime.Gosched()
	return len(b), nil
}
