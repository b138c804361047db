package protocol

import (
	"errors"
	"io"
)

// Port is a byte-stream link to the controller or the host
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// ErrShortWrite is returned when a port accepts no bytes
var ErrShortWrite = errors.New("port accepted no data")

// WriteAll writes data in full, retrying partial writes, then flushes.
// A write that makes no progress is reported as ErrShortWrite.
func WriteAll(p Port, data []byte) error {
	for len(data) > 0 {
		n, err := p.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrShortWrite
		}
		data = data[n:]
	}
	return p.Flush()
}
