package protocol

import "testing"

func TestScratchOutput(t *testing.T) {
	scratch := NewScratchOutput()

	if !scratch.IsEmpty() {
		t.Error("New scratch output should be empty")
	}

	scratch.Output([]byte{ResponseOK})
	scratch.Output([]byte{ResponseOK, ResponseOK})

	if scratch.Len() != 3 {
		t.Errorf("Expected 3 pending bytes, got %d", scratch.Len())
	}

	out := scratch.Drain()
	if string(out) != "444" {
		t.Errorf("Expected drained output 444, got %q", out)
	}
	if !scratch.IsEmpty() {
		t.Error("Drain should empty the buffer")
	}
	if scratch.Drain() != nil {
		t.Error("Draining an empty buffer should return nil")
	}

	// Drained bytes must not alias the scratch area
	scratch.Output([]byte{'a'})
	first := scratch.Drain()
	scratch.Output([]byte{'b'})
	if first[0] != 'a' {
		t.Errorf("Drained slice changed after reuse: %q", first)
	}
}

func TestScratchOutputOverflow(t *testing.T) {
	scratch := NewScratchOutput()
	big := make([]byte, MessageMax+10)
	scratch.Output(big)
	if scratch.Len() != MessageMax {
		t.Errorf("Expected output capped at %d, got %d", MessageMax, scratch.Len())
	}

	scratch.Reset()
	if !scratch.IsEmpty() {
		t.Error("Reset should discard pending bytes")
	}
}

func TestFifoBuffer(t *testing.T) {
	fifo := NewFifoBuffer(10)

	if !fifo.IsEmpty() {
		t.Error("New FIFO should be empty")
	}

	written := fifo.Write([]byte("0123"))
	if written != 4 {
		t.Errorf("Expected to write 4 bytes, wrote %d", written)
	}

	b, ok := fifo.Peek()
	if !ok || b != '0' {
		t.Errorf("Expected to peek '0', got %q", b)
	}
	if fifo.Available() != 4 {
		t.Errorf("Peek should not consume, got %d available", fifo.Available())
	}

	for _, want := range []byte("0123") {
		got, ok := fifo.ReadByte()
		if !ok || got != want {
			t.Errorf("Expected %q, got %q (ok=%v)", want, got, ok)
		}
	}

	if _, ok := fifo.ReadByte(); ok {
		t.Error("ReadByte on empty FIFO should fail")
	}

	fifo.Reset()
	written = fifo.Write(make([]byte, 12))
	if written != 10 {
		t.Errorf("Expected to write 10 bytes to size-10 FIFO, wrote %d", written)
	}
	if fifo.Free() != 0 {
		t.Errorf("Expected full FIFO, got %d free", fifo.Free())
	}
}

func TestFifoBufferWrapAround(t *testing.T) {
	fifo := NewFifoBuffer(5)

	fifo.Write([]byte{1, 2, 3, 4})
	skip := make([]byte, 2)
	fifo.Read(skip)

	// Write more (will wrap around)
	if written := fifo.Write([]byte{5, 6, 7}); written != 3 {
		t.Errorf("Expected to write 3 bytes, wrote %d", written)
	}

	allData := make([]byte, 8)
	if read := fifo.Read(allData); read != 5 {
		t.Errorf("Expected to read 5 bytes, read %d", read)
	}
	for i, want := range []byte{3, 4, 5, 6, 7} {
		if allData[i] != want {
			t.Errorf("Wrap-around data mismatch at %d: got %v", i, allData[:5])
			break
		}
	}
}

func TestIsSlideCommand(t *testing.T) {
	for _, b := range []byte("0123") {
		if !IsSlideCommand(b) {
			t.Errorf("Expected %q to be a slide command", b)
		}
	}
	for _, b := range []byte{'4', '9', 'a', 0} {
		if IsSlideCommand(b) {
			t.Errorf("Expected %q not to be a slide command", b)
		}
	}
	if CommandName(CmdSlideUp) != "slide_up" || CommandName('9') != "unknown" {
		t.Error("Unexpected command names")
	}
}
