package main

import (
	"bytes"
	"io"

	"github.com/satindergrewal/looper/internal/looper"
)

// keyAction is what a raw terminal byte asks for.
type keyAction int

const (
	keySend keyAction = iota
	keyShutdown
)

// keyCommand maps a key to an action. Only q is Quit; Ctrl-C shuts down.
func keyCommand(b byte) (keyAction, looper.Command) {
	switch b {
	case 0x03:
		return keyShutdown, 0
	case 'q', 'Q':
		return keySend, looper.Quit
	default:
		return keySend, looper.Next
	}
}

// crlfWriter turns LF into CRLF for a terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	out := bytes.ReplaceAll(bytes.ReplaceAll(p, []byte("\r\n"), []byte("\n")), []byte("\n"), []byte("\r\n"))
	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
