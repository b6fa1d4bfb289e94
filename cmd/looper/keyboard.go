//go:build unix

package main

import (
	"io"
	"log"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/satindergrewal/looper/internal/looper"
)

// Keyboard reads raw stdin as the installation's remote control.
type Keyboard struct {
	send     func(looper.Command)
	shutdown func()

	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once

	fd          int
	nonblockSet bool
	oldState    *term.State
	logOut      io.Writer // log output before raw mode
}

// NewKeyboard creates a reader that forwards keys to send. Ctrl-C calls shutdown.
func NewKeyboard(send func(looper.Command), shutdown func()) *Keyboard {
	return &Keyboard{
		send:     send,
		shutdown: shutdown,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start puts stdin in raw non-blocking mode and reads keys in a goroutine.
// Does nothing when stdin is not a terminal. Call Stop to restore stdin.
func (k *Keyboard) Start() {
	k.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(k.fd) {
		log.Println("Keyboard control disabled: stdin is not a terminal")
		close(k.done)
		return
	}

	oldState, err := term.MakeRaw(k.fd)
	if err != nil {
		log.Printf("Keyboard control disabled: raw mode: %v", err)
		close(k.done)
		return
	}
	k.oldState = oldState

	if err := syscall.SetNonblock(k.fd, true); err != nil {
		log.Printf("Keyboard control disabled: nonblocking stdin: %v", err)
		_ = term.Restore(k.fd, k.oldState)
		k.oldState = nil
		close(k.done)
		return
	}
	k.nonblockSet = true

	// Raw mode drops output post-processing, so log lines need their own CR.
	k.logOut = log.Writer()
	log.SetOutput(crlfWriter{w: k.logOut})
	log.Println("Keyboard control: any key = next, q = back to random, Ctrl-C = exit")

	go func() {
		defer close(k.done)
		buf := make([]byte, 1)
		for {
			select {
			case <-k.stopCh:
				return
			default:
			}

			n, err := syscall.Read(k.fd, buf)
			if n > 0 {
				action, cmd := keyCommand(buf[0])
				if action == keyShutdown {
					k.shutdown()
					return
				}
				k.send(cmd)
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || (err == nil && n == 0) {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
		}
	}()
}

// Stop ends the reader and restores stdin.
func (k *Keyboard) Stop() {
	k.stopped.Do(func() {
		close(k.stopCh)
	})
	<-k.done
	if k.nonblockSet {
		_ = syscall.SetNonblock(k.fd, false)
		k.nonblockSet = false
	}
	if k.oldState != nil {
		_ = term.Restore(k.fd, k.oldState)
		k.oldState = nil
	}
	if k.logOut != nil {
		log.SetOutput(k.logOut)
		k.logOut = nil
	}
}
