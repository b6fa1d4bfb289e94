//go:build !unix

package main

import (
	"log"

	"github.com/satindergrewal/looper/internal/looper"
)

// Keyboard is a no-op where raw non-blocking stdin is unavailable.
type Keyboard struct{}

func NewKeyboard(send func(looper.Command), shutdown func()) *Keyboard {
	return &Keyboard{}
}

func (k *Keyboard) Start() {
	log.Println("Keyboard control not supported on this platform")
}

func (k *Keyboard) Stop() {}
