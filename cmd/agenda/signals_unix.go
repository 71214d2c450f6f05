//go:build !windows

package main

import (
	"os"
	"syscall"
)

// SIGUSR1 stands in for "the window became visible again".
var visibilitySignals = []os.Signal{syscall.SIGUSR1}
