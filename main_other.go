//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// Hotkey registration on darwin and windows must happen on the main
	// thread.
	mainthread.Init(run)
}
