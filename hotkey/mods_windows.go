//go:build windows

package hotkey

import xhotkey "golang.design/x/hotkey"

const (
	modOption  = xhotkey.ModAlt
	modCommand = xhotkey.ModWin
)
