//go:build linux

package hotkey

import xhotkey "golang.design/x/hotkey"

// X11 maps option to Mod1 (alt) and command to Mod4 (super).
const (
	modOption  = xhotkey.Mod1
	modCommand = xhotkey.Mod4
)
