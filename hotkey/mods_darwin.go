//go:build darwin

package hotkey

import xhotkey "golang.design/x/hotkey"

const (
	modOption  = xhotkey.ModOption
	modCommand = xhotkey.ModCmd
)
