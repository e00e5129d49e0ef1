package hotkey

import (
	"fmt"

	xhotkey "golang.design/x/hotkey"
)

// XBackend registers bindings through golang.design/x/hotkey, which talks to
// the native hotkey facility on each desktop platform.
type XBackend struct{}

var xKeys = map[Key]xhotkey.Key{
	KeySpace:  xhotkey.KeySpace,
	KeyEscape: xhotkey.KeyEscape,
	KeyD:      xhotkey.KeyD,
	KeyC:      xhotkey.KeyC,
	KeyM:      xhotkey.KeyM,
	KeyV:      xhotkey.KeyV,
	KeyReturn: xhotkey.KeyReturn,
}

func (XBackend) Bind(b Binding, press func()) (func(), error) {
	key, ok := xKeys[b.Key]
	if !ok {
		return nil, fmt.Errorf("key %v not mapped for this platform", b.Key)
	}

	var mods []xhotkey.Modifier
	if b.Mods&ModControl != 0 {
		mods = append(mods, xhotkey.ModCtrl)
	}
	if b.Mods&ModShift != 0 {
		mods = append(mods, xhotkey.ModShift)
	}
	if b.Mods&ModOption != 0 {
		mods = append(mods, modOption)
	}
	if b.Mods&ModCommand != 0 {
		mods = append(mods, modCommand)
	}

	hk := xhotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("registering %s: %w", b, err)
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-hk.Keydown():
				press()
			case <-stop:
				return
			}
		}
	}()

	return func() {
		close(stop)
		hk.Unregister()
	}, nil
}
