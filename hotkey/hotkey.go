// Package hotkey maps abstract key bindings to handlers dispatched on the
// application run loop. The OS-specific registration lives behind Backend so
// workflows and tests never touch platform APIs.
package hotkey

import (
	"fmt"
	"sort"
	"strings"
)

type Key uint16

const (
	KeySpace Key = iota
	KeyEscape
	KeyD
	KeyC
	KeyM
	KeyV
	KeyReturn
)

type Modifiers uint8

const (
	ModControl Modifiers = 1 << iota
	ModOption
	ModShift
	ModCommand
)

// Binding is an abstract (key, modifier-set) pair. Bindings are
// equality-comparable; re-registering an identical binding under the same id
// swaps the handler without touching the OS registration.
type Binding struct {
	Key  Key
	Mods Modifiers
}

var keyNames = map[Key]string{
	KeySpace:  "space",
	KeyEscape: "escape",
	KeyD:      "d",
	KeyC:      "c",
	KeyM:      "m",
	KeyV:      "v",
	KeyReturn: "return",
}

var modNames = map[Modifiers]string{
	ModControl: "ctrl",
	ModOption:  "option",
	ModShift:   "shift",
	ModCommand: "cmd",
}

func (b Binding) String() string {
	var parts []string
	for _, m := range []Modifiers{ModControl, ModOption, ModShift, ModCommand} {
		if b.Mods&m != 0 {
			parts = append(parts, modNames[m])
		}
	}
	name, ok := keyNames[b.Key]
	if !ok {
		name = fmt.Sprintf("key(%d)", b.Key)
	}
	parts = append(parts, name)
	return strings.Join(parts, "+")
}

// Parse converts strings like "ctrl+shift+space" into a Binding. Modifier
// aliases: alt=option, super/meta=cmd.
func Parse(s string) (Binding, error) {
	var b Binding
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 || parts[0] == "" {
		return b, fmt.Errorf("empty binding")
	}

	haveKey := false
	for _, p := range parts {
		switch strings.TrimSpace(p) {
		case "ctrl", "control":
			b.Mods |= ModControl
		case "option", "alt":
			b.Mods |= ModOption
		case "shift":
			b.Mods |= ModShift
		case "cmd", "command", "super", "meta":
			b.Mods |= ModCommand
		default:
			if haveKey {
				return b, fmt.Errorf("binding %q has multiple keys", s)
			}
			key, err := parseKey(strings.TrimSpace(p))
			if err != nil {
				return b, err
			}
			b.Key = key
			haveKey = true
		}
	}
	if !haveKey {
		return b, fmt.Errorf("binding %q has no key", s)
	}
	return b, nil
}

func parseKey(s string) (Key, error) {
	names := make([]string, 0, len(keyNames))
	for k, name := range keyNames {
		if name == s {
			return k, nil
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return 0, fmt.Errorf("unknown key %q (known: %s)", s, strings.Join(names, ", "))
}

// Backend performs the OS-level registration of one binding. Bind returns an
// unbind function, or an error if the combination is already claimed by the
// OS or another application. The press callback may be invoked from any
// goroutine.
type Backend interface {
	Bind(b Binding, press func()) (unbind func(), err error)
}
