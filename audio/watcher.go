package audio

import (
	"slices"
	"time"
)

// Watcher polls device enumeration and reports hotplug changes. Capture
// backends have no portable change notification, so polling on a coarse
// interval is the redesign-neutral option.
type Watcher struct {
	stop chan struct{}
	done chan struct{}
}

// Watch invokes fn whenever the set of capture devices changes. fn runs on
// the watcher goroutine; callers post onto their own loop as needed.
func Watch(ctx Context, interval time.Duration, fn func(devices []DeviceInfo)) *Watcher {
	if interval < time.Second {
		interval = time.Second
	}
	w := &Watcher{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(w.done)
		var last []string
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
			}
			devices, err := ctx.Devices()
			if err != nil {
				continue
			}
			ids := make([]string, len(devices))
			for i := range devices {
				ids[i] = devices[i].ID
			}
			if slices.Equal(last, ids) {
				continue
			}
			last = ids
			fn(devices)
		}
	}()
	return w
}

func (w *Watcher) Stop() {
	close(w.stop)
	<-w.done
}
