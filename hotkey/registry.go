package hotkey

import (
	"sync"

	"voco/runloop"
)

type registration struct {
	binding Binding
	handler func()
	unbind  func()
}

// Registry owns all hotkey registrations. Handlers are dispatched on the run
// loop and resolved at dispatch time, so replacing a registration leaves no
// window where the old and new handler are both live. Pause drops the OS
// registrations without discarding the table, for use while the user is
// capturing a replacement binding interactively.
type Registry struct {
	loop    *runloop.Loop
	backend Backend

	mu     sync.Mutex
	regs   map[string]*registration
	paused bool
}

func NewRegistry(loop *runloop.Loop, backend Backend) *Registry {
	return &Registry{
		loop:    loop,
		backend: backend,
		regs:    make(map[string]*registration),
	}
}

// Register binds id to handler under b, replacing any previous registration
// for id. Registering the identical binding again only swaps the handler.
// Returns false if the OS rejects the binding; an existing registration
// under id survives a failed replacement.
func (r *Registry) Register(id string, b Binding, handler func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.regs[id]; ok && old.binding == b {
		old.handler = handler
		return true
	}

	reg := &registration{binding: b, handler: handler}
	if !r.paused {
		unbind, err := r.backend.Bind(b, func() { r.dispatch(id) })
		if err != nil {
			return false
		}
		reg.unbind = unbind
	}

	if old, ok := r.regs[id]; ok && old.unbind != nil {
		old.unbind()
	}
	r.regs[id] = reg
	return true
}

func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.regs[id]; ok {
		if reg.unbind != nil {
			reg.unbind()
		}
		delete(r.regs, id)
	}
}

// Pause disables dispatch and releases every OS registration while keeping
// the table intact.
func (r *Registry) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paused {
		return
	}
	r.paused = true
	for _, reg := range r.regs {
		if reg.unbind != nil {
			reg.unbind()
			reg.unbind = nil
		}
	}
}

// Resume re-registers everything dropped by Pause. Bindings the OS now
// rejects stay in the table but do not dispatch.
func (r *Registry) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.paused {
		return
	}
	r.paused = false
	for id, reg := range r.regs {
		id := id
		unbind, err := r.backend.Bind(reg.binding, func() { r.dispatch(id) })
		if err != nil {
			continue
		}
		reg.unbind = unbind
	}
}

// Close releases all registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, reg := range r.regs {
		if reg.unbind != nil {
			reg.unbind()
		}
		delete(r.regs, id)
	}
}

func (r *Registry) dispatch(id string) {
	r.loop.Post(func() {
		r.mu.Lock()
		reg, ok := r.regs[id]
		paused := r.paused
		var handler func()
		if ok {
			handler = reg.handler
		}
		r.mu.Unlock()

		if !ok || paused || handler == nil {
			return
		}
		handler()
	})
}
