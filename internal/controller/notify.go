package controller

// Subscription identifies a registered handler. The zero value is never
// issued; unsubscribing it is a no-op.
type Subscription struct {
	id uint64
}

// Valid reports whether s came from a successful subscribe call.
func (s Subscription) Valid() bool {
	return s.id != 0
}

// FieldChange is delivered to field observers after an effective write.
type FieldChange struct {
	Field    Field
	Criteria Criteria // state value right after the write
}

type handler[T any] struct {
	id uint64
	fn func(T)
}

// registry keeps handlers in subscription order.
type registry[T any] struct {
	handlers []handler[T]
}

func (r *registry[T]) add(id uint64, fn func(T)) {
	r.handlers = append(r.handlers, handler[T]{id: id, fn: fn})
}

func (r *registry[T]) remove(id uint64) bool {
	for i, h := range r.handlers {
		if h.id == id {
			r.handlers = append(r.handlers[:i:i], r.handlers[i+1:]...)
			return true
		}
	}
	return false
}

func (r *registry[T]) has(id uint64) bool {
	for _, h := range r.handlers {
		if h.id == id {
			return true
		}
	}
	return false
}

func (r *registry[T]) len() int {
	return len(r.handlers)
}

// emit calls every handler registered at the start of the emit, skipping
// any that were unsubscribed by an earlier handler in the same emit.
func (r *registry[T]) emit(v T) {
	snapshot := make([]handler[T], len(r.handlers))
	copy(snapshot, r.handlers)
	for _, h := range snapshot {
		if !r.has(h.id) {
			continue
		}
		h.fn(v)
	}
}

// hub owns every subscription of one FilterState and its controller, and
// serializes their delivery.
//
// Notifications posted while a dispatch is running (a handler wrote to the
// state or ran an action) are queued and delivered, in order, once the
// current one returns. Writes themselves are never deferred.
type hub struct {
	nextID  uint64
	fields  registry[FieldChange]
	changed registry[struct{}]

	dispatching bool
	queue       []func()
}

func (h *hub) newID() uint64 {
	h.nextID++
	return h.nextID
}

func (h *hub) subscribeField(fn func(FieldChange)) Subscription {
	if fn == nil {
		return Subscription{}
	}
	id := h.newID()
	h.fields.add(id, fn)
	return Subscription{id: id}
}

func (h *hub) subscribeChanged(fn func()) Subscription {
	if fn == nil {
		return Subscription{}
	}
	id := h.newID()
	h.changed.add(id, func(struct{}) { fn() })
	return Subscription{id: id}
}

func (h *hub) unsubscribe(s Subscription) bool {
	if !s.Valid() {
		return false
	}
	return h.fields.remove(s.id) || h.changed.remove(s.id)
}

// post delivers fn now, or after the running dispatch if there is one.
// A panicking handler discards the rest of the queue; the panic propagates.
func (h *hub) post(fn func()) {
	h.queue = append(h.queue, fn)
	if h.dispatching {
		return
	}

	h.dispatching = true
	defer func() {
		h.dispatching = false
		if r := recover(); r != nil {
			h.queue = nil
			panic(r)
		}
	}()

	for len(h.queue) > 0 {
		next := h.queue[0]
		h.queue[0] = nil
		h.queue = h.queue[1:]
		next()
	}
}
