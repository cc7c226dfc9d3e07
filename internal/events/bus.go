package events

import (
	"sync"
)

type subscriber struct {
	name    string
	handler Handler
	notify  chan struct{}

	mu      sync.Mutex
	queue   []Event
	stopped bool
}

func (b *implBus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		s.push(e)
	}
}

func (b *implBus) Subscribe(name string, h Handler) func() {
	s := &subscriber{
		name:    name,
		handler: h,
		notify:  make(chan struct{}, 1),
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = s
	b.wg.Add(1)
	b.mu.Unlock()

	go b.deliver(s)

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		s.stop()
	}
}

func (b *implBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
	b.wg.Wait()
}

func (b *implBus) deliver(s *subscriber) {
	defer b.wg.Done()
	for {
		batch, stopped := s.take()
		for _, e := range batch {
			b.dispatch(s, e)
		}
		if stopped && len(batch) == 0 {
			return
		}
		if len(batch) == 0 {
			<-s.notify
		}
	}
}

func (b *implBus) dispatch(s *subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error(b.ctx, "Subscriber %s panicked on %s: %v", s.name, e.Type, r)
		}
	}()
	s.handler(b.ctx, e)
}

func (s *subscriber) push(e Event) {
	s.mu.Lock()
	if !s.stopped {
		s.queue = append(s.queue, e)
	}
	s.mu.Unlock()
	s.wake()
}

// take returns everything queued so far. Events queued before stop are still
// delivered.
func (s *subscriber) take() ([]Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.queue
	s.queue = nil
	return batch, s.stopped
}

func (s *subscriber) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.wake()
}

func (s *subscriber) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
