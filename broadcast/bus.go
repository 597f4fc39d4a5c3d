// broadcast/bus.go
package broadcast

import (
	"context"
	"fmt"
	"sync"
)

// DeliverFunc receives a frame addressed to the attached peer.
type DeliverFunc func(from uint64, data []byte)

type envelope struct {
	from, to uint64
	data     []byte
}

// Bus connects several peers inside one process. Frames are queued and only
// delivered by Pump, which keeps multi-peer tests deterministic.
type Bus struct {
	mu       sync.Mutex
	handlers map[uint64]DeliverFunc
	order    []uint64
	queue    []envelope
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[uint64]DeliverFunc)}
}

// Attach registers id and returns its Transport.
func (b *Bus) Attach(id uint64, deliver DeliverFunc) *Endpoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[id]; !ok {
		b.order = append(b.order, id)
	}
	b.handlers[id] = deliver
	return &Endpoint{bus: b, id: id}
}

func (b *Bus) Detach(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

func (b *Bus) enqueue(from, to uint64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[to]; !ok {
		return fmt.Errorf("%w: %d", ErrPeerNotConnected, to)
	}
	b.queue = append(b.queue, envelope{from: from, to: to, data: append([]byte(nil), data...)})
	return nil
}

func (b *Bus) enqueueAll(from, exclude uint64, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.order {
		if id == exclude {
			continue
		}
		b.queue = append(b.queue, envelope{from: from, to: id, data: append([]byte(nil), data...)})
	}
}

// Pump delivers queued frames, including the ones queued while pumping,
// until the queue is empty. It returns how many frames were delivered.
func (b *Bus) Pump() int {
	n := 0
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return n
		}
		env := b.queue[0]
		b.queue = b.queue[1:]
		deliver := b.handlers[env.to]
		b.mu.Unlock()

		if deliver != nil {
			deliver(env.from, env.data)
			n++
		}
	}
}

// Pending returns the number of queued frames.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Endpoint is one peer's view of the Bus.
type Endpoint struct {
	bus *Bus
	id  uint64
}

func (e *Endpoint) SendTo(ctx context.Context, peerID uint64, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.bus.enqueue(e.id, peerID, data)
}

func (e *Endpoint) Broadcast(ctx context.Context, data []byte, exclude uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.bus.enqueueAll(e.id, exclude, data)
	return nil
}

func (e *Endpoint) InitializeConnections([]uint64) {}

func (e *Endpoint) CloseAll() {
	e.bus.Detach(e.id)
}
