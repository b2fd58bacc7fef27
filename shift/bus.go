/*
bus.go - Ledger mutation fan-out

PURPOSE:
  In-process implementation of the notification channel boundary: the
  service publishes a ChangeEvent after every committed mutation and the
  notifier (plus any other interested party) subscribes to the stream.

DELIVERY:
  Best effort. A subscriber that is not draining its channel is skipped
  rather than blocking the publisher; the notifier's poll fallback
  covers anything a slow subscriber misses. Command handling therefore
  never blocks on delivery.
*/
package shift

import "sync"

// Bus fans committed ledger mutations out to subscribers.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan ChangeEvent
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan ChangeEvent)}
}

// Subscribe registers a new listener. The returned id is used to
// unsubscribe; the channel is closed on Unsubscribe.
func (b *Bus) Subscribe() (int, <-chan ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	ch := make(chan ChangeEvent, 16)
	b.subs[b.nextID] = ch
	return b.nextID, ch
}

// Unsubscribe removes a listener and closes its channel. Unknown ids
// are ignored.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(ev ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber; the poll fallback will catch it up.
		}
	}
}
