/*
notifier.go - Live report refresh

PURPOSE:
  Keeps subscribers' aggregate reports fresh without manual refresh.
  Two producers feed one trigger path:

  Push: ledger ChangeEvents from the bus. Any mutation triggers a
        recompute for every subscriber; recomputing is cheaper than
        working out which subscriber a change could affect.
  Pull: a fixed-interval ticker (default 60s). Covers missed events and
        the open-shift case, where no mutation happens but elapsed
        hours must still advance.

  Consumers never learn which producer fired.

DESIGN:
  - Background goroutine with Start/Stop/RunNow, ticker + stop channel
  - Per-subscriber recompute with bounded retry on transient errors;
    after exhaustion the subscriber keeps its last-known report and is
    marked sync-degraded rather than dropped
  - Recomputation runs independently of command handling and never
    blocks it

USAGE:
  n := shift.NewNotifier(svc, bus)
  n.Start()
  defer n.Stop()
  sub := n.Subscribe(query)
  for update := range sub.Updates { ... }

SEE ALSO:
  - bus.go:     The push producer
  - service.go: QueryAggregates, which does the actual work
*/
package shift

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultPollInterval is the pull-fallback cadence.
const DefaultPollInterval = 60 * time.Second

// Update is one delivery to a subscriber. SyncFailed marks a report
// that could not be refreshed; the payload is the last-known data.
type Update struct {
	Report     Report
	SyncFailed bool
}

// Subscription is one live consumer of aggregate reports.
type Subscription struct {
	ID      int
	Updates <-chan Update

	updates chan Update
	query   Query
	mu      sync.Mutex
}

// SetQuery swaps the subscriber's active query; the next trigger
// recomputes against it.
func (s *Subscription) SetQuery(q Query) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
}

func (s *Subscription) currentQuery() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Notifier fans fresh reports out to subscribers on pushes and ticks.
type Notifier struct {
	Service      *Service
	PollInterval time.Duration

	bus    *Bus
	busID  int
	events <-chan ChangeEvent

	mu     sync.Mutex
	nextID int
	subs   map[int]*Subscription

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewNotifier creates a notifier over the service and its mutation bus.
func NewNotifier(svc *Service, bus *Bus) *Notifier {
	return &Notifier{
		Service:      svc,
		PollInterval: DefaultPollInterval,
		bus:          bus,
		subs:         make(map[int]*Subscription),
		stop:         make(chan struct{}),
	}
}

// Start begins the background refresh loop.
func (n *Notifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ticker != nil {
		return
	}
	n.busID, n.events = n.bus.Subscribe()
	n.ticker = time.NewTicker(n.PollInterval)
	n.wg.Add(1)

	go n.run()

	log.Printf("[Notifier] Started with poll interval: %v", n.PollInterval)
}

// Stop halts the loop and closes every subscription.
func (n *Notifier) Stop() {
	n.mu.Lock()
	if n.ticker == nil {
		n.mu.Unlock()
		return
	}
	n.ticker.Stop()
	n.bus.Unsubscribe(n.busID)
	close(n.stop)
	n.mu.Unlock()

	n.wg.Wait()

	n.mu.Lock()
	for id, sub := range n.subs {
		close(sub.updates)
		delete(n.subs, id)
	}
	n.ticker = nil
	n.mu.Unlock()

	log.Println("[Notifier] Stopped")
}

// Subscribe registers a consumer with its initial query and delivers a
// first report immediately so new clients never wait a full poll cycle.
func (n *Notifier) Subscribe(q Query) *Subscription {
	n.mu.Lock()
	n.nextID++
	sub := &Subscription{
		ID:      n.nextID,
		updates: make(chan Update, 1),
		query:   q,
	}
	sub.Updates = sub.updates
	n.subs[sub.ID] = sub
	n.mu.Unlock()

	n.refreshOne(context.Background(), sub)
	return sub
}

// Unsubscribe removes a consumer and closes its update channel.
func (n *Notifier) Unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if sub, ok := n.subs[id]; ok {
		delete(n.subs, id)
		close(sub.updates)
	}
}

// RunNow triggers an immediate refresh of all subscribers.
func (n *Notifier) RunNow() {
	n.refreshAll()
}

func (n *Notifier) run() {
	defer n.wg.Done()

	for {
		select {
		case <-n.events:
			// Drain bursts so a batch of mutations triggers one pass.
			for {
				select {
				case <-n.events:
					continue
				default:
				}
				break
			}
			n.refreshAll()
		case <-n.ticker.C:
			n.refreshAll()
		case <-n.stop:
			return
		}
	}
}

func (n *Notifier) refreshAll() {
	n.mu.Lock()
	subs := make([]*Subscription, 0, len(n.subs))
	for _, sub := range n.subs {
		subs = append(subs, sub)
	}
	n.mu.Unlock()

	ctx := context.Background()
	for _, sub := range subs {
		n.refreshOne(ctx, sub)
	}
}

// refreshOne recomputes a single subscriber's report. Transient store
// errors are retried inside QueryAggregates; if the read still fails the
// subscriber keeps last-known data and gets a sync-failed marker.
func (n *Notifier) refreshOne(ctx context.Context, sub *Subscription) {
	report, err := n.Service.QueryAggregates(ctx, sub.currentQuery())
	if err != nil {
		log.Printf("[Notifier] Refresh failed for subscriber %d: %v", sub.ID, err)
		n.deliver(sub, Update{SyncFailed: true})
		return
	}
	n.deliver(sub, Update{Report: report})
}

// deliver replaces a pending undelivered update instead of blocking;
// a slow consumer always sees the freshest report.
func (n *Notifier) deliver(sub *Subscription, u Update) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, live := n.subs[sub.ID]; !live {
		return
	}
	select {
	case sub.updates <- u:
	default:
		select {
		case <-sub.updates:
		default:
		}
		select {
		case sub.updates <- u:
		default:
		}
	}
}
