package teahaz

import (
	"sync"
	"time"

	"github.com/teahaz/teahaz-go/message"
)

// Fetcher retrieves the messages that arrived since a given time, oldest
// first. The poller treats it as an external collaborator so the polling
// semantics stay pluggable.
type Fetcher interface {
	FetchSince(since time.Time) ([]message.Message, error)
}

// Poller drives a chatroom's background message loop. It is started at most
// once per chatroom, by the first message subscription, and runs until Stop.
type Poller struct {
	room     *Chatroom
	fetcher  Fetcher
	interval time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newPoller(room *Chatroom, fetcher Fetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		room:     room,
		fetcher:  fetcher,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Stop asks the loop to exit. It is safe to call more than once; wait on
// Done for the exit itself.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
}

// Done is closed once the loop has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// run is the loop body, meant for a goroutine of its own. Messages of one
// iteration are dispatched in fetch order. Fetch failures that were not
// captured by a subscribed handler are logged and the iteration skipped.
func (p *Poller) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
		}

		mark := time.Now()
		msgs, err := p.fetcher.FetchSince(last)
		if err != nil {
			logger.Errorf("chatroom %s: poll failed: %s", p.room.UID(), err)
			continue
		}
		last = mark

		for i := range msgs {
			p.room.dispatch(&msgs[i])
		}
	}
}

// messageFetcher is the default Fetcher: it asks the messages endpoint for
// everything after since on the active channel, and drops messages whose UID
// was already seen, since the server may re-deliver around the time cutoff.
type messageFetcher struct {
	room *Chatroom
	seen *Set
}

func newMessageFetcher(room *Chatroom) *messageFetcher {
	return &messageFetcher{
		room: room,
		seen: NewSet(),
	}
}

func (f *messageFetcher) FetchSince(since time.Time) ([]message.Message, error) {
	channel := f.room.ActiveChannel()
	if channel == nil {
		// Nothing to poll until a channel is known.
		return nil, nil
	}

	msgs, err := f.room.GetMessages(channel, 0, since)
	if err != nil {
		return nil, err
	}

	fresh := msgs[:0]
	for _, msg := range msgs {
		if msg.UID != "" && f.seen.In(msg.UID) {
			continue
		}
		if msg.UID != "" {
			f.seen.Add(msg.UID)
		}
		fresh = append(fresh, msg)
	}
	return fresh, nil
}

// SetFetcher replaces the poll collaborator. It only has an effect before
// the poller starts.
func (c *Chatroom) SetFetcher(f Fetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetcher = f
}

// Poller returns the chatroom's background poller, or nil before the first
// message subscription.
func (c *Chatroom) Poller() *Poller {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.poller
}

// IsPolling reports whether the background loop has been started.
func (c *Chatroom) IsPolling() bool {
	return c.Poller() != nil
}

// Close stops the background poller, if one is running, and waits for it.
func (c *Chatroom) Close() {
	poller := c.Poller()
	if poller == nil {
		return
	}
	poller.Stop()
	<-poller.Done()
}

// startPolling launches the background loop, at most once.
func (c *Chatroom) startPolling() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.poller != nil {
		return
	}
	if c.fetcher == nil {
		c.fetcher = newMessageFetcher(c)
	}

	c.poller = newPoller(c, c.fetcher, c.Interval)
	go c.poller.run()

	logger.Debugf("chatroom %s: poller started, interval %s", c.uid, c.poller.interval)
}
