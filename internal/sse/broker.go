// Package sse implements a Server-Sent Events broker for timeline and vault
// change notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	TypeTimelineExported    = "timeline.exported"
	TypeTimelineRegenerated = "timeline.regenerated"
	TypeTimelineDeleted     = "timeline.deleted"
	TypeEventChanged        = "event.changed"
	TypeTimelinesStale      = "timelines.stale"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ChangeData is the payload of an event.changed message.
type ChangeData struct {
	Change string `json:"change"`
	Path   string `json:"path"`
}

type changeReq struct {
	change string
	path   string
}

// historySize is how many framed messages are kept for Last-Event-ID replay.
const historySize = 128

// keepAlive is the interval between comment pings on idle streams.
const keepAlive = 25 * time.Second

type frame struct {
	id  uint64
	raw []byte
}

type subscribeReq struct {
	ch     chan []byte
	after  uint64
	replay bool
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the client set, the message history and
// the staleness throttle timestamp. Public methods talk to the loop through
// channels. Every message carries a monotonically increasing id so a
// reconnecting client can resume with Last-Event-ID.
type Broker struct {
	staleMin time.Duration

	subscribeCh   chan subscribeReq
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan changeReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. At most one timelines.stale hint is sent per
// staleThrottle interval.
func NewBroker(staleThrottle time.Duration) *Broker {
	if staleThrottle <= 0 {
		staleThrottle = 2 * time.Second
	}

	b := &Broker{
		staleMin:      staleThrottle,
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan changeReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var (
		lastStale time.Time
		seq       uint64
		history   []frame
	)

	send := func(ch chan []byte, raw []byte) {
		select {
		case ch <- raw:
		default:
			// Client buffer full; skip to avoid blocking broker loop.
		}
	}

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))
		history = append(history, frame{id: seq, raw: raw})
		if len(history) > historySize {
			history = history[len(history)-historySize:]
		}

		for ch := range clients {
			send(ch, raw)
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case req := <-b.subscribeCh:
			clients[req.ch] = struct{}{}
			if req.replay {
				for _, f := range history {
					if f.id > req.after {
						send(req.ch, f.raw)
					}
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.changeCh:
			broadcast(Event{Type: TypeEventChanged, Data: ChangeData{Change: req.change, Path: req.path}})

			now := time.Now()
			if now.Sub(lastStale) >= b.staleMin {
				lastStale = now
				broadcast(Event{Type: TypeTimelinesStale, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.subscribe(subscribeReq{})
}

// SubscribeAfter adds a new client and first replays the retained messages
// with an id greater than lastID.
func (b *Broker) SubscribeAfter(lastID uint64) chan []byte {
	return b.subscribe(subscribeReq{after: lastID, replay: true})
}

func (b *Broker) subscribe(req subscribeReq) chan []byte {
	req.ch = make(chan []byte, 64)
	if b.closed.Load() {
		close(req.ch)
		return req.ch
	}

	select {
	case b.subscribeCh <- req:
	case <-b.stopped:
		close(req.ch)
	}

	return req.ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishChange announces a changed event note followed by a throttled
// timelines.stale hint.
func (b *Broker) PublishChange(change, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- changeReq{change: change, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/stream). A Last-Event-ID
// header resumes the stream after that message.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var ch chan []byte
	if last, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		ch = b.SubscribeAfter(last)
	} else {
		ch = b.Subscribe()
	}
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(keepAlive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
