package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/opsgate/opsgate/internal/event"
)

// subscriberBuffer is the per-subscriber event queue depth. A subscriber
// that falls further behind loses events rather than blocking publishers.
const subscriberBuffer = 16

// EventHub broadcasts operator events to connected websocket clients.
// It implements event.Publisher; publishing never blocks.
type EventHub struct {
	mu     sync.Mutex
	subs   map[chan event.Event]struct{}
	logger *slog.Logger
	now    func() time.Time
}

// NewEventHub creates an empty hub.
func NewEventHub(logger *slog.Logger) *EventHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHub{
		subs:   make(map[chan event.Event]struct{}),
		logger: logger,
		now:    time.Now,
	}
}

// Publish implements event.Publisher. Events are dropped for subscribers
// whose buffers are full.
func (h *EventHub) Publish(ev event.Event) {
	ev.Timestamp = h.now().UTC()

	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *EventHub) subscribe() chan event.Event {
	ch := make(chan event.Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unsubscribe(ch chan event.Event) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// ServeHTTP upgrades the connection and streams events until the client
// disconnects.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}
