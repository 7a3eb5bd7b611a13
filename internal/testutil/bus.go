package testutil

import (
	"context"
	"sync"

	"github.com/sanchitsehgal8/SupportPilot/internal/domain/event"
	porteventbus "github.com/sanchitsehgal8/SupportPilot/internal/port/eventbus"
)

// CaptureBus is a test-double EventBus that records published events in
// memory. Subscriptions receive events synchronously from Publish, which
// keeps tests deterministic. Safe for concurrent use.
type CaptureBus struct {
	mu       sync.Mutex
	Events   []event.Event
	handlers map[event.Channel][]porteventbus.Handler
}

func NewCaptureBus() *CaptureBus {
	return &CaptureBus{
		handlers: make(map[event.Channel][]porteventbus.Handler),
	}
}

func (b *CaptureBus) Publish(ctx context.Context, e event.Event) error {
	b.mu.Lock()
	b.Events = append(b.Events, e)
	handlers := append([]porteventbus.Handler(nil), b.handlers[event.ChannelFor(e.Type)]...)
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, e)
	}
	return nil
}

func (b *CaptureBus) Subscribe(_ context.Context, ch event.Channel, handler porteventbus.Handler) (porteventbus.Subscription, error) {
	b.mu.Lock()
	b.handlers[ch] = append(b.handlers[ch], handler)
	b.mu.Unlock()
	return noopSubscription{}, nil
}

// OfType returns all recorded events of the given type.
func (b *CaptureBus) OfType(t event.Type) []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []event.Event
	for _, e := range b.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears all recorded events.
func (b *CaptureBus) Reset() {
	b.mu.Lock()
	b.Events = nil
	b.mu.Unlock()
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}
