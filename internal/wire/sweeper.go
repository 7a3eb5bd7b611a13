package wire

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/sanchitsehgal8/SupportPilot/internal/domain/event"
	porteventbus "github.com/sanchitsehgal8/SupportPilot/internal/port/eventbus"
)

// startSweeper subscribes to the ticket and agent channels and schedules a
// debounced queue sweep whenever capacity may have freed: a ticket was
// resolved, an agent was activated, or an assignment was cleared. Bursts of
// events within the debounce window collapse into one sweep.
//
// It also runs a startup sweep so tickets queued while the process was down
// are picked up immediately.
func startSweeper(ctx context.Context, app *App, bus porteventbus.EventBus) {
	debounce := envDuration("SWEEP_DEBOUNCE_SECONDS", 2*time.Second)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)

	scheduleSweep := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			if err := app.Coordinator.SweepQueued(context.Background()); err != nil {
				slog.Error("sweeper: sweep failed", "error", err)
			}
		})
	}

	if _, err := bus.Subscribe(ctx, event.ChannelTicket, func(_ context.Context, e event.Event) {
		switch e.Type {
		case event.TypeTicketCreated, event.TypeTicketResolved, event.TypeTicketUpdated:
			// TicketUpdated covers cleared assignments and reopened tickets,
			// both of which put an open unassigned ticket back in the queue.
			scheduleSweep()
		}
	}); err != nil {
		slog.Error("sweeper: failed to subscribe to ticket channel", "error", err)
	}

	if _, err := bus.Subscribe(ctx, event.ChannelAgent, func(_ context.Context, e event.Event) {
		if e.Type == event.TypeAgentActivated {
			scheduleSweep()
		}
	}); err != nil {
		slog.Error("sweeper: failed to subscribe to agent channel", "error", err)
	}

	// Startup sweep: tickets created while the process was down never produced
	// a ticket_created notification for this instance.
	go func() {
		if err := app.Coordinator.SweepQueued(ctx); err != nil {
			slog.Error("sweeper: startup sweep failed", "error", err)
		}
	}()
}

// envDuration reads an integer-seconds env var and returns a Duration.
// Falls back to defaultVal if the var is unset or invalid.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
