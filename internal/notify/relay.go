package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// DefaultRelayChannel is the pub/sub channel events are mirrored on.
const DefaultRelayChannel = "sportspulse:events"

// Relay mirrors local bus events to other replicas through a SignalBus and
// republishes theirs locally. Events that arrived from another replica are
// not sent back out.
type Relay struct {
	bus     *Bus
	signals domain.SignalBus
	channel string
	id      string
	logger  *slog.Logger
}

// NewRelay creates a Relay with a random instance id.
func NewRelay(bus *Bus, signals domain.SignalBus, channel string, logger *slog.Logger) *Relay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	return &Relay{
		bus:     bus,
		signals: signals,
		channel: channel,
		id:      uuid.NewString(),
		logger:  logger.With(slog.String("component", "event_relay")),
	}
}

// Run relays in both directions until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	in, err := r.signals.Subscribe(ctx, r.channel)
	if err != nil {
		return err
	}

	unsubscribe := r.bus.Subscribe(TopicAll, r.forward)
	defer unsubscribe()

	r.logger.InfoContext(ctx, "event relay started", slog.String("channel", r.channel))
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-in:
			if !ok {
				return nil
			}
			var ev domain.Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				r.logger.WarnContext(ctx, "undecodable relayed event", slog.String("error", err.Error()))
				continue
			}
			if ev.Origin == r.id || ev.Origin == "" {
				continue
			}
			r.bus.Publish(ctx, ev)
		}
	}
}

func (r *Relay) forward(ctx context.Context, ev domain.Event) {
	if ev.Origin != "" {
		return
	}
	ev.Origin = r.id
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := r.signals.Publish(ctx, r.channel, raw); err != nil {
		r.logger.WarnContext(ctx, "event relay publish failed",
			slog.String("topic", ev.Topic),
			slog.String("error", err.Error()),
		)
	}
}
