// Package notify carries application events: an in-process Bus, a relay that
// mirrors the bus across replicas over Redis, and a Notifier that forwards
// selected topics to chat channels such as Telegram and Discord.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier forwards bus events to every configured Sender. Only topics in
// the allow list are sent; an empty list allows everything.
type Notifier struct {
	senders []Sender
	topics  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier for the given senders and topic allow list.
func NewNotifier(senders []Sender, topics []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(topics))
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			allowed[t] = true
		}
	}
	return &Notifier{
		senders: senders,
		topics:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Attach subscribes the notifier to every topic on bus. It returns the
// unsubscribe function. A notifier without senders does not subscribe.
func (n *Notifier) Attach(bus *Bus) func() {
	if len(n.senders) == 0 {
		return func() {}
	}
	return bus.Subscribe(TopicAll, n.handle)
}

func (n *Notifier) handle(ctx context.Context, ev domain.Event) {
	if ev.Origin != "" {
		// The originating replica already sent it.
		return
	}
	if len(n.topics) > 0 && !n.topics[ev.Topic] {
		return
	}
	if err := n.dispatch(ctx, ev.Topic, format(ev)); err != nil {
		n.logger.WarnContext(ctx, "notification incomplete",
			slog.String("topic", ev.Topic),
			slog.String("error", err.Error()),
		)
	}
}

// dispatch sends to every sender. One sender failing does not stop the rest.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// format renders the message followed by the event data in key order.
func format(ev domain.Event) string {
	if len(ev.Data) == 0 {
		return ev.Message
	}
	keys := make([]string, 0, len(ev.Data))
	for k := range ev.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(ev.Message)
	for _, k := range keys {
		fmt.Fprintf(&sb, "\n%s: %v", k, ev.Data[k])
	}
	return sb.String()
}
