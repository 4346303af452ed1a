// Package notify provides a multi-channel notification system. Notifications
// are dispatched to all registered senders (Telegram, Discord, etc.) and can be
// filtered by event type so operators receive only the alerts they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// Event types understood by the filter.
const (
	EventArbDetected        = "arb_detected"
	EventVolatilityDetected = "volatility_detected"
	EventStartup            = "startup"
	EventHeartbeat          = "heartbeat"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders. It maintains a set
// of allowed event types; Notify only forwards messages whose event type is in
// the allowed set, while NotifyAll bypasses the filter. An optional rate
// limiter drops messages beyond the budget.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed event types
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. Only
// events whose type appears in the events slice will be forwarded by Notify.
// If events is empty, all event types are allowed.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// SetRateLimit caps deliveries at perMinute with the given burst. A
// non-positive perMinute removes the cap.
func (n *Notifier) SetRateLimit(perMinute, burst int) {
	if perMinute <= 0 {
		n.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	n.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

// Enabled reports whether any sender is configured.
func (n *Notifier) Enabled() bool {
	return len(n.senders) > 0
}

// Notify sends a notification to all senders only if the event type is in the
// allowed list. If no events were configured (empty list), all events pass.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	// If specific events were configured, filter.
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}

	return n.dispatch(ctx, title, message)
}

// NotifyAll sends a notification to all senders regardless of event type.
func (n *Notifier) NotifyAll(ctx context.Context, title, message string) error {
	return n.dispatch(ctx, title, message)
}

// NotifyArb alerts on an arbitrage signal. Delivery failures are logged.
func (n *Notifier) NotifyArb(ctx context.Context, sig domain.ArbSignal) {
	title, body := FormatArb(sig)
	_ = n.Notify(ctx, EventArbDetected, title, body)
}

// NotifyVolatility alerts on a volatility signal. Delivery failures are logged.
func (n *Notifier) NotifyVolatility(ctx context.Context, sig domain.VolatilitySignal) {
	title, body := FormatVolatility(sig)
	_ = n.Notify(ctx, EventVolatilityDetected, title, body)
}

// Startup announces that the process is running in mode.
func (n *Notifier) Startup(ctx context.Context, mode string, markets int) {
	if !n.Enabled() {
		n.logger.InfoContext(ctx, "no notification senders configured")
		return
	}
	body := fmt.Sprintf("polysportarb started (%s mode), monitoring %d markets", mode, markets)
	if err := n.Notify(ctx, EventStartup, "Started", body); err != nil {
		n.logger.WarnContext(ctx, "startup notification failed, check sender credentials")
	}
}

// Heartbeat sends a liveness message.
func (n *Notifier) Heartbeat(ctx context.Context) {
	_ = n.Notify(ctx, EventHeartbeat, "Heartbeat", "polysportarb is running")
}

// RunHeartbeat sends a heartbeat on every tick until ctx is cancelled.
func (n *Notifier) RunHeartbeat(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n.Heartbeat(ctx)
		}
	}
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned as a combined error; a single
// sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}
	if n.limiter != nil && !n.limiter.Allow() {
		n.logger.WarnContext(ctx, "notification dropped by rate limit",
			slog.String("title", title),
		)
		return fmt.Errorf("notify: %w", domain.ErrRateLimited)
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
