// Package notify turns view-model outcomes into toasts. Every toast is kept
// in a short in-memory history, published on the toast bus for websocket
// clients, and forwarded to external senders (Telegram, Discord) when its
// event type is enabled.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timedrop/tdadmin/internal/domain"
)

const historySize = 50

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier fans toasts out to the bus and the senders.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed event types for senders
	bus     domain.ToastBus
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	history []domain.Toast
	wg      sync.WaitGroup
}

// NewNotifier creates a Notifier. Only events listed in events reach the
// senders; an empty list forwards every event. bus may be nil.
func NewNotifier(senders []Sender, events []string, bus domain.ToastBus, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		bus:     bus,
		logger:  logger.With(slog.String("component", "notifier")),
		now:     time.Now,
	}
}

// Success emits a success toast.
func (n *Notifier) Success(ctx context.Context, event, title, message string) domain.Toast {
	return n.emit(ctx, domain.ToastSuccess, event, title, message)
}

// Error emits an error toast whose message is err's text.
func (n *Notifier) Error(ctx context.Context, event, title string, err error) domain.Toast {
	return n.emit(ctx, domain.ToastError, event, title, err.Error())
}

// Recent returns up to limit toasts, newest first.
func (n *Notifier) Recent(limit int) []domain.Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	if limit <= 0 || limit > len(n.history) {
		limit = len(n.history)
	}
	out := make([]domain.Toast, 0, limit)
	for i := len(n.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, n.history[i])
	}
	return out
}

// Notify sends a message to the senders if event is enabled, bypassing the
// toast history and the bus. Used by report mode.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if !n.allowed(event) {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// Close waits for in-flight sender deliveries.
func (n *Notifier) Close() {
	n.wg.Wait()
}

func (n *Notifier) emit(ctx context.Context, kind domain.ToastKind, event, title, message string) domain.Toast {
	t := domain.Toast{
		ID:        uuid.NewString(),
		Kind:      kind,
		Event:     event,
		Title:     title,
		Message:   message,
		CreatedAt: n.now().UTC(),
	}

	n.mu.Lock()
	n.history = append(n.history, t)
	if len(n.history) > historySize {
		n.history = append([]domain.Toast(nil), n.history[len(n.history)-historySize:]...)
	}
	n.mu.Unlock()

	if n.bus != nil {
		payload, err := json.Marshal(t)
		if err == nil {
			err = n.bus.Publish(ctx, domain.ToastChannel, payload)
		}
		if err != nil {
			n.logger.WarnContext(ctx, "toast publish failed", slog.String("error", err.Error()))
		}
	}

	if len(n.senders) > 0 && n.allowed(event) {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.dispatch(context.WithoutCancel(ctx), title, message)
		}()
	}
	return t
}

func (n *Notifier) allowed(event string) bool {
	return len(n.events) == 0 || n.events[event]
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned as a combined error; a single
// sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
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
