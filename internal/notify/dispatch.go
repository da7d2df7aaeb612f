// Package notify composes alerts for failed verifications and delivers them
// through a Sender.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sznuper/portalwatch/internal/target"
)

// ErrRejected marks a sender failure where the provider answered but refused
// the payload. Other sender errors are transport-level.
var ErrRejected = errors.New("notification rejected")

// AlertEvent is one failed, alert-eligible step.
type AlertEvent struct {
	Target     target.Target
	Reason     string
	OccurredAt time.Time
}

// Message is the provider-neutral alert payload.
type Message struct {
	Recipients []string
	Title      string
	Body       string
}

// Receipt is the provider's acknowledgement. ID may be empty.
type Receipt struct {
	ID string
}

// Sender delivers one message addressed to all its recipients.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// Options configures a Dispatcher.
type Options struct {
	// Enabled false is simulation mode: messages are composed and logged,
	// never sent.
	Enabled    bool
	Recipients []string
	Template   string
}

// Dispatcher turns alert events into messages. It never retries and never
// reports delivery failures to its caller.
type Dispatcher struct {
	sender Sender
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// NewDispatcher creates a Dispatcher. sender may be nil in simulation mode.
func NewDispatcher(sender Sender, opts Options, logger *slog.Logger) *Dispatcher {
	if opts.Template == "" {
		opts.Template = DefaultTemplate
	}
	return &Dispatcher{sender: sender, opts: opts, logger: logger, now: time.Now}
}

// Compose renders the message for ev. A broken template falls back to the
// default so an alert is never lost to a config typo.
func (d *Dispatcher) Compose(ev AlertEvent) Message {
	data := BuildTemplateData(ev)
	body, err := Render(d.opts.Template, data)
	if err != nil {
		d.logger.Error("alert template failed, using default", "error", err)
		body, _ = Render(DefaultTemplate, data)
	}
	return Message{
		Recipients: append([]string(nil), d.opts.Recipients...),
		Title:      ev.Target.AlertTitle,
		Body:       body,
	}
}

// Dispatch composes and sends an alert for t.
func (d *Dispatcher) Dispatch(ctx context.Context, t target.Target, reason string) {
	log := d.logger.With("env", t.Env, "target", t.Name)
	msg := d.Compose(AlertEvent{Target: t, Reason: reason, OccurredAt: d.now()})

	if !d.opts.Enabled || d.sender == nil {
		log.Warn("alerting disabled, would notify",
			"title", msg.Title, "recipients", msg.Recipients, "body", msg.Body)
		return
	}

	log.Info("sending alert", "recipients", len(msg.Recipients))
	receipt, err := d.sender.Send(ctx, msg)
	if err != nil {
		if errors.Is(err, ErrRejected) {
			log.Error("alert rejected by provider", "error", err)
		} else {
			log.Error("alert delivery failed", "error", err)
		}
		return
	}
	log.Info("alert sent", "confirmation_id", receipt.ID)
}
