package notify

import (
	"context"
	"fmt"

	"evalnotify_backend/internal/email"
	"evalnotify_backend/platform/apperr"
	"evalnotify_backend/platform/logger"
)

// Dispatcher sends one templated email for a (service, kind) pair. Disabled
// rules, missing templates, and precondition violations are distinguishable by
// error kind; callers that only care about pass/fail treat any error as fail.
type Dispatcher struct {
	settings  SettingsProvider
	sender    email.Sender
	fromName  string
	fromEmail string
	log       *logger.Logger
}

func NewDispatcher(settings SettingsProvider, sender email.Sender, fromName, fromEmail string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		settings:  settings,
		sender:    sender,
		fromName:  fromName,
		fromEmail: fromEmail,
		log:       log,
	}
}

// Send renders and dispatches the email configured for (service, kind).
func (d *Dispatcher) Send(ctx context.Context, service Service, kind EmailKind, snap RowSnapshot) error {
	rule, err := d.settings.Rule(ctx, service, kind)
	if err != nil {
		return apperr.Wrap(apperr.KindConfig, fmt.Sprintf("no email rule for %s/%s", service, kind), err)
	}

	if !rule.Enabled {
		return apperr.Disabled(fmt.Sprintf("email %s/%s is disabled", service, kind))
	}
	if rule.Subject == "" || rule.Body == "" {
		return apperr.Config(fmt.Sprintf("email %s/%s has an empty subject or body template", service, kind))
	}

	if err := CheckSendable(snap); err != nil {
		return apperr.Wrap(apperr.KindValidation, err.Error(), err)
	}

	subject := Render(rule.Subject, snap)
	body := Render(rule.Body, snap)

	fromName, fromEmail := d.fromIdentity()
	if err := d.sender.Send(ctx, snap.Email, fromName, fromEmail, subject, body); err != nil {
		return apperr.Transport(fmt.Sprintf("send %s/%s email to %s failed", service, kind, snap.Email), err)
	}

	d.log.Info("email sent",
		"service", string(service),
		"kind", string(kind),
		"to", snap.Email,
	)
	return nil
}

func (d *Dispatcher) fromIdentity() (string, string) {
	name := d.fromName
	addr := d.fromEmail
	if name == "" {
		name = defaultFromName
	}
	if addr == "" {
		addr = defaultFromAddress
	}
	return name, addr
}

// Fallback identity used when the From settings are unconfigured.
const (
	defaultFromName    = "Evaluation Scheduling"
	defaultFromAddress = "no-reply@evalnotify.local"
)
