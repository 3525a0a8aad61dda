package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/workorder-service/internal/config"
	"github.com/spec-kit/workorder-service/internal/domain"
	"github.com/spec-kit/workorder-service/internal/events"
	"github.com/spec-kit/workorder-service/internal/observability"
)

// Notifier fans lifecycle events out to email and SMS. Delivery is
// fire-and-forget: every error is caught, logged and swallowed here; a
// failed send is simply lost. Nothing propagates to the caller.
type Notifier struct {
	resolver RecipientResolver
	email    EmailSender
	sms      SMSSender
	cfg      config.NotifyConfig
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewNotifier creates the notifier.
func NewNotifier(resolver RecipientResolver, email EmailSender, sms SMSSender, cfg config.NotifyConfig, logger *zap.Logger, metrics *observability.Metrics) *Notifier {
	return &Notifier{
		resolver: resolver,
		email:    email,
		sms:      sms,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// RegisterHandlers subscribes to lifecycle events.
func (n *Notifier) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventWorkOrderCreated, n.handleCreated)
	dispatcher.Subscribe(events.EventWorkOrderStatusChanged, n.handleStatusChanged)
	dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

func (n *Notifier) handleCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.WorkOrderCreatedPayload)
	if !ok {
		return nil
	}

	recipients := n.resolveTargets(ctx, event.Actor.Role, payload.OrgID, "", payload.Severity == domain.SeverityEmergency)

	subject := fmt.Sprintf("New work order %s", payload.Number)
	body := fmt.Sprintf("Work order %s was opened.\nSeverity: %s\nCategory: %s\n\n%s",
		payload.Number, payload.Severity, payload.Category, payload.Description)
	smsText := n.composeSMS("New work order", payload.Number, string(payload.Severity), payload.Description)

	n.deliver(ctx, event, recipients, subject, body, smsText)
	return nil
}

func (n *Notifier) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.WorkOrderStatusChangedPayload)
	if !ok {
		return nil
	}

	recipients := n.resolveTargets(ctx, event.Actor.Role, payload.OrgID, payload.RequesterID, false)

	subject := fmt.Sprintf("Work order %s: %s", payload.Number, payload.NewStatus)
	body := fmt.Sprintf("Work order %s moved from %s to %s.", payload.Number, payload.OldStatus, payload.NewStatus)
	if payload.Note != "" {
		body += "\nNote: " + payload.Note
	}
	smsText := n.composeSMS("Status update", payload.Number, string(payload.NewStatus), payload.Note)

	n.deliver(ctx, event, recipients, subject, body, smsText)
	return nil
}

func (n *Notifier) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return nil
	}

	recipients := n.resolveTargets(ctx, event.Actor.Role, payload.OrgID, payload.RequesterID, false)

	subject := fmt.Sprintf("New comment on work order %s", payload.Number)
	body := fmt.Sprintf("A comment was added to work order %s:\n\n%s", payload.Number, payload.BodyPreview)
	smsText := n.composeSMS("New comment", payload.Number, "", payload.BodyPreview)

	n.deliver(ctx, event, recipients, subject, body, smsText)
	return nil
}

// resolveTargets picks recipients by direction of the trust boundary:
// platform staff actors notify the owning organization (and optionally
// the original requester); everyone else notifies the platform staff
// distribution list, with the larger emergency list for emergency
// creations.
func (n *Notifier) resolveTargets(ctx context.Context, actorRole domain.Role, orgID, requesterID string, emergency bool) []Recipient {
	if actorRole.IsPlatformStaff() {
		recipients, err := n.resolver.OrgRecipients(ctx, orgID)
		if err != nil {
			n.logger.Warn("failed to resolve org recipients", zap.String("org_id", orgID), zap.Error(err))
			recipients = nil
		}
		if requesterID != "" {
			requester, err := n.resolver.AccountRecipient(ctx, requesterID)
			if err != nil {
				n.logger.Warn("failed to resolve requester", zap.String("account_id", requesterID), zap.Error(err))
			} else {
				recipients = appendUnique(recipients, *requester)
			}
		}
		return recipients
	}

	emails := n.cfg.PlatformEmails
	phones := n.cfg.PlatformPhones
	if emergency {
		emails = n.cfg.EmergencyEmails
		phones = n.cfg.EmergencyPhones
	}
	recipients := make([]Recipient, 0, len(emails)+len(phones))
	for _, email := range emails {
		recipients = append(recipients, Recipient{Email: email})
	}
	for _, phone := range phones {
		recipients = append(recipients, Recipient{Phone: phone})
	}
	return recipients
}

// deliver pushes one rendered message through both channels. Email is
// batched into a single call; SMS goes out per recipient.
func (n *Notifier) deliver(ctx context.Context, event events.Event, recipients []Recipient, subject, body, smsText string) {
	var emailTargets []Recipient
	var phoneTargets []string
	for _, recipient := range recipients {
		if recipient.Email != "" {
			emailTargets = append(emailTargets, recipient)
		}
		if recipient.Phone != "" {
			phoneTargets = append(phoneTargets, recipient.Phone)
		}
	}

	n.logger.Info("dispatching notification",
		zap.String("event_type", string(event.Type)),
		zap.String("work_order_id", event.WorkOrderID),
		zap.Int("email_recipients", len(emailTargets)),
		zap.Int("sms_recipients", len(phoneTargets)))

	if n.email != nil && len(emailTargets) > 0 {
		err := n.email.Send(ctx, EmailMessage{Subject: subject, Body: body, To: emailTargets})
		n.metrics.RecordDispatch("email", err == nil)
		if err != nil {
			n.logger.Warn("email dispatch failed",
				zap.String("work_order_id", event.WorkOrderID),
				zap.Int("recipients", len(emailTargets)),
				zap.Error(err))
		}
	}

	if n.sms != nil {
		for _, phone := range phoneTargets {
			err := n.sms.Send(ctx, phone, smsText)
			n.metrics.RecordDispatch("sms", err == nil)
			if err != nil {
				n.logger.Warn("sms dispatch failed",
					zap.String("work_order_id", event.WorkOrderID),
					zap.Error(err))
			}
		}
	}
}

// composeSMS truncates each field before composition so the final text
// stays within the channel limit.
func (n *Notifier) composeSMS(label, number, status, detail string) string {
	limit := n.cfg.SMSMaxLength
	if limit <= 0 {
		limit = 300
	}
	// Per-field budgets keep one runaway field from eating the rest.
	label = truncate(label, 40)
	number = truncate(number, 20)
	status = truncate(status, 30)

	text := label + " " + number
	if status != "" {
		text += " [" + status + "]"
	}
	if detail != "" {
		remaining := limit - len(text) - 2
		if remaining > 0 {
			text += ": " + truncate(detail, remaining)
		}
	}
	return truncate(text, limit)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func appendUnique(recipients []Recipient, candidate Recipient) []Recipient {
	for _, existing := range recipients {
		if existing.Email != "" && existing.Email == candidate.Email {
			return recipients
		}
	}
	return append(recipients, candidate)
}
