package worker

// notification_worker.go
// Delivers sale and variance notifications from QueueNotifications.
// Sales go to Telegram only. Variance alerts go to Telegram and, when SMTP is
// configured, to the alert mailbox with the reconciliation PDF attached.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/infra"
	"github.com/bildin8/postergram-juice-sub001/internal/model"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MessageSender posts a text message to the operations chat.
type MessageSender interface {
	SendMessage(ctx context.Context, text string) error
}

// AlertMailer sends an alert mail with an optional file attachment.
type AlertMailer interface {
	SendAlert(subject, body, attachmentPath string) error
}

// ReconciliationLoader fetches a reconciliation with its items for the PDF.
type ReconciliationLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.DailyReconciliation, error)
}

// NotificationWorker renders notification jobs into chat and mail messages.
type NotificationWorker struct {
	chat            MessageSender
	mailer          AlertMailer
	reconciliations ReconciliationLoader
	pdfStoragePath  string
}

// NewNotificationWorker wires the delivery channels. chat and mailer may be
// nil; a job whose channels are all missing is logged and acknowledged.
func NewNotificationWorker(chat MessageSender, mailer AlertMailer, reconciliations ReconciliationLoader, pdfStoragePath string) *NotificationWorker {
	return &NotificationWorker{
		chat:            chat,
		mailer:          mailer,
		reconciliations: reconciliations,
		pdfStoragePath:  pdfStoragePath,
	}
}

// Handlers returns the job handlers keyed by job type for StartWorkerPool.
func (w *NotificationWorker) Handlers() map[string]JobHandler {
	return map[string]JobHandler{
		JobSale:     jobFunc(w.ProcessSale),
		JobVariance: jobFunc(w.ProcessVariance),
	}
}

type jobFunc func(ctx context.Context, payload json.RawMessage) error

func (f jobFunc) Process(ctx context.Context, payload json.RawMessage) error { return f(ctx, payload) }

// ProcessSale posts a short receipt line for a freshly synced sale.
func (w *NotificationWorker) ProcessSale(ctx context.Context, raw json.RawMessage) error {
	var n service.SaleNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		// malformed payloads will never succeed; acknowledge and move on
		log.Error().Err(err).Msg("notification_worker: invalid sale payload")
		return nil
	}
	if w.chat == nil {
		log.Debug().Str("external_id", n.ExternalID).Msg("notification_worker: chat not configured, sale dropped")
		return nil
	}
	return withRetry(ctx, 2, func(int) error {
		return w.chat.SendMessage(ctx, formatSale(n))
	})
}

// ProcessVariance posts the variance summary and mails the PDF report.
func (w *NotificationWorker) ProcessVariance(ctx context.Context, raw json.RawMessage) error {
	var a service.VarianceAlert
	if err := json.Unmarshal(raw, &a); err != nil {
		log.Error().Err(err).Msg("notification_worker: invalid variance payload")
		return nil
	}
	text := formatVariance(a)

	if w.chat != nil {
		if err := withRetry(ctx, 2, func(int) error { return w.chat.SendMessage(ctx, text) }); err != nil {
			return fmt.Errorf("variance telegram: %w", err)
		}
	}

	if w.mailer == nil {
		return nil
	}
	attachment := ""
	if path, err := w.renderPDF(ctx, a.ReconciliationID); err != nil {
		log.Warn().Err(err).Str("reconciliation_id", a.ReconciliationID).Msg("notification_worker: report PDF unavailable, mailing without it")
	} else {
		attachment = path
	}
	subject := fmt.Sprintf("Stock variance %s (%s)", a.Date, a.Location)
	if err := w.mailer.SendAlert(subject, text, attachment); err != nil {
		return fmt.Errorf("variance mail: %w", err)
	}
	log.Info().Str("reconciliation_id", a.ReconciliationID).Msg("notification_worker: variance alert mailed")
	return nil
}

func (w *NotificationWorker) renderPDF(ctx context.Context, rawID string) (string, error) {
	if w.reconciliations == nil {
		return "", fmt.Errorf("no reconciliation store")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return "", fmt.Errorf("invalid reconciliation id %q", rawID)
	}
	rec, err := w.reconciliations.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return infra.GenerateReconciliationPDF(rec, w.pdfStoragePath)
}

func formatSale(n service.SaleNotification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sale #%s  %s  (%s)\n", n.ExternalID, n.Total.StringFixed(2), n.PayType)
	for _, item := range n.Items {
		b.WriteString("• " + item + "\n")
	}
	if !n.ClosedAt.IsZero() {
		b.WriteString("closed " + n.ClosedAt.Format("15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatVariance(a service.VarianceAlert) string {
	return fmt.Sprintf("Stock variance %s at %s: %d over, %d under, value %s",
		a.Date, a.Location, a.Over, a.Under, a.TotalVarianceValue.StringFixed(2))
}

// withRetry calls fn up to maxAttempts times with exponential backoff
// (immediate, 1s, 2s ...). Returns nil if any attempt succeeds.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
