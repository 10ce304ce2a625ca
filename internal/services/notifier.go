package services

import (
	"log/slog"

	"github.com/campusnet-app/backend/internal/models"
	"github.com/campusnet-app/backend/internal/repositories"
	"github.com/campusnet-app/backend/pkg/metrics"
)

// Notifier commits pending notifications to the ledger. Mutations describe
// their side effects as PendingNotification records and hand them here, so
// the no-self rule is enforced in one place and a failed write is logged
// and counted instead of vanishing inside a loop.
type Notifier struct {
	notificationRepository repositories.NotificationRepository
	logger                 *slog.Logger
}

// NewNotifier creates a new Notifier
func NewNotifier(notifRepo repositories.NotificationRepository, logger *slog.Logger) *Notifier {
	return &Notifier{
		notificationRepository: notifRepo,
		logger:                 logger,
	}
}

// Dispatch persists each pending notification, dropping self-directed ones.
// Returns the number committed. Persistence failures do not abort the
// remaining records.
func (n *Notifier) Dispatch(pending []models.PendingNotification) int {
	committed := 0
	for _, p := range pending {
		if p.RecipientID == p.SenderID {
			metrics.NotificationsSuppressed.Inc()
			continue
		}

		notification := &models.Notification{
			RecipientID: p.RecipientID,
			SenderID:    p.SenderID,
			Type:        p.Type,
			RefKind:     p.RefKind,
			RefID:       p.RefID,
			Seen:        false,
		}
		if err := n.notificationRepository.CreateNotification(notification); err != nil {
			metrics.NotificationsFailed.Inc()
			n.logger.Error("notification write failed",
				"type", p.Type,
				"recipient", p.RecipientID,
				"sender", p.SenderID,
				"error", err)
			continue
		}
		metrics.NotificationsEmitted.WithLabelValues(p.Type).Inc()
		committed++
	}
	return committed
}
