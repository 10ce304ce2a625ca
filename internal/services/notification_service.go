package services

import (
	"context"

	"github.com/campusnet-app/backend/internal/apperrors"
	"github.com/campusnet-app/backend/internal/models"
	"github.com/campusnet-app/backend/internal/repositories"
)

// NotificationView is a ledger row resolved with compact sender and
// recipient identities. Full user records (and anything credential-shaped)
// never leave this layer.
type NotificationView struct {
	models.Notification
	Sender    models.UserCompact `json:"sender"`
	Recipient models.UserCompact `json:"recipient"`
}

// NotificationService is the read/delete surface of the notification
// ledger, owned by the recipient.
type NotificationService struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationService {
	return &NotificationService{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// ListForUser returns a user's notifications newest first, each resolved
// with compact sender/recipient projections. Fails with not-found when the
// user is absent.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, page, limit int) ([]NotificationView, int64, error) {
	recipient, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	notifications, total, err := s.notificationRepository.GetByRecipientID(userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	recipientCompact := recipient.ToCompact()
	senderCache := map[string]models.UserCompact{}

	views := make([]NotificationView, len(notifications))
	for i, n := range notifications {
		views[i] = NotificationView{Notification: n, Recipient: recipientCompact}
		if sender, ok := senderCache[n.SenderID]; ok {
			views[i].Sender = sender
			continue
		}
		user, serr := s.userRepository.GetUserByID(ctx, n.SenderID)
		if serr != nil {
			// Sender may have left the network; the row still renders.
			continue
		}
		compact := user.ToCompact()
		senderCache[n.SenderID] = compact
		views[i].Sender = compact
	}
	return views, total, nil
}

// UnreadCount returns the number of unseen notifications for a user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if _, err := s.userRepository.GetUserByID(ctx, userID); err != nil {
		return 0, err
	}
	return s.notificationRepository.GetUnreadCount(userID)
}

// MarkSeen idempotently marks one notification as seen. A notification is
// owned by its recipient; anyone else gets Forbidden.
func (s *NotificationService) MarkSeen(ctx context.Context, userID string, id uint) error {
	if err := s.authorizeRecipient(userID, id); err != nil {
		return err
	}
	return s.notificationRepository.MarkSeen(id)
}

// Delete removes one notification, recipient only.
func (s *NotificationService) Delete(ctx context.Context, userID string, id uint) error {
	if err := s.authorizeRecipient(userID, id); err != nil {
		return err
	}
	return s.notificationRepository.DeleteNotification(id)
}

func (s *NotificationService) authorizeRecipient(userID string, id uint) error {
	notification, err := s.notificationRepository.GetNotificationByID(id)
	if err != nil {
		return err
	}
	if notification.RecipientID != userID {
		return apperrors.Forbidden("not the recipient of this notification")
	}
	return nil
}

// DeleteAllForUser removes every notification addressed to userID and
// returns the count. Zero matches is a zero count, not an error.
func (s *NotificationService) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepository.DeleteAllByRecipientID(userID)
}
