package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/campusnet-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchSuppressesSelfNotifications(t *testing.T) {
	repo := newFakeNotificationRepo(newFakeClock())
	notifier := NewNotifier(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	committed := notifier.Dispatch([]models.PendingNotification{
		{RecipientID: "a", SenderID: "b", Type: models.NotificationTypeLike, RefKind: models.RefKindPost, RefID: "p"},
		{RecipientID: "b", SenderID: "b", Type: models.NotificationTypeLike, RefKind: models.RefKindPost, RefID: "p"},
		{RecipientID: "c", SenderID: "b", Type: models.NotificationTypeComment, RefKind: models.RefKindPost, RefID: "p"},
	})

	assert.Equal(t, 2, committed)
	require.Len(t, repo.rows, 2)
	for _, row := range repo.rows {
		assert.NotEqual(t, row.RecipientID, row.SenderID)
	}
}

func TestDispatchContinuesAfterWriteFailure(t *testing.T) {
	repo := newFakeNotificationRepo(newFakeClock())
	repo.failNext = 1
	notifier := NewNotifier(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	committed := notifier.Dispatch([]models.PendingNotification{
		{RecipientID: "a", SenderID: "b", Type: models.NotificationTypeFollow, RefKind: models.RefKindUser, RefID: "b"},
		{RecipientID: "c", SenderID: "b", Type: models.NotificationTypeFollow, RefKind: models.RefKindUser, RefID: "b"},
	})

	assert.Equal(t, 1, committed)
	require.Len(t, repo.rows, 1)
	assert.Equal(t, "c", repo.rows[0].RecipientID)
}

func TestDispatchEmpty(t *testing.T) {
	repo := newFakeNotificationRepo(newFakeClock())
	notifier := NewNotifier(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, 0, notifier.Dispatch(nil))
	assert.Empty(t, repo.rows)
}
