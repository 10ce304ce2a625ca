package models

import "time"

// Notification types
const (
	NotificationTypeFollow   = "follow"
	NotificationTypeUnfollow = "unfollow"
	NotificationTypeLike     = "like"
	NotificationTypeComment  = "comment"

	// New-post fan-out reuses the follow wire value; existing clients key
	// their "started posting" toast on it. The post reference disambiguates.
	NotificationTypeNewPost = NotificationTypeFollow
)

// Subject reference kinds
const (
	RefKindUser    = "user"
	RefKindPost    = "post"
	RefKindComment = "comment"
)

// Notification is one row of the append-only interaction ledger
// (PostgreSQL). Recipient, sender and the subject reference are MongoDB
// ObjectIDs stored as hex strings.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID string    `json:"recipient_id" gorm:"size:24;index"`
	SenderID    string    `json:"sender_id" gorm:"size:24;index"`
	Type        string    `json:"type" gorm:"size:30;index"`
	RefKind     string    `json:"ref_kind" gorm:"size:20"`
	RefID       string    `json:"ref_id" gorm:"size:24"`
	Seen        bool      `json:"seen" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

// PendingNotification describes a notification a mutation intends to emit.
// The engine returns these instead of writing the ledger itself, so the
// dispatcher can enforce the no-self rule, count failures, and be disabled
// in tests.
type PendingNotification struct {
	RecipientID string
	SenderID    string
	Type        string
	RefKind     string
	RefID       string
}
