package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post visibility levels
const (
	VisibilityPublic         = "public"
	VisibilityDepartmentOnly = "department-only"
	VisibilityFollowersOnly  = "followers-only"
)

// Post represents a social media post stored in MongoDB.
// Likes is an ObjectID set: a user id appears at most once, enforced by
// $addToSet/$pull at the storage layer rather than read-modify-write.
type Post struct {
	ID            primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        primitive.ObjectID   `json:"user_id" bson:"user_id"`
	Text          string               `json:"text" bson:"text"`
	Media         []string             `json:"media,omitempty" bson:"media,omitempty"`
	Visibility    string               `json:"visibility" bson:"visibility"`
	Tags          []string             `json:"tags,omitempty" bson:"tags,omitempty"`
	RelatedCourse string               `json:"related_course,omitempty" bson:"related_course,omitempty"`
	Likes         []primitive.ObjectID `json:"likes" bson:"likes"`
	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" bson:"updated_at"`
}

// LikedBy reports whether the given user id is in the like-set.
func (p *Post) LikedBy(id primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l == id {
			return true
		}
	}
	return false
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Text          string   `json:"text" validate:"required,min=1,max=2000"`
	Media         []string `json:"media,omitempty" validate:"omitempty,dive,url"`
	Visibility    string   `json:"visibility,omitempty" validate:"omitempty,oneof=public department-only followers-only"`
	Tags          []string `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=40"`
	RelatedCourse string   `json:"related_course,omitempty" validate:"omitempty,max=100"`
}

// UpdatePostRequest defines the request body for updating an existing post.
// Pointer fields carry presence: a nil field is left untouched, a non-nil
// empty slice clears.
type UpdatePostRequest struct {
	Text          *string   `json:"text,omitempty" validate:"omitempty,min=1,max=2000"`
	Media         *[]string `json:"media,omitempty" validate:"omitempty,dive,url"`
	Visibility    *string   `json:"visibility,omitempty" validate:"omitempty,oneof=public department-only followers-only"`
	Tags          *[]string `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=40"`
	RelatedCourse *string   `json:"related_course,omitempty" validate:"omitempty,max=100"`
}
