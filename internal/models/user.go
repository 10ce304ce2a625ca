package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a member of the campus network stored in MongoDB.
// Followers and Following are denormalized ObjectID sets; both sides of a
// relation are kept in step by the follow/unfollow operations and the
// reconciler. Credential material lives with the external auth provider,
// never in this document.
type User struct {
	ID              primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	FirstName       string               `json:"first_name" bson:"first_name"`
	LastName        string               `json:"last_name" bson:"last_name"`
	Username        string               `json:"username" bson:"username"`
	Email           string               `json:"email" bson:"email"`
	Avatar          string               `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Bio             string               `json:"bio,omitempty" bson:"bio,omitempty"`
	BackgroundImage string               `json:"background_image,omitempty" bson:"background_image,omitempty"`
	Department      []string             `json:"department,omitempty" bson:"department,omitempty"`
	BatchYear       int                  `json:"batch_year,omitempty" bson:"batch_year,omitempty"`
	StudentID       string               `json:"student_id,omitempty" bson:"student_id,omitempty"`
	Role            string               `json:"role,omitempty" bson:"role,omitempty"`
	Orgs            []string             `json:"orgs,omitempty" bson:"orgs,omitempty"`
	Followers       []primitive.ObjectID `json:"followers" bson:"followers"`
	Following       []primitive.ObjectID `json:"following" bson:"following"`
	FirebaseUID     string               `json:"firebase_uid,omitempty" bson:"firebase_uid,omitempty"`
	CreatedAt       time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at" bson:"updated_at"`
}

// UserCompact is the minimal identity projection embedded in notification
// and feed payloads.
type UserCompact struct {
	ID         primitive.ObjectID `json:"id"`
	FirstName  string             `json:"first_name"`
	LastName   string             `json:"last_name"`
	Username   string             `json:"username"`
	Avatar     string             `json:"avatar,omitempty"`
	Department []string           `json:"department,omitempty"`
}

// ToCompact strips a full user record down to its public identity fields.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Username:   u.Username,
		Avatar:     u.Avatar,
		Department: u.Department,
	}
}

// IsFollowing reports whether the user follows the given id.
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	for _, f := range u.Following {
		if f == id {
			return true
		}
	}
	return false
}

// PrimaryDepartment returns the first department element, the authoritative
// one for visibility checks. Empty string when none is set.
func (u *User) PrimaryDepartment() string {
	if len(u.Department) == 0 {
		return ""
	}
	return u.Department[0]
}

// CreateUserRequest defines the request body for registering a user
type CreateUserRequest struct {
	FirstName   string   `json:"first_name" validate:"required,min=1,max=50"`
	LastName    string   `json:"last_name" validate:"required,min=1,max=50"`
	Username    string   `json:"username" validate:"required,min=2,max=30"`
	Email       string   `json:"email" validate:"required,email"`
	Avatar      string   `json:"avatar,omitempty" validate:"omitempty,url"`
	Bio         string   `json:"bio,omitempty" validate:"omitempty,max=300"`
	Department  []string `json:"department,omitempty"`
	BatchYear   int      `json:"batch_year,omitempty" validate:"omitempty,min=1900,max=2100"`
	StudentID   string   `json:"student_id,omitempty"`
	Role        string   `json:"role,omitempty"`
	Orgs        []string `json:"orgs,omitempty"`
	FirebaseUID string   `json:"firebase_uid,omitempty"`
}

// UpdateUserRequest defines the request body for updating profile fields.
// Pointer fields distinguish "omitted" from "explicitly cleared".
type UpdateUserRequest struct {
	FirstName       *string   `json:"first_name,omitempty" validate:"omitempty,min=1,max=50"`
	LastName        *string   `json:"last_name,omitempty" validate:"omitempty,min=1,max=50"`
	Avatar          *string   `json:"avatar,omitempty" validate:"omitempty,url"`
	Bio             *string   `json:"bio,omitempty" validate:"omitempty,max=300"`
	BackgroundImage *string   `json:"background_image,omitempty" validate:"omitempty,url"`
	Department      *[]string `json:"department,omitempty"`
	Orgs            *[]string `json:"orgs,omitempty"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
