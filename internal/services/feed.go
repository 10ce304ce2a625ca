package services

import (
	"context"

	"github.com/campusnet-app/backend/internal/apperrors"
	"github.com/campusnet-app/backend/internal/models"
	"github.com/campusnet-app/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedMode selects which posts a feed contains.
type FeedMode string

const (
	FeedModeAll        FeedMode = "all"
	FeedModeDepartment FeedMode = "department"
	FeedModeFollowing  FeedMode = "following"
)

// ParseFeedMode maps a query value to a FeedMode, defaulting to all.
func ParseFeedMode(s string) (FeedMode, error) {
	switch s {
	case "", string(FeedModeAll):
		return FeedModeAll, nil
	case string(FeedModeDepartment):
		return FeedModeDepartment, nil
	case string(FeedModeFollowing):
		return FeedModeFollowing, nil
	default:
		return "", apperrors.New(apperrors.KindValidation, "unknown feed mode %q", s)
	}
}

// visibleTo applies a post's own visibility policy against the viewer.
// Public posts pass for everyone; a followers-only post is visible to its
// owner and to followers of the owner; a department-only post is visible to
// its owner and to viewers sharing the owner's first department element.
// Following mode is the exception: there the follow relation alone grants
// access, so the department gate does not apply.
func visibleTo(viewer, owner *models.User, post *models.Post, mode FeedMode) bool {
	if viewer.ID == owner.ID {
		return true
	}
	switch post.Visibility {
	case models.VisibilityFollowersOnly:
		return viewer.IsFollowing(owner.ID)
	case models.VisibilityDepartmentOnly:
		if mode == FeedModeFollowing {
			return true
		}
		return viewer.PrimaryDepartment() != "" && viewer.PrimaryDepartment() == owner.PrimaryDepartment()
	default:
		return true
	}
}

// modePasses applies the feed-mode filter on top of the visibility policy.
func modePasses(viewer, owner *models.User, post *models.Post, mode FeedMode) bool {
	switch mode {
	case FeedModeDepartment:
		return post.Visibility == models.VisibilityDepartmentOnly &&
			owner.PrimaryDepartment() != "" &&
			viewer.PrimaryDepartment() != "" &&
			owner.PrimaryDepartment() == viewer.PrimaryDepartment()
	case FeedModeFollowing:
		return viewer.IsFollowing(owner.ID)
	default:
		return true
	}
}

// Compose filters posts for a viewer by feed mode and per-post visibility.
// It is a pure function: the input slice is not mutated and its order
// (newest first, supplied by the store) is preserved. Posts whose owner is
// missing from the owners map are dropped.
func Compose(viewer *models.User, owners map[primitive.ObjectID]*models.User, posts []models.Post, mode FeedMode) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for i := range posts {
		post := &posts[i]
		owner, ok := owners[post.UserID]
		if !ok {
			continue
		}
		if !visibleTo(viewer, owner, post, mode) {
			continue
		}
		if !modePasses(viewer, owner, post, mode) {
			continue
		}
		out = append(out, *post)
	}
	return out
}

// FeedPost is a composed feed entry with author info and viewer flags.
type FeedPost struct {
	models.Post
	Author  models.UserCompact `json:"author"`
	IsLiked bool               `json:"is_liked"`
}

// FeedService composes visibility-scoped feeds. Read-only: it consumes the
// user and post stores and never mutates them.
type FeedService struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
}

// NewFeedService creates a new FeedService
func NewFeedService(postRepo repositories.PostRepository, userRepo repositories.UserRepository) *FeedService {
	return &FeedService{
		postRepository: postRepo,
		userRepository: userRepo,
	}
}

// Feed returns the viewer's feed in the given mode, newest first.
func (s *FeedService) Feed(ctx context.Context, viewerID string, mode FeedMode, skip, limit int64) ([]FeedPost, error) {
	viewer, err := s.userRepository.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepository.GetAllPosts(ctx, skip, limit)
	if err != nil {
		return nil, err
	}

	ownerIDs := make([]primitive.ObjectID, 0, len(posts))
	seen := make(map[primitive.ObjectID]bool)
	for i := range posts {
		if !seen[posts[i].UserID] {
			seen[posts[i].UserID] = true
			ownerIDs = append(ownerIDs, posts[i].UserID)
		}
	}

	ownerList, err := s.userRepository.GetUsersByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	owners := make(map[primitive.ObjectID]*models.User, len(ownerList))
	for i := range ownerList {
		owners[ownerList[i].ID] = &ownerList[i]
	}

	composed := Compose(viewer, owners, posts, mode)

	feed := make([]FeedPost, len(composed))
	for i := range composed {
		feed[i] = FeedPost{
			Post:    composed[i],
			Author:  owners[composed[i].UserID].ToCompact(),
			IsLiked: composed[i].LikedBy(viewer.ID),
		}
	}
	return feed, nil
}
