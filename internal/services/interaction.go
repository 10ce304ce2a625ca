package services

import (
	"context"
	"log/slog"

	"github.com/campusnet-app/backend/internal/apperrors"
	"github.com/campusnet-app/backend/internal/models"
	"github.com/campusnet-app/backend/internal/repositories"
	"github.com/campusnet-app/backend/pkg/metrics"
)

// InteractionService orchestrates the multi-entity mutations of the social
// graph: follow/unfollow, post lifecycle, like toggling and comments. Every
// mutation validates and fails fast before the first write; notification
// side effects are described as pending records and committed through the
// Notifier after the mutation succeeds.
type InteractionService struct {
	userRepository    repositories.UserRepository
	postRepository    repositories.PostRepository
	commentRepository repositories.CommentRepository
	notifier          *Notifier
	logger            *slog.Logger
	fanoutOnPost      bool
}

// NewInteractionService creates a new InteractionService
func NewInteractionService(
	userRepo repositories.UserRepository,
	postRepo repositories.PostRepository,
	commentRepo repositories.CommentRepository,
	notifier *Notifier,
	logger *slog.Logger,
	fanoutOnPost bool,
) *InteractionService {
	return &InteractionService{
		userRepository:    userRepo,
		postRepository:    postRepo,
		commentRepository: commentRepo,
		notifier:          notifier,
		logger:            logger,
		fanoutOnPost:      fanoutOnPost,
	}
}

func (s *InteractionService) countOp(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.InteractionsTotal.WithLabelValues(operation, outcome).Inc()
}

// Follow makes actor follow target and returns the updated target. Both
// sides of the relation are written with atomic set-adds; if the second
// write fails the graph is left asymmetric until the reconciler repairs it.
func (s *InteractionService) Follow(ctx context.Context, actorID, targetID string) (user *models.User, err error) {
	defer func() { s.countOp("follow", err) }()

	if actorID == targetID {
		return nil, apperrors.New(apperrors.KindSelfReference, "cannot follow yourself")
	}

	actor, err := s.userRepository.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	target, err := s.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if actor.IsFollowing(target.ID) {
		return nil, apperrors.New(apperrors.KindAlreadyFollowing, "already following this user")
	}

	if err = s.userRepository.AddToFollowing(ctx, actorID, targetID); err != nil {
		return nil, err
	}
	if err = s.userRepository.AddToFollowers(ctx, targetID, actorID); err != nil {
		s.logger.Error("follow graph left asymmetric, reconciliation required",
			"actor", actorID, "target", targetID, "error", err)
		return nil, err
	}

	s.notifier.Dispatch([]models.PendingNotification{{
		RecipientID: targetID,
		SenderID:    actorID,
		Type:        models.NotificationTypeFollow,
		RefKind:     models.RefKindUser,
		RefID:       actorID,
	}})

	return s.userRepository.GetUserByID(ctx, targetID)
}

// Unfollow removes the relation symmetrically.
func (s *InteractionService) Unfollow(ctx context.Context, actorID, targetID string) (err error) {
	defer func() { s.countOp("unfollow", err) }()

	actor, err := s.userRepository.GetUserByID(ctx, actorID)
	if err != nil {
		return err
	}
	target, err := s.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		return err
	}
	if !actor.IsFollowing(target.ID) {
		return apperrors.New(apperrors.KindNotFollowing, "not following this user")
	}

	if err = s.userRepository.RemoveFromFollowing(ctx, actorID, targetID); err != nil {
		return err
	}
	if err = s.userRepository.RemoveFromFollowers(ctx, targetID, actorID); err != nil {
		s.logger.Error("follow graph left asymmetric, reconciliation required",
			"actor", actorID, "target", targetID, "error", err)
		return err
	}

	s.notifier.Dispatch([]models.PendingNotification{{
		RecipientID: targetID,
		SenderID:    actorID,
		Type:        models.NotificationTypeUnfollow,
		RefKind:     models.RefKindUser,
		RefID:       actorID,
	}})

	return nil
}

// ListFollowers resolves a user's followers to compact projections.
func (s *InteractionService) ListFollowers(ctx context.Context, userID string) ([]models.UserCompact, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepository.GetUsersByIDs(ctx, user.Followers)
	if err != nil {
		return nil, err
	}
	return toCompactList(users), nil
}

// ListFollowing resolves the users a user follows to compact projections.
func (s *InteractionService) ListFollowing(ctx context.Context, userID string) ([]models.UserCompact, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepository.GetUsersByIDs(ctx, user.Following)
	if err != nil {
		return nil, err
	}
	return toCompactList(users), nil
}

func toCompactList(users []models.User) []models.UserCompact {
	compact := make([]models.UserCompact, len(users))
	for i := range users {
		compact[i] = users[i].ToCompact()
	}
	return compact
}

// CreatePost creates a post owned by the actor. When fan-out is enabled,
// each follower of the owner receives a new-post notification.
func (s *InteractionService) CreatePost(ctx context.Context, actorID string, req *models.CreatePostRequest) (post *models.Post, err error) {
	defer func() { s.countOp("create_post", err) }()

	actor, err := s.userRepository.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	post = &models.Post{
		UserID:        actor.ID,
		Text:          req.Text,
		Media:         req.Media,
		Visibility:    req.Visibility,
		Tags:          req.Tags,
		RelatedCourse: req.RelatedCourse,
	}
	if err = s.postRepository.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	if s.fanoutOnPost {
		followerIDs, ferr := s.userRepository.GetFollowerIDs(ctx, actorID)
		if ferr != nil {
			// The post itself is committed; a failed fan-out is logged, not
			// surfaced to the author.
			s.logger.Error("new-post fan-out aborted", "post", post.ID.Hex(), "error", ferr)
			return post, nil
		}
		pending := make([]models.PendingNotification, len(followerIDs))
		for i, fid := range followerIDs {
			pending[i] = models.PendingNotification{
				RecipientID: fid.Hex(),
				SenderID:    actorID,
				Type:        models.NotificationTypeNewPost,
				RefKind:     models.RefKindPost,
				RefID:       post.ID.Hex(),
			}
		}
		metrics.FanoutSize.Observe(float64(len(pending)))
		s.notifier.Dispatch(pending)
	}

	return post, nil
}

// UpdatePost applies a presence-aware patch to a post owned by the actor.
func (s *InteractionService) UpdatePost(ctx context.Context, actorID, postID string, patch *models.UpdatePostRequest) (post *models.Post, err error) {
	defer func() { s.countOp("update_post", err) }()

	existing, err := s.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if existing.UserID.Hex() != actorID {
		return nil, apperrors.Forbidden("not the owner of this post")
	}

	if err = s.postRepository.ApplyPatch(ctx, postID, patch); err != nil {
		return nil, err
	}
	return s.postRepository.GetPostByID(ctx, postID)
}

// DeletePost removes a post owned by the actor along with its comments.
func (s *InteractionService) DeletePost(ctx context.Context, actorID, postID string) (err error) {
	defer func() { s.countOp("delete_post", err) }()

	existing, err := s.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if existing.UserID.Hex() != actorID {
		return apperrors.Forbidden("not the owner of this post")
	}

	if err = s.postRepository.DeletePost(ctx, postID); err != nil {
		return err
	}
	if _, cerr := s.commentRepository.DeleteCommentsByPostID(ctx, postID); cerr != nil {
		s.logger.Error("comment cascade failed", "post", postID, "error", cerr)
	}
	return nil
}

// ToggleLike flips the actor's membership in the post's like-set. The first
// like by a non-owner emits exactly one notification; unliking emits
// nothing. Returns the updated post.
func (s *InteractionService) ToggleLike(ctx context.Context, actorID, postID string) (post *models.Post, err error) {
	defer func() { s.countOp("toggle_like", err) }()

	existing, err := s.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	actor, err := s.userRepository.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if existing.LikedBy(actor.ID) {
		if err = s.postRepository.RemoveLike(ctx, postID, actorID); err != nil {
			return nil, err
		}
	} else {
		if err = s.postRepository.AddLike(ctx, postID, actorID); err != nil {
			return nil, err
		}
		if existing.UserID.Hex() != actorID {
			s.notifier.Dispatch([]models.PendingNotification{{
				RecipientID: existing.UserID.Hex(),
				SenderID:    actorID,
				Type:        models.NotificationTypeLike,
				RefKind:     models.RefKindPost,
				RefID:       postID,
			}})
		}
	}

	return s.postRepository.GetPostByID(ctx, postID)
}

// GetPost retrieves a single post by id.
func (s *InteractionService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	return s.postRepository.GetPostByID(ctx, postID)
}

// ListPosts retrieves posts newest first.
func (s *InteractionService) ListPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	return s.postRepository.GetAllPosts(ctx, skip, limit)
}

// ListPostsByUser retrieves a user's posts newest first. An existing user
// with no posts yields an empty slice.
func (s *InteractionService) ListPostsByUser(ctx context.Context, userID string, skip, limit int64) ([]models.Post, error) {
	if _, err := s.userRepository.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.postRepository.GetPostsByUserID(ctx, userID, skip, limit)
}

// AddComment creates a comment on a post and notifies the post owner.
func (s *InteractionService) AddComment(ctx context.Context, actorID, postID, text string) (comment *models.Comment, err error) {
	defer func() { s.countOp("add_comment", err) }()

	if text == "" {
		return nil, apperrors.New(apperrors.KindValidation, "comment text is required")
	}

	post, err := s.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	actor, err := s.userRepository.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	comment = &models.Comment{
		PostID: post.ID,
		UserID: actor.ID,
		Text:   text,
	}
	if err = s.commentRepository.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if post.UserID.Hex() != actorID {
		s.notifier.Dispatch([]models.PendingNotification{{
			RecipientID: post.UserID.Hex(),
			SenderID:    actorID,
			Type:        models.NotificationTypeComment,
			RefKind:     models.RefKindPost,
			RefID:       postID,
		}})
	}

	return comment, nil
}

// DeleteComment removes a comment; only its author may delete it.
func (s *InteractionService) DeleteComment(ctx context.Context, actorID, commentID string) (err error) {
	defer func() { s.countOp("delete_comment", err) }()

	comment, err := s.commentRepository.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID.Hex() != actorID {
		return apperrors.Forbidden("not the author of this comment")
	}
	return s.commentRepository.DeleteComment(ctx, commentID)
}

// ListComments returns a post's comments oldest first.
func (s *InteractionService) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if _, err := s.postRepository.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepository.GetCommentsByPostID(ctx, postID)
}
