package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/campusnet-app/backend/internal/apperrors"
	"github.com/campusnet-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They mirror the persistence semantics the
// Mongo/Postgres implementations provide: set-add/set-remove array ops,
// newest-first post listing, oldest-first comment listing.

type testEnv struct {
	users         *fakeUserRepo
	posts         *fakePostRepo
	comments      *fakeCommentRepo
	notifications *fakeNotificationRepo
	interactions  *InteractionService
	feed          *FeedService
	notifSvc      *NotificationService
	reconciler    *Reconciler
}

func newTestEnv() *testEnv {
	clock := newFakeClock()
	users := newFakeUserRepo(clock)
	posts := newFakePostRepo(clock)
	comments := newFakeCommentRepo(clock)
	notifications := newFakeNotificationRepo(clock)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := NewNotifier(notifications, logger)

	return &testEnv{
		users:         users,
		posts:         posts,
		comments:      comments,
		notifications: notifications,
		interactions:  NewInteractionService(users, posts, comments, notifier, logger, true),
		feed:          NewFeedService(posts, users),
		notifSvc:      NewNotificationService(notifications, users),
		reconciler:    NewReconciler(users, logger),
	}
}

func (e *testEnv) addUser(username string, department ...string) *models.User {
	user := &models.User{
		FirstName:  username,
		LastName:   "Tester",
		Username:   username,
		Email:      username + "@campus.test",
		Department: department,
	}
	_ = e.users.CreateUser(context.Background(), user)
	return user
}

func (e *testEnv) addPost(owner *models.User, text, visibility string) *models.Post {
	post := &models.Post{UserID: owner.ID, Text: text, Visibility: visibility}
	_ = e.posts.CreatePost(context.Background(), post)
	return post
}

type fakeUserRepo struct {
	users map[string]*models.User
	clock *fakeClock
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) tick() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newFakeUserRepo(clock *fakeClock) *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}, clock: clock}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = r.clock.tick()
	user.UpdatedAt = user.CreatedAt
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	r.users[user.ID.Hex()] = user
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *fakeUserRepo) GetUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	for _, u := range r.users {
		if u.FirebaseUID == uid {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *fakeUserRepo) GetUsers(_ context.Context) ([]models.User, error) {
	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *fakeUserRepo) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	users := []models.User{}
	for _, id := range ids {
		if u, ok := r.users[id.Hex()]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) GetFollowerIDs(_ context.Context, userID string) ([]primitive.ObjectID, error) {
	target, ok := r.users[userID]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	ids := []primitive.ObjectID{}
	for _, u := range r.users {
		for _, f := range u.Following {
			if f == target.ID {
				ids = append(ids, u.ID)
			}
		}
	}
	return ids, nil
}

func (r *fakeUserRepo) SearchUsers(_ context.Context, query string) ([]models.User, error) {
	users := []models.User{}
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) ApplyProfilePatch(_ context.Context, id string, patch *models.UpdateUserRequest) error {
	user, ok := r.users[id]
	if !ok {
		return apperrors.NotFound("user")
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Department != nil {
		user.Department = *patch.Department
	}
	return nil
}

func (r *fakeUserRepo) AddToFollowing(_ context.Context, userID, followeeID string) error {
	return r.addToSet(userID, followeeID, func(u *models.User) *[]primitive.ObjectID { return &u.Following })
}

func (r *fakeUserRepo) RemoveFromFollowing(_ context.Context, userID, followeeID string) error {
	return r.pull(userID, followeeID, func(u *models.User) *[]primitive.ObjectID { return &u.Following })
}

func (r *fakeUserRepo) AddToFollowers(_ context.Context, userID, followerID string) error {
	return r.addToSet(userID, followerID, func(u *models.User) *[]primitive.ObjectID { return &u.Followers })
}

func (r *fakeUserRepo) RemoveFromFollowers(_ context.Context, userID, followerID string) error {
	return r.pull(userID, followerID, func(u *models.User) *[]primitive.ObjectID { return &u.Followers })
}

func (r *fakeUserRepo) addToSet(userID, memberID string, field func(*models.User) *[]primitive.ObjectID) error {
	user, ok := r.users[userID]
	if !ok {
		return apperrors.NotFound("user")
	}
	memberObjID, err := primitive.ObjectIDFromHex(memberID)
	if err != nil {
		return apperrors.New(apperrors.KindValidation, "invalid user ID format")
	}
	set := field(user)
	for _, v := range *set {
		if v == memberObjID {
			return nil
		}
	}
	*set = append(*set, memberObjID)
	return nil
}

func (r *fakeUserRepo) pull(userID, memberID string, field func(*models.User) *[]primitive.ObjectID) error {
	user, ok := r.users[userID]
	if !ok {
		return apperrors.NotFound("user")
	}
	memberObjID, err := primitive.ObjectIDFromHex(memberID)
	if err != nil {
		return apperrors.New(apperrors.KindValidation, "invalid user ID format")
	}
	set := field(user)
	out := (*set)[:0]
	for _, v := range *set {
		if v != memberObjID {
			out = append(out, v)
		}
	}
	*set = out
	return nil
}

type fakePostRepo struct {
	posts map[string]*models.Post
	clock *fakeClock
}

func newFakePostRepo(clock *fakeClock) *fakePostRepo {
	return &fakePostRepo{posts: map[string]*models.Post{}, clock: clock}
}

func (r *fakePostRepo) CreatePost(_ context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = r.clock.tick()
	post.UpdatedAt = post.CreatedAt
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Visibility == "" {
		post.Visibility = models.VisibilityPublic
	}
	r.posts[post.ID.Hex()] = post
	return nil
}

func (r *fakePostRepo) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, apperrors.NotFound("post")
	}
	copied := *post
	return &copied, nil
}

func (r *fakePostRepo) GetPostsByUserID(_ context.Context, userID string, skip, limit int64) ([]models.Post, error) {
	posts := []models.Post{}
	for _, p := range r.posts {
		if p.UserID.Hex() == userID {
			posts = append(posts, *p)
		}
	}
	sortNewestFirst(posts)
	return window(posts, skip, limit), nil
}

func (r *fakePostRepo) GetAllPosts(_ context.Context, skip, limit int64) ([]models.Post, error) {
	posts := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		posts = append(posts, *p)
	}
	sortNewestFirst(posts)
	return window(posts, skip, limit), nil
}

func sortNewestFirst(posts []models.Post) {
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
}

func window(posts []models.Post, skip, limit int64) []models.Post {
	if skip >= int64(len(posts)) {
		return []models.Post{}
	}
	posts = posts[skip:]
	if limit > 0 && limit < int64(len(posts)) {
		posts = posts[:limit]
	}
	return posts
}

func (r *fakePostRepo) ApplyPatch(_ context.Context, id string, patch *models.UpdatePostRequest) error {
	post, ok := r.posts[id]
	if !ok {
		return apperrors.NotFound("post")
	}
	if patch.Text != nil {
		post.Text = *patch.Text
	}
	if patch.Media != nil {
		post.Media = *patch.Media
	}
	if patch.Visibility != nil {
		post.Visibility = *patch.Visibility
	}
	if patch.Tags != nil {
		post.Tags = *patch.Tags
	}
	if patch.RelatedCourse != nil {
		post.RelatedCourse = *patch.RelatedCourse
	}
	post.UpdatedAt = r.clock.tick()
	return nil
}

func (r *fakePostRepo) DeletePost(_ context.Context, id string) error {
	if _, ok := r.posts[id]; !ok {
		return apperrors.NotFound("post")
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) AddLike(_ context.Context, postID, userID string) error {
	post, ok := r.posts[postID]
	if !ok {
		return apperrors.NotFound("post")
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return apperrors.New(apperrors.KindValidation, "invalid user ID format")
	}
	for _, l := range post.Likes {
		if l == userObjID {
			return nil
		}
	}
	post.Likes = append(post.Likes, userObjID)
	return nil
}

func (r *fakePostRepo) RemoveLike(_ context.Context, postID, userID string) error {
	post, ok := r.posts[postID]
	if !ok {
		return apperrors.NotFound("post")
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return apperrors.New(apperrors.KindValidation, "invalid user ID format")
	}
	out := post.Likes[:0]
	for _, l := range post.Likes {
		if l != userObjID {
			out = append(out, l)
		}
	}
	post.Likes = out
	return nil
}

type fakeCommentRepo struct {
	comments map[string]*models.Comment
	clock    *fakeClock
}

func newFakeCommentRepo(clock *fakeClock) *fakeCommentRepo {
	return &fakeCommentRepo{comments: map[string]*models.Comment{}, clock: clock}
}

func (r *fakeCommentRepo) CreateComment(_ context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = r.clock.tick()
	r.comments[comment.ID.Hex()] = comment
	return nil
}

func (r *fakeCommentRepo) GetCommentByID(_ context.Context, id string) (*models.Comment, error) {
	comment, ok := r.comments[id]
	if !ok {
		return nil, apperrors.NotFound("comment")
	}
	copied := *comment
	return &copied, nil
}

func (r *fakeCommentRepo) GetCommentsByPostID(_ context.Context, postID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	for _, c := range r.comments {
		if c.PostID.Hex() == postID {
			comments = append(comments, *c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	return comments, nil
}

func (r *fakeCommentRepo) DeleteComment(_ context.Context, id string) error {
	if _, ok := r.comments[id]; !ok {
		return apperrors.NotFound("comment")
	}
	delete(r.comments, id)
	return nil
}

func (r *fakeCommentRepo) DeleteCommentsByPostID(_ context.Context, postID string) (int64, error) {
	var count int64
	for id, c := range r.comments {
		if c.PostID.Hex() == postID {
			delete(r.comments, id)
			count++
		}
	}
	return count, nil
}

type fakeNotificationRepo struct {
	rows     []models.Notification
	nextID   uint
	failNext int
	clock    *fakeClock
}

func newFakeNotificationRepo(clock *fakeClock) *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1, clock: clock}
}

func (r *fakeNotificationRepo) CreateNotification(n *models.Notification) error {
	if r.failNext > 0 {
		r.failNext--
		return errors.New("ledger unavailable")
	}
	n.ID = r.nextID
	r.nextID++
	n.CreatedAt = r.clock.tick()
	r.rows = append(r.rows, *n)
	return nil
}

func (r *fakeNotificationRepo) GetNotificationByID(id uint) (*models.Notification, error) {
	for i := range r.rows {
		if r.rows[i].ID == id {
			copied := r.rows[i]
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("notification")
}

func (r *fakeNotificationRepo) GetByRecipientID(recipientID string, page, limit int) ([]models.Notification, int64, error) {
	matched := []models.Notification{}
	for _, n := range r.rows {
		if n.RecipientID == recipientID {
			matched = append(matched, n)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))

	offset := (page - 1) * limit
	if offset >= len(matched) {
		return []models.Notification{}, total, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (r *fakeNotificationRepo) GetUnreadCount(recipientID string) (int64, error) {
	var count int64
	for _, n := range r.rows {
		if n.RecipientID == recipientID && !n.Seen {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkSeen(id uint) error {
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].Seen = true
			return nil
		}
	}
	return apperrors.NotFound("notification")
}

func (r *fakeNotificationRepo) DeleteNotification(id uint) error {
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("notification")
}

func (r *fakeNotificationRepo) DeleteAllByRecipientID(recipientID string) (int64, error) {
	kept := r.rows[:0]
	var count int64
	for _, n := range r.rows {
		if n.RecipientID == recipientID {
			count++
			continue
		}
		kept = append(kept, n)
	}
	r.rows = kept
	return count, nil
}
