package repositories

import (
	"context"
	"time"

	"github.com/campusnet-app/backend/internal/apperrors"
	"github.com/campusnet-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines the interface for user data operations.
// The single-sided follow-graph primitives (AddToFollowing etc.) are atomic
// $addToSet/$pull updates; the interaction engine composes them into the
// two-document follow/unfollow mutation and the reconciler uses them to
// repair asymmetry.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	GetFollowerIDs(ctx context.Context, userID string) ([]primitive.ObjectID, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	ApplyProfilePatch(ctx context.Context, id string, patch *models.UpdateUserRequest) error
	AddToFollowing(ctx context.Context, userID, followeeID string) error
	RemoveFromFollowing(ctx context.Context, userID, followeeID string) error
	AddToFollowers(ctx context.Context, userID, followerID string) error
	RemoveFromFollowers(ctx context.Context, userID, followerID string) error
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

func parseObjectID(id, entity string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.New(apperrors.KindValidation, "invalid %s ID format", entity)
	}
	return objID, nil
}

// CreateUser creates a new user with empty follower/following sets
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

// GetUserByID retrieves a user by ID from MongoDB
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := parseObjectID(id, "user")
	if err != nil {
		return nil, err
	}

	var user models.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email from MongoDB
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByFirebaseUID retrieves a user by Firebase UID from MongoDB
func (r *MongoUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"firebase_uid": firebaseUID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// GetUsers retrieves all users from MongoDB
func (r *MongoUserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUsersByIDs resolves a set of ObjectIDs to user records
func (r *MongoUserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetFollowerIDs returns the ids of users whose following set contains
// userID. Queried from the follower side so fan-out reaches users whose
// denormalized arrays have drifted.
func (r *MongoUserRepository) GetFollowerIDs(ctx context.Context, userID string) ([]primitive.ObjectID, error) {
	objID, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}

	findOptions := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"following": objID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// SearchUsers searches for users by name, username or email (case-insensitive)
func (r *MongoUserRepository) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	pattern := primitive.Regex{Pattern: query, Options: "i"}
	filter := bson.M{"$or": []bson.M{
		{"first_name": pattern},
		{"last_name": pattern},
		{"username": pattern},
		{"email": pattern},
	}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ApplyProfilePatch updates only the fields present in the patch
func (r *MongoUserRepository) ApplyProfilePatch(ctx context.Context, id string, patch *models.UpdateUserRequest) error {
	objID, err := parseObjectID(id, "user")
	if err != nil {
		return err
	}

	set := bson.M{"updated_at": time.Now()}
	if patch.FirstName != nil {
		set["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["last_name"] = *patch.LastName
	}
	if patch.Avatar != nil {
		set["avatar"] = *patch.Avatar
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}
	if patch.BackgroundImage != nil {
		set["background_image"] = *patch.BackgroundImage
	}
	if patch.Department != nil {
		set["department"] = *patch.Department
	}
	if patch.Orgs != nil {
		set["orgs"] = *patch.Orgs
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

// AddToFollowing atomically adds followeeID to userID's following set
func (r *MongoUserRepository) AddToFollowing(ctx context.Context, userID, followeeID string) error {
	return r.updateSet(ctx, userID, followeeID, "$addToSet", "following")
}

// RemoveFromFollowing atomically removes followeeID from userID's following set
func (r *MongoUserRepository) RemoveFromFollowing(ctx context.Context, userID, followeeID string) error {
	return r.updateSet(ctx, userID, followeeID, "$pull", "following")
}

// AddToFollowers atomically adds followerID to userID's followers set
func (r *MongoUserRepository) AddToFollowers(ctx context.Context, userID, followerID string) error {
	return r.updateSet(ctx, userID, followerID, "$addToSet", "followers")
}

// RemoveFromFollowers atomically removes followerID from userID's followers set
func (r *MongoUserRepository) RemoveFromFollowers(ctx context.Context, userID, followerID string) error {
	return r.updateSet(ctx, userID, followerID, "$pull", "followers")
}

func (r *MongoUserRepository) updateSet(ctx context.Context, userID, memberID, op, field string) error {
	objID, err := parseObjectID(userID, "user")
	if err != nil {
		return err
	}
	memberObjID, err := parseObjectID(memberID, "user")
	if err != nil {
		return err
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{op: bson.M{field: memberObjID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}
