package services

import (
	"context"
	"log/slog"

	"github.com/campusnet-app/backend/internal/models"
	"github.com/campusnet-app/backend/internal/repositories"
	"github.com/campusnet-app/backend/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reconciler repairs the follower/following biconditional after a partial
// two-document failure. The actor-side `following` array is authoritative:
// follow and unfollow write it first, so a crash between the two writes
// leaves only the counterpart `followers` array stale.
type Reconciler struct {
	userRepository repositories.UserRepository
	logger         *slog.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(userRepo repositories.UserRepository, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		userRepository: userRepo,
		logger:         logger,
	}
}

// Reconcile scans every user and restores symmetry, returning the number of
// repairs applied. Safe to run repeatedly; a symmetric graph yields zero.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	users, err := r.userRepository.GetUsers(ctx)
	if err != nil {
		return 0, err
	}

	byID := make(map[primitive.ObjectID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	repairs := 0
	for i := range users {
		u := &users[i]

		// B in A.following but A missing from B.followers: add it.
		for _, followeeID := range u.Following {
			followee, ok := byID[followeeID]
			if !ok {
				continue
			}
			if !containsID(followee.Followers, u.ID) {
				if err := r.userRepository.AddToFollowers(ctx, followeeID.Hex(), u.ID.Hex()); err != nil {
					r.logger.Error("repair failed", "user", followeeID.Hex(), "follower", u.ID.Hex(), "error", err)
					continue
				}
				r.logger.Info("restored missing follower entry", "user", followeeID.Hex(), "follower", u.ID.Hex())
				metrics.ReconcileRepairs.Inc()
				repairs++
			}
		}

		// A in B.followers but B missing from A.following: the relation was
		// severed on the actor side, remove the stale follower entry.
		for _, followerID := range u.Followers {
			follower, ok := byID[followerID]
			if !ok {
				continue
			}
			if !containsID(follower.Following, u.ID) {
				if err := r.userRepository.RemoveFromFollowers(ctx, u.ID.Hex(), followerID.Hex()); err != nil {
					r.logger.Error("repair failed", "user", u.ID.Hex(), "follower", followerID.Hex(), "error", err)
					continue
				}
				r.logger.Info("removed stale follower entry", "user", u.ID.Hex(), "follower", followerID.Hex())
				metrics.ReconcileRepairs.Inc()
				repairs++
			}
		}
	}
	return repairs, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
