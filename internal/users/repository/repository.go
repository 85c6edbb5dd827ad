package repository

import (
	"context"

	"usersvc/internal/users/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository is the store adapter for user records. Errors returned are
// *model.Failure values.
type UserRepository interface {
	// Insert every user, continuing past individual failures
	InsertMany(ctx context.Context, users []*model.User) (*model.InsertManyResult, error)
	// Execute write models as one unordered batch
	BulkWrite(ctx context.Context, models []mongo.WriteModel) (*model.BulkWriteResult, error)
	// Page through users in creation order
	Find(ctx context.Context, skip, limit int64) ([]*model.User, error)
	CountDocuments(ctx context.Context) (int64, error)
	// Returns nil, nil when no user has the id
	FindByID(ctx context.Context, id string) (*model.User, error)
	// Initialize Indexes
	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
}
