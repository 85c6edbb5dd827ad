package testutil

import (
	"context"

	"usersvc/internal/users/model"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"
)

// MockUserRepository is a shared mock implementation of repository.UserRepository for testing.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) InsertMany(ctx context.Context, users []*model.User) (*model.InsertManyResult, error) {
	args := m.Called(ctx, users)
	if fn, ok := args.Get(0).(InsertManyFunc); ok {
		return fn(ctx, users)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InsertManyResult), args.Error(1)
}

func (m *MockUserRepository) BulkWrite(ctx context.Context, models []mongo.WriteModel) (*model.BulkWriteResult, error) {
	args := m.Called(ctx, models)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BulkWriteResult), args.Error(1)
}

func (m *MockUserRepository) Find(ctx context.Context, skip, limit int64) ([]*model.User, error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) CountDocuments(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUserRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// InsertManyFunc computes the InsertMany result from the users passed in.
// Return one from On("InsertMany") to echo inserted documents back.
type InsertManyFunc func(ctx context.Context, users []*model.User) (*model.InsertManyResult, error)

// InsertAll reports every user as inserted.
var InsertAll InsertManyFunc = func(_ context.Context, users []*model.User) (*model.InsertManyResult, error) {
	return &model.InsertManyResult{Inserted: users, Failures: []model.ItemFailure{}}, nil
}

// FailAt reports the users at the given store indexes as duplicate key
// failures and the rest as inserted.
func FailAt(indexes ...int) InsertManyFunc {
	return func(_ context.Context, users []*model.User) (*model.InsertManyResult, error) {
		failed := make(map[int]bool, len(indexes))
		res := &model.InsertManyResult{Inserted: []*model.User{}, Failures: []model.ItemFailure{}}
		for _, i := range indexes {
			failed[i] = true
			res.Failures = append(res.Failures, model.ItemFailure{
				Index:  i,
				Code:   11000,
				ErrMsg: "E11000 duplicate key error collection: test.users index: email_1 dup key: { email: \"" + users[i].Email + "\" }",
			})
		}
		for i, u := range users {
			if !failed[i] {
				res.Inserted = append(res.Inserted, u)
			}
		}
		return res, nil
	}
}
