package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"usersvc/internal/users/adapter"
	"usersvc/internal/users/model"
	"usersvc/internal/users/repository"
	"usersvc/internal/users/util"

	"golang.org/x/sync/errgroup"
)

type UserService interface {
	BulkCreate(ctx context.Context, records []json.RawMessage) (*model.BulkCreateResult, error)
	BulkUpdate(ctx context.Context, ops []json.RawMessage) (*model.BulkWriteResult, error)
	ListUsers(ctx context.Context, req model.ListUsersReq) (*model.ListUsersResult, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	Health(ctx context.Context) error
}

type Service struct {
	Repo    repository.UserRepository
	Adapter *adapter.WriteModelAdapter
	Logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo repository.UserRepository) *Service {
	return &Service{
		Repo:    repo,
		Adapter: adapter.NewWriteModelAdapter(),
		Logger:  util.GetLogger(),
		now:     time.Now,
	}
}

// ListUsers reads one page and the collection total concurrently.
func (s *Service) ListUsers(ctx context.Context, req model.ListUsersReq) (*model.ListUsersResult, error) {
	var (
		users []*model.User
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.Repo.Find(gctx, req.Skip(), int64(req.Limit))
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.Repo.CountDocuments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if users == nil {
		users = []*model.User{}
	}
	return &model.ListUsersResult{Users: users, Total: total}, nil
}

// GetUser returns nil, nil when no user has the id.
func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *Service) Health(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}
