package guild

import (
	"context"
	"fmt"
)

type Service interface {
	Get(ctx context.Context, id string) (Guild, error)
	SetUTCOffset(ctx context.Context, id string, offset int) (Guild, error)
}

type ServiceImpl struct {
	repo Repo
}

func NewService(repo Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Guild, error) {
	g, err := s.repo.FindOrCreate(ctx, id)
	if err != nil {
		return Guild{}, fmt.Errorf("failed to get guild: %w", err)
	}
	return g, nil
}

// SetUTCOffset updates the guild timezone, creating the guild row first if
// this is the first time the guild is seen.
func (s *ServiceImpl) SetUTCOffset(ctx context.Context, id string, offset int) (Guild, error) {
	if _, err := s.repo.FindOrCreate(ctx, id); err != nil {
		return Guild{}, fmt.Errorf("failed to get guild: %w", err)
	}
	if err := s.repo.SetUTCOffset(ctx, id, offset); err != nil {
		return Guild{}, fmt.Errorf("failed to update guild timezone: %w", err)
	}
	return Guild{ID: id, UTCOffset: offset}, nil
}
