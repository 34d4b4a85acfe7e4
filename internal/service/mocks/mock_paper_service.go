package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"paperapi/internal/model"
	"paperapi/internal/query"
	"paperapi/internal/service"
)

type MockPaperService struct {
	mock.Mock
}

func (m *MockPaperService) Upload(ctx context.Context, actor model.Actor, req service.UploadRequest) (*model.Paper, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Paper), args.Error(1)
}

func (m *MockPaperService) List(ctx context.Context, params query.Params, page query.PageRequest) (*service.PaperListResult, error) {
	args := m.Called(ctx, params, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaperListResult), args.Error(1)
}

func (m *MockPaperService) Get(ctx context.Context, id string) (*model.Paper, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Paper), args.Error(1)
}

func (m *MockPaperService) Download(ctx context.Context, id string) (*service.Download, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Download), args.Error(1)
}

func (m *MockPaperService) Delete(ctx context.Context, actor model.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockPaperService) Stats(ctx context.Context, actor model.Actor) (*model.Stats, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Stats), args.Error(1)
}
