package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"paperapi/internal/storage"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, r io.Reader, originalName, contentType string, size int64) (storage.StoredRef, error) {
	args := m.Called(ctx, r, originalName, contentType, size)
	return args.Get(0).(storage.StoredRef), args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, path string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockStore) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}
