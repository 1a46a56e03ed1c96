package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lizhongyi/aqiang-chat/internal/rabbitmq"
	"github.com/lizhongyi/aqiang-chat/internal/storage"
)

type SessionStoreMock struct {
	mock.Mock
}

func (m *SessionStoreMock) SaveSession(ctx context.Context, snap storage.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *SessionStoreMock) DeleteSession(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *SessionStoreMock) PurgeStale(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event rabbitmq.Event) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
