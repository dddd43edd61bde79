//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGame 实现 handler.GameService 的 mock
type MockGame struct {
	mock.Mock
}

func (m *MockGame) Join(ctx context.Context, connID, roomID, playerName string) error {
	args := m.Called(ctx, connID, roomID, playerName)
	return args.Error(0)
}

func (m *MockGame) Leave(ctx context.Context, connID string) error {
	args := m.Called(ctx, connID)
	return args.Error(0)
}

func (m *MockGame) StartRound(ctx context.Context, connID string) error {
	args := m.Called(ctx, connID)
	return args.Error(0)
}

func (m *MockGame) SubmitVote(ctx context.Context, connID, roundID, emotionID string) error {
	args := m.Called(ctx, connID, roundID, emotionID)
	return args.Error(0)
}

func (m *MockGame) RestartGame(ctx context.Context, connID string) error {
	args := m.Called(ctx, connID)
	return args.Error(0)
}

func (m *MockGame) RelayAudio(ctx context.Context, connID, data string) error {
	args := m.Called(ctx, connID, data)
	return args.Error(0)
}

func (m *MockGame) HandleDisconnect(ctx context.Context, connID string) error {
	args := m.Called(ctx, connID)
	return args.Error(0)
}
