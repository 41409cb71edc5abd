package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/bingo-bonanza/internal/config"
	"github.com/palemoky/bingo-bonanza/internal/game/session"
	"github.com/palemoky/bingo-bonanza/internal/network/protocol"
	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

// --- MockClient ---

type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetUsername() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetUsername(name string) {
	m.Called(name)
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Called(msg)
}

func (m *MockClient) Close() {
	m.Called()
}

// --- MockServer ---

type MockServer struct {
	mock.Mock
}

func (m *MockServer) GetUserStore() types.UserStoreInterface {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(types.UserStoreInterface)
}

func (m *MockServer) GetHistory() types.HistoryInterface {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(types.HistoryInterface)
}

func (m *MockServer) GetRegistry() types.RegistryInterface {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(types.RegistryInterface)
}

func (m *MockServer) Broadcast(msg *protocol.Message) {
	m.Called(msg)
}

// --- MockRegistry ---

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Validate(sessionID, username string) bool {
	args := m.Called(sessionID, username)
	return args.Bool(0)
}

func (m *MockRegistry) ValidateAdmin(sessionID, username string) bool {
	args := m.Called(sessionID, username)
	return args.Bool(0)
}

// --- MockUserStore ---

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Get(ctx context.Context, username string) (*types.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserStore) AdjustBalance(ctx context.Context, username string, delta int64) (int64, error) {
	args := m.Called(ctx, username, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserStore) CreditBatch(ctx context.Context, credits map[string]int64) error {
	args := m.Called(ctx, credits)
	return args.Error(0)
}

// --- MockHistory ---

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) AppendWinner(ctx context.Context, w *types.Winner) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockHistory) AppendRound(ctx context.Context, r *types.RoundRecord) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// --- Helper Functions ---

// newTestHandler builds a handler over a real session manager with
// timers long enough to stay silent during a test run.
func newTestHandler(server types.ServerContext) (*Handler, *session.Manager) {
	cfg := &config.GameConfig{
		EntryFee:       10,
		MaxPlayers:     5,
		MinPlayers:     1,
		LobbyCountdown: 60,
		CallInterval:   60,
		ResetDelay:     60,
	}
	games := session.NewManager(cfg, server)
	return NewHandler(server, games), games
}

// errorCodeMatcher matches an error message of the given type and code.
func errorCodeMatcher(msgType protocol.MessageType, code int) func(msg *protocol.Message) bool {
	return func(msg *protocol.Message) bool {
		if msg.Type != msgType {
			return false
		}
		payload, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
		return err == nil && payload.Code == code
	}
}
