package session

import (
	"context"
	"errors"
	"sync"

	"github.com/palemoky/bingo-bonanza/internal/config"
	"github.com/palemoky/bingo-bonanza/internal/network/protocol"
	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

// --- fakeUserStore ---

type fakeUserStore struct {
	mu        sync.Mutex
	users     map[string]*types.User
	failBatch bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*types.User)}
}

func (f *fakeUserStore) addUser(username string, balance int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = &types.User{Username: username, Phone: "0912345678", Balance: balance}
}

func (f *fakeUserStore) balance(username string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[username].Balance
}

func (f *fakeUserStore) Get(_ context.Context, username string) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) AdjustBalance(_ context.Context, username string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return 0, types.ErrUserNotFound
	}
	u.Balance += delta
	return u.Balance, nil
}

func (f *fakeUserStore) CreditBatch(_ context.Context, credits map[string]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBatch {
		return errors.New("storage down")
	}
	for username, delta := range credits {
		if u, ok := f.users[username]; ok {
			u.Balance += delta
		}
	}
	return nil
}

// --- fakeHistory ---

type fakeHistory struct {
	mu      sync.Mutex
	winners []*types.Winner
	rounds  []*types.RoundRecord
}

func (f *fakeHistory) AppendWinner(_ context.Context, w *types.Winner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.winners = append(f.winners, w)
	return nil
}

func (f *fakeHistory) AppendRound(_ context.Context, r *types.RoundRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds = append(f.rounds, r)
	return nil
}

// --- fakeRegistry ---

type fakeRegistry struct{}

func (fakeRegistry) Validate(_, _ string) bool      { return true }
func (fakeRegistry) ValidateAdmin(_, _ string) bool { return true }

// --- fakeServer ---

type fakeServer struct {
	store   *fakeUserStore
	history *fakeHistory

	mu         sync.Mutex
	broadcasts []*protocol.Message
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		store:   newFakeUserStore(),
		history: &fakeHistory{},
	}
}

func (f *fakeServer) GetUserStore() types.UserStoreInterface { return f.store }
func (f *fakeServer) GetHistory() types.HistoryInterface     { return f.history }
func (f *fakeServer) GetRegistry() types.RegistryInterface   { return fakeRegistry{} }

func (f *fakeServer) Broadcast(msg *protocol.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, msg)
}

// --- fakeClient ---

type fakeClient struct {
	id       string
	username string

	mu   sync.Mutex
	msgs []*protocol.Message
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id}
}

func (c *fakeClient) GetID() string        { return c.id }
func (c *fakeClient) GetUsername() string  { return c.username }
func (c *fakeClient) SetUsername(n string) { c.username = n }
func (c *fakeClient) Close()               {}

func (c *fakeClient) SendMessage(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

// received 按类型统计收到的消息
func (c *fakeClient) received(msgType protocol.MessageType) []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*protocol.Message
	for _, m := range c.msgs {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

// --- 测试构造 ---

// 定时器间隔放大，测试过程中不会自行触发
func testGameConfig() *config.GameConfig {
	return &config.GameConfig{
		EntryFee:       10,
		MaxPlayers:     3,
		MinPlayers:     1,
		LobbyCountdown: 60,
		CallInterval:   60,
		ResetDelay:     60,
	}
}

func newTestSession() (*GameSession, *fakeServer) {
	srv := newFakeServer()
	gs := NewGameSession("test-room", testGameConfig(), srv)
	return gs, srv
}
