package session

import (
	"sync"

	"github.com/palemoky/bingo-bonanza/internal/config"
	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

// DefaultGameID 默认的持续游戏 ID
const DefaultGameID = "main-room"

// Manager 游戏会话管理器
type Manager struct {
	cfg    *config.GameConfig
	server types.ServerContext

	mu    sync.RWMutex
	games map[string]*GameSession
}

// NewManager 创建会话管理器
func NewManager(cfg *config.GameConfig, server types.ServerContext) *Manager {
	return &Manager{
		cfg:    cfg,
		server: server,
		games:  make(map[string]*GameSession),
	}
}

// Create 创建一个会话并启动它的大厅循环，ID 已存在时返回现有会话
func (m *Manager) Create(id string) *GameSession {
	m.mu.Lock()
	if gs, ok := m.games[id]; ok {
		m.mu.Unlock()
		return gs
	}
	gs := NewGameSession(id, m.cfg, m.server)
	m.games[id] = gs
	m.mu.Unlock()

	gs.StartLobby()
	return gs
}

// Get 按 ID 查找会话，空 ID 回退到默认会话
func (m *Manager) Get(id string) *GameSession {
	if id == "" {
		id = DefaultGameID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.games[id]
}

// RemovePlayerEverywhere 把一个连接从所有会话里移除（断线清理）
func (m *Manager) RemovePlayerEverywhere(connID string) {
	m.mu.RLock()
	games := make([]*GameSession, 0, len(m.games))
	for _, gs := range m.games {
		games = append(games, gs)
	}
	m.mu.RUnlock()

	for _, gs := range games {
		gs.RemovePlayer(connID)
	}
}

// ActiveGames 返回正在叫号中的会话数
func (m *Manager) ActiveGames() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, gs := range m.games {
		if gs.Phase() == PhasePlaying {
			count++
		}
	}
	return count
}

// CancelAll 终止所有会话（服务关闭时调用）
func (m *Manager) CancelAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, gs := range m.games {
		gs.Cancel()
	}
}
