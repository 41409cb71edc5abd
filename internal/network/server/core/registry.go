package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// 清理周期
	cleanupInterval = 1 * time.Minute
)

// UserSession 登录会话记录
type UserSession struct {
	SessionID    string
	Username     string
	IsAdmin      bool
	CreatedAt    time.Time
	LastActivity time.Time // 每次校验成功时刷新

	mu sync.RWMutex
}

// SessionRegistry 用户会话注册表
// 进程内唯一实例，在启动时构造并显式传给需要它的组件
type SessionRegistry struct {
	sessions map[string]*UserSession // sessionID -> session
	ttl      time.Duration
	mu       sync.RWMutex
}

// NewSessionRegistry 创建会话注册表
func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	sr := &SessionRegistry{
		sessions: make(map[string]*UserSession),
		ttl:      ttl,
	}

	// 启动会话清理协程
	go sr.cleanupLoop()

	return sr
}

// Create 登录成功后签发新会话
func (sr *SessionRegistry) Create(username string, isAdmin bool) string {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	sessionID := uuid.New().String()
	now := time.Now()
	sr.sessions[sessionID] = &UserSession{
		SessionID:    sessionID,
		Username:     username,
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		LastActivity: now,
	}
	return sessionID
}

// Validate 校验凭证对，成功时刷新活跃时间
// 过期会话在校验时顺手删除
func (sr *SessionRegistry) Validate(sessionID, username string) bool {
	if sessionID == "" || username == "" {
		return false
	}

	sr.mu.RLock()
	session, ok := sr.sessions[sessionID]
	sr.mu.RUnlock()
	if !ok {
		return false
	}

	session.mu.Lock()
	if session.Username != username {
		session.mu.Unlock()
		return false
	}
	expired := time.Since(session.LastActivity) > sr.ttl
	if !expired {
		session.LastActivity = time.Now()
	}
	session.mu.Unlock()

	if expired {
		sr.Revoke(sessionID)
		return false
	}
	return true
}

// ValidateAdmin 校验管理员凭证对
func (sr *SessionRegistry) ValidateAdmin(sessionID, username string) bool {
	if !sr.Validate(sessionID, username) {
		return false
	}

	sr.mu.RLock()
	session, ok := sr.sessions[sessionID]
	sr.mu.RUnlock()
	if !ok {
		return false
	}

	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.IsAdmin
}

// Revoke 注销会话
func (sr *SessionRegistry) Revoke(sessionID string) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	delete(sr.sessions, sessionID)
}

// Count 当前会话数量
func (sr *SessionRegistry) Count() int {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return len(sr.sessions)
}

// cleanupLoop 定期清理过期会话
func (sr *SessionRegistry) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		sr.cleanup()
	}
}

// cleanup 清理过期会话
func (sr *SessionRegistry) cleanup() {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	now := time.Now()
	for sessionID, session := range sr.sessions {
		session.mu.RLock()
		expired := now.Sub(session.LastActivity) > sr.ttl
		session.mu.RUnlock()

		if expired {
			delete(sr.sessions, sessionID)
		}
	}
}
