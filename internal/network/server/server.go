package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/bingo-bonanza/internal/config"
	"github.com/palemoky/bingo-bonanza/internal/game/session"
	"github.com/palemoky/bingo-bonanza/internal/network/protocol"
	"github.com/palemoky/bingo-bonanza/internal/network/server/core"
	"github.com/palemoky/bingo-bonanza/internal/network/server/handlers"
	"github.com/palemoky/bingo-bonanza/internal/network/server/storage"
	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 来源校验在 handleWebSocket 里做
	},
	EnableCompression: false,
}

// Server WebSocket 游戏服务器
type Server struct {
	config    *config.Config
	redis     *redis.Client
	userStore *storage.UserStore
	wallet    *storage.WalletStore
	history   *storage.History
	registry  *core.SessionRegistry
	games     *session.Manager
	handler   *handlers.Handler

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	rateLimiter   *RateLimiter
	originChecker *OriginChecker

	// 连接控制
	maxConnections int
	semaphore      chan struct{}
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	s := &Server{
		config:    cfg,
		redis:     rdb,
		userStore: storage.NewUserStore(rdb),
		wallet:    storage.NewWalletStore(rdb),
		history:   storage.NewHistory(rdb),
		registry:  core.NewSessionRegistry(cfg.Auth.SessionTTL()),
		clients:   make(map[string]*Client),
		rateLimiter: NewRateLimiter(
			cfg.Security.MaxConnPerSecond,
			cfg.Security.MaxConnPerMinute,
			cfg.Security.BanDuration(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	// 初始化会话管理器并启动默认的持续游戏
	s.games = session.NewManager(&cfg.Game, s)
	s.games.Create(session.DefaultGameID)

	// 初始化消息处理器
	s.handler = handlers.NewHandler(s, s.games)

	return s, nil
}

// Start 启动服务器
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/health", s.handleHealth)
	s.registerAPIRoutes()

	// 启动监控 goroutine
	go s.monitorStats()

	log.Printf("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	server := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		IdleTimeout:       60 * time.Second,
	}
	return server.ListenAndServe()
}

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	// 连接数限制
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Printf("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, clientIP)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	// 来源验证
	if !s.originChecker.Check(r) {
		<-s.semaphore
		log.Printf("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), clientIP)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	// 速率限制
	if !s.rateLimiter.Allow(clientIP) {
		<-s.semaphore
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)

	log.Printf("✅ 客户端 %s (IP: %s) 已连接", client.ID, clientIP)

	// 新连接立即收到一次大厅统计
	if gs := s.games.Get(session.DefaultGameID); gs != nil {
		client.SendMessage(protocol.MustNewMessage(protocol.MsgGameStateUpdate, gs.Snapshot(client.ID)))
	}

	go client.ReadPump()
	go client.WritePump()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端并释放连接名额
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		<-s.semaphore
		log.Printf("❌ 客户端 %s 已断开", client.ID)
	}
}

// GetOnlineCount 获取在线人数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcast 广播消息给所有客户端
func (s *Server) Broadcast(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		client.SendMessage(msg)
	}
}

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Printf("📊 [监控] 在线: %d | Goroutines: %d | 活跃连接: %d/%d | 进行中游戏: %d | 内存: %.2f MB",
			s.GetOnlineCount(),
			runtime.NumGoroutine(),
			len(s.semaphore),
			s.maxConnections,
			s.games.ActiveGames(),
			float64(m.Alloc)/1024/1024)
	}
}

// Shutdown 关闭服务器：终止所有游戏、断开所有客户端、关闭 Redis
func (s *Server) Shutdown() {
	s.games.CancelAll()

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	_ = s.redis.Close()

	log.Println("服务器已关闭")
}

// Interface implementations for types.ServerContext
func (s *Server) GetUserStore() types.UserStoreInterface { return s.userStore }
func (s *Server) GetHistory() types.HistoryInterface     { return s.history }
func (s *Server) GetRegistry() types.RegistryInterface   { return s.registry }
