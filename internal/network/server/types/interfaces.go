package types

import (
	"context"

	"github.com/palemoky/bingo-bonanza/internal/network/protocol"
)

// ServerContext 服务器上下文接口 - 避免循环依赖
type ServerContext interface {
	GetUserStore() UserStoreInterface
	GetHistory() HistoryInterface
	GetRegistry() RegistryInterface
	Broadcast(msg *protocol.Message)
}

// User 用户档案（从持久层读出的快照）
type User struct {
	Username  string `json:"username"`
	Phone     string `json:"phone"`
	Balance   int64  `json:"balance"`
	CreatedAt int64  `json:"created_at"`
}

// UserStoreInterface 用户存储接口
type UserStoreInterface interface {
	Get(ctx context.Context, username string) (*User, error)
	AdjustBalance(ctx context.Context, username string, delta int64) (int64, error)
	// CreditBatch 在一次持久化写入中应用整批余额变动
	CreditBatch(ctx context.Context, credits map[string]int64) error
}

// Winner 赢家记录（追加写入，仅 Status 可被审批动作修改）
type Winner struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Amount    int64  `json:"amount"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	Status    string `json:"status"` // pending / paid
}

// RoundRecord 每轮游戏的归档记录
type RoundRecord struct {
	SessionID   string   `json:"sessionId"`
	PrizePool   int64    `json:"prizePool"`
	Winners     []string `json:"winners"`
	PlayerCount int      `json:"playerCount"`
	Timestamp   int64    `json:"timestamp"`
}

// HistoryInterface 赢家与对局历史接口
type HistoryInterface interface {
	AppendWinner(ctx context.Context, w *Winner) error
	AppendRound(ctx context.Context, r *RoundRecord) error
}

// RegistryInterface 用户会话校验接口
type RegistryInterface interface {
	Validate(sessionID, username string) bool
	ValidateAdmin(sessionID, username string) bool
}

// ClientInterface 客户端接口
type ClientInterface interface {
	GetID() string
	GetUsername() string
	SetUsername(name string)
	SendMessage(msg *protocol.Message)
	Close()
}

// GameError 游戏错误
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrGameNotFound        = &GameError{Code: protocol.ErrCodeGameNotFound, Message: "游戏不存在"}
	ErrAlreadyJoined       = &GameError{Code: protocol.ErrCodeAlreadyJoined, Message: "您已在游戏中"}
	ErrGameFull            = &GameError{Code: protocol.ErrCodeGameFull, Message: "游戏人数已满"}
	ErrNotInGame           = &GameError{Code: protocol.ErrCodeNotInGame, Message: "您不在游戏中"}
	ErrInsufficientBalance = &GameError{Code: protocol.ErrCodeInsufficientBalance, Message: "余额不足"}
	ErrEntryFeeMismatch    = &GameError{Code: protocol.ErrCodeEntryFeeMismatch, Message: "入场费不匹配"}
	ErrInvalidCard         = &GameError{Code: protocol.ErrCodeInvalidCard, Message: "卡片结构无效"}
	ErrInvalidClaim        = &GameError{Code: protocol.ErrCodeInvalidClaim, Message: "无效的 Bingo 宣告"}
	ErrClaimNotPlaying     = &GameError{Code: protocol.ErrCodeClaimNotPlaying, Message: "游戏不在叫号阶段"}
	ErrInvalidNumber       = &GameError{Code: protocol.ErrCodeInvalidNumber, Message: "无效的号码"}
	ErrUserNotFound        = &GameError{Code: protocol.ErrCodeUserNotFound, Message: "用户不存在"}
	ErrGameStarted         = &GameError{Code: protocol.ErrCodeGameStarted, Message: "游戏已开始"}
	ErrStorage             = &GameError{Code: protocol.ErrCodeStorage, Message: "服务器内部错误"}
)
