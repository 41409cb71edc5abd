package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
// 事件名沿用原 Web 客户端的命名（kebab-case），保持线上协议兼容
const (
	// 游戏操作
	MsgJoinGame         MessageType = "join-game"          // 加入持续游戏
	MsgSelectCard       MessageType = "select-card"        // 选择卡片
	MsgClaimBingo       MessageType = "claim-bingo"        // 宣告 Bingo
	MsgRequestGameState MessageType = "request-game-state" // 请求游戏状态快照

	// 管理员操作
	MsgAdminResetGame  MessageType = "admin-reset-game"  // 强制重置游戏
	MsgAdminCallNumber MessageType = "admin-call-number" // 手动叫号
	MsgAdminStartGame  MessageType = "admin-start-game"  // 跳过倒计时直接开始
)

// 服务端 → 客户端 消息类型
const (
	// 游戏状态
	MsgGameStateUpdate   MessageType = "game-state-update"          // 游戏状态更新（脱敏后）
	MsgPlayerCountUpdate MessageType = "player-count-update"        // 全服大厅统计
	MsgSelectionTime     MessageType = "card-selection-time-update" // 选卡倒计时
	MsgCardGenerated     MessageType = "card-generated"             // 卡片生成结果

	// 游戏流程
	MsgGameStarted      MessageType = "game-started"      // 开始叫号
	MsgNumberCalled     MessageType = "number-called"     // 叫出新号码
	MsgWinnersAnnounced MessageType = "winners-announced" // 公布赢家
	MsgNoWinners        MessageType = "no-winners"        // 本轮无人获胜
	MsgGameReset        MessageType = "game-reset"        // 游戏重置进入新一轮
	MsgGameCancelled    MessageType = "game-cancelled"    // 游戏被取消（停服）

	// 钱包
	MsgBalanceUpdate MessageType = "balance-update" // 余额变动通知

	// 错误
	MsgJoinError          MessageType = "join-error"           // 加入失败
	MsgCardSelectionError MessageType = "card-selection-error" // 选卡失败
	MsgBingoInvalid       MessageType = "bingo-invalid"        // 无效的 Bingo 宣告
	MsgAdminError         MessageType = "admin-error"          // 管理员操作失败
	MsgAdminMessage       MessageType = "admin-message"        // 管理员操作结果
	MsgGameError          MessageType = "game-error"           // 通用游戏错误
)

// Credentials 会话凭证，所有入站消息都必须携带
type Credentials struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
}

// --- 客户端请求 Payloads ---

// JoinGamePayload 加入游戏请求
type JoinGamePayload struct {
	Credentials
	GameID   string `json:"gameId"`
	EntryFee int64  `json:"entryFee"`
}

// SelectCardPayload 选卡请求
type SelectCardPayload struct {
	Credentials
	GameID   string `json:"gameId"`
	CardType string `json:"cardType"`
}

// ClaimBingoPayload Bingo 宣告请求
type ClaimBingoPayload struct {
	Credentials
	GameID string `json:"gameId"`
}

// RequestGameStatePayload 状态快照请求
type RequestGameStatePayload struct {
	Credentials
	GameID string `json:"gameId"`
}

// AdminCallNumberPayload 管理员手动叫号请求
type AdminCallNumberPayload struct {
	Credentials
	Number int `json:"number"`
}

// AdminActionPayload 管理员重置/开始请求
type AdminActionPayload struct {
	Credentials
}

// --- 服务端响应 Payloads ---

// PlayerView 脱敏后的玩家信息，绝不携带卡片和余额
type PlayerView struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
	CardType string `json:"cardType"`
	Ready    bool   `json:"ready"`
	HasBingo bool   `json:"hasBingo"`
}

// SelfView 请求者本人的完整视图
type SelfView struct {
	Username    string          `json:"username"`
	Balance     int64           `json:"balance"`
	Card        json.RawMessage `json:"card,omitempty"`
	CardType    string          `json:"cardType"`
	Ready       bool            `json:"ready"`
	HasBingo    bool            `json:"hasBingo"`
	FeeDeducted bool            `json:"feeDeducted"`
}

// GameStatePayload 脱敏后的游戏状态
type GameStatePayload struct {
	ID            string                `json:"id"`
	EntryFee      int64                 `json:"entryFee"`
	Players       map[string]PlayerView `json:"players"`
	CalledNumbers []int                 `json:"calledNumbers"`
	CurrentNumber *int                  `json:"currentNumber"`
	GameStatus    string                `json:"gameStatus"`
	PrizePool     int64                 `json:"prizePool"`
	MaxPlayers    int                   `json:"maxPlayers"`
	MinPlayers    int                   `json:"minPlayers"`
	TimeRemaining int                   `json:"timeRemaining"`
	You           *SelfView             `json:"you,omitempty"`
}

// PlayerCountPayload 全服大厅统计（广播给所有连接）
type PlayerCountPayload struct {
	GameID        string `json:"gameId"`
	PlayerCount   int    `json:"playerCount"`
	GameStatus    string `json:"gameStatus"`
	PrizePool     int64  `json:"prizePool"`
	TimeRemaining int    `json:"timeRemaining"`
	CalledNumbers []int  `json:"calledNumbers"`
	CurrentNumber *int   `json:"currentNumber"`
}

// SelectionTimePayload 选卡倒计时通知
type SelectionTimePayload struct {
	TimeRemaining int `json:"timeRemaining"`
}

// CardGeneratedPayload 卡片生成结果
type CardGeneratedPayload struct {
	Card     json.RawMessage `json:"card"`
	CardType string          `json:"cardType"`
}

// NumberCalledPayload 叫号通知
type NumberCalledPayload struct {
	Number     int   `json:"number"`
	AllNumbers []int `json:"allNumbers"`
	CallIndex  int   `json:"callIndex"`
}

// WinnerInfo 赢家信息
type WinnerInfo struct {
	Username string `json:"username"`
}

// WinnersAnnouncedPayload 公布赢家通知
type WinnersAnnouncedPayload struct {
	Winners        []WinnerInfo `json:"winners"`
	PrizePool      int64        `json:"prizePool"`
	HouseCut       int64        `json:"houseCut"`
	PrizePerWinner int64        `json:"prizePerWinner"`
}

// NoWinnersPayload 无人获胜通知
type NoWinnersPayload struct {
	Message string `json:"message"`
}

// BalanceUpdatePayload 余额变动通知
type BalanceUpdatePayload struct {
	Username string `json:"username"`
	Balance  int64  `json:"balance"`
}

// AdminMessagePayload 管理员操作结果
type AdminMessagePayload struct {
	Message string `json:"message"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// --- 错误码 ---
const (
	ErrCodeUnknown             = 1000
	ErrCodeInvalidMsg          = 1001
	ErrCodeInvalidSession      = 1002
	ErrCodeGameNotFound        = 2001
	ErrCodeAlreadyJoined       = 2002
	ErrCodeGameFull            = 2003
	ErrCodeNotInGame           = 2004
	ErrCodeInsufficientBalance = 2005
	ErrCodeEntryFeeMismatch    = 2006
	ErrCodeUserNotFound        = 2007
	ErrCodeGameStarted         = 2008
	ErrCodeInvalidCard         = 3001
	ErrCodeInvalidClaim        = 3002
	ErrCodeClaimNotPlaying     = 3003
	ErrCodeInvalidNumber       = 3004
	ErrCodeAdminRequired       = 4001
	ErrCodeStorage             = 5001
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:             "未知错误",
	ErrCodeInvalidMsg:          "无效的消息格式",
	ErrCodeInvalidSession:      "会话无效或已过期",
	ErrCodeGameNotFound:        "游戏不存在",
	ErrCodeAlreadyJoined:       "您已在游戏中",
	ErrCodeGameFull:            "游戏人数已满",
	ErrCodeNotInGame:           "您不在游戏中",
	ErrCodeInsufficientBalance: "余额不足",
	ErrCodeEntryFeeMismatch:    "入场费不匹配",
	ErrCodeUserNotFound:        "用户不存在",
	ErrCodeGameStarted:         "游戏已开始",
	ErrCodeInvalidCard:         "卡片结构无效",
	ErrCodeInvalidClaim:        "无效的 Bingo 宣告",
	ErrCodeClaimNotPlaying:     "游戏不在叫号阶段",
	ErrCodeInvalidNumber:       "无效的号码",
	ErrCodeAdminRequired:       "需要管理员权限",
	ErrCodeStorage:             "服务器内部错误",
}
