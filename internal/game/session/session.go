package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/palemoky/bingo-bonanza/internal/config"
	"github.com/palemoky/bingo-bonanza/internal/game/bingo"
	"github.com/palemoky/bingo-bonanza/internal/network/protocol"
	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

// Phase 游戏阶段
type Phase int

const (
	PhaseLobby Phase = iota
	PhasePlaying
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	default:
		return "lobby"
	}
}

const (
	// MaxWinners 每轮最多平分奖池的人数
	MaxWinners = 2
	// 持久化写入超时
	persistTimeout = 3 * time.Second
)

// PlayerState 会话中的玩家
type PlayerState struct {
	ConnID      string
	Client      types.ClientInterface
	Username    string
	Phone       string
	Balance     int64 // 缓存余额，持久化成功后才同步
	Card        bingo.Card
	CardType    string
	Ready       bool // 是否已选卡
	HasBingo    bool
	FeeDeducted bool // 本轮入场费是否已扣
}

// GameSession 持续运转的游戏会话：大厅 → 进行中 → 结算 → 大厅
// 所有状态变更都在 mu 保护下串行执行，定时器回调通过 epoch 校验丢弃过期触发
type GameSession struct {
	id     string
	cfg    *config.GameConfig
	server types.ServerContext

	mu        sync.Mutex
	phase     Phase
	players   map[string]*PlayerState // key 为连接 ID
	joinOrder []string                // 按加入顺序排列的连接 ID

	calledNumbers []int
	currentNumber int // 0 表示本轮尚未叫号
	drawPool      []int
	drawIndex     int

	prizePool     int64
	timeRemaining int // 选卡倒计时剩余秒数

	cancelled bool
	epoch     uint64 // 每次阶段变更自增，旧定时器回调据此作废

	// 定时器
	timerMu        sync.Mutex
	countdownTimer *time.Timer
	callTimer      *time.Timer
	resetTimer     *time.Timer
}

// NewGameSession 创建游戏会话，调用 StartLobby 后开始循环
func NewGameSession(id string, cfg *config.GameConfig, server types.ServerContext) *GameSession {
	return &GameSession{
		id:      id,
		cfg:     cfg,
		server:  server,
		phase:   PhaseLobby,
		players: make(map[string]*PlayerState),
	}
}

// ID 返回会话 ID
func (gs *GameSession) ID() string {
	return gs.id
}

// EntryFee 返回入场费
func (gs *GameSession) EntryFee() int64 {
	return gs.cfg.EntryFee
}

// Phase 返回当前阶段
func (gs *GameSession) Phase() Phase {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.phase
}

// PlayerCount 返回当前玩家数
func (gs *GameSession) PlayerCount() int {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return len(gs.players)
}

// PrizePool 返回当前奖池
func (gs *GameSession) PrizePool() int64 {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.prizePool
}

// Join 玩家加入会话
func (gs *GameSession) Join(client types.ClientInterface, username string, entryFee int64) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.cancelled {
		return types.ErrGameNotFound
	}
	if entryFee != gs.cfg.EntryFee {
		return types.ErrEntryFeeMismatch
	}
	for _, p := range gs.players {
		if p.Username == username {
			return types.ErrAlreadyJoined
		}
	}
	if len(gs.players) >= gs.cfg.MaxPlayers {
		return types.ErrGameFull
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	user, err := gs.server.GetUserStore().Get(ctx, username)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return types.ErrUserNotFound
		}
		log.Printf("❌ 读取用户 %s 失败: %v", username, err)
		return types.ErrStorage
	}
	if user.Balance < gs.cfg.EntryFee {
		return types.ErrInsufficientBalance
	}

	connID := client.GetID()
	gs.players[connID] = &PlayerState{
		ConnID:   connID,
		Client:   client,
		Username: username,
		Phone:    user.Phone,
		Balance:  user.Balance,
	}
	gs.joinOrder = append(gs.joinOrder, connID)

	// 奖池开局时冻结，大厅阶段随人数浮动
	if gs.phase == PhaseLobby {
		gs.prizePool = int64(len(gs.players)) * gs.cfg.EntryFee
	}

	log.Printf("🎮 玩家 %s 加入游戏 %s (当前 %d 人)", username, gs.id, len(gs.players))

	gs.broadcastStateLocked()
	gs.broadcastPlayerCountLocked()
	return nil
}

// SelectCard 为玩家生成并绑定一张卡片，仅大厅阶段可用
func (gs *GameSession) SelectCard(connID, cardType string) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p, ok := gs.players[connID]
	if !ok {
		return types.ErrNotInGame
	}
	if gs.phase != PhaseLobby {
		return types.ErrGameStarted
	}

	profile := bingo.ProfileFor(cardType)
	p.Card = bingo.Generate(profile.Name)
	p.CardType = profile.Name
	p.Ready = true

	cardJSON, err := p.Card.MarshalJSON()
	if err != nil {
		return types.ErrStorage
	}
	p.Client.SendMessage(protocol.MustNewMessage(protocol.MsgCardGenerated, protocol.CardGeneratedPayload{
		Card:     cardJSON,
		CardType: p.CardType,
	}))

	log.Printf("✅ 玩家 %s 选卡完成 (%s)", p.Username, p.CardType)

	gs.broadcastStateLocked()
	return nil
}

// ClaimBingo 玩家宣告 Bingo，校验通过立即结算本轮
func (gs *GameSession) ClaimBingo(connID string) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.phase != PhasePlaying {
		return types.ErrClaimNotPlaying
	}
	p, ok := gs.players[connID]
	if !ok {
		return types.ErrNotInGame
	}
	if !bingo.ValidateShape(p.Card) {
		return types.ErrInvalidCard
	}
	if !bingo.CheckPattern(p.Card, gs.calledNumbers) {
		log.Printf("🚫 玩家 %s 的 Bingo 宣告无效", p.Username)
		return types.ErrInvalidClaim
	}

	p.HasBingo = true
	log.Printf("🎉 玩家 %s 宣告 Bingo 成功，进入结算", p.Username)
	gs.finishRoundLocked()
	return nil
}

// RemovePlayer 移除玩家（断线或主动退出）
// 大厅阶段已扣费的玩家退还入场费
func (gs *GameSession) RemovePlayer(connID string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	p, ok := gs.players[connID]
	if !ok {
		return
	}

	if gs.phase == PhaseLobby && p.FeeDeducted {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if _, err := gs.server.GetUserStore().AdjustBalance(ctx, p.Username, gs.cfg.EntryFee); err != nil {
			log.Printf("❌ 退还玩家 %s 入场费失败: %v", p.Username, err)
		}
	}

	delete(gs.players, connID)
	for i, id := range gs.joinOrder {
		if id == connID {
			gs.joinOrder = append(gs.joinOrder[:i], gs.joinOrder[i+1:]...)
			break
		}
	}

	// 进行中奖池已冻结，只在大厅阶段重算
	if gs.phase == PhaseLobby {
		gs.prizePool = int64(len(gs.players)) * gs.cfg.EntryFee
	}

	log.Printf("👋 玩家 %s 离开游戏 %s (剩余 %d 人)", p.Username, gs.id, len(gs.players))

	gs.broadcastStateLocked()
	gs.broadcastPlayerCountLocked()
}

// Snapshot 构造发给指定连接的游戏状态快照
// 其他玩家只暴露脱敏视图，本人视图携带卡片与余额
func (gs *GameSession) Snapshot(connID string) *protocol.GameStatePayload {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.snapshotLocked(connID)
}

func (gs *GameSession) snapshotLocked(connID string) *protocol.GameStatePayload {
	players := make(map[string]protocol.PlayerView, len(gs.players))
	for _, p := range gs.players {
		players[p.Username] = protocol.PlayerView{
			Username: p.Username,
			Phone:    p.Phone,
			CardType: p.CardType,
			Ready:    p.Ready,
			HasBingo: p.HasBingo,
		}
	}

	state := &protocol.GameStatePayload{
		ID:            gs.id,
		EntryFee:      gs.cfg.EntryFee,
		Players:       players,
		CalledNumbers: append([]int(nil), gs.calledNumbers...),
		CurrentNumber: gs.currentNumberLocked(),
		GameStatus:    gs.phase.String(),
		PrizePool:     gs.prizePool,
		MaxPlayers:    gs.cfg.MaxPlayers,
		MinPlayers:    gs.cfg.MinPlayers,
		TimeRemaining: gs.timeRemaining,
	}

	if p, ok := gs.players[connID]; ok {
		you := &protocol.SelfView{
			Username:    p.Username,
			Balance:     p.Balance,
			CardType:    p.CardType,
			Ready:       p.Ready,
			HasBingo:    p.HasBingo,
			FeeDeducted: p.FeeDeducted,
		}
		if p.Card != nil {
			if cardJSON, err := p.Card.MarshalJSON(); err == nil {
				you.Card = cardJSON
			}
		}
		state.You = you
	}
	return state
}

func (gs *GameSession) currentNumberLocked() *int {
	if gs.currentNumber == 0 {
		return nil
	}
	n := gs.currentNumber
	return &n
}

// broadcastStateLocked 给会话内每个玩家推送含本人视图的状态快照
func (gs *GameSession) broadcastStateLocked() {
	for _, connID := range gs.joinOrder {
		p := gs.players[connID]
		if p == nil || p.Client == nil {
			continue
		}
		p.Client.SendMessage(protocol.MustNewMessage(protocol.MsgGameStateUpdate, gs.snapshotLocked(connID)))
	}
}

// broadcastRosterLocked 给会话内所有玩家推送同一条消息
func (gs *GameSession) broadcastRosterLocked(msg *protocol.Message) {
	for _, connID := range gs.joinOrder {
		p := gs.players[connID]
		if p == nil || p.Client == nil {
			continue
		}
		p.Client.SendMessage(msg)
	}
}

// broadcastPlayerCountLocked 向全服广播大厅统计
func (gs *GameSession) broadcastPlayerCountLocked() {
	gs.server.Broadcast(protocol.MustNewMessage(protocol.MsgPlayerCountUpdate, protocol.PlayerCountPayload{
		GameID:        gs.id,
		PlayerCount:   len(gs.players),
		GameStatus:    gs.phase.String(),
		PrizePool:     gs.prizePool,
		TimeRemaining: gs.timeRemaining,
		CalledNumbers: append([]int(nil), gs.calledNumbers...),
		CurrentNumber: gs.currentNumberLocked(),
	}))
}
