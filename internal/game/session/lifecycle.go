package session

import (
	"context"
	"log"
	"math/rand/v2"
	"time"

	"github.com/palemoky/bingo-bonanza/internal/game/bingo"
	"github.com/palemoky/bingo-bonanza/internal/logger"
	"github.com/palemoky/bingo-bonanza/internal/network/protocol"
	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

// StartLobby 启动持续循环：进入大厅阶段并开始选卡倒计时
func (gs *GameSession) StartLobby() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.phase = PhaseLobby
	gs.timeRemaining = gs.cfg.LobbyCountdown
	gs.epoch++
	gs.armCountdown(gs.epoch)

	log.Printf("🏠 游戏 %s 进入大厅，选卡倒计时 %d 秒", gs.id, gs.timeRemaining)
}

// tickCountdown 选卡倒计时每秒触发一次
func (gs *GameSession) tickCountdown(epoch uint64) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.cancelled || epoch != gs.epoch || gs.phase != PhaseLobby {
		return
	}

	gs.timeRemaining--
	if gs.timeRemaining < 0 {
		gs.timeRemaining = 0
	}

	gs.broadcastRosterLocked(protocol.MustNewMessage(protocol.MsgSelectionTime, protocol.SelectionTimePayload{
		TimeRemaining: gs.timeRemaining,
	}))

	if gs.timeRemaining > 0 {
		gs.armCountdown(epoch)
		return
	}

	// 倒计时结束：人数不足时重开倒计时，否则开局
	if len(gs.players) < gs.cfg.MinPlayers {
		gs.timeRemaining = gs.cfg.LobbyCountdown
		gs.armCountdown(epoch)
		return
	}
	gs.startPlayingLocked()
}

// startPlayingLocked 大厅 → 进行中
// 先持久化扣费再广播开局，持久化失败则留在大厅重开倒计时
func (gs *GameSession) startPlayingLocked() {
	if gs.phase == PhasePlaying {
		return
	}

	// 扣费：只扣尚未扣过的玩家，保证重复触发不重复扣
	debits := make(map[string]int64)
	for _, p := range gs.players {
		if !p.FeeDeducted {
			debits[p.Username] = -gs.cfg.EntryFee
		}
	}
	if len(debits) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := gs.server.GetUserStore().CreditBatch(ctx, debits); err != nil {
			logger.LogError("游戏 %s 扣除入场费失败，退回大厅: %v", gs.id, err)
			gs.broadcastRosterLocked(protocol.NewErrorMessage(protocol.MsgGameError, protocol.ErrCodeStorage))
			gs.timeRemaining = gs.cfg.LobbyCountdown
			gs.epoch++
			gs.armCountdown(gs.epoch)
			return
		}
	}
	for _, p := range gs.players {
		if !p.FeeDeducted {
			p.FeeDeducted = true
			p.Balance -= gs.cfg.EntryFee
		}
	}

	gs.phase = PhasePlaying
	gs.epoch++
	gs.timeRemaining = 0
	gs.calledNumbers = nil
	gs.currentNumber = 0
	gs.prizePool = int64(len(gs.players)) * gs.cfg.EntryFee // 开局后奖池冻结

	// 洗出 1~75 的完整叫号序列
	gs.drawPool = make([]int, 75)
	for i := range gs.drawPool {
		gs.drawPool[i] = i + 1
	}
	rand.Shuffle(len(gs.drawPool), func(i, j int) {
		gs.drawPool[i], gs.drawPool[j] = gs.drawPool[j], gs.drawPool[i]
	})
	gs.drawIndex = 0

	log.Printf("🎮 游戏 %s 开局，%d 名玩家，奖池 %d", gs.id, len(gs.players), gs.prizePool)

	gs.broadcastRosterLocked(protocol.MustNewMessage(protocol.MsgGameStarted, gs.snapshotLocked("")))
	gs.broadcastStateLocked()
	gs.broadcastPlayerCountLocked()
	gs.armCallTimer(gs.epoch)
}

// tickCall 叫号定时器触发：号码叫完仍无人获胜则自动结算
func (gs *GameSession) tickCall(epoch uint64) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.cancelled || epoch != gs.epoch || gs.phase != PhasePlaying {
		return
	}

	if gs.drawIndex >= len(gs.drawPool) {
		log.Printf("📢 游戏 %s 号码已叫完，进入结算", gs.id)
		gs.finishRoundLocked()
		return
	}

	gs.callNumberLocked(gs.drawPool[gs.drawIndex])
	gs.drawIndex++
	gs.armCallTimer(epoch)
}

// callNumberLocked 记录并广播一个号码
func (gs *GameSession) callNumberLocked(n int) {
	gs.calledNumbers = append(gs.calledNumbers, n)
	gs.currentNumber = n

	gs.broadcastRosterLocked(protocol.MustNewMessage(protocol.MsgNumberCalled, protocol.NumberCalledPayload{
		Number:     n,
		AllNumbers: append([]int(nil), gs.calledNumbers...),
		CallIndex:  len(gs.calledNumbers),
	}))
	gs.broadcastPlayerCountLocked()
}

// finishRoundLocked 进行中 → 结算：找出赢家、分奖、归档，再定时重置
func (gs *GameSession) finishRoundLocked() {
	gs.phase = PhaseFinished
	gs.epoch++
	gs.stopTimers()

	winners := gs.findWinnersLocked()
	if len(winners) > 0 {
		gs.distributePrizesLocked(winners)
	} else {
		gs.broadcastRosterLocked(protocol.MustNewMessage(protocol.MsgNoWinners, protocol.NoWinnersPayload{
			Message: "本轮无人获胜",
		}))
		log.Printf("📊 游戏 %s 本轮无人获胜，奖池 %d 不滚存", gs.id, gs.prizePool)
	}
	gs.appendRoundLocked(winners)

	gs.broadcastStateLocked()
	gs.broadcastPlayerCountLocked()
	gs.armResetTimer(gs.epoch)
}

// findWinnersLocked 按加入顺序检出赢家，最多 MaxWinners 人
func (gs *GameSession) findWinnersLocked() []*PlayerState {
	var winners []*PlayerState
	for _, connID := range gs.joinOrder {
		p := gs.players[connID]
		if p == nil || !p.Ready {
			continue
		}
		if bingo.CheckPattern(p.Card, gs.calledNumbers) {
			p.HasBingo = true
			winners = append(winners, p)
			if len(winners) >= MaxWinners {
				break
			}
		}
	}
	return winners
}

// appendRoundLocked 归档本轮对局记录
func (gs *GameSession) appendRoundLocked(winners []*PlayerState) {
	names := make([]string, 0, len(winners))
	for _, w := range winners {
		names = append(names, w.Username)
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := gs.server.GetHistory().AppendRound(ctx, &types.RoundRecord{
		SessionID:   gs.id,
		PrizePool:   gs.prizePool,
		Winners:     names,
		PlayerCount: len(gs.players),
		Timestamp:   time.Now().Unix(),
	}); err != nil {
		log.Printf("⚠️ 归档游戏 %s 对局记录失败: %v", gs.id, err)
	}
}

// tickReset 结算展示结束后回到大厅
func (gs *GameSession) tickReset(epoch uint64) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.cancelled || epoch != gs.epoch || gs.phase != PhaseFinished {
		return
	}
	gs.resetRoundLocked()
}

// resetRoundLocked 结算 → 大厅：保留在场玩家，清空本轮状态
func (gs *GameSession) resetRoundLocked() {
	gs.phase = PhaseLobby
	gs.epoch++

	gs.calledNumbers = nil
	gs.currentNumber = 0
	gs.drawPool = nil
	gs.drawIndex = 0

	for _, p := range gs.players {
		p.Card = nil
		p.CardType = ""
		p.Ready = false
		p.HasBingo = false
		p.FeeDeducted = false
	}

	// 奖池按在场人数重算，上一轮余额不滚存
	gs.prizePool = int64(len(gs.players)) * gs.cfg.EntryFee
	gs.timeRemaining = gs.cfg.LobbyCountdown

	log.Printf("🔄 游戏 %s 重置，%d 名玩家留在大厅", gs.id, len(gs.players))

	gs.broadcastRosterLocked(protocol.MustNewMessage(protocol.MsgGameReset, gs.snapshotLocked("")))
	gs.broadcastStateLocked()
	gs.broadcastPlayerCountLocked()
	gs.armCountdown(gs.epoch)
}

// Cancel 终止会话（服务关闭时调用），不再接受任何定时器触发
func (gs *GameSession) Cancel() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.cancelled {
		return
	}
	gs.cancelled = true
	gs.epoch++
	gs.stopTimers()

	gs.broadcastRosterLocked(protocol.MustNewMessage(protocol.MsgGameCancelled, protocol.AdminMessagePayload{
		Message: "游戏已终止",
	}))
	log.Printf("🛑 游戏 %s 已终止", gs.id)
}

// --- 管理员操作 ---

// ForceStart 管理员强制开局，复用常规开局路径
func (gs *GameSession) ForceStart() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.phase != PhaseLobby {
		return types.ErrGameStarted
	}
	log.Printf("⚠️ 管理员强制开始游戏 %s", gs.id)
	gs.startPlayingLocked()
	if gs.phase != PhasePlaying {
		// 扣费持久化失败，开局被回退
		return types.ErrStorage
	}
	return nil
}

// ForceReset 管理员强制重置，进行中的一轮直接作废回到大厅
func (gs *GameSession) ForceReset() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	log.Printf("⚠️ 管理员强制重置游戏 %s", gs.id)
	gs.stopTimers()
	gs.resetRoundLocked()
	return nil
}

// ForceCallNumber 管理员手动叫号，号码从剩余序列中取出保证不重复
func (gs *GameSession) ForceCallNumber(n int) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.phase != PhasePlaying {
		return types.ErrClaimNotPlaying
	}
	if n < 1 || n > 75 {
		return types.ErrInvalidNumber
	}

	// 把目标号码换到剩余序列头部再走常规叫号，已叫过则无处可换
	found := false
	for i := gs.drawIndex; i < len(gs.drawPool); i++ {
		if gs.drawPool[i] == n {
			gs.drawPool[i], gs.drawPool[gs.drawIndex] = gs.drawPool[gs.drawIndex], gs.drawPool[i]
			found = true
			break
		}
	}
	if !found {
		return types.ErrInvalidNumber
	}

	log.Printf("⚠️ 管理员手动叫号 %d (游戏 %s)", n, gs.id)
	gs.callNumberLocked(gs.drawPool[gs.drawIndex])
	gs.drawIndex++
	return nil
}
