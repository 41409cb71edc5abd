package session

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/bingo-bonanza/internal/logger"
	"github.com/palemoky/bingo-bonanza/internal/network/protocol"
	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

// 平台抽成比例（百分比）
const houseCutPercent = 20

// SplitPrize 拆分奖池：先抽成再平分，两次都向下取整，余数归平台沉淀
func SplitPrize(pool int64, winnerCount int) (houseCut, perWinner int64) {
	houseCut = pool * houseCutPercent / 100
	if winnerCount <= 0 {
		return houseCut, 0
	}
	perWinner = (pool - houseCut) / int64(winnerCount)
	return houseCut, perWinner
}

// distributePrizesLocked 给赢家发奖
// 先一次性持久化所有加款，成功后才同步缓存余额并广播结果
func (gs *GameSession) distributePrizesLocked(winners []*PlayerState) {
	houseCut, perWinner := SplitPrize(gs.prizePool, len(winners))

	credits := make(map[string]int64, len(winners))
	for _, w := range winners {
		credits[w.Username] = perWinner
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := gs.server.GetUserStore().CreditBatch(ctx, credits); err != nil {
		logger.LogError("游戏 %s 发奖失败: %v", gs.id, err)
		gs.broadcastRosterLocked(protocol.NewErrorMessage(protocol.MsgGameError, protocol.ErrCodeStorage))
		return
	}

	infos := make([]protocol.WinnerInfo, 0, len(winners))
	for _, w := range winners {
		w.Balance += perWinner
		infos = append(infos, protocol.WinnerInfo{Username: w.Username})

		if err := gs.server.GetHistory().AppendWinner(ctx, &types.Winner{
			ID:        uuid.New().String(),
			Username:  w.Username,
			Amount:    perWinner,
			SessionID: gs.id,
			Timestamp: time.Now().Unix(),
			Status:    "pending",
		}); err != nil {
			log.Printf("⚠️ 归档赢家 %s 记录失败: %v", w.Username, err)
		}

		if w.Client != nil {
			w.Client.SendMessage(protocol.MustNewMessage(protocol.MsgBalanceUpdate, protocol.BalanceUpdatePayload{
				Username: w.Username,
				Balance:  w.Balance,
			}))
		}
	}

	gs.broadcastRosterLocked(protocol.MustNewMessage(protocol.MsgWinnersAnnounced, protocol.WinnersAnnouncedPayload{
		Winners:        infos,
		PrizePool:      gs.prizePool,
		HouseCut:       houseCut,
		PrizePerWinner: perWinner,
	}))

	log.Printf("🏆 游戏 %s 结算：%d 名赢家各得 %d，平台抽成 %d", gs.id, len(winners), perWinner, houseCut)
}
