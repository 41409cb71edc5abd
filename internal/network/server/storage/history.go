package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

const (
	winnersKey = "winners:history"
	roundsKey  = "games:history"
)

// ErrWinnerNotFound 赢家记录不存在
var ErrWinnerNotFound = errors.New("赢家记录不存在")

// 赢家记录的派彩状态
const (
	PayoutPending = "pending"
	PayoutPaid    = "paid"
)

// History 赢家与对局历史：redis list 追加写
// 赢家记录除派彩审批外不可变更
type History struct {
	redis *redis.Client
}

// NewHistory 创建历史存储
func NewHistory(client *redis.Client) *History {
	return &History{redis: client}
}

// AppendWinner 追加赢家记录
func (h *History) AppendWinner(ctx context.Context, w *types.Winner) error {
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return h.redis.LPush(ctx, winnersKey, data).Err()
}

// AppendRound 追加对局归档
func (h *History) AppendRound(ctx context.Context, r *types.RoundRecord) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return h.redis.LPush(ctx, roundsKey, data).Err()
}

// ListWinners 按时间倒序列出赢家记录
func (h *History) ListWinners(ctx context.Context, limit int64) ([]*types.Winner, error) {
	items, err := h.redis.LRange(ctx, winnersKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	winners := make([]*types.Winner, 0, len(items))
	for _, item := range items {
		var w types.Winner
		if err := json.Unmarshal([]byte(item), &w); err != nil {
			continue
		}
		winners = append(winners, &w)
	}
	return winners, nil
}

// ListRounds 按时间倒序列出对局归档
func (h *History) ListRounds(ctx context.Context, limit int64) ([]*types.RoundRecord, error) {
	items, err := h.redis.LRange(ctx, roundsKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	rounds := make([]*types.RoundRecord, 0, len(items))
	for _, item := range items {
		var r types.RoundRecord
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			continue
		}
		rounds = append(rounds, &r)
	}
	return rounds, nil
}

// ApprovePayout 审批派彩：pending → paid
// 这是赢家记录唯一允许的变更
func (h *History) ApprovePayout(ctx context.Context, winnerID string) error {
	items, err := h.redis.LRange(ctx, winnersKey, 0, -1).Result()
	if err != nil {
		return err
	}

	for i, item := range items {
		var w types.Winner
		if err := json.Unmarshal([]byte(item), &w); err != nil {
			continue
		}
		if w.ID != winnerID {
			continue
		}

		w.Status = PayoutPaid
		data, err := json.Marshal(&w)
		if err != nil {
			return err
		}
		return h.redis.LSet(ctx, winnersKey, int64(i), data).Err()
	}
	return ErrWinnerNotFound
}

// NewWinner 构造一条待派彩的赢家记录
func NewWinner(id, username, sessionID string, amount int64) *types.Winner {
	return &types.Winner{
		ID:        id,
		Username:  username,
		Amount:    amount,
		SessionID: sessionID,
		Timestamp: time.Now().Unix(),
		Status:    PayoutPending,
	}
}
