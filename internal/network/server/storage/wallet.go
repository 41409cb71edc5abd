package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	depositRequestsKey    = "requests:deposit"
	withdrawalRequestsKey = "requests:withdrawal"
)

// 充值/提现请求状态
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// ErrRequestNotFound 请求记录不存在
var ErrRequestNotFound = errors.New("请求记录不存在")

// WalletRequest 充值/提现请求记录
type WalletRequest struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Amount        int64  `json:"amount"`
	Bank          string `json:"bank"`
	Reference     string `json:"reference,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	AccountName   string `json:"accountName,omitempty"`
	Status        string `json:"status"`
	CreatedAt     int64  `json:"createdAt"`
	ResolvedAt    int64  `json:"resolvedAt,omitempty"`
}

// WalletStore 充值/提现请求存储：redis hash，field 为请求 ID
// 余额本身的变动由 UserStore 负责，这里只记录审批流水
type WalletStore struct {
	redis *redis.Client
}

// NewWalletStore 创建钱包请求存储
func NewWalletStore(client *redis.Client) *WalletStore {
	return &WalletStore{redis: client}
}

func requestsKey(withdrawal bool) string {
	if withdrawal {
		return withdrawalRequestsKey
	}
	return depositRequestsKey
}

// Append 追加一条待审批请求
func (ws *WalletStore) Append(ctx context.Context, req *WalletRequest, withdrawal bool) error {
	req.Status = RequestPending
	req.CreatedAt = time.Now().Unix()

	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return ws.redis.HSet(ctx, requestsKey(withdrawal), req.ID, data).Err()
}

// List 列出全部请求（管理后台用）
func (ws *WalletStore) List(ctx context.Context, withdrawal bool) ([]*WalletRequest, error) {
	items, err := ws.redis.HVals(ctx, requestsKey(withdrawal)).Result()
	if err != nil {
		return nil, err
	}

	requests := make([]*WalletRequest, 0, len(items))
	for _, item := range items {
		var req WalletRequest
		if err := json.Unmarshal([]byte(item), &req); err != nil {
			continue
		}
		requests = append(requests, &req)
	}
	return requests, nil
}

// Resolve 审批请求并返回更新后的记录
// 余额补偿（通过充值、驳回提现退款）由调用方基于返回值执行
func (ws *WalletStore) Resolve(ctx context.Context, requestID, status string, withdrawal bool) (*WalletRequest, error) {
	key := requestsKey(withdrawal)

	data, err := ws.redis.HGet(ctx, key, requestID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	var req WalletRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return nil, err
	}

	req.Status = status
	req.ResolvedAt = time.Now().Unix()

	updated, err := json.Marshal(&req)
	if err != nil {
		return nil, err
	}
	if err := ws.redis.HSet(ctx, key, requestID, updated).Err(); err != nil {
		return nil, err
	}
	return &req, nil
}
