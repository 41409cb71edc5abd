package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

const (
	// Redis key 前缀
	userKeyPrefix  = "user:"
	phoneKeyPrefix = "phone:" // 手机号 → 用户名 唯一索引
)

// 预定义错误
var (
	ErrUserNotFound = types.ErrUserNotFound
	ErrUserExists   = errors.New("用户名已被注册")
	ErrPhoneTaken   = errors.New("手机号已被注册")
)

// UserStore 用户存储：每个用户一个 redis hash
// 字段: password / phone / balance / created_at
// 所有余额变动都是针对单 key 的原子写，批量变动走 TxPipeline 一次提交
type UserStore struct {
	redis *redis.Client
}

// NewUserStore 创建用户存储
func NewUserStore(client *redis.Client) *UserStore {
	return &UserStore{redis: client}
}

func userKey(username string) string {
	return userKeyPrefix + username
}

// Create 注册新用户
func (us *UserStore) Create(ctx context.Context, username, passwordHash, phone string, startingBalance int64) error {
	exists, err := us.redis.Exists(ctx, userKey(username)).Result()
	if err != nil {
		return err
	}
	if exists > 0 {
		return ErrUserExists
	}

	// 手机号唯一索引，SetNX 抢占失败说明已被占用
	ok, err := us.redis.SetNX(ctx, phoneKeyPrefix+phone, username, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrPhoneTaken
	}

	return us.redis.HSet(ctx, userKey(username), map[string]any{
		"password":   passwordHash,
		"phone":      phone,
		"balance":    startingBalance,
		"created_at": time.Now().Unix(),
	}).Err()
}

// Get 读取用户档案快照（不含密码）
func (us *UserStore) Get(ctx context.Context, username string) (*types.User, error) {
	fields, err := us.redis.HGetAll(ctx, userKey(username)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrUserNotFound
	}

	balance, _ := strconv.ParseInt(fields["balance"], 10, 64)
	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)

	return &types.User{
		Username:  username,
		Phone:     fields["phone"],
		Balance:   balance,
		CreatedAt: createdAt,
	}, nil
}

// PasswordHash 读取用户的密码哈希（登录校验用）
func (us *UserStore) PasswordHash(ctx context.Context, username string) (string, error) {
	hash, err := us.redis.HGet(ctx, userKey(username), "password").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return hash, nil
}

// FindByPhone 按手机号查找用户
func (us *UserStore) FindByPhone(ctx context.Context, phone string) (*types.User, error) {
	username, err := us.redis.Get(ctx, phoneKeyPrefix+phone).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return us.Get(ctx, username)
}

// AdjustBalance 调整余额并返回新值
// 写前先确认用户存在，HIncrBy 本身是单 key 原子操作
func (us *UserStore) AdjustBalance(ctx context.Context, username string, delta int64) (int64, error) {
	exists, err := us.redis.Exists(ctx, userKey(username)).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, ErrUserNotFound
	}
	return us.redis.HIncrBy(ctx, userKey(username), "balance", delta).Result()
}

// CreditBatch 在一次持久化写入中应用整批余额变动
// TxPipeline 以 MULTI/EXEC 提交，整批要么全部生效要么全部失败，
// 避免多赢家结算被并发写撕裂
func (us *UserStore) CreditBatch(ctx context.Context, credits map[string]int64) error {
	if len(credits) == 0 {
		return nil
	}

	pipe := us.redis.TxPipeline()
	for username, delta := range credits {
		pipe.HIncrBy(ctx, userKey(username), "balance", delta)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("批量余额写入失败: %w", err)
	}
	return nil
}

// ListUsers 列出全部用户（管理后台用）
func (us *UserStore) ListUsers(ctx context.Context) ([]*types.User, error) {
	var users []*types.User

	iter := us.redis.Scan(ctx, 0, userKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		username := iter.Val()[len(userKeyPrefix):]
		user, err := us.Get(ctx, username)
		if err != nil {
			continue
		}
		users = append(users, user)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
