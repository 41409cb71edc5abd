package handlers

import (
	"errors"
	"log"

	"github.com/palemoky/bingo-bonanza/internal/game/session"
	"github.com/palemoky/bingo-bonanza/internal/network/protocol"
	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

// Handler 消息处理器
type Handler struct {
	server types.ServerContext
	games  *session.Manager
}

// NewHandler 创建处理器
func NewHandler(s types.ServerContext, games *session.Manager) *Handler {
	return &Handler{server: s, games: games}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	switch msg.Type {
	// 游戏操作
	case protocol.MsgJoinGame:
		h.handleJoinGame(client, msg)
	case protocol.MsgSelectCard:
		h.handleSelectCard(client, msg)
	case protocol.MsgClaimBingo:
		h.handleClaimBingo(client, msg)
	case protocol.MsgRequestGameState:
		h.handleRequestGameState(client, msg)

	// 管理员操作
	case protocol.MsgAdminResetGame:
		h.handleAdminReset(client, msg)
	case protocol.MsgAdminCallNumber:
		h.handleAdminCallNumber(client, msg)
	case protocol.MsgAdminStartGame:
		h.handleAdminStart(client, msg)

	default:
		log.Printf("⚠️  未知消息类型: '%s' (连接 ID: %s)", msg.Type, client.GetID())
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgGameError, protocol.ErrCodeInvalidMsg))
	}
}

// sendError 把错误映射到对应动作的错误事件
func sendError(client types.ClientInterface, msgType protocol.MessageType, err error) {
	var gameErr *types.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(protocol.NewErrorMessage(msgType, gameErr.Code))
		return
	}
	client.SendMessage(protocol.NewErrorMessageWithText(msgType, protocol.ErrCodeUnknown, err.Error()))
}
