package handlers

import (
	"fmt"
	"log"

	"github.com/palemoky/bingo-bonanza/internal/network/protocol"
	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

// handleAdminReset 管理员强制重置游戏
func (h *Handler) handleAdminReset(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.AdminActionPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgAdminError, protocol.ErrCodeInvalidMsg))
		return
	}
	if !h.server.GetRegistry().ValidateAdmin(payload.SessionID, payload.Username) {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgAdminError, protocol.ErrCodeAdminRequired))
		return
	}

	gs := h.games.Get("")
	if gs == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgAdminError, protocol.ErrCodeGameNotFound))
		return
	}

	if err := gs.ForceReset(); err != nil {
		sendError(client, protocol.MsgAdminError, err)
		return
	}
	log.Printf("⚠️ 管理员 %s 重置了游戏 %s", payload.Username, gs.ID())
	client.SendMessage(protocol.MustNewMessage(protocol.MsgAdminMessage, protocol.AdminMessagePayload{
		Message: "游戏已重置",
	}))
}

// handleAdminCallNumber 管理员手动叫号
func (h *Handler) handleAdminCallNumber(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.AdminCallNumberPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgAdminError, protocol.ErrCodeInvalidMsg))
		return
	}
	if !h.server.GetRegistry().ValidateAdmin(payload.SessionID, payload.Username) {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgAdminError, protocol.ErrCodeAdminRequired))
		return
	}

	gs := h.games.Get("")
	if gs == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgAdminError, protocol.ErrCodeGameNotFound))
		return
	}

	if err := gs.ForceCallNumber(payload.Number); err != nil {
		sendError(client, protocol.MsgAdminError, err)
		return
	}
	client.SendMessage(protocol.MustNewMessage(protocol.MsgAdminMessage, protocol.AdminMessagePayload{
		Message: fmt.Sprintf("已叫出号码 %d", payload.Number),
	}))
}

// handleAdminStart 管理员强制开局
func (h *Handler) handleAdminStart(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.AdminActionPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgAdminError, protocol.ErrCodeInvalidMsg))
		return
	}
	if !h.server.GetRegistry().ValidateAdmin(payload.SessionID, payload.Username) {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgAdminError, protocol.ErrCodeAdminRequired))
		return
	}

	gs := h.games.Get("")
	if gs == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgAdminError, protocol.ErrCodeGameNotFound))
		return
	}

	if err := gs.ForceStart(); err != nil {
		sendError(client, protocol.MsgAdminError, err)
		return
	}
	log.Printf("⚠️ 管理员 %s 强制开始了游戏 %s", payload.Username, gs.ID())
	client.SendMessage(protocol.MustNewMessage(protocol.MsgAdminMessage, protocol.AdminMessagePayload{
		Message: "游戏已开始",
	}))
}
