package handlers

import (
	"github.com/palemoky/bingo-bonanza/internal/network/protocol"
	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

// handleJoinGame 处理加入游戏
func (h *Handler) handleJoinGame(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.JoinGamePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgJoinError, protocol.ErrCodeInvalidMsg))
		return
	}

	if !h.server.GetRegistry().Validate(payload.SessionID, payload.Username) {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgJoinError, protocol.ErrCodeInvalidSession))
		return
	}

	gs := h.games.Get(payload.GameID)
	if gs == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgJoinError, protocol.ErrCodeGameNotFound))
		return
	}

	if err := gs.Join(client, payload.Username, payload.EntryFee); err != nil {
		sendError(client, protocol.MsgJoinError, err)
		return
	}
	client.SetUsername(payload.Username)
}

// handleSelectCard 处理选卡
func (h *Handler) handleSelectCard(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.SelectCardPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgCardSelectionError, protocol.ErrCodeInvalidMsg))
		return
	}

	if !h.server.GetRegistry().Validate(payload.SessionID, payload.Username) {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgCardSelectionError, protocol.ErrCodeInvalidSession))
		return
	}

	gs := h.games.Get(payload.GameID)
	if gs == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgCardSelectionError, protocol.ErrCodeGameNotFound))
		return
	}

	if err := gs.SelectCard(client.GetID(), payload.CardType); err != nil {
		sendError(client, protocol.MsgCardSelectionError, err)
	}
}

// handleClaimBingo 处理 Bingo 宣告
func (h *Handler) handleClaimBingo(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ClaimBingoPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgBingoInvalid, protocol.ErrCodeInvalidMsg))
		return
	}

	if !h.server.GetRegistry().Validate(payload.SessionID, payload.Username) {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgBingoInvalid, protocol.ErrCodeInvalidSession))
		return
	}

	gs := h.games.Get(payload.GameID)
	if gs == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgBingoInvalid, protocol.ErrCodeGameNotFound))
		return
	}

	if err := gs.ClaimBingo(client.GetID()); err != nil {
		sendError(client, protocol.MsgBingoInvalid, err)
	}
}

// handleRequestGameState 处理状态快照请求
func (h *Handler) handleRequestGameState(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RequestGameStatePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgGameError, protocol.ErrCodeInvalidMsg))
		return
	}

	if !h.server.GetRegistry().Validate(payload.SessionID, payload.Username) {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgGameError, protocol.ErrCodeInvalidSession))
		return
	}

	gs := h.games.Get(payload.GameID)
	if gs == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgGameError, protocol.ErrCodeGameNotFound))
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgGameStateUpdate, gs.Snapshot(client.GetID())))
}
