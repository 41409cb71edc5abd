package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/bingo-bonanza/internal/game/session"
	"github.com/palemoky/bingo-bonanza/internal/network/protocol"
)

func TestHandler_HandleAdminReset_InvalidPayload(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	h, _ := newTestHandler(mockServer)

	// Expectations
	mockClient.On("SendMessage", mock.MatchedBy(
		errorCodeMatcher(protocol.MsgAdminError, protocol.ErrCodeInvalidMsg),
	)).Return()

	// Execute
	h.handleAdminReset(mockClient, &protocol.Message{
		Type:    protocol.MsgAdminResetGame,
		Payload: json.RawMessage("{broken"),
	})

	// Verify
	mockClient.AssertExpectations(t)
}

func TestHandler_HandleAdminReset_NotAdmin(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	mockRegistry := new(MockRegistry)
	h, _ := newTestHandler(mockServer)

	// Expectations
	mockServer.On("GetRegistry").Return(mockRegistry)
	mockRegistry.On("ValidateAdmin", "s1", "alice").Return(false)
	mockClient.On("SendMessage", mock.MatchedBy(
		errorCodeMatcher(protocol.MsgAdminError, protocol.ErrCodeAdminRequired),
	)).Return()

	// Execute
	msg := protocol.MustNewMessage(protocol.MsgAdminResetGame, protocol.AdminActionPayload{
		Credentials: protocol.Credentials{SessionID: "s1", Username: "alice"},
	})
	h.handleAdminReset(mockClient, msg)

	// Verify
	mockRegistry.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestHandler_HandleAdminReset_Success(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	mockRegistry := new(MockRegistry)
	h, games := newTestHandler(mockServer)
	t.Cleanup(games.CancelAll)

	gs := games.Create(session.DefaultGameID)

	// Expectations
	mockServer.On("GetRegistry").Return(mockRegistry)
	mockServer.On("Broadcast", mock.Anything).Return()
	mockRegistry.On("ValidateAdmin", "s1", "admin").Return(true)
	mockClient.On("SendMessage", mock.MatchedBy(func(msg *protocol.Message) bool {
		return msg.Type == protocol.MsgAdminMessage
	})).Return()

	// Execute
	msg := protocol.MustNewMessage(protocol.MsgAdminResetGame, protocol.AdminActionPayload{
		Credentials: protocol.Credentials{SessionID: "s1", Username: "admin"},
	})
	h.handleAdminReset(mockClient, msg)

	// Verify
	if gs.Phase() != session.PhaseLobby {
		t.Fatalf("expected lobby phase after reset, got %v", gs.Phase())
	}
	mockRegistry.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestHandler_HandleAdminStart_Success(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	mockRegistry := new(MockRegistry)
	h, games := newTestHandler(mockServer)
	t.Cleanup(games.CancelAll)

	gs := games.Create(session.DefaultGameID)

	// Expectations
	mockServer.On("GetRegistry").Return(mockRegistry)
	mockServer.On("Broadcast", mock.Anything).Return()
	mockRegistry.On("ValidateAdmin", "s1", "admin").Return(true)
	mockClient.On("SendMessage", mock.MatchedBy(func(msg *protocol.Message) bool {
		return msg.Type == protocol.MsgAdminMessage
	})).Return()

	// Execute
	msg := protocol.MustNewMessage(protocol.MsgAdminStartGame, protocol.AdminActionPayload{
		Credentials: protocol.Credentials{SessionID: "s1", Username: "admin"},
	})
	h.handleAdminStart(mockClient, msg)

	// Verify
	if gs.Phase() != session.PhasePlaying {
		t.Fatalf("expected playing phase after force start, got %v", gs.Phase())
	}
	mockRegistry.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestHandler_HandleAdminStart_AlreadyStarted(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	mockRegistry := new(MockRegistry)
	h, games := newTestHandler(mockServer)
	t.Cleanup(games.CancelAll)

	gs := games.Create(session.DefaultGameID)

	mockServer.On("GetRegistry").Return(mockRegistry)
	mockServer.On("Broadcast", mock.Anything).Return()
	mockRegistry.On("ValidateAdmin", "s1", "admin").Return(true)
	if err := gs.ForceStart(); err != nil {
		t.Fatalf("force start failed: %v", err)
	}

	// Expectations
	mockClient.On("SendMessage", mock.MatchedBy(
		errorCodeMatcher(protocol.MsgAdminError, protocol.ErrCodeGameStarted),
	)).Return()

	// Execute
	msg := protocol.MustNewMessage(protocol.MsgAdminStartGame, protocol.AdminActionPayload{
		Credentials: protocol.Credentials{SessionID: "s1", Username: "admin"},
	})
	h.handleAdminStart(mockClient, msg)

	// Verify
	mockClient.AssertExpectations(t)
}

func TestHandler_HandleAdminCallNumber(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	mockRegistry := new(MockRegistry)
	h, games := newTestHandler(mockServer)
	t.Cleanup(games.CancelAll)

	gs := games.Create(session.DefaultGameID)

	mockServer.On("GetRegistry").Return(mockRegistry)
	mockServer.On("Broadcast", mock.Anything).Return()
	mockRegistry.On("ValidateAdmin", "s1", "admin").Return(true)

	// 大厅阶段不能叫号
	mockClient.On("SendMessage", mock.MatchedBy(
		errorCodeMatcher(protocol.MsgAdminError, protocol.ErrCodeClaimNotPlaying),
	)).Return().Once()

	callMsg := func(n int) *protocol.Message {
		return protocol.MustNewMessage(protocol.MsgAdminCallNumber, protocol.AdminCallNumberPayload{
			Credentials: protocol.Credentials{SessionID: "s1", Username: "admin"},
			Number:      n,
		})
	}
	h.handleAdminCallNumber(mockClient, callMsg(42))

	// 开局后可以叫号
	if err := gs.ForceStart(); err != nil {
		t.Fatalf("force start failed: %v", err)
	}
	mockClient.On("SendMessage", mock.MatchedBy(func(msg *protocol.Message) bool {
		return msg.Type == protocol.MsgAdminMessage
	})).Return().Once()
	h.handleAdminCallNumber(mockClient, callMsg(42))

	// 重复叫同一个号码无效
	mockClient.On("SendMessage", mock.MatchedBy(
		errorCodeMatcher(protocol.MsgAdminError, protocol.ErrCodeInvalidNumber),
	)).Return().Twice()
	h.handleAdminCallNumber(mockClient, callMsg(42))

	// 超出 1~75 范围无效
	h.handleAdminCallNumber(mockClient, callMsg(99))

	// Verify
	mockRegistry.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}
