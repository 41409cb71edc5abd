package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/bingo-bonanza/internal/game/session"
	"github.com/palemoky/bingo-bonanza/internal/network/protocol"
	"github.com/palemoky/bingo-bonanza/internal/network/server/types"
)

func TestHandler_HandleJoinGame_InvalidPayload(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	h, _ := newTestHandler(mockServer)

	// Expectations
	mockClient.On("SendMessage", mock.MatchedBy(
		errorCodeMatcher(protocol.MsgJoinError, protocol.ErrCodeInvalidMsg),
	)).Return()

	// Execute
	h.handleJoinGame(mockClient, &protocol.Message{
		Type:    protocol.MsgJoinGame,
		Payload: json.RawMessage("{broken"),
	})

	// Verify
	mockClient.AssertExpectations(t)
}

func TestHandler_HandleJoinGame_InvalidSession(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	mockRegistry := new(MockRegistry)
	h, _ := newTestHandler(mockServer)

	// Expectations
	mockServer.On("GetRegistry").Return(mockRegistry)
	mockRegistry.On("Validate", "bad-session", "alice").Return(false)
	mockClient.On("SendMessage", mock.MatchedBy(
		errorCodeMatcher(protocol.MsgJoinError, protocol.ErrCodeInvalidSession),
	)).Return()

	// Execute
	msg := protocol.MustNewMessage(protocol.MsgJoinGame, protocol.JoinGamePayload{
		Credentials: protocol.Credentials{SessionID: "bad-session", Username: "alice"},
		GameID:      "main-room",
		EntryFee:    10,
	})
	h.handleJoinGame(mockClient, msg)

	// Verify
	mockServer.AssertExpectations(t)
	mockRegistry.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestHandler_HandleJoinGame_GameNotFound(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	mockRegistry := new(MockRegistry)
	h, _ := newTestHandler(mockServer)

	// Expectations
	mockServer.On("GetRegistry").Return(mockRegistry)
	mockRegistry.On("Validate", "s1", "alice").Return(true)
	mockClient.On("SendMessage", mock.MatchedBy(
		errorCodeMatcher(protocol.MsgJoinError, protocol.ErrCodeGameNotFound),
	)).Return()

	// Execute
	msg := protocol.MustNewMessage(protocol.MsgJoinGame, protocol.JoinGamePayload{
		Credentials: protocol.Credentials{SessionID: "s1", Username: "alice"},
		GameID:      "no-such-room",
		EntryFee:    10,
	})
	h.handleJoinGame(mockClient, msg)

	// Verify
	mockRegistry.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestHandler_HandleJoinGame_Success(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	mockRegistry := new(MockRegistry)
	mockStore := new(MockUserStore)
	h, games := newTestHandler(mockServer)
	t.Cleanup(games.CancelAll)

	gs := games.Create(session.DefaultGameID)

	// Expectations
	mockServer.On("GetRegistry").Return(mockRegistry)
	mockServer.On("GetUserStore").Return(mockStore)
	mockServer.On("Broadcast", mock.Anything).Return()
	mockRegistry.On("Validate", "s1", "alice").Return(true)
	mockStore.On("Get", mock.Anything, "alice").Return(&types.User{
		Username: "alice",
		Phone:    "13800000000",
		Balance:  100,
	}, nil)
	mockClient.On("GetID").Return("c1")
	mockClient.On("SendMessage", mock.Anything).Return()
	mockClient.On("SetUsername", "alice").Return()

	// Execute
	msg := protocol.MustNewMessage(protocol.MsgJoinGame, protocol.JoinGamePayload{
		Credentials: protocol.Credentials{SessionID: "s1", Username: "alice"},
		GameID:      "main-room",
		EntryFee:    10,
	})
	h.handleJoinGame(mockClient, msg)

	// Verify
	if gs.PlayerCount() != 1 {
		t.Fatalf("expected 1 player in game, got %d", gs.PlayerCount())
	}
	mockServer.AssertExpectations(t)
	mockRegistry.AssertExpectations(t)
	mockStore.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestHandler_HandleJoinGame_InsufficientBalance(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	mockRegistry := new(MockRegistry)
	mockStore := new(MockUserStore)
	h, games := newTestHandler(mockServer)
	t.Cleanup(games.CancelAll)

	games.Create(session.DefaultGameID)

	// Expectations
	mockServer.On("GetRegistry").Return(mockRegistry)
	mockServer.On("GetUserStore").Return(mockStore)
	mockRegistry.On("Validate", "s1", "alice").Return(true)
	mockStore.On("Get", mock.Anything, "alice").Return(&types.User{
		Username: "alice",
		Balance:  5,
	}, nil)
	mockClient.On("SendMessage", mock.MatchedBy(
		errorCodeMatcher(protocol.MsgJoinError, protocol.ErrCodeInsufficientBalance),
	)).Return()

	// Execute
	msg := protocol.MustNewMessage(protocol.MsgJoinGame, protocol.JoinGamePayload{
		Credentials: protocol.Credentials{SessionID: "s1", Username: "alice"},
		GameID:      "main-room",
		EntryFee:    10,
	})
	h.handleJoinGame(mockClient, msg)

	// Verify
	mockStore.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestHandler_HandleSelectCard_NotInGame(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	mockRegistry := new(MockRegistry)
	h, games := newTestHandler(mockServer)
	t.Cleanup(games.CancelAll)

	games.Create(session.DefaultGameID)

	// Expectations
	mockServer.On("GetRegistry").Return(mockRegistry)
	mockRegistry.On("Validate", "s1", "alice").Return(true)
	mockClient.On("GetID").Return("stranger")
	mockClient.On("SendMessage", mock.MatchedBy(
		errorCodeMatcher(protocol.MsgCardSelectionError, protocol.ErrCodeNotInGame),
	)).Return()

	// Execute
	msg := protocol.MustNewMessage(protocol.MsgSelectCard, protocol.SelectCardPayload{
		Credentials: protocol.Credentials{SessionID: "s1", Username: "alice"},
		GameID:      "main-room",
		CardType:    "standard",
	})
	h.handleSelectCard(mockClient, msg)

	// Verify
	mockClient.AssertExpectations(t)
}

func TestHandler_HandleClaimBingo_NotPlaying(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	mockRegistry := new(MockRegistry)
	h, games := newTestHandler(mockServer)
	t.Cleanup(games.CancelAll)

	games.Create(session.DefaultGameID)

	// Expectations
	mockServer.On("GetRegistry").Return(mockRegistry)
	mockRegistry.On("Validate", "s1", "alice").Return(true)
	mockClient.On("GetID").Return("c1")
	mockClient.On("SendMessage", mock.MatchedBy(
		errorCodeMatcher(protocol.MsgBingoInvalid, protocol.ErrCodeClaimNotPlaying),
	)).Return()

	// Execute
	msg := protocol.MustNewMessage(protocol.MsgClaimBingo, protocol.ClaimBingoPayload{
		Credentials: protocol.Credentials{SessionID: "s1", Username: "alice"},
		GameID:      "main-room",
	})
	h.handleClaimBingo(mockClient, msg)

	// Verify
	mockClient.AssertExpectations(t)
}

func TestHandler_HandleRequestGameState(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	mockRegistry := new(MockRegistry)
	h, games := newTestHandler(mockServer)
	t.Cleanup(games.CancelAll)

	games.Create(session.DefaultGameID)

	// Expectations
	mockServer.On("GetRegistry").Return(mockRegistry)
	mockRegistry.On("Validate", "s1", "alice").Return(true)
	mockClient.On("GetID").Return("c1")
	mockClient.On("SendMessage", mock.MatchedBy(func(msg *protocol.Message) bool {
		if msg.Type != protocol.MsgGameStateUpdate {
			return false
		}
		payload, err := protocol.ParsePayload[protocol.GameStatePayload](msg)
		return err == nil && payload.GameStatus == "lobby" && payload.EntryFee == 10
	})).Return()

	// Execute
	msg := protocol.MustNewMessage(protocol.MsgRequestGameState, protocol.RequestGameStatePayload{
		Credentials: protocol.Credentials{SessionID: "s1", Username: "alice"},
		GameID:      "main-room",
	})
	h.handleRequestGameState(mockClient, msg)

	// Verify
	mockClient.AssertExpectations(t)
}

func TestHandler_Handle_UnknownType(t *testing.T) {
	// Setup
	mockServer := new(MockServer)
	mockClient := new(MockClient)
	h, _ := newTestHandler(mockServer)

	// Expectations
	mockClient.On("GetID").Return("c1")
	mockClient.On("SendMessage", mock.MatchedBy(
		errorCodeMatcher(protocol.MsgGameError, protocol.ErrCodeInvalidMsg),
	)).Return()

	// Execute
	h.Handle(mockClient, &protocol.Message{Type: "no-such-event"})

	// Verify
	mockClient.AssertExpectations(t)
}
