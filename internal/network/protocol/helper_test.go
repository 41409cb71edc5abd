package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_EncodeDecodeRoundTrip(t *testing.T) {
	msg, err := NewMessage(MsgJoinGame, JoinGamePayload{
		Credentials: Credentials{SessionID: "s1", Username: "alice"},
		GameID:      "main-room",
		EntryFee:    10,
	})
	require.NoError(t, err)

	data, err := msg.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, MsgJoinGame, decoded.Type)

	payload, err := ParsePayload[JoinGamePayload](decoded)
	require.NoError(t, err)
	assert.Equal(t, "alice", payload.Username)
	assert.Equal(t, "s1", payload.SessionID)
	assert.Equal(t, "main-room", payload.GameID)
	assert.Equal(t, int64(10), payload.EntryFee)
}

func TestNewMessage_NilPayload(t *testing.T) {
	msg, err := NewMessage(MsgAdminResetGame, nil)
	require.NoError(t, err)
	assert.Nil(t, msg.Payload)

	data, err := msg.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, MsgAdminResetGame, decoded.Type)
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestParsePayload_Mismatch(t *testing.T) {
	msg := MustNewMessage(MsgNumberCalled, NumberCalledPayload{Number: 42})

	payload, err := ParsePayload[NumberCalledPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, 42, payload.Number)

	// Payload 不是合法 JSON 时报错
	msg.Payload = []byte("{broken")
	_, err = ParsePayload[NumberCalledPayload](msg)
	assert.Error(t, err)
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage(MsgJoinError, ErrCodeInsufficientBalance)

	payload, err := ParsePayload[ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, ErrCodeInsufficientBalance, payload.Code)
	assert.Equal(t, ErrorMessages[ErrCodeInsufficientBalance], payload.Error)
}

func TestNewErrorMessageWithText(t *testing.T) {
	msg := NewErrorMessageWithText(MsgAdminError, ErrCodeUnknown, "自定义错误")

	payload, err := ParsePayload[ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, ErrCodeUnknown, payload.Code)
	assert.Equal(t, "自定义错误", payload.Error)
}
