package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateAndGet(t *testing.T) {
	srv := newFakeServer()
	m := NewManager(testGameConfig(), srv)

	gs := m.Create("room-a")
	require.NotNil(t, gs)
	assert.Equal(t, PhaseLobby, gs.Phase())

	// 重复创建返回现有会话
	assert.Same(t, gs, m.Create("room-a"))

	assert.Same(t, gs, m.Get("room-a"))
	assert.Nil(t, m.Get("no-such-room"))

	// 空 ID 回退到默认会话
	def := m.Create(DefaultGameID)
	assert.Same(t, def, m.Get(""))
}

func TestManager_RemovePlayerEverywhere(t *testing.T) {
	srv := newFakeServer()
	srv.store.addUser("alice", 100)

	m := NewManager(testGameConfig(), srv)
	gs := m.Create("room-a")
	require.NoError(t, gs.Join(newFakeClient("c1"), "alice", 10))

	m.RemovePlayerEverywhere("c1")
	assert.Zero(t, gs.PlayerCount())
}

func TestManager_ActiveGamesAndCancelAll(t *testing.T) {
	srv := newFakeServer()
	srv.store.addUser("alice", 100)

	m := NewManager(testGameConfig(), srv)
	a := m.Create("room-a")
	m.Create("room-b")
	assert.Zero(t, m.ActiveGames())

	require.NoError(t, a.Join(newFakeClient("c1"), "alice", 10))
	require.NoError(t, a.ForceStart())
	assert.Equal(t, 1, m.ActiveGames())

	m.CancelAll()
	srv.store.addUser("bob", 100)
	assert.Error(t, a.Join(newFakeClient("c2"), "bob", 10))
}
