package game

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/wfunc/impostor/broadcast/mocks"
	"github.com/wfunc/impostor/network"
	"github.com/wfunc/impostor/roster"
	"github.com/wfunc/impostor/round"
)

type wire struct {
	to   uint64
	data []byte
}

func newMockedHost(t *testing.T) (*Session, *[]wire, *[][]byte) {
	t.Helper()
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)

	var private []wire
	var public [][]byte
	tr.EXPECT().InitializeConnections(gomock.Any()).AnyTimes()
	tr.EXPECT().SendTo(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uint64, data []byte) error {
			private = append(private, wire{to: id, data: data})
			return nil
		}).AnyTimes()
	// The host must exclude itself from every broadcast.
	tr.EXPECT().Broadcast(gomock.Any(), gomock.Any(), hostID).
		DoAndReturn(func(_ context.Context, data []byte, _ uint64) error {
			public = append(public, data)
			return nil
		}).AnyTimes()

	s, err := New(Options{LocalID: hostID, IsHost: true, Transport: tr, Words: fixedWord("Guitar")})
	require.NoError(t, err)
	require.NoError(t, s.OpenLobby())
	for id := uint64(2); id <= 4; id++ {
		s.HandlePeerConnected(id, "p")
	}
	return s, &private, &public
}

func TestSession_SecretWordOnlyTravelsPrivately(t *testing.T) {
	s, private, public := newMockedHost(t)
	*private, *public = nil, nil

	require.NoError(t, s.StartGame())

	for _, data := range *public {
		assert.False(t, bytes.Contains(data, []byte("Guitar")), "broadcast leaked the word")
		m, err := network.Decode(data)
		require.NoError(t, err)
		assert.NotEqual(t, network.MsgTypeWordAssigned, m.Type())
		if rs, ok := m.(network.RoundStart); ok {
			assert.Empty(t, rs.SecretWord)
		}
	}

	words := 0
	for _, w := range *private {
		m, err := network.Decode(w.data)
		require.NoError(t, err)
		wa, ok := m.(network.WordAssigned)
		if !ok {
			continue
		}
		words++
		assert.Equal(t, w.to, wa.ID)
		p, _ := s.Player(w.to)
		if p.Role == roster.RoleImpostor {
			assert.Equal(t, round.ImpostorMarker, wa.Word)
			assert.True(t, wa.IsImpostor)
		} else {
			assert.Equal(t, "Guitar", wa.Word)
		}
	}
	// The host's own copy never goes on the wire.
	assert.Equal(t, 3, words)
}

func TestSession_NewcomerGetsSnapshot(t *testing.T) {
	s, private, public := newMockedHost(t)
	require.NoError(t, s.roster.SetReady(2, true))
	*private, *public = nil, nil

	s.HandlePeerConnected(5, "eve")

	var kinds []network.MessageType
	for _, w := range *private {
		assert.Equal(t, uint64(5), w.to)
		m, err := network.Decode(w.data)
		require.NoError(t, err)
		kinds = append(kinds, m.Type())
	}
	// Four existing members, one of them ready, then the phase.
	assert.Equal(t, []network.MessageType{
		network.MsgTypePlayerJoined,
		network.MsgTypePlayerJoined,
		network.MsgTypeReadyState,
		network.MsgTypePlayerJoined,
		network.MsgTypePlayerJoined,
		network.MsgTypeGameStateUpdate,
	}, kinds)

	require.Len(t, *public, 1)
	m, _ := network.Decode((*public)[0])
	assert.Equal(t, network.PlayerJoined{ID: 5, Name: "eve"}, m)
}

func TestSession_PhaseChangesAreBroadcast(t *testing.T) {
	s, _, public := newMockedHost(t)
	*public = nil

	require.NoError(t, s.BeginReadyCheck())
	require.Len(t, *public, 1)
	m, err := network.Decode((*public)[0])
	require.NoError(t, err)
	assert.Equal(t, network.GameStateUpdate{Phase: 2}, m)
}
