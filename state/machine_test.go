package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/impostor/errs"
)

// MockState records which hooks ran.
type MockState struct {
	BaseState
	entered []Phase
	exited  []Phase
	updates int
	onEnter func()
}

func newMockState(p Phase) *MockState {
	return &MockState{BaseState: BaseState{ID: p}}
}

func (m *MockState) OnEnter(from Phase) {
	m.entered = append(m.entered, from)
	if m.onEnter != nil {
		m.onEnter()
	}
}

func (m *MockState) OnExit(to Phase) {
	m.exited = append(m.exited, to)
}

func (m *MockState) OnUpdate(time.Time) {
	m.updates++
}

func TestMachine_ChangeState(t *testing.T) {
	sm := NewMachine(PhaseMainMenu)
	menu := newMockState(PhaseMainMenu)
	lobby := newMockState(PhaseLobby)
	sm.Register(menu)
	sm.Register(lobby)

	var seen [][2]Phase
	sm.AddListener(func(from, to Phase) { seen = append(seen, [2]Phase{from, to}) })

	require.NoError(t, sm.ChangeState(PhaseLobby))
	assert.Equal(t, PhaseLobby, sm.Current())
	assert.Equal(t, []Phase{PhaseLobby}, menu.exited)
	assert.Equal(t, []Phase{PhaseMainMenu}, lobby.entered)
	assert.Equal(t, [][2]Phase{{PhaseMainMenu, PhaseLobby}}, seen)
}

func TestMachine_ChangeStateSamePhaseIsNoop(t *testing.T) {
	sm := NewMachine(PhaseLobby)
	lobby := newMockState(PhaseLobby)
	sm.Register(lobby)
	calls := 0
	sm.AddListener(func(Phase, Phase) { calls++ })

	require.NoError(t, sm.ChangeState(PhaseLobby))
	sm.Sync(PhaseLobby)

	assert.Equal(t, 0, calls)
	assert.Empty(t, lobby.entered)
	assert.Empty(t, lobby.exited)
}

func TestMachine_TransitionNotAllowed(t *testing.T) {
	cases := []struct {
		from, to Phase
	}{
		{PhaseMainMenu, PhaseInGame},
		{PhaseLobby, PhaseVoting},
		{PhaseInGame, PhaseLobby},
		{PhaseVoting, PhaseInGame},
		{PhaseGameEnd, PhaseLobby},
		{PhaseGameEnd, PhaseMainMenu},
	}
	for _, tc := range cases {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			sm := NewMachine(tc.from)
			calls := 0
			sm.AddListener(func(Phase, Phase) { calls++ })

			err := sm.ChangeState(tc.to)
			assert.ErrorIs(t, err, ErrTransitionNotAllowed)
			assert.ErrorIs(t, err, errs.ErrState)
			assert.Equal(t, tc.from, sm.Current())
			assert.Equal(t, 0, calls)
		})
	}
}

func TestMachine_FullGamePath(t *testing.T) {
	sm := NewMachine(PhaseMainMenu)
	path := []Phase{
		PhaseLobby, PhaseWaitingForReady, PhaseGameStarting, PhaseInGame,
		PhaseVoting, PhaseRoundResults, PhaseInGame, PhaseVoting,
		PhaseRoundResults, PhaseGameEnd,
	}
	for _, p := range path {
		require.NoError(t, sm.ChangeState(p), "to %s", p)
	}
	assert.Equal(t, PhaseGameEnd, sm.Current())
}

func TestMachine_ReentrantChange(t *testing.T) {
	sm := NewMachine(PhaseLobby)
	starting := newMockState(PhaseGameStarting)
	inGame := newMockState(PhaseInGame)
	starting.onEnter = func() {
		require.NoError(t, sm.ChangeState(PhaseInGame))
	}
	sm.Register(starting)
	sm.Register(inGame)

	var seen []Phase
	sm.AddListener(func(_, to Phase) { seen = append(seen, to) })

	require.NoError(t, sm.ChangeState(PhaseGameStarting))
	assert.Equal(t, PhaseInGame, sm.Current())
	assert.Equal(t, []Phase{PhaseGameStarting, PhaseInGame}, seen)
	assert.Equal(t, []Phase{PhaseInGame}, starting.exited)
	assert.Equal(t, []Phase{PhaseGameStarting}, inGame.entered)
}

func TestMachine_SyncSkipsTable(t *testing.T) {
	sm := NewMachine(PhaseMainMenu)
	voting := newMockState(PhaseVoting)
	sm.Register(voting)
	calls := 0
	sm.AddListener(func(Phase, Phase) { calls++ })

	sm.Sync(PhaseVoting)
	assert.Equal(t, PhaseVoting, sm.Current())
	assert.Equal(t, 1, calls)
	assert.Equal(t, []Phase{PhaseMainMenu}, voting.entered)
}

func TestMachine_Update(t *testing.T) {
	sm := NewMachine(PhaseVoting)
	voting := newMockState(PhaseVoting)
	sm.Register(voting)

	sm.Update(time.Now())
	sm.Update(time.Now())
	assert.Equal(t, 2, voting.updates)

	require.NoError(t, sm.ChangeState(PhaseRoundResults))
	sm.Update(time.Now())
	assert.Equal(t, 2, voting.updates)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "WaitingForReady", PhaseWaitingForReady.String())
	assert.Equal(t, "Unknown", Phase(42).String())
	assert.True(t, PhaseGameEnd.Valid())
	assert.False(t, Phase(-1).Valid())
}
