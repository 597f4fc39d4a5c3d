package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/impostor/models"
	"github.com/wfunc/impostor/persistence"
	"github.com/wfunc/impostor/roster"
	"github.com/wfunc/impostor/state"
)

// MockGameSource is a test double for GameSource.
type MockGameSource struct {
	lobby   uuid.UUID
	players []roster.Player
	start   time.Time
	rounds  int
}

func (m *MockGameSource) LobbyID() uuid.UUID       { return m.lobby }
func (m *MockGameSource) Players() []roster.Player { return m.players }
func (m *MockGameSource) StartedAt() time.Time     { return m.start }
func (m *MockGameSource) RoundsPlayed() int        { return m.rounds }

type unlockLog struct {
	mu  sync.Mutex
	got map[uint64][]Achievement
}

func (l *unlockLog) add(id uint64, a []Achievement) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got[id] = append(l.got[id], a...)
}

func newSource() *MockGameSource {
	return &MockGameSource{
		lobby: uuid.New(),
		start: time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC),
		players: []roster.Player{
			{ID: 1, Name: "ann", Role: roster.RoleCivilian},
			{ID: 2, Name: "bob", Role: roster.RoleCivilian},
			{ID: 3, Name: "cid", Role: roster.RoleCivilian},
			{ID: 4, Name: "dee", Role: roster.RoleImpostor, Eliminated: true},
			{ID: 5, Name: "eve", Role: roster.RoleNone, Eliminated: true},
		},
	}
}

// playCivilianWin: round one abstains, round two votes out the impostor 4.
func playCivilianWin(s *ResultService) {
	s.OnStateChanged(state.PhaseLobby, state.PhaseGameStarting)

	s.OnVotingStarted(time.Time{})
	s.OnVoteCast(1, 2)
	s.OnVoteCast(2, 1)
	s.OnVoteCast(3, roster.Abstain)
	s.OnVoteCast(4, 3)
	s.OnVotingEnded(roster.Abstain, false)

	s.OnVotingStarted(time.Time{})
	s.OnVoteCast(1, 4)
	s.OnVoteCast(2, 4)
	s.OnVoteCast(3, 1)
	s.OnVoteCast(4, 1)
	s.OnVotingEnded(4, true)

	s.OnGameEnded(false, []uint64{4})
}

func TestResultServiceBuildsRecord(t *testing.T) {
	src := newSource()
	src.rounds = 2
	s := NewResultService(persistence.NewMemory(), src)
	end := src.start.Add(4 * time.Minute)
	s.SetClock(func() time.Time { return end })

	playCivilianWin(s)
	r := s.buildRecord(false, []uint64{4})

	assert.Equal(t, src.lobby, r.LobbyID)
	assert.Equal(t, 2, r.Rounds)
	assert.Equal(t, 4*time.Minute, r.Duration())
	require.Len(t, r.Players, 4, "spectators without a role are not recorded")

	ann, _ := r.Player(1)
	assert.Equal(t, models.PlayerInfo{
		PlayerID: 1, Name: "ann", Role: models.RoleCivilian, Won: true,
		VotesCast: 2, VotesOnImpostors: 1, FoundImpostor: true,
	}, ann)

	cid, _ := r.Player(3)
	assert.Equal(t, 1, cid.VotesCast)
	assert.False(t, cid.FoundImpostor)

	dee, _ := r.Player(4)
	assert.Equal(t, models.RoleImpostor, dee.Role)
	assert.False(t, dee.Won)
	assert.True(t, dee.Eliminated)
}

func TestResultServiceFlushesAfterCancel(t *testing.T) {
	db := persistence.NewMemory()
	s := NewResultService(db, newSource())
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	playCivilianWin(s)
	s.Close()

	assert.Equal(t, 1, db.Count())
}

func TestResultServiceStoresAndUnlocks(t *testing.T) {
	db := persistence.NewMemory()
	src := newSource()
	s := NewResultService(db, src)
	log := &unlockLog{got: make(map[uint64][]Achievement)}
	s.OnAchievements(log.add)
	s.Start(context.Background())

	playCivilianWin(s)
	s.Close()

	assert.Equal(t, 1, db.Count())
	assert.ElementsMatch(t, []Achievement{AchFirstWin, AchFindImpostor}, log.got[1])
	assert.ElementsMatch(t, []Achievement{AchFirstWin, AchFindImpostor}, log.got[2])
	assert.Equal(t, []Achievement{AchFirstWin}, log.got[3])
	assert.Empty(t, log.got[4])

	stats, err := s.PlayerStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.ImpostorsFound)
}

func TestResultServiceResetsBetweenGames(t *testing.T) {
	s := NewResultService(persistence.NewMemory(), newSource())
	playCivilianWin(s)
	s.OnStateChanged(state.PhaseLobby, state.PhaseGameStarting)

	r := s.buildRecord(true, []uint64{4})
	for _, p := range r.Players {
		assert.Zero(t, p.VotesCast)
		assert.False(t, p.FoundImpostor)
	}
}

func TestResultServiceDropsAfterClose(t *testing.T) {
	db := persistence.NewMemory()
	s := NewResultService(db, newSource())
	s.Start(context.Background())
	s.Close()
	s.Close()

	s.OnGameEnded(true, []uint64{4})
	assert.Equal(t, 0, db.Count())
}
