package vote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/impostor/errs"
	"github.com/wfunc/impostor/network"
	"github.com/wfunc/impostor/roster"
)

const (
	alice uint64 = 1
	bob   uint64 = 2
	carol uint64 = 3
	dave  uint64 = 4
)

type MockSender struct {
	sent []network.Message
}

func (s *MockSender) Broadcast(m network.Message) { s.sent = append(s.sent, m) }

type ended struct {
	id          uint64
	wasImpostor bool
}

type MockListener struct {
	started int
	cast    [][2]uint64
	ended   []ended
}

func (l *MockListener) OnVotingStarted(time.Time) { l.started++ }
func (l *MockListener) OnVoteCast(voter, target uint64) {
	l.cast = append(l.cast, [2]uint64{voter, target})
}
func (l *MockListener) OnVotingEnded(id uint64, wasImpostor bool) {
	l.ended = append(l.ended, ended{id, wasImpostor})
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func setup(t *testing.T, ids ...uint64) (*Coordinator, *roster.Roster, *MockSender, *MockListener, *fakeClock) {
	t.Helper()
	r := roster.New()
	for _, id := range ids {
		require.NoError(t, r.AddPlayer(id, "p"))
	}
	s := &MockSender{}
	l := &MockListener{}
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCoordinator(r, s)
	c.SetClock(clk.Now)
	c.AddListener(l)
	return c, r, s, l, clk
}

func TestCoordinator_StartVotingEmptyRoster(t *testing.T) {
	c, _, _, l, _ := setup(t)
	err := c.StartVoting(5 * time.Second)
	assert.ErrorIs(t, err, ErrNoPlayers)
	assert.ErrorIs(t, err, errs.ErrResource)
	assert.False(t, c.IsOpen())
	assert.Equal(t, 0, l.started)
}

func TestCoordinator_ClearMajority(t *testing.T) {
	c, r, s, l, _ := setup(t, alice, bob, carol, dave)
	require.NoError(t, r.AssignRoles(1))
	require.NoError(t, c.StartVoting(5*time.Second))

	require.NoError(t, c.CastVote(alice, bob))
	require.NoError(t, c.CastVote(carol, bob))
	require.NoError(t, c.CastVote(dave, alice))
	assert.True(t, c.IsOpen())
	assert.Equal(t, map[uint64]int{bob: 2, alice: 1}, c.GetVoteCounts())

	require.NoError(t, c.CastVote(bob, roster.Abstain))
	assert.False(t, c.IsOpen(), "voting ends once everyone voted")

	p, _ := r.GetPlayer(bob)
	want := ended{bob, p.Role == roster.RoleImpostor}
	assert.Equal(t, []ended{want}, l.ended)
	assert.Equal(t, network.RoundEnd{VotedOutID: bob, WasImpostor: want.wasImpostor}, s.sent[len(s.sent)-1])
	assert.Equal(t, bob, c.LastResult().Eliminated)
}

func TestCoordinator_TieMeansNoElimination(t *testing.T) {
	c, _, s, l, clk := setup(t, alice, bob, carol, dave)
	require.NoError(t, c.StartVoting(5*time.Second))

	require.NoError(t, c.CastVote(alice, bob))
	require.NoError(t, c.CastVote(bob, alice))

	clk.t = clk.t.Add(5 * time.Second)
	c.Tick(clk.t)

	assert.False(t, c.IsOpen())
	assert.Equal(t, []ended{{roster.Abstain, false}}, l.ended)
	assert.Equal(t, network.RoundEnd{VotedOutID: roster.Abstain}, s.sent[len(s.sent)-1])
}

func TestCoordinator_AllAbstain(t *testing.T) {
	c, _, _, l, _ := setup(t, alice, bob)
	require.NoError(t, c.StartVoting(time.Second))
	require.NoError(t, c.CastVote(alice, roster.Abstain))
	require.NoError(t, c.CastVote(bob, roster.Abstain))

	assert.Empty(t, c.GetVoteCounts())
	assert.Equal(t, []ended{{roster.Abstain, false}}, l.ended)
}

func TestCoordinator_DuplicateVoteIsRejected(t *testing.T) {
	c, _, s, _, _ := setup(t, alice, bob, carol, dave)
	require.NoError(t, c.StartVoting(5*time.Second))
	require.NoError(t, c.CastVote(alice, bob))

	err := c.CastVote(alice, carol)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.Equal(t, map[uint64]uint64{alice: bob}, c.Votes())
	assert.Len(t, s.sent, 1)
}

func TestCoordinator_CastVoteValidation(t *testing.T) {
	c, r, _, _, _ := setup(t, alice, bob, carol, dave)

	assert.ErrorIs(t, c.CastVote(alice, bob), ErrVotingClosed)

	require.NoError(t, r.Eliminate(dave))
	require.NoError(t, c.StartVoting(5*time.Second))

	assert.ErrorIs(t, c.CastVote(99, bob), ErrUnknownVoter)
	assert.ErrorIs(t, c.CastVote(alice, 99), ErrInvalidTarget)
	assert.ErrorIs(t, c.CastVote(dave, alice), ErrUnknownVoter)
	assert.ErrorIs(t, c.CastVote(alice, dave), ErrInvalidTarget)
	assert.Empty(t, c.Votes())

	// Three active players; dave's silence does not hold the vote open.
	require.NoError(t, c.CastVote(alice, bob))
	require.NoError(t, c.CastVote(bob, carol))
	require.NoError(t, c.CastVote(carol, bob))
	assert.False(t, c.IsOpen())
}

func TestCoordinator_DeadlineClosesOnce(t *testing.T) {
	c, _, _, l, clk := setup(t, alice, bob, carol, dave)
	require.NoError(t, c.StartVoting(5*time.Second))
	require.NoError(t, c.CastVote(alice, bob))

	clk.t = clk.t.Add(4 * time.Second)
	c.Tick(clk.t)
	assert.True(t, c.IsOpen())
	assert.Equal(t, time.Second, c.Remaining(clk.t))

	clk.t = clk.t.Add(time.Second)
	c.Tick(clk.t)
	c.Tick(clk.t.Add(time.Second))
	c.EndVoting()

	assert.False(t, c.IsOpen())
	assert.Equal(t, time.Duration(0), c.Remaining(clk.t))
	assert.Equal(t, []ended{{bob, false}}, l.ended)
}

func TestCoordinator_StartVotingResetsFlags(t *testing.T) {
	c, r, _, _, _ := setup(t, alice, bob)
	require.NoError(t, c.StartVoting(time.Second))
	require.NoError(t, c.CastVote(alice, bob))
	c.EndVoting()

	require.NoError(t, c.StartVoting(time.Second))
	assert.Empty(t, c.Votes())
	for _, p := range r.Players() {
		assert.False(t, p.HasVoted)
	}
}

func TestCoordinator_RemovePlayer(t *testing.T) {
	c, r, _, l, _ := setup(t, alice, bob, carol, dave)
	require.NoError(t, c.StartVoting(5*time.Second))

	require.NoError(t, c.CastVote(alice, dave))
	require.NoError(t, c.CastVote(dave, bob))
	require.NoError(t, c.CastVote(bob, carol))

	r.RemovePlayer(dave)
	c.RemovePlayer(dave)

	assert.True(t, c.IsOpen())
	assert.Equal(t, map[uint64]uint64{alice: roster.Abstain, bob: carol}, c.Votes())

	require.NoError(t, c.CastVote(carol, carol))
	assert.Equal(t, []ended{{carol, false}}, l.ended)
}

func TestCoordinator_RemoveLastHoldoutEndsVoting(t *testing.T) {
	c, r, _, l, _ := setup(t, alice, bob, carol)
	require.NoError(t, c.StartVoting(5*time.Second))
	require.NoError(t, c.CastVote(alice, bob))
	require.NoError(t, c.CastVote(bob, alice))

	r.RemovePlayer(carol)
	c.RemovePlayer(carol)
	assert.False(t, c.IsOpen())
	assert.Len(t, l.ended, 1)
}

func TestTally(t *testing.T) {
	cases := []struct {
		name   string
		counts map[uint64]int
		want   uint64
	}{
		{"empty", map[uint64]int{}, roster.Abstain},
		{"single", map[uint64]int{bob: 1}, bob},
		{"majority", map[uint64]int{bob: 2, alice: 1}, bob},
		{"two way tie", map[uint64]int{bob: 1, alice: 1}, roster.Abstain},
		{"tie at top only", map[uint64]int{bob: 2, alice: 2, carol: 1}, roster.Abstain},
		{"tie below top", map[uint64]int{bob: 3, alice: 1, carol: 1}, bob},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tally(tc.counts))
		})
	}
}
