package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wfunc/impostor/broadcast"
	"github.com/wfunc/impostor/roster"
	"github.com/wfunc/impostor/state"
)

const hostID uint64 = 1

type fixedWord string

func (w fixedWord) GetRandomWord() string { return string(w) }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

type votingEnd struct {
	id          uint64
	wasImpostor bool
}

type gameEnd struct {
	impostorsWon bool
	impostors    []uint64
}

// recorder is an Observer that keeps everything it is told.
type recorder struct {
	BaseObserver
	roundWords    []string
	clues         []uint64
	allClues      int
	votingStarted int
	votes         [][2]uint64
	votingEnded   []votingEnd
	phases        []state.Phase
	roles         []roster.Role
	gameEnded     []gameEnd
	rejected      []string
	joined        []uint64
	left          []uint64
}

func (r *recorder) OnRoundStarted(_ int, word string)   { r.roundWords = append(r.roundWords, word) }
func (r *recorder) OnClueSubmitted(id uint64, _ string) { r.clues = append(r.clues, id) }
func (r *recorder) OnAllCluesSubmitted()                { r.allClues++ }
func (r *recorder) OnVotingStarted(time.Time)           { r.votingStarted++ }
func (r *recorder) OnVoteCast(voter, target uint64) {
	r.votes = append(r.votes, [2]uint64{voter, target})
}
func (r *recorder) OnVotingEnded(id uint64, wasImpostor bool) {
	r.votingEnded = append(r.votingEnded, votingEnd{id, wasImpostor})
}
func (r *recorder) OnStateChanged(_, to state.Phase)          { r.phases = append(r.phases, to) }
func (r *recorder) OnRoleAssigned(_ uint64, role roster.Role) { r.roles = append(r.roles, role) }
func (r *recorder) OnGameEnded(won bool, ids []uint64) {
	r.gameEnded = append(r.gameEnded, gameEnd{won, ids})
}
func (r *recorder) OnActionRejected(action, _ string)  { r.rejected = append(r.rejected, action) }
func (r *recorder) OnPlayerJoined(id uint64, _ string) { r.joined = append(r.joined, id) }
func (r *recorder) OnPlayerLeft(id uint64)             { r.left = append(r.left, id) }

// table is one host and several clients wired over an in-process bus.
type table struct {
	t        *testing.T
	bus      *broadcast.Bus
	clock    *fakeClock
	sessions map[uint64]*Session
	recs     map[uint64]*recorder
	ids      []uint64
}

func newTable(t *testing.T, players int, tweak func(*Options)) *table {
	t.Helper()
	tb := &table{
		t:        t,
		bus:      broadcast.NewBus(),
		clock:    &fakeClock{t: time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)},
		sessions: make(map[uint64]*Session),
		recs:     make(map[uint64]*recorder),
	}
	for i := 1; i <= players; i++ {
		id := uint64(i)
		tb.ids = append(tb.ids, id)
		ep := tb.bus.Attach(id, func(from uint64, data []byte) {
			_ = tb.sessions[id].HandleMessage(from, data)
		})
		opts := Options{
			LocalID:       id,
			LocalName:     "player",
			IsHost:        id == hostID,
			HostID:        hostID,
			Transport:     ep,
			Words:         fixedWord("Guitar"),
			Clock:         tb.clock.Now,
			RejectReplies: true,
		}
		if tweak != nil {
			tweak(&opts)
		}
		s, err := New(opts)
		require.NoError(t, err)
		rec := &recorder{}
		s.AddObserver(rec)
		tb.sessions[id] = s
		tb.recs[id] = rec
	}

	host := tb.host()
	require.NoError(t, host.OpenLobby())
	for _, id := range tb.ids[1:] {
		host.HandlePeerConnected(id, "player")
	}
	tb.pump()
	return tb
}

func (tb *table) host() *Session { return tb.sessions[hostID] }

func (tb *table) pump() { tb.bus.Pump() }

// start deals roles and starts round one, then delivers everything.
func (tb *table) start() {
	tb.t.Helper()
	require.NoError(tb.t, tb.host().StartGame())
	tb.pump()
}

// impostor returns the single impostor id according to the host.
func (tb *table) impostor() uint64 {
	tb.t.Helper()
	var ids []uint64
	for _, p := range tb.host().Players() {
		if p.Role == roster.RoleImpostor {
			ids = append(ids, p.ID)
		}
	}
	require.Len(tb.t, ids, 1)
	return ids[0]
}

// playClues has every player in the host's turn order submit a clue.
func (tb *table) playClues() {
	tb.t.Helper()
	for _, id := range tb.host().Snapshot().TurnOrder {
		require.NoError(tb.t, tb.sessions[id].SubmitClue("hint"))
		tb.pump()
	}
}

// someoneElse returns an active player that is neither a nor b.
func (tb *table) someoneElse(a, b uint64) uint64 {
	for _, p := range tb.host().Players() {
		if p.ID != a && p.ID != b && !p.Eliminated {
			return p.ID
		}
	}
	tb.t.Fatal("no other player")
	return 0
}
