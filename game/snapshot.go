package game

import (
	"maps"
	"slices"
	"time"

	"github.com/wfunc/impostor/roster"
	"github.com/wfunc/impostor/state"
)

// Snapshot is a read-only copy of what this peer knows. On the host Players
// carries every role; presentation code should only show LocalRole.
type Snapshot struct {
	LobbyID       string
	LocalID       uint64
	IsHost        bool
	Phase         state.Phase
	RoundNumber   int
	RoundsPlayed  int
	MaxRounds     int
	TurnOrder     []uint64
	CurrentPlayer uint64
	Clues         map[uint64]string
	VoteCounts    map[uint64]int
	VoteRemaining time.Duration
	Players       []roster.Player
	LocalRole     roster.Role
	LocalWord     string
	ImpostorsWon  bool
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		LobbyID:      s.lobbyID.String(),
		LocalID:      s.localID,
		IsHost:       s.isHost,
		Phase:        s.machine.Current(),
		RoundsPlayed: s.roundsPlayed,
		MaxRounds:    s.maxRounds,
		Players:      s.roster.Players(),
		LocalWord:    s.localWord,
		ImpostorsWon: s.impostorsWon,
	}
	if p, ok := s.roster.GetPlayer(s.localID); ok {
		snap.LocalRole = p.Role
	}

	now := s.now()
	if s.isHost {
		snap.RoundNumber = s.rounds.RoundNumber()
		snap.TurnOrder = s.rounds.TurnOrder()
		snap.CurrentPlayer, _ = s.rounds.CurrentPlayer()
		snap.Clues = s.rounds.GetAllClues()
		snap.VoteCounts = s.votes.GetVoteCounts()
		snap.VoteRemaining = s.votes.Remaining(now)
		return snap
	}

	snap.RoundNumber = s.mirror.roundNumber
	snap.TurnOrder = slices.Clone(s.mirror.turnOrder)
	snap.CurrentPlayer, _ = s.clientCurrentPlayer()
	snap.Clues = maps.Clone(s.mirror.clues)
	snap.VoteCounts = make(map[uint64]int)
	for _, target := range s.mirror.votes {
		if target != roster.Abstain {
			snap.VoteCounts[target]++
		}
	}
	if snap.Phase == state.PhaseVoting && now.Before(s.mirror.voteDeadline) {
		snap.VoteRemaining = s.mirror.voteDeadline.Sub(now)
	}
	return snap
}
