package game

import (
	"slices"
	"time"

	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/network"
	"github.com/wfunc/impostor/roster"
	"github.com/wfunc/impostor/state"
)

// coordinatorEvents turns roster, round and vote notifications into session
// flow and observer calls.
type coordinatorEvents struct{ s *Session }

func (e coordinatorEvents) OnPlayerAdded(p roster.Player) {
	e.s.observers.each(func(o Observer) { o.OnPlayerJoined(p.ID, p.Name) })
}

func (e coordinatorEvents) OnPlayerRemoved(id uint64) {
	e.s.observers.each(func(o Observer) { o.OnPlayerLeft(id) })
}

// OnRoleAssigned only surfaces the local player's role.
func (e coordinatorEvents) OnRoleAssigned(id uint64, role roster.Role) {
	if id != e.s.localID {
		return
	}
	e.s.observers.each(func(o Observer) { o.OnRoleAssigned(id, role) })
}

func (e coordinatorEvents) OnRoundStarted(n int, word string) {
	s := e.s
	s.broadcast(network.RoundStart{RoundNumber: int32(n)})
	local := s.wordForLocal(word)
	s.observers.each(func(o Observer) { o.OnRoundStarted(n, local) })
}

func (e coordinatorEvents) OnClueSubmitted(id uint64, clue string) {
	e.s.observers.each(func(o Observer) { o.OnClueSubmitted(id, clue) })
}

func (e coordinatorEvents) OnAllCluesSubmitted() {
	s := e.s
	s.observers.each(func(o Observer) { o.OnAllCluesSubmitted() })
	if s.machine.Current() == state.PhaseInGame {
		_ = s.changeState(state.PhaseVoting)
	}
}

func (e coordinatorEvents) OnVotingStarted(deadline time.Time) {
	s := e.s
	s.lastEliminated = roster.Abstain
	s.lastWasImpostor = false
	s.observers.each(func(o Observer) { o.OnVotingStarted(deadline) })
}

func (e coordinatorEvents) OnVoteCast(voter, target uint64) {
	e.s.observers.each(func(o Observer) { o.OnVoteCast(voter, target) })
}

func (e coordinatorEvents) OnVotingEnded(eliminated uint64, wasImpostor bool) {
	s := e.s
	s.lastEliminated = eliminated
	s.lastWasImpostor = wasImpostor
	if eliminated != roster.Abstain {
		if err := s.roster.Eliminate(eliminated); err != nil {
			logger.Log.Warnf("eliminate %d: %v", eliminated, err)
		}
	}
	s.observers.each(func(o Observer) { o.OnVotingEnded(eliminated, wasImpostor) })
	if s.machine.Current() == state.PhaseVoting {
		_ = s.changeState(state.PhaseRoundResults)
	}
}

// wordForLocal hides the secret word from a local impostor.
func (s *Session) wordForLocal(word string) string {
	p, ok := s.roster.GetPlayer(s.localID)
	if !ok || p.Role != roster.RoleCivilian {
		return ""
	}
	return word
}

func (s *Session) clientAllCluesIn() bool {
	if len(s.mirror.turnOrder) == 0 {
		return false
	}
	for _, id := range s.mirror.turnOrder {
		if _, ok := s.mirror.clues[id]; !ok {
			return false
		}
	}
	return true
}

func (s *Session) clientCurrentPlayer() (uint64, bool) {
	for _, id := range s.mirror.turnOrder {
		if _, ok := s.mirror.clues[id]; !ok {
			return id, true
		}
	}
	return 0, false
}

func removeID(ids []uint64, id uint64) []uint64 {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}
