package game

import (
	"time"

	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/state"
)

// Entry and exit hooks per phase. Authoritative side effects only run on the
// host; clients mirror the phase and keep their local view tidy.

type lobbyPhase struct {
	state.BaseState
	s *Session
}

func (p *lobbyPhase) OnEnter(state.Phase) {
	if p.s.isHost {
		p.s.transport.InitializeConnections(p.s.remoteIDs())
	}
}

type waitingPhase struct {
	state.BaseState
	s *Session
}

func (p *waitingPhase) OnEnter(state.Phase) {
	p.s.checkAllReady()
}

type startingPhase struct {
	state.BaseState
	s *Session
}

func (p *startingPhase) OnEnter(state.Phase) {
	if p.s.isHost {
		p.s.beginGame()
		return
	}
	p.s.roster.ResetForNewGame()
	p.s.localWord = ""
	p.s.mirror.resetRound(0)
	p.s.mirror.impostors = nil
}

type votingPhase struct {
	state.BaseState
	s *Session
}

func (p *votingPhase) OnEnter(state.Phase) {
	s := p.s
	if s.isHost {
		if err := s.votes.StartVoting(s.voteDuration); err != nil {
			logger.Log.Warnf("cannot open voting: %v", err)
		}
		return
	}
	clear(s.mirror.votes)
	s.roster.ResetVotes()
	s.mirror.voteDeadline = s.now().Add(s.voteDuration)
	s.observers.each(func(o Observer) { o.OnVotingStarted(s.mirror.voteDeadline) })
}

func (p *votingPhase) OnUpdate(now time.Time) {
	if p.s.isHost {
		p.s.votes.Tick(now)
	}
}

type resultsPhase struct {
	state.BaseState
	s *Session
}

func (p *resultsPhase) OnEnter(state.Phase) {
	if p.s.isHost {
		p.s.evaluateRound()
	}
}

func (p *resultsPhase) OnExit(state.Phase) {
	p.s.cancelContinue()
}

type endPhase struct {
	state.BaseState
	s *Session
}

func (p *endPhase) OnEnter(state.Phase) {
	if p.s.isHost {
		p.s.announceGameEnd()
	}
}

func (s *Session) registerPhases() {
	s.machine.Register(&lobbyPhase{BaseState: state.BaseState{ID: state.PhaseLobby}, s: s})
	s.machine.Register(&waitingPhase{BaseState: state.BaseState{ID: state.PhaseWaitingForReady}, s: s})
	s.machine.Register(&startingPhase{BaseState: state.BaseState{ID: state.PhaseGameStarting}, s: s})
	s.machine.Register(&votingPhase{BaseState: state.BaseState{ID: state.PhaseVoting}, s: s})
	s.machine.Register(&resultsPhase{BaseState: state.BaseState{ID: state.PhaseRoundResults}, s: s})
	s.machine.Register(&endPhase{BaseState: state.BaseState{ID: state.PhaseGameEnd}, s: s})
}

func (s *Session) remoteIDs() []uint64 {
	ids := s.roster.AllPlayerIDs()
	out := ids[:0]
	for _, id := range ids {
		if id != s.localID {
			out = append(out, id)
		}
	}
	return out
}
