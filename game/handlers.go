package game

import (
	"fmt"

	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/network"
	"github.com/wfunc/impostor/roster"
	"github.com/wfunc/impostor/state"
)

// The host only accepts requests. Everything else it would receive is its own
// kind of traffic echoed back, which the default branch in HandleMessage
// refuses.
func (s *Session) registerHostHandlers() {
	s.handlers[network.MsgTypeReadyState] = s.hostReady
	s.handlers[network.MsgTypeClueSubmitted] = s.hostClue
	s.handlers[network.MsgTypeVoteSubmitted] = s.hostVote
}

func (s *Session) registerClientHandlers() {
	s.handlers[network.MsgTypePlayerJoined] = s.clientPlayerJoined
	s.handlers[network.MsgTypePlayerLeft] = s.clientPlayerLeft
	s.handlers[network.MsgTypeGameStateUpdate] = s.clientStateUpdate
	s.handlers[network.MsgTypeWordAssigned] = s.clientWordAssigned
	s.handlers[network.MsgTypeClueSubmitted] = s.clientClue
	s.handlers[network.MsgTypeVoteSubmitted] = s.clientVote
	s.handlers[network.MsgTypeRoundStart] = s.clientRoundStart
	s.handlers[network.MsgTypeRoundEnd] = s.clientRoundEnd
	s.handlers[network.MsgTypeGameEnd] = s.clientGameEnd
	s.handlers[network.MsgTypeReadyState] = s.clientReady
	s.handlers[network.MsgTypeActionRejected] = s.clientRejected
}

// ---- host ----

func (s *Session) hostReady(from uint64, m network.Message) error {
	msg := m.(network.ReadyState)
	if msg.ID != from {
		return ErrSenderMismatch
	}
	if err := s.roster.SetReady(msg.ID, msg.IsReady); err != nil {
		return err
	}
	s.broadcast(msg)
	s.checkAllReady()
	return nil
}

func (s *Session) hostClue(from uint64, m network.Message) error {
	msg := m.(network.ClueSubmitted)
	if msg.ID != from {
		return ErrSenderMismatch
	}
	return s.rounds.SubmitClue(msg.ID, msg.Clue)
}

func (s *Session) hostVote(from uint64, m network.Message) error {
	msg := m.(network.VoteSubmitted)
	if msg.VoterID != from {
		return ErrSenderMismatch
	}
	return s.votes.CastVote(msg.VoterID, msg.TargetID)
}

// ---- client mirror ----

func (s *Session) clientPlayerJoined(_ uint64, m network.Message) error {
	msg := m.(network.PlayerJoined)
	return s.roster.AddPlayer(msg.ID, msg.Name)
}

func (s *Session) clientPlayerLeft(_ uint64, m network.Message) error {
	msg := m.(network.PlayerLeft)
	if msg.ID == s.localID {
		return nil
	}
	s.roster.RemovePlayer(msg.ID)
	s.mirror.turnOrder = removeID(s.mirror.turnOrder, msg.ID)
	delete(s.mirror.clues, msg.ID)
	delete(s.mirror.votes, msg.ID)
	s.fireClientAllClues()
	return nil
}

func (s *Session) clientStateUpdate(_ uint64, m network.Message) error {
	msg := m.(network.GameStateUpdate)
	phase := state.Phase(msg.Phase)
	if !phase.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPhase, msg.Phase)
	}
	if phase == state.PhaseInGame {
		order, err := network.DecodeIDs(msg.StateData)
		if err != nil {
			return err
		}
		s.mirror.turnOrder = order
	}
	s.machine.Sync(phase)
	return nil
}

func (s *Session) clientWordAssigned(_ uint64, m network.Message) error {
	msg := m.(network.WordAssigned)
	if msg.ID != s.localID {
		return fmt.Errorf("%w: word for player %d", ErrUnexpectedMessage, msg.ID)
	}
	role := roster.RoleCivilian
	s.localWord = msg.Word
	if msg.IsImpostor {
		role = roster.RoleImpostor
		s.localWord = ""
	}
	return s.roster.SetRole(s.localID, role)
}

func (s *Session) clientRoundStart(_ uint64, m network.Message) error {
	msg := m.(network.RoundStart)
	n := int(msg.RoundNumber)
	s.mirror.resetRound(n)
	s.roster.ResetRoundState()
	s.roundsPlayed = n
	word := s.wordForLocal(s.localWord)
	s.observers.each(func(o Observer) { o.OnRoundStarted(n, word) })
	return nil
}

func (s *Session) clientClue(_ uint64, m network.Message) error {
	msg := m.(network.ClueSubmitted)
	if err := s.roster.RecordClue(msg.ID, msg.Clue); err != nil {
		return err
	}
	s.mirror.clues[msg.ID] = msg.Clue
	s.observers.each(func(o Observer) { o.OnClueSubmitted(msg.ID, msg.Clue) })
	s.fireClientAllClues()
	return nil
}

func (s *Session) fireClientAllClues() {
	if s.mirror.allCluesFired || !s.clientAllCluesIn() {
		return
	}
	s.mirror.allCluesFired = true
	s.observers.each(func(o Observer) { o.OnAllCluesSubmitted() })
}

func (s *Session) clientVote(_ uint64, m network.Message) error {
	msg := m.(network.VoteSubmitted)
	if err := s.roster.RecordVote(msg.VoterID, msg.TargetID); err != nil {
		return err
	}
	s.mirror.votes[msg.VoterID] = msg.TargetID
	s.observers.each(func(o Observer) { o.OnVoteCast(msg.VoterID, msg.TargetID) })
	return nil
}

func (s *Session) clientRoundEnd(_ uint64, m network.Message) error {
	msg := m.(network.RoundEnd)
	s.lastEliminated = msg.VotedOutID
	s.lastWasImpostor = msg.WasImpostor
	if msg.VotedOutID != roster.Abstain {
		if err := s.roster.Eliminate(msg.VotedOutID); err != nil {
			logger.Log.Warnf("host eliminated unknown player %d", msg.VotedOutID)
		}
	}
	s.observers.each(func(o Observer) { o.OnVotingEnded(msg.VotedOutID, msg.WasImpostor) })
	return nil
}

func (s *Session) clientGameEnd(_ uint64, m network.Message) error {
	msg := m.(network.GameEnd)
	s.impostorsWon = msg.ImpostorsWon
	s.mirror.impostors = msg.ImpostorIDs
	for _, id := range msg.ImpostorIDs {
		_ = s.roster.SetRole(id, roster.RoleImpostor)
	}
	s.observers.each(func(o Observer) { o.OnGameEnded(msg.ImpostorsWon, msg.ImpostorIDs) })
	return nil
}

func (s *Session) clientReady(_ uint64, m network.Message) error {
	msg := m.(network.ReadyState)
	return s.roster.SetReady(msg.ID, msg.IsReady)
}

func (s *Session) clientRejected(_ uint64, m network.Message) error {
	msg := m.(network.ActionRejected)
	s.observers.each(func(o Observer) { o.OnActionRejected(msg.Action, msg.Reason) })
	return nil
}
