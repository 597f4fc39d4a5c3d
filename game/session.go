// Package game sequences a match: lobby, role dealing, clue rounds, votes and
// the final verdict. The host's Session is authoritative; a client's Session
// mirrors what the host broadcasts and forwards local actions to it.
package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/impostor/broadcast"
	"github.com/wfunc/impostor/errs"
	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/network"
	"github.com/wfunc/impostor/roster"
	"github.com/wfunc/impostor/round"
	"github.com/wfunc/impostor/state"
	"github.com/wfunc/impostor/timer"
	"github.com/wfunc/impostor/vote"
)

var (
	ErrNotHost           = fmt.Errorf("%w: only the host can do that", errs.ErrState)
	ErrWrongPhase        = fmt.Errorf("%w: not allowed in the current phase", errs.ErrState)
	ErrSenderMismatch    = fmt.Errorf("%w: payload id does not match sender", errs.ErrValidation)
	ErrUnexpectedMessage = fmt.Errorf("%w: unexpected message", errs.ErrValidation)
	ErrInvalidPhase      = fmt.Errorf("%w: unknown phase", errs.ErrValidation)
)

type handlerFunc func(from uint64, m network.Message) error

// Session is confined to one goroutine (see room.Room). It holds no locks.
type Session struct {
	ctx       context.Context
	localID   uint64
	localName string
	hostID    uint64
	isHost    bool
	lobbyID   uuid.UUID
	transport broadcast.Transport
	now       func() time.Time

	roster  *roster.Roster
	rounds  *round.Coordinator
	votes   *vote.Coordinator
	machine *state.Machine
	timers  *timer.Queue

	handlers  map[network.MessageType]handlerFunc
	observers observers

	maxRounds     int
	voteDuration  time.Duration
	autoContinue  time.Duration
	rejectReplies bool

	roundsPlayed    int
	lastEliminated  uint64
	lastWasImpostor bool
	impostorsWon    bool
	continueTimer   int64
	startedAt       time.Time
	localWord       string

	mirror mirror
}

// mirror is what a client knows about the host's round and vote state.
type mirror struct {
	roundNumber   int
	turnOrder     []uint64
	clues         map[uint64]string
	allCluesFired bool
	votes         map[uint64]uint64
	voteDeadline  time.Time
	impostors     []uint64
}

func (m *mirror) resetRound(n int) {
	m.roundNumber = n
	m.turnOrder = nil
	m.clues = make(map[uint64]string)
	m.allCluesFired = false
}

// New builds a session with the local player already on the roster, sitting
// in MainMenu.
func New(opts Options) (*Session, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.setDefaults()

	s := &Session{
		ctx:           opts.Context,
		localID:       opts.LocalID,
		localName:     opts.LocalName,
		hostID:        opts.HostID,
		isHost:        opts.IsHost,
		lobbyID:       opts.LobbyID,
		transport:     opts.Transport,
		now:           opts.Clock,
		roster:        roster.New(),
		machine:       state.NewMachine(state.PhaseMainMenu),
		timers:        timer.NewQueue(),
		handlers:      make(map[network.MessageType]handlerFunc),
		maxRounds:     opts.MaxRounds,
		voteDuration:  opts.VoteDuration,
		autoContinue:  opts.AutoContinueDelay,
		rejectReplies: opts.RejectReplies,
	}
	s.mirror.resetRound(0)
	s.mirror.votes = make(map[uint64]uint64)

	out := outbox{s}
	events := coordinatorEvents{s}
	s.rounds = round.NewCoordinator(s.roster, opts.Words, out)
	s.votes = vote.NewCoordinator(s.roster, out)
	s.votes.SetClock(s.now)
	s.rounds.AddListener(events)
	s.votes.AddListener(events)
	s.roster.AddListener(events)

	s.registerPhases()
	s.machine.AddListener(s.onPhaseChanged)
	if s.isHost {
		s.registerHostHandlers()
	} else {
		s.registerClientHandlers()
	}

	if err := s.roster.AddPlayer(s.localID, s.localName); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
	// Observers registered late still learn who is already here.
	for _, p := range s.roster.Players() {
		o.OnPlayerJoined(p.ID, p.Name)
	}
}

func (s *Session) LocalID() uint64      { return s.localID }
func (s *Session) IsHost() bool         { return s.isHost }
func (s *Session) LobbyID() uuid.UUID   { return s.lobbyID }
func (s *Session) Phase() state.Phase   { return s.machine.Current() }
func (s *Session) RoundsPlayed() int    { return s.roundsPlayed }
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Player returns a copy of one roster entry.
func (s *Session) Player(id uint64) (roster.Player, bool) {
	return s.roster.GetPlayer(id)
}

// Players returns copies of every roster entry in join order.
func (s *Session) Players() []roster.Player {
	return s.roster.Players()
}

// ---- local actions ----

// OpenLobby moves from the main menu into the lobby.
func (s *Session) OpenLobby() error {
	return s.machine.ChangeState(state.PhaseLobby)
}

// BeginReadyCheck moves the lobby into the ready check.
func (s *Session) BeginReadyCheck() error {
	if !s.isHost {
		return ErrNotHost
	}
	return s.machine.ChangeState(state.PhaseWaitingForReady)
}

// StartGame deals roles and starts the first round without waiting for
// everyone to be ready.
func (s *Session) StartGame() error {
	if !s.isHost {
		return ErrNotHost
	}
	if n := s.roster.Count(); n < round.MinPlayers {
		return fmt.Errorf("%w: have %d", round.ErrNotEnoughPlayers, n)
	}
	if ph := s.machine.Current(); ph != state.PhaseLobby && ph != state.PhaseWaitingForReady {
		return fmt.Errorf("%w: %s", ErrWrongPhase, ph)
	}
	return s.machine.ChangeState(state.PhaseGameStarting)
}

func (s *Session) SetReady(ready bool) error {
	if err := s.roster.SetReady(s.localID, ready); err != nil {
		return err
	}
	msg := network.ReadyState{ID: s.localID, IsReady: ready}
	if !s.isHost {
		return s.sendToHost(msg)
	}
	s.broadcast(msg)
	s.checkAllReady()
	return nil
}

func (s *Session) SubmitClue(clue string) error {
	if s.isHost {
		return s.rounds.SubmitClue(s.localID, clue)
	}
	if s.machine.Current() != state.PhaseInGame {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.machine.Current())
	}
	return s.sendToHost(network.ClueSubmitted{ID: s.localID, Clue: clue})
}

// CastVote votes for target, or abstains with roster.Abstain.
func (s *Session) CastVote(target uint64) error {
	if s.isHost {
		return s.votes.CastVote(s.localID, target)
	}
	if s.machine.Current() != state.PhaseVoting {
		return fmt.Errorf("%w: %s", ErrWrongPhase, s.machine.Current())
	}
	return s.sendToHost(network.VoteSubmitted{VoterID: s.localID, TargetID: target})
}

// NextRound leaves RoundResults for a fresh round. If too few players remain
// to play one, the impostors win.
func (s *Session) NextRound() error {
	if !s.isHost {
		return ErrNotHost
	}
	if ph := s.machine.Current(); ph != state.PhaseRoundResults {
		return fmt.Errorf("%w: %s", ErrWrongPhase, ph)
	}
	s.cancelContinue()
	if err := s.startRound(); err != nil {
		if errors.Is(err, errs.ErrResource) {
			s.endGame(true)
		}
		return err
	}
	return s.changeState(state.PhaseInGame)
}

// Tick runs due timers and the current phase's per-tick work.
func (s *Session) Tick(now time.Time) {
	s.timers.Advance(now)
	s.machine.Update(now)
}

// ---- membership ----

// HandlePeerConnected adds a peer to the roster. The host also brings the
// newcomer up to date: existing members, their readiness and the phase.
func (s *Session) HandlePeerConnected(id uint64, name string) {
	if id == s.localID {
		return
	}
	known := s.roster.Contains(id)
	if !known {
		if err := s.roster.AddPlayer(id, name); err != nil {
			logger.Log.Warnf("rejecting peer %d: %v", id, err)
			return
		}
	}
	if !s.isHost {
		return
	}

	phase := s.machine.Current()
	if !known && inGame(phase) {
		// Late joiners watch until the next game.
		_ = s.roster.Eliminate(id)
	}
	for _, p := range s.roster.Players() {
		if p.ID == id {
			continue
		}
		s.sendTo(id, network.PlayerJoined{ID: p.ID, Name: p.Name})
		if p.Ready {
			s.sendTo(id, network.ReadyState{ID: p.ID, IsReady: true})
		}
	}
	s.sendTo(id, network.GameStateUpdate{Phase: int32(phase), StateData: s.stateData(phase)})
	if known {
		logger.Log.Infof("peer %d (%s) reconnected to lobby %s", id, name, s.lobbyID)
		return
	}
	s.broadcast(network.PlayerJoined{ID: id, Name: name})
	logger.Log.Infof("peer %d (%s) joined lobby %s, %d players", id, name, s.lobbyID, s.roster.Count())
}

// HandlePeerDisconnected removes a peer and reconciles any turn or vote that
// was waiting on them.
func (s *Session) HandlePeerDisconnected(id uint64) {
	if id == s.localID {
		return
	}
	if !s.isHost {
		if id == s.hostID {
			logger.Log.Warnf("lost connection to host %d", id)
			s.roster.Clear()
			_ = s.roster.AddPlayer(s.localID, s.localName)
			s.machine.Sync(state.PhaseMainMenu)
		}
		return
	}
	if !s.roster.RemovePlayer(id) {
		return
	}
	s.broadcast(network.PlayerLeft{ID: id})
	logger.Log.Infof("peer %d left lobby %s, %d players", id, s.lobbyID, s.roster.Count())

	switch s.machine.Current() {
	case state.PhaseInGame, state.PhaseVoting, state.PhaseRoundResults:
		if s.checkDepartureWin() {
			return
		}
		s.rounds.RemovePlayer(id)
		s.votes.RemovePlayer(id)
	case state.PhaseLobby, state.PhaseWaitingForReady:
		s.checkAllReady()
	}
}

// ---- inbound ----

// HandleMessage decodes and routes one frame from peer from. Malformed frames
// and refused requests are logged and returned; the session is unchanged by
// either.
func (s *Session) HandleMessage(from uint64, data []byte) error {
	msg, err := network.Decode(data)
	if err != nil {
		logger.Log.Warnf("discarding malformed message from %d: %v", from, err)
		return err
	}

	h, ok := s.handlers[msg.Type()]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnexpectedMessage, msg.Type())
	} else {
		err = h(from, msg)
	}
	if err != nil {
		s.reject(from, msg.Type(), err)
	}
	return err
}

func (s *Session) reject(from uint64, t network.MessageType, err error) {
	logger.Log.Warnf("rejected %s from %d: %v", t, from, err)
	if !s.isHost || !s.rejectReplies || from == s.localID || !errs.IsRejection(err) {
		return
	}
	s.sendTo(from, network.ActionRejected{ID: from, Action: t.String(), Reason: err.Error()})
}

// ---- host flow ----

func (s *Session) checkAllReady() {
	if !s.isHost {
		return
	}
	if ph := s.machine.Current(); ph != state.PhaseLobby && ph != state.PhaseWaitingForReady {
		return
	}
	if s.roster.Count() < round.MinPlayers || !s.roster.AllReady() {
		return
	}
	logger.Log.Infof("all %d players ready", s.roster.Count())
	_ = s.changeState(state.PhaseGameStarting)
}

// beginGame runs on entering GameStarting.
func (s *Session) beginGame() {
	s.roster.ResetForNewGame()
	s.rounds.Reset()
	s.roundsPlayed = 0
	s.impostorsWon = false
	s.lastEliminated = roster.Abstain

	impostors := max(1, s.roster.Count()/4)
	if err := s.roster.AssignRoles(impostors); err != nil {
		logger.Log.Warnf("cannot deal roles: %v", err)
		s.machine.Sync(state.PhaseLobby)
		return
	}
	s.startedAt = s.now()
	if err := s.startRound(); err != nil {
		logger.Log.Warnf("cannot start first round: %v", err)
		s.machine.Sync(state.PhaseLobby)
		return
	}
	logger.Log.Infof("game started in lobby %s: %d players, %d impostors", s.lobbyID, s.roster.Count(), impostors)
	_ = s.changeState(state.PhaseInGame)
}

func (s *Session) startRound() error {
	s.roundsPlayed++
	if err := s.rounds.StartRound(); err != nil {
		s.roundsPlayed--
		return err
	}
	return nil
}

// evaluateRound runs on entering RoundResults.
func (s *Session) evaluateRound() {
	eliminated := s.lastEliminated != roster.Abstain
	switch {
	case eliminated && s.lastWasImpostor && len(s.roster.Impostors()) == 0:
		s.endGame(false)
	case eliminated && !s.lastWasImpostor && len(s.roster.Civilians()) <= 1:
		s.endGame(true)
	case s.roundsPlayed >= s.maxRounds:
		s.endGame(true)
	case s.autoContinue > 0:
		s.continueTimer = s.timers.After(s.now(), s.autoContinue, func() {
			s.continueTimer = 0
			if err := s.NextRound(); err != nil {
				logger.Log.Warnf("auto continue: %v", err)
			}
		})
	}
}

func (s *Session) cancelContinue() {
	if s.continueTimer != 0 {
		s.timers.Cancel(s.continueTimer)
		s.continueTimer = 0
	}
}

// checkDepartureWin ends the game when a departure leaves one side unable to
// win.
func (s *Session) checkDepartureWin() bool {
	switch {
	case len(s.roster.Impostors()) == 0:
		logger.Log.Infof("no impostors left after departure")
		s.endGame(false)
	case len(s.roster.Civilians()) <= 1:
		logger.Log.Infof("too few civilians left after departure")
		s.endGame(true)
	default:
		return false
	}
	return true
}

func (s *Session) endGame(impostorsWon bool) {
	s.impostorsWon = impostorsWon
	s.rounds.EndRound()
	s.votes.Cancel()
	s.cancelContinue()
	_ = s.changeState(state.PhaseGameEnd)
}

// announceGameEnd runs on entering GameEnd.
func (s *Session) announceGameEnd() {
	impostors := s.roster.AllImpostors()
	logger.Log.Infof("game over in lobby %s after %d rounds: impostors won=%t", s.lobbyID, s.roundsPlayed, s.impostorsWon)
	s.broadcast(network.GameEnd{ImpostorsWon: s.impostorsWon, ImpostorIDs: impostors})
	s.observers.each(func(o Observer) { o.OnGameEnded(s.impostorsWon, slices.Clone(impostors)) })
}

func (s *Session) changeState(p state.Phase) error {
	err := s.machine.ChangeState(p)
	if err != nil {
		logger.Log.Warnf("phase change refused: %v", err)
	}
	return err
}

func (s *Session) onPhaseChanged(from, to state.Phase) {
	logger.Log.Debugf("phase %s -> %s", from, to)
	if s.isHost {
		s.broadcast(network.GameStateUpdate{Phase: int32(to), StateData: s.stateData(to)})
	}
	s.observers.each(func(o Observer) { o.OnStateChanged(from, to) })
}

// stateData carries the turn order with InGame updates.
func (s *Session) stateData(p state.Phase) []byte {
	if p != state.PhaseInGame {
		return nil
	}
	return network.EncodeIDs(s.rounds.TurnOrder())
}

func inGame(p state.Phase) bool {
	switch p {
	case state.PhaseGameStarting, state.PhaseInGame, state.PhaseVoting, state.PhaseRoundResults:
		return true
	}
	return false
}

// ---- outbound ----

func (s *Session) sendTo(id uint64, m network.Message) {
	if id == s.localID {
		s.applyLocal(m)
		return
	}
	if err := s.transport.SendTo(s.ctx, id, network.Encode(m)); err != nil {
		logger.Log.Warnf("send %s to %d: %v", m.Type(), id, err)
	}
}

func (s *Session) sendToHost(m network.Message) error {
	if err := s.transport.SendTo(s.ctx, s.hostID, network.Encode(m)); err != nil {
		return fmt.Errorf("send %s to host: %w", m.Type(), err)
	}
	return nil
}

// broadcast reaches every peer but this one. The host never sends to itself.
func (s *Session) broadcast(m network.Message) {
	if err := s.transport.Broadcast(s.ctx, network.Encode(m), s.localID); err != nil {
		logger.Log.Warnf("broadcast %s: %v", m.Type(), err)
	}
}

// applyLocal handles a private message the host addressed to itself.
func (s *Session) applyLocal(m network.Message) {
	if wa, ok := m.(network.WordAssigned); ok {
		s.localWord = ""
		if !wa.IsImpostor {
			s.localWord = wa.Word
		}
	}
}

// outbox lets the coordinators send through the session.
type outbox struct{ s *Session }

func (o outbox) SendTo(id uint64, m network.Message) { o.s.sendTo(id, m) }
func (o outbox) Broadcast(m network.Message)         { o.s.broadcast(m) }
