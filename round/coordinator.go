// Package round runs the clue-giving half of a round: secret word
// distribution, turn order and clue collection.
package round

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/wfunc/impostor/errs"
	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/network"
	"github.com/wfunc/impostor/roster"
)

const (
	MinPlayers     = 4
	MaxClueLength  = 50
	ImpostorMarker = "IMPOSTOR"
)

var (
	ErrNotEnoughPlayers   = fmt.Errorf("%w: at least %d players are required", errs.ErrResource, MinPlayers)
	ErrRoundNotInProgress = fmt.Errorf("%w: no round in progress", errs.ErrState)
	ErrNotYourTurn        = fmt.Errorf("%w: not your turn", errs.ErrValidation)
	ErrInvalidClue        = fmt.Errorf("%w: clue must be 1 to %d characters", errs.ErrValidation, MaxClueLength)
	ErrAlreadySubmitted   = fmt.Errorf("%w: clue already submitted this round", errs.ErrValidation)
)

// Sender delivers outbound messages. SendTo is point-to-point; it is the only
// way a secret word leaves the coordinator.
type Sender interface {
	SendTo(id uint64, m network.Message)
	Broadcast(m network.Message)
}

// WordSource supplies the secret word for each round.
type WordSource interface {
	GetRandomWord() string
}

// Listener is notified from inside the coordinator calls that cause each event.
type Listener interface {
	OnRoundStarted(round int, word string)
	OnClueSubmitted(id uint64, clue string)
	OnAllCluesSubmitted()
}

type Coordinator struct {
	roster *roster.Roster
	words  WordSource
	sender Sender

	roundNumber int
	secretWord  string
	turnOrder   []uint64
	turnIndex   int
	clues       map[uint64]string

	listeners []Listener
}

func NewCoordinator(r *roster.Roster, words WordSource, sender Sender) *Coordinator {
	return &Coordinator{
		roster: r,
		words:  words,
		sender: sender,
		clues:  make(map[uint64]string),
	}
}

func (c *Coordinator) AddListener(l Listener) {
	c.listeners = append(c.listeners, l)
}

// StartRound deals a fresh word, shuffles the active players into a turn
// order and privately tells each player what they may know.
func (c *Coordinator) StartRound() error {
	if c.roster.Count() < MinPlayers {
		return fmt.Errorf("%w: have %d", ErrNotEnoughPlayers, c.roster.Count())
	}

	c.roundNumber++
	c.secretWord = c.words.GetRandomWord()

	c.turnOrder = c.roster.ActiveIDs()
	rand.Shuffle(len(c.turnOrder), func(i, j int) {
		c.turnOrder[i], c.turnOrder[j] = c.turnOrder[j], c.turnOrder[i]
	})
	c.turnIndex = 0
	clear(c.clues)
	c.roster.ResetRoundState()

	for _, p := range c.roster.Players() {
		var msg network.WordAssigned
		switch p.Role {
		case roster.RoleCivilian:
			msg = network.WordAssigned{ID: p.ID, Word: c.secretWord}
		case roster.RoleImpostor:
			msg = network.WordAssigned{ID: p.ID, Word: ImpostorMarker, IsImpostor: true}
		default:
			// spectators get nothing
			continue
		}
		c.sender.SendTo(p.ID, msg)
	}

	logger.Log.Infof("round %d started with %d players in turn order", c.roundNumber, len(c.turnOrder))
	for _, l := range c.listeners {
		l.OnRoundStarted(c.roundNumber, c.secretWord)
	}
	return nil
}

// SubmitClue accepts a clue from the player whose turn it is. A rejected clue
// leaves every piece of state untouched.
func (c *Coordinator) SubmitClue(id uint64, clue string) error {
	if !c.InProgress() {
		return ErrRoundNotInProgress
	}
	if c.turnOrder[c.turnIndex] != id {
		return ErrNotYourTurn
	}
	n := utf8.RuneCountInString(clue)
	if n > MaxClueLength || strings.TrimSpace(clue) == "" {
		return fmt.Errorf("%w: got %d", ErrInvalidClue, n)
	}
	if _, ok := c.clues[id]; ok {
		return ErrAlreadySubmitted
	}

	if err := c.roster.RecordClue(id, clue); err != nil {
		return err
	}
	c.clues[id] = clue
	c.sender.Broadcast(network.ClueSubmitted{ID: id, Clue: clue})
	for _, l := range c.listeners {
		l.OnClueSubmitted(id, clue)
	}

	c.turnIndex++
	if c.turnIndex == len(c.turnOrder) {
		c.finish()
	}
	return nil
}

func (c *Coordinator) finish() {
	logger.Log.Infof("round %d: all %d clues submitted", c.roundNumber, len(c.clues))
	for _, l := range c.listeners {
		l.OnAllCluesSubmitted()
	}
}

// RemovePlayer drops a departed player from the turn order. If they were the
// last player still owing a clue the round completes.
func (c *Coordinator) RemovePlayer(id uint64) {
	pos := slices.Index(c.turnOrder, id)
	if pos < 0 {
		return
	}
	wasInProgress := c.InProgress()

	c.turnOrder = slices.Delete(c.turnOrder, pos, pos+1)
	delete(c.clues, id)
	if pos < c.turnIndex {
		c.turnIndex--
	}

	if wasInProgress {
		logger.Log.Infof("round %d: skipped departed player %d", c.roundNumber, id)
		if !c.InProgress() {
			c.finish()
		}
	}
}

// EndRound abandons the current round without firing completion.
func (c *Coordinator) EndRound() {
	c.turnIndex = len(c.turnOrder)
}

// Reset returns the coordinator to its initial state, round counter included.
func (c *Coordinator) Reset() {
	c.roundNumber = 0
	c.secretWord = ""
	c.turnOrder = nil
	c.turnIndex = 0
	clear(c.clues)
}

func (c *Coordinator) InProgress() bool {
	return c.turnIndex < len(c.turnOrder)
}

// CurrentPlayer returns the id whose turn it is, or false when idle.
func (c *Coordinator) CurrentPlayer() (uint64, bool) {
	if !c.InProgress() {
		return 0, false
	}
	return c.turnOrder[c.turnIndex], true
}

func (c *Coordinator) GetAllClues() map[uint64]string {
	out := make(map[uint64]string, len(c.clues))
	for id, clue := range c.clues {
		out[id] = clue
	}
	return out
}

func (c *Coordinator) TurnOrder() []uint64 {
	return slices.Clone(c.turnOrder)
}

func (c *Coordinator) CurrentTurnIndex() int { return c.turnIndex }
func (c *Coordinator) RoundNumber() int      { return c.roundNumber }
func (c *Coordinator) SecretWord() string    { return c.secretWord }
