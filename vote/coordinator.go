// Package vote runs the timed voting window that closes each round.
package vote

import (
	"fmt"
	"time"

	"github.com/wfunc/impostor/errs"
	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/network"
	"github.com/wfunc/impostor/roster"
)

var (
	ErrNoPlayers     = fmt.Errorf("%w: roster is empty", errs.ErrResource)
	ErrVotingClosed  = fmt.Errorf("%w: voting is not open", errs.ErrState)
	ErrUnknownVoter  = fmt.Errorf("%w: voter is not an active player", errs.ErrValidation)
	ErrInvalidTarget = fmt.Errorf("%w: vote target is not an active player", errs.ErrValidation)
	ErrAlreadyVoted  = fmt.Errorf("%w: already voted", errs.ErrValidation)
)

// Sender broadcasts vote results.
type Sender interface {
	Broadcast(m network.Message)
}

type Listener interface {
	OnVotingStarted(deadline time.Time)
	OnVoteCast(voter, target uint64)
	OnVotingEnded(eliminated uint64, wasImpostor bool)
}

// Result is the outcome of a closed vote. Eliminated is roster.Abstain when
// nobody was voted out.
type Result struct {
	Eliminated  uint64
	WasImpostor bool
	Counts      map[uint64]int
}

type Coordinator struct {
	roster *roster.Roster
	sender Sender
	now    func() time.Time

	votes    map[uint64]uint64
	deadline time.Time
	open     bool
	last     *Result

	listeners []Listener
}

func NewCoordinator(r *roster.Roster, sender Sender) *Coordinator {
	return &Coordinator{
		roster: r,
		sender: sender,
		now:    time.Now,
		votes:  make(map[uint64]uint64),
	}
}

// SetClock replaces the time source used for deadlines.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Coordinator) AddListener(l Listener) {
	c.listeners = append(c.listeners, l)
}

// StartVoting opens a fresh window that closes after d, or earlier once every
// active player has voted.
func (c *Coordinator) StartVoting(d time.Duration) error {
	if c.roster == nil || c.roster.Count() == 0 {
		return ErrNoPlayers
	}

	clear(c.votes)
	c.last = nil
	c.deadline = c.now().Add(d)
	c.open = true
	c.roster.ResetVotes()

	logger.Log.Infof("voting opened for %s", d)
	for _, l := range c.listeners {
		l.OnVotingStarted(c.deadline)
	}
	return nil
}

// CastVote records voter's choice. target may be roster.Abstain.
func (c *Coordinator) CastVote(voter, target uint64) error {
	if !c.open {
		return ErrVotingClosed
	}
	if !c.roster.IsActive(voter) {
		return ErrUnknownVoter
	}
	if target != roster.Abstain && !c.roster.IsActive(target) {
		return ErrInvalidTarget
	}
	if _, ok := c.votes[voter]; ok {
		return ErrAlreadyVoted
	}

	if err := c.roster.RecordVote(voter, target); err != nil {
		return err
	}
	c.votes[voter] = target
	c.sender.Broadcast(network.VoteSubmitted{VoterID: voter, TargetID: target})
	for _, l := range c.listeners {
		l.OnVoteCast(voter, target)
	}

	if c.everyoneVoted() {
		c.EndVoting()
	}
	return nil
}

func (c *Coordinator) everyoneVoted() bool {
	for _, id := range c.roster.ActiveIDs() {
		if _, ok := c.votes[id]; !ok {
			return false
		}
	}
	return true
}

// Tick closes the window once the deadline has passed.
func (c *Coordinator) Tick(now time.Time) {
	if c.open && !now.Before(c.deadline) {
		logger.Log.Infof("voting deadline reached with %d votes", len(c.votes))
		c.EndVoting()
	}
}

// EndVoting closes the window and announces the result. Calling it while
// closed does nothing.
func (c *Coordinator) EndVoting() {
	if !c.open {
		return
	}
	c.open = false

	counts := c.GetVoteCounts()
	eliminated := Tally(counts)
	wasImpostor := false
	if eliminated != roster.Abstain {
		if p, ok := c.roster.GetPlayer(eliminated); ok {
			wasImpostor = p.Role == roster.RoleImpostor
		}
	}
	c.last = &Result{Eliminated: eliminated, WasImpostor: wasImpostor, Counts: counts}

	logger.Log.Infof("voting closed: eliminated=%d impostor=%t counts=%v", eliminated, wasImpostor, counts)
	c.sender.Broadcast(network.RoundEnd{VotedOutID: eliminated, WasImpostor: wasImpostor})
	for _, l := range c.listeners {
		l.OnVotingEnded(eliminated, wasImpostor)
	}
}

// Tally returns the unique most-voted target, or roster.Abstain when there is
// no vote or the top count is shared.
func Tally(counts map[uint64]int) uint64 {
	best, top, tied := roster.Abstain, 0, false
	for target, n := range counts {
		switch {
		case n > top:
			best, top, tied = target, n, false
		case n == top:
			tied = true
		}
	}
	if top == 0 || tied {
		return roster.Abstain
	}
	return best
}

// RemovePlayer reconciles a departure: the player's own vote is dropped and
// votes cast against them count as abstentions. Voting ends if everyone left
// has voted.
func (c *Coordinator) RemovePlayer(id uint64) {
	if !c.open {
		return
	}
	delete(c.votes, id)
	for voter, target := range c.votes {
		if target == id {
			c.votes[voter] = roster.Abstain
			_ = c.roster.RecordVote(voter, roster.Abstain)
		}
	}
	if c.everyoneVoted() {
		c.EndVoting()
	}
}

// GetVoteCounts returns per-target tallies, abstentions excluded.
func (c *Coordinator) GetVoteCounts() map[uint64]int {
	counts := make(map[uint64]int)
	for _, target := range c.votes {
		if target != roster.Abstain {
			counts[target]++
		}
	}
	return counts
}

// Votes returns voter to target, in no particular order.
func (c *Coordinator) Votes() map[uint64]uint64 {
	out := make(map[uint64]uint64, len(c.votes))
	for k, v := range c.votes {
		out[k] = v
	}
	return out
}

func (c *Coordinator) IsOpen() bool        { return c.open }
func (c *Coordinator) Deadline() time.Time { return c.deadline }
func (c *Coordinator) VoteCount() int      { return len(c.votes) }
func (c *Coordinator) LastResult() *Result { return c.last }

// Remaining is zero when closed or past the deadline.
func (c *Coordinator) Remaining(now time.Time) time.Duration {
	if !c.open || !now.Before(c.deadline) {
		return 0
	}
	return c.deadline.Sub(now)
}

// Cancel closes the window without a result, for a game that ended early.
func (c *Coordinator) Cancel() {
	c.open = false
}
