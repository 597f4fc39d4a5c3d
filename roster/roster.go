// Package roster tracks the participants of a session in join order.
package roster

import (
	"fmt"
	"math/rand/v2"

	"github.com/wfunc/impostor/errs"
)

var (
	ErrNotEnoughPlayers = fmt.Errorf("%w: not enough players for role assignment", errs.ErrResource)
	ErrInvalidID        = fmt.Errorf("%w: player id 0 is reserved", errs.ErrValidation)
	ErrUnknownPlayer    = fmt.Errorf("%w: unknown player", errs.ErrValidation)
)

// Listener receives membership and role notifications. Each change fires once.
type Listener interface {
	OnPlayerAdded(p Player)
	OnPlayerRemoved(id uint64)
	OnRoleAssigned(id uint64, role Role)
}

// Roster is owned by a single session and is not safe for concurrent use.
type Roster struct {
	order     []uint64
	players   map[uint64]*Player
	listeners []Listener
}

func New() *Roster {
	return &Roster{players: make(map[uint64]*Player)}
}

func (r *Roster) AddListener(l Listener) {
	r.listeners = append(r.listeners, l)
}

// AddPlayer appends a new player. Adding a known id is a no-op that returns nil.
func (r *Roster) AddPlayer(id uint64, name string) error {
	if id == Abstain {
		return ErrInvalidID
	}
	if _, ok := r.players[id]; ok {
		return nil
	}
	p := &Player{ID: id, Name: name}
	r.players[id] = p
	r.order = append(r.order, id)
	for _, l := range r.listeners {
		l.OnPlayerAdded(*p)
	}
	return nil
}

// RemovePlayer reports whether id was present.
func (r *Roster) RemovePlayer(id uint64) bool {
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	for _, l := range r.listeners {
		l.OnPlayerRemoved(id)
	}
	return true
}

// AssignRoles makes every player a Civilian, then deals impostorCount distinct
// Impostors uniformly at random.
func (r *Roster) AssignRoles(impostorCount int) error {
	if impostorCount < 1 || len(r.order) < impostorCount+1 {
		return fmt.Errorf("%w: %d players, %d impostors", ErrNotEnoughPlayers, len(r.order), impostorCount)
	}

	for _, p := range r.players {
		p.Role = RoleCivilian
	}

	// Partial Fisher-Yates: the first impostorCount slots are the pick.
	ids := r.AllPlayerIDs()
	for i := 0; i < impostorCount; i++ {
		j := i + rand.IntN(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
		r.players[ids[i]].Role = RoleImpostor
	}

	for _, id := range r.order {
		role := r.players[id].Role
		for _, l := range r.listeners {
			l.OnRoleAssigned(id, role)
		}
	}
	return nil
}

// SetRole sets a single player's role. Clients use it to mirror the role the
// host dealt them.
func (r *Roster) SetRole(id uint64, role Role) error {
	p, ok := r.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.Role == role {
		return nil
	}
	p.Role = role
	for _, l := range r.listeners {
		l.OnRoleAssigned(id, role)
	}
	return nil
}

// ResetRoundState clears clue and vote flags for everyone.
func (r *Roster) ResetRoundState() {
	for _, p := range r.players {
		p.HasSubmittedClue = false
		p.Clue = ""
		p.HasVoted = false
		p.VoteTarget = Abstain
	}
}

func (r *Roster) ResetVotes() {
	for _, p := range r.players {
		p.HasVoted = false
		p.VoteTarget = Abstain
	}
}

// ResetForNewGame clears roles, eliminations and per-round state but keeps
// membership and readiness.
func (r *Roster) ResetForNewGame() {
	r.ResetRoundState()
	for _, p := range r.players {
		p.Role = RoleNone
		p.Eliminated = false
	}
}

func (r *Roster) SetReady(id uint64, ready bool) error {
	p, ok := r.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	p.Ready = ready
	return nil
}

// AllReady is false for an empty roster.
func (r *Roster) AllReady() bool {
	if len(r.order) == 0 {
		return false
	}
	for _, p := range r.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (r *Roster) RecordClue(id uint64, clue string) error {
	p, ok := r.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	p.HasSubmittedClue = true
	p.Clue = clue
	return nil
}

func (r *Roster) RecordVote(voter, target uint64) error {
	p, ok := r.players[voter]
	if !ok {
		return ErrUnknownPlayer
	}
	p.HasVoted = true
	p.VoteTarget = target
	return nil
}

func (r *Roster) Eliminate(id uint64) error {
	p, ok := r.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	p.Eliminated = true
	return nil
}

func (r *Roster) GetPlayer(id uint64) (Player, bool) {
	p, ok := r.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

func (r *Roster) Contains(id uint64) bool {
	_, ok := r.players[id]
	return ok
}

// IsActive reports whether id is a member that has not been eliminated.
func (r *Roster) IsActive(id uint64) bool {
	p, ok := r.players[id]
	return ok && !p.Eliminated
}

// AllPlayerIDs returns ids in join order.
func (r *Roster) AllPlayerIDs() []uint64 {
	out := make([]uint64, len(r.order))
	copy(out, r.order)
	return out
}

// ActiveIDs returns non-eliminated ids in join order.
func (r *Roster) ActiveIDs() []uint64 {
	out := make([]uint64, 0, len(r.order))
	for _, id := range r.order {
		if !r.players[id].Eliminated {
			out = append(out, id)
		}
	}
	return out
}

// Players returns copies in join order.
func (r *Roster) Players() []Player {
	out := make([]Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.players[id])
	}
	return out
}

// Impostors returns the ids of active impostors.
func (r *Roster) Impostors() []uint64 {
	return r.activeWithRole(RoleImpostor)
}

// Civilians returns the ids of active civilians.
func (r *Roster) Civilians() []uint64 {
	return r.activeWithRole(RoleCivilian)
}

// AllImpostors includes eliminated impostors.
func (r *Roster) AllImpostors() []uint64 {
	var out []uint64
	for _, id := range r.order {
		if r.players[id].Role == RoleImpostor {
			out = append(out, id)
		}
	}
	return out
}

func (r *Roster) activeWithRole(role Role) []uint64 {
	var out []uint64
	for _, id := range r.order {
		p := r.players[id]
		if p.Role == role && !p.Eliminated {
			out = append(out, id)
		}
	}
	return out
}

func (r *Roster) Count() int {
	return len(r.order)
}

// Clear drops every player, firing a removal for each.
func (r *Roster) Clear() {
	for _, id := range r.AllPlayerIDs() {
		r.RemovePlayer(id)
	}
}
