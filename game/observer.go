package game

import (
	"time"

	"github.com/wfunc/impostor/roster"
	"github.com/wfunc/impostor/state"
)

// Observer receives presentation events. Every method is called on the
// session loop and must not block. Implementations usually embed BaseObserver
// and override what they need.
type Observer interface {
	OnRoundStarted(round int, word string)
	OnClueSubmitted(id uint64, clue string)
	OnAllCluesSubmitted()
	OnVotingStarted(deadline time.Time)
	OnVoteCast(voter, target uint64)
	OnVotingEnded(eliminated uint64, wasImpostor bool)
	OnStateChanged(from, to state.Phase)
	OnRoleAssigned(id uint64, role roster.Role)
	OnGameEnded(impostorsWon bool, impostors []uint64)
	OnActionRejected(action, reason string)
	OnPlayerJoined(id uint64, name string)
	OnPlayerLeft(id uint64)
}

// BaseObserver implements Observer with no-ops.
type BaseObserver struct{}

func (BaseObserver) OnRoundStarted(int, string)              {}
func (BaseObserver) OnClueSubmitted(uint64, string)          {}
func (BaseObserver) OnAllCluesSubmitted()                    {}
func (BaseObserver) OnVotingStarted(time.Time)               {}
func (BaseObserver) OnVoteCast(uint64, uint64)               {}
func (BaseObserver) OnVotingEnded(uint64, bool)              {}
func (BaseObserver) OnStateChanged(state.Phase, state.Phase) {}
func (BaseObserver) OnRoleAssigned(uint64, roster.Role)      {}
func (BaseObserver) OnGameEnded(bool, []uint64)              {}
func (BaseObserver) OnActionRejected(string, string)         {}
func (BaseObserver) OnPlayerJoined(uint64, string)           {}
func (BaseObserver) OnPlayerLeft(uint64)                     {}

type observers []Observer

func (o observers) each(fn func(Observer)) {
	for _, ob := range o {
		fn(ob)
	}
}
