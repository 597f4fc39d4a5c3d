package roster

// Role is the hidden role dealt to a player for one game.
type Role int

const (
	RoleNone Role = iota
	RoleCivilian
	RoleImpostor
)

func (r Role) String() string {
	switch r {
	case RoleCivilian:
		return "civilian"
	case RoleImpostor:
		return "impostor"
	default:
		return "none"
	}
}

// Abstain is the vote target meaning "no one". It is never a valid player id.
const Abstain uint64 = 0

// Player is a snapshot of one participant. The roster hands out copies; edits
// go through Roster methods.
type Player struct {
	ID               uint64
	Name             string
	Role             Role
	Ready            bool
	HasSubmittedClue bool
	Clue             string
	HasVoted         bool
	VoteTarget       uint64
	Eliminated       bool
}

// Active reports whether the player still takes turns and votes.
func (p Player) Active() bool {
	return !p.Eliminated
}
