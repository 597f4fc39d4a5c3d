package state

// Phase is the session phase. The numeric values travel in GameStateUpdate.
type Phase int32

const (
	PhaseMainMenu Phase = iota
	PhaseLobby
	PhaseWaitingForReady
	PhaseGameStarting
	PhaseInGame
	PhaseVoting
	PhaseRoundResults
	PhaseGameEnd
)

func (p Phase) String() string {
	switch p {
	case PhaseMainMenu:
		return "MainMenu"
	case PhaseLobby:
		return "Lobby"
	case PhaseWaitingForReady:
		return "WaitingForReady"
	case PhaseGameStarting:
		return "GameStarting"
	case PhaseInGame:
		return "InGame"
	case PhaseVoting:
		return "Voting"
	case PhaseRoundResults:
		return "RoundResults"
	case PhaseGameEnd:
		return "GameEnd"
	default:
		return "Unknown"
	}
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	return p >= PhaseMainMenu && p <= PhaseGameEnd
}

// DefaultTransitions is the session's transition table. GameEnd has no exits.
func DefaultTransitions() map[Phase][]Phase {
	return map[Phase][]Phase{
		PhaseMainMenu:        {PhaseLobby},
		PhaseLobby:           {PhaseWaitingForReady, PhaseGameStarting, PhaseMainMenu},
		PhaseWaitingForReady: {PhaseGameStarting, PhaseLobby, PhaseMainMenu},
		PhaseGameStarting:    {PhaseInGame},
		PhaseInGame:          {PhaseVoting, PhaseGameEnd},
		PhaseVoting:          {PhaseRoundResults, PhaseGameEnd},
		PhaseRoundResults:    {PhaseInGame, PhaseGameEnd},
	}
}
