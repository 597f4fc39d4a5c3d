package network

// MessageType is the one-byte tag that leads every encoded message.
type MessageType uint8

const (
	MsgTypePlayerJoined    MessageType = 1
	MsgTypePlayerLeft      MessageType = 2
	MsgTypeGameStateUpdate MessageType = 3
	MsgTypeWordAssigned    MessageType = 4
	MsgTypeClueSubmitted   MessageType = 5
	MsgTypeVoteSubmitted   MessageType = 6
	MsgTypeRoundStart      MessageType = 7
	MsgTypeRoundEnd        MessageType = 8
	MsgTypeGameEnd         MessageType = 9
	MsgTypeReadyState      MessageType = 10
	// 11 and 12 are reserved.
	MsgTypeActionRejected MessageType = 13
)

func (t MessageType) String() string {
	switch t {
	case MsgTypePlayerJoined:
		return "PlayerJoined"
	case MsgTypePlayerLeft:
		return "PlayerLeft"
	case MsgTypeGameStateUpdate:
		return "GameStateUpdate"
	case MsgTypeWordAssigned:
		return "WordAssigned"
	case MsgTypeClueSubmitted:
		return "ClueSubmitted"
	case MsgTypeVoteSubmitted:
		return "VoteSubmitted"
	case MsgTypeRoundStart:
		return "RoundStart"
	case MsgTypeRoundEnd:
		return "RoundEnd"
	case MsgTypeGameEnd:
		return "GameEnd"
	case MsgTypeReadyState:
		return "ReadyState"
	case MsgTypeActionRejected:
		return "ActionRejected"
	default:
		return "Unknown"
	}
}

// Message is one protocol message. The set of implementations is closed; every
// variant lives in this file.
type Message interface {
	Type() MessageType
	encodePayload(w *writer)
}

// PlayerJoined announces a roster addition.
//
//	id   u64
//	name str
type PlayerJoined struct {
	ID   uint64
	Name string
}

// PlayerLeft announces a roster removal.
//
//	id u64
type PlayerLeft struct {
	ID uint64
}

// GameStateUpdate mirrors the host's phase to clients.
//
//	phase i32
//	data  bytes (i32 count + raw)
type GameStateUpdate struct {
	Phase     int32
	StateData []byte
}

// WordAssigned privately delivers a player's word for the round. Impostors
// receive the impostor marker instead of the secret word.
//
//	id         u64
//	word       str
//	isImpostor bool
type WordAssigned struct {
	ID         uint64
	Word       string
	IsImpostor bool
}

// ClueSubmitted carries a clue request (client to host) or an accepted clue
// (host broadcast).
//
//	id   u64
//	clue str
type ClueSubmitted struct {
	ID   uint64
	Clue string
}

// VoteSubmitted carries a vote request or an accepted vote. TargetID 0 is an
// abstention.
//
//	voterId  u64
//	targetId u64
type VoteSubmitted struct {
	VoterID  uint64
	TargetID uint64
}

// RoundStart announces a new round.
//
//	roundNumber i32
//	secretWord  str
type RoundStart struct {
	RoundNumber int32
	SecretWord  string
}

// RoundEnd carries the vote outcome. VotedOutID 0 means nobody was eliminated.
//
//	votedOutId  u64
//	wasImpostor bool
type RoundEnd struct {
	VotedOutID  uint64
	WasImpostor bool
}

// GameEnd carries the final result.
//
//	impostorsWon bool
//	impostorIds  []u64 (i32 count + items)
type GameEnd struct {
	ImpostorsWon bool
	ImpostorIDs  []uint64
}

// ReadyState carries a lobby ready toggle.
//
//	id      u64
//	isReady bool
type ReadyState struct {
	ID      uint64
	IsReady bool
}

// ActionRejected tells a client the host refused one of its requests.
//
//	id     u64
//	action str
//	reason str
type ActionRejected struct {
	ID     uint64
	Action string
	Reason string
}

func (PlayerJoined) Type() MessageType    { return MsgTypePlayerJoined }
func (PlayerLeft) Type() MessageType      { return MsgTypePlayerLeft }
func (GameStateUpdate) Type() MessageType { return MsgTypeGameStateUpdate }
func (WordAssigned) Type() MessageType    { return MsgTypeWordAssigned }
func (ClueSubmitted) Type() MessageType   { return MsgTypeClueSubmitted }
func (VoteSubmitted) Type() MessageType   { return MsgTypeVoteSubmitted }
func (RoundStart) Type() MessageType      { return MsgTypeRoundStart }
func (RoundEnd) Type() MessageType        { return MsgTypeRoundEnd }
func (GameEnd) Type() MessageType         { return MsgTypeGameEnd }
func (ReadyState) Type() MessageType      { return MsgTypeReadyState }
func (ActionRejected) Type() MessageType  { return MsgTypeActionRejected }

func (m PlayerJoined) encodePayload(w *writer) {
	w.uint64(m.ID)
	w.string(m.Name)
}

func (m PlayerLeft) encodePayload(w *writer) {
	w.uint64(m.ID)
}

func (m GameStateUpdate) encodePayload(w *writer) {
	w.int32(m.Phase)
	w.bytes(m.StateData)
}

func (m WordAssigned) encodePayload(w *writer) {
	w.uint64(m.ID)
	w.string(m.Word)
	w.bool(m.IsImpostor)
}

func (m ClueSubmitted) encodePayload(w *writer) {
	w.uint64(m.ID)
	w.string(m.Clue)
}

func (m VoteSubmitted) encodePayload(w *writer) {
	w.uint64(m.VoterID)
	w.uint64(m.TargetID)
}

func (m RoundStart) encodePayload(w *writer) {
	w.int32(m.RoundNumber)
	w.string(m.SecretWord)
}

func (m RoundEnd) encodePayload(w *writer) {
	w.uint64(m.VotedOutID)
	w.bool(m.WasImpostor)
}

func (m GameEnd) encodePayload(w *writer) {
	w.bool(m.ImpostorsWon)
	w.uint64s(m.ImpostorIDs)
}

func (m ReadyState) encodePayload(w *writer) {
	w.uint64(m.ID)
	w.bool(m.IsReady)
}

func (m ActionRejected) encodePayload(w *writer) {
	w.uint64(m.ID)
	w.string(m.Action)
	w.string(m.Reason)
}
