package game

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/impostor/broadcast"
	"github.com/wfunc/impostor/round"
	"github.com/wfunc/impostor/words"
)

const (
	DefaultMaxRounds    = 3
	DefaultVoteDuration = 5 * time.Second
)

// Options configures a Session. Zero values get defaults, except
// RejectReplies, which is off unless set.
type Options struct {
	LocalID   uint64
	LocalName string
	IsHost    bool
	// HostID is the peer clients send their requests to.
	HostID uint64
	// LobbyID tags the match in logs and history. A random one is used when nil.
	LobbyID uuid.UUID

	Transport broadcast.Transport
	Words     round.WordSource

	MaxRounds         int
	VoteDuration      time.Duration
	AutoContinueDelay time.Duration
	// RejectReplies makes the host answer a refused request with ActionRejected.
	RejectReplies bool

	Clock   func() time.Time
	Context context.Context
}

func (o *Options) validate() error {
	if o.LocalID == 0 {
		return errors.New("local id must be non-zero")
	}
	if o.Transport == nil {
		return errors.New("transport is required")
	}
	if !o.IsHost && o.HostID == 0 {
		return errors.New("clients need a host id")
	}
	return nil
}

func (o *Options) setDefaults() {
	if o.IsHost {
		o.HostID = o.LocalID
	}
	if o.LobbyID == uuid.Nil {
		o.LobbyID = uuid.New()
	}
	if o.Words == nil {
		o.Words = words.NewBank()
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = DefaultMaxRounds
	}
	if o.VoteDuration <= 0 {
		o.VoteDuration = DefaultVoteDuration
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.LocalName == "" {
		o.LocalName = "player"
	}
}
