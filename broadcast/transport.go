// broadcast/transport.go
package broadcast

import (
	"context"
	"errors"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=./mocks/transport_mock.go -package=mocks . Transport

var (
	ErrPeerNotConnected = errors.New("peer not connected")
	ErrClientBroadcast  = errors.New("clients cannot broadcast")
)

// Transport moves encoded messages between peers. Frames are delivered whole
// and in order per peer; nothing is promised across peers.
type Transport interface {
	SendTo(ctx context.Context, peerID uint64, data []byte) error
	// Broadcast sends to every connected peer except exclude.
	Broadcast(ctx context.Context, data []byte, exclude uint64) error
	InitializeConnections(peerIDs []uint64)
	CloseAll()
}
