// broadcast/uplink.go
package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/websocket"

	"github.com/wfunc/impostor/logger"
)

const uplinkReadLimit = 64 << 10

// Uplink is a client's single connection to the host.
type Uplink struct {
	conn         *websocket.Conn
	hostID       uint64
	writeTimeout time.Duration
}

// DialUplink connects to the host's websocket endpoint. url carries the
// client's id and name as query parameters.
func DialUplink(ctx context.Context, url string, hostID uint64) (*Uplink, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial host: %w", err)
	}
	conn.SetReadLimit(uplinkReadLimit)
	return &Uplink{conn: conn, hostID: hostID, writeTimeout: 5 * time.Second}, nil
}

func (u *Uplink) HostID() uint64 {
	return u.hostID
}

func (u *Uplink) SendTo(ctx context.Context, peerID uint64, data []byte) error {
	if peerID != u.hostID {
		return fmt.Errorf("%w: %d", ErrPeerNotConnected, peerID)
	}
	ctx, cancel := context.WithTimeout(ctx, u.writeTimeout)
	defer cancel()
	return u.conn.Write(ctx, websocket.MessageBinary, data)
}

// Broadcast is a host-only operation.
func (u *Uplink) Broadcast(context.Context, []byte, uint64) error {
	return ErrClientBroadcast
}

func (u *Uplink) InitializeConnections([]uint64) {}

func (u *Uplink) CloseAll() {
	if err := u.conn.Close(websocket.StatusNormalClosure, "shutdown"); err != nil {
		logger.Log.Debugf("close uplink: %v", err)
	}
}

// ReadLoop hands every binary frame from the host to deliver until the
// connection fails or ctx ends.
func (u *Uplink) ReadLoop(ctx context.Context, deliver func(data []byte)) error {
	for {
		typ, data, err := u.conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageBinary {
			logger.Log.Warnf("ignoring %v frame from host", typ)
			continue
		}
		deliver(data)
	}
}
