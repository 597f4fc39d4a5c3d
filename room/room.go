// room/room.go
package room

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wfunc/impostor/errs"
	"github.com/wfunc/impostor/game"
	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/network"
)

var ErrRoomClosed = errors.New("room closed")

const DefaultTickInterval = 100 * time.Millisecond

// Metrics receives loop statistics. monitor.Monitor implements it.
type Metrics interface {
	IncMessagesReceived(msgType string)
	IncMessageErrors(kind string)
	ObserveHandleLatency(d time.Duration)
	SetPlayers(n int)
}

type nopMetrics struct{}

func (nopMetrics) IncMessagesReceived(string)         {}
func (nopMetrics) IncMessageErrors(string)            {}
func (nopMetrics) ObserveHandleLatency(time.Duration) {}
func (nopMetrics) SetPlayers(int)                     {}

type eventKind int

const (
	eventMessage eventKind = iota
	eventConnect
	eventDisconnect
	eventCall
)

type event struct {
	kind eventKind
	from uint64
	name string
	data []byte
	fn   func(*game.Session)
	done chan struct{}
}

// Room 是单个会话的事件循环。Session 只在 Run 的 goroutine 上被访问，
// 网络读协程、定时器和本地命令都经由 events 通道串行化。
type Room struct {
	ID           string
	session      *game.Session
	events       chan event
	tickInterval time.Duration
	metrics      Metrics
	closeChan    chan struct{}
	closeOnce    sync.Once
}

// NewRoom wraps s. A zero tick uses DefaultTickInterval; a nil m disables
// metrics.
func NewRoom(id string, s *game.Session, tick time.Duration, m Metrics) *Room {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	if m == nil {
		m = nopMetrics{}
	}
	return &Room{
		ID:           id,
		session:      s,
		events:       make(chan event, 256),
		tickInterval: tick,
		metrics:      m,
		closeChan:    make(chan struct{}),
	}
}

// Run drives the session until ctx ends or Close is called.
func (r *Room) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	logger.Log.Infof("room %s loop started, tick %s", r.ID, r.tickInterval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.closeChan:
			return nil
		case ev := <-r.events:
			r.handle(ev)
		case now := <-ticker.C:
			r.session.Tick(now)
		}
	}
}

func (r *Room) handle(ev event) {
	switch ev.kind {
	case eventMessage:
		start := time.Now()
		if len(ev.data) > 0 {
			r.metrics.IncMessagesReceived(network.MessageType(ev.data[0]).String())
		}
		if err := r.session.HandleMessage(ev.from, ev.data); err != nil {
			var perr *network.ProtocolError
			switch {
			case errors.As(err, &perr):
				r.metrics.IncMessageErrors("protocol")
			case errs.IsRejection(err):
				r.metrics.IncMessageErrors("rejected")
			default:
				r.metrics.IncMessageErrors("other")
			}
		}
		r.metrics.ObserveHandleLatency(time.Since(start))
	case eventConnect:
		r.session.HandlePeerConnected(ev.from, ev.name)
		r.metrics.SetPlayers(len(r.session.Players()))
	case eventDisconnect:
		r.session.HandlePeerDisconnected(ev.from)
		r.metrics.SetPlayers(len(r.session.Players()))
	case eventCall:
		ev.fn(r.session)
		close(ev.done)
	}
}

func (r *Room) enqueue(ev event) error {
	select {
	case r.events <- ev:
		return nil
	case <-r.closeChan:
		return ErrRoomClosed
	}
}

// Deliver queues one inbound frame from peer from.
func (r *Room) Deliver(from uint64, data []byte) error {
	return r.enqueue(event{kind: eventMessage, from: from, data: data})
}

func (r *Room) Connect(id uint64, name string) error {
	return r.enqueue(event{kind: eventConnect, from: id, name: name})
}

func (r *Room) Disconnect(id uint64) error {
	return r.enqueue(event{kind: eventDisconnect, from: id})
}

// Do runs fn on the loop and waits for it to finish.
func (r *Room) Do(ctx context.Context, fn func(*game.Session)) error {
	ev := event{kind: eventCall, fn: fn, done: make(chan struct{})}
	select {
	case r.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.closeChan:
		return ErrRoomClosed
	}
	select {
	case <-ev.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.closeChan:
		return ErrRoomClosed
	}
}

// Close 关闭房间，停止主循环
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.closeChan) })
}
