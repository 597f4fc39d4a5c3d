package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/network"
	"github.com/wfunc/impostor/peer"
	"github.com/wfunc/impostor/room"
	impostorrpc "github.com/wfunc/impostor/rpc"
)

const maxFrameSize = 64 << 10

// Options wires the server to the host's session loop.
type Options struct {
	Addr   string
	HostID uint64
	Room   *room.Room
	Peers  *peer.Manager
	// Heartbeat enables websocket pings when positive.
	Heartbeat time.Duration
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// RPC is started and stopped with the server when set.
	RPC *impostorrpc.Server
}

type GameServer struct {
	opts     Options
	upgrader websocket.Upgrader
	http     *http.Server
}

func NewGameServer(opts Options) *GameServer {
	s := &GameServer{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler serves /ws and, when configured, /metrics.
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics)
	}
	return mux
}

// Run 同时运行会话循环、HTTP 服务和 RPC 服务，ctx 结束时全部关闭。
func (s *GameServer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.opts.Room.Run(ctx)
	})

	g.Go(func() error {
		logger.Log.Infof("Game server listening on %s", s.opts.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if s.opts.RPC != nil {
		g.Go(func() error {
			s.opts.RPC.Start()
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		s.shutdown()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *GameServer) shutdown() {
	logger.Log.Info("shutting down game server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warnf("http shutdown: %v", err)
	}
	if s.opts.RPC != nil {
		s.opts.RPC.Stop()
	}
	for _, p := range s.opts.Peers.All() {
		p.Close()
	}
	s.opts.Room.Close()
}

func parsePeer(r *http.Request, hostID uint64) (uint64, string, error) {
	q := r.URL.Query()
	id, err := strconv.ParseUint(q.Get("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, "", fmt.Errorf("invalid id %q", q.Get("id"))
	}
	if id == hostID {
		return 0, "", fmt.Errorf("id %d is the host", id)
	}
	name := q.Get("name")
	if name == "" {
		name = "player-" + strconv.FormatUint(id, 10)
	}
	return id, name, nil
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id, name, err := parsePeer(r, s.opts.HostID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, exists := s.opts.Peers.Get(id); exists {
		http.Error(w, "id already connected", http.StatusConflict)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	conn.SetReadLimit(maxFrameSize)
	s.handleConnection(id, name, network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(id uint64, name string, conn *network.WSConnection) {
	p := peer.NewPeer(id, name, conn)
	if old := s.opts.Peers.Add(p); old != nil {
		// 并发握手时后到者替换先到者
		old.Close()
	}
	logger.Log.Infof("peer %d (%s) connected from %s", id, name, conn.RemoteAddr())

	done := make(chan struct{})
	defer func() {
		close(done)
		if s.opts.Peers.Remove(p) {
			_ = s.opts.Room.Disconnect(id)
		}
		conn.Close()
		logger.Log.Infof("peer %d disconnected", id)
	}()

	if s.opts.Heartbeat > 0 {
		conn.SetHeartbeat(s.opts.Heartbeat)
		go s.ping(conn, done)
	}

	if err := s.opts.Room.Connect(id, name); err != nil {
		return
	}

	for {
		data, err := conn.ReadFrame()
		if err != nil {
			if errors.Is(err, network.ErrTextFrame) {
				logger.Log.Debugf("peer %d sent a text frame", id)
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Log.Debugf("read from peer %d: %v", id, err)
			}
			return
		}
		p.Touch()
		if err := s.opts.Room.Deliver(id, data); err != nil {
			return
		}
	}
}

func (s *GameServer) ping(conn *network.WSConnection, done <-chan struct{}) {
	ticker := time.NewTicker(s.opts.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return
			}
		}
	}
}
