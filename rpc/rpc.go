package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/impostor/game"
	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/models"
	"github.com/wfunc/impostor/room"
	"github.com/wfunc/impostor/roster"
)

const callTimeout = 2 * time.Second

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr. Services are added with Register.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

func (s *Server) Register(name string, svc any) error {
	return s.rpc.RegisterName(name, svc)
}

func (s *Server) Addr() string { return s.address }

// Start serves connections until Stop is called.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// StatsProvider reads match history; services.ResultService implements it.
type StatsProvider interface {
	PlayerStats(ctx context.Context, playerID uint64) (*models.PlayerStats, error)
}

// StatusService exposes the running session to operators.
type StatusService struct {
	room    *room.Room
	stats   StatsProvider
	timeout time.Duration
}

// NewStatusService creates a StatusService. stats may be nil.
func NewStatusService(r *room.Room, stats StatsProvider) *StatusService {
	return &StatusService{room: r, stats: stats, timeout: callTimeout}
}

type SnapshotArgs struct {
	// IncludeRoles keeps every player's role in the reply. Otherwise only
	// the host's own role is left in Players.
	IncludeRoles bool
}

type SnapshotReply struct {
	Snapshot game.Snapshot
}

// Snapshot copies the session state on the room loop.
func (ss *StatusService) Snapshot(args *SnapshotArgs, reply *SnapshotReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), ss.timeout)
	defer cancel()
	// snap is only read once Do confirms the callback finished; a timed out
	// call may still run it later on the room loop.
	var snap game.Snapshot
	err := ss.room.Do(ctx, func(s *game.Session) {
		snap = s.Snapshot()
	})
	if err != nil {
		return err
	}
	if !args.IncludeRoles {
		for i := range snap.Players {
			if snap.Players[i].ID != snap.LocalID {
				snap.Players[i].Role = roster.RoleNone
			}
		}
	}
	reply.Snapshot = snap
	return nil
}

type PlayerStatsArgs struct {
	PlayerID uint64
}

type PlayerStatsReply struct {
	Stats models.PlayerStats
}

func (ss *StatusService) PlayerStats(args *PlayerStatsArgs, reply *PlayerStatsReply) error {
	if ss.stats == nil {
		return errors.New("match history is disabled")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ss.timeout)
	defer cancel()
	st, err := ss.stats.PlayerStats(ctx, args.PlayerID)
	if err != nil {
		return err
	}
	reply.Stats = *st
	return nil
}
