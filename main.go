package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/wfunc/impostor/broadcast"
	"github.com/wfunc/impostor/config"
	"github.com/wfunc/impostor/console"
	"github.com/wfunc/impostor/game"
	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/monitor"
	"github.com/wfunc/impostor/peer"
	"github.com/wfunc/impostor/persistence"
	"github.com/wfunc/impostor/room"
	"github.com/wfunc/impostor/rpc"
	"github.com/wfunc/impostor/server"
	"github.com/wfunc/impostor/services"
	"github.com/wfunc/impostor/words"
)

func openDatabase(cfg config.DatabaseConfig) (persistence.Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "gorm":
		return persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "postgres":
		return persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		return persistence.NewMemory(), nil
	}
}

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	fs := config.NewFlagSet("impostor")
	_ = fs.Parse(os.Args[1:])
	cfg, err := config.LoadFromFlags(fs)
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := openDatabase(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Log.Infof("Match history stored in %s backend.", cfg.Database.Driver)

	bank := words.NewBank()
	if cfg.Game.WordList != "" {
		n, err := bank.LoadFile(cfg.Game.WordList)
		if err != nil {
			logger.Log.Fatalf("Failed to load word list: %v", err)
		}
		logger.Log.Infof("Loaded %d words from %s", n, cfg.Game.WordList)
	}

	peers := peer.NewManager()
	sess, err := game.New(game.Options{
		LocalID:           cfg.Peer.ID,
		LocalName:         cfg.Peer.Name,
		IsHost:            true,
		Transport:         broadcast.NewHub(peers),
		Words:             bank,
		MaxRounds:         cfg.Game.MaxRounds,
		VoteDuration:      cfg.Game.VoteDuration,
		AutoContinueDelay: cfg.Game.AutoContinueDelay,
		RejectReplies:     cfg.Game.RejectReplies,
		Context:           ctx,
	})
	if err != nil {
		logger.Log.Fatalf("Failed to create session: %v", err)
	}

	mon := monitor.NewMonitor(cfg.Game.MetricsNamespace, nil)
	sess.AddObserver(mon)

	results := services.NewResultService(db, sess)
	sess.AddObserver(results)
	results.Start(ctx)
	defer results.Close()

	sess.AddObserver(console.NewPresenter(color.Output, cfg.Peer.ID))
	if err := sess.OpenLobby(); err != nil {
		logger.Log.Fatalf("Failed to open lobby: %v", err)
	}

	r := room.NewRoom(sess.LobbyID().String(), sess, cfg.Game.TickInterval, mon)

	// Initialize RPC server
	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	if err := rpcServer.Register("StatusService", rpc.NewStatusService(r, results)); err != nil {
		logger.Log.Fatalf("Failed to register RPC service: %v", err)
	}

	gameServer := server.NewGameServer(server.Options{
		Addr:      cfg.Server.HTTPAddress,
		HostID:    cfg.Peer.ID,
		Room:      r,
		Peers:     peers,
		Heartbeat: cfg.Server.Heartbeat,
		Metrics:   mon.Handler(),
		RPC:       rpcServer,
	})

	// 主机本身也是玩家，命令行输入驱动本地操作
	go func() {
		if err := console.Run(ctx, os.Stdin, color.Output, r); err != nil && ctx.Err() == nil {
			logger.Log.Warnf("console stopped: %v", err)
		}
		stop()
	}()

	logger.Log.Infof("Hosting lobby %s on %s", sess.LobbyID(), cfg.Server.HTTPAddress)
	if err := gameServer.Run(ctx); err != nil {
		logger.Log.Errorf("Server stopped: %v", err)
	}
}
