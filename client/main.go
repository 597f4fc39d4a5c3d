package main

import (
	"context"
	"errors"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/wfunc/impostor/broadcast"
	"github.com/wfunc/impostor/config"
	"github.com/wfunc/impostor/console"
	"github.com/wfunc/impostor/game"
	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/room"
)

var errQuit = errors.New("quit")

func hostURL(cfg *config.Config) (string, error) {
	u, err := url.Parse(cfg.Peer.HostURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("id", strconv.FormatUint(cfg.Peer.ID, 10))
	q.Set("name", cfg.Peer.Name)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func main() {
	logger.InitDevelopment()
	defer logger.Sync()

	fs := config.NewFlagSet("impostor-client")
	_ = fs.Parse(os.Args[1:])
	cfg, err := config.LoadFromFlags(fs)
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Peer.ID == cfg.Peer.HostID {
		logger.Log.Fatalf("peer.id %d is the host's id, pick another with --id", cfg.Peer.ID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr, err := hostURL(cfg)
	if err != nil {
		logger.Log.Fatalf("Bad host url: %v", err)
	}
	uplink, err := broadcast.DialUplink(ctx, addr, cfg.Peer.HostID)
	if err != nil {
		logger.Log.Fatalf("Failed to connect: %v", err)
	}
	defer uplink.CloseAll()

	sess, err := game.New(game.Options{
		LocalID:   cfg.Peer.ID,
		LocalName: cfg.Peer.Name,
		HostID:    cfg.Peer.HostID,
		Transport: uplink,
		Context:   ctx,
	})
	if err != nil {
		logger.Log.Fatalf("Failed to create session: %v", err)
	}
	sess.AddObserver(console.NewPresenter(color.Output, cfg.Peer.ID))

	r := room.NewRoom("client", sess, cfg.Game.TickInterval, nil)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.Run(ctx)
	})
	g.Go(func() error {
		err := uplink.ReadLoop(ctx, func(data []byte) {
			_ = r.Deliver(cfg.Peer.HostID, data)
		})
		_ = r.Disconnect(cfg.Peer.HostID)
		logger.Log.Infof("connection to host closed: %v", err)
		return err
	})
	g.Go(func() error {
		if err := console.Run(ctx, os.Stdin, color.Output, r); err != nil {
			return err
		}
		return errQuit
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) && !errors.Is(err, context.Canceled) {
		logger.Log.Errorf("client stopped: %v", err)
	}
}
