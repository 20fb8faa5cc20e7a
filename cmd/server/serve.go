package main

import (
	"context"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/kipod/server/internal/actor"
	"github.com/kipod/server/internal/config"
	"github.com/kipod/server/internal/logging"
	"github.com/kipod/server/internal/mapgen"
	"github.com/kipod/server/internal/observer"
	"github.com/kipod/server/internal/registry"
	"github.com/kipod/server/internal/replay"
	"github.com/kipod/server/internal/session"
)

func newServeCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts accepting connections and running games",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "optional .env file to load before reading environment overrides")
	return cmd
}

// runServe wires every server-scoped component and blocks until
// SIGINT/SIGTERM, then drains games and replay writes before
// returning.
func runServe(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	log := logging.New(cfg.ConfigProfile)
	log.Infof("configuration loaded: addr=%s:%d maxConns=%d", cfg.ServerAddress, cfg.ServerPort, cfg.MaxConns)

	replayLog, err := replay.OpenSQLite(cfg.ReplayDBURI)
	if err != nil {
		return err
	}
	defer replayLog.Close()

	eng := actor.NewEngine()
	eng.OnDrop = func(pid *actor.PID, message interface{}) {
		log.Warnf("dropped message %T for pid %s", message, pid)
	}

	gen := mapgen.NewProcedural()
	reg := registry.New(eng, gen, replayLog, cfg, log)
	obsFactory := func() *observer.Session {
		return observer.New(eng, cfg, gen, replayLog)
	}
	handlerFn := session.NewHandlerFunc(eng, reg, replayLog, cfg, log, obsFactory)

	listenAddr := net.JoinHostPort(cfg.ServerAddress, strconv.Itoa(cfg.ServerPort))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	limited := netutil.LimitListener(listener, cfg.MaxConns)
	log.Infof("listening on %s (max %d connections)", listenAddr, cfg.MaxConns)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return acceptLoop(gctx, limited, handlerFn, log)
	})

	<-gctx.Done()
	log.Info("shutting down: stopping all games")
	listener.Close()
	reg.StopAll()
	eng.Shutdown(5 * time.Second)

	return g.Wait()
}

// acceptLoop hands each connection to its own handler goroutine for
// its entire lifetime.
func acceptLoop(ctx context.Context, listener net.Listener, handlerFn func(net.Conn), log *logrus.Logger) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Warnf("accept failed: %v", err)
				return err
			}
		}
		go handlerFn(conn)
	}
}
