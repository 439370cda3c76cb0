package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/momentics/hioload-shard/control"
	"github.com/momentics/hioload-shard/internal/config"
	"github.com/momentics/hioload-shard/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// flagKeys maps config keys to serve flags.
var flagKeys = map[string]string{
	"server.bind_addr":       "bind",
	"server.port":            "port",
	"server.max_connections": "max-connections",
	"shard.count":            "shards",
	"shard.queue_capacity":   "queue-capacity",
	"shard.max_payload":      "max-payload",
	"shard.overflow_policy":  "overflow",
}

var watchConfig bool

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Run the acknowledgement server",
	Long: `Run the server until SIGINT or SIGTERM.

SIGHUP drains and stops the running server, reloads the configuration and
starts a fresh one on the same port. With --watch-config a change to the
config file does the same.

Examples:
  hioload-shard serve
  hioload-shard serve --config server.yml --watch-config
  HIOLOAD_SHARD_COUNT=8 hioload-shard serve --overflow block`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	d := config.Default()
	f := serveCmd.Flags()
	f.String("bind", d.Server.BindAddr, "IPv4 address to bind")
	f.IntP("port", "p", d.Server.Port, "TCP port to listen on")
	f.Int("max-connections", d.Server.MaxConnections, "maximum concurrent connections (0 = unbounded)")
	f.IntP("shards", "s", d.Shard.Count, "number of shards and workers")
	f.Int("queue-capacity", d.Shard.QueueCapacity, "slots per shard queue")
	f.Int("max-payload", d.Shard.MaxPayload, "maximum bytes per read and per response")
	f.String("overflow", string(d.Shard.OverflowPolicy), "full-shard policy (drop, block, reject)")
	f.BoolVar(&watchConfig, "watch-config", false, "restart when the config file changes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	v, err := loadViper(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := control.NewReloadHub()
	restart := hub.Subscribe()
	go forwardHangups(ctx, hub)

	if watchConfig {
		if err := startWatcher(ctx, hub, log); err != nil {
			return err
		}
	}

	ctrl := control.NewController()
	observeReloads(hub, ctrl, log)
	first := true
	build := func() (*server.Server, error) {
		c := cfg
		if !first {
			// Rebuild from the file and environment; keep the old
			// settings when the new ones do not validate.
			if nv, err := loadViper(cmd); err != nil {
				log.Error("reload config failed, keeping previous", zap.Error(err))
			} else if nc, err := config.Load(nv); err != nil {
				log.Error("reload config failed, keeping previous", zap.Error(err))
			} else {
				c = nc
			}
		}
		first = false
		cfg = c
		return server.New(c.Config, server.WithLogger(log), server.WithController(ctrl))
	}

	sv := server.NewSupervisor(build, restart, log.Named("supervisor"))
	err = sv.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info("exiting", zap.Int64("generations", sv.Generations()), zap.Any("stats", ctrl.Stats()))
	return err
}

// observeReloads counts reload requests and logs each configuration the
// supervisor publishes.
func observeReloads(hub *control.ReloadHub, ctrl *control.Controller, log *zap.Logger) {
	hub.RegisterReloadHook(func() {
		ctrl.Metrics().Inc(control.Reloads)
		log.Info("reload requested", zap.Uint64("triggers", hub.Triggers()))
	})
	ctrl.Config().OnUpdate(func(version uint64) {
		log.Info("configuration applied", zap.Uint64("version", version))
	})
}

// forwardHangups turns SIGHUP into reload triggers.
func forwardHangups(ctx context.Context, hub *control.ReloadHub) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			hub.Trigger()
		}
	}
}

func startWatcher(ctx context.Context, hub *control.ReloadHub, log *zap.Logger) error {
	path := configFile()
	if path == "" {
		return errors.New("--watch-config needs --config or " + config.EnvConfigFile)
	}
	w, err := config.NewWatcher(path, config.DefaultDebounce, log.Named("watcher"))
	if err != nil {
		return err
	}
	go w.Run(ctx, hub.Trigger)
	log.Info("watching config file", zap.String("path", path))
	return nil
}
