package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/internal/config"
	"github.com/matzehuels/whiteboard/internal/server"
	"github.com/matzehuels/whiteboard/pkg/observability"
	"github.com/matzehuels/whiteboard/pkg/store"
	"github.com/matzehuels/whiteboard/pkg/store/bolt"
	"github.com/matzehuels/whiteboard/pkg/store/memory"
	"github.com/matzehuels/whiteboard/pkg/store/mongo"
	"github.com/matzehuels/whiteboard/pkg/store/postgres"
	"github.com/matzehuels/whiteboard/pkg/store/redis"
)

// connectTimeout bounds how long serve waits for the store and Redis.
const connectTimeout = 10 * time.Second

// serveCommand creates the serve command, which runs the relay.
func (c *CLI) serveCommand() *cobra.Command {
	var listen, driver string
	var advertise bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay and the storage API",
		Long: `Run the relay that boards are synchronized through.

The relay accepts websocket clients on /ws, serves stored boards on
/api/canvas/load/{id} and reports liveness on /healthz. Boards are kept in
the store selected by store.driver; with fanout.mode = "redis" several
relays can serve the same boards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			if driver != "" {
				cfg.Store.Driver = driver
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if advertise {
				cfg.Discovery.Enabled = true
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&driver, "store", "", "store driver: memory, bolt, redis, mongo, postgres")
	cmd.Flags().BoolVar(&advertise, "advertise", false, "advertise the relay on the local network")
	_ = cmd.RegisterFlagCompletionFunc("store", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return config.Drivers, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config) error {
	observability.SetStoreHooks(storeLogHooks{logger: c.Logger})

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	fanout, err := openFanout(ctx, cfg.Fanout, c.Logger)
	if err != nil {
		return err
	}

	srv := server.New(st,
		server.WithLogger(c.Logger),
		server.WithTokens(cfg.Server.Tokens),
		server.WithCreateOnJoin(cfg.Server.CreateOnJoin),
		server.WithFanout(fanout),
	)

	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Listen, err)
	}

	if cfg.Discovery.Enabled {
		stop, err := advertiseRelay(ln, cfg.Discovery)
		if err != nil {
			c.Logger.Warn("cannot advertise relay", "err", err)
		} else {
			defer stop()
			c.Logger.Info("advertising relay", "service", cfg.Discovery.Service)
		}
	}

	printSuccess("Relay on %s", StyleHighlight.Render(ln.Addr().String()))
	printKeyValue("Store", cfg.Store.Driver)
	printKeyValue("Fan-out", cfg.Fanout.Mode)
	if cfg.Path != "" {
		printKeyValue("Config", cfg.Path)
	}

	err = srv.Serve(ctx, ln)
	if ctx.Err() != nil {
		c.Logger.Info("relay stopped")
		return nil
	}
	return err
}

// openStore connects the configured board store and instruments it.
func openStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var (
		st  store.Store
		err error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		st = memory.New()
	case config.DriverBolt:
		st, err = bolt.Open(cfg.Path)
	case config.DriverRedis:
		addr := cfg.RedisAddr
		if cfg.DSN != "" {
			addr = cfg.DSN
		}
		st, err = redis.New(ctx, redis.Config{Addr: addr})
	case config.DriverMongo:
		st, err = mongo.New(ctx, mongo.Config{URI: cfg.DSN, Database: cfg.Database})
	case config.DriverPostgres:
		st, err = postgres.New(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store.Instrument(cfg.Driver, st), nil
}

// openFanout returns the configured fan-out between relay instances.
func openFanout(ctx context.Context, cfg config.Fanout, logger *log.Logger) (server.Fanout, error) {
	if cfg.Mode != config.FanoutRedis {
		return server.NewLocalFanout(), nil
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect fan-out redis %s: %w", cfg.RedisAddr, err)
	}
	return server.NewRedisFanout(rdb, server.DefaultChannel, func(err error) {
		logger.Warn("dropping fan-out message", "err", err)
	}), nil
}

// advertiseRelay announces the relay bound to ln over mDNS.
func advertiseRelay(ln net.Listener, cfg config.Discovery) (func() error, error) {
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}
	return server.Advertise(cfg.Instance, cfg.Service, port)
}

// storeLogHooks logs board store traffic at debug level.
type storeLogHooks struct {
	logger *log.Logger
}

func (h storeLogHooks) OnGet(_ context.Context, driver string, found bool, d time.Duration) {
	h.logger.Debug("store get", "driver", driver, "found", found, "took", d.Round(time.Microsecond))
}

func (h storeLogHooks) OnSave(_ context.Context, driver string, elements int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("store save failed", "driver", driver, "err", err)
		return
	}
	h.logger.Debug("store save", "driver", driver, "elements", elements, "took", d.Round(time.Microsecond))
}
