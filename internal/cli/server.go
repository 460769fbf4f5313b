package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Michaszek224/sk2kahoot/internal/app"
	"github.com/Michaszek224/sk2kahoot/internal/config"
	"github.com/Michaszek224/sk2kahoot/internal/infra/memory"
	redisstore "github.com/Michaszek224/sk2kahoot/internal/infra/redis"
	"github.com/Michaszek224/sk2kahoot/internal/transport/tcpserver"
	"github.com/Michaszek224/sk2kahoot/internal/transport/ws"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port, wsPort *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, *wsPort)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag, wsPortFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync()

	tcpPort := portFlag
	if tcpPort == "" {
		tcpPort = cfg.Server.Port
	}
	if tcpPort == "" {
		tcpPort = "8080"
	}
	httpPort := wsPortFlag
	if httpPort == "" {
		httpPort = cfg.Server.WSPort
	}
	if httpPort == "" {
		httpPort = "8081"
	}

	var store app.SessionStore = memory.NewSessionStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ttl := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		store = redisstore.NewSessionStore(client, ttl)
	}

	bc := app.NewBroadcaster(log)
	registry := app.NewRegistry(store, bc, log)
	service := app.NewService(registry, bc, log)

	tcpSrv := tcpserver.New(service, bc, log)
	ln, err := net.Listen("tcp", ":"+tcpPort)
	if err != nil {
		return err
	}

	wsHandler := ws.NewHandler(service, bc, log)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	httpSrv := &http.Server{
		Addr:    ":" + httpPort,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("tcp listener up", zap.String("port", tcpPort))
		return tcpSrv.Serve(gctx, ln)
	})
	g.Go(func() error {
		log.Info("ws listener up", zap.String("port", httpPort))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-stop:
			log.Info("shutting down server...")
		case <-gctx.Done():
			log.Info("context canceled, shutting down server...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		_ = ln.Close()
		return nil
	})

	return g.Wait()
}
