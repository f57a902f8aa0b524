package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HMasataka/scoreline/internal/auth"
	"github.com/HMasataka/scoreline/internal/config"
	"github.com/HMasataka/scoreline/internal/httpapi"
	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/HMasataka/scoreline/internal/netprobe"
	"github.com/HMasataka/scoreline/pkg/domain"
	"github.com/HMasataka/scoreline/pkg/match"
	"github.com/HMasataka/scoreline/pkg/realtime"
	"github.com/HMasataka/scoreline/pkg/transport/websocket"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

var (
	configPath = flag.String("config", "", "path to a .json or .yaml config file")
	matchID    = flag.String("match", "", "match id to observe at startup")
)

func main() {
	flag.Parse()

	// a missing .env is fine
	_ = godotenv.Load()

	cfg, err := config.Load(config.LoadOptions{Path: *configPath})
	if err != nil {
		logging.New(logging.Config{Level: "error", Format: "text"}).Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	if err := run(cfg, logger); err != nil {
		logger.Error("scoreline stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, watcher, err := tokenProvider(cfg, logger)
	if err != nil {
		return err
	}

	clientOptions := websocket.DefaultClientOptions()
	clientOptions.PingInterval = cfg.Realtime.PingInterval.Duration
	clientOptions.ReadTimeout = cfg.Realtime.ReadTimeout.Duration
	clientOptions.WriteTimeout = cfg.Realtime.WriteTimeout.Duration

	manager := realtime.NewManager(cfg.Server.URL,
		realtime.WithLogger(logger),
		realtime.WithTokenProvider(tokens),
		realtime.WithHandshakeTimeout(cfg.Server.HandshakeTimeout.Duration),
		realtime.WithClientOptions(clientOptions),
		realtime.WithReconnectPolicy(realtime.ReconnectPolicy{
			Enabled:     cfg.Realtime.AutoReconnect,
			BaseDelay:   cfg.Realtime.ReconnectBaseDelay.Duration,
			MaxDelay:    cfg.Realtime.ReconnectMaxDelay.Duration,
			MaxAttempts: cfg.Realtime.MaxReconnectAttempts,
		}),
	)
	defer manager.Close()

	observer := match.NewObserver(manager, auth.NewReferee(manager), logger)
	defer observer.Close()

	if *matchID != "" {
		observer.Observe(domain.MatchID(*matchID))
	}

	probe := netprobe.New(probeAddress(cfg), cfg.Realtime.ProbeInterval.Duration, logger)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpapi.SetupRoutes(observer, manager, logger),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration,
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		probe.Run(ctx)
		return nil
	})

	g.Go(func() error {
		manager.ConnectOn(ctx, probe, realtime.ForegroundSignal(ctx, syscall.SIGCONT, syscall.SIGUSR1))
		return nil
	})

	if watcher != nil {
		g.Go(func() error {
			return watcher.Watch(ctx, func(token string) {
				manager.SetToken(token)
				manager.Connect()
			})
		})
	}

	g.Go(func() error {
		logger.Info("HTTP bridge listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	manager.Connect()
	logger.Info("scoreline started", "server", cfg.Server.URL)

	return g.Wait()
}

// tokenProvider returns the credential source and, for a token file, the
// provider to watch for changes
func tokenProvider(cfg *config.Config, logger *logging.Logger) (auth.TokenProvider, *auth.FileProvider, error) {
	if cfg.Auth.TokenFile == "" {
		return auth.NewStaticProvider(cfg.Auth.Token), nil, nil
	}

	p, err := auth.NewFileProvider(cfg.Auth.TokenFile, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, p, nil
}

// probeAddress defaults to the push server's host
func probeAddress(cfg *config.Config) string {
	if cfg.Realtime.ProbeAddress != "" {
		return cfg.Realtime.ProbeAddress
	}

	u, err := url.Parse(cfg.Server.URL)
	if err != nil {
		return ""
	}
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "wss" {
		return net.JoinHostPort(u.Hostname(), "443")
	}
	return net.JoinHostPort(u.Hostname(), "80")
}
