// Command netdoomc is a scriptable demo client: it connects to a
// netdoom-compatible server, joins as a regular player or a drone, and
// drives the connection with a trivial straight-ahead ticcmd builder
// so the session, window and clock machinery can be exercised without
// a real game engine behind it.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"netdoom/internal/clock"
	"netdoom/internal/config"
	"netdoom/internal/logging"
	"netdoom/internal/netclient"
	"netdoom/internal/protocol"
)

var (
	configPath  string
	serverAddr  string
	playerName  string
	drone       bool
	logLevel    string
	metricsAddr string
)

func main() {
	root := &cobra.Command{
		Use:   "netdoomc",
		Short: "Connect to a netdoom-compatible lock-step game server",
		RunE:  run,
	}

	root.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.Flags().StringVar(&serverAddr, "server", "", "server address (overrides config)")
	root.Flags().StringVar(&playerName, "name", "", "player name (overrides config)")
	root.Flags().BoolVar(&drone, "drone", false, "join as a non-participating drone")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, empty disables")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if serverAddr != "" {
		cfg.ServerAddr = serverAddr
	}
	if playerName != "" {
		cfg.PlayerName = playerName
	}
	if drone {
		cfg.Drone = true
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	log, err := logging.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("netdoomc: init logging: %w", err)
	}

	client, err := netclient.New(cfg.PlayerName, cfg.Drone, log)
	if err != nil {
		return fmt.Errorf("netdoomc: create client: %w", err)
	}
	defer client.Close()
	client.Init()

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(client.Collector())
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", "err", err)
			}
		}()
		defer srv.Close()
	}

	cd := protocol.ConnectData{
		PlayerName: cfg.PlayerName,
		MaxPlayers: protocol.NetMaxPlayers,
	}
	if cfg.Drone {
		cd.Drone = 1
	}

	log.Info("connecting", "server", cfg.ServerAddr, "player", cfg.PlayerName, "drone", cfg.Drone)
	if err := client.Connect(cfg.ServerAddr, cd); err != nil {
		return fmt.Errorf("netdoomc: connect: %w", err)
	}
	log.Info("in lobby, requesting launch")
	client.RequestLaunch()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := clock.New()
	loop.Drone = cfg.Drone
	if cfg.Drone {
		// A drone has no console player slot of its own, so nothing
		// should ever be skipped as "already locally built" when
		// received tics are stored.
		loop.LocalPlayer = -1
	}
	builder := &scriptedBuilder{}
	runner := &loggingRunner{log: log}

	// The tic cadence is paced with a rate.Limiter rather than a bare
	// time.Ticker: TryRunTics can itself block briefly waiting on
	// network data, and a limiter (unlike a ticker, whose missed ticks
	// just vanish) keeps drawing down its burst bucket so a slow pass
	// doesn't cause a burst of catch-up iterations afterward.
	limiter := rate.NewLimiter(rate.Limit(protocol.TicRate), 1)
	loop.Start(time.Now())

	for {
		if err := limiter.Wait(ctx); err != nil {
			log.Info("shutting down")
			client.Disconnect()
			return nil
		}

		now := time.Now()
		settings, inGame := client.Settings()
		if inGame {
			// ValidGameSettings already rejects Ticdup<1 before a
			// GameStart is accepted; this guard is a last line of
			// defense against dividing by it anywhere below.
			if settings.Ticdup >= 1 {
				loop.Ticdup = settings.Ticdup
			}
			loop.NewSync = settings.NewSync != 0
			if !cfg.Drone {
				loop.LocalPlayer = int(settings.ConsolePlayer)
			}
			for _, t := range client.DrainTics(settings.ConsolePlayer) {
				loop.StoreReceivedTic(t.Seq, t.Cmds, t.InGame)
			}
		}
		loop.TryRunTics(now, client, builder, runner)
		client.PublishMetrics()
	}
}

// scriptedBuilder walks the player straight ahead forever, enough to
// exercise the window and clock machinery without real input.
type scriptedBuilder struct{}

func (b *scriptedBuilder) ProcessEvents() {}

func (b *scriptedBuilder) BuildTicCmd(maketic int32) protocol.TicCmd {
	return protocol.TicCmd{ForwardMove: 50}
}

// loggingRunner reports each tic it is handed instead of driving a
// real renderer.
type loggingRunner struct {
	log interface {
		Debug(msg string, args ...any)
	}
}

func (r *loggingRunner) RunTic(cmds [protocol.NetMaxPlayers]protocol.TicCmd, inGame [protocol.NetMaxPlayers]bool) {
	r.log.Debug("ran tic", "players_in_game", countInGame(inGame))
}

func countInGame(inGame [protocol.NetMaxPlayers]bool) int {
	n := 0
	for _, v := range inGame {
		if v {
			n++
		}
	}
	return n
}
